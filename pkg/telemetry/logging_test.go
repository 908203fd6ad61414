package telemetry

import (
	"bytes"
	"encoding/json"
	"log"
	"strings"
	"testing"

	"trafficgov.app/pkg/breaker"
)

func newTestLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(log.New(&buf, "", 0)), &buf
}

func TestLogger_PassWritesJSONLine(t *testing.T) {
	logger, buf := newTestLogger()
	logger.Pass("corr-1", "ctx", "GET /orders", "svc-a")

	var rec map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("expected valid JSON output, got %q: %v", buf.String(), err)
	}
	if rec["event"] != "pass" || rec["resource"] != "GET /orders" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestLogger_WriteGeneratesCorrelationIDWhenAbsent(t *testing.T) {
	logger, buf := newTestLogger()
	logger.Pass("", "ctx", "GET /orders", "")

	var rec map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if rec["correlation_id"] == "" {
		t.Fatalf("expected a generated correlation_id, got empty string")
	}
}

func TestBreakerObserver_OnStateChangeLogsTransition(t *testing.T) {
	logger, buf := newTestLogger()
	obs := BreakerObserver{Logger: logger}

	obs.OnStateChange(breaker.Rule{Resource: "GET /orders"}, breaker.Closed, breaker.Open, 0.9)

	out := buf.String()
	if !strings.Contains(out, "CLOSED -> OPEN") {
		t.Fatalf("expected the log line to mention the transition, got %q", out)
	}
}
