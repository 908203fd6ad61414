// Package telemetry provides structured logging for admission decisions
// and breaker transitions, adapted from the caching system's request
// logger: stdlib log plus JSON encoding, correlation IDs from
// github.com/google/uuid, kept deliberately low-overhead since it runs on
// every entry/exit.
package telemetry

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"trafficgov.app/pkg/breaker"
)

// Logger writes one JSON line per admission event to an underlying
// *log.Logger. The zero value is unusable; use NewLogger.
type Logger struct {
	out *log.Logger
}

// NewLogger wraps out (e.g. log.Default()) as a structured admission
// logger.
func NewLogger(out *log.Logger) *Logger {
	return &Logger{out: out}
}

// decisionRecord is the JSON shape written for every logged event.
type decisionRecord struct {
	Time        string `json:"time"`
	CorrelationID string `json:"correlation_id"`
	Context     string `json:"context"`
	Resource    string `json:"resource"`
	Origin      string `json:"origin,omitempty"`
	Event       string `json:"event"`
	Rule        string `json:"rule,omitempty"`
	LimitApp    string `json:"limit_app,omitempty"`
	WaitMs      int64  `json:"wait_ms,omitempty"`
}

func (l *Logger) write(rec decisionRecord) {
	rec.Time = time.Now().UTC().Format(time.RFC3339Nano)
	if rec.CorrelationID == "" {
		rec.CorrelationID = uuid.NewString()
	}
	b, err := json.Marshal(rec)
	if err != nil {
		l.out.Printf("telemetry: marshal failed: %v", err)
		return
	}
	l.out.Println(string(b))
}

// Pass logs an admitted call.
func (l *Logger) Pass(correlationID, context, resource, origin string) {
	l.write(decisionRecord{CorrelationID: correlationID, Context: context, Resource: resource, Origin: origin, Event: "pass"})
}

// PriorityWait logs a priority-wait admission and how long it waited.
func (l *Logger) PriorityWait(correlationID, context, resource, origin string, waitMs int64) {
	l.write(decisionRecord{CorrelationID: correlationID, Context: context, Resource: resource, Origin: origin, Event: "priority_wait", WaitMs: waitMs})
}

// BlockedByFlow logs a flow-control rejection.
func (l *Logger) BlockedByFlow(correlationID, context, resource, origin, rule, limitApp string) {
	l.write(decisionRecord{CorrelationID: correlationID, Context: context, Resource: resource, Origin: origin, Event: "blocked_flow", Rule: rule, LimitApp: limitApp})
}

// BlockedByDegrade logs a circuit-breaker rejection.
func (l *Logger) BlockedByDegrade(correlationID, context, resource, origin string) {
	l.write(decisionRecord{CorrelationID: correlationID, Context: context, Resource: resource, Origin: origin, Event: "blocked_degrade"})
}

// Exception logs a completed call that recorded a non-block application
// error, so a failing call is never silently swallowed at exit either.
func (l *Logger) Exception(correlationID, context, resource, origin string) {
	l.write(decisionRecord{CorrelationID: correlationID, Context: context, Resource: resource, Origin: origin, Event: "exception"})
}

// StateChange logs a breaker state transition.
func (l *Logger) StateChange(resource, prev, next string, snapshot float64) {
	l.out.Printf("breaker state change resource=%s %s -> %s snapshot=%.4f", resource, prev, next, snapshot)
}

// BreakerObserver adapts Logger to breaker.Observer, so a Logger can be
// handed directly to breaker.NewManager.
type BreakerObserver struct{ Logger *Logger }

func (o BreakerObserver) OnStateChange(rule breaker.Rule, prev, next breaker.State, snapshot float64) {
	o.Logger.StateChange(rule.Resource, prev.String(), next.String(), snapshot)
}
