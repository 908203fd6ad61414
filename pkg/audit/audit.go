// Package audit is an optional, off-by-default persistence sink for
// admission decisions: every block and every breaker transition can be
// appended to an audit table for later compliance review, adapted from
// the caching system's invalidation audit log.
package audit

import (
	"context"
	"fmt"
	"time"

	"encore.dev/storage/sqldb"
)

// DecisionLog is one audited admission outcome.
type DecisionLog struct {
	ID            int64
	CorrelationID string
	Context       string
	Resource      string
	Origin        string
	Kind          string // "blocked_flow", "blocked_degrade", "breaker_transition"
	Detail        string
	Timestamp     time.Time
}

// Logger persists DecisionLogs to Postgres via Encore's managed database
// handle, append-only, indexed by timestamp and resource for time-range
// and per-resource compliance queries.
type Logger struct {
	db *sqldb.Database
}

// NewLogger wraps db, ensuring the audit table exists.
func NewLogger(db *sqldb.Database) (*Logger, error) {
	l := &Logger{db: db}
	if err := l.ensureSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("audit: schema init: %w", err)
	}
	return l, nil
}

func (l *Logger) ensureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS admission_audit (
			id BIGSERIAL PRIMARY KEY,
			correlation_id TEXT NOT NULL,
			context TEXT NOT NULL,
			resource TEXT NOT NULL,
			origin TEXT,
			kind TEXT NOT NULL,
			detail TEXT,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_admission_audit_timestamp
		ON admission_audit(timestamp DESC);

		CREATE INDEX IF NOT EXISTS idx_admission_audit_resource
		ON admission_audit(resource);
	`
	_, err := l.db.Exec(ctx, query)
	return err
}

// Insert appends one decision log entry.
func (l *Logger) Insert(ctx context.Context, entry DecisionLog) error {
	query := `
		INSERT INTO admission_audit (correlation_id, context, resource, origin, kind, detail, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := l.db.Exec(ctx, query,
		entry.CorrelationID, entry.Context, entry.Resource, entry.Origin,
		entry.Kind, entry.Detail, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// Recent retrieves the most recent audit entries, optionally filtered by
// resource.
func (l *Logger) Recent(ctx context.Context, limit int, resourceFilter string) ([]DecisionLog, error) {
	query := `
		SELECT id, correlation_id, context, resource, origin, kind, detail, timestamp
		FROM admission_audit ORDER BY timestamp DESC LIMIT $1
	`
	args := []interface{}{limit}
	if resourceFilter != "" {
		query = `
			SELECT id, correlation_id, context, resource, origin, kind, detail, timestamp
			FROM admission_audit WHERE resource = $1 ORDER BY timestamp DESC LIMIT $2
		`
		args = []interface{}{resourceFilter, limit}
	}

	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query: %w", err)
	}
	defer rows.Close()

	var out []DecisionLog
	for rows.Next() {
		var d DecisionLog
		if err := rows.Scan(&d.ID, &d.CorrelationID, &d.Context, &d.Resource, &d.Origin, &d.Kind, &d.Detail, &d.Timestamp); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
