package report

import (
	"context"
	"time"
)

// MetricsRecorder aggregates operation outcomes for exporters.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer starts spans around runner operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan terminates a single traced operation.
type TraceSpan interface {
	End(err error)
}

// AuditStatus describes the outcome recorded in an audit entry.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusSkipped AuditStatus = "skipped"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry captures one runner operation for the audit trail.
type AuditEntry struct {
	ID         string      `json:"id"`
	Operation  string      `json:"operation"`
	Status     AuditStatus `json:"status"`
	Module     string      `json:"module,omitempty"`
	Detail     string      `json:"detail,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// AuditRecorder receives audit entries. Implementations must be safe for
// concurrent use.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}
