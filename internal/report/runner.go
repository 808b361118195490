package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"seqreport/internal/provenance"
	"seqreport/pkg/reportapi"
)

// operation name used for metrics, traces and audit entries.
const opRunModule = "run_module"

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger modules and the runner log through.
func WithLogger(l reportapi.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetricsRecorder sets the metrics sink.
func WithMetricsRecorder(m MetricsRecorder) RunnerOption {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t Tracer) RunnerOption {
	return func(r *Runner) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithAuditRecorder sets the audit sink.
func WithAuditRecorder(a AuditRecorder) RunnerOption {
	return func(r *Runner) {
		if a != nil {
			r.audit = a
		}
	}
}

// WithClock overrides the time source, mostly for tests.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithArchive sets the provenance archive runs are recorded into.
func WithArchive(a provenance.Archive) RunnerOption {
	return func(r *Runner) { r.archive = a }
}

// WithCleaner sets the sample-name cleaning rules.
func WithCleaner(c Cleaner) RunnerOption {
	return func(r *Runner) { r.cleaner = c }
}

// WithIgnorePatterns sets the sample-exclusion globs.
func WithIgnorePatterns(patterns ...string) RunnerOption {
	return func(r *Runner) { r.ignore = IgnorePatterns(patterns) }
}

// Runner executes every registered module against one set of discovered
// files and assembles the resulting report.
type Runner struct {
	registry *Registry
	cleaner  Cleaner
	ignore   IgnorePatterns
	archive  provenance.Archive
	logger   reportapi.Logger
	metrics  MetricsRecorder
	tracer   Tracer
	audit    AuditRecorder
	now      func() time.Time
}

// NewRunner constructs a runner over the given registry.
func NewRunner(registry *Registry, opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: registry,
		logger:   reportapi.NopLogger(),
		metrics:  noopMetricsRecorder{},
		tracer:   noopTracer{},
		audit:    noopAuditRecorder{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunRequest describes one report run.
type RunRequest struct {
	ID    string // generated when empty
	Title string
	Roots []string
	Files map[string][]reportapi.LogFile // discovery index: pattern key to hits
}

// Run executes all registered modules in registration order. A module that
// returns ErrNoSamples is skipped; any other module error is recorded in the
// module's outcome and the run continues. Run itself fails only when the
// run cannot be set up (nil registry, archive rejects the run record).
func (r *Runner) Run(ctx context.Context, req RunRequest) (*Report, error) {
	if r.registry == nil {
		return nil, fmt.Errorf("runner requires a module registry")
	}
	runID := req.ID
	if runID == "" {
		runID = uuid.NewString()
	}
	rep := &Report{
		RunID:     runID,
		Title:     req.Title,
		StartedAt: r.now(),
		Roots:     append([]string(nil), req.Roots...),
		General:   NewGeneralStats(),
	}
	if r.archive != nil {
		rec := provenance.RunRecord{ID: runID, Title: req.Title, StartedAt: rep.StartedAt, Roots: rep.Roots}
		if err := r.archive.BeginRun(ctx, rec); err != nil {
			return nil, fmt.Errorf("begin run: %w", err)
		}
	}

	for _, m := range r.registry.Modules() {
		rep.Outcomes = append(rep.Outcomes, r.runModule(ctx, rep, req, m))
	}

	rep.SampleCount = rep.General.Len()
	if len(rep.Sources) > 0 {
		rep.DataFiles = append(rep.DataFiles, DataFile{Name: "sources", Data: rep.Sources})
	}
	rep.FinishedAt = r.now()
	return rep, nil
}

func (r *Runner) runModule(ctx context.Context, rep *Report, req RunRequest, m reportapi.Module) provenance.ModuleOutcome {
	info := m.Info()
	started := r.now()
	opCtx, span := r.tracer.Start(ctx, opRunModule)
	host := &moduleHost{
		runner:  r,
		rep:     rep,
		ctx:     opCtx,
		module:  info,
		files:   req.Files,
		samples: make(map[string]struct{}),
		logger:  moduleLogger{base: r.logger, module: info.Name},
	}

	err := runModuleGuarded(opCtx, m, host)
	duration := r.now().Sub(started)

	outcome := provenance.ModuleOutcome{Name: info.Name, Samples: len(host.samples)}
	switch {
	case err == nil:
		outcome.Status = provenance.StatusSuccess
		span.End(nil)
		r.metrics.Observe(opCtx, opRunModule, true, duration)
		r.recordAudit(opCtx, info.Name, AuditStatusSuccess, fmt.Sprintf("%d samples", outcome.Samples))
		r.logger.Info("module finished", "module", info.Name, "samples", outcome.Samples)
	case errors.Is(err, reportapi.ErrNoSamples):
		outcome.Status = provenance.StatusSkipped
		span.End(nil)
		r.metrics.Observe(opCtx, opRunModule, true, duration)
		r.recordAudit(opCtx, info.Name, AuditStatusSkipped, "")
		r.logger.Debug("module skipped", "module", info.Name)
	default:
		outcome.Status = provenance.StatusError
		outcome.Error = err.Error()
		span.End(err)
		r.metrics.Observe(opCtx, opRunModule, false, duration)
		r.recordAudit(opCtx, info.Name, AuditStatusError, err.Error())
		r.logger.Error("module failed", "module", info.Name, "error", err)
	}
	return outcome
}

func runModuleGuarded(ctx context.Context, m reportapi.Module, host reportapi.Host) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("module panic: %v", rec)
		}
	}()
	return m.Run(ctx, host)
}

func (r *Runner) recordAudit(ctx context.Context, module string, status AuditStatus, detail string) {
	r.audit.Record(ctx, AuditEntry{
		ID:         uuid.NewString(),
		Operation:  opRunModule,
		Status:     status,
		Module:     module,
		Detail:     detail,
		OccurredAt: r.now(),
	})
}

// FinishRun archives the final run record. reportKey names the stored report
// artifact; it may be empty when rendering was skipped.
func (r *Runner) FinishRun(ctx context.Context, rep *Report, reportKey string) error {
	if r.archive == nil {
		return nil
	}
	rec := provenance.RunRecord{
		ID:         rep.RunID,
		Title:      rep.Title,
		StartedAt:  rep.StartedAt,
		FinishedAt: rep.FinishedAt,
		Roots:      rep.Roots,
		Modules:    append([]provenance.ModuleOutcome(nil), rep.Outcomes...),
		Samples:    rep.SampleCount,
		ReportKey:  reportKey,
	}
	return r.archive.FinishRun(ctx, rec)
}
