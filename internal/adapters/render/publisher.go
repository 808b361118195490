package render

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"seqreport/internal/artifact"
	"seqreport/internal/report"
	"seqreport/pkg/reportapi"
)

// PublishStatus describes the lifecycle stage of a publish job.
type PublishStatus string

const (
	PublishStatusQueued    PublishStatus = "queued"
	PublishStatusRunning   PublishStatus = "running"
	PublishStatusSucceeded PublishStatus = "succeeded"
	PublishStatusFailed    PublishStatus = "failed"
)

const opPublishRun = "publish_run"

// PublishJob tracks one run being copied to the destination store.
type PublishJob struct {
	ID          string        `json:"id"`
	RunID       string        `json:"run_id"`
	Status      PublishStatus `json:"status"`
	Error       string        `json:"error,omitempty"`
	Keys        []string      `json:"keys,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

func (j PublishJob) copy() PublishJob {
	dup := j
	if len(j.Keys) > 0 {
		dup.Keys = append([]string(nil), j.Keys...)
	}
	return dup
}

type publishTask struct {
	id    string
	runID string
}

// PublisherOption customizes a Publisher.
type PublisherOption func(*Publisher)

// WithPublishLogger sets the worker's logger.
func WithPublishLogger(l reportapi.Logger) PublisherOption {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithPublishAudit sets the audit sink publish transitions are recorded to.
func WithPublishAudit(a report.AuditRecorder) PublisherOption {
	return func(p *Publisher) {
		if a != nil {
			p.audit = a
		}
	}
}

// WithPublishPrefix sets the key prefix runs are stored under. It must match
// the renderer's prefix.
func WithPublishPrefix(prefix string) PublisherOption {
	return func(p *Publisher) {
		if prefix != "" {
			p.prefix = prefix
		}
	}
}

// WithQueueSize bounds how many jobs may wait at once.
func WithQueueSize(n int) PublisherOption {
	return func(p *Publisher) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

// Publisher copies finished runs from the local store to a destination
// store asynchronously. Jobs move queued -> running -> succeeded|failed;
// enqueueing on a full queue fails fast instead of blocking a run.
type Publisher struct {
	src       artifact.Store
	dst       artifact.Store
	audit     report.AuditRecorder
	logger    reportapi.Logger
	prefix    string
	queueSize int

	queue chan publishTask
	mu    sync.RWMutex
	jobs  map[string]*PublishJob

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPublisher constructs a publisher copying from src to dst.
func NewPublisher(src, dst artifact.Store, opts ...PublisherOption) *Publisher {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Publisher{
		src:       src,
		dst:       dst,
		logger:    reportapi.NopLogger(),
		prefix:    "runs",
		queueSize: 16,
		jobs:      make(map[string]*PublishJob),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.queue = make(chan publishTask, p.queueSize)
	return p
}

// Start begins processing publish jobs.
func (p *Publisher) Start() {
	p.wg.Add(1)
	go p.loop()
}

// Stop signals the worker to halt and waits for it to finish.
func (p *Publisher) Stop(ctx context.Context) error {
	p.cancel()
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) loop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.queue:
			p.process(task)
		}
	}
}

// Enqueue schedules a run for publishing and returns the queued job.
func (p *Publisher) Enqueue(ctx context.Context, runID string) (PublishJob, error) {
	if p.src == nil || p.dst == nil {
		return PublishJob{}, fmt.Errorf("publisher requires source and destination stores")
	}
	if strings.TrimSpace(runID) == "" {
		return PublishJob{}, fmt.Errorf("run id required")
	}

	now := time.Now().UTC()
	job := PublishJob{
		ID:        uuid.NewString(),
		RunID:     runID,
		Status:    PublishStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.mu.Lock()
	p.jobs[job.ID] = &job
	snapshot := job.copy()
	p.mu.Unlock()
	p.recordAudit(ctx, PublishStatusQueued, runID, "")

	select {
	case p.queue <- publishTask{id: job.ID, runID: runID}:
	default:
		p.mu.Lock()
		delete(p.jobs, job.ID)
		p.mu.Unlock()
		p.recordAudit(ctx, PublishStatusFailed, runID, "publish queue full")
		return PublishJob{}, fmt.Errorf("publish queue full")
	}

	return snapshot, nil
}

// GetJob returns a snapshot of a publish job.
func (p *Publisher) GetJob(id string) (PublishJob, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	job, ok := p.jobs[id]
	if !ok {
		return PublishJob{}, false
	}
	return job.copy(), true
}

// Jobs returns snapshots of all known jobs, oldest first.
func (p *Publisher) Jobs() []PublishJob {
	p.mu.RLock()
	out := make([]PublishJob, 0, len(p.jobs))
	for _, job := range p.jobs {
		out = append(out, job.copy())
	}
	p.mu.RUnlock()
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].CreatedAt.Before(out[j-1].CreatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func (p *Publisher) process(task publishTask) {
	p.updateStatus(task.id, PublishStatusRunning, "")

	prefix := path.Join(p.prefix, task.runID) + "/"
	infos, err := p.src.List(p.ctx, prefix)
	if err != nil {
		p.fail(task, fmt.Sprintf("list run artifacts: %v", err))
		return
	}
	if len(infos) == 0 {
		p.fail(task, fmt.Sprintf("no artifacts under %s", prefix))
		return
	}

	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		if err := p.copyOne(info.Key); err != nil {
			p.fail(task, err.Error())
			return
		}
		keys = append(keys, info.Key)
	}
	p.complete(task, keys)
}

func (p *Publisher) copyOne(key string) error {
	info, rc, err := p.src.Get(p.ctx, key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	opts := artifact.PutOptions{ContentType: info.ContentType, Metadata: info.Metadata}
	if _, err := p.dst.Put(p.ctx, key, rc, opts); err != nil {
		return fmt.Errorf("copy %s: %w", key, err)
	}
	return nil
}

func (p *Publisher) updateStatus(id string, status PublishStatus, message string) {
	now := time.Now().UTC()
	var runID string
	p.mu.Lock()
	if job, ok := p.jobs[id]; ok {
		job.Status = status
		job.Error = message
		job.UpdatedAt = now
		runID = job.RunID
	}
	p.mu.Unlock()
	p.recordAudit(p.ctx, status, runID, message)
}

func (p *Publisher) complete(task publishTask, keys []string) {
	now := time.Now().UTC()
	p.mu.Lock()
	if job, ok := p.jobs[task.id]; ok {
		job.Status = PublishStatusSucceeded
		job.Error = ""
		job.Keys = keys
		job.UpdatedAt = now
		job.CompletedAt = &now
	}
	p.mu.Unlock()
	p.recordAudit(p.ctx, PublishStatusSucceeded, task.runID, fmt.Sprintf("%d artifacts", len(keys)))
	p.logger.Info("run published", "run", task.runID, "artifacts", len(keys))
}

func (p *Publisher) fail(task publishTask, reason string) {
	now := time.Now().UTC()
	p.mu.Lock()
	if job, ok := p.jobs[task.id]; ok {
		job.Status = PublishStatusFailed
		job.Error = reason
		job.UpdatedAt = now
		job.CompletedAt = &now
	}
	p.mu.Unlock()
	p.recordAudit(p.ctx, PublishStatusFailed, task.runID, reason)
	p.logger.Error("publish failed", "run", task.runID, "error", reason)
}

func (p *Publisher) recordAudit(ctx context.Context, status PublishStatus, runID, detail string) {
	if p.audit == nil {
		return
	}
	if detail == "" {
		detail = "run " + runID
	} else {
		detail = fmt.Sprintf("run %s: %s", runID, detail)
	}
	p.audit.Record(ctx, report.AuditEntry{
		ID:         uuid.NewString(),
		Operation:  opPublishRun,
		Status:     report.AuditStatus(status),
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	})
}
