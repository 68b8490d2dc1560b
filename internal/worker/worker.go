// Package worker runs the invoice reconciler on a fixed poll interval.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/taxsim/internal/jobs"
)

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance in logs
	WorkerID string

	// PollInterval is how often to look for pending invoices
	PollInterval time.Duration

	// MaxConcurrency is the maximum number of passes running at once
	MaxConcurrency int

	// BatchSize caps the orders handled per pass
	BatchSize int

	// GracePeriod skips orders younger than this so in-flight requests can
	// finish their own render first
	GracePeriod time.Duration

	// ShutdownTimeout bounds how long Start waits for in-flight passes
	ShutdownTimeout time.Duration
}

// Worker processes background jobs
type Worker struct {
	config Config
	deps   jobs.ReconcileDeps
	now    func() time.Time
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewWorker creates a new background job worker
func NewWorker(deps jobs.ReconcileDeps, config Config, logger *slog.Logger) *Worker {
	if config.WorkerID == "" {
		config.WorkerID = "worker-" + uuid.NewString()[:8]
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 30 * time.Second
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 1
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 20
	}
	if config.GracePeriod < 0 {
		config.GracePeriod = 0
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With("worker_id", config.WorkerID)
	deps.Logger = logger

	return &Worker{
		config: config,
		deps:   deps,
		now:    time.Now,
		logger: logger,
	}
}

// Start polls until ctx is cancelled, then waits up to ShutdownTimeout for
// in-flight passes.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker starting",
		"poll_interval", w.config.PollInterval,
		"max_concurrency", w.config.MaxConcurrency,
		"batch_size", w.config.BatchSize,
		"grace_period", w.config.GracePeriod,
	)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// Semaphore for concurrency control
	sem := make(chan struct{}, w.config.MaxConcurrency)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down")
			w.wait()
			return ctx.Err()

		case <-ticker.C:
			select {
			case sem <- struct{}{}:
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }()
					w.RunOnce(ctx)
				}()
			default:
				// At max concurrency, skip this poll
			}
		}
	}
}

func (w *Worker) wait() {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn("worker shutdown timed out with passes still running")
	}
}

// RunOnce performs a single reconciliation pass and records it.
func (w *Worker) RunOnce(ctx context.Context) (*jobs.ReconcileResult, error) {
	start := time.Now()
	olderThan := w.now().Add(-w.config.GracePeriod)

	result, err := jobs.ReconcilePendingInvoices(ctx, w.deps, olderThan, w.config.BatchSize)
	w.deps.Metrics.RecordJob(jobs.JobTypeReconcileInvoices, time.Since(start).Seconds(), err)

	if err != nil {
		w.logger.Error("job failed", "job_type", jobs.JobTypeReconcileInvoices, "error", err)
		return nil, err
	}

	if result.Scanned > 0 {
		w.logger.Info("job completed",
			"job_type", jobs.JobTypeReconcileInvoices,
			"scanned", result.Scanned,
			"rendered", result.Rendered,
			"failed", result.Failed,
			"skipped", result.Skipped,
		)
	}
	return result, nil
}
