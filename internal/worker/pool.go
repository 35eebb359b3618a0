// Package worker runs the polling worker pool that executes pipeline
// jobs. Workers claim jobs from the store, dispatch to a per-kind
// executor, and report the outcome back through CompleteJob/FailJob; the
// store's lease machinery handles workers that die mid-job.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	models "armature/internal/domain/models/pipeline"
	"armature/internal/pipeline"
)

// Executor performs the kind-specific work for one claimed job, out of
// store, and returns the result to report.
type Executor interface {
	Execute(ctx context.Context, job *models.Job) (map[string]any, error)
}

// Pool polls ClaimNextJob with a fixed set of workers.
type Pool struct {
	store        *pipeline.Store
	workspaceID  string
	executors    map[string]Executor
	workers      int
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewPool creates a pool of workers for one workspace.
func NewPool(store *pipeline.Store, workspaceID string, workers int, pollInterval time.Duration, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		store:        store,
		workspaceID:  workspaceID,
		executors:    make(map[string]Executor),
		workers:      workers,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Register installs the executor for a job kind.
func (p *Pool) Register(kind string, executor Executor) {
	p.executors[kind] = executor
}

// Run starts the workers and blocks until ctx is cancelled and all
// workers have drained.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		workerID := fmt.Sprintf("worker-%s", uuid.NewString()[:8])
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.runWorker(ctx, workerID)
		}()
	}
	wg.Wait()
}

func (p *Pool) runWorker(ctx context.Context, workerID string) {
	p.logger.Info("worker started", "worker_id", workerID, "workspace_id", p.workspaceID)
	for {
		job := p.store.ClaimNextJob(p.workspaceID, workerID)
		if job == nil {
			select {
			case <-ctx.Done():
				p.logger.Info("worker stopped", "worker_id", workerID)
				return
			case <-time.After(p.pollInterval):
			}
			continue
		}
		p.execute(ctx, workerID, job)

		// Check for shutdown between jobs, not mid-job.
		select {
		case <-ctx.Done():
			p.logger.Info("worker stopped", "worker_id", workerID)
			return
		default:
		}
	}
}

func (p *Pool) execute(ctx context.Context, workerID string, job *models.Job) {
	executor, ok := p.executors[job.Kind]
	if !ok {
		p.fail(job, fmt.Sprintf("no executor registered for kind %s", job.Kind))
		return
	}

	// Bound the execution by the lease so a stuck executor cannot outlive
	// its claim.
	execCtx, cancel := context.WithTimeout(ctx, time.Duration(job.LeaseMs)*time.Millisecond)
	defer cancel()

	result, err := executor.Execute(execCtx, job)
	if err != nil {
		p.fail(job, err.Error())
		return
	}

	if _, err := p.store.CompleteJob(p.workspaceID, job.ID, result); err != nil {
		p.logger.Error("job completion rejected",
			"worker_id", workerID,
			"job_id", job.ID,
			"error", err,
		)
	}
}

func (p *Pool) fail(job *models.Job, message string) {
	if _, err := p.store.FailJob(p.workspaceID, job.ID, message); err != nil {
		p.logger.Error("job failure rejected", "job_id", job.ID, "error", err)
	}
}
