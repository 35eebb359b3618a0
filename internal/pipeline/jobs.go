package pipeline

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"armature/internal/config"
	"armature/internal/domain"
	models "armature/internal/domain/models/pipeline"
)

// SubmitJobRequest submits one unit of work against a project. MaxAttempts
// and LeaseMs are clamped into their allowed ranges, never rejected.
type SubmitJobRequest struct {
	ProjectID   string
	Kind        string
	Payload     map[string]any
	MaxAttempts *int
	LeaseMs     *int
}

// SubmitJob validates the kind and payload, clamps the numeric knobs and
// enqueues the job at the tail. An unknown project id does not fail the
// submission: a minimal placeholder project is projected into existence,
// so upstream submission can drive project creation for external ids.
func (s *Store) SubmitJob(workspaceID string, req *SubmitJobRequest) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	if err := validation.Validate(req.ProjectID, validation.Required); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid projectId: %v", err)}
	}
	if err := s.kinds.ValidatePayload(req.Kind, req.Payload); err != nil {
		return nil, err
	}

	if _, ok := w.projects[req.ProjectID]; !ok {
		s.newProjectLocked(w, req.ProjectID, req.ProjectID, nil, nil)
		s.logger.Info("project projected into existence",
			"workspace_id", w.id,
			"project_id", req.ProjectID,
		)
	}

	job := &models.Job{
		ID:          "job_" + uuid.NewString(),
		ProjectID:   req.ProjectID,
		WorkspaceID: w.id,
		Kind:        req.Kind,
		Payload:     models.CloneMap(req.Payload),
		Status:      models.JobStatusQueued,
		MaxAttempts: clampInt(req.MaxAttempts, config.DefaultJobAttempts, config.MinJobAttempts, config.MaxJobAttempts),
		LeaseMs:     clampInt(req.LeaseMs, config.DefaultLeaseMs, config.MinLeaseMs, config.MaxLeaseMs),
		CreatedAt:   s.now(),
	}
	w.jobs[job.ID] = job
	w.jobOrder = append(w.jobOrder, job.ID)
	w.queue = append(w.queue, job.ID)

	s.logger.Info("job submitted",
		"workspace_id", w.id,
		"id", job.ID,
		"project_id", job.ProjectID,
		"kind", job.Kind,
		"max_attempts", job.MaxAttempts,
		"lease_ms", job.LeaseMs,
	)

	return job.Clone(), nil
}

// ClaimNextJob scans the queue head-to-tail and claims the first job that
// is either queued (and past any retry backoff) or running with an expired
// lease. The whole check-and-mutate sequence happens under the store
// mutex, so two concurrent claims can never win the same job. Returns nil
// when nothing is claimable.
//
// A reclaimed expired-running job keeps its original queue position; only
// an explicit failure re-enqueues at the tail.
func (s *Store) ClaimNextJob(workspaceID, workerID string) *models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	now := s.now()

	for _, id := range w.queue {
		job, ok := w.jobs[id]
		if !ok || job.DeadLetter {
			continue
		}
		switch job.Status {
		case models.JobStatusQueued:
			if job.NextRetryAt != nil && now.Before(*job.NextRetryAt) {
				continue
			}
		case models.JobStatusRunning:
			if job.LeaseExpiresAt == nil || now.Before(*job.LeaseExpiresAt) {
				continue
			}
		default:
			continue
		}

		job.AttemptCount++
		job.Status = models.JobStatusRunning
		job.WorkerID = &workerID
		lease := now.Add(time.Duration(job.LeaseMs) * time.Millisecond)
		job.LeaseExpiresAt = &lease
		job.NextRetryAt = nil

		if project, ok := w.projects[job.ProjectID]; ok {
			project.ActiveJob = &models.JobRef{ID: job.ID, Kind: job.Kind}
		}

		s.logger.Info("job claimed",
			"workspace_id", w.id,
			"id", job.ID,
			"worker_id", workerID,
			"attempt", job.AttemptCount,
			"lease_expires_at", lease,
		)

		return job.Clone()
	}
	return nil
}

// CompleteJob records a job's declared result and routes it through the
// snapshot projector. The job must still be running under a live lease; a
// late completion after the lease expired is rejected and the job is left
// unchanged, as is a completion with an invalid result schema. A missing
// job returns nil without error.
func (s *Store) CompleteJob(workspaceID, jobID string, result map[string]any) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	job, ok := w.jobs[jobID]
	if !ok {
		return nil, nil
	}
	if job.Status != models.JobStatusRunning {
		return nil, &domain.InvalidPayloadError{
			Message: fmt.Sprintf("job %s is %s, not running", jobID, job.Status),
			Kind:    job.Kind,
		}
	}
	now := s.now()
	if job.LeaseExpiresAt == nil || !now.Before(*job.LeaseExpiresAt) {
		return nil, &domain.InvalidPayloadError{
			Message: fmt.Sprintf("job %s lease expired, claim no longer valid", jobID),
			Kind:    job.Kind,
		}
	}
	if err := s.kinds.ValidateResult(job.Kind, result); err != nil {
		return nil, err
	}

	job.Status = models.JobStatusCompleted
	job.Result = models.CloneMap(result)
	job.NextRetryAt = nil
	w.removeFromQueue(jobID)

	if project, ok := w.projects[job.ProjectID]; ok {
		project.ActiveJob = nil
		s.projectResultLocked(w, project, result)
	}

	s.logger.Info("job completed",
		"workspace_id", w.id,
		"id", jobID,
		"project_id", job.ProjectID,
		"attempt", job.AttemptCount,
	)

	return job.Clone(), nil
}

// FailJob records a failed attempt. With attempts left, the job returns to
// queued at the tail with an exponential backoff anchored at the lease
// expiry; it is not claimable again until that instant passes. With
// attempts exhausted, the job is dead-lettered and permanently excluded
// from claiming. A missing job returns nil without error.
func (s *Store) FailJob(workspaceID, jobID, message string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	job, ok := w.jobs[jobID]
	if !ok {
		return nil, nil
	}
	if job.Status != models.JobStatusRunning {
		return nil, &domain.InvalidPayloadError{
			Message: fmt.Sprintf("job %s is %s, not running", jobID, job.Status),
			Kind:    job.Kind,
		}
	}

	job.Error = &message
	if project, ok := w.projects[job.ProjectID]; ok {
		project.ActiveJob = nil
	}

	if job.AttemptCount < job.MaxAttempts {
		anchor := s.now()
		if job.LeaseExpiresAt != nil {
			anchor = *job.LeaseExpiresAt
		}
		retryAt := anchor.Add(retryBackoff(job.AttemptCount))
		job.Status = models.JobStatusQueued
		job.NextRetryAt = &retryAt
		job.WorkerID = nil
		job.LeaseExpiresAt = nil
		w.removeFromQueue(jobID)
		w.queue = append(w.queue, jobID)

		s.logger.Info("job failed, retry scheduled",
			"workspace_id", w.id,
			"id", jobID,
			"attempt", job.AttemptCount,
			"max_attempts", job.MaxAttempts,
			"next_retry_at", retryAt,
			"error", message,
		)
	} else {
		job.Status = models.JobStatusFailed
		job.DeadLetter = true
		job.NextRetryAt = nil
		w.removeFromQueue(jobID)

		s.logger.Warn("job dead-lettered",
			"workspace_id", w.id,
			"id", jobID,
			"attempt", job.AttemptCount,
			"error", message,
		)
	}

	return job.Clone(), nil
}

// ListProjectJobs returns deep copies of all jobs ever submitted against a
// project, in submission order. Jobs are retained for audit even after
// they finish.
func (s *Store) ListProjectJobs(workspaceID, projectID string) []*models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	out := make([]*models.Job, 0)
	for _, id := range w.jobOrder {
		job, ok := w.jobs[id]
		if !ok || job.ProjectID != projectID {
			continue
		}
		out = append(out, job.Clone())
	}
	return out
}

// GetJob returns a deep copy of a job, or nil if it does not exist.
func (s *Store) GetJob(workspaceID, jobID string) *models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	job, ok := w.jobs[jobID]
	if !ok {
		return nil
	}
	return job.Clone()
}

// QueueDepth returns the number of claimable-or-pending entries in a
// workspace's queue.
func (s *Store) QueueDepth(workspaceID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ws(workspaceID).queue)
}

func (w *workspace) removeFromQueue(jobID string) {
	for i, id := range w.queue {
		if id == jobID {
			w.queue = append(w.queue[:i], w.queue[i+1:]...)
			return
		}
	}
}

// retryBackoff doubles per failed attempt, anchored by the caller at the
// attempt's lease expiry.
func retryBackoff(attempt int) time.Duration {
	backoff := config.RetryBackoffBase
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	return backoff
}

func clampInt(v *int, def, min, max int) int {
	n := def
	if v != nil {
		n = *v
	}
	if n < min {
		n = min
	}
	if n > max {
		n = max
	}
	return n
}
