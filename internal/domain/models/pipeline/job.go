package pipeline

import (
	"time"
)

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job is one unit of conversion/validation work submitted against a
// project. Jobs are created by submission, mutated only by
// claim/complete/fail, and retained for audit (never deleted outside of
// cascade delete and reset).
type Job struct {
	ID             string         `json:"id"`
	ProjectID      string         `json:"project_id"`
	WorkspaceID    string         `json:"workspace_id"`
	Kind           string         `json:"kind"`
	Payload        map[string]any `json:"payload,omitempty"`
	Status         JobStatus      `json:"status"`
	AttemptCount   int            `json:"attempt_count"`
	MaxAttempts    int            `json:"max_attempts"`
	LeaseMs        int            `json:"lease_ms"`
	WorkerID       *string        `json:"worker_id,omitempty"`
	LeaseExpiresAt *time.Time     `json:"lease_expires_at,omitempty"`
	Result         map[string]any `json:"result,omitempty"`
	Error          *string        `json:"error,omitempty"`
	DeadLetter     bool           `json:"dead_letter,omitempty"`
	NextRetryAt    *time.Time     `json:"next_retry_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Clone returns a deep copy safe to hand to callers.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	out.Payload = CloneMap(j.Payload)
	out.Result = CloneMap(j.Result)
	if j.WorkerID != nil {
		id := *j.WorkerID
		out.WorkerID = &id
	}
	if j.LeaseExpiresAt != nil {
		t := *j.LeaseExpiresAt
		out.LeaseExpiresAt = &t
	}
	if j.Error != nil {
		msg := *j.Error
		out.Error = &msg
	}
	if j.NextRetryAt != nil {
		t := *j.NextRetryAt
		out.NextRetryAt = &t
	}
	return &out
}

// CloneMap deep-copies the JSON-shaped maps used for job payloads and
// results (maps, slices and scalars only).
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneAnyValue(v)
	}
	return out
}

func cloneAnyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneAnyValue(item)
		}
		return out
	default:
		return v
	}
}
