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

// AcquireLockRequest asks for the exclusive advisory lock on a project.
type AcquireLockRequest struct {
	ProjectID      string
	OwnerAgentID   string
	OwnerSessionID string
	TTLMs          *int
}

// ReleaseLockRequest releases a project lock held by the caller.
type ReleaseLockRequest struct {
	ProjectID      string
	OwnerAgentID   string
	OwnerSessionID string
}

// AcquireProjectLock grants a new lock when none is live, renews (with the
// same token) when the caller already owns the live lock, and fails with a
// lock-conflict error when a different owner holds it. It never blocks or
// queues.
func (s *Store) AcquireProjectLock(workspaceID string, req *AcquireLockRequest) (*models.Lock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	if err := validateLockOwner(req.ProjectID, req.OwnerAgentID, req.OwnerSessionID); err != nil {
		return nil, err
	}
	if _, ok := w.projects[req.ProjectID]; !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("project %s not found", req.ProjectID)}
	}

	now := s.now()
	ttl := time.Duration(clampPositive(req.TTLMs, config.DefaultLockTTLMs)) * time.Millisecond

	existing := w.locks[req.ProjectID]
	if existing != nil && !existing.ExpiredAt(now) {
		if !existing.SameOwner(req.OwnerAgentID, req.OwnerSessionID) {
			return nil, &domain.LockConflictError{
				Message:        fmt.Sprintf("project %s is locked by another owner", req.ProjectID),
				ProjectID:      req.ProjectID,
				OwnerAgentID:   existing.OwnerAgentID,
				OwnerSessionID: existing.OwnerSessionID,
			}
		}
		// Idempotent re-acquisition: renew, keep the token.
		existing.ExpiresAt = now.Add(ttl)
		s.logger.Debug("project lock renewed",
			"workspace_id", w.id,
			"project_id", req.ProjectID,
			"owner_agent_id", req.OwnerAgentID,
		)
		return existing.Clone(), nil
	}

	lock := &models.Lock{
		ProjectID:      req.ProjectID,
		OwnerAgentID:   req.OwnerAgentID,
		OwnerSessionID: req.OwnerSessionID,
		Token:          uuid.NewString(),
		ExpiresAt:      now.Add(ttl),
	}
	w.locks[req.ProjectID] = lock

	s.logger.Info("project lock acquired",
		"workspace_id", w.id,
		"project_id", req.ProjectID,
		"owner_agent_id", req.OwnerAgentID,
		"expires_at", lock.ExpiresAt,
	)

	return lock.Clone(), nil
}

// GetProjectLock returns the live lock on a project, or nil when no lock
// exists or the stored lock has expired. Expiry is lazy: no background
// sweep runs.
func (s *Store) GetProjectLock(workspaceID, projectID string) *models.Lock {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	lock := w.locks[projectID]
	if lock == nil || lock.ExpiredAt(s.now()) {
		return nil
	}
	return lock.Clone()
}

// ReleaseProjectLock clears the lock and returns true only when the caller
// matches the live lock's owner. Anything else (no lock, expired lock,
// different owner) is a no-op returning false; the return value alone does
// not distinguish those cases.
func (s *Store) ReleaseProjectLock(workspaceID string, req *ReleaseLockRequest) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	lock := w.locks[req.ProjectID]
	if lock == nil || lock.ExpiredAt(s.now()) {
		return false
	}
	if !lock.SameOwner(req.OwnerAgentID, req.OwnerSessionID) {
		return false
	}

	delete(w.locks, req.ProjectID)
	s.logger.Info("project lock released",
		"workspace_id", w.id,
		"project_id", req.ProjectID,
		"owner_agent_id", req.OwnerAgentID,
	)
	return true
}

// ReleaseProjectLocksByOwner releases every live lock held by an agent and
// returns how many were released. Locks that already expired lazily are
// not counted: there is nothing left to release.
func (s *Store) ReleaseProjectLocksByOwner(workspaceID, ownerAgentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	now := s.now()
	count := 0
	for projectID, lock := range w.locks {
		if lock.OwnerAgentID != ownerAgentID || lock.ExpiredAt(now) {
			continue
		}
		delete(w.locks, projectID)
		count++
	}

	if count > 0 {
		s.logger.Info("project locks released by owner",
			"workspace_id", w.id,
			"owner_agent_id", ownerAgentID,
			"count", count,
		)
	}
	return count
}

func validateLockOwner(projectID, agentID, sessionID string) error {
	err := validation.Errors{
		"projectId":      validation.Validate(projectID, validation.Required),
		"ownerAgentId":   validation.Validate(agentID, validation.Required),
		"ownerSessionId": validation.Validate(sessionID, validation.Required),
	}.Filter()
	if err != nil {
		return &domain.ValidationError{Message: fmt.Sprintf("invalid lock request: %v", err)}
	}
	return nil
}

func clampPositive(v *int, def int) int {
	if v == nil || *v <= 0 {
		return def
	}
	return *v
}
