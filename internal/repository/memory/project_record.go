// Package memory holds in-memory reference implementations of the durable
// repository contracts. They back tests and single-process deployments; a
// real deployment swaps in a database-backed implementation with the same
// semantics.
package memory

import (
	"context"
	"log/slog"
	"sync"

	models "armature/internal/domain/models/pipeline"
	pipelineRepo "armature/internal/domain/repositories/pipeline"
)

// ProjectRecordRepository implements the durable record contract over a
// mutex-guarded map. SaveIfRevision is a true CAS: the revision comparison
// and the write happen under one lock.
type ProjectRecordRepository struct {
	mu      sync.Mutex
	records map[models.Scope]*models.ProjectRecord
	logger  *slog.Logger
}

// NewProjectRecordRepository creates an empty repository.
func NewProjectRecordRepository(logger *slog.Logger) *ProjectRecordRepository {
	return &ProjectRecordRepository{
		records: make(map[models.Scope]*models.ProjectRecord),
		logger:  logger,
	}
}

var _ pipelineRepo.ProjectRecordRepository = (*ProjectRecordRepository)(nil)

// Find retrieves the record for a scope, or nil if none exists.
func (r *ProjectRecordRepository) Find(ctx context.Context, scope models.Scope) (*models.ProjectRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[scope].Clone(), nil
}

// Save unconditionally upserts the record.
func (r *ProjectRecordRepository) Save(ctx context.Context, record *models.ProjectRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.Scope] = record.Clone()
	return nil
}

// SaveIfRevision writes only if the stored revision equals
// expectedRevision, or if expectedRevision is nil and no record exists
// yet. Returns false on a mismatch.
func (r *ProjectRecordRepository) SaveIfRevision(ctx context.Context, record *models.ProjectRecord, expectedRevision *int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.records[record.Scope]
	if expectedRevision == nil {
		if current != nil {
			return false, nil
		}
	} else {
		if current == nil || current.Revision != *expectedRevision {
			return false, nil
		}
	}

	r.records[record.Scope] = record.Clone()
	r.logger.Debug("project record saved",
		"tenant_id", record.Scope.TenantID,
		"project_id", record.Scope.ProjectID,
		"revision", record.Revision,
	)
	return true, nil
}

// Remove deletes the record for a scope. Missing records are a no-op.
func (r *ProjectRecordRepository) Remove(ctx context.Context, scope models.Scope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, scope)
	return nil
}
