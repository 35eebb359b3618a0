package pipeline

import (
	"context"

	models "armature/internal/domain/models/pipeline"
)

// ProjectRecordRepository defines durable access to flattened project
// records under revision-CAS semantics. The in-process pipeline store does
// not depend on it; a deployment wires an implementation behind the store
// when it needs persistence across restarts.
type ProjectRecordRepository interface {
	// Find retrieves the record for a scope, or nil if none exists.
	Find(ctx context.Context, scope models.Scope) (*models.ProjectRecord, error)

	// Save unconditionally upserts the record.
	Save(ctx context.Context, record *models.ProjectRecord) error

	// SaveIfRevision writes the record only if the currently stored
	// revision equals expectedRevision, or if expectedRevision is nil and
	// no record exists yet. Returns false on a revision mismatch.
	SaveIfRevision(ctx context.Context, record *models.ProjectRecord, expectedRevision *int64) (bool, error)

	// Remove deletes the record for a scope. Missing records are a no-op.
	Remove(ctx context.Context, scope models.Scope) error
}
