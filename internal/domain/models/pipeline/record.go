package pipeline

import "time"

// Scope identifies a durable project record: every record is partitioned
// by tenant, mirroring the store's workspace scoping.
type Scope struct {
	TenantID  string `json:"tenant_id"`
	ProjectID string `json:"project_id"`
}

// ProjectRecord is the flattened project shape the durable repository
// persists under revision-CAS semantics. It is deliberately narrower than
// the in-store Project: the durable side keeps summary fields only.
type ProjectRecord struct {
	Scope       Scope     `json:"scope"`
	Name        string    `json:"name"`
	Revision    int64     `json:"revision"`
	HasGeometry bool      `json:"has_geometry"`
	Stats       Stats     `json:"stats"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Clone returns a copy safe to hand to callers.
func (r *ProjectRecord) Clone() *ProjectRecord {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}
