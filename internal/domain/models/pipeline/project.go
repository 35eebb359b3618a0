package pipeline

import (
	"time"
)

// NodeKind tags a hierarchy node as a bone or a cube.
type NodeKind string

const (
	NodeKindBone NodeKind = "bone"
	NodeKindCube NodeKind = "cube"
)

// HierarchyNode is one node of a project's bone/cube hierarchy.
type HierarchyNode struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Kind     NodeKind        `json:"kind"`
	Children []HierarchyNode `json:"children,omitempty"`
}

// Stats are the bone/cube counts derivable from a project's hierarchy.
// They are re-derived after every hierarchy-replacing mutation, never
// trusted from the caller.
type Stats struct {
	Bones int `json:"bones"`
	Cubes int `json:"cubes"`
}

// Texture is one texture attached to a project.
type Texture struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// JobRef points at the job currently claimed against a project.
type JobRef struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

type Project struct {
	ID             string          `json:"id"`
	WorkspaceID    string          `json:"workspace_id"`
	Name           string          `json:"name"`
	ParentFolderID *string         `json:"parent_folder_id"` // nil = root level
	Revision       int64           `json:"revision"`         // >= 1, +1 per mutation
	HasGeometry    bool            `json:"has_geometry"`
	Hierarchy      []HierarchyNode `json:"hierarchy"`
	Stats          Stats           `json:"stats"`
	Textures       []Texture       `json:"textures"`
	ActiveJob      *JobRef         `json:"active_job,omitempty"`
	Lock           *Lock           `json:"project_lock,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Clone returns a deep copy safe to hand to callers.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := *p
	if p.ParentFolderID != nil {
		id := *p.ParentFolderID
		out.ParentFolderID = &id
	}
	out.Hierarchy = CloneHierarchy(p.Hierarchy)
	out.Textures = append([]Texture(nil), p.Textures...)
	if p.ActiveJob != nil {
		ref := *p.ActiveJob
		out.ActiveJob = &ref
	}
	out.Lock = p.Lock.Clone()
	return &out
}

// CloneHierarchy deep-copies a hierarchy tree.
func CloneHierarchy(nodes []HierarchyNode) []HierarchyNode {
	if nodes == nil {
		return nil
	}
	out := make([]HierarchyNode, len(nodes))
	for i, n := range nodes {
		out[i] = n
		out[i].Children = CloneHierarchy(n.Children)
	}
	return out
}

// CountHierarchy walks a hierarchy and counts bones and cubes by tag.
func CountHierarchy(nodes []HierarchyNode) Stats {
	var stats Stats
	for _, n := range nodes {
		switch n.Kind {
		case NodeKindBone:
			stats.Bones++
		case NodeKindCube:
			stats.Cubes++
		}
		child := CountHierarchy(n.Children)
		stats.Bones += child.Bones
		stats.Cubes += child.Cubes
	}
	return stats
}
