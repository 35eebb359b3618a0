package pipeline

import (
	"time"
)

// ChildKind discriminates entries in a container's ordered children list.
type ChildKind string

const (
	ChildKindFolder  ChildKind = "folder"
	ChildKindProject ChildKind = "project"
)

// ChildRef is one entry in a container's ordered children list.
type ChildRef struct {
	Kind ChildKind `json:"kind"`
	ID   string    `json:"id"`
}

type Folder struct {
	ID             string     `json:"id"`
	WorkspaceID    string     `json:"workspace_id"`
	Name           string     `json:"name"`
	ParentFolderID *string    `json:"parent_folder_id"` // nil = root level
	Children       []ChildRef `json:"children"`         // sole source of truth for ordering
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Clone returns a deep copy safe to hand to callers.
func (f *Folder) Clone() *Folder {
	if f == nil {
		return nil
	}
	out := *f
	if f.ParentFolderID != nil {
		id := *f.ParentFolderID
		out.ParentFolderID = &id
	}
	out.Children = append([]ChildRef(nil), f.Children...)
	return &out
}
