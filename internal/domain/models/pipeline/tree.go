package pipeline

import "time"

// TreeNode represents the root of the workspace tree view.
type TreeNode struct {
	Folders  []*FolderTreeNode `json:"folders"`
	Projects []ProjectTreeNode `json:"projects"`
}

// FolderTreeNode represents a folder in the tree view with nested children.
type FolderTreeNode struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	ParentFolderID *string           `json:"parent_folder_id"`
	CreatedAt      time.Time         `json:"created_at"`
	Folders        []*FolderTreeNode `json:"folders"` // Pointers for proper nesting
	Projects       []ProjectTreeNode `json:"projects"`
}

// ProjectTreeNode represents a project in the tree view (summary only, no
// hierarchy).
type ProjectTreeNode struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	ParentFolderID *string   `json:"parent_folder_id"`
	Revision       int64     `json:"revision"`
	HasGeometry    bool      `json:"has_geometry"`
	Stats          Stats     `json:"stats"`
	UpdatedAt      time.Time `json:"updated_at"`
}
