package pipeline

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"armature/internal/config"
	"armature/internal/domain"
	models "armature/internal/domain/models/pipeline"
)

// CreateFolderRequest creates a folder inside a container (nil parent =
// workspace root). Index positions the folder among the container's
// children; out-of-range values are clamped, nil appends.
type CreateFolderRequest struct {
	Name           string
	ParentFolderID *string
	Index          *int
}

// CreateProjectRequest mirrors CreateFolderRequest for projects.
type CreateProjectRequest struct {
	Name           string
	ParentFolderID *string
	Index          *int
}

// CreateFolder validates the target container and the depth limit, then
// inserts the new folder at the requested index (clamped) or appends.
func (s *Store) CreateFolder(workspaceID string, req *CreateFolderRequest) (*models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	name := strings.TrimSpace(req.Name)
	if err := validateEntityName(name, config.MaxFolderNameLength); err != nil {
		return nil, err
	}

	depth := 1
	if req.ParentFolderID != nil {
		parent, ok := w.folders[*req.ParentFolderID]
		if !ok {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", *req.ParentFolderID)}
		}
		depth = w.folderDepth(parent) + 1
	}
	if depth > config.MaxFolderDepth {
		return nil, &domain.DepthLimitError{
			Message: fmt.Sprintf("folder %q would sit at depth %d, limit is %d", name, depth, config.MaxFolderDepth),
			Limit:   config.MaxFolderDepth,
		}
	}

	now := s.now()
	folder := &models.Folder{
		ID:             s.mintFolderID(w, name),
		WorkspaceID:    w.id,
		Name:           name,
		ParentFolderID: clonePtr(req.ParentFolderID),
		Children:       []models.ChildRef{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	w.folders[folder.ID] = folder
	w.setChildren(req.ParentFolderID, insertRef(
		w.children(req.ParentFolderID),
		models.ChildRef{Kind: models.ChildKindFolder, ID: folder.ID},
		req.Index,
	))

	s.logger.Info("folder created",
		"workspace_id", w.id,
		"id", folder.ID,
		"name", folder.Name,
		"parent_folder_id", folder.ParentFolderID,
	)

	return folder.Clone(), nil
}

// RenameFolder renames a folder in place.
func (s *Store) RenameFolder(workspaceID, folderID, name string) (*models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	folder, ok := w.folders[folderID]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", folderID)}
	}

	name = strings.TrimSpace(name)
	if err := validateEntityName(name, config.MaxFolderNameLength); err != nil {
		return nil, err
	}

	folder.Name = name
	folder.UpdatedAt = s.now()

	s.logger.Info("folder renamed", "workspace_id", w.id, "id", folderID, "name", name)
	return folder.Clone(), nil
}

// MoveFolder re-parents a folder. Moves into self or into a descendant are
// rejected before any mutation, and the depth limit is re-validated
// against the whole moved subtree. Moving within the same container lands
// the folder at index N among its remaining siblings.
func (s *Store) MoveFolder(workspaceID, folderID string, parentFolderID *string, index *int) (*models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	folder, ok := w.folders[folderID]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", folderID)}
	}

	parentDepth := 0
	if parentFolderID != nil {
		if *parentFolderID == folderID {
			return nil, &domain.CycleError{
				Message:  fmt.Sprintf("cannot move folder %s into itself", folderID),
				FolderID: folderID,
				TargetID: *parentFolderID,
				SelfMove: true,
			}
		}
		target, ok := w.folders[*parentFolderID]
		if !ok {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", *parentFolderID)}
		}
		if w.isDescendant(folderID, *parentFolderID) {
			return nil, &domain.CycleError{
				Message:  fmt.Sprintf("cannot move folder %s into its own descendant %s", folderID, *parentFolderID),
				FolderID: folderID,
				TargetID: *parentFolderID,
			}
		}
		parentDepth = w.folderDepth(target)
	}

	if parentDepth+w.subtreeHeight(folder) > config.MaxFolderDepth {
		return nil, &domain.DepthLimitError{
			Message:  fmt.Sprintf("moving folder %s would exceed depth limit %d", folderID, config.MaxFolderDepth),
			FolderID: folderID,
			Limit:    config.MaxFolderDepth,
		}
	}

	// Remove first so a same-container destination index addresses the
	// remaining siblings.
	oldParent := folder.ParentFolderID
	w.setChildren(oldParent, removeRef(w.children(oldParent), models.ChildKindFolder, folderID))
	w.setChildren(parentFolderID, insertRef(
		w.children(parentFolderID),
		models.ChildRef{Kind: models.ChildKindFolder, ID: folderID},
		index,
	))
	folder.ParentFolderID = clonePtr(parentFolderID)
	folder.UpdatedAt = s.now()

	s.logger.Info("folder moved",
		"workspace_id", w.id,
		"id", folderID,
		"parent_folder_id", folder.ParentFolderID,
	)

	return folder.Clone(), nil
}

// DeleteFolder removes a folder and cascades over its entire subtree:
// every transitively contained project loses its jobs, lock and events
// before the folders themselves go. Returns false if the folder does not
// exist.
func (s *Store) DeleteFolder(workspaceID, folderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	folder, ok := w.folders[folderID]
	if !ok {
		return false
	}

	folderIDs, projectIDs := w.collectSubtree(folderID)
	for _, pid := range projectIDs {
		w.purgeProject(pid)
	}
	for _, fid := range folderIDs {
		delete(w.folders, fid)
	}
	w.setChildren(folder.ParentFolderID, removeRef(w.children(folder.ParentFolderID), models.ChildKindFolder, folderID))

	s.logger.Info("folder deleted",
		"workspace_id", w.id,
		"id", folderID,
		"folders_removed", len(folderIDs),
		"projects_removed", len(projectIDs),
	)

	return true
}

// CreateProject creates a project leaf with revision 1 and appends its
// first project_snapshot event (sequence 0).
func (s *Store) CreateProject(workspaceID string, req *CreateProjectRequest) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	name := strings.TrimSpace(req.Name)
	if err := validateEntityName(name, config.MaxProjectNameLength); err != nil {
		return nil, err
	}
	if req.ParentFolderID != nil {
		if _, ok := w.folders[*req.ParentFolderID]; !ok {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", *req.ParentFolderID)}
		}
	}

	project := s.newProjectLocked(w, s.mintProjectID(w, name), name, req.ParentFolderID, req.Index)

	s.logger.Info("project created",
		"workspace_id", w.id,
		"id", project.ID,
		"name", project.Name,
		"parent_folder_id", project.ParentFolderID,
	)

	return s.projectView(w, project), nil
}

// newProjectLocked inserts a fresh project into the arenas and appends its
// creation snapshot. Callers must hold s.mu and have validated the
// container.
func (s *Store) newProjectLocked(w *workspace, id, name string, parentFolderID *string, index *int) *models.Project {
	now := s.now()
	project := &models.Project{
		ID:             id,
		WorkspaceID:    w.id,
		Name:           name,
		ParentFolderID: clonePtr(parentFolderID),
		Revision:       1,
		Hierarchy:      []models.HierarchyNode{},
		Textures:       []models.Texture{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	w.projects[id] = project
	w.setChildren(parentFolderID, insertRef(
		w.children(parentFolderID),
		models.ChildRef{Kind: models.ChildKindProject, ID: id},
		index,
	))
	s.appendSnapshotLocked(w, project)
	return project
}

// RenameProject renames a project, bumps its revision and appends a
// snapshot event.
func (s *Store) RenameProject(workspaceID, projectID, name string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	project, ok := w.projects[projectID]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("project %s not found", projectID)}
	}

	name = strings.TrimSpace(name)
	if err := validateEntityName(name, config.MaxProjectNameLength); err != nil {
		return nil, err
	}

	project.Name = name
	project.Revision++
	project.UpdatedAt = s.now()
	s.appendSnapshotLocked(w, project)

	s.logger.Info("project renamed",
		"workspace_id", w.id,
		"id", projectID,
		"name", name,
		"revision", project.Revision,
	)

	return s.projectView(w, project), nil
}

// MoveProject re-parents a project, bumps its revision and appends a
// snapshot event. Projects are always leaves, so only the target container
// needs validating.
func (s *Store) MoveProject(workspaceID, projectID string, parentFolderID *string, index *int) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	project, ok := w.projects[projectID]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("project %s not found", projectID)}
	}
	if parentFolderID != nil {
		if _, ok := w.folders[*parentFolderID]; !ok {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", *parentFolderID)}
		}
	}

	oldParent := project.ParentFolderID
	w.setChildren(oldParent, removeRef(w.children(oldParent), models.ChildKindProject, projectID))
	w.setChildren(parentFolderID, insertRef(
		w.children(parentFolderID),
		models.ChildRef{Kind: models.ChildKindProject, ID: projectID},
		index,
	))
	project.ParentFolderID = clonePtr(parentFolderID)
	project.Revision++
	project.UpdatedAt = s.now()
	s.appendSnapshotLocked(w, project)

	s.logger.Info("project moved",
		"workspace_id", w.id,
		"id", projectID,
		"parent_folder_id", project.ParentFolderID,
		"revision", project.Revision,
	)

	return s.projectView(w, project), nil
}

// DeleteProject removes a project together with its jobs, lock and
// events. Returns false if the project does not exist.
func (s *Store) DeleteProject(workspaceID, projectID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	project, ok := w.projects[projectID]
	if !ok {
		return false
	}

	w.setChildren(project.ParentFolderID, removeRef(w.children(project.ParentFolderID), models.ChildKindProject, projectID))
	w.purgeProject(projectID)

	s.logger.Info("project deleted", "workspace_id", w.id, "id", projectID)
	return true
}

// GetProject returns a deep copy of a project, or nil if it does not
// exist. A miss is a normal outcome, not an error.
func (s *Store) GetProject(workspaceID, projectID string) *models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	project, ok := w.projects[projectID]
	if !ok {
		return nil
	}
	return s.projectView(w, project)
}

// ListProjects returns deep copies of all projects matching the query, in
// tree order.
func (s *Store) ListProjects(workspaceID, query string) []*models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	out := make([]*models.Project, 0)
	w.walkProjects(w.rootChildren, func(p *models.Project) {
		if matchesQuery(query, p.Name, p.ID) {
			out = append(out, s.projectView(w, p))
		}
	})
	return out
}

// GetProjectTree builds the filtered tree view for a workspace. A folder
// is retained if it matches the query directly, has at least one matching
// descendant, or had zero children to begin with (freshly created empty
// folders stay visible). Projects are retained when they match.
func (s *Store) GetProjectTree(workspaceID, query string) *models.TreeNode {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	folders, projects := s.buildTreeLevel(w, w.rootChildren, query)
	return &models.TreeNode{Folders: folders, Projects: projects}
}

// buildTreeLevel filters one container's children in order. Callers must
// hold s.mu.
func (s *Store) buildTreeLevel(w *workspace, refs []models.ChildRef, query string) ([]*models.FolderTreeNode, []models.ProjectTreeNode) {
	folders := make([]*models.FolderTreeNode, 0)
	projects := make([]models.ProjectTreeNode, 0)
	for _, ref := range refs {
		switch ref.Kind {
		case models.ChildKindFolder:
			folder, ok := w.folders[ref.ID]
			if !ok {
				continue
			}
			childFolders, childProjects := s.buildTreeLevel(w, folder.Children, query)
			keep := matchesQuery(query, folder.Name, folder.ID) ||
				len(folder.Children) == 0 ||
				len(childFolders) > 0 || len(childProjects) > 0
			if !keep {
				continue
			}
			folders = append(folders, &models.FolderTreeNode{
				ID:             folder.ID,
				Name:           folder.Name,
				ParentFolderID: clonePtr(folder.ParentFolderID),
				CreatedAt:      folder.CreatedAt,
				Folders:        childFolders,
				Projects:       childProjects,
			})
		case models.ChildKindProject:
			project, ok := w.projects[ref.ID]
			if !ok {
				continue
			}
			if !matchesQuery(query, project.Name, project.ID) {
				continue
			}
			projects = append(projects, models.ProjectTreeNode{
				ID:             project.ID,
				Name:           project.Name,
				ParentFolderID: clonePtr(project.ParentFolderID),
				Revision:       project.Revision,
				HasGeometry:    project.HasGeometry,
				Stats:          project.Stats,
				UpdatedAt:      project.UpdatedAt,
			})
		}
	}
	return folders, projects
}

// --- workspace tree internals ---

// children returns the ordered children list of a container (nil = root).
func (w *workspace) children(parentFolderID *string) []models.ChildRef {
	if parentFolderID == nil {
		return w.rootChildren
	}
	if folder, ok := w.folders[*parentFolderID]; ok {
		return folder.Children
	}
	return nil
}

func (w *workspace) setChildren(parentFolderID *string, refs []models.ChildRef) {
	if parentFolderID == nil {
		w.rootChildren = refs
		return
	}
	if folder, ok := w.folders[*parentFolderID]; ok {
		folder.Children = refs
	}
}

// folderDepth is the length of the path from the folder to the root,
// counting the folder itself.
func (w *workspace) folderDepth(folder *models.Folder) int {
	depth := 1
	for folder.ParentFolderID != nil {
		parent, ok := w.folders[*folder.ParentFolderID]
		if !ok {
			break
		}
		folder = parent
		depth++
	}
	return depth
}

// subtreeHeight is the height of the folder subtree rooted at folder,
// counting folder itself (a leaf folder has height 1).
func (w *workspace) subtreeHeight(folder *models.Folder) int {
	height := 1
	for _, ref := range folder.Children {
		if ref.Kind != models.ChildKindFolder {
			continue
		}
		child, ok := w.folders[ref.ID]
		if !ok {
			continue
		}
		if h := 1 + w.subtreeHeight(child); h > height {
			height = h
		}
	}
	return height
}

// isDescendant reports whether candidateID sits anywhere below
// ancestorID, by walking the candidate's parent chain.
func (w *workspace) isDescendant(ancestorID, candidateID string) bool {
	current, ok := w.folders[candidateID]
	if !ok {
		return false
	}
	for current.ParentFolderID != nil {
		if *current.ParentFolderID == ancestorID {
			return true
		}
		parent, ok := w.folders[*current.ParentFolderID]
		if !ok {
			return false
		}
		current = parent
	}
	return false
}

// collectSubtree gathers every folder and project id in the subtree rooted
// at folderID, the root folder included.
func (w *workspace) collectSubtree(folderID string) (folderIDs, projectIDs []string) {
	folder, ok := w.folders[folderID]
	if !ok {
		return nil, nil
	}
	folderIDs = append(folderIDs, folderID)
	for _, ref := range folder.Children {
		switch ref.Kind {
		case models.ChildKindFolder:
			childFolders, childProjects := w.collectSubtree(ref.ID)
			folderIDs = append(folderIDs, childFolders...)
			projectIDs = append(projectIDs, childProjects...)
		case models.ChildKindProject:
			projectIDs = append(projectIDs, ref.ID)
		}
	}
	return folderIDs, projectIDs
}

// purgeProject removes a project and everything hanging off it: jobs (and
// their queue entries), lock, event log.
func (w *workspace) purgeProject(projectID string) {
	for id, job := range w.jobs {
		if job.ProjectID == projectID {
			delete(w.jobs, id)
		}
	}
	filtered := w.queue[:0]
	for _, id := range w.queue {
		if _, ok := w.jobs[id]; ok {
			filtered = append(filtered, id)
		}
	}
	w.queue = filtered
	order := w.jobOrder[:0]
	for _, id := range w.jobOrder {
		if _, ok := w.jobs[id]; ok {
			order = append(order, id)
		}
	}
	w.jobOrder = order
	delete(w.locks, projectID)
	delete(w.events, projectID)
	delete(w.projects, projectID)
}

// walkProjects visits projects in tree order.
func (w *workspace) walkProjects(refs []models.ChildRef, visit func(*models.Project)) {
	for _, ref := range refs {
		switch ref.Kind {
		case models.ChildKindFolder:
			if folder, ok := w.folders[ref.ID]; ok {
				w.walkProjects(folder.Children, visit)
			}
		case models.ChildKindProject:
			if project, ok := w.projects[ref.ID]; ok {
				visit(project)
			}
		}
	}
}

// --- shared helpers ---

// mintFolderID re-mints on the (unlikely) id collision inside a workspace.
func (s *Store) mintFolderID(w *workspace, name string) string {
	for {
		id := s.minter.folderID(w.id, name)
		if _, ok := w.folders[id]; !ok {
			return id
		}
	}
}

func (s *Store) mintProjectID(w *workspace, name string) string {
	for {
		id := s.minter.projectID(w.id, name)
		if _, ok := w.projects[id]; !ok {
			return id
		}
	}
}

func validateEntityName(name string, maxLength int) error {
	err := validation.Validate(name,
		validation.Required,
		validation.Length(1, maxLength),
	)
	if err != nil {
		return &domain.ValidationError{Message: fmt.Sprintf("invalid name: %v", err)}
	}
	return nil
}

// insertRef inserts ref at index (clamped into range; nil appends).
func insertRef(refs []models.ChildRef, ref models.ChildRef, index *int) []models.ChildRef {
	idx := len(refs)
	if index != nil {
		idx = *index
		if idx < 0 {
			idx = 0
		}
		if idx > len(refs) {
			idx = len(refs)
		}
	}
	out := make([]models.ChildRef, 0, len(refs)+1)
	out = append(out, refs[:idx]...)
	out = append(out, ref)
	out = append(out, refs[idx:]...)
	return out
}

func removeRef(refs []models.ChildRef, kind models.ChildKind, id string) []models.ChildRef {
	out := refs[:0]
	for _, ref := range refs {
		if ref.Kind == kind && ref.ID == id {
			continue
		}
		out = append(out, ref)
	}
	return out
}

// matchesQuery is the case-insensitive substring filter applied to tree
// reads. An empty query matches everything.
func matchesQuery(query string, name, id string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(name), q) ||
		strings.Contains(strings.ToLower(id), q)
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}
