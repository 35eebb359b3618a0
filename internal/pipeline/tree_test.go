package pipeline

import (
	"errors"
	"testing"

	"armature/internal/domain"
	models "armature/internal/domain/models/pipeline"
)

func TestCreateFolderDepthLimit(t *testing.T) {
	s, _ := newTestStore(t)

	f1, err := s.CreateFolder("", &CreateFolderRequest{Name: "level1"})
	if err != nil {
		t.Fatalf("create level1: %v", err)
	}
	f2, err := s.CreateFolder("", &CreateFolderRequest{Name: "level2", ParentFolderID: &f1.ID})
	if err != nil {
		t.Fatalf("create level2: %v", err)
	}
	f3, err := s.CreateFolder("", &CreateFolderRequest{Name: "level3", ParentFolderID: &f2.ID})
	if err != nil {
		t.Fatalf("create level3: %v", err)
	}

	_, err = s.CreateFolder("", &CreateFolderRequest{Name: "level4", ParentFolderID: &f3.ID})
	if !errors.Is(err, domain.ErrDepthLimitExceeded) {
		t.Fatalf("expected depth limit error, got %v", err)
	}

	// The failed create must leave the tree unchanged.
	tree := s.GetProjectTree("", "")
	if len(tree.Folders) != 1 {
		t.Fatalf("expected 1 root folder, got %d", len(tree.Folders))
	}
	if len(tree.Folders[0].Folders[0].Folders[0].Folders) != 0 {
		t.Fatal("level3 should have no child folders after the rejected create")
	}
}

func TestCreateFolderMissingParent(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.CreateFolder("", &CreateFolderRequest{Name: "orphan", ParentFolderID: strPtr("fld_missing")})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateFolderNameValidation(t *testing.T) {
	s, _ := newTestStore(t)

	tests := []struct {
		name       string
		folderName string
		wantErr    bool
	}{
		{name: "empty name", folderName: "", wantErr: true},
		{name: "whitespace only", folderName: "   ", wantErr: true},
		{name: "normal name", folderName: "characters", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateFolder("", &CreateFolderRequest{Name: tt.folderName})
			if tt.wantErr && !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestMoveFolderCycleRejection(t *testing.T) {
	s, _ := newTestStore(t)

	parent, _ := s.CreateFolder("", &CreateFolderRequest{Name: "parent"})
	child, _ := s.CreateFolder("", &CreateFolderRequest{Name: "child", ParentFolderID: &parent.ID})
	grandchild, _ := s.CreateFolder("", &CreateFolderRequest{Name: "grandchild", ParentFolderID: &child.ID})

	if _, err := s.MoveFolder("", parent.ID, &parent.ID, nil); !errors.Is(err, domain.ErrSelfMove) {
		t.Fatalf("self move: expected ErrSelfMove, got %v", err)
	}
	if _, err := s.MoveFolder("", parent.ID, &child.ID, nil); !errors.Is(err, domain.ErrDescendantMove) {
		t.Fatalf("move into child: expected ErrDescendantMove, got %v", err)
	}
	if _, err := s.MoveFolder("", parent.ID, &grandchild.ID, nil); !errors.Is(err, domain.ErrDescendantMove) {
		t.Fatalf("move into grandchild: expected ErrDescendantMove, got %v", err)
	}
}

func TestMoveFolderDepthRevalidatesSubtree(t *testing.T) {
	s, _ := newTestStore(t)

	// tall: a folder with a child (subtree height 2)
	tall, _ := s.CreateFolder("", &CreateFolderRequest{Name: "tall"})
	if _, err := s.CreateFolder("", &CreateFolderRequest{Name: "tall-child", ParentFolderID: &tall.ID}); err != nil {
		t.Fatalf("create tall-child: %v", err)
	}

	// deep: a folder at depth 2
	base, _ := s.CreateFolder("", &CreateFolderRequest{Name: "base"})
	deep, _ := s.CreateFolder("", &CreateFolderRequest{Name: "deep", ParentFolderID: &base.ID})

	// Moving tall (height 2) under deep (depth 2) would place tall-child at
	// depth 4.
	if _, err := s.MoveFolder("", tall.ID, &deep.ID, nil); !errors.Is(err, domain.ErrDepthLimitExceeded) {
		t.Fatalf("expected depth limit error, got %v", err)
	}

	// The folder itself (height 1 alone is fine) under base (depth 1) works.
	moved, err := s.MoveFolder("", tall.ID, &base.ID, nil)
	if err != nil {
		t.Fatalf("move under base: %v", err)
	}
	if moved.ParentFolderID == nil || *moved.ParentFolderID != base.ID {
		t.Fatalf("expected parent %s, got %v", base.ID, moved.ParentFolderID)
	}
}

func TestMoveFolderSameContainerIndex(t *testing.T) {
	s, _ := newTestStore(t)

	a, _ := s.CreateFolder("", &CreateFolderRequest{Name: "a"})
	b, _ := s.CreateFolder("", &CreateFolderRequest{Name: "b"})
	c, _ := s.CreateFolder("", &CreateFolderRequest{Name: "c"})

	// Move a to position 1 among its remaining siblings [b, c] -> b, a, c.
	if _, err := s.MoveFolder("", a.ID, nil, intPtr(1)); err != nil {
		t.Fatalf("move: %v", err)
	}

	tree := s.GetProjectTree("", "")
	got := []string{tree.Folders[0].ID, tree.Folders[1].ID, tree.Folders[2].ID}
	want := []string{b.ID, a.ID, c.ID}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %v, want %v", i, got, want)
		}
	}
}

func TestCreateFolderIndexClamped(t *testing.T) {
	s, _ := newTestStore(t)

	a, _ := s.CreateFolder("", &CreateFolderRequest{Name: "a"})
	b, _ := s.CreateFolder("", &CreateFolderRequest{Name: "b", Index: intPtr(99)})
	c, _ := s.CreateFolder("", &CreateFolderRequest{Name: "c", Index: intPtr(-5)})

	tree := s.GetProjectTree("", "")
	got := []string{tree.Folders[0].ID, tree.Folders[1].ID, tree.Folders[2].ID}
	want := []string{c.ID, a.ID, b.ID}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %v, want %v", i, got, want)
		}
	}
}

func TestDeleteFolderCascades(t *testing.T) {
	s, _ := newTestStore(t)

	root, _ := s.CreateFolder("", &CreateFolderRequest{Name: "assets"})
	sub, _ := s.CreateFolder("", &CreateFolderRequest{Name: "characters", ParentFolderID: &root.ID})
	direct, _ := s.CreateProject("", &CreateProjectRequest{Name: "direct", ParentFolderID: &root.ID})
	nested, _ := s.CreateProject("", &CreateProjectRequest{Name: "nested", ParentFolderID: &sub.ID})
	outside, _ := s.CreateProject("", &CreateProjectRequest{Name: "outside"})

	if _, err := s.SubmitJob("", &SubmitJobRequest{ProjectID: nested.ID, Kind: KindGltfConvert}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := s.AcquireProjectLock("", &AcquireLockRequest{ProjectID: direct.ID, OwnerAgentID: "agent", OwnerSessionID: "sess"}); err != nil {
		t.Fatalf("lock: %v", err)
	}

	if !s.DeleteFolder("", root.ID) {
		t.Fatal("delete returned false")
	}

	for _, id := range []string{direct.ID, nested.ID} {
		if got := s.GetProject("", id); got != nil {
			t.Fatalf("project %s should be gone", id)
		}
	}
	if got := s.GetProject("", outside.ID); got == nil {
		t.Fatal("project outside the subtree must survive")
	}
	if jobs := s.ListProjectJobs("", nested.ID); len(jobs) != 0 {
		t.Fatalf("expected no jobs, got %d", len(jobs))
	}
	if lock := s.GetProjectLock("", direct.ID); lock != nil {
		t.Fatal("lock should be gone")
	}
	if events := s.GetProjectEventsSince("", nested.ID, -1); len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
	if s.ClaimNextJob("", "w1") != nil {
		t.Fatal("cascaded job must not be claimable")
	}

	// Idempotent second delete.
	if s.DeleteFolder("", root.ID) {
		t.Fatal("second delete should return false")
	}
}

func TestProjectMutationsBumpRevision(t *testing.T) {
	s, _ := newTestStore(t)

	folder, _ := s.CreateFolder("", &CreateFolderRequest{Name: "rigs"})
	project, err := s.CreateProject("", &CreateProjectRequest{Name: "rig"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if project.Revision != 1 {
		t.Fatalf("fresh project revision = %d, want 1", project.Revision)
	}

	renamed, err := s.RenameProject("", project.ID, "rig-v2")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.Revision != 2 {
		t.Fatalf("after rename revision = %d, want 2", renamed.Revision)
	}

	moved, err := s.MoveProject("", project.ID, &folder.ID, nil)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.Revision != 3 {
		t.Fatalf("after move revision = %d, want 3", moved.Revision)
	}
	if moved.ParentFolderID == nil || *moved.ParentFolderID != folder.ID {
		t.Fatalf("parent = %v, want %s", moved.ParentFolderID, folder.ID)
	}
}

func TestGetProjectTreeFilter(t *testing.T) {
	s, _ := newTestStore(t)

	match, _ := s.CreateFolder("", &CreateFolderRequest{Name: "dragons"})
	if _, err := s.CreateProject("", &CreateProjectRequest{Name: "dragon-rig", ParentFolderID: &match.ID}); err != nil {
		t.Fatalf("create project: %v", err)
	}
	plain, _ := s.CreateFolder("", &CreateFolderRequest{Name: "misc"})
	if _, err := s.CreateProject("", &CreateProjectRequest{Name: "crate", ParentFolderID: &plain.ID}); err != nil {
		t.Fatalf("create project: %v", err)
	}
	if _, err := s.CreateFolder("", &CreateFolderRequest{Name: "empty"}); err != nil {
		t.Fatalf("create folder: %v", err)
	}

	tests := []struct {
		name        string
		query       string
		wantFolders []string
	}{
		{name: "no query keeps everything", query: "", wantFolders: []string{"dragons", "misc", "empty"}},
		{name: "matching descendant keeps folder", query: "dragon", wantFolders: []string{"dragons", "empty"}},
		{name: "case insensitive", query: "DRAGON", wantFolders: []string{"dragons", "empty"}},
		{name: "no match keeps only empty folders", query: "zzz", wantFolders: []string{"empty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := s.GetProjectTree("", tt.query)
			var got []string
			for _, f := range tree.Folders {
				got = append(got, f.Name)
			}
			if len(got) != len(tt.wantFolders) {
				t.Fatalf("folders = %v, want %v", got, tt.wantFolders)
			}
			for i := range got {
				if got[i] != tt.wantFolders[i] {
					t.Fatalf("folders = %v, want %v", got, tt.wantFolders)
				}
			}
		})
	}
}

func TestListProjectsReturnsDefensiveCopies(t *testing.T) {
	s, _ := newTestStore(t)

	created, _ := s.CreateProject("", &CreateProjectRequest{Name: "copyme"})

	listed := s.ListProjects("", "")
	if len(listed) != 1 {
		t.Fatalf("expected 1 project, got %d", len(listed))
	}
	listed[0].Name = "mutated"
	listed[0].Stats.Bones = 99
	listed[0].Hierarchy = append(listed[0].Hierarchy, models.HierarchyNode{Kind: models.NodeKindBone})

	fresh := s.GetProject("", created.ID)
	if fresh.Name != "copyme" || fresh.Stats.Bones != 0 || len(fresh.Hierarchy) != 0 {
		t.Fatal("caller mutation leaked into store state")
	}
}

func TestListProjectsFilter(t *testing.T) {
	s, _ := newTestStore(t)

	s.CreateProject("", &CreateProjectRequest{Name: "alpha"})
	s.CreateProject("", &CreateProjectRequest{Name: "beta"})
	s.CreateProject("", &CreateProjectRequest{Name: "alphabet"})

	got := s.ListProjects("", "alpha")
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
}
