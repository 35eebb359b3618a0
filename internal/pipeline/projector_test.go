package pipeline

import (
	"testing"

	models "armature/internal/domain/models/pipeline"
)

// runConvert submits and completes one gltf.convert job with the given
// result, returning the project afterwards.
func runConvert(t *testing.T, s *Store, projectID string, result map[string]any) *models.Project {
	t.Helper()
	job, err := s.SubmitJob("", &SubmitJobRequest{ProjectID: projectID, Kind: KindGltfConvert})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if claimed := s.ClaimNextJob("", "worker"); claimed == nil || claimed.ID != job.ID {
		t.Fatalf("claim did not return %s", job.ID)
	}
	if _, err := s.CompleteJob("", job.ID, result); err != nil {
		t.Fatalf("complete: %v", err)
	}
	return s.GetProject("", projectID)
}

func TestProjectionHierarchyRecomputesStats(t *testing.T) {
	s, _ := newTestStore(t)
	project, _ := s.CreateProject("", &CreateProjectRequest{Name: "dragon"})

	got := runConvert(t, s, project.ID, map[string]any{
		"status": "converted",
		"hierarchy": []any{
			map[string]any{
				"id": "root", "name": "root", "kind": "bone",
				"children": []any{
					map[string]any{"id": "head", "name": "head", "kind": "cube"},
					map[string]any{"id": "body", "name": "body", "kind": "cube"},
				},
			},
		},
	})

	if got.Stats.Bones != 1 || got.Stats.Cubes != 2 {
		t.Fatalf("stats = %+v, want {1 2}", got.Stats)
	}
	if !got.HasGeometry {
		t.Fatal("hasGeometry should be true")
	}
	if len(got.Hierarchy) != 1 || len(got.Hierarchy[0].Children) != 2 {
		t.Fatalf("hierarchy shape = %+v", got.Hierarchy)
	}
	if got.Hierarchy[0].Kind != models.NodeKindBone {
		t.Fatalf("root kind = %s", got.Hierarchy[0].Kind)
	}
}

func TestProjectionHierarchyReplacesNotMerges(t *testing.T) {
	s, _ := newTestStore(t)
	project, _ := s.CreateProject("", &CreateProjectRequest{Name: "dragon"})

	runConvert(t, s, project.ID, map[string]any{
		"status": "converted",
		"hierarchy": []any{
			map[string]any{"id": "a", "name": "a", "kind": "bone"},
			map[string]any{"id": "b", "name": "b", "kind": "cube"},
		},
	})
	got := runConvert(t, s, project.ID, map[string]any{
		"status": "converted",
		"hierarchy": []any{
			map[string]any{"id": "c", "name": "c", "kind": "cube"},
		},
	})

	if len(got.Hierarchy) != 1 || got.Hierarchy[0].ID != "c" {
		t.Fatalf("hierarchy = %+v, want single node c", got.Hierarchy)
	}
	if got.Stats.Bones != 0 || got.Stats.Cubes != 1 {
		t.Fatalf("stats = %+v, want {0 1}", got.Stats)
	}
}

func TestProjectionGeometryDeltaAccumulates(t *testing.T) {
	s, _ := newTestStore(t)
	project, _ := s.CreateProject("", &CreateProjectRequest{Name: "dragon"})

	runConvert(t, s, project.ID, map[string]any{
		"status":        "converted",
		"geometryDelta": map[string]any{"bones": 1, "cubes": 2},
	})
	got := runConvert(t, s, project.ID, map[string]any{
		"status":        "converted",
		"geometryDelta": map[string]any{"bones": 2, "cubes": 3},
	})

	if got.Stats.Bones != 3 || got.Stats.Cubes != 5 {
		t.Fatalf("stats = %+v, want {3 5}", got.Stats)
	}
	if !got.HasGeometry {
		t.Fatal("hasGeometry should be true")
	}
}

func TestProjectionHierarchyWinsOverDelta(t *testing.T) {
	s, _ := newTestStore(t)
	project, _ := s.CreateProject("", &CreateProjectRequest{Name: "dragon"})

	// When both keys appear, the hierarchy is authoritative and the delta
	// is ignored.
	got := runConvert(t, s, project.ID, map[string]any{
		"status": "converted",
		"hierarchy": []any{
			map[string]any{"id": "a", "name": "a", "kind": "bone"},
		},
		"geometryDelta": map[string]any{"bones": 10, "cubes": 10},
	})

	if got.Stats.Bones != 1 || got.Stats.Cubes != 0 {
		t.Fatalf("stats = %+v, want {1 0}", got.Stats)
	}
}

func TestProjectionWithoutGeometryStillBumpsRevision(t *testing.T) {
	s, _ := newTestStore(t)
	project, _ := s.CreateProject("", &CreateProjectRequest{Name: "dragon"})

	got := runConvert(t, s, project.ID, map[string]any{"status": "converted"})

	if got.Revision != 2 {
		t.Fatalf("revision = %d, want 2", got.Revision)
	}
	if got.HasGeometry {
		t.Fatal("hasGeometry should remain false")
	}
	if events := s.GetProjectEventsSince("", project.ID, 0); len(events) != 1 {
		t.Fatalf("expected a snapshot event even for an empty result, got %d", len(events))
	}
}
