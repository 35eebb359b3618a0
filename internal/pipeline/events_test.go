package pipeline

import (
	"testing"

	models "armature/internal/domain/models/pipeline"
)

func TestProjectEventsStartAtSequenceZero(t *testing.T) {
	s, _ := newTestStore(t)
	project, _ := s.CreateProject("", &CreateProjectRequest{Name: "model"})

	events := s.GetProjectEventsSince("", project.ID, -1)
	if len(events) != 1 {
		t.Fatalf("expected 1 creation event, got %d", len(events))
	}
	if events[0].Sequence != 0 {
		t.Fatalf("first sequence = %d, want 0", events[0].Sequence)
	}
	if events[0].Event != models.EventProjectSnapshot {
		t.Fatalf("event = %s, want %s", events[0].Event, models.EventProjectSnapshot)
	}
	if events[0].Project == nil || events[0].Project.ID != project.ID {
		t.Fatal("event should carry a full project snapshot")
	}
}

func TestProjectEventsSequenceIsContiguous(t *testing.T) {
	s, _ := newTestStore(t)
	project, _ := s.CreateProject("", &CreateProjectRequest{Name: "model"})

	if _, err := s.RenameProject("", project.ID, "model-v2"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, err := s.RenameProject("", project.ID, "model-v3"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	events := s.GetProjectEventsSince("", project.ID, -1)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, e := range events {
		if e.Sequence != int64(i) {
			t.Fatalf("event %d has sequence %d", i, e.Sequence)
		}
	}
	if events[2].Project.Name != "model-v3" {
		t.Fatalf("latest snapshot name = %s", events[2].Project.Name)
	}
}

func TestGetProjectEventsSinceFilters(t *testing.T) {
	s, _ := newTestStore(t)
	project, _ := s.CreateProject("", &CreateProjectRequest{Name: "model"})
	if _, err := s.RenameProject("", project.ID, "a"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, err := s.RenameProject("", project.ID, "b"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	tests := []struct {
		name  string
		since int64
		want  int
	}{
		{"everything", -1, 3},
		{"after creation", 0, 2},
		{"after first rename", 1, 1},
		{"caught up", 2, 0},
		{"beyond head", 99, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.GetProjectEventsSince("", project.ID, tt.since)
			if len(got) != tt.want {
				t.Fatalf("since %d: got %d events, want %d", tt.since, len(got), tt.want)
			}
			for _, e := range got {
				if e.Sequence <= tt.since {
					t.Fatalf("event %d leaked past since=%d", e.Sequence, tt.since)
				}
			}
		})
	}
}

func TestGetProjectEventsSinceUnknownProject(t *testing.T) {
	s, _ := newTestStore(t)
	if events := s.GetProjectEventsSince("", "prj_missing", -1); len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestProjectEventsAreDefensiveCopies(t *testing.T) {
	s, _ := newTestStore(t)
	project, _ := s.CreateProject("", &CreateProjectRequest{Name: "model"})

	events := s.GetProjectEventsSince("", project.ID, -1)
	events[0].Project.Name = "mutated"

	again := s.GetProjectEventsSince("", project.ID, -1)
	if again[0].Project.Name != "model" {
		t.Fatalf("event log mutated through a returned copy: %s", again[0].Project.Name)
	}
}

func TestCompletedJobEmitsSnapshotEvent(t *testing.T) {
	s, _ := newTestStore(t)
	project, _ := s.CreateProject("", &CreateProjectRequest{Name: "model"})
	if _, err := s.SubmitJob("", &SubmitJobRequest{ProjectID: project.ID, Kind: KindGltfConvert}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	claimed := s.ClaimNextJob("", "w1")
	if _, err := s.CompleteJob("", claimed.ID, map[string]any{
		"status":        "converted",
		"geometryDelta": map[string]any{"bones": 2, "cubes": 4},
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	events := s.GetProjectEventsSince("", project.ID, 0)
	if len(events) != 1 {
		t.Fatalf("expected 1 post-creation event, got %d", len(events))
	}
	snap := events[0].Project
	if snap.Stats.Bones != 2 || snap.Stats.Cubes != 4 {
		t.Fatalf("snapshot stats = %+v", snap.Stats)
	}
	if snap.Revision != 2 {
		t.Fatalf("snapshot revision = %d, want 2", snap.Revision)
	}
}
