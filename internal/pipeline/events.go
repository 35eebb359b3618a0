package pipeline

import (
	"github.com/google/uuid"

	models "armature/internal/domain/models/pipeline"
)

// appendSnapshotLocked appends one project_snapshot event carrying the
// full post-mutation project snapshot. Sequences start at 0 at project
// creation and have no gaps, so the next sequence is simply the current
// log length. Callers must hold s.mu.
func (s *Store) appendSnapshotLocked(w *workspace, p *models.Project) {
	log := w.events[p.ID]
	event := &models.ProjectEvent{
		ID:        "evt_" + uuid.NewString(),
		Sequence:  int64(len(log)),
		Event:     models.EventProjectSnapshot,
		Project:   s.projectView(w, p),
		Timestamp: s.now(),
	}
	w.events[p.ID] = append(log, event)
}

// GetProjectEventsSince returns all of a project's events with
// sequence > sinceSequence, in order. A consumer that remembers the last
// sequence it saw can resume exactly where it left off. Unknown projects
// yield an empty slice.
func (s *Store) GetProjectEventsSince(workspaceID, projectID string, sinceSequence int64) []*models.ProjectEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ws(workspaceID)
	log := w.events[projectID]

	out := make([]*models.ProjectEvent, 0)
	for _, event := range log {
		if event.Sequence > sinceSequence {
			out = append(out, event.Clone())
		}
	}
	return out
}
