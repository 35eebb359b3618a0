package pipeline

import (
	"time"
)

// EventProjectSnapshot is the tag carried by every event the store
// currently emits: the full post-mutation project snapshot.
const EventProjectSnapshot = "project_snapshot"

// ProjectEvent is one entry of a project's append-only event log.
// Sequence numbers start at 0 at project creation and are strictly
// increasing with no gaps, so a consumer can resume with "events since
// sequence N".
type ProjectEvent struct {
	ID        string    `json:"id"`
	Sequence  int64     `json:"sequence"`
	Event     string    `json:"event"`
	Project   *Project  `json:"project"`
	Timestamp time.Time `json:"timestamp"`
}

// Clone returns a deep copy safe to hand to callers.
func (e *ProjectEvent) Clone() *ProjectEvent {
	if e == nil {
		return nil
	}
	out := *e
	out.Project = e.Project.Clone()
	return &out
}
