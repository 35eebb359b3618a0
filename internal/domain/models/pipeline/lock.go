package pipeline

import (
	"time"
)

// Lock is an exclusive advisory lock on a project, keyed by (agent,
// session). At most one non-expired lock exists per project; expiry is
// lazy (checked on read, no background sweep).
type Lock struct {
	ProjectID      string    `json:"project_id"`
	OwnerAgentID   string    `json:"owner_agent_id"`
	OwnerSessionID string    `json:"owner_session_id"`
	Token          string    `json:"token"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// ExpiredAt reports whether the lock has passed its expiry at the given
// instant.
func (l *Lock) ExpiredAt(now time.Time) bool {
	return l == nil || !now.Before(l.ExpiresAt)
}

// SameOwner reports whether the (agent, session) pair matches the lock's
// owner.
func (l *Lock) SameOwner(agentID, sessionID string) bool {
	return l != nil && l.OwnerAgentID == agentID && l.OwnerSessionID == sessionID
}

// Clone returns a copy safe to hand to callers.
func (l *Lock) Clone() *Lock {
	if l == nil {
		return nil
	}
	out := *l
	return &out
}
