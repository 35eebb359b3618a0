package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes by
// whatever transport layer ends up in front of the store. The store itself
// never speaks HTTP; implementing this interface just keeps the mapping in
// one place.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// InvalidPayloadError indicates a job payload or result that does not
	// match its kind's schema. Field names the offending field when known.
	InvalidPayloadError struct {
		Message string
		Kind    string
		Field   string
	}

	// DepthLimitError indicates a folder create/move that would push part
	// of the tree past the folder depth limit.
	DepthLimitError struct {
		Message  string
		FolderID string
		Limit    int
	}

	// CycleError indicates a folder move into itself or one of its own
	// descendants.
	CycleError struct {
		Message      string
		FolderID     string
		TargetID     string
		SelfMove     bool
	}

	// LockConflictError indicates a live lock held by a different owner.
	LockConflictError struct {
		Message        string
		ProjectID      string
		OwnerAgentID   string
		OwnerSessionID string
	}
)

// Error implementations
func (e *NotFoundError) Error() string       { return e.Message }
func (e *ValidationError) Error() string     { return e.Message }
func (e *InvalidPayloadError) Error() string { return e.Message }
func (e *DepthLimitError) Error() string     { return e.Message }
func (e *CycleError) Error() string          { return e.Message }
func (e *LockConflictError) Error() string   { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int       { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int     { return http.StatusBadRequest }
func (e *InvalidPayloadError) StatusCode() int { return http.StatusBadRequest }
func (e *DepthLimitError) StatusCode() int     { return http.StatusUnprocessableEntity }
func (e *CycleError) StatusCode() int          { return http.StatusUnprocessableEntity }
func (e *LockConflictError) StatusCode() int   { return http.StatusLocked }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidPayload     = errors.New("invalid payload")
	ErrDepthLimitExceeded = errors.New("depth limit exceeded")
	ErrSelfMove           = errors.New("self move rejected")
	ErrDescendantMove     = errors.New("descendant move rejected")
	ErrLockConflict       = errors.New("lock conflict")
	ErrRevisionConflict   = errors.New("revision conflict")
	ErrLockAcquireTimeout = errors.New("lock acquire timeout")
)

// Is allows errors.Is() matching against the corresponding sentinels.
func (e *NotFoundError) Is(target error) bool       { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool     { return target == ErrValidation }
func (e *InvalidPayloadError) Is(target error) bool { return target == ErrInvalidPayload }
func (e *DepthLimitError) Is(target error) bool     { return target == ErrDepthLimitExceeded }
func (e *LockConflictError) Is(target error) bool   { return target == ErrLockConflict }

// Is maps a CycleError onto ErrSelfMove or ErrDescendantMove depending on
// which rejection it represents.
func (e *CycleError) Is(target error) bool {
	if e.SelfMove {
		return target == ErrSelfMove
	}
	return target == ErrDescendantMove
}
