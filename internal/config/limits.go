package config

import "time"

const (
	// MaxFolderDepth is the maximum length of the path from any folder to
	// the root of its workspace. Moving or creating a folder that would
	// place any node of the affected subtree deeper than this fails.
	MaxFolderDepth = 3

	// MaxFolderNameLength is the maximum length for folder names.
	// Kept short for reasonable UX (names should be short and descriptive).
	MaxFolderNameLength = 255

	// MaxProjectNameLength is the maximum length for project names.
	// Same as folder names for consistency.
	MaxProjectNameLength = 255

	// MinJobAttempts / MaxJobAttempts bound a job's maxAttempts. Requests
	// outside the range are clamped, not rejected.
	MinJobAttempts = 1
	MaxJobAttempts = 10

	// DefaultJobAttempts is used when a submission does not specify
	// maxAttempts.
	DefaultJobAttempts = 3

	// MinLeaseMs / MaxLeaseMs bound a job's lease duration in milliseconds.
	// Requests outside the range are clamped, not rejected.
	MinLeaseMs = 1000
	MaxLeaseMs = 30000

	// DefaultLeaseMs is used when a submission does not specify leaseMs.
	DefaultLeaseMs = 30000

	// DefaultLockTTLMs is the project lock TTL when the acquire request
	// does not specify one.
	DefaultLockTTLMs = 15000

	// RetryBackoffBase is the base of the exponential retry backoff applied
	// on job failure, anchored at the failed attempt's lease expiry.
	RetryBackoffBase = time.Second

	// LeasePollInterval / LeaseAcquireTimeout bound the busy-retry loop
	// used to emulate CAS over backends without native transactions.
	LeasePollInterval   = 25 * time.Millisecond
	LeaseAcquireTimeout = 10 * time.Second
)
