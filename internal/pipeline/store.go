package pipeline

import (
	"log/slog"
	"sync"
	"time"

	models "armature/internal/domain/models/pipeline"
)

// DefaultWorkspaceID is used whenever a caller does not name a workspace,
// which keeps single-tenant deployments free of workspace plumbing.
const DefaultWorkspaceID = "default"

// Store is the workspace-scoped pipeline store: the folder/project tree,
// the lease-based job queue, per-project advisory locks and per-project
// event logs, all behind one API surface.
//
// Every exported operation runs inside a single critical section: the
// store mutex is held across the whole check-and-mutate sequence, so no
// operation partially applies its effects and no operation observes
// another's partial state. Reads return deep copies; callers never share
// structure with store internals.
type Store struct {
	mu         sync.Mutex
	logger     *slog.Logger
	kinds      *KindRegistry
	now        func() time.Time
	minter     *idMinter
	workspaces map[string]*workspace
}

// workspace holds the arenas for one tenancy scope. Entities in different
// workspaces never observe each other, even under colliding ids: every
// lookup goes through a workspace first.
type workspace struct {
	id           string
	rootChildren []models.ChildRef
	folders      map[string]*models.Folder
	projects     map[string]*models.Project
	jobs         map[string]*models.Job
	jobOrder     []string // every job id ever submitted, submission order
	queue        []string // job ids in claim-scan order
	locks        map[string]*models.Lock
	events       map[string][]*models.ProjectEvent
}

func newWorkspace(id string) *workspace {
	return &workspace{
		id:       id,
		folders:  make(map[string]*models.Folder),
		projects: make(map[string]*models.Project),
		jobs:     make(map[string]*models.Job),
		locks:    make(map[string]*models.Lock),
		events:   make(map[string][]*models.ProjectEvent),
	}
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the store's time source. Tests use this to advance
// time past leases, lock TTLs and retry backoffs deterministically.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty pipeline store.
func NewStore(kinds *KindRegistry, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		logger:     logger,
		kinds:      kinds,
		now:        time.Now,
		minter:     newIDMinter(),
		workspaces: make(map[string]*workspace),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kinds returns the job kind registry the store validates against.
func (s *Store) Kinds() *KindRegistry {
	return s.kinds
}

// Reset clears all workspaces' state. Test/ops use only.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workspaces = make(map[string]*workspace)
	s.logger.Info("store reset")
}

// ws resolves a workspace id (defaulting the empty id) and lazily creates
// the workspace arenas. Callers must hold s.mu.
func (s *Store) ws(workspaceID string) *workspace {
	if workspaceID == "" {
		workspaceID = DefaultWorkspaceID
	}
	w, ok := s.workspaces[workspaceID]
	if !ok {
		w = newWorkspace(workspaceID)
		s.workspaces[workspaceID] = w
	}
	return w
}

// projectView assembles the caller-visible copy of a project, attaching
// the project's live lock and stripping an expired one. Callers must hold
// s.mu.
func (s *Store) projectView(w *workspace, p *models.Project) *models.Project {
	out := p.Clone()
	if lock, ok := w.locks[p.ID]; ok && !lock.ExpiredAt(s.now()) {
		out.Lock = lock.Clone()
	} else {
		out.Lock = nil
	}
	return out
}
