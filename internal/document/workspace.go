package document

import (
	"context"
	"fmt"

	"github.com/fathom-notes/fathom/internal/event"
	"github.com/fathom-notes/fathom/internal/outline"
	"github.com/fathom-notes/fathom/internal/replay"
	"github.com/fathom-notes/fathom/internal/store"
)

// Init loads the workspace list, bootstrapping a default workspace
// with one empty bullet on first run, and loads the first workspace.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateBootstrapping

	workspaces, err := s.db.ListWorkspaces(ctx)
	if err != nil {
		s.state = StateUninitialized
		return fmt.Errorf("init: %w", err)
	}
	if len(workspaces) == 0 {
		ws, err := s.db.CreateWorkspace(ctx, s.defaultName)
		if err != nil {
			s.state = StateUninitialized
			return fmt.Errorf("init: bootstrap workspace: %w", err)
		}
		s.emitTo(ctx, ws.ID, event.WorkspaceCreated, event.WorkspacePayload{ID: ws.ID, Name: ws.Name})
		workspaces = []store.Workspace{ws}
	}
	s.workspaces = workspaces

	return s.loadWorkspaceLocked(ctx, workspaces[0].ID)
}

// LoadWorkspace switches the engine to the given workspace, replaying
// its event log into a fresh tree (or entering the locked view).
func (s *Store) LoadWorkspace(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadWorkspaceLocked(ctx, id)
}

func (s *Store) loadWorkspaceLocked(ctx context.Context, id string) error {
	ws, err := s.db.GetWorkspace(ctx, id)
	if err != nil {
		return fmt.Errorf("load workspace: %w", err)
	}
	s.current = ws
	s.zoomedID = ""
	s.query = ""

	if ws.Locked {
		s.enterLockedView()
		s.state = StateReady
		s.notify(Change{Kind: ChangeWorkspace})
		return nil
	}

	events, err := s.db.WorkspaceEvents(ctx, id)
	if err != nil {
		return fmt.Errorf("load workspace: read events: %w", err)
	}
	s.lockedView = false
	s.roots = replay.Project(events, s.log)
	s.reindex()
	s.state = StateReady

	// A freshly created workspace starts with one empty bullet so the
	// view is never blank. Bootstrap insertions record no history.
	if len(s.roots) == 0 {
		s.withSuppressedHistory(func() {
			s.createBulletAt(ctx, "", 0)
		})
	}
	s.resetHistory()
	s.notify(Change{Kind: ChangeWorkspace})
	s.notify(Change{Kind: ChangeTree})
	return nil
}

// enterLockedView hides the tree: locked workspaces expose no content
// and accept no mutations. Caller holds the mutex.
func (s *Store) enterLockedView() {
	s.lockedView = true
	s.roots = []*outline.Bullet{}
	s.reindex()
	s.history = nil
	s.cursor = 0
	s.notify(Change{Kind: ChangeLock})
	s.notify(Change{Kind: ChangeTree})
}

// Workspaces returns the cached workspace records.
func (s *Store) Workspaces() []store.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Workspace, len(s.workspaces))
	copy(out, s.workspaces)
	return out
}

// Current returns the loaded workspace record.
func (s *Store) Current() store.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CreateWorkspace creates and switches to a new workspace.
func (s *Store) CreateWorkspace(ctx context.Context, name string) (store.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.db.CreateWorkspace(ctx, name)
	if err != nil {
		return store.Workspace{}, err
	}
	s.emitTo(ctx, ws.ID, event.WorkspaceCreated, event.WorkspacePayload{ID: ws.ID, Name: ws.Name})
	s.workspaces = append(s.workspaces, ws)
	if err := s.loadWorkspaceLocked(ctx, ws.ID); err != nil {
		return store.Workspace{}, err
	}
	return ws, nil
}

// RenameWorkspace renames in place.
func (s *Store) RenameWorkspace(ctx context.Context, id, name string) (store.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.db.RenameWorkspace(ctx, id, name)
	if err != nil {
		return store.Workspace{}, err
	}
	s.emitTo(ctx, ws.ID, event.WorkspaceRenamed, event.WorkspacePayload{ID: ws.ID, Name: ws.Name})
	for i := range s.workspaces {
		if s.workspaces[i].ID == id {
			s.workspaces[i] = ws
		}
	}
	if s.current.ID == id {
		s.current = ws
	}
	s.notify(Change{Kind: ChangeWorkspace})
	return ws, nil
}

// DeleteWorkspace removes the workspace and its whole event history.
// Deleting the current workspace switches to the first remaining one,
// bootstrapping a fresh default if none remain.
func (s *Store) DeleteWorkspace(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.DeleteWorkspace(ctx, id); err != nil {
		return err
	}
	kept := s.workspaces[:0]
	for _, ws := range s.workspaces {
		if ws.ID != id {
			kept = append(kept, ws)
		}
	}
	s.workspaces = kept
	s.notify(Change{Kind: ChangeWorkspace})

	if s.current.ID != id {
		return nil
	}
	if len(s.workspaces) == 0 {
		ws, err := s.db.CreateWorkspace(ctx, s.defaultName)
		if err != nil {
			return fmt.Errorf("delete workspace: reseed: %w", err)
		}
		s.emitTo(ctx, ws.ID, event.WorkspaceCreated, event.WorkspacePayload{ID: ws.ID, Name: ws.Name})
		s.workspaces = []store.Workspace{ws}
	}
	return s.loadWorkspaceLocked(ctx, s.workspaces[0].ID)
}

// DeleteAllWorkspaces wipes both record families and bootstraps a
// fresh default workspace.
func (s *Store) DeleteAllWorkspaces(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.DeleteAllWorkspaces(ctx); err != nil {
		return err
	}
	s.workspaces = nil
	ws, err := s.db.CreateWorkspace(ctx, s.defaultName)
	if err != nil {
		return fmt.Errorf("delete all workspaces: reseed: %w", err)
	}
	s.emitTo(ctx, ws.ID, event.WorkspaceCreated, event.WorkspacePayload{ID: ws.ID, Name: ws.Name})
	s.workspaces = []store.Workspace{ws}
	return s.loadWorkspaceLocked(ctx, ws.ID)
}

// ResetWorkspace discards the current workspace's content, replacing
// its event history with a single fresh empty bullet.
func (s *Store) ResetWorkspace(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return err
	}

	fresh := &outline.Bullet{
		ID:        s.ids.NewBulletID(),
		CreatedAt: s.nowMillis(),
		Children:  []*outline.Bullet{},
	}
	events, err := outline.CreationEvents(s.current.ID, []*outline.Bullet{fresh}, s.clock)
	if err != nil {
		return fmt.Errorf("reset workspace: %w", err)
	}
	if err := s.db.ReplaceWorkspaceEvents(ctx, s.current.ID, events); err != nil {
		return fmt.Errorf("reset workspace: %w", err)
	}

	s.roots = []*outline.Bullet{fresh}
	s.reindex()
	s.zoomedID = ""
	s.query = ""
	s.resetHistory()
	s.notify(Change{Kind: ChangeTree})
	return nil
}

// Lock encrypts the workspace's events under password and marks it
// locked. Locking the active workspace clears the in-memory tree and
// history immediately.
func (s *Store) Lock(ctx context.Context, id, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.locker.Lock(ctx, id, password); err != nil {
		return err
	}
	s.refreshWorkspaceLocked(ctx, id)
	if s.current.ID == id {
		s.enterLockedView()
	}
	s.notify(Change{Kind: ChangeWorkspace})
	return nil
}

// Unlock verifies the password, decrypts the workspace's events, and,
// if it is the active workspace, reloads the tree from the decrypted
// log.
func (s *Store) Unlock(ctx context.Context, id, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.locker.Unlock(ctx, id, password); err != nil {
		return err
	}
	s.refreshWorkspaceLocked(ctx, id)
	if s.current.ID == id {
		return s.loadWorkspaceLocked(ctx, id)
	}
	s.notify(Change{Kind: ChangeWorkspace})
	return nil
}

// refreshWorkspaceLocked re-reads one record into the cache. Caller
// holds the mutex.
func (s *Store) refreshWorkspaceLocked(ctx context.Context, id string) {
	ws, err := s.db.GetWorkspace(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("workspace", id).Msg("workspace refresh failed")
		return
	}
	for i := range s.workspaces {
		if s.workspaces[i].ID == id {
			s.workspaces[i] = ws
		}
	}
	if s.current.ID == id {
		s.current = ws
	}
}
