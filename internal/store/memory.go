package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fathom-notes/fathom/internal/event"
)

// Memory is an in-memory Store with the same observable semantics as
// SQLite. It backs tests and the degraded mode entered when the
// durable medium cannot be opened: the session stays fully usable,
// nothing survives the process.
//
// Thread-safety: all methods are safe for concurrent use.
type Memory struct {
	mu         sync.Mutex
	ids        identGenerator
	now        func() time.Time
	nextSeq    int64
	events     []event.Event
	workspaces []Workspace
}

// identGenerator is the subset of ident.Generator Memory needs,
// declared locally to keep the fake's constructor dependency-light.
type identGenerator interface {
	NewWorkspaceID() string
}

// NewMemory creates an empty in-memory store.
func NewMemory(ids identGenerator, now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{ids: ids, now: now}
}

func (m *Memory) AppendEvent(_ context.Context, e event.Event) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSeq++
	e.Seq = m.nextSeq
	m.events = append(m.events, e)
	return e.Seq, nil
}

func (m *Memory) AllEvents(context.Context) ([]event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedEvents(m.events, ""), nil
}

func (m *Memory) WorkspaceEvents(_ context.Context, workspaceID string) ([]event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedEvents(m.events, workspaceID), nil
}

func (m *Memory) BulkInsertEvents(_ context.Context, workspaceID string, events []event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertLocked(workspaceID, events)
	return nil
}

func (m *Memory) ClearWorkspaceEvents(_ context.Context, workspaceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked(workspaceID)
	return nil
}

func (m *Memory) ReplaceWorkspaceEvents(_ context.Context, workspaceID string, events []event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked(workspaceID)
	m.insertLocked(workspaceID, events)
	return nil
}

func (m *Memory) ListWorkspaces(context.Context) ([]Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Workspace, len(m.workspaces))
	copy(out, m.workspaces)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *Memory) GetWorkspace(_ context.Context, id string) (Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ws := range m.workspaces {
		if ws.ID == id {
			return ws, nil
		}
	}
	return Workspace{}, fmt.Errorf("get workspace %q: %w", id, ErrNotFound)
}

func (m *Memory) CreateWorkspace(_ context.Context, name string) (Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Workspace{}, ErrNameRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UnixMilli()
	ws := Workspace{ID: m.ids.NewWorkspaceID(), Name: name, CreatedAt: now, UpdatedAt: now}
	m.workspaces = append(m.workspaces, ws)
	return ws, nil
}

func (m *Memory) RenameWorkspace(_ context.Context, id, name string) (Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Workspace{}, ErrNameRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.workspaces {
		if m.workspaces[i].ID == id {
			m.workspaces[i].Name = name
			m.workspaces[i].UpdatedAt = m.now().UnixMilli()
			return m.workspaces[i], nil
		}
	}
	return Workspace{}, fmt.Errorf("rename workspace %q: %w", id, ErrNotFound)
}

func (m *Memory) DeleteWorkspace(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.workspaces {
		if m.workspaces[i].ID == id {
			m.workspaces = append(m.workspaces[:i], m.workspaces[i+1:]...)
			m.clearLocked(id)
			return nil
		}
	}
	return fmt.Errorf("delete workspace %q: %w", id, ErrNotFound)
}

func (m *Memory) DeleteAllWorkspaces(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workspaces = nil
	m.events = nil
	return nil
}

func (m *Memory) UpdateWorkspaceLock(_ context.Context, id string, ls LockState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.workspaces {
		if m.workspaces[i].ID == id {
			m.workspaces[i].Locked = ls.Locked
			m.workspaces[i].LockTestName = ls.LockTestName
			m.workspaces[i].LockTestValue = ls.LockTestValue
			return nil
		}
	}
	return fmt.Errorf("update workspace lock %q: %w", id, ErrNotFound)
}

func (m *Memory) Close() error { return nil }

func (m *Memory) insertLocked(workspaceID string, events []event.Event) {
	for _, e := range events {
		m.nextSeq++
		e.Seq = m.nextSeq
		if e.WorkspaceID == "" {
			e.WorkspaceID = workspaceID
		}
		m.events = append(m.events, e)
	}
}

func (m *Memory) clearLocked(workspaceID string) {
	kept := m.events[:0]
	for _, e := range m.events {
		if e.WorkspaceID != workspaceID {
			kept = append(kept, e)
		}
	}
	m.events = kept
}

// sortedEvents copies and sorts by (ts, seq), optionally filtering by
// workspace. Matches the SQLite ORDER BY exactly.
func sortedEvents(events []event.Event, workspaceID string) []event.Event {
	out := []event.Event{}
	for _, e := range events {
		if workspaceID == "" || e.WorkspaceID == workspaceID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}
