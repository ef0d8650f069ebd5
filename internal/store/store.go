// Package store provides durable, per-workspace-indexed storage for
// the outliner's two record families: the append-only event log and
// workspace metadata records.
//
// Two implementations share the Store interface: SQLite (production,
// WAL mode, versioned schema migrations) and Memory (injectable test
// fake, also used as the degraded mode when the durable medium cannot
// be opened).
//
// Critical patterns carried through both:
//   - Events are never mutated in place; ReplaceWorkspaceEvents is the
//     only rewrite path and it is a single clear+insert transaction.
//   - All event reads order by ts ASC, id ASC for deterministic replay.
//   - Cascade deletes (workspace + its events) are one transaction.
package store

import (
	"context"
	"errors"

	"github.com/fathom-notes/fathom/internal/event"
)

// Sentinel errors for the structural failure taxonomy. Callers match
// with errors.Is.
var (
	// ErrNotFound reports a workspace id with no record.
	ErrNotFound = errors.New("workspace not found")

	// ErrNameRequired reports an empty workspace name after trimming.
	ErrNameRequired = errors.New("workspace name required")

	// ErrUnavailable reports that the durable medium rejected the
	// operation. Best-effort callers log and continue; the in-memory
	// tree stays authoritative for the session.
	ErrUnavailable = errors.New("event store unavailable")
)

// Workspace is a workspace metadata record. Lock fields are present
// only while the workspace is locked.
type Workspace struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
	Locked    bool   `json:"locked"`

	// LockTestName is the plaintext verification token.
	LockTestName string `json:"lockTestName,omitempty"`

	// LockTestValue is the JSON envelope {salt, iv, data} holding the
	// verification token encrypted under the workspace password.
	LockTestValue string `json:"lockTestValue,omitempty"`
}

// LockState is the partial update applied by UpdateWorkspaceLock.
type LockState struct {
	Locked        bool
	LockTestName  string
	LockTestValue string
}

// Store is the durable storage surface the document engine and lock
// protocol depend on.
type Store interface {
	// AppendEvent appends one event and returns its sequence number.
	AppendEvent(ctx context.Context, e event.Event) (int64, error)

	// AllEvents returns every event, ts ascending.
	AllEvents(ctx context.Context) ([]event.Event, error)

	// WorkspaceEvents returns a workspace's events, ts ascending.
	WorkspaceEvents(ctx context.Context, workspaceID string) ([]event.Event, error)

	// BulkInsertEvents appends events for a workspace in one
	// transaction, preserving slice order.
	BulkInsertEvents(ctx context.Context, workspaceID string, events []event.Event) error

	// ClearWorkspaceEvents removes every event of a workspace.
	ClearWorkspaceEvents(ctx context.Context, workspaceID string) error

	// ReplaceWorkspaceEvents atomically clears and re-inserts a
	// workspace's event history. Used by import, reset, and the lock
	// protocol's payload rewrite.
	ReplaceWorkspaceEvents(ctx context.Context, workspaceID string, events []event.Event) error

	// ListWorkspaces returns all workspace records sorted by
	// createdAt ascending, ties broken by name.
	ListWorkspaces(ctx context.Context) ([]Workspace, error)

	// GetWorkspace returns one record or ErrNotFound.
	GetWorkspace(ctx context.Context, id string) (Workspace, error)

	// CreateWorkspace creates a record with a fresh opaque id.
	// Returns ErrNameRequired if name is empty after trimming.
	CreateWorkspace(ctx context.Context, name string) (Workspace, error)

	// RenameWorkspace updates the display name in place.
	RenameWorkspace(ctx context.Context, id, name string) (Workspace, error)

	// DeleteWorkspace removes the record and cascades deletion of all
	// its events in one transaction.
	DeleteWorkspace(ctx context.Context, id string) error

	// DeleteAllWorkspaces clears both record families atomically.
	DeleteAllWorkspaces(ctx context.Context) error

	// UpdateWorkspaceLock applies a partial update restricted to the
	// lock fields, leaving id, name, and timestamps untouched.
	UpdateWorkspaceLock(ctx context.Context, id string, ls LockState) error

	// Close releases the underlying medium.
	Close() error
}
