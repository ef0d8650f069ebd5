package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fathom-notes/fathom/internal/event"
	"github.com/fathom-notes/fathom/internal/ident"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mkEvent(ws string, kind event.Kind, payload string, ts int64) event.Event {
	return event.Event{WorkspaceID: ws, Kind: kind, Payload: []byte(payload), Timestamp: ts}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path, Options{})
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"events", "workspaces"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_SeedsDefaultWorkspace(t *testing.T) {
	s := openTestStore(t)

	workspaces, err := s.ListWorkspaces(context.Background())
	if err != nil {
		t.Fatalf("ListWorkspaces() failed: %v", err)
	}
	if len(workspaces) != 1 {
		t.Fatalf("expected 1 seeded workspace, got %d", len(workspaces))
	}
	if workspaces[0].Name != "Home" {
		t.Errorf("seeded workspace name = %q, want %q", workspaces[0].Name, "Home")
	}
	if !ident.IsWorkspaceID(workspaces[0].ID) {
		t.Errorf("seeded workspace id %q lacks ws_ prefix", workspaces[0].ID)
	}
}

func TestAppendEvent_AssignsIncreasingSequence(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seq1, err := s.AppendEvent(ctx, mkEvent("ws_1", event.BulletCreated, `{"id":"a"}`, 10))
	if err != nil {
		t.Fatalf("AppendEvent() failed: %v", err)
	}
	seq2, err := s.AppendEvent(ctx, mkEvent("ws_1", event.BulletCreated, `{"id":"b"}`, 20))
	if err != nil {
		t.Fatalf("AppendEvent() failed: %v", err)
	}
	if seq2 <= seq1 {
		t.Errorf("sequence not increasing: %d then %d", seq1, seq2)
	}
}

func TestWorkspaceEvents_FiltersAndOrders(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Insert out of timestamp order, across two workspaces.
	for _, e := range []event.Event{
		mkEvent("ws_1", event.BulletCreated, `{"id":"c"}`, 30),
		mkEvent("ws_2", event.BulletCreated, `{"id":"x"}`, 15),
		mkEvent("ws_1", event.BulletCreated, `{"id":"a"}`, 10),
		mkEvent("ws_1", event.BulletCreated, `{"id":"b"}`, 20),
	} {
		if _, err := s.AppendEvent(ctx, e); err != nil {
			t.Fatalf("AppendEvent() failed: %v", err)
		}
	}

	events, err := s.WorkspaceEvents(ctx, "ws_1")
	if err != nil {
		t.Fatalf("WorkspaceEvents() failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events for ws_1, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp <= events[i-1].Timestamp {
			t.Errorf("events not sorted by timestamp: %d then %d", events[i-1].Timestamp, events[i].Timestamp)
		}
	}

	all, err := s.AllEvents(ctx)
	if err != nil {
		t.Fatalf("AllEvents() failed: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 events total, got %d", len(all))
	}
}

func TestWorkspaceEvents_EmptyIsNotNil(t *testing.T) {
	s := openTestStore(t)

	events, err := s.WorkspaceEvents(context.Background(), "ws_none")
	if err != nil {
		t.Fatalf("WorkspaceEvents() failed: %v", err)
	}
	if events == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestReplaceWorkspaceEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.AppendEvent(ctx, mkEvent("ws_1", event.BulletCreated, `{"id":"old"}`, 1)); err != nil {
		t.Fatalf("AppendEvent() failed: %v", err)
	}
	if _, err := s.AppendEvent(ctx, mkEvent("ws_2", event.BulletCreated, `{"id":"other"}`, 2)); err != nil {
		t.Fatalf("AppendEvent() failed: %v", err)
	}

	replacement := []event.Event{
		mkEvent("ws_1", event.BulletCreated, `{"id":"new1"}`, 5),
		mkEvent("ws_1", event.BulletCreated, `{"id":"new2"}`, 6),
	}
	if err := s.ReplaceWorkspaceEvents(ctx, "ws_1", replacement); err != nil {
		t.Fatalf("ReplaceWorkspaceEvents() failed: %v", err)
	}

	events, err := s.WorkspaceEvents(ctx, "ws_1")
	if err != nil {
		t.Fatalf("WorkspaceEvents() failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 replacement events, got %d", len(events))
	}
	if string(events[0].Payload) != `{"id":"new1"}` {
		t.Errorf("unexpected first payload %s", events[0].Payload)
	}

	// Other workspace untouched.
	other, err := s.WorkspaceEvents(ctx, "ws_2")
	if err != nil {
		t.Fatalf("WorkspaceEvents() failed: %v", err)
	}
	if len(other) != 1 {
		t.Errorf("ws_2 events disturbed: got %d", len(other))
	}
}

func TestBulkInsert_AndClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	events := []event.Event{
		mkEvent("", event.BulletCreated, `{"id":"a"}`, 1),
		mkEvent("", event.BulletCreated, `{"id":"b"}`, 2),
	}
	if err := s.BulkInsertEvents(ctx, "ws_1", events); err != nil {
		t.Fatalf("BulkInsertEvents() failed: %v", err)
	}

	got, err := s.WorkspaceEvents(ctx, "ws_1")
	if err != nil {
		t.Fatalf("WorkspaceEvents() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}

	if err := s.ClearWorkspaceEvents(ctx, "ws_1"); err != nil {
		t.Fatalf("ClearWorkspaceEvents() failed: %v", err)
	}
	got, err = s.WorkspaceEvents(ctx, "ws_1")
	if err != nil {
		t.Fatalf("WorkspaceEvents() failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected log cleared, got %d events", len(got))
	}
}

func TestCreateWorkspace_NameRequired(t *testing.T) {
	s := openTestStore(t)

	for _, name := range []string{"", "   ", "\t\n"} {
		if _, err := s.CreateWorkspace(context.Background(), name); !errors.Is(err, ErrNameRequired) {
			t.Errorf("CreateWorkspace(%q) = %v, want ErrNameRequired", name, err)
		}
	}
}

func TestCreateWorkspace_TrimsName(t *testing.T) {
	s := openTestStore(t)

	ws, err := s.CreateWorkspace(context.Background(), "  Work  ")
	if err != nil {
		t.Fatalf("CreateWorkspace() failed: %v", err)
	}
	if ws.Name != "Work" {
		t.Errorf("name = %q, want %q", ws.Name, "Work")
	}
	if !ident.IsWorkspaceID(ws.ID) {
		t.Errorf("id %q lacks ws_ prefix", ws.ID)
	}
}

func TestRenameWorkspace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ws, err := s.CreateWorkspace(ctx, "Work")
	if err != nil {
		t.Fatalf("CreateWorkspace() failed: %v", err)
	}

	renamed, err := s.RenameWorkspace(ctx, ws.ID, "Play")
	if err != nil {
		t.Fatalf("RenameWorkspace() failed: %v", err)
	}
	if renamed.Name != "Play" {
		t.Errorf("name = %q, want %q", renamed.Name, "Play")
	}
	if renamed.ID != ws.ID || renamed.CreatedAt != ws.CreatedAt {
		t.Error("rename must not change id or createdAt")
	}

	if _, err := s.RenameWorkspace(ctx, "ws_missing", "X"); !errors.Is(err, ErrNotFound) {
		t.Errorf("rename of missing workspace = %v, want ErrNotFound", err)
	}
}

func TestDeleteWorkspace_CascadesEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ws, err := s.CreateWorkspace(ctx, "Doomed")
	if err != nil {
		t.Fatalf("CreateWorkspace() failed: %v", err)
	}
	if _, err := s.AppendEvent(ctx, mkEvent(ws.ID, event.BulletCreated, `{"id":"a"}`, 1)); err != nil {
		t.Fatalf("AppendEvent() failed: %v", err)
	}

	if err := s.DeleteWorkspace(ctx, ws.ID); err != nil {
		t.Fatalf("DeleteWorkspace() failed: %v", err)
	}

	if _, err := s.GetWorkspace(ctx, ws.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetWorkspace after delete = %v, want ErrNotFound", err)
	}
	events, err := s.WorkspaceEvents(ctx, ws.ID)
	if err != nil {
		t.Fatalf("WorkspaceEvents() failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("events not cascaded: %d remain", len(events))
	}

	if err := s.DeleteWorkspace(ctx, ws.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestDeleteAllWorkspaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ws, err := s.CreateWorkspace(ctx, "Work")
	if err != nil {
		t.Fatalf("CreateWorkspace() failed: %v", err)
	}
	if _, err := s.AppendEvent(ctx, mkEvent(ws.ID, event.BulletCreated, `{"id":"a"}`, 1)); err != nil {
		t.Fatalf("AppendEvent() failed: %v", err)
	}

	if err := s.DeleteAllWorkspaces(ctx); err != nil {
		t.Fatalf("DeleteAllWorkspaces() failed: %v", err)
	}

	workspaces, err := s.ListWorkspaces(ctx)
	if err != nil {
		t.Fatalf("ListWorkspaces() failed: %v", err)
	}
	if len(workspaces) != 0 {
		t.Errorf("expected no workspaces, got %d", len(workspaces))
	}
	all, err := s.AllEvents(ctx)
	if err != nil {
		t.Fatalf("AllEvents() failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected no events, got %d", len(all))
	}
}

func TestUpdateWorkspaceLock(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ws, err := s.CreateWorkspace(ctx, "Secret")
	if err != nil {
		t.Fatalf("CreateWorkspace() failed: %v", err)
	}

	ls := LockState{Locked: true, LockTestName: "token", LockTestValue: `{"salt":"s","iv":"i","data":"d"}`}
	if err := s.UpdateWorkspaceLock(ctx, ws.ID, ls); err != nil {
		t.Fatalf("UpdateWorkspaceLock() failed: %v", err)
	}

	got, err := s.GetWorkspace(ctx, ws.ID)
	if err != nil {
		t.Fatalf("GetWorkspace() failed: %v", err)
	}
	if !got.Locked || got.LockTestName != "token" || got.LockTestValue != ls.LockTestValue {
		t.Errorf("lock state not applied: %+v", got)
	}
	if got.Name != ws.Name || got.CreatedAt != ws.CreatedAt || got.UpdatedAt != ws.UpdatedAt {
		t.Error("lock update must leave name and timestamps untouched")
	}

	// Unlock clears the fields.
	if err := s.UpdateWorkspaceLock(ctx, ws.ID, LockState{}); err != nil {
		t.Fatalf("UpdateWorkspaceLock() failed: %v", err)
	}
	got, err = s.GetWorkspace(ctx, ws.ID)
	if err != nil {
		t.Fatalf("GetWorkspace() failed: %v", err)
	}
	if got.Locked || got.LockTestName != "" || got.LockTestValue != "" {
		t.Errorf("lock state not cleared: %+v", got)
	}

	if err := s.UpdateWorkspaceLock(ctx, "ws_missing", ls); !errors.Is(err, ErrNotFound) {
		t.Errorf("lock update of missing workspace = %v, want ErrNotFound", err)
	}
}

func TestListWorkspaces_SortedByCreatedAtThenName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	// Fixed clock: every record gets the same created_at, so ordering
	// falls through to the name tie-break.
	s, err := Open(path, Options{Now: func() time.Time { return time.UnixMilli(1000) }})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := s.CreateWorkspace(ctx, name); err != nil {
			t.Fatalf("CreateWorkspace(%q) failed: %v", name, err)
		}
	}

	workspaces, err := s.ListWorkspaces(ctx)
	if err != nil {
		t.Fatalf("ListWorkspaces() failed: %v", err)
	}
	// "Home" was seeded at the same timestamp by migration.
	var names []string
	for _, ws := range workspaces {
		names = append(names, ws.Name)
	}
	want := []string{"Home", "alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

// Migration tests against hand-built historical databases.

func openRaw(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("raw open failed: %v", err)
	}
	return db
}

func TestMigration_FromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	// v0: bare event table, no workspace_id, no workspaces table.
	db := openRaw(t, path)
	stmts := []string{
		`CREATE TABLE events (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			type    TEXT NOT NULL,
			payload TEXT NOT NULL,
			ts      INTEGER NOT NULL
		)`,
		`INSERT INTO events (type, payload, ts) VALUES ('bullet_created', '{"id":"a"}', 1)`,
		`INSERT INTO events (type, payload, ts) VALUES ('bullet_created', '{"id":"b"}', 2)`,
		`PRAGMA user_version = 0`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("setup %q failed: %v", stmt, err)
		}
	}
	db.Close()

	s, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open() of legacy db failed: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	// Default workspace seeded, pre-existing events backfilled to it.
	workspaces, err := s.ListWorkspaces(ctx)
	if err != nil {
		t.Fatalf("ListWorkspaces() failed: %v", err)
	}
	if len(workspaces) != 1 {
		t.Fatalf("expected 1 seeded workspace, got %d", len(workspaces))
	}
	events, err := s.WorkspaceEvents(ctx, workspaces[0].ID)
	if err != nil {
		t.Fatalf("WorkspaceEvents() failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 backfilled events, got %d", len(events))
	}

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("user_version query failed: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestMigration_V3RemapsNameKeyedWorkspaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	// v2: workspaces keyed by display name, events referencing it.
	db := openRaw(t, path)
	stmts := []string{
		`CREATE TABLE events (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			workspace_id TEXT NOT NULL DEFAULT '',
			type         TEXT NOT NULL,
			payload      TEXT NOT NULL,
			ts           INTEGER NOT NULL
		)`,
		`CREATE INDEX idx_events_workspace ON events(workspace_id)`,
		`CREATE TABLE workspaces (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			created_at      INTEGER NOT NULL,
			updated_at      INTEGER NOT NULL,
			locked          INTEGER NOT NULL DEFAULT 0,
			lock_test_name  TEXT NOT NULL DEFAULT '',
			lock_test_value TEXT NOT NULL DEFAULT ''
		)`,
		`INSERT INTO workspaces (id, name, created_at, updated_at) VALUES ('Personal', 'Personal', 10, 10)`,
		`INSERT INTO events (workspace_id, type, payload, ts) VALUES ('Personal', 'bullet_created', '{"id":"a"}', 1)`,
		`PRAGMA user_version = 2`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("setup %q failed: %v", stmt, err)
		}
	}
	db.Close()

	s, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open() of v2 db failed: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	workspaces, err := s.ListWorkspaces(ctx)
	if err != nil {
		t.Fatalf("ListWorkspaces() failed: %v", err)
	}
	if len(workspaces) != 1 {
		t.Fatalf("expected 1 workspace, got %d", len(workspaces))
	}
	ws := workspaces[0]
	if !ident.IsWorkspaceID(ws.ID) {
		t.Errorf("workspace id %q not remapped to opaque id", ws.ID)
	}
	if ws.Name != "Personal" {
		t.Errorf("display name lost in remap: %q", ws.Name)
	}

	events, err := s.WorkspaceEvents(ctx, ws.ID)
	if err != nil {
		t.Fatalf("WorkspaceEvents() failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("referencing events not remapped: got %d", len(events))
	}
}

func TestMigration_Rerunnable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	ws, err := s1.CreateWorkspace(context.Background(), "Keep")
	if err != nil {
		t.Fatalf("CreateWorkspace() failed: %v", err)
	}
	s1.Close()

	// Force the migration chain to run again from scratch.
	db := openRaw(t, path)
	if _, err := db.Exec(`PRAGMA user_version = 0`); err != nil {
		t.Fatalf("reset user_version failed: %v", err)
	}
	db.Close()

	s2, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("re-migrating Open() failed: %v", err)
	}
	defer s2.Close()

	if _, err := s2.GetWorkspace(context.Background(), ws.ID); err != nil {
		t.Errorf("workspace lost across re-migration: %v", err)
	}
	workspaces, err := s2.ListWorkspaces(context.Background())
	if err != nil {
		t.Fatalf("ListWorkspaces() failed: %v", err)
	}
	if len(workspaces) != 2 {
		t.Errorf("expected 2 workspaces (Home + Keep), got %d", len(workspaces))
	}
}
