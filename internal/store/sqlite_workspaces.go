package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ListWorkspaces returns all records, createdAt ascending with name as
// tie-break, so listing order is stable across replays and stores.
func (s *SQLite) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at, locked, lock_test_name, lock_test_value
		FROM workspaces
		ORDER BY created_at ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	workspaces := []Workspace{}
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, fmt.Errorf("list workspaces: %w", err)
		}
		workspaces = append(workspaces, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	return workspaces, nil
}

// GetWorkspace returns one record or ErrNotFound.
func (s *SQLite) GetWorkspace(ctx context.Context, id string) (Workspace, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at, locked, lock_test_name, lock_test_value
		FROM workspaces
		WHERE id = ?
	`, id)
	ws, err := scanWorkspace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Workspace{}, fmt.Errorf("get workspace %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Workspace{}, fmt.Errorf("get workspace %q: %w", id, err)
	}
	return ws, nil
}

// CreateWorkspace inserts a record under a fresh opaque id.
func (s *SQLite) CreateWorkspace(ctx context.Context, name string) (Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Workspace{}, ErrNameRequired
	}
	now := s.now().UnixMilli()
	ws := Workspace{
		ID:        s.ids.NewWorkspaceID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workspaces (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)
	`, ws.ID, ws.Name, ws.CreatedAt, ws.UpdatedAt)
	if err != nil {
		return Workspace{}, fmt.Errorf("create workspace: %w", err)
	}
	return ws, nil
}

// RenameWorkspace updates the display name and updated_at in place.
func (s *SQLite) RenameWorkspace(ctx context.Context, id, name string) (Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Workspace{}, ErrNameRequired
	}
	now := s.now().UnixMilli()
	res, err := s.db.ExecContext(ctx, `
		UPDATE workspaces SET name = ?, updated_at = ? WHERE id = ?
	`, name, now, id)
	if err != nil {
		return Workspace{}, fmt.Errorf("rename workspace: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Workspace{}, fmt.Errorf("rename workspace: rows affected: %w", err)
	}
	if affected == 0 {
		return Workspace{}, fmt.Errorf("rename workspace %q: %w", id, ErrNotFound)
	}
	return s.GetWorkspace(ctx, id)
}

// DeleteWorkspace removes the record and every event indexed under the
// workspace id, atomically.
func (s *SQLite) DeleteWorkspace(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete workspace: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM workspaces WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete workspace: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete workspace %q: %w", id, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE workspace_id = ?`, id); err != nil {
		return fmt.Errorf("delete workspace: cascade events: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete workspace: commit: %w", err)
	}
	return nil
}

// DeleteAllWorkspaces clears both record families atomically.
func (s *SQLite) DeleteAllWorkspaces(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete all workspaces: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM workspaces`); err != nil {
		return fmt.Errorf("delete all workspaces: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("delete all workspaces: events: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete all workspaces: commit: %w", err)
	}
	return nil
}

// UpdateWorkspaceLock applies the lock-field partial update.
func (s *SQLite) UpdateWorkspaceLock(ctx context.Context, id string, ls LockState) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE workspaces SET locked = ?, lock_test_name = ?, lock_test_value = ? WHERE id = ?
	`, boolToInt(ls.Locked), ls.LockTestName, ls.LockTestValue, id)
	if err != nil {
		return fmt.Errorf("update workspace lock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update workspace lock: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update workspace lock %q: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkspace(row rowScanner) (Workspace, error) {
	var (
		ws     Workspace
		locked int
	)
	err := row.Scan(&ws.ID, &ws.Name, &ws.CreatedAt, &ws.UpdatedAt, &locked, &ws.LockTestName, &ws.LockTestValue)
	if err != nil {
		return Workspace{}, err
	}
	ws.Locked = locked != 0
	return ws, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
