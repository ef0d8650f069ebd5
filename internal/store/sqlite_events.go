package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fathom-notes/fathom/internal/event"
)

// AppendEvent appends one event. Persistence is best-effort: on
// failure the cause is logged and ErrUnavailable is returned so
// callers can keep the in-memory tree authoritative for the session.
func (s *SQLite) AppendEvent(ctx context.Context, e event.Event) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events (workspace_id, type, payload, ts)
		VALUES (?, ?, ?, ?)
	`, e.WorkspaceID, string(e.Kind), string(e.Payload), e.Timestamp)
	if err != nil {
		s.log.Warn().Err(err).Str("kind", string(e.Kind)).Msg("append event failed")
		return 0, fmt.Errorf("append event: %w", ErrUnavailable)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		s.log.Warn().Err(err).Msg("append event: sequence id unavailable")
		return 0, fmt.Errorf("append event: %w", ErrUnavailable)
	}
	return seq, nil
}

// AllEvents returns the full log, ts ascending (ties broken by
// sequence id for deterministic replay).
func (s *SQLite) AllEvents(ctx context.Context) ([]event.Event, error) {
	return s.queryEvents(ctx, `
		SELECT id, workspace_id, type, payload, ts
		FROM events
		ORDER BY ts ASC, id ASC
	`)
}

// WorkspaceEvents returns one workspace's events, ts ascending.
func (s *SQLite) WorkspaceEvents(ctx context.Context, workspaceID string) ([]event.Event, error) {
	return s.queryEvents(ctx, `
		SELECT id, workspace_id, type, payload, ts
		FROM events
		WHERE workspace_id = ?
		ORDER BY ts ASC, id ASC
	`, workspaceID)
}

// BulkInsertEvents inserts events in slice order in one transaction.
func (s *SQLite) BulkInsertEvents(ctx context.Context, workspaceID string, events []event.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("bulk insert: begin: %w", err)
	}
	defer tx.Rollback()

	if err := insertEventsTx(ctx, tx, workspaceID, events); err != nil {
		return fmt.Errorf("bulk insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("bulk insert: commit: %w", err)
	}
	return nil
}

// ClearWorkspaceEvents removes every event of a workspace.
func (s *SQLite) ClearWorkspaceEvents(ctx context.Context, workspaceID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE workspace_id = ?`, workspaceID); err != nil {
		return fmt.Errorf("clear workspace events: %w", err)
	}
	return nil
}

// ReplaceWorkspaceEvents clears and re-inserts a workspace's event
// history in a single transaction. Either the full new history lands
// or the old one survives untouched.
func (s *SQLite) ReplaceWorkspaceEvents(ctx context.Context, workspaceID string, events []event.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace events: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE workspace_id = ?`, workspaceID); err != nil {
		return fmt.Errorf("replace events: clear: %w", err)
	}
	if err := insertEventsTx(ctx, tx, workspaceID, events); err != nil {
		return fmt.Errorf("replace events: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace events: commit: %w", err)
	}
	return nil
}

func insertEventsTx(ctx context.Context, tx *sql.Tx, workspaceID string, events []event.Event) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (workspace_id, type, payload, ts)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		wsID := e.WorkspaceID
		if wsID == "" {
			wsID = workspaceID
		}
		if _, err := stmt.ExecContext(ctx, wsID, string(e.Kind), string(e.Payload), e.Timestamp); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return nil
}

func (s *SQLite) queryEvents(ctx context.Context, query string, args ...any) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []event.Event{}
	for rows.Next() {
		var (
			e       event.Event
			kind    string
			payload string
		)
		if err := rows.Scan(&e.Seq, &e.WorkspaceID, &kind, &payload, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = event.Kind(kind)
		e.Payload = []byte(payload)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
