package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/fathom-notes/fathom/internal/ident"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (bare event table, pre-migration)
// 1 - events.workspace_id column + secondary index
// 2 - workspaces table, default workspace seeding, workspace_id backfill
// 3 - opaque workspace ids (legacy name-keyed records remapped)
const currentSchemaVersion = 3

// SQLite is the production Store, backed by a single database file.
//
// Configuration:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - single connection (one writer, no SQLITE_BUSY churn)
type SQLite struct {
	db   *sql.DB
	log  zerolog.Logger
	ids  ident.Generator
	now  func() time.Time
	name string // default workspace name for migration seeding
}

// Options configures Open. Zero values get sensible defaults.
type Options struct {
	// Logger receives warn-level records for degraded operations.
	Logger zerolog.Logger

	// IDs generates workspace ids for creation and migration.
	// Defaults to ident.UUIDGenerator.
	IDs ident.Generator

	// Now supplies record timestamps. Defaults to time.Now.
	Now func() time.Time

	// DefaultWorkspaceName names the workspace seeded by migration
	// when none exists. Defaults to "Home".
	DefaultWorkspaceName string
}

func (o Options) withDefaults() Options {
	if o.IDs == nil {
		o.IDs = ident.UUIDGenerator{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.DefaultWorkspaceName == "" {
		o.DefaultWorkspaceName = "Home"
	}
	return o
}

// Open creates or opens the database at path, applying pragmas and any
// pending schema migrations. Idempotent: safe to call repeatedly
// against the same file, including files produced by any earlier
// schema version.
func Open(path string, opts Options) (*SQLite, error) {
	opts = opts.withDefaults()

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY churn entirely.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	s := &SQLite{
		db:   db,
		log:  opts.Logger,
		ids:  opts.IDs,
		now:  opts.Now,
		name: opts.DefaultWorkspaceName,
	}
	if err := s.applySchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
func (s *SQLite) applySchema() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// runMigrations applies incremental migrations based on user_version.
// Each step checks for the artifacts it introduces before acting, so
// running against a store at any historical version is safe.
func (s *SQLite) runMigrations() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := s.migrateToV1(); err != nil {
			return err
		}
	}
	if version < 2 {
		if err := s.migrateToV2(); err != nil {
			return err
		}
	}
	if version < 3 {
		if err := s.migrateToV3(); err != nil {
			return err
		}
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV1 introduces the workspace_id column and its secondary
// index on the event table. Databases created by schema.sql already
// carry both; this backfills databases from before the column existed.
func (s *SQLite) migrateToV1() error {
	hasColumn, err := s.eventsHaveWorkspaceColumn()
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	if !hasColumn {
		if _, err := s.db.Exec(`ALTER TABLE events ADD COLUMN workspace_id TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("migrate to v1: add column: %w", err)
		}
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_events_workspace ON events(workspace_id)`); err != nil {
		return fmt.Errorf("migrate to v1: create index: %w", err)
	}
	return nil
}

// migrateToV2 introduces the workspaces table, seeds a default
// workspace if none exists, and backfills workspace_id on events that
// lack it. One transaction: either the store ends migrated or
// untouched.
func (s *SQLite) migrateToV2() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("migrate to v2: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS workspaces (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			created_at      INTEGER NOT NULL,
			updated_at      INTEGER NOT NULL,
			locked          INTEGER NOT NULL DEFAULT 0,
			lock_test_name  TEXT NOT NULL DEFAULT '',
			lock_test_value TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v2: create table: %w", err)
	}

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM workspaces`).Scan(&count); err != nil {
		return fmt.Errorf("migrate to v2: count workspaces: %w", err)
	}

	var defaultID string
	if count == 0 {
		defaultID = s.ids.NewWorkspaceID()
		now := s.now().UnixMilli()
		_, err = tx.Exec(
			`INSERT INTO workspaces (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			defaultID, s.name, now, now,
		)
		if err != nil {
			return fmt.Errorf("migrate to v2: seed default workspace: %w", err)
		}
	} else {
		// Backfill target: the earliest existing workspace.
		err = tx.QueryRow(`SELECT id FROM workspaces ORDER BY created_at ASC, name ASC LIMIT 1`).Scan(&defaultID)
		if err != nil {
			return fmt.Errorf("migrate to v2: find backfill workspace: %w", err)
		}
	}

	if _, err := tx.Exec(`UPDATE events SET workspace_id = ? WHERE workspace_id = ''`, defaultID); err != nil {
		return fmt.Errorf("migrate to v2: backfill events: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate to v2: commit: %w", err)
	}
	return nil
}

// migrateToV3 replaces legacy name-keyed workspace primary keys with
// synthetic opaque ids, remapping every referencing event. Skippable:
// records already carrying the ws_ prefix are left alone.
func (s *SQLite) migrateToV3() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("migrate to v3: begin: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT id FROM workspaces`)
	if err != nil {
		return fmt.Errorf("migrate to v3: query workspaces: %w", err)
	}
	var legacy []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("migrate to v3: scan: %w", err)
		}
		if !ident.IsWorkspaceID(id) {
			legacy = append(legacy, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("migrate to v3: iterate: %w", err)
	}
	rows.Close()

	for _, oldID := range legacy {
		newID := s.ids.NewWorkspaceID()
		if _, err := tx.Exec(`UPDATE workspaces SET id = ? WHERE id = ?`, newID, oldID); err != nil {
			return fmt.Errorf("migrate to v3: remap workspace %q: %w", oldID, err)
		}
		if _, err := tx.Exec(`UPDATE events SET workspace_id = ? WHERE workspace_id = ?`, newID, oldID); err != nil {
			return fmt.Errorf("migrate to v3: remap events of %q: %w", oldID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate to v3: commit: %w", err)
	}
	return nil
}

func (s *SQLite) eventsHaveWorkspaceColumn() (bool, error) {
	rows, err := s.db.Query(`PRAGMA table_info(events)`)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid          int
			name, ctype  string
			notnull, pk  int
			defaultValue sql.NullString
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &defaultValue, &pk); err != nil {
			return false, err
		}
		if name == "workspace_id" {
			return true, nil
		}
	}
	return false, rows.Err()
}
