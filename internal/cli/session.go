package cli

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fathom-notes/fathom/internal/config"
	"github.com/fathom-notes/fathom/internal/cryptobox"
	"github.com/fathom-notes/fathom/internal/document"
	"github.com/fathom-notes/fathom/internal/ident"
	"github.com/fathom-notes/fathom/internal/lock"
	"github.com/fathom-notes/fathom/internal/store"
)

// session wires one command invocation: config, logger, durable
// store, and the document engine. When the database cannot be opened
// the session degrades to an in-memory store so read-style commands
// still work; the degradation is logged, never silent.
type session struct {
	cfg     config.Config
	log     zerolog.Logger
	doc     *document.Store
	db      store.Store
	closeFn func() error
}

func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	log := cfg.NewLogger(cmd.ErrOrStderr())

	db, closeFn := openStore(cfg, log)
	doc := document.New(document.Deps{
		Store:                db,
		Locker:               lock.NewManager(db, cryptobox.New(), log),
		Logger:               log,
		DefaultWorkspaceName: cfg.DefaultWorkspace,
		HistoryLimit:         cfg.HistoryLimit,
	})
	if err := doc.Init(cmd.Context()); err != nil {
		_ = closeFn()
		return nil, WrapExitError(ExitCommandError, "failed to initialize document store", err)
	}
	return &session{cfg: cfg, log: log, doc: doc, db: db, closeFn: closeFn}, nil
}

func openStore(cfg config.Config, log zerolog.Logger) (store.Store, func() error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		log.Warn().Err(err).Str("dir", cfg.DataDir).
			Msg("data dir unavailable, running in memory for this session")
		return store.NewMemory(ident.UUIDGenerator{}, time.Now), func() error { return nil }
	}
	sq, err := store.Open(cfg.DatabasePath(), store.Options{
		Logger:               log,
		DefaultWorkspaceName: cfg.DefaultWorkspace,
	})
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.DatabasePath()).
			Msg("database unavailable, running in memory for this session")
		return store.NewMemory(ident.UUIDGenerator{}, time.Now), func() error { return nil }
	}
	return sq, sq.Close
}

func (s *session) Close() {
	if err := s.closeFn(); err != nil {
		s.log.Warn().Err(err).Msg("store close failed")
	}
}

// selectWorkspace switches to the given workspace when id is set.
func (s *session) selectWorkspace(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.doc.LoadWorkspace(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NewExitError(ExitCommandError, "workspace not found: "+id)
		}
		return WrapExitError(ExitCommandError, "failed to load workspace", err)
	}
	return nil
}

// newFormatter builds the output formatter for a command.
func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

// domainExit maps engine errors onto exit-coded CLI errors.
func domainExit(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, document.ErrWorkspaceLocked):
		return WrapExitError(ExitFailure, "workspace is locked", err)
	case errors.Is(err, document.ErrBulletNotFound):
		return WrapExitError(ExitCommandError, "bullet not found", err)
	case errors.Is(err, document.ErrInvalidMove):
		return WrapExitError(ExitCommandError, "cannot move a bullet into its own subtree", err)
	case errors.Is(err, document.ErrInvalidImport):
		return WrapExitError(ExitCommandError, "invalid import document", err)
	case errors.Is(err, store.ErrNotFound):
		return WrapExitError(ExitCommandError, "workspace not found", err)
	case errors.Is(err, store.ErrNameRequired):
		return WrapExitError(ExitCommandError, "workspace name required", err)
	case errors.Is(err, lock.ErrPasswordRequired):
		return WrapExitError(ExitCommandError, "password required", err)
	case errors.Is(err, lock.ErrUnlockFailed):
		return WrapExitError(ExitFailure, "unlock failed", err)
	default:
		return WrapExitError(ExitFailure, "command failed", err)
	}
}
