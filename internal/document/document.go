// Package document holds the authoritative in-memory forest for the
// currently loaded workspace and the full command surface over it:
// create/delete/move/indent/outdent/zoom/search/undo-redo, workspace
// lifecycle, import/export, and locking.
//
// Every mutating command applies its change to the in-memory tree
// synchronously, appends the corresponding event(s) to the durable
// store best-effort, and pushes a history snapshot. The tree is a
// cache of the event log: on load it is rebuilt by replaying the
// workspace's events, and a lost append costs at most one operation
// of durability, never a wedged session.
package document

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"

	"github.com/fathom-notes/fathom/internal/event"
	"github.com/fathom-notes/fathom/internal/ident"
	"github.com/fathom-notes/fathom/internal/lock"
	"github.com/fathom-notes/fathom/internal/outline"
	"github.com/fathom-notes/fathom/internal/store"
)

// ErrBulletNotFound reports a bullet id absent from the loaded tree.
var ErrBulletNotFound = errors.New("bullet not found")

// ErrWorkspaceLocked reports a mutation attempted while the current
// workspace is locked. The tree is hidden and empty in that state.
var ErrWorkspaceLocked = errors.New("workspace is locked")

// ErrNotReady reports a command issued before Init completed.
var ErrNotReady = errors.New("document store not initialized")

// ErrInvalidImport reports an import document without a bullets array.
var ErrInvalidImport = errors.New("invalid import document")

// ErrInvalidMove reports a move that would make a bullet its own
// ancestor.
var ErrInvalidMove = errors.New("cannot move a bullet into its own subtree")

// State tracks the workspace lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateBootstrapping
	StateReady
)

// DefaultHistoryLimit bounds the undo/redo stack.
const DefaultHistoryLimit = 100

// ChangeKind classifies notifications to the rendering layer.
type ChangeKind string

const (
	ChangeTree      ChangeKind = "tree"
	ChangeZoom      ChangeKind = "zoom"
	ChangeSearch    ChangeKind = "search"
	ChangeWorkspace ChangeKind = "workspace"
	ChangeLock      ChangeKind = "lock"
)

// Change describes one committed mutation for subscribers. BulletID is
// set for tree changes that center on a single bullet.
type Change struct {
	Kind     ChangeKind
	BulletID string
}

// Deps are the injected collaborators. Store and Locker are required;
// the rest default sensibly.
type Deps struct {
	Store  store.Store
	Locker *lock.Manager
	IDs    ident.Generator
	Clock  event.Source
	Now    func() time.Time
	Logger zerolog.Logger

	// DefaultWorkspaceName names the workspace bootstrapped when the
	// store has none. Defaults to "Home".
	DefaultWorkspaceName string

	// HistoryLimit bounds the undo stack. Defaults to
	// DefaultHistoryLimit.
	HistoryLimit int
}

// Store is the document engine. All state lives on the instance;
// there is no package-level state. Methods are safe for concurrent
// use via a single mutex, but callers are expected not to overlap
// whole-workspace operations (lock/unlock/import/reset) against the
// same workspace.
type Store struct {
	mu sync.Mutex

	db     store.Store
	locker *lock.Manager
	ids    ident.Generator
	clock  event.Source
	now    func() time.Time
	log    zerolog.Logger

	defaultName  string
	historyLimit int

	state       State
	workspaces  []store.Workspace
	current     store.Workspace
	lockedView  bool
	roots       []*outline.Bullet
	index       map[string]*outline.Bullet
	parents     map[string]string
	zoomedID    string
	query       string
	fold        cases.Caser
	history     []snapshot
	cursor      int
	suppression int

	subsMu  sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// New wires a document store. Call Init before issuing commands.
func New(d Deps) *Store {
	if d.IDs == nil {
		d.IDs = ident.UUIDGenerator{}
	}
	if d.Clock == nil {
		d.Clock = event.NewClock()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.DefaultWorkspaceName == "" {
		d.DefaultWorkspaceName = "Home"
	}
	if d.HistoryLimit <= 0 {
		d.HistoryLimit = DefaultHistoryLimit
	}
	return &Store{
		db:           d.Store,
		locker:       d.Locker,
		ids:          d.IDs,
		clock:        d.Clock,
		now:          d.Now,
		log:          d.Logger,
		defaultName:  d.DefaultWorkspaceName,
		historyLimit: d.HistoryLimit,
		fold:         cases.Fold(),
		index:        map[string]*outline.Bullet{},
		parents:      map[string]string{},
		subs:         map[int]func(Change){},
	}
}

// State returns the lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// WorkspaceLocked reports whether the current workspace is locked
// (tree hidden, mutations blocked).
func (s *Store) WorkspaceLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lockedView
}

// Subscribe registers a change listener and returns its unsubscribe
// function. Listeners run synchronously on the mutating goroutine
// while the store's lock is held: they may call their own unsubscribe
// func, but must not call back into any other Store method.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

// notify fans a change out to subscribers. Caller holds the store
// mutex. The list is snapshotted so a listener can unsubscribe during
// delivery.
func (s *Store) notify(c Change) {
	s.subsMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

// ensureMutable gates mutating commands. Caller holds the mutex.
func (s *Store) ensureMutable() error {
	if s.state != StateReady {
		return ErrNotReady
	}
	if s.lockedView {
		return ErrWorkspaceLocked
	}
	return nil
}

// nowMillis is the wall-clock creation timestamp for new bullets.
// Event ordering uses the logical clock, never this.
func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}
