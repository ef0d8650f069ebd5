package document

import (
	"github.com/fathom-notes/fathom/internal/outline"
)

// snapshot is one undo/redo entry: a deep copy of the forest plus the
// zoom focus. Snapshots are never persisted; the stack resets on every
// workspace (re)load.
type snapshot struct {
	roots    []*outline.Bullet
	zoomedID string
}

// resetHistory discards the stack and records the current state as the
// sole entry. Caller holds the mutex.
func (s *Store) resetHistory() {
	s.history = []snapshot{{roots: outline.CloneForest(s.roots), zoomedID: s.zoomedID}}
	s.cursor = 0
}

// pushHistory records the current state. A new mutation after undos
// discards the redo tail. The stack is bounded: the oldest entry falls
// off first. Suppressed while programmatic insertions are in flight.
// Caller holds the mutex.
func (s *Store) pushHistory() {
	if s.suppression > 0 {
		return
	}
	s.history = append(s.history[:s.cursor+1], snapshot{
		roots:    outline.CloneForest(s.roots),
		zoomedID: s.zoomedID,
	})
	if len(s.history) > s.historyLimit {
		s.history = s.history[1:]
	}
	s.cursor = len(s.history) - 1
}

// withSuppressedHistory runs fn without recording snapshots. Depth-
// counted so nested programmatic insertions stay suppressed.
func (s *Store) withSuppressedHistory(fn func()) {
	s.suppression++
	fn()
	s.suppression--
}

// CanUndo reports whether an earlier snapshot exists.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor > 0
}

// CanRedo reports whether a later snapshot exists.
func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor < len(s.history)-1
}

// Undo steps the cursor back and restores that snapshot. Pure view
// operation: no events are emitted. Returns false at the bottom of the
// stack.
func (s *Store) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady || s.lockedView || s.cursor <= 0 {
		return false
	}
	s.cursor--
	s.restoreSnapshot()
	return true
}

// Redo steps the cursor forward. Returns false at the top.
func (s *Store) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady || s.lockedView || s.cursor >= len(s.history)-1 {
		return false
	}
	s.cursor++
	s.restoreSnapshot()
	return true
}

// restoreSnapshot replaces tree and zoom from the cursor position.
// Clones on the way out so later mutations cannot corrupt the stack.
func (s *Store) restoreSnapshot() {
	snap := s.history[s.cursor]
	s.roots = outline.CloneForest(snap.roots)
	s.zoomedID = snap.zoomedID
	s.reindex()
	if _, ok := s.index[s.zoomedID]; s.zoomedID != "" && !ok {
		s.zoomedID = ""
	}
	s.notify(Change{Kind: ChangeTree})
	s.notify(Change{Kind: ChangeZoom, BulletID: s.zoomedID})
}
