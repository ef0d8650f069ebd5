package document

import (
	"context"

	"github.com/fathom-notes/fathom/internal/event"
	"github.com/fathom-notes/fathom/internal/outline"
)

// DeleteResult reports the outcome of a delete request.
type DeleteResult struct {
	// Deleted is false when the request was refused pending
	// confirmation.
	Deleted bool

	// NeedsConfirmation is set when the bullet has children and the
	// caller did not skip confirmation. Nothing was mutated.
	NeedsConfirmation bool

	// FocusID names the bullet that should receive input focus after
	// the deletion, or "" when no candidate exists.
	FocusID string
}

// CreateAndInsertBullet makes a new empty bullet. With asChild it
// becomes the first child of afterID, otherwise the sibling directly
// after it. An empty afterID appends at the end of the current zoom
// level. Returns the new bullet's id.
func (s *Store) CreateAndInsertBullet(ctx context.Context, afterID string, asChild bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return "", err
	}

	parentID := s.zoomedID
	index := len(s.levelChildren(parentID))
	if afterID != "" {
		after, ok := s.index[afterID]
		if !ok {
			return "", ErrBulletNotFound
		}
		if asChild {
			parentID = after.ID
			index = 0
		} else {
			_, idx, found := s.siblingsOf(afterID)
			if !found {
				return "", ErrBulletNotFound
			}
			parentID = s.parents[afterID]
			index = idx + 1
		}
	}

	b := s.createBulletAt(ctx, parentID, index)
	s.pushHistory()
	s.notify(Change{Kind: ChangeTree, BulletID: b.ID})
	return b.ID, nil
}

// createBulletAt inserts a fresh empty bullet and emits its creation
// event. Caller holds the mutex and has pushed history (or suppressed
// it).
func (s *Store) createBulletAt(ctx context.Context, parentID string, index int) *outline.Bullet {
	b := &outline.Bullet{
		ID:        s.ids.NewBulletID(),
		CreatedAt: s.nowMillis(),
		Children:  []*outline.Bullet{},
	}
	at := s.insert(b, parentID, index)
	s.emit(ctx, event.BulletCreated, event.CreatedPayload{
		ID:        b.ID,
		ParentID:  parentID,
		Index:     at,
		CreatedAt: b.CreatedAt,
	})
	return b
}

// UpdateContent overwrites a bullet's text.
func (s *Store) UpdateContent(ctx context.Context, id, content string) error {
	return s.updateField(ctx, id, func(b *outline.Bullet) {
		b.Content = content
	}, event.BulletContentUpdated, event.ContentUpdatedPayload{ID: id, Content: content})
}

// UpdateContext overwrites a bullet's note.
func (s *Store) UpdateContext(ctx context.Context, id, note string) error {
	return s.updateField(ctx, id, func(b *outline.Bullet) {
		b.Context = note
	}, event.BulletContextUpdated, event.ContextUpdatedPayload{ID: id, Context: note})
}

// SetCollapsed sets a bullet's collapse flag.
func (s *Store) SetCollapsed(ctx context.Context, id string, collapsed bool) error {
	return s.updateField(ctx, id, func(b *outline.Bullet) {
		b.Collapsed = collapsed
	}, event.BulletCollapsedUpdated, event.CollapsedUpdatedPayload{ID: id, Collapsed: collapsed})
}

// SetChecked sets a bullet's task-completion flag.
func (s *Store) SetChecked(ctx context.Context, id string, checked bool) error {
	return s.updateField(ctx, id, func(b *outline.Bullet) {
		b.Checked = checked
	}, event.BulletCheckedUpdated, event.CheckedUpdatedPayload{ID: id, Checked: checked})
}

func (s *Store) updateField(ctx context.Context, id string, apply func(*outline.Bullet), kind event.Kind, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return err
	}
	b, ok := s.index[id]
	if !ok {
		return ErrBulletNotFound
	}
	apply(b)
	s.pushHistory()
	s.emit(ctx, kind, payload)
	s.notify(Change{Kind: ChangeTree, BulletID: id})
	return nil
}

// Indent makes the bullet the last child of its immediately preceding
// sibling. Returns false without mutating when the bullet has no
// predecessor.
func (s *Store) Indent(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return false, err
	}
	siblings, idx, ok := s.siblingsOf(id)
	if !ok {
		return false, ErrBulletNotFound
	}
	if idx == 0 {
		return false, nil
	}
	newParent := siblings[idx-1]

	b, _, _, _ := s.detach(id)
	at := s.insert(b, newParent.ID, len(newParent.Children))
	s.pushHistory()
	s.emit(ctx, event.BulletIndented, event.IndentedPayload{
		ID:         id,
		ToParentID: newParent.ID,
		ToIndex:    at,
	})
	s.notify(Change{Kind: ChangeTree, BulletID: id})
	return true, nil
}

// Outdent makes the bullet the sibling immediately following its
// current parent. Returns false without mutating when the bullet is
// already at the top level.
func (s *Store) Outdent(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return false, err
	}
	if _, ok := s.index[id]; !ok {
		return false, ErrBulletNotFound
	}
	parentID := s.parents[id]
	if parentID == "" {
		return false, nil
	}
	grandparentID := s.parents[parentID]
	_, parentIdx, ok := s.siblingsOf(parentID)
	if !ok {
		return false, nil
	}

	b, _, _, _ := s.detach(id)
	at := s.insert(b, grandparentID, parentIdx+1)
	s.pushHistory()
	s.emit(ctx, event.BulletOutdented, event.OutdentedPayload{
		ID:         id,
		ToParentID: grandparentID,
		ToIndex:    at,
	})
	s.notify(Change{Kind: ChangeTree, BulletID: id})
	return true, nil
}

// MoveUp swaps the bullet with its previous sibling. No-op at the top
// of the sibling list.
func (s *Store) MoveUp(ctx context.Context, id string) (bool, error) {
	return s.swap(ctx, id, -1)
}

// MoveDown swaps the bullet with its next sibling. No-op at the
// bottom of the sibling list.
func (s *Store) MoveDown(ctx context.Context, id string) (bool, error) {
	return s.swap(ctx, id, +1)
}

func (s *Store) swap(ctx context.Context, id string, delta int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return false, err
	}
	siblings, idx, ok := s.siblingsOf(id)
	if !ok {
		return false, ErrBulletNotFound
	}
	target := idx + delta
	if target < 0 || target >= len(siblings) {
		return false, nil
	}
	parentID := s.parents[id]

	b, _, _, _ := s.detach(id)
	at := s.insert(b, parentID, target)
	s.pushHistory()
	s.emit(ctx, event.BulletMoved, event.MovedPayload{
		ID:         id,
		ToParentID: parentID,
		ToIndex:    at,
	})
	s.notify(Change{Kind: ChangeTree, BulletID: id})
	return true, nil
}

// Move relocates a bullet to (toParentID, toIndex). An empty
// toParentID targets the forest root. Moving a bullet into itself or
// into one of its descendants is refused.
func (s *Store) Move(ctx context.Context, id, toParentID string, toIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return err
	}
	if _, ok := s.index[id]; !ok {
		return ErrBulletNotFound
	}
	if toParentID != "" {
		if _, ok := s.index[toParentID]; !ok {
			return ErrBulletNotFound
		}
		if id == toParentID || s.isDescendant(id, toParentID) {
			return ErrInvalidMove
		}
	}

	b, _, _, _ := s.detach(id)
	at := s.insert(b, toParentID, toIndex)
	s.pushHistory()
	s.emit(ctx, event.BulletMoved, event.MovedPayload{
		ID:         id,
		ToParentID: toParentID,
		ToIndex:    at,
	})
	s.notify(Change{Kind: ChangeTree, BulletID: id})
	return nil
}

// Delete removes a bullet and its subtree. A bullet with children is
// only removed when skipConfirmation is set; otherwise the call
// returns NeedsConfirmation without mutating. Deleting the last
// bullet at the current zoom level auto-creates one fresh empty
// bullet so the view is never empty.
func (s *Store) Delete(ctx context.Context, id string, skipConfirmation bool) (DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return DeleteResult{}, err
	}
	b, ok := s.index[id]
	if !ok {
		return DeleteResult{}, ErrBulletNotFound
	}
	if len(b.Children) > 0 && !skipConfirmation {
		return DeleteResult{NeedsConfirmation: true}, nil
	}

	removed, fromParent, fromIndex, _ := s.detach(id)
	s.purge(removed)
	s.emit(ctx, event.BulletDeleted, event.DeletedPayload{ID: id})

	// Deleting the zoomed bullet, or an ancestor of it, purges the
	// zoom target. Retarget the zoom to the deleted node's parent
	// before picking the replacement so the new bullet lands on a
	// level that still exists.
	zoomMoved := false
	if _, ok := s.index[s.zoomedID]; s.zoomedID != "" && !ok {
		s.zoomedID = fromParent
		zoomMoved = true
	}

	// The auto-created replacement belongs to the same undo step as
	// the delete, so the snapshot lands after both.
	focus := s.focusAfterDelete(ctx, fromParent, fromIndex)
	s.pushHistory()
	if zoomMoved {
		s.notify(Change{Kind: ChangeZoom, BulletID: s.zoomedID})
	}
	s.notify(Change{Kind: ChangeTree, BulletID: focus})
	return DeleteResult{Deleted: true, FocusID: focus}, nil
}

// focusAfterDelete picks the bullet to focus after removing the node
// at (fromParent, fromIndex): auto-created replacement, then parent,
// then previous sibling's deepest visible descendant, then the next
// sibling at that level. Caller holds the mutex.
func (s *Store) focusAfterDelete(ctx context.Context, fromParent string, fromIndex int) string {
	if len(s.levelChildren(s.zoomedID)) == 0 {
		var replacement *outline.Bullet
		s.withSuppressedHistory(func() {
			replacement = s.createBulletAt(ctx, s.zoomedID, 0)
		})
		return replacement.ID
	}

	siblings := s.levelChildren(fromParent)
	if fromIndex == 0 {
		if fromParent != "" {
			return fromParent
		}
		if len(siblings) > 0 {
			return siblings[0].ID
		}
		return ""
	}
	prev := siblings[fromIndex-1]
	return s.deepestVisibleDescendant(prev).ID
}
