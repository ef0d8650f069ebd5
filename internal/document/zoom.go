package document

import (
	"context"

	"github.com/fathom-notes/fathom/internal/outline"
)

// ZoomTo focuses the view on the subtree rooted at id, or back on the
// forest root when id is empty. Zooming into a childless bullet
// auto-creates one empty child so the zoomed view is never empty; the
// insertion records no history.
func (s *Store) ZoomTo(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return err
	}
	if id != "" {
		b, ok := s.index[id]
		if !ok {
			return ErrBulletNotFound
		}
		if len(b.Children) == 0 {
			s.withSuppressedHistory(func() {
				s.createBulletAt(ctx, id, 0)
			})
		}
	}
	s.zoomedID = id
	s.notify(Change{Kind: ChangeZoom, BulletID: id})
	return nil
}

// ZoomOut moves the focus one level up the breadcrumb path, landing
// on the forest root when already zoomed to a top-level bullet.
func (s *Store) ZoomOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return err
	}
	if s.zoomedID == "" {
		return nil
	}
	s.zoomedID = s.parents[s.zoomedID]
	s.notify(Change{Kind: ChangeZoom, BulletID: s.zoomedID})
	return nil
}

// ZoomedBullet returns a copy of the bullet currently zoomed into, or
// nil when viewing the root.
func (s *Store) ZoomedBullet() *outline.Bullet {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.zoomedID == "" {
		return nil
	}
	if b, ok := s.index[s.zoomedID]; ok {
		return b.Clone()
	}
	return nil
}

// Breadcrumbs returns the path of bullets from the forest root down
// to id, inclusive. An unknown id yields an empty path.
func (s *Store) Breadcrumbs(id string) []*outline.Bullet {
	s.mu.Lock()
	defer s.mu.Unlock()
	var path []*outline.Bullet
	for id != "" {
		b, ok := s.index[id]
		if !ok {
			return nil
		}
		path = append([]*outline.Bullet{b.Clone()}, path...)
		id = s.parents[id]
	}
	return path
}
