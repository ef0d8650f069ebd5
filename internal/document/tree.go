package document

import (
	"github.com/fathom-notes/fathom/internal/outline"
)

// The in-memory tree is an arena: nested Bullet nodes plus two id
// maps (node index, parent edges) rebuilt together. Every relocation
// goes detach-then-insert, so a bullet can never appear under two
// parents.

// reindex rebuilds the id maps from the forest. Caller holds the
// mutex.
func (s *Store) reindex() {
	s.index = map[string]*outline.Bullet{}
	s.parents = map[string]string{}
	var walk func(parentID string, siblings []*outline.Bullet)
	walk = func(parentID string, siblings []*outline.Bullet) {
		for _, b := range siblings {
			s.index[b.ID] = b
			s.parents[b.ID] = parentID
			walk(b.ID, b.Children)
		}
	}
	walk("", s.roots)
}

// siblingsOf returns the sibling list containing id and id's position
// in it. ok is false when the id is unknown.
func (s *Store) siblingsOf(id string) (siblings []*outline.Bullet, idx int, ok bool) {
	parentID, known := s.parents[id]
	if !known {
		return nil, 0, false
	}
	siblings = s.levelChildren(parentID)
	for i, b := range siblings {
		if b.ID == id {
			return siblings, i, true
		}
	}
	return nil, 0, false
}

// levelChildren returns the child list of parentID ("" = forest root).
func (s *Store) levelChildren(parentID string) []*outline.Bullet {
	if parentID == "" {
		return s.roots
	}
	if parent, ok := s.index[parentID]; ok {
		return parent.Children
	}
	return nil
}

// setLevelChildren writes back a sibling list after mutation.
func (s *Store) setLevelChildren(parentID string, siblings []*outline.Bullet) {
	if parentID == "" {
		s.roots = siblings
		return
	}
	if parent, ok := s.index[parentID]; ok {
		parent.Children = siblings
	}
}

// detach removes the node from its parent's child list, returning the
// node and where it was. The node stays in the index maps until
// reinserted or purged.
func (s *Store) detach(id string) (b *outline.Bullet, fromParent string, fromIndex int, ok bool) {
	b, known := s.index[id]
	if !known {
		return nil, "", 0, false
	}
	siblings, idx, found := s.siblingsOf(id)
	if !found {
		return nil, "", 0, false
	}
	fromParent = s.parents[id]
	s.setLevelChildren(fromParent, append(siblings[:idx], siblings[idx+1:]...))
	return b, fromParent, idx, true
}

// insert places b at (parentID, index), clamping index into the valid
// range, and records the parent edge.
func (s *Store) insert(b *outline.Bullet, parentID string, index int) int {
	siblings := s.levelChildren(parentID)
	if index < 0 {
		index = 0
	}
	if index > len(siblings) {
		index = len(siblings)
	}
	siblings = append(siblings, nil)
	copy(siblings[index+1:], siblings[index:])
	siblings[index] = b
	s.setLevelChildren(parentID, siblings)
	s.index[b.ID] = b
	s.parents[b.ID] = parentID
	return index
}

// purge drops b and its subtree from the index maps.
func (s *Store) purge(b *outline.Bullet) {
	delete(s.index, b.ID)
	delete(s.parents, b.ID)
	for _, child := range b.Children {
		s.purge(child)
	}
}

// isDescendant reports whether candidate is inside the subtree rooted
// at ancestorID (or is the ancestor itself).
func (s *Store) isDescendant(ancestorID, candidate string) bool {
	for candidate != "" {
		if candidate == ancestorID {
			return true
		}
		candidate = s.parents[candidate]
	}
	return false
}

// deepestVisibleDescendant follows last children while they are
// expanded. A collapsed bullet hides its subtree, so it is its own
// deepest visible node.
func (s *Store) deepestVisibleDescendant(b *outline.Bullet) *outline.Bullet {
	for len(b.Children) > 0 && !b.Collapsed {
		b = b.Children[len(b.Children)-1]
	}
	return b
}
