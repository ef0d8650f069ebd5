package document

import (
	"github.com/fathom-notes/fathom/internal/outline"
)

// SetQuery updates the active search query. An empty query clears the
// filter.
func (s *Store) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.query == query {
		return
	}
	s.query = query
	s.notify(Change{Kind: ChangeSearch})
}

// Query returns the active search query.
func (s *Store) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Matches reports whether the bullet, or any of its descendants,
// fuzzy-matches the active query. With an empty query everything
// matches.
func (s *Store) Matches(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.index[id]
	if !ok {
		return false
	}
	return s.bulletMatches(b, s.fold.String(s.query))
}

// bulletMatches walks the subtree. The caser is stateful, so calls
// stay inside the store's mutex like every other tree read.
func (s *Store) bulletMatches(b *outline.Bullet, foldedQuery string) bool {
	if foldedQuery == "" {
		return true
	}
	if fuzzyMatch(s.fold.String(b.Content), foldedQuery) ||
		fuzzyMatch(s.fold.String(b.Context), foldedQuery) {
		return true
	}
	for _, child := range b.Children {
		if s.bulletMatches(child, foldedQuery) {
			return true
		}
	}
	return false
}

// fuzzyMatch reports whether every rune of query appears in text in
// order, not necessarily contiguously. Both inputs are case-folded by
// the caller.
func fuzzyMatch(text, query string) bool {
	runes := []rune(text)
	i := 0
	for _, q := range query {
		for i < len(runes) && runes[i] != q {
			i++
		}
		if i == len(runes) {
			return false
		}
		i++
	}
	return true
}

// Bullets returns a deep copy of the full forest.
func (s *Store) Bullets() []*outline.Bullet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return outline.CloneForest(s.roots)
}

// FilteredBullets returns copies of the current zoom level's direct
// children, keeping only subtrees that match the active query. Search
// prunes the level; it never flattens descendants into the list.
func (s *Store) FilteredBullets() []*outline.Bullet {
	s.mu.Lock()
	defer s.mu.Unlock()
	level := s.levelChildren(s.zoomedID)
	foldedQuery := s.fold.String(s.query)
	out := make([]*outline.Bullet, 0, len(level))
	for _, b := range level {
		if s.bulletMatches(b, foldedQuery) {
			out = append(out, b.Clone())
		}
	}
	return out
}
