// Package outline defines the Bullet tree shared by the projection
// engine, the document store, and import/export.
package outline

// Bullet is one outline node. Children order is meaningful: the slice
// index is the sibling index. A bullet has exactly one parent (or sits
// at the forest root) at any time; mutation code must detach a bullet
// from its old parent before reattaching it elsewhere.
type Bullet struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Context   string    `json:"context"`
	Collapsed bool      `json:"collapsed"`
	Checked   bool      `json:"checked"`
	CreatedAt int64     `json:"createdAt"`
	Children  []*Bullet `json:"children"`
}

// Clone deep-copies the bullet and its subtree.
func (b *Bullet) Clone() *Bullet {
	if b == nil {
		return nil
	}
	c := *b
	c.Children = CloneForest(b.Children)
	return &c
}

// CloneForest deep-copies a forest. Returns a non-nil empty slice for
// empty input so snapshots always marshal as [].
func CloneForest(forest []*Bullet) []*Bullet {
	out := make([]*Bullet, len(forest))
	for i, b := range forest {
		out[i] = b.Clone()
	}
	return out
}

// Walk visits every bullet in the forest depth-first, parents before
// children. Returning false from fn stops the walk.
func Walk(forest []*Bullet, fn func(b *Bullet) bool) bool {
	for _, b := range forest {
		if !fn(b) {
			return false
		}
		if !Walk(b.Children, fn) {
			return false
		}
	}
	return true
}

// Find returns the bullet with the given id, or nil.
func Find(forest []*Bullet, id string) *Bullet {
	var found *Bullet
	Walk(forest, func(b *Bullet) bool {
		if b.ID == id {
			found = b
			return false
		}
		return true
	})
	return found
}

// Count returns the total number of bullets in the forest.
func Count(forest []*Bullet) int {
	n := 0
	Walk(forest, func(*Bullet) bool { n++; return true })
	return n
}

// Equal reports structural equality of two forests: same ids, fields,
// and child order throughout.
func Equal(a, b []*Bullet) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.ID != y.ID || x.Content != y.Content || x.Context != y.Context ||
			x.Collapsed != y.Collapsed || x.Checked != y.Checked || x.CreatedAt != y.CreatedAt {
			return false
		}
		if !Equal(x.Children, y.Children) {
			return false
		}
	}
	return true
}
