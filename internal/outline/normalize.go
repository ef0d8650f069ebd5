package outline

import (
	"github.com/fathom-notes/fathom/internal/ident"
)

// Normalize coerces an imported forest into canonical form: bullets
// with no id get a fresh one, missing timestamps become now, and nil
// children become empty slices. Missing strings and booleans already
// land on their zero values during JSON decoding; this pass makes the
// remaining defaults explicit so the rest of the engine never sees a
// half-formed bullet.
func Normalize(forest []*Bullet, ids ident.Generator, now int64) []*Bullet {
	if forest == nil {
		forest = []*Bullet{}
	}
	for _, b := range forest {
		if b.ID == "" {
			b.ID = ids.NewBulletID()
		}
		if b.CreatedAt == 0 {
			b.CreatedAt = now
		}
		b.Children = Normalize(b.Children, ids, now)
	}
	return forest
}
