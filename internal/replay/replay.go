// Package replay reconstructs a bullet forest from an ordered event
// sequence. Project is a pure function: same events in, structurally
// identical forest out, no hidden state. It is the read side of the
// event-sourced design; the document store's in-memory tree is a cache
// of what Project would produce.
package replay

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fathom-notes/fathom/internal/event"
	"github.com/fathom-notes/fathom/internal/outline"
)

// Project replays events (already sorted by timestamp ascending) into
// a forest. A malformed event is logged and skipped; one corrupt event
// must not abort replay of the rest of the log.
func Project(events []event.Event, log zerolog.Logger) []*outline.Bullet {
	p := &projector{
		nodes:  make(map[string]*outline.Bullet),
		parent: make(map[string]string),
		roots:  []*outline.Bullet{},
	}
	for _, e := range events {
		if err := p.applySafe(e); err != nil {
			log.Warn().
				Err(err).
				Int64("seq", e.Seq).
				Str("kind", string(e.Kind)).
				Int64("timestamp", e.Timestamp).
				Msg("skipping unreplayable event")
		}
	}
	return p.roots
}

// projector holds the arena under construction: every known node by
// id, plus each node's current parent id ("" = forest root).
type projector struct {
	nodes  map[string]*outline.Bullet
	parent map[string]string
	roots  []*outline.Bullet
}

// applySafe applies one event, converting handler panics (malformed
// payloads, impossible states) into errors.
func (p *projector) applySafe(e event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("replay panic: %v", r)
		}
	}()
	return p.apply(e)
}

// apply dispatches on the event kind. The switch is exhaustive over
// event.Kinds; an unknown kind is an error, so adding a kind without a
// handler fails loudly in replay tests.
func (p *projector) apply(e event.Event) error {
	switch e.Kind {
	case event.BulletCreated:
		var pl event.CreatedPayload
		if err := event.UnmarshalPayload(e.Payload, &pl); err != nil {
			return err
		}
		return p.applyCreated(pl)

	case event.BulletDeleted:
		var pl event.DeletedPayload
		if err := event.UnmarshalPayload(e.Payload, &pl); err != nil {
			return err
		}
		p.applyDeleted(pl.ID)
		return nil

	case event.BulletMoved:
		var pl event.MovedPayload
		if err := event.UnmarshalPayload(e.Payload, &pl); err != nil {
			return err
		}
		p.applyRelocate(pl.ID, pl.ToParentID, pl.ToIndex)
		return nil

	case event.BulletIndented:
		var pl event.IndentedPayload
		if err := event.UnmarshalPayload(e.Payload, &pl); err != nil {
			return err
		}
		p.applyRelocate(pl.ID, pl.ToParentID, pl.ToIndex)
		return nil

	case event.BulletOutdented:
		var pl event.OutdentedPayload
		if err := event.UnmarshalPayload(e.Payload, &pl); err != nil {
			return err
		}
		p.applyRelocate(pl.ID, pl.ToParentID, pl.ToIndex)
		return nil

	case event.BulletContentUpdated:
		var pl event.ContentUpdatedPayload
		if err := event.UnmarshalPayload(e.Payload, &pl); err != nil {
			return err
		}
		if b, ok := p.nodes[pl.ID]; ok {
			b.Content = pl.Content
		}
		return nil

	case event.BulletContextUpdated:
		var pl event.ContextUpdatedPayload
		if err := event.UnmarshalPayload(e.Payload, &pl); err != nil {
			return err
		}
		if b, ok := p.nodes[pl.ID]; ok {
			b.Context = pl.Context
		}
		return nil

	case event.BulletCollapsedUpdated:
		var pl event.CollapsedUpdatedPayload
		if err := event.UnmarshalPayload(e.Payload, &pl); err != nil {
			return err
		}
		if b, ok := p.nodes[pl.ID]; ok {
			b.Collapsed = pl.Collapsed
		}
		return nil

	case event.BulletCheckedUpdated:
		var pl event.CheckedUpdatedPayload
		if err := event.UnmarshalPayload(e.Payload, &pl); err != nil {
			return err
		}
		if b, ok := p.nodes[pl.ID]; ok {
			b.Checked = pl.Checked
		}
		return nil

	case event.WorkspaceCreated, event.WorkspaceRenamed, event.WorkspaceDeleted:
		// Workspace metadata is not reconstructed from events.
		return nil

	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
}

// applyCreated inserts a new node. Idempotent: a duplicate id is a
// no-op, so replaying a log twice over cannot double-insert.
func (p *projector) applyCreated(pl event.CreatedPayload) error {
	if pl.ID == "" {
		return fmt.Errorf("bullet_created without id")
	}
	if _, ok := p.nodes[pl.ID]; ok {
		return nil
	}
	b := &outline.Bullet{
		ID:        pl.ID,
		Content:   pl.Content,
		Context:   pl.Context,
		Collapsed: pl.Collapsed,
		Checked:   pl.Checked,
		CreatedAt: pl.CreatedAt,
		Children:  []*outline.Bullet{},
	}
	p.nodes[pl.ID] = b
	p.insert(b, pl.ParentID, pl.Index)
	return nil
}

// applyDeleted detaches the node and purges it and all descendants
// from the arena. The subtree goes with it implicitly: children are
// nested inside the removed node.
func (p *projector) applyDeleted(id string) {
	b, ok := p.nodes[id]
	if !ok {
		return
	}
	p.detach(id)
	p.purge(b)
}

// applyRelocate is the shared replay behavior for moved, indented, and
// outdented: detach by id, insert at (toParentID, toIndex). Unknown
// ids are ignored.
func (p *projector) applyRelocate(id, toParentID string, toIndex int) {
	b, ok := p.nodes[id]
	if !ok {
		return
	}
	p.detach(id)
	p.insert(b, toParentID, toIndex)
}

// insert places b into parentID's children (or the forest root) at
// index, clamped into [0, len(siblings)]. A parent id that does not
// resolve falls back to the root, keeping the forest connected.
func (p *projector) insert(b *outline.Bullet, parentID string, index int) {
	if parentID != "" {
		if _, ok := p.nodes[parentID]; !ok {
			parentID = ""
		}
	}
	if parentID == "" {
		p.roots = insertAt(p.roots, b, index)
	} else {
		parent := p.nodes[parentID]
		parent.Children = insertAt(parent.Children, b, index)
	}
	p.parent[b.ID] = parentID
}

// detach removes the node from its current parent's children (or the
// root list) without purging it from the arena.
func (p *projector) detach(id string) {
	parentID := p.parent[id]
	if parentID == "" {
		p.roots = removeByID(p.roots, id)
	} else if parent, ok := p.nodes[parentID]; ok {
		parent.Children = removeByID(parent.Children, id)
	}
	delete(p.parent, id)
}

// purge removes b and its entire subtree from the arena maps.
func (p *projector) purge(b *outline.Bullet) {
	delete(p.nodes, b.ID)
	delete(p.parent, b.ID)
	for _, child := range b.Children {
		p.purge(child)
	}
}

func insertAt(siblings []*outline.Bullet, b *outline.Bullet, index int) []*outline.Bullet {
	if index < 0 {
		index = 0
	}
	if index > len(siblings) {
		index = len(siblings)
	}
	siblings = append(siblings, nil)
	copy(siblings[index+1:], siblings[index:])
	siblings[index] = b
	return siblings
}

func removeByID(siblings []*outline.Bullet, id string) []*outline.Bullet {
	for i, b := range siblings {
		if b.ID == id {
			return append(siblings[:i], siblings[i+1:]...)
		}
	}
	return siblings
}
