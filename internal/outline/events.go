package outline

import (
	"fmt"

	"github.com/fathom-notes/fathom/internal/event"
)

// CreationEvents renders a forest as a sequence of bullet_created
// events, depth-first, parents before children. Replaying the result
// reconstructs the same forest. Used to re-seed a workspace's event
// log after import or reset.
func CreationEvents(workspaceID string, forest []*Bullet, clock event.Source) ([]event.Event, error) {
	var events []event.Event
	var emit func(parentID string, siblings []*Bullet) error
	emit = func(parentID string, siblings []*Bullet) error {
		for i, b := range siblings {
			payload, err := event.MarshalPayload(event.CreatedPayload{
				ID:        b.ID,
				ParentID:  parentID,
				Index:     i,
				Content:   b.Content,
				Context:   b.Context,
				Collapsed: b.Collapsed,
				Checked:   b.Checked,
				CreatedAt: b.CreatedAt,
			})
			if err != nil {
				return fmt.Errorf("creation events: bullet %s: %w", b.ID, err)
			}
			events = append(events, event.Event{
				WorkspaceID: workspaceID,
				Kind:        event.BulletCreated,
				Timestamp:   clock.Next(),
				Payload:     payload,
			})
			if err := emit(b.ID, b.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := emit("", forest); err != nil {
		return nil, err
	}
	return events, nil
}
