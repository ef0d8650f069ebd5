package document

import (
	"context"

	"github.com/fathom-notes/fathom/internal/event"
)

// emit appends one event to the durable store, best-effort: a failed
// append is logged and swallowed. The in-memory tree already holds the
// mutation and stays authoritative for the session; the UI never
// blocks on storage.
func (s *Store) emit(ctx context.Context, kind event.Kind, payload any) {
	s.emitTo(ctx, s.current.ID, kind, payload)
}

func (s *Store) emitTo(ctx context.Context, workspaceID string, kind event.Kind, payload any) {
	raw, err := event.MarshalPayload(payload)
	if err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Msg("event payload marshal failed")
		return
	}
	e := event.Event{
		WorkspaceID: workspaceID,
		Kind:        kind,
		Timestamp:   s.clock.Next(),
		Payload:     raw,
	}
	if _, err := s.db.AppendEvent(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Msg("event append failed, continuing in memory")
	}
}
