package document

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fathom-notes/fathom/internal/outline"
)

// ExportDocument is the versionless JSON interchange shape. Legacy
// files may lack workspaceId and exportedAt; import tolerates both.
type ExportDocument struct {
	Bullets        []*outline.Bullet `json:"bullets"`
	ZoomedBulletID string            `json:"zoomedBulletId,omitempty"`
	WorkspaceID    string            `json:"workspaceId,omitempty"`
	ExportedAt     string            `json:"exportedAt,omitempty"`
}

// Export serializes the full forest and zoom state of the current
// workspace.
func (s *Store) Export() (ExportDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return ExportDocument{}, ErrNotReady
	}
	if s.lockedView {
		return ExportDocument{}, ErrWorkspaceLocked
	}
	return ExportDocument{
		Bullets:        outline.CloneForest(s.roots),
		ZoomedBulletID: s.zoomedID,
		WorkspaceID:    s.current.ID,
		ExportedAt:     s.now().UTC().Format(time.RFC3339),
	}, nil
}

// Import replaces the current workspace's entire tree with the
// document's bullets, normalizing missing fields, and re-seeds the
// durable event log with synthetic creation events. History is reset;
// the re-seed is best-effort while shape validation is not.
func (s *Store) Import(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return err
	}

	var doc struct {
		Bullets        json.RawMessage `json:"bullets"`
		ZoomedBulletID string          `json:"zoomedBulletId"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if len(doc.Bullets) == 0 {
		return fmt.Errorf("%w: missing bullets array", ErrInvalidImport)
	}
	var bullets []*outline.Bullet
	if err := json.Unmarshal(doc.Bullets, &bullets); err != nil {
		return fmt.Errorf("%w: bullets is not an array of bullets: %v", ErrInvalidImport, err)
	}

	s.roots = outline.Normalize(bullets, s.ids, s.nowMillis())
	s.reindex()
	s.zoomedID = ""
	if _, ok := s.index[doc.ZoomedBulletID]; ok {
		s.zoomedID = doc.ZoomedBulletID
	}
	s.query = ""
	s.resetHistory()

	events, err := outline.CreationEvents(s.current.ID, s.roots, s.clock)
	if err != nil {
		s.log.Warn().Err(err).Str("workspace", s.current.ID).Msg("import reseed skipped")
	} else if err := s.db.ReplaceWorkspaceEvents(ctx, s.current.ID, events); err != nil {
		s.log.Warn().Err(err).Str("workspace", s.current.ID).Msg("import reseed failed")
	}

	s.notify(Change{Kind: ChangeTree})
	s.notify(Change{Kind: ChangeZoom, BulletID: s.zoomedID})
	return nil
}
