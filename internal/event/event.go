// Package event defines the domain event schema for the outliner.
//
// An Event is an immutable fact: a store-assigned sequence number, a
// kind from a closed set, a JSON payload specific to that kind, a
// strictly increasing logical timestamp, and the owning workspace id.
// The event log for a workspace, replayed in timestamp order, is the
// sole source of truth for that workspace's tree.
package event

import (
	"encoding/json"
	"fmt"
)

// Kind identifies an event variant. The set is closed: the replayer
// switches exhaustively over these values and rejects unknown kinds.
type Kind string

const (
	BulletCreated          Kind = "bullet_created"
	BulletDeleted          Kind = "bullet_deleted"
	BulletMoved            Kind = "bullet_moved"
	BulletIndented         Kind = "bullet_indented"
	BulletOutdented        Kind = "bullet_outdented"
	BulletContentUpdated   Kind = "bullet_content_updated"
	BulletContextUpdated   Kind = "bullet_context_updated"
	BulletCollapsedUpdated Kind = "bullet_collapsed_updated"
	BulletCheckedUpdated   Kind = "bullet_checked_updated"
	WorkspaceCreated       Kind = "workspace_created"
	WorkspaceRenamed       Kind = "workspace_renamed"
	WorkspaceDeleted       Kind = "workspace_deleted"
)

// Kinds lists every known kind in declaration order.
var Kinds = []Kind{
	BulletCreated,
	BulletDeleted,
	BulletMoved,
	BulletIndented,
	BulletOutdented,
	BulletContentUpdated,
	BulletContextUpdated,
	BulletCollapsedUpdated,
	BulletCheckedUpdated,
	WorkspaceCreated,
	WorkspaceRenamed,
	WorkspaceDeleted,
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsWorkspace reports whether k is a workspace metadata event.
// Workspace events are a no-op for tree projection and are never
// encrypted by the lock protocol.
func (k Kind) IsWorkspace() bool {
	switch k {
	case WorkspaceCreated, WorkspaceRenamed, WorkspaceDeleted:
		return true
	}
	return false
}

// Event is one appended fact in a workspace's log.
type Event struct {
	// Seq is the store-assigned sequence number (0 until persisted).
	Seq int64 `json:"id"`

	// WorkspaceID is the owning workspace.
	WorkspaceID string `json:"workspaceId"`

	// Kind tags the payload variant.
	Kind Kind `json:"type"`

	// Timestamp is a strictly increasing logical clock reading, in
	// milliseconds. Replay order is timestamp ascending.
	Timestamp int64 `json:"timestamp"`

	// Payload is the kind-specific JSON body. While a workspace is
	// locked, bullet event payloads are replaced with an encrypted
	// envelope (see EncryptedPayload).
	Payload json.RawMessage `json:"payload"`
}

// MarshalPayload serializes a typed payload struct for an Event.
func MarshalPayload(p any) (json.RawMessage, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return b, nil
}

// UnmarshalPayload parses an event payload into dst.
func UnmarshalPayload(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	return nil
}

// EncryptedPayload is the tagged envelope that replaces a bullet event
// payload while its workspace is locked.
type EncryptedPayload struct {
	Encrypted bool   `json:"__encrypted"`
	IV        string `json:"iv"`
	Data      string `json:"data"`
}

// IsEncrypted reports whether raw is an encrypted payload envelope.
func IsEncrypted(raw json.RawMessage) bool {
	var probe struct {
		Encrypted bool `json:"__encrypted"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return probe.Encrypted
}
