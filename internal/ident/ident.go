// Package ident generates collision-resistant, prefixed identifiers for
// workspaces and bullets.
//
// Identifiers are UUIDv7 strings with a short type prefix, e.g.
// "ws_0190... " for workspaces and "blt_0190..." for bullets. UUIDv7
// embeds a timestamp in the most significant bits, making ids sortable
// by creation time, which is helpful when eyeballing event logs.
package ident

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Prefixes for the two identifier families.
const (
	WorkspacePrefix = "ws"
	BulletPrefix    = "blt"
)

// Generator produces workspace and bullet identifiers.
// Implemented by UUIDGenerator (production) and Fixed (tests).
type Generator interface {
	NewWorkspaceID() string
	NewBulletID() string
}

// UUIDGenerator generates prefixed UUIDv7 identifiers.
//
// Thread-safety: UUIDGenerator is stateless and safe for concurrent use.
type UUIDGenerator struct{}

// NewWorkspaceID returns a fresh workspace id ("ws_<uuidv7>").
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDGenerator) NewWorkspaceID() string {
	return WorkspacePrefix + "_" + uuid.Must(uuid.NewV7()).String()
}

// NewBulletID returns a fresh bullet id ("blt_<uuidv7>").
func (UUIDGenerator) NewBulletID() string {
	return BulletPrefix + "_" + uuid.Must(uuid.NewV7()).String()
}

// IsWorkspaceID reports whether id carries the workspace prefix.
// Used by schema migration to detect legacy name-keyed records.
func IsWorkspaceID(id string) bool {
	return strings.HasPrefix(id, WorkspacePrefix+"_")
}

// Fixed returns predetermined identifiers for testing.
//
// This enables deterministic test execution and golden comparison.
// Tests provide a known sequence of ids and verify exact output.
//
// Thread-safety: Fixed is safe for concurrent use via internal mutex.
type Fixed struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixed creates a generator that returns ids in order.
//
// Example:
//
//	gen := ident.NewFixed("blt_1", "blt_2")
//	gen.NewBulletID() // "blt_1"
//	gen.NewBulletID() // "blt_2"
//	gen.NewBulletID() // panic: all ids exhausted
func NewFixed(ids ...string) *Fixed {
	return &Fixed{ids: ids}
}

// NewWorkspaceID returns the next predetermined id.
func (f *Fixed) NewWorkspaceID() string { return f.next() }

// NewBulletID returns the next predetermined id.
func (f *Fixed) NewBulletID() string { return f.next() }

// next returns the next id. Panics when the sequence is exhausted:
// a test consuming more ids than it declared is a test bug.
func (f *Fixed) next() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.idx >= len(f.ids) {
		panic("ident: fixed generator exhausted")
	}
	id := f.ids[f.idx]
	f.idx++
	return id
}
