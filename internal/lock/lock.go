// Package lock implements the workspace lock protocol: transforming a
// workspace's entire event history between plaintext and
// encrypted-payload form under a password-derived key.
//
// The transform is all-or-nothing. Both directions build the full
// replacement history in memory first and write it back with a single
// ReplaceWorkspaceEvents transaction, so a failure partway through can
// never leave some events encrypted and others not.
package lock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fathom-notes/fathom/internal/cryptobox"
	"github.com/fathom-notes/fathom/internal/event"
	"github.com/fathom-notes/fathom/internal/store"
)

var (
	// ErrPasswordRequired reports an empty password.
	ErrPasswordRequired = errors.New("password required")

	// ErrUnlockFailed covers wrong password and corrupted lock data
	// alike. The two are deliberately indistinguishable to the caller;
	// the distinction is logged internally.
	ErrUnlockFailed = errors.New("unlock failed")

	// ErrLockMetadataMissing reports a locked workspace whose
	// verification fields are absent or partial.
	ErrLockMetadataMissing = errors.New("lock metadata missing")
)

// Manager runs the protocol against a store with a crypto provider.
type Manager struct {
	store store.Store
	box   cryptobox.Provider
	log   zerolog.Logger
}

// NewManager wires the protocol to its collaborators.
func NewManager(s store.Store, box cryptobox.Provider, log zerolog.Logger) *Manager {
	return &Manager{store: s, box: box, log: log}
}

// Lock encrypts the workspace's event payloads under password and
// marks the record locked. No-op if already locked. workspace_* events
// are left in plaintext: metadata events are never encrypted.
func (m *Manager) Lock(ctx context.Context, workspaceID, password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrPasswordRequired
	}
	ws, err := m.store.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("lock: %w", err)
	}
	if ws.Locked {
		return nil
	}

	events, err := m.store.WorkspaceEvents(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("lock: read events: %w", err)
	}

	salt, err := m.box.RandomBytes(cryptobox.SaltSize)
	if err != nil {
		return fmt.Errorf("lock: %w: %v", store.ErrUnavailable, err)
	}
	key := m.box.DeriveKey(password, salt)

	tokenBytes, err := m.box.RandomBytes(cryptobox.TokenSize)
	if err != nil {
		return fmt.Errorf("lock: %w: %v", store.ErrUnavailable, err)
	}
	token := cryptobox.Encode(tokenBytes)

	nonce, ciphertext, err := m.box.Encrypt(key, []byte(token))
	if err != nil {
		return fmt.Errorf("lock: %w: %v", store.ErrUnavailable, err)
	}
	testValue, err := cryptobox.Envelope{
		Salt: cryptobox.Encode(salt),
		IV:   cryptobox.Encode(nonce),
		Data: cryptobox.Encode(ciphertext),
	}.Marshal()
	if err != nil {
		return fmt.Errorf("lock: %w", err)
	}

	// Transform the full history in memory before any write-back.
	transformed := make([]event.Event, len(events))
	for i, e := range events {
		if e.Kind.IsWorkspace() {
			transformed[i] = e
			continue
		}
		nonce, ciphertext, err := m.box.Encrypt(key, e.Payload)
		if err != nil {
			return fmt.Errorf("lock: encrypt event %d: %w: %v", e.Seq, store.ErrUnavailable, err)
		}
		payload, err := event.MarshalPayload(event.EncryptedPayload{
			Encrypted: true,
			IV:        cryptobox.Encode(nonce),
			Data:      cryptobox.Encode(ciphertext),
		})
		if err != nil {
			return fmt.Errorf("lock: envelope event %d: %w", e.Seq, err)
		}
		e.Payload = payload
		transformed[i] = e
	}

	if err := m.store.ReplaceWorkspaceEvents(ctx, workspaceID, transformed); err != nil {
		return fmt.Errorf("lock: %w", err)
	}
	if err := m.store.UpdateWorkspaceLock(ctx, workspaceID, store.LockState{
		Locked:        true,
		LockTestName:  token,
		LockTestValue: testValue,
	}); err != nil {
		return fmt.Errorf("lock: %w", err)
	}
	return nil
}

// Unlock verifies password against the stored verification token, then
// decrypts the workspace's event payloads and clears the lock fields.
// No-op if not locked.
func (m *Manager) Unlock(ctx context.Context, workspaceID, password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrPasswordRequired
	}
	ws, err := m.store.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("unlock: %w", err)
	}
	if !ws.Locked {
		return nil
	}
	if ws.LockTestName == "" || ws.LockTestValue == "" {
		return fmt.Errorf("unlock: %w", ErrLockMetadataMissing)
	}

	key, err := m.verify(ws, password)
	if err != nil {
		// Wrong password and corrupt metadata surface identically.
		m.log.Error().Err(err).Str("workspace", workspaceID).Msg("unlock verification failed")
		return ErrUnlockFailed
	}

	events, err := m.store.WorkspaceEvents(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("unlock: read events: %w", err)
	}

	// Decrypt the full history in memory before any write-back.
	decrypted := make([]event.Event, len(events))
	for i, e := range events {
		if !event.IsEncrypted(e.Payload) {
			decrypted[i] = e
			continue
		}
		var env event.EncryptedPayload
		if err := event.UnmarshalPayload(e.Payload, &env); err != nil {
			m.log.Error().Err(err).Int64("seq", e.Seq).Msg("malformed encrypted payload")
			return ErrUnlockFailed
		}
		plaintext, err := m.open(key, env.IV, env.Data)
		if err != nil {
			m.log.Error().Err(err).Int64("seq", e.Seq).Msg("event payload decryption failed")
			return ErrUnlockFailed
		}
		if !json.Valid(plaintext) {
			m.log.Error().Int64("seq", e.Seq).Msg("decrypted payload is not JSON")
			return ErrUnlockFailed
		}
		e.Payload = plaintext
		decrypted[i] = e
	}

	if err := m.store.ReplaceWorkspaceEvents(ctx, workspaceID, decrypted); err != nil {
		return fmt.Errorf("unlock: %w", err)
	}
	if err := m.store.UpdateWorkspaceLock(ctx, workspaceID, store.LockState{}); err != nil {
		return fmt.Errorf("unlock: %w", err)
	}
	return nil
}

// verify re-derives the key and checks the recovered verification
// token against the stored plaintext token. Returns the derived key on
// success.
func (m *Manager) verify(ws store.Workspace, password string) ([]byte, error) {
	env, err := cryptobox.ParseEnvelope(ws.LockTestValue)
	if err != nil {
		return nil, err
	}
	if env.Salt == "" {
		return nil, fmt.Errorf("verification envelope missing salt")
	}
	salt, err := cryptobox.Decode(env.Salt)
	if err != nil {
		return nil, err
	}
	key := m.box.DeriveKey(password, salt)
	recovered, err := m.open(key, env.IV, env.Data)
	if err != nil {
		return nil, err
	}
	if string(recovered) != ws.LockTestName {
		return nil, fmt.Errorf("verification token mismatch")
	}
	return key, nil
}

func (m *Manager) open(key []byte, ivB64, dataB64 string) ([]byte, error) {
	nonce, err := cryptobox.Decode(ivB64)
	if err != nil {
		return nil, err
	}
	ciphertext, err := cryptobox.Decode(dataB64)
	if err != nil {
		return nil, err
	}
	return m.box.Decrypt(key, nonce, ciphertext)
}
