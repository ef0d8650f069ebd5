// Package cryptobox provides the cryptographic primitives behind
// workspace locking: password-based key derivation, authenticated
// symmetric encryption, and random salt/token generation.
//
// Keys are derived with PBKDF2-SHA256 (deliberately slow, iterated).
// Payloads are sealed with XChaCha20-Poly1305, one random 24-byte nonce
// per payload. Tampering with ciphertext or nonce causes authentication
// failure on open.
//
// All binary values cross package boundaries as standard base64 strings
// so they can live inside JSON event payloads and workspace records.
package cryptobox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the symmetric key size in bytes.
	KeySize = 32

	// SaltSize is the random salt size for key derivation.
	SaltSize = 16

	// TokenSize is the size of random verification tokens.
	TokenSize = 32

	// KDFIterations is the PBKDF2 iteration count. Changing it
	// invalidates every key derived from a stored salt.
	KDFIterations = 210_000
)

// Provider is the cryptographic surface the lock protocol depends on.
// Implemented by Box (production); tests may substitute a fake to
// simulate an environment without crypto support.
type Provider interface {
	// RandomBytes returns n cryptographically secure random bytes.
	RandomBytes(n int) ([]byte, error)

	// DeriveKey derives a KeySize-byte symmetric key from a password
	// and salt using a slow, iterated KDF.
	DeriveKey(password string, salt []byte) []byte

	// Encrypt seals plaintext under key with a fresh random nonce.
	// Returns the nonce and the ciphertext (tag included).
	Encrypt(key, plaintext []byte) (nonce, ciphertext []byte, err error)

	// Decrypt opens ciphertext sealed by Encrypt. Fails if the key is
	// wrong or the ciphertext was tampered with.
	Decrypt(key, nonce, ciphertext []byte) ([]byte, error)
}

// Box is the production Provider.
//
// Thread-safety: Box is stateless and safe for concurrent use.
type Box struct{}

// New returns a production crypto provider.
func New() Box { return Box{} }

// RandomBytes returns n bytes from the system CSPRNG.
func (Box) RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("random bytes: %w", err)
	}
	return buf, nil
}

// DeriveKey derives a symmetric key with PBKDF2-SHA256.
func (Box) DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, KDFIterations, KeySize, sha256.New)
}

// Encrypt seals plaintext with XChaCha20-Poly1305 under a fresh nonce.
func (Box) Encrypt(key, plaintext []byte) ([]byte, []byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, nil, fmt.Errorf("encrypt: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("encrypt: nonce: %w", err)
	}
	return nonce, aead.Seal(nil, nonce, plaintext, nil), nil
}

// Decrypt opens an XChaCha20-Poly1305 ciphertext.
func (Box) Decrypt(key, nonce, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}

// Encode encodes binary data as standard base64.
func Encode(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// Decode decodes standard base64.
func Decode(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	return b, nil
}
