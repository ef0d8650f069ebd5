package cryptobox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	box := New()

	salt, err := box.RandomBytes(SaltSize)
	require.NoError(t, err)
	key := box.DeriveKey("hunter2", salt)
	require.Len(t, key, KeySize)

	plaintext := []byte(`{"id":"blt_1","content":"secret plans"}`)
	nonce, ciphertext, err := box.Encrypt(key, plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	recovered, err := box.Decrypt(key, nonce, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, recovered)
}

func TestDecrypt_WrongKeyFails(t *testing.T) {
	box := New()

	salt, err := box.RandomBytes(SaltSize)
	require.NoError(t, err)
	key := box.DeriveKey("hunter2", salt)
	wrongKey := box.DeriveKey("wrong", salt)

	nonce, ciphertext, err := box.Encrypt(key, []byte("payload"))
	require.NoError(t, err)

	_, err = box.Decrypt(wrongKey, nonce, ciphertext)
	assert.Error(t, err)
}

func TestDecrypt_TamperedCiphertextFails(t *testing.T) {
	box := New()

	key := box.DeriveKey("hunter2", []byte("0123456789abcdef"))
	nonce, ciphertext, err := box.Encrypt(key, []byte("payload"))
	require.NoError(t, err)

	ciphertext[0] ^= 0xff
	_, err = box.Decrypt(key, nonce, ciphertext)
	assert.Error(t, err)
}

func TestDeriveKey_Deterministic(t *testing.T) {
	box := New()
	salt := []byte("0123456789abcdef")

	k1 := box.DeriveKey("hunter2", salt)
	k2 := box.DeriveKey("hunter2", salt)
	k3 := box.DeriveKey("hunter2", []byte("fedcba9876543210"))

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3, "different salt must yield different key")
}

func TestEncrypt_FreshNoncePerCall(t *testing.T) {
	box := New()
	key := box.DeriveKey("hunter2", []byte("0123456789abcdef"))

	n1, c1, err := box.Encrypt(key, []byte("payload"))
	require.NoError(t, err)
	n2, c2, err := box.Encrypt(key, []byte("payload"))
	require.NoError(t, err)

	assert.NotEqual(t, n1, n2)
	assert.NotEqual(t, c1, c2)
}

func TestEnvelope_RoundTrip(t *testing.T) {
	env := Envelope{Salt: Encode([]byte("salt")), IV: Encode([]byte("nonce")), Data: Encode([]byte("ct"))}

	s, err := env.Marshal()
	require.NoError(t, err)

	parsed, err := ParseEnvelope(s)
	require.NoError(t, err)
	assert.Equal(t, env, parsed)
}

func TestParseEnvelope_Invalid(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"not json", "nope"},
		{"missing iv", `{"data":"AA=="}`},
		{"missing data", `{"iv":"AA=="}`},
		{"empty", `{}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseEnvelope(tc.in)
			assert.Error(t, err)
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode("not base64!!!")
	assert.Error(t, err)
}
