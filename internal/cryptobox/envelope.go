package cryptobox

import (
	"encoding/json"
	"fmt"
)

// Envelope is the JSON shape of an encrypted value: base64 fields for
// the KDF salt (verification values only), the AEAD nonce, and the
// ciphertext. The nonce field is named "iv" for compatibility with
// exported documents produced by earlier revisions.
type Envelope struct {
	Salt string `json:"salt,omitempty"`
	IV   string `json:"iv"`
	Data string `json:"data"`
}

// Marshal renders the envelope as compact JSON.
func (e Envelope) Marshal() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}
	return string(b), nil
}

// ParseEnvelope parses a JSON envelope, requiring nonce and data to be
// present and valid base64.
func ParseEnvelope(s string) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal([]byte(s), &e); err != nil {
		return Envelope{}, fmt.Errorf("parse envelope: %w", err)
	}
	if e.IV == "" || e.Data == "" {
		return Envelope{}, fmt.Errorf("parse envelope: missing iv or data")
	}
	return e, nil
}
