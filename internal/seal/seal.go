// Package seal provides authenticated encryption for session payloads at
// rest. The algorithm is picked per platform: AES-GCM where the hardware
// accelerates AES, ChaCha20-Poly1305 everywhere else. Sealed output is
// base64 so it can live inside a JSON document field.
package seal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"runtime"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required key length in bytes.
const KeySize = 32

var (
	ErrInvalidKey  = errors.New("seal: key must be 32 bytes")
	ErrBadCipher   = errors.New("seal: ciphertext too short")
	ErrOpenFailure = errors.New("seal: authentication failed")
)

// Sealer encrypts and decrypts payloads with a fixed key. The record id is
// passed as associated data, so a sealed payload copied onto another record
// fails to open.
type Sealer struct {
	aead cipher.AEAD
}

// New creates a Sealer for the given 32-byte key.
func New(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext bound to the given record id and returns the
// nonce-prefixed ciphertext in base64.
func (s *Sealer) Seal(plaintext []byte, recordID string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := s.aead.Seal(nonce, nonce, plaintext, []byte(recordID))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a sealed payload produced for the same record id.
func (s *Sealer) Open(sealed, recordID string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, ErrBadCipher
	}
	if len(raw) < s.aead.NonceSize() {
		return nil, ErrBadCipher
	}

	nonce := raw[:s.aead.NonceSize()]
	plaintext, err := s.aead.Open(nil, nonce, raw[s.aead.NonceSize():], []byte(recordID))
	if err != nil {
		return nil, ErrOpenFailure
	}
	return plaintext, nil
}

// newAEAD selects the platform cipher. amd64 and arm64 run AES through
// hardware instructions, other architectures do better with ChaCha20.
func newAEAD(key []byte) (cipher.AEAD, error) {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	default:
		return chacha20poly1305.New(key)
	}
}
