package seal

import (
	"bytes"
	"errors"
	"testing"
)

var testKey = func() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}()

func TestNew_KeySize(t *testing.T) {
	if _, err := New(testKey); err != nil {
		t.Fatalf("New(32-byte key) error = %v", err)
	}
	if _, err := New(testKey[:16]); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("New(16-byte key) error = %v, want ErrInvalidKey", err)
	}
	if _, err := New(nil); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("New(nil) error = %v, want ErrInvalidKey", err)
	}
}

func TestSealer_RoundTrip(t *testing.T) {
	sealer, err := New(testKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	plaintext := []byte(`{"cookie":{"maxAge":60000},"user":"u1"}`)
	sealed, err := sealer.Seal(plaintext, "sess:abc")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if sealed == string(plaintext) {
		t.Fatal("sealed output equals plaintext")
	}

	opened, err := sealer.Open(sealed, "sess:abc")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Fatalf("Open = %q, want %q", opened, plaintext)
	}
}

func TestSealer_NoncesDiffer(t *testing.T) {
	sealer, _ := New(testKey)

	a, err := sealer.Seal([]byte("payload"), "sess:abc")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	b, err := sealer.Seal([]byte("payload"), "sess:abc")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if a == b {
		t.Fatal("two seals of the same payload produced identical output")
	}
}

func TestSealer_RejectsWrongRecord(t *testing.T) {
	sealer, _ := New(testKey)

	sealed, err := sealer.Seal([]byte("payload"), "sess:abc")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	if _, err := sealer.Open(sealed, "sess:other"); !errors.Is(err, ErrOpenFailure) {
		t.Fatalf("Open with wrong record id error = %v, want ErrOpenFailure", err)
	}
}

func TestSealer_RejectsTamper(t *testing.T) {
	sealer, _ := New(testKey)

	sealed, err := sealer.Seal([]byte("payload"), "sess:abc")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	tampered := []byte(sealed)
	tampered[len(tampered)/2] ^= 1
	if _, err := sealer.Open(string(tampered), "sess:abc"); err == nil {
		t.Fatal("Open of tampered ciphertext should fail")
	}

	if _, err := sealer.Open("not-base64!!!", "sess:abc"); !errors.Is(err, ErrBadCipher) {
		t.Fatalf("Open of garbage error = %v, want ErrBadCipher", err)
	}
	if _, err := sealer.Open("QUJD", "sess:abc"); !errors.Is(err, ErrBadCipher) {
		t.Fatalf("Open of short input error = %v, want ErrBadCipher", err)
	}
}
