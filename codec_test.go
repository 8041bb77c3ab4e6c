package cloudantstore

import (
	"errors"
	"testing"
	"time"

	"github.com/SteffenDE/connect-cloudant-store/docstore"
	"github.com/SteffenDE/connect-cloudant-store/internal/seal"
)

func TestCodec_RoundTrip(t *testing.T) {
	c := codec{}
	now := time.UnixMilli(1_000_000)

	payload := Payload{
		"user":   "u1",
		"cookie": map[string]any{"maxAge": 60_000},
	}

	doc, err := c.encode("sess:abc", payload, 60, now)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if doc.ID != "sess:abc" {
		t.Fatalf("doc.ID = %q", doc.ID)
	}
	if ttl, _ := doc.Int64Field(fieldTTL); ttl != 60 {
		t.Fatalf("ttl = %d, want 60", ttl)
	}
	if modified, _ := doc.Int64Field(fieldModified); modified != 1_000_000 {
		t.Fatalf("last_modified = %d, want 1000000", modified)
	}

	decoded, err := c.decode(doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["user"] != "u1" {
		t.Fatalf("decoded user = %v, want u1", decoded["user"])
	}
}

func TestCodec_EncodeCopiesPayload(t *testing.T) {
	c := codec{}

	payload := Payload{"nested": map[string]any{"user": "u1"}}
	doc, err := c.encode("sess:abc", payload, 60, time.Now())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	payload["nested"].(map[string]any)["user"] = "tampered"

	decoded, err := c.decode(doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if user := decoded["nested"].(map[string]any)["user"]; user != "u1" {
		t.Fatalf("stored user = %v, caller mutation leaked into document", user)
	}
}

func TestCodec_SealedRoundTrip(t *testing.T) {
	key := make([]byte, seal.KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	sealer, err := seal.New(key)
	if err != nil {
		t.Fatalf("seal.New: %v", err)
	}
	c := codec{sealer: sealer}

	doc, err := c.encode("sess:abc", Payload{"user": "u1"}, 60, time.Now())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if _, ok := doc.Fields[fieldSession]; ok {
		t.Fatal("sealed document must not carry a plaintext session field")
	}
	if sealed, _ := doc.Fields[fieldSealed].(string); sealed == "" {
		t.Fatal("sealed field missing")
	}

	decoded, err := c.decode(doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["user"] != "u1" {
		t.Fatalf("decoded user = %v, want u1", decoded["user"])
	}

	// The ciphertext is bound to the record id.
	moved := doc.Clone()
	moved.ID = "sess:other"
	if _, err := c.decode(moved); !errors.Is(err, docstore.ErrBadDocument) {
		t.Fatalf("decode under wrong id err = %v, want bad document", err)
	}
}

func TestExpiresAtMillis(t *testing.T) {
	doc := &docstore.Document{Fields: map[string]any{
		fieldModified: int64(10_000),
		fieldTTL:      int64(60),
	}}

	expiry, ok := expiresAtMillis(doc)
	if !ok || expiry != 70_000 {
		t.Fatalf("expiresAtMillis = %d (%v), want 70000", expiry, ok)
	}

	if _, ok := expiresAtMillis(&docstore.Document{Fields: map[string]any{}}); ok {
		t.Fatal("document without stamps must not report an expiry")
	}
}
