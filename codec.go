package cloudantstore

import (
	"time"

	"github.com/bytedance/sonic"

	"github.com/SteffenDE/connect-cloudant-store/docstore"
	"github.com/SteffenDE/connect-cloudant-store/internal/seal"
)

// Payload is the caller-owned session data.
type Payload = map[string]any

// Document field names of a persisted session record.
const (
	fieldSession  = "session"
	fieldSealed   = "sealed"
	fieldTTL      = "ttl"
	fieldModified = "last_modified"
)

// codec maps session payloads to and from the persisted document shape.
// With a sealer configured the payload is stored as AEAD ciphertext bound
// to the record id instead of plain JSON.
type codec struct {
	sealer *seal.Sealer
}

// encode builds the document for one write: a deep copy of the payload
// (later caller mutations must not leak into the store), the TTL, and a
// fresh last-modified stamp.
func (c codec) encode(id string, payload Payload, ttl int64, now time.Time) (*docstore.Document, error) {
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return nil, docstore.ErrBadDocument.WithCause(err)
	}

	fields := map[string]any{
		fieldTTL:      ttl,
		fieldModified: now.UnixMilli(),
	}

	if c.sealer != nil {
		sealed, err := c.sealer.Seal(raw, id)
		if err != nil {
			return nil, docstore.ErrBadDocument.WithCause(err)
		}
		fields[fieldSealed] = sealed
	} else {
		var copied map[string]any
		if err := sonic.Unmarshal(raw, &copied); err != nil {
			return nil, docstore.ErrBadDocument.WithCause(err)
		}
		fields[fieldSession] = copied
	}

	return &docstore.Document{ID: id, Fields: fields}, nil
}

// decode returns the caller-facing payload from a stored document.
func (c codec) decode(doc *docstore.Document) (Payload, error) {
	if c.sealer != nil {
		sealed, _ := doc.Fields[fieldSealed].(string)
		if sealed == "" {
			return nil, docstore.ErrBadDocument.WithDetails("missing sealed payload")
		}
		raw, err := c.sealer.Open(sealed, doc.ID)
		if err != nil {
			return nil, docstore.ErrBadDocument.WithCause(err)
		}
		var payload Payload
		if err := sonic.Unmarshal(raw, &payload); err != nil {
			return nil, docstore.ErrBadDocument.WithCause(err)
		}
		return payload, nil
	}

	payload, ok := doc.Fields[fieldSession].(map[string]any)
	if !ok {
		return nil, docstore.ErrBadDocument.WithDetails("missing session payload")
	}
	return payload, nil
}

// expiresAtMillis returns the record's effective expiry instant.
func expiresAtMillis(doc *docstore.Document) (int64, bool) {
	modified, ok := doc.Int64Field(fieldModified)
	if !ok {
		return 0, false
	}
	ttl, ok := doc.Int64Field(fieldTTL)
	if !ok {
		return 0, false
	}
	return modified + ttl*1000, true
}
