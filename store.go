package cloudantstore

import (
	"context"
	"errors"
	"time"

	"github.com/SteffenDE/connect-cloudant-store/docstore"
	"github.com/SteffenDE/connect-cloudant-store/internal/telemetry/logger"
)

// SessionStore is the contract a session framework consumes. *Store
// satisfies it.
type SessionStore interface {
	// Get returns the session payload, or (nil, nil) when absent.
	Get(ctx context.Context, sessionID string) (Payload, error)

	// Set creates or replaces the session payload.
	Set(ctx context.Context, sessionID string, payload Payload) error

	// Touch refreshes the session's TTL without changing its payload.
	Touch(ctx context.Context, sessionID string, payload Payload) error

	// Destroy removes the session.
	Destroy(ctx context.Context, sessionID string) error
}

var _ SessionStore = (*Store)(nil)

// Get retrieves a session payload. An absent session is not an error. A
// session read strictly past its effective expiry instant is reclaimed
// immediately and reported absent; the background sweep is not the only
// enforcement point.
func (s *Store) Get(ctx context.Context, sessionID string) (Payload, error) {
	start := s.now()
	id := s.key(sessionID)

	doc, err := s.client.Get(ctx, id)
	if docstore.IsNotFound(err) {
		s.observe("get", "miss", start)
		return nil, nil
	}
	if err != nil {
		s.fail("get", sessionID, err)
		s.observe("get", "error", start)
		return nil, mapStoreErr(err)
	}

	if expiry, ok := expiresAtMillis(doc); ok && s.now().UnixMilli() > expiry {
		if err := s.reclaim(ctx, doc); err != nil {
			s.fail("get", sessionID, err)
			s.observe("get", "error", start)
			return nil, mapStoreErr(err)
		}
		s.logger.Debug("expired session reclaimed on read",
			"sid", id)
		s.observe("get", "miss", start)
		return nil, nil
	}

	payload, err := s.codec.decode(doc)
	if err != nil {
		s.fail("get", sessionID, err)
		s.observe("get", "error", start)
		return nil, err
	}

	s.observe("get", "ok", start)
	return payload, nil
}

// Set creates or replaces a session. An existing record is replaced via
// read-modify-write: the current revision is read first so the store can
// detect a lost update. A conflict on the write is reported, never
// retried.
func (s *Store) Set(ctx context.Context, sessionID string, payload Payload) error {
	start := s.now()
	id := s.key(sessionID)

	doc, err := s.codec.encode(id, payload, ttlSeconds(payload, s.defaultTTL), s.now())
	if err != nil {
		s.fail("set", sessionID, err)
		s.observe("set", "error", start)
		return err
	}

	current, err := s.client.Get(ctx, id)
	switch {
	case docstore.IsNotFound(err):
		// First write for this id creates the record.
	case err != nil:
		s.fail("set", sessionID, err)
		s.observe("set", "error", start)
		return mapStoreErr(err)
	default:
		doc.Rev = current.Rev
	}

	if _, err := s.client.Put(ctx, doc); err != nil {
		s.fail("set", sessionID, err)
		s.observe("set", "error", start)
		return mapStoreErr(err)
	}

	s.observe("set", "ok", start)
	return nil
}

// Touch refreshes last-modified and the recomputed TTL while keeping the
// stored payload. With TTL refresh disabled it succeeds immediately. Touch
// never creates: an absent session is a reportable failure.
func (s *Store) Touch(ctx context.Context, sessionID string, payload Payload) error {
	if s.disableTTLRefresh {
		return nil
	}

	start := s.now()
	id := s.key(sessionID)

	current, err := s.client.Get(ctx, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			s.observe("touch", "miss", start)
		} else {
			s.fail("touch", sessionID, err)
			s.observe("touch", "error", start)
		}
		return mapStoreErr(err)
	}

	current.Fields[fieldTTL] = ttlSeconds(payload, s.defaultTTL)
	current.Fields[fieldModified] = s.now().UnixMilli()

	if _, err := s.client.Put(ctx, current); err != nil {
		s.fail("touch", sessionID, err)
		s.observe("touch", "error", start)
		return mapStoreErr(err)
	}

	s.observe("touch", "ok", start)
	return nil
}

// Destroy removes a session. An absent session is a reportable failure for
// the caller; internal expiry-triggered reclaim goes through reclaim
// instead, which treats absence as success.
func (s *Store) Destroy(ctx context.Context, sessionID string) error {
	start := s.now()
	id := s.key(sessionID)

	current, err := s.client.Get(ctx, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			s.observe("destroy", "miss", start)
		} else {
			s.fail("destroy", sessionID, err)
			s.observe("destroy", "error", start)
		}
		return mapStoreErr(err)
	}

	if err := s.client.Remove(ctx, id, current.Rev); err != nil {
		if docstore.IsNotFound(err) {
			s.observe("destroy", "miss", start)
		} else {
			s.fail("destroy", sessionID, err)
			s.observe("destroy", "error", start)
		}
		return mapStoreErr(err)
	}

	s.observe("destroy", "ok", start)
	return nil
}

// reclaim deletes a logically dead record. A record already gone, or one
// re-written since it was read, counts as reclaimed: the concurrent writer
// owns the id now.
func (s *Store) reclaim(ctx context.Context, doc *docstore.Document) error {
	err := s.client.Remove(ctx, doc.ID, doc.Rev)
	if err == nil || docstore.IsNotFound(err) || docstore.IsConflict(err) {
		return nil
	}
	return err
}

// fail emits the error signal for a non-NotFound operation failure.
func (s *Store) fail(op, sessionID string, err error) {
	if docstore.IsNotFound(err) || errors.Is(err, ErrSessionNotFound) {
		return
	}

	s.logger.Error("session operation failed",
		"op", op,
		"sid", s.key(sessionID),
		"error", err)
	s.events.Emit(Event{
		Type:      EventError,
		Op:        op,
		SessionID: logger.RedactSessionID(s.key(sessionID)),
		Err:       err,
		Time:      s.now(),
	})
}

// observe records one operation's metrics.
func (s *Store) observe(op, result string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveOp(op, result, s.now().Sub(start))
}
