package cloudantstore

import (
	"context"
)

// CheckConnection probes store reachability and emits a connect or
// disconnect signal. Probes are rate limited to ProbeInterval; calls
// inside the window reuse the last outcome without touching the store.
// Purely observational: a failed probe never blocks session operations.
func (s *Store) CheckConnection(ctx context.Context) error {
	s.probeMu.Lock()
	defer s.probeMu.Unlock()

	if !s.probeLimit.Allow() {
		if s.lastProbe != nil {
			return ErrStoreUnavailable.WithCause(s.lastProbe)
		}
		return nil
	}

	err := s.client.Info(ctx)
	s.lastProbe = err

	if err != nil {
		s.logger.Warn("session store unreachable", "error", err)
		s.events.Emit(Event{
			Type: EventDisconnect,
			Op:   "probe",
			Err:  err,
			Time: s.now(),
		})
		s.setStoreUp(false)
		return ErrStoreUnavailable.WithCause(err)
	}

	s.events.Emit(Event{Type: EventConnect, Op: "probe", Time: s.now()})
	s.setStoreUp(true)
	return nil
}

func (s *Store) setStoreUp(up bool) {
	if s.metrics == nil {
		return
	}
	if up {
		s.metrics.StoreUp.Set(1)
	} else {
		s.metrics.StoreUp.Set(0)
	}
}
