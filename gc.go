package cloudantstore

import (
	"context"
	"errors"
	"time"

	"github.com/SteffenDE/connect-cloudant-store/docstore"
)

// CleanupExpired removes one bounded batch of expired sessions and returns
// how many were deleted.
//
// The expiry index is bootstrapped lazily: a missing index is created from
// the declarative definition and queried again. Zero rows complete the run
// without a write. Deletions rejected inside the batch (typically a
// revision that moved between index read and delete) are aggregated into a
// *PartialCleanupError; accepted deletions stand, and nothing is retried.
// The next run re-discovers whatever is still expired.
//
// Cost is proportional to the number of expired records per run, capped by
// MaxExpiredPerCleanup, not to the session population.
func (s *Store) CleanupExpired(ctx context.Context) (int, error) {
	start := s.now()

	rows, err := s.queryExpired(ctx)
	if err != nil {
		s.logger.Error("cleanup query failed", "error", err)
		return 0, mapStoreErr(err)
	}
	if len(rows) == 0 {
		s.observeCleanup(start, 0, 0)
		return 0, nil
	}

	ops := make([]docstore.BulkOp, 0, len(rows))
	for _, row := range rows {
		ops = append(ops, docstore.BulkOp{ID: row.ID, Rev: row.Rev, Delete: true})
	}

	results, err := s.client.BulkWrite(ctx, ops)
	if err != nil {
		s.logger.Error("cleanup bulk delete failed", "batch", len(ops), "error", err)
		return 0, mapStoreErr(err)
	}

	removed := 0
	var failures []CleanupFailure
	for _, res := range results {
		if res.Err == nil {
			removed++
			continue
		}
		failures = append(failures, CleanupFailure{ID: res.ID, Err: res.Err})
	}

	s.observeCleanup(start, removed, len(failures))
	s.logger.Info("cleanup completed",
		"removed", removed,
		"rejected", len(failures),
		"elapsed", s.now().Sub(start))

	if len(failures) > 0 {
		return removed, &PartialCleanupError{Failures: failures}
	}
	return removed, nil
}

// queryExpired reads one batch from the expiry index, creating the index
// on first use. Racing creations of the identical definition do not
// conflict, so concurrent bootstrap is safe.
func (s *Store) queryExpired(ctx context.Context) ([]docstore.IndexRow, error) {
	opts := docstore.QueryOptions{Limit: s.maxExpired}

	rows, err := s.client.QueryIndex(ctx, s.index.Design, s.index.View, opts)
	if !errors.Is(err, docstore.ErrIndexMissing) {
		return rows, err
	}

	s.logger.Info("creating expiry index",
		"design", s.index.Design,
		"view", s.index.View)
	if err := s.client.CreateIndex(ctx, s.index); err != nil {
		return nil, err
	}

	return s.client.QueryIndex(ctx, s.index.Design, s.index.View, opts)
}

func (s *Store) observeCleanup(start time.Time, removed, failed int) {
	if s.metrics == nil {
		return
	}
	s.metrics.SessionsCleaned.Add(float64(removed))
	s.metrics.CleanupFailures.Add(float64(failed))
	s.metrics.CleanupDuration.Observe(s.now().Sub(start).Seconds())
}
