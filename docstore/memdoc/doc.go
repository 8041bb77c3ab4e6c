// Package memdoc provides an in-memory revision-versioned document store.
//
// It implements the docstore.Client contract with the same observable
// semantics as a CouchDB-compatible server: opaque "<n>-<suffix>" revision
// tokens, conflict detection on stale writes, per-operation bulk results,
// and named expiry indexes evaluated at query time. Bodies round-trip
// through JSON, so callers see the same value normalization a remote store
// would produce.
//
// memdoc backs tests and single-process deployments that do not need
// durability.
package memdoc
