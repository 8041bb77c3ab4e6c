// Package cloudantstore persists web sessions in a CouchDB/Cloudant-style
// revision-versioned document store.
//
// A Store implements the four lifecycle operations a session framework
// needs (Get, Set, Touch, Destroy) on top of a docstore.Client. Records
// carry a TTL and a last-modified stamp; a record read past its effective
// expiry instant is reclaimed on the spot and reported as absent. Expired
// records are also swept out-of-band: CleanupExpired queries a derived
// expiry index for a bounded batch and removes it with one bulk delete,
// tolerating per-record rejections.
//
// Concurrent writers are never serialized in process. Correctness relies
// on the store's revision tokens: the first commit wins and the loser gets
// ErrRevisionConflict.
package cloudantstore
