// Package badgerdoc implements docstore.Client on an embedded Badger
// database.
//
// Documents and index definitions live under distinct key prefixes.
// Revision checks run inside Badger update transactions, so a stale write
// surfaces as a conflict exactly like it would against a remote store.
// A background loop reclaims value-log space and feeds size gauges.
package badgerdoc
