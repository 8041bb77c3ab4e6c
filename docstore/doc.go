// Package docstore defines the boundary to a revision-versioned document
// store (Cloudant, CouchDB, or an embedded equivalent).
//
// Every write returns an opaque revision token; updates and deletes must
// present the most recent token and fail with a conflict when it is stale.
// Secondary indexes are declared as data (IndexDefinition) and queried by
// name, never shipped as executable code.
package docstore
