// Package couchdb implements docstore.Client against the CouchDB/Cloudant
// HTTP API.
//
// Documents map onto /{db}/{id} with _rev-based optimistic concurrency,
// bulk deletes onto _bulk_docs, and the expiry index onto a design-document
// view rendered from the declarative docstore.IndexDefinition. Racing
// creations of the same design document are treated as success, matching
// the server's natural de-duplication of identical definitions.
package couchdb
