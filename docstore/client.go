package docstore

import "context"

// Client is the set of document-store operations the session adapter
// consumes. Implementations must be safe for concurrent use.
type Client interface {
	// Get retrieves a document by id. Returns ErrNotFound when absent.
	Get(ctx context.Context, id string) (*Document, error)

	// Put writes a document. A document with an empty Rev is created;
	// otherwise Rev must match the stored revision or the write fails
	// with ErrConflict. Returns the newly assigned revision.
	Put(ctx context.Context, doc *Document) (string, error)

	// Remove deletes a document. Rev must match the stored revision.
	// Returns ErrNotFound when absent, ErrConflict on a stale revision.
	Remove(ctx context.Context, id, rev string) error

	// BulkWrite applies a batch of operations and reports a result per
	// operation. Individual rejections (stale revision, missing document)
	// appear in the results; the returned error covers only failures of
	// the batch round-trip itself.
	BulkWrite(ctx context.Context, ops []BulkOp) ([]BulkResult, error)

	// QueryIndex queries a named index. Returns ErrIndexMissing when the
	// index has not been created.
	QueryIndex(ctx context.Context, design, view string, opts QueryOptions) ([]IndexRow, error)

	// CreateIndex creates an index from its definition. Creating an
	// identical definition concurrently or repeatedly is not an error.
	CreateIndex(ctx context.Context, def IndexDefinition) error

	// Info probes store reachability with a lightweight metadata request.
	Info(ctx context.Context) error
}
