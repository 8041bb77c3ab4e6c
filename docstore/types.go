package docstore

// Document is a single revision-versioned document.
//
// ID and Rev are kept out of Fields; clients fold them into the wire
// representation (_id/_rev for CouchDB-compatible stores).
type Document struct {
	// ID is the unique document identifier.
	ID string

	// Rev is the opaque revision token assigned by the store on the last
	// write. Empty on a document that has never been written.
	Rev string

	// Fields is the document body.
	Fields map[string]any
}

// Clone creates a deep copy of the document's top level. Nested values in
// Fields are shared; callers that mutate nested structures must copy them
// first.
func (d *Document) Clone() *Document {
	clone := &Document{
		ID:  d.ID,
		Rev: d.Rev,
	}
	if d.Fields != nil {
		clone.Fields = make(map[string]any, len(d.Fields))
		for k, v := range d.Fields {
			clone.Fields[k] = v
		}
	}
	return clone
}

// Int64Field reads a numeric field from the document body. JSON decoding
// may surface numbers as float64, int, int64, or uint64 depending on the
// client; all are accepted.
func (d *Document) Int64Field(name string) (int64, bool) {
	v, ok := d.Fields[name]
	if !ok {
		return 0, false
	}
	return toInt64(v)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	default:
		return 0, false
	}
}

// IndexDefinition declares a derived index over expiry eligibility.
//
// A document is indexed, keyed by its id and valued by its current revision,
// if and only if the store's clock is strictly past
// Fields[ModifiedField] + Fields[TTLField]*1000 (milliseconds).
//
// The definition is pure data: CouchDB-backed clients render it into a view
// on the server, embedded clients evaluate it at query time. Creating the
// same definition twice is idempotent.
type IndexDefinition struct {
	// Design is the design-document name holding the view.
	Design string

	// View is the view name within the design document.
	View string

	// ModifiedField names the unix-millisecond last-write field.
	ModifiedField string

	// TTLField names the time-to-live field, in whole seconds.
	TTLField string
}

// Matches evaluates the index predicate against a document at the given
// instant. Documents missing either field are never indexed.
func (ix IndexDefinition) Matches(doc *Document, nowMillis int64) bool {
	modified, ok := doc.Int64Field(ix.ModifiedField)
	if !ok {
		return false
	}
	ttl, ok := doc.Int64Field(ix.TTLField)
	if !ok {
		return false
	}
	return nowMillis > modified+ttl*1000
}

// IndexRow is a single row returned by an index query.
type IndexRow struct {
	// ID is the indexed document id.
	ID string

	// Rev is the document revision captured at index-evaluation time.
	Rev string
}

// QueryOptions bounds an index query.
type QueryOptions struct {
	// Limit caps the number of rows returned. Zero means no cap.
	Limit int
}

// BulkOp is a single operation in a bulk write.
type BulkOp struct {
	// ID is the target document id.
	ID string

	// Rev is the expected current revision. Stale revisions reject the
	// individual operation without affecting the rest of the batch.
	Rev string

	// Delete marks the document as deleted.
	Delete bool

	// Fields is the replacement body for non-delete operations.
	Fields map[string]any
}

// BulkResult is the per-operation outcome of a bulk write.
type BulkResult struct {
	// ID is the document id the result refers to.
	ID string

	// Rev is the new revision on success.
	Rev string

	// Err is the per-operation failure, nil on success.
	Err error
}
