package memdoc

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/SteffenDE/connect-cloudant-store/docstore"
)

// Store is an in-memory docstore.Client.
type Store struct {
	docs *docMap

	// Named indexes, keyed by "design/view". Definitions are data; the
	// predicate is evaluated against live documents at query time, which
	// matches the eventually-consistent view a real indexing engine gives.
	indexMu sync.RWMutex
	indexes map[string]docstore.IndexDefinition

	// writeMu serializes the read-compare-swap of Put/Remove. Reads go
	// through the sharded map without taking it.
	writeMu sync.Mutex

	now func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithClock sets the time source used for index evaluation. Tests use this
// to step through expiry boundaries deterministically.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a new in-memory document store.
func New(opts ...Option) *Store {
	s := &Store{
		docs:    newDocMap(),
		indexes: make(map[string]docstore.IndexDefinition),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Get retrieves a document by id.
func (s *Store) Get(_ context.Context, id string) (*docstore.Document, error) {
	doc, ok := s.docs.get(id)
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return cloneDocument(doc)
}

// Put writes a document, enforcing revision CAS semantics.
func (s *Store) Put(_ context.Context, doc *docstore.Document) (string, error) {
	if doc.ID == "" {
		return "", docstore.ErrBadDocument.WithDetails("empty document id")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, exists := s.docs.get(doc.ID)
	if exists && existing.Rev != doc.Rev {
		return "", docstore.ErrConflict.WithDetails(doc.ID)
	}
	if !exists && doc.Rev != "" {
		return "", docstore.ErrConflict.WithDetails(doc.ID)
	}

	stored, err := cloneDocument(doc)
	if err != nil {
		return "", err
	}
	rev, err := docstore.NextRev(doc.Rev, s.now())
	if err != nil {
		return "", err
	}
	stored.Rev = rev
	s.docs.set(doc.ID, stored)

	return rev, nil
}

// Remove deletes a document, enforcing revision CAS semantics.
func (s *Store) Remove(_ context.Context, id, rev string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, ok := s.docs.get(id)
	if !ok {
		return docstore.ErrNotFound.WithDetails(id)
	}
	if existing.Rev != rev {
		return docstore.ErrConflict.WithDetails(id)
	}

	s.docs.delete(id)
	return nil
}

// BulkWrite applies each operation independently and reports per-item
// results. The batch round-trip itself cannot fail in memory.
func (s *Store) BulkWrite(ctx context.Context, ops []docstore.BulkOp) ([]docstore.BulkResult, error) {
	results := make([]docstore.BulkResult, 0, len(ops))

	for _, op := range ops {
		res := docstore.BulkResult{ID: op.ID}

		if op.Delete {
			res.Err = s.Remove(ctx, op.ID, op.Rev)
		} else {
			rev, err := s.Put(ctx, &docstore.Document{ID: op.ID, Rev: op.Rev, Fields: op.Fields})
			res.Rev = rev
			res.Err = err
		}

		results = append(results, res)
	}

	return results, nil
}

// QueryIndex evaluates a named index against the current documents.
// Rows are sorted by id for deterministic output.
func (s *Store) QueryIndex(_ context.Context, design, view string, opts docstore.QueryOptions) ([]docstore.IndexRow, error) {
	s.indexMu.RLock()
	def, ok := s.indexes[design+"/"+view]
	s.indexMu.RUnlock()
	if !ok {
		return nil, docstore.ErrIndexMissing.WithDetails(design + "/" + view)
	}

	nowMillis := s.now().UnixMilli()

	var rows []docstore.IndexRow
	s.docs.rangeDocs(func(id string, doc *docstore.Document) bool {
		if def.Matches(doc, nowMillis) {
			rows = append(rows, docstore.IndexRow{ID: id, Rev: doc.Rev})
		}
		return true
	})

	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}

	return rows, nil
}

// CreateIndex registers an index definition. Re-creating an index, with the
// same or an updated definition, never conflicts.
func (s *Store) CreateIndex(_ context.Context, def docstore.IndexDefinition) error {
	if def.Design == "" || def.View == "" {
		return docstore.ErrBadDocument.WithDetails("index definition requires design and view names")
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	s.indexes[def.Design+"/"+def.View] = def
	return nil
}

// Info reports reachability. The in-memory store is always reachable.
func (s *Store) Info(context.Context) error {
	return nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	return s.docs.count()
}

// cloneDocument deep-copies a document through a JSON round-trip. This
// isolates stored state from caller mutation and normalizes field values
// the way a remote JSON store would.
func cloneDocument(doc *docstore.Document) (*docstore.Document, error) {
	clone := &docstore.Document{ID: doc.ID, Rev: doc.Rev}
	if doc.Fields == nil {
		return clone, nil
	}

	raw, err := sonic.Marshal(doc.Fields)
	if err != nil {
		return nil, docstore.ErrBadDocument.WithCause(err)
	}
	if err := sonic.Unmarshal(raw, &clone.Fields); err != nil {
		return nil, docstore.ErrBadDocument.WithCause(err)
	}
	return clone, nil
}
