package badgerdoc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/SteffenDE/connect-cloudant-store/docstore"
)

const (
	docPrefix   = "doc:"
	indexPrefix = "idx:"

	defaultGCInterval  = 10 * time.Minute
	defaultGCThreshold = 0.5
)

// Config controls the embedded store.
type Config struct {
	// Dir is the Badger data directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data off disk. Used by tests and ephemeral runs.
	InMemory bool

	// SyncWrites forces fsync on every commit.
	SyncWrites bool

	// GCInterval is the cadence of the value-log GC loop. Zero means the
	// default of ten minutes.
	GCInterval time.Duration

	// GCThreshold is the value-log rewrite ratio handed to Badger.
	// Zero means 0.5.
	GCThreshold float64

	Logger *slog.Logger
}

// Store is a Badger-backed docstore.Client.
type Store struct {
	db     *badger.DB
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	metricLSMSize  prometheus.Gauge
	metricVlogSize prometheus.Gauge

	stopCh chan struct{}
	doneCh chan struct{}
}

// Open creates the store and starts the value-log GC loop.
func Open(cfg Config) (*Store, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badgerdoc: dir is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = defaultGCInterval
	}
	if cfg.GCThreshold <= 0 {
		cfg.GCThreshold = defaultGCThreshold
	}

	opts := badger.DefaultOptions(cfg.Dir)
	opts.InMemory = cfg.InMemory
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = &badgerLogger{logger: cfg.Logger}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerdoc: open db: %w", err)
	}

	s := &Store{
		db:     db,
		cfg:    cfg,
		logger: cfg.Logger,
		now:    time.Now,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go s.gcLoop()

	cfg.Logger.Info("badger document store opened",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"gc_interval", cfg.GCInterval)

	return s, nil
}

// storedDoc is the on-disk encoding of a document. The id is the key.
type storedDoc struct {
	Rev    string         `json:"rev"`
	Fields map[string]any `json:"fields"`
}

// Get retrieves a document by id.
func (s *Store) Get(_ context.Context, id string) (*docstore.Document, error) {
	var doc *docstore.Document

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return docstore.ErrNotFound.WithDetails(id)
			}
			return docstore.ErrUnavailable.WithCause(err)
		}

		return item.Value(func(val []byte) error {
			doc, err = decodeDoc(id, val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// Put writes a document, enforcing revision CAS semantics inside a single
// update transaction.
func (s *Store) Put(_ context.Context, doc *docstore.Document) (string, error) {
	if doc.ID == "" {
		return "", docstore.ErrBadDocument.WithDetails("empty document id")
	}

	var newRev string

	err := s.db.Update(func(txn *badger.Txn) error {
		current, err := currentRev(txn, doc.ID)
		if err != nil {
			return err
		}
		if current != doc.Rev {
			return docstore.ErrConflict.WithDetails(doc.ID)
		}

		newRev, err = docstore.NextRev(doc.Rev, s.now())
		if err != nil {
			return err
		}

		raw, err := sonic.Marshal(storedDoc{Rev: newRev, Fields: doc.Fields})
		if err != nil {
			return docstore.ErrBadDocument.WithCause(err)
		}
		return txn.Set(docKey(doc.ID), raw)
	})
	if err != nil {
		return "", mapBadgerErr(err)
	}

	return newRev, nil
}

// Remove deletes a document, enforcing revision CAS semantics.
func (s *Store) Remove(_ context.Context, id, rev string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return docstore.ErrNotFound.WithDetails(id)
			}
			return docstore.ErrUnavailable.WithCause(err)
		}

		var stored storedDoc
		if err := item.Value(func(val []byte) error {
			return sonic.Unmarshal(val, &stored)
		}); err != nil {
			return docstore.ErrBadDocument.WithCause(err)
		}
		if stored.Rev != rev {
			return docstore.ErrConflict.WithDetails(id)
		}

		return txn.Delete(docKey(id))
	})

	return mapBadgerErr(err)
}

// BulkWrite applies each operation in its own transaction and reports
// per-item results. Item rejections never fail the batch.
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

// QueryIndex scans the document prefix and evaluates the stored definition.
// Badger iterates keys in order, so rows come out sorted by id; the scan
// stops as soon as the limit is filled.
func (s *Store) QueryIndex(_ context.Context, design, view string, opts docstore.QueryOptions) ([]docstore.IndexRow, error) {
	def, err := s.loadIndex(design, view)
	if err != nil {
		return nil, err
	}

	nowMillis := s.now().UnixMilli()
	var rows []docstore.IndexRow

	err = s.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.Prefix = []byte(docPrefix)
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			id := string(item.Key()[len(docPrefix):])

			var doc *docstore.Document
			if err := item.Value(func(val []byte) error {
				var derr error
				doc, derr = decodeDoc(id, val)
				return derr
			}); err != nil {
				return err
			}

			if !def.Matches(doc, nowMillis) {
				continue
			}
			rows = append(rows, docstore.IndexRow{ID: id, Rev: doc.Rev})
			if opts.Limit > 0 && len(rows) == opts.Limit {
				break
			}
		}

		return nil
	})
	if err != nil {
		return nil, mapBadgerErr(err)
	}

	return rows, nil
}

// CreateIndex persists an index definition. Re-creation never conflicts.
func (s *Store) CreateIndex(_ context.Context, def docstore.IndexDefinition) error {
	if def.Design == "" || def.View == "" {
		return docstore.ErrBadDocument.WithDetails("index definition requires design and view names")
	}

	raw, err := sonic.Marshal(def)
	if err != nil {
		return docstore.ErrBadDocument.WithCause(err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(indexKey(def.Design, def.View), raw)
	})
	return mapBadgerErr(err)
}

// Info reports reachability by asking Badger for its size.
func (s *Store) Info(context.Context) error {
	if s.db.IsClosed() {
		return docstore.ErrUnavailable.WithDetails("database closed")
	}
	return nil
}

// RegisterMetrics registers size gauges and starts the updater.
// Returns the store for chaining.
func (s *Store) RegisterMetrics(registry *prometheus.Registry) *Store {
	s.metricLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cloudant_sessions",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})
	s.metricVlogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cloudant_sessions",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})

	registry.MustRegister(s.metricLSMSize, s.metricVlogSize)

	go s.metricsUpdateLoop()
	return s
}

// Close stops the background loops and closes the database.
func (s *Store) Close() error {
	close(s.stopCh)
	<-s.doneCh

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("badgerdoc: close db: %w", err)
	}
	s.logger.Info("badger document store closed")
	return nil
}

func (s *Store) loadIndex(design, view string) (docstore.IndexDefinition, error) {
	var def docstore.IndexDefinition

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey(design, view))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return docstore.ErrIndexMissing.WithDetails(design + "/" + view)
			}
			return docstore.ErrUnavailable.WithCause(err)
		}
		return item.Value(func(val []byte) error {
			if err := sonic.Unmarshal(val, &def); err != nil {
				return docstore.ErrBadDocument.WithCause(err)
			}
			return nil
		})
	})

	return def, err
}

func (s *Store) metricsUpdateLoop() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lsm, vlog := s.db.Size()
			s.metricLSMSize.Set(float64(lsm))
			s.metricVlogSize.Set(float64(vlog))
		case <-s.stopCh:
			return
		}
	}
}

func (s *Store) gcLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for {
				err := s.db.RunValueLogGC(s.cfg.GCThreshold)
				if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
					break
				}
				if err != nil {
					s.logger.Error("value log gc failed", "error", err)
					break
				}
			}
		case <-s.stopCh:
			return
		}
	}
}

func docKey(id string) []byte {
	return []byte(docPrefix + id)
}

func indexKey(design, view string) []byte {
	return []byte(indexPrefix + design + "/" + view)
}

// currentRev returns the stored revision for id, or "" when absent.
func currentRev(txn *badger.Txn, id string) (string, error) {
	item, err := txn.Get(docKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", nil
		}
		return "", docstore.ErrUnavailable.WithCause(err)
	}

	var stored storedDoc
	if err := item.Value(func(val []byte) error {
		return sonic.Unmarshal(val, &stored)
	}); err != nil {
		return "", docstore.ErrBadDocument.WithCause(err)
	}

	return stored.Rev, nil
}

func decodeDoc(id string, raw []byte) (*docstore.Document, error) {
	var stored storedDoc
	if err := sonic.Unmarshal(raw, &stored); err != nil {
		return nil, docstore.ErrBadDocument.WithCause(err)
	}
	return &docstore.Document{ID: id, Rev: stored.Rev, Fields: stored.Fields}, nil
}

// mapBadgerErr folds transaction-level conflicts into the store taxonomy.
// Errors already in the taxonomy pass through.
func mapBadgerErr(err error) error {
	if err == nil {
		return nil
	}
	var serr *docstore.StoreError
	if errors.As(err, &serr) {
		return err
	}
	if errors.Is(err, badger.ErrConflict) {
		return docstore.ErrConflict.WithCause(err)
	}
	return docstore.ErrUnavailable.WithCause(err)
}

// badgerLogger adapts slog to Badger's logger contract.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
