package cloudantstore

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/SteffenDE/connect-cloudant-store/docstore"
	"github.com/SteffenDE/connect-cloudant-store/docstore/couchdb"
	"github.com/SteffenDE/connect-cloudant-store/internal/seal"
	"github.com/SteffenDE/connect-cloudant-store/internal/telemetry/metric"
)

// Defaults applied by New.
const (
	DefaultKeyPrefix            = "sess:"
	DefaultExpiryIndexDesign    = "expired_sessions"
	DefaultExpiryIndexView      = "expired"
	DefaultMaxExpiredPerCleanup = 100
	DefaultProbeInterval        = 5 * time.Second
)

// Options configures a Store.
type Options struct {
	// URL and Database locate the CouchDB/Cloudant database. Ignored when
	// Client is supplied.
	URL      string
	Database string

	// Client reuses a caller-supplied store handle instead of dialing a
	// new one.
	Client docstore.Client

	// KeyPrefix is prepended to session ids to form document ids.
	// Defaults to "sess:".
	KeyPrefix string

	// DefaultTTL is the fallback time-to-live in seconds for payloads
	// without a cookie max-age. Zero means one day.
	DefaultTTL int64

	// DisableTTLRefresh turns Touch into an immediate no-op.
	DisableTTLRefresh bool

	// ExpiryIndexDesign and ExpiryIndexView name the derived expiry index.
	// Default "expired_sessions"/"expired".
	ExpiryIndexDesign string
	ExpiryIndexView   string

	// MaxExpiredPerCleanup bounds one cleanup batch. Default 100.
	MaxExpiredPerCleanup int

	// EncryptionKey, when set, seals payloads at rest with AEAD. Must be
	// 32 bytes.
	EncryptionKey []byte

	// Logger receives structured operation logs. Defaults to slog.Default.
	Logger *slog.Logger

	// Metrics receives operation and cleanup metrics. Optional.
	Metrics *metric.Registry

	// Events receives connect/disconnect/error signals. Defaults to a
	// discarding sink.
	Events EventSink

	// ProbeInterval is the minimum spacing between reachability probes;
	// CheckConnection calls inside the window reuse the last outcome.
	// Default five seconds.
	ProbeInterval time.Duration
}

// Store persists sessions in a revision-versioned document store.
type Store struct {
	client  docstore.Client
	codec   codec
	logger  *slog.Logger
	metrics *metric.Registry
	events  EventSink
	index   docstore.IndexDefinition

	keyPrefix         string
	defaultTTL        int64
	disableTTLRefresh bool
	maxExpired        int

	probeLimit *rate.Limiter
	probeMu    sync.Mutex
	lastProbe  error

	now func() time.Time
}

// New creates a Store. When Options.Client is nil a CouchDB HTTP client is
// dialed from URL and Database.
func New(opts Options) (*Store, error) {
	client := opts.Client
	if client == nil {
		if opts.URL == "" || opts.Database == "" {
			return nil, errors.New("cloudantstore: URL and Database are required without an external client")
		}
		var err error
		client, err = couchdb.New(couchdb.Config{URL: opts.URL, Database: opts.Database})
		if err != nil {
			return nil, err
		}
	}

	var sealer *seal.Sealer
	if len(opts.EncryptionKey) > 0 {
		var err error
		sealer, err = seal.New(opts.EncryptionKey)
		if err != nil {
			return nil, err
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	events := opts.Events
	if events == nil {
		events = NoOpSink{}
	}

	keyPrefix := opts.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	design := opts.ExpiryIndexDesign
	if design == "" {
		design = DefaultExpiryIndexDesign
	}
	view := opts.ExpiryIndexView
	if view == "" {
		view = DefaultExpiryIndexView
	}
	maxExpired := opts.MaxExpiredPerCleanup
	if maxExpired <= 0 {
		maxExpired = DefaultMaxExpiredPerCleanup
	}
	probeInterval := opts.ProbeInterval
	if probeInterval <= 0 {
		probeInterval = DefaultProbeInterval
	}

	return &Store{
		client:  client,
		codec:   codec{sealer: sealer},
		logger:  logger,
		metrics: opts.Metrics,
		events:  events,
		index: docstore.IndexDefinition{
			Design:        design,
			View:          view,
			ModifiedField: fieldModified,
			TTLField:      fieldTTL,
		},
		keyPrefix:         keyPrefix,
		defaultTTL:        opts.DefaultTTL,
		disableTTLRefresh: opts.DisableTTLRefresh,
		maxExpired:        maxExpired,
		probeLimit:        rate.NewLimiter(rate.Every(probeInterval), 1),
		now:               time.Now,
	}, nil
}

// key builds the document id for a session id.
func (s *Store) key(sessionID string) string {
	return s.keyPrefix + sessionID
}
