// Package odpstore opens the climate datasets of the ESA CCI Open Data
// Portal as lazy, chunked zarr cubes. A Store searches and describes the
// portal's catalog; opening a dataset yields a read-only key/value store
// speaking zarr v2, fetching chunks over Opendap on demand.
package odpstore

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/cci-tools/odpstore/internal/cache"
	"github.com/cci-tools/odpstore/internal/cache/memory"
	"github.com/cci-tools/odpstore/internal/cache/redisstore"
	"github.com/cci-tools/odpstore/internal/chunkstore"
	"github.com/cci-tools/odpstore/internal/core/config"
	"github.com/cci-tools/odpstore/internal/core/httpclient"
	"github.com/cci-tools/odpstore/internal/core/model"
	"github.com/cci-tools/odpstore/internal/logger"
	"github.com/cci-tools/odpstore/internal/odp"
	"github.com/cci-tools/odpstore/internal/store"
	"github.com/cci-tools/odpstore/internal/zarraccess"
)

// Re-exported core types. The methods of Store and ChunkStore form the
// public API surface.
type (
	Store             = store.Store
	StoreError        = store.StoreError
	DataID            = store.DataID
	Schema            = store.Schema
	ChunkStore        = chunkstore.Store
	ZarrStore         = zarraccess.Store
	Config            = config.Config
	OpenParams        = model.OpenParams
	SearchParams      = model.SearchParams
	BBox              = model.BBox
	TimeRange         = model.TimeRange
	TypeSpecifier     = model.TypeSpecifier
	DatasetDescriptor = model.DatasetDescriptor
)

const (
	TypeDataset = model.TypeDataset
	TypeCube    = model.TypeCube
)

// FromEnv reads the store configuration from CCI_* environment variables,
// falling back to the public portal endpoints.
func FromEnv() Config { return config.FromEnv() }

// StoreParamsSchema describes the accepted configuration parameters.
func StoreParamsSchema() Schema { return store.StoreParamsSchema() }

// SearchParamsSchema describes the accepted search filters.
func SearchParamsSchema() Schema { return store.SearchParamsSchema() }

type options struct {
	cfg       *config.Config
	log       *zerolog.Logger
	hc        *http.Client
	withCache bool
}

// Option configures New.
type Option func(*options)

// WithConfig overrides the environment-derived configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = &cfg }
}

// WithLogger installs a custom logger; the default logs to stderr at the
// configured level.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = &log }
}

// WithHTTPClient overrides the outbound HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.hc = hc }
}

// WithChunkCache enables the configured chunk cache: an in-memory LRU,
// backed by Redis when a Redis address is configured.
func WithChunkCache() Option {
	return func(o *options) { o.withCache = true }
}

// New builds a Store against the portal's opensearch endpoint.
func New(ctx context.Context, opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	cfg := config.FromEnv()
	if o.cfg != nil {
		cfg = *o.cfg
	}
	log := logger.Build(logger.Config{Level: cfg.LogLevel, Component: "odpstore"}, os.Stderr)
	if o.log != nil {
		log = *o.log
	}

	hc := httpclient.New(o.hc, httpclient.RetryPolicy{
		NumRetries:     cfg.NumRetries,
		BackoffBase:    cfg.RetryBackoffBase,
		BackoffMax:     cfg.RetryBackoffMax,
		EnableWarnings: cfg.EnableWarnings,
	}, log)
	cat := odp.NewCatalogue(hc, cfg.EndpointURL, log)

	storeOpts := []store.Option{store.WithLogger(log)}
	if o.withCache {
		chunkCache, err := buildChunkCache(ctx, cfg)
		if err != nil {
			return nil, err
		}
		storeOpts = append(storeOpts, store.WithChunkCache(chunkCache))
	}
	return store.New(cat, storeOpts...), nil
}

// NewZarrStore connects to the portal's precomputed zarr cubes on object
// storage.
func NewZarrStore(opts ...Option) (*ZarrStore, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	cfg := config.FromEnv()
	if o.cfg != nil {
		cfg = *o.cfg
	}
	return zarraccess.New(cfg)
}

func buildChunkCache(ctx context.Context, cfg Config) (cache.ChunkCache, error) {
	mem, err := memory.New(cfg.ChunkCache.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("build chunk cache: %w", err)
	}
	if cfg.ChunkCache.RedisAddr == "" {
		return mem, nil
	}
	rd, err := redisstore.New(ctx, cfg.ChunkCache.RedisAddr, cfg.ChunkCache.TTL,
		redisstore.WithDialTimeout(cfg.ChunkCache.OpTimeout),
		redisstore.WithReadTimeout(cfg.ChunkCache.OpTimeout),
		redisstore.WithWriteTimeout(cfg.ChunkCache.OpTimeout))
	if err != nil {
		return nil, fmt.Errorf("build chunk cache: %w", err)
	}
	return cache.NewTiered(mem, rd), nil
}
