package pathidx

import (
	"github.com/raintank/corehouse/schema"
)

// PathStore is the external surface named in §6 "Path store contract":
// register, channel_for, prefixes, lookup. It composes a Pipeline
// (streaming register/channel_for) with a Query (prefixes/lookup)
// against one shared IndexClient and SubPathCache.
type PathStore struct {
	client   *IndexClient
	cache    *SubPathCache
	pipeline *Pipeline
	query    *Query
}

// New builds a path store and starts its pipeline goroutines and bulk
// indexer. Callers must call Stop to drain outstanding work on shutdown.
func New(cfg *Config) (*PathStore, error) {
	client := NewIndexClient(cfg.hostList(), cfg.User, cfg.Pass, cfg.Index, cfg.MaxConns, cfg.MaxBufferDocs, cfg.BufferDelayMax)
	if err := client.EnsureIndex(); err != nil {
		return nil, err
	}
	client.Start()

	cache := NewSubPathCache(cfg.StoreToDepth)
	pipeline := NewPipeline(client, cache, cfg.ChanSize, cfg.BatchSize, cfg.BatchInterval)
	query := NewQuery(client, cfg.QueryPathsThreshold)

	return &PathStore{client: client, cache: cache, pipeline: pipeline, query: query}, nil
}

// Register is the synchronous single-path index update (§6 "register").
func (s *PathStore) Register(tenant, path string) error {
	return s.pipeline.Register(tenant, path)
}

// ChannelFor is the streaming ingress for (path, tenant) pairs
// (§6 "channel_for()").
func (s *PathStore) ChannelFor() chan<- PathRef {
	return s.pipeline.ChannelFor()
}

// Prefixes lists metrics and intermediate nodes matching glob within
// tenant (§6 "prefixes(tenant, glob)").
func (s *PathStore) Prefixes(tenant, glob string) ([]schema.PathDoc, error) {
	return s.query.Prefixes(tenant, glob)
}

// Lookup lists only the leaf paths matching glob within tenant
// (§6 "lookup(tenant, glob)").
func (s *PathStore) Lookup(tenant, glob string) ([]string, error) {
	return s.query.Lookup(tenant, glob)
}

// Stop drains the pipeline and stops the bulk indexer.
func (s *PathStore) Stop() {
	s.pipeline.Stop()
	s.client.Stop()
}
