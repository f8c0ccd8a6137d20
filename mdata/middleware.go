package mdata

import (
	"time"

	"github.com/raintank/corehouse/schema"
)

// Metricstore is the external contract named in §6: ingest surfaces
// (insert, channel_for) plus the read surface (fetch). Middleware
// composes a CassandraWriter (C6) and a RollupCache (C7) behind this
// one interface (C8).
type Metricstore interface {
	Insert(s schema.Sample) error
	ChannelFor() chan<- schema.Sample
	Fetch(req FetchRequest) (FetchResult, error)
	Stop()
}

// Store is the capability Middleware needs from the metric store:
// CassandraWriter satisfies it directly. Kept as an interface (rather
// than the concrete *CassandraWriter) so tests can substitute a fake
// without a live cassandra session.
type Store interface {
	Insert(s schema.Sample) error
	ChannelFor() chan<- schema.Sample
	ReadRange(tenant string, rollup, period int32, path string, from, to int64) ([]Row, error)
	Stop()
}

// Middleware wraps a Store and a RollupCache behind one Metricstore
// contract (C8, §4.8). On every sample, the base resolution reaches
// the store; every non-base resolution goes to the rollup cache,
// bucketed by that resolution's own rollup-to alignment.
type Middleware struct {
	store  Store
	cache  *RollupCache
	config schema.RollupConfig

	ingress chan schema.Sample
	done    chan struct{}
}

// NewMiddleware wires a store and a rollup cache together under the
// given resolution set. Reads are always delegated to store directly
// (§4.8 "Reads are delegated directly to the underlying store").
func NewMiddleware(store Store, config schema.RollupConfig, grace, sweepInterval time.Duration, chanSize int) *Middleware {
	m := &Middleware{
		store:   store,
		config:  config,
		ingress: make(chan schema.Sample, chanSize),
		done:    make(chan struct{}),
	}
	m.cache = NewRollupCache(store.ChannelFor(), grace, sweepInterval)
	go m.run()
	return m
}

// ChannelFor is the streaming ingress for samples at any configured
// resolution (§6 "channel_for()").
func (m *Middleware) ChannelFor() chan<- schema.Sample {
	return m.ingress
}

// Insert is the synchronous single-point write API (§6 "insert(...)"):
// a base-resolution sample is written straight to the store (bypassing
// its batcher, since the caller is explicitly asking for a single,
// immediate write) and deposited into the cache for every non-base
// resolution; a non-base sample only ever reaches the cache.
func (m *Middleware) Insert(s schema.Sample) error {
	base, hasBase := m.config.Base()
	if hasBase && s.Rollup == base.Rollup {
		err := m.store.Insert(s)
		if err != nil {
			statWriteFail.Inc()
		}
		for _, r := range m.config.NonBase() {
			m.cache.Put(bucketed(s, r))
		}
		return err
	}
	m.cacheOnly(s)
	return nil
}

func (m *Middleware) run() {
	defer close(m.done)
	for s := range m.ingress {
		m.fanOutStream(s)
	}
}

// fanOutStream implements §4.8's rule for samples arriving via the
// streaming ingress: a base-resolution sample is pushed onto the
// store's own ingress channel, so it is grouped and written by the
// same batcher (§4.6) as every other sample rather than bypassing it
// with a synchronous write, and is also deposited into the cache for
// every non-base resolution; a non-base sample only ever reaches the
// cache, at its own matching resolution.
func (m *Middleware) fanOutStream(s schema.Sample) {
	base, hasBase := m.config.Base()
	if hasBase && s.Rollup == base.Rollup {
		m.store.ChannelFor() <- s
		for _, r := range m.config.NonBase() {
			m.cache.Put(bucketed(s, r))
		}
		return
	}
	m.cacheOnly(s)
}

// cacheOnly deposits s into the cache bucket of whichever configured
// resolution it matches, if any.
func (m *Middleware) cacheOnly(s schema.Sample) {
	for _, r := range m.config.Rollups {
		if r.Rollup == s.Rollup {
			m.cache.Put(bucketed(s, r))
			return
		}
	}
}

// bucketed re-times s onto rollup r's own bucket boundary and carries
// r's period/ttl forward.
func bucketed(s schema.Sample, r schema.RollupDef) schema.Sample {
	s.Time = r.RollupTo(s.Time)
	s.Rollup = r.Rollup
	s.Period = r.Period
	s.TTL = r.TTL
	return s
}

// Stop drains the ingress, the rollup cache, and the underlying store,
// in that order, so every in-flight sample reaches cassandra before
// the connection closes (§5 shutdown draining).
func (m *Middleware) Stop() {
	close(m.ingress)
	<-m.done
	m.cache.Stop()
	m.store.Stop()
}

// Fetch delegates to the fetch/align implementation (C9).
func (m *Middleware) Fetch(req FetchRequest) (FetchResult, error) {
	return fetch(m.store, req)
}
