package mdata

import (
	"sync"
	"testing"
	"time"

	"github.com/raintank/corehouse/schema"
)

// fakeStore is a Store that never touches cassandra: Insert records
// calls directly, ChannelFor exposes a buffered channel nothing else
// drains so the test can inspect what landed on it.
type fakeStore struct {
	mu       sync.Mutex
	inserted []schema.Sample
	ch       chan schema.Sample
}

func newFakeStore() *fakeStore {
	return &fakeStore{ch: make(chan schema.Sample, 100)}
}

func (f *fakeStore) Insert(s schema.Sample) error {
	f.mu.Lock()
	f.inserted = append(f.inserted, s)
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) ChannelFor() chan<- schema.Sample { return f.ch }

func (f *fakeStore) ReadRange(tenant string, rollup, period int32, path string, from, to int64) ([]Row, error) {
	return nil, nil
}

func (f *fakeStore) Stop() {}

func (f *fakeStore) drain() []schema.Sample {
	var out []schema.Sample
	for {
		select {
		case s := <-f.ch:
			out = append(out, s)
		default:
			return out
		}
	}
}

func baseAndExtraConfig() schema.RollupConfig {
	return schema.RollupConfig{Rollups: []schema.RollupDef{
		{Rollup: 10, Period: 8640, TTL: 86400, Base: true},
		{Rollup: 60, Period: 1440, TTL: 86400},
	}}
}

// TestMiddlewareStreamingBaseGoesThroughStoreBatcher is spec.md §8's C8
// scenario: base=10s, extra rollup=60s, six samples v=1..6 deposited at
// 10s apart starting at t=0 (all within the [0,60) bucket). The store
// must see all six base samples on its own batched ingress channel
// (never via a direct Insert call, which would bypass the batcher),
// and after Stop flushes the rollup cache, one 60s sample with value
// 3.5 at time 0.
func TestMiddlewareStreamingBaseGoesThroughStoreBatcher(t *testing.T) {
	store := newFakeStore()
	m := NewMiddleware(store, baseAndExtraConfig(), 0, time.Hour, 10)

	for i, v := range []float64{1, 2, 3, 4, 5, 6} {
		m.ChannelFor() <- schema.Sample{
			Tenant: "acme", Path: "a.b.avg",
			Time: int64(i) * 10, Metric: v,
			Rollup: 10, Period: 8640, TTL: 86400,
		}
	}
	m.Stop()

	store.mu.Lock()
	insertCount := len(store.inserted)
	store.mu.Unlock()
	if insertCount != 0 {
		t.Fatalf("expected streaming base samples to bypass Insert entirely, got %d direct Insert calls", insertCount)
	}

	got := store.drain()
	var base, rollup []schema.Sample
	for _, s := range got {
		if s.Rollup == 10 {
			base = append(base, s)
		} else if s.Rollup == 60 {
			rollup = append(rollup, s)
		}
	}

	if len(base) != 6 {
		t.Fatalf("expected 6 raw 10s samples on the store's ingress channel, got %d", len(base))
	}
	if len(rollup) != 1 {
		t.Fatalf("expected exactly 1 flushed 60s sample, got %d", len(rollup))
	}
	if rollup[0].Metric != 3.5 {
		t.Fatalf("expected flushed 60s sample value 3.5, got %v", rollup[0].Metric)
	}
	if rollup[0].Time != 0 {
		t.Fatalf("expected flushed 60s sample at bucket time 0, got %v", rollup[0].Time)
	}
}

// TestMiddlewareStreamingNonBaseGoesOnlyToCache verifies a non-base
// sample arriving via the streaming ingress never reaches the store at
// all (neither Insert nor the channel) until the cache flushes it.
func TestMiddlewareStreamingNonBaseGoesOnlyToCache(t *testing.T) {
	store := newFakeStore()
	m := NewMiddleware(store, baseAndExtraConfig(), 0, time.Hour, 10)

	m.ChannelFor() <- schema.Sample{Tenant: "acme", Path: "a.b.avg", Time: 0, Metric: 9, Rollup: 60, Period: 1440, TTL: 86400}
	m.Stop()

	store.mu.Lock()
	insertCount := len(store.inserted)
	store.mu.Unlock()
	if insertCount != 0 {
		t.Fatalf("expected non-base sample to never call Insert, got %d calls", insertCount)
	}

	got := store.drain()
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 sample to reach the store (the cache flush), got %d", len(got))
	}
	if got[0].Metric != 9 {
		t.Fatalf("expected flushed value 9, got %v", got[0].Metric)
	}
}

// TestMiddlewareInsertUsesSyncWrite verifies the synchronous Insert API
// (§6 "insert(...)") still writes the base resolution straight to the
// store rather than through its channel, since a caller using Insert is
// explicitly asking for an immediate write.
func TestMiddlewareInsertUsesSyncWrite(t *testing.T) {
	store := newFakeStore()
	m := NewMiddleware(store, baseAndExtraConfig(), 0, time.Hour, 10)

	if err := m.Insert(schema.Sample{Tenant: "acme", Path: "a.b.avg", Time: 0, Metric: 1, Rollup: 10, Period: 8640, TTL: 86400}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Stop()

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.inserted) != 1 {
		t.Fatalf("expected exactly 1 direct Insert call, got %d", len(store.inserted))
	}
	if store.inserted[0].Metric != 1 {
		t.Fatalf("unexpected inserted sample: %+v", store.inserted[0])
	}
}
