package mdata

import (
	"testing"
	"time"

	"github.com/raintank/corehouse/schema"
)

func TestRollupCachePutAccumulatesAndFlushes(t *testing.T) {
	out := make(chan schema.Sample, 10)
	c := NewRollupCache(out, 0, time.Hour) // sweep interval irrelevant, we flush via Stop
	bucketTime := int64(1000)

	for _, v := range []float64{1, 2, 3, 4, 5, 6} {
		c.Put(schema.Sample{Tenant: "acme", Path: "a.b.avg", Time: bucketTime, Metric: v, Rollup: 60, Period: 100, TTL: 3600})
	}
	c.Stop()

	select {
	case s := <-out:
		if s.Metric != 3.5 {
			t.Fatalf("expected avg 3.5, got %v", s.Metric)
		}
		if s.Time != bucketTime || s.Tenant != "acme" || s.Path != "a.b.avg" {
			t.Fatalf("unexpected flushed sample: %+v", s)
		}
	default:
		t.Fatalf("expected a flushed sample after Stop")
	}
}

func TestRollupCacheUsesPerPathReducer(t *testing.T) {
	out := make(chan schema.Sample, 10)
	c := NewRollupCache(out, 0, time.Hour)

	for _, v := range []float64{1, 2, 3} {
		c.Put(schema.Sample{Tenant: "acme", Path: "a.b.count", Time: 1000, Metric: v, Rollup: 60, Period: 100})
	}
	c.Stop()

	s := <-out
	if s.Metric != 6 {
		t.Fatalf("expected sum reducer to yield 6 for a .count path, got %v", s.Metric)
	}
}

func TestRollupCacheShardsBySeparateBucketKeys(t *testing.T) {
	out := make(chan schema.Sample, 10)
	c := NewRollupCache(out, 0, time.Hour)

	c.Put(schema.Sample{Tenant: "acme", Path: "p", Time: 1000, Metric: 1, Rollup: 60, Period: 100})
	c.Put(schema.Sample{Tenant: "acme", Path: "p", Time: 1060, Metric: 2, Rollup: 60, Period: 100})
	c.Stop()

	seen := map[int64]float64{}
	for i := 0; i < 2; i++ {
		s := <-out
		seen[s.Time] = s.Metric
	}
	if seen[1000] != 1 || seen[1060] != 2 {
		t.Fatalf("expected two independent buckets, got %+v", seen)
	}
}
