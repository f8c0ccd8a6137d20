package mdata

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/raintank/corehouse/batch"
	"github.com/raintank/corehouse/schema"
	"github.com/raintank/corehouse/stats"
)

var (
	statCacheEntries = stats.NewGauge32("mdata.rollupcache.entries")
	statCacheFlushed = stats.NewCounter32("mdata.rollupcache.flushed")
	statCachePut     = stats.NewCounter32("mdata.rollupcache.put")
)

const numShards = 32

// bucketKey identifies one (tenant, rollup, period, bucket-time, path)
// entry (§4.7).
type bucketKey struct {
	tenant string
	rollup int32
	period int32
	bucket int64
	path   string
}

// bucket accumulates raw values until the sweeper closes it.
type bucket struct {
	ttl        int32
	values     []float64
	lastUpdate time.Time
}

// RollupCache is the in-memory aggregation cache (C7): a sharded map
// keyed by (tenant, rollup, period, bucket-time, path), flushed to the
// downstream store on bucket close. Grounded on the teacher's
// Aggregator (mdata/aggregator.go), generalized from its fixed
// min/max/sum/cnt quartet to one configurable reducer per path
// (batch.SelectForPath), and from per-metric aggregator instances to a
// single sharded map so arbitrary cardinality doesn't need one
// goroutine per path.
type RollupCache struct {
	shards []*shard
	out    chan<- schema.Sample
	grace  time.Duration
	done   chan struct{}
	wg     sync.WaitGroup
}

type shard struct {
	sync.Mutex
	buckets map[bucketKey]*bucket
}

// NewRollupCache starts a sweeper goroutine that closes and flushes
// buckets older than grace past their boundary, writing the flushed
// samples onto out (normally the metric store's ingress channel).
func NewRollupCache(out chan<- schema.Sample, grace, sweepInterval time.Duration) *RollupCache {
	c := &RollupCache{
		shards: make([]*shard, numShards),
		out:    out,
		grace:  grace,
		done:   make(chan struct{}),
	}
	for i := range c.shards {
		c.shards[i] = &shard{buckets: make(map[bucketKey]*bucket)}
	}
	c.wg.Add(1)
	go c.sweep(sweepInterval)
	return c
}

// shardFor partitions by hash(tenant, path) so map access is
// serialized per shard rather than behind one global lock (§4.7
// "Concurrency").
func (c *RollupCache) shardFor(tenant, path string) *shard {
	h := fnv.New32a()
	h.Write([]byte(tenant))
	h.Write([]byte{0})
	h.Write([]byte(path))
	return c.shards[h.Sum32()%uint32(len(c.shards))]
}

// Put appends sample's value into its bucket, creating the bucket on
// first write (§4.7 "put!(sample)"). The caller has already computed
// the sample's Time as its bucket-time (rollup-aligned).
func (c *RollupCache) Put(s schema.Sample) {
	sh := c.shardFor(s.Tenant, s.Path)
	k := bucketKey{tenant: s.Tenant, rollup: s.Rollup, period: s.Period, bucket: s.Time, path: s.Path}

	sh.Lock()
	b, ok := sh.buckets[k]
	if !ok {
		b = &bucket{ttl: s.TTL}
		sh.buckets[k] = b
		statCacheEntries.Inc()
	}
	b.values = append(b.values, s.Metric)
	b.lastUpdate = time.Now()
	sh.Unlock()
	statCachePut.Inc()
}

// sweep periodically closes and flushes any bucket whose window has
// aged past grace (§4.7 "background sweeper").
func (c *RollupCache) sweep(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			c.flushAll()
			return
		case <-ticker.C:
			c.sweepOnce()
		}
	}
}

func (c *RollupCache) sweepOnce() {
	now := time.Now()
	for _, sh := range c.shards {
		sh.Lock()
		var closed []struct {
			k bucketKey
			b *bucket
		}
		for k, b := range sh.buckets {
			if now.Sub(time.Unix(k.bucket+int64(k.rollup), 0)) < c.grace {
				continue
			}
			delete(sh.buckets, k)
			statCacheEntries.Dec()
			closed = append(closed, struct {
				k bucketKey
				b *bucket
			}{k, b})
		}
		sh.Unlock()
		for _, item := range closed {
			c.emit(item.k, item.b)
		}
	}
}

// flushAll drains every shard unconditionally, used on Stop (§5
// "shutdown that drains batchers").
func (c *RollupCache) flushAll() {
	for _, sh := range c.shards {
		sh.Lock()
		items := sh.buckets
		sh.buckets = make(map[bucketKey]*bucket)
		sh.Unlock()
		for k, b := range items {
			c.emit(k, b)
		}
	}
}

// emit reduces a closed bucket with its path's configured reducer and
// writes one sample at the bucket's time onto the downstream channel
// (§4.7 "Flushing").
func (c *RollupCache) emit(k bucketKey, b *bucket) {
	reducer := batch.Func(batch.SelectForPath(k.path))
	v := reducer(b.values)
	statCacheFlushed.Inc()
	c.out <- schema.Sample{
		Tenant: k.tenant,
		Path:   k.path,
		Time:   k.bucket,
		Metric: v,
		Rollup: k.rollup,
		Period: k.period,
		TTL:    b.ttl,
	}
}

// Stop drains every shard (flushing every open bucket regardless of
// age) and stops the sweeper.
func (c *RollupCache) Stop() {
	close(c.done)
	c.wg.Wait()
}
