package pathidx

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/raintank/corehouse/schema"
	"github.com/raintank/corehouse/stats"
)

// PathRef is one (path, tenant) pair pushed onto the pipeline's
// ingress channel (§6 "channel_for()").
type PathRef struct {
	Tenant string
	Path   string
}

var (
	statIndexCreate  = stats.NewCounter32("index.create")
	statPipelineDrop = stats.NewCounter32("pathidx.pipeline.batch_dropped")
	statMultiGetErr  = stats.NewCounter32("pathidx.pipeline.multiget_error")
	gaugeIngress     = stats.NewGauge32("pathidx.pipeline.ingress.depth")
)

// Pipeline is the three-stage streaming path indexer (C4): expand →
// filter (multi-get against the index + subpath-cache union) → bulk
// write. Stages are connected by bounded channels, each terminated by
// a partition_or_time batcher (§4.4).
type Pipeline struct {
	client    *IndexClient
	cache     *SubPathCache
	batchSize int
	interval  time.Duration

	ingress chan PathRef
	done    chan struct{}

	retry *retryBuffer
}

// NewPipeline wires up the three stages and starts their goroutines.
// chanSize bounds every inter-stage channel (backpressure, §4.4/§5);
// batchSize and interval configure every stage's batcher.
func NewPipeline(client *IndexClient, cache *SubPathCache, chanSize, batchSize int, interval time.Duration) *Pipeline {
	p := &Pipeline{
		client:    client,
		cache:     cache,
		batchSize: batchSize,
		interval:  interval,
		ingress:   make(chan PathRef, chanSize),
		done:      make(chan struct{}),
		retry:     newRetryBuffer(client, 10*time.Minute),
	}

	batchedRefs := make(chan []PathRef)
	go batch(p.ingress, batchSize, interval, batchedRefs)

	stageAOut := make(chan schema.PathDoc, chanSize)
	go p.stageExpand(batchedRefs, stageAOut)

	batchedDocsB := make(chan []schema.PathDoc)
	go batch(stageAOut, batchSize, interval, batchedDocsB)

	stageBOut := make(chan schema.PathDoc, chanSize)
	go p.stageFilter(batchedDocsB, stageBOut)

	batchedDocsC := make(chan []schema.PathDoc)
	go batch(stageBOut, batchSize, interval, batchedDocsC)

	go p.stageWrite(batchedDocsC, p.done)

	return p
}

// ChannelFor returns the streaming ingress for (path, tenant) pairs
// (§6 "channel_for()"). Callers block when it is full (§5 backpressure).
func (p *Pipeline) ChannelFor() chan<- PathRef {
	return p.ingress
}

// Stop closes the ingress channel and waits for every in-flight batch
// to drain before returning (§5 "shutdown that drains batchers").
func (p *Pipeline) Stop() {
	close(p.ingress)
	<-p.done
	p.retry.stop()
}

// Stage A: expand each (path, tenant) into its decomposition documents,
// deduplicated within the batch by path (§4.4 Stage A).
func (p *Pipeline) stageExpand(in <-chan []PathRef, out chan<- schema.PathDoc) {
	defer close(out)
	for batch := range in {
		gaugeIngress.Set(len(p.ingress))
		seen := make(map[string]struct{})
		for _, ref := range batch {
			for _, doc := range Decompose(ref.Tenant, ref.Path, p.cache) {
				key := doc.Tenant + "\x00" + doc.Path
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				out <- doc
			}
		}
	}
}

// Stage B: multi-get the batch's documents; union shallow existing
// prefixes into the sub-path cache; forward only the ones missing from
// the index (§4.4 Stage B).
func (p *Pipeline) stageFilter(in <-chan []schema.PathDoc, out chan<- schema.PathDoc) {
	defer close(out)
	for docs := range in {
		ids := make([]string, len(docs))
		for i, d := range docs {
			ids[i] = d.ID()
		}
		exist, err := p.client.MultiGet(ids)
		if err != nil {
			log.Warnf("pathidx: multi-get failed, dropping batch of %d: %v", len(docs), err)
			statMultiGetErr.Inc()
			statPipelineDrop.Inc()
			continue
		}

		var shallow []string
		for _, d := range docs {
			if exist[d.ID()] {
				if !d.Leaf && d.Depth <= p.cache.StoreToDepth {
					shallow = append(shallow, d.Path)
				}
				continue
			}
			out <- d
		}
		if len(shallow) > 0 {
			p.cache.Union(shallow)
		}
	}
}

// Stage C: bulk-upsert the batch of missing documents. On failure the
// batch is logged and its documents are queued into the retry buffer,
// which re-sends them on its own timer; a later sample on the same path
// also misses in Stage B and is written again (§4.4 Stage C).
func (p *Pipeline) stageWrite(in <-chan []schema.PathDoc, done chan<- struct{}) {
	defer close(done)
	for docs := range in {
		if err := p.client.BulkUpsert(docs); err != nil {
			log.Warnf("pathidx: bulk upsert failed, will retry via cache misses: %v", err)
			statPipelineDrop.Inc()
			for _, d := range docs {
				p.retry.queue(d)
			}
			continue
		}
		statIndexCreate.Add(len(docs))
	}
}

// Register is the degenerate single-path synchronous API for
// non-streaming callers (§4.4 "Register"): expand, then for each
// document check existence and put it if missing. It never touches
// the sub-path cache.
func (p *Pipeline) Register(tenant, path string) error {
	for _, doc := range Decompose(tenant, path, nil) {
		exists, err := p.client.Exists(doc.ID())
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := p.client.Put(doc); err != nil {
			return err
		}
		statIndexCreate.Inc()
	}
	return nil
}
