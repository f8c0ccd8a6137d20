package pathidx

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/raintank/corehouse/schema"
	"github.com/raintank/corehouse/stats"
)

var retryBufItems = stats.NewGauge32("pathidx.retrybuf.items")

// retryBuffer holds documents whose bulk upsert failed, and retries
// them on a timer, grounded on the teacher's RetryBuffer
// (idx/elasticsearch.RetryBuffer): an inspectable retry path rather
// than relying purely on re-delivery (SPEC_FULL §4). The buffer has no
// size cap: documents that keep failing stay queued.
type retryBuffer struct {
	client *IndexClient
	docs   []schema.PathDoc
	done   chan struct{}
	wg     sync.WaitGroup
	sync.Mutex
}

func newRetryBuffer(client *IndexClient, interval time.Duration) *retryBuffer {
	r := &retryBuffer{client: client, done: make(chan struct{})}
	r.wg.Add(1)
	go r.run(interval)
	return r
}

func (r *retryBuffer) queue(d schema.PathDoc) {
	r.Lock()
	r.docs = append(r.docs, d)
	retryBufItems.Set(len(r.docs))
	r.Unlock()
}

func (r *retryBuffer) retry() {
	r.Lock()
	docs := r.docs
	r.docs = nil
	retryBufItems.Set(0)
	r.Unlock()
	if len(docs) == 0 {
		return
	}
	if err := r.client.BulkUpsert(docs); err != nil {
		log.Warnf("pathidx: retry buffer bulk upsert failed again: %v", err)
		r.Lock()
		r.docs = append(r.docs, docs...)
		retryBufItems.Set(len(r.docs))
		r.Unlock()
	}
}

func (r *retryBuffer) run(interval time.Duration) {
	defer r.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.retry()
		}
	}
}

func (r *retryBuffer) stop() {
	close(r.done)
	r.wg.Wait()
}
