package stats

import (
	"sync/atomic"
	"time"
)

// Counter32 is a monotonically-increasing diagnostic counter, e.g.
// index.create, store.success, store.error.
type Counter32 struct {
	val uint32
}

func NewCounter32(name string) *Counter32 {
	return registry.getOrAdd(name, &Counter32{}).(*Counter32)
}

func (c *Counter32) Inc() {
	atomic.AddUint32(&c.val, 1)
}

func (c *Counter32) Add(val int) {
	atomic.AddUint32(&c.val, uint32(val))
}

func (c *Counter32) Get() uint32 {
	return atomic.LoadUint32(&c.val)
}

func (c *Counter32) ReportGraphite(prefix, buf []byte, now time.Time) []byte {
	return WriteUint32(buf, prefix, []byte("counter32"), atomic.LoadUint32(&c.val), now)
}
