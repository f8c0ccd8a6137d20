package stats

import (
	"sync"
	"time"
)

// LatencyHistogram32 tracks summary statistics (min/mean/max/count) for a
// stream of durations, reset on every report. Used for op timings such as
// mdata.cassandra.write.duration.
type LatencyHistogram32 struct {
	sync.Mutex
	min, max, sum time.Duration
	count         uint32
}

func NewLatencyHistogram32(name string) *LatencyHistogram32 {
	return registry.getOrAdd(name, &LatencyHistogram32{}).(*LatencyHistogram32)
}

func (l *LatencyHistogram32) Value(t time.Duration) {
	l.Lock()
	defer l.Unlock()
	if l.count == 0 || t < l.min {
		l.min = t
	}
	if t > l.max {
		l.max = t
	}
	l.sum += t
	l.count++
}

func (l *LatencyHistogram32) ReportGraphite(prefix, buf []byte, now time.Time) []byte {
	l.Lock()
	defer l.Unlock()
	if l.count == 0 {
		return buf
	}
	mean := l.sum / time.Duration(l.count)
	buf = WriteUint32(buf, prefix, []byte("min.gauge32"), uint32(l.min/time.Microsecond), now)
	buf = WriteUint32(buf, prefix, []byte("mean.gauge32"), uint32(mean/time.Microsecond), now)
	buf = WriteUint32(buf, prefix, []byte("max.gauge32"), uint32(l.max/time.Microsecond), now)
	buf = WriteUint32(buf, prefix, []byte("values.count32"), l.count, now)
	l.min, l.max, l.sum, l.count = 0, 0, 0, 0
	return buf
}
