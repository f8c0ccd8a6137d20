package mdata

import "time"

// batchItems groups items arriving on in into slices of at most size,
// also flushing any partial batch on every tick of a fixed interval
// ticker (the ticker is not reset by a size-triggered flush). Same
// partition_or_time(size, interval) primitive named in REDESIGN FLAGS
// §9 that the path index pipeline uses (pathidx.batch); kept as its
// own copy here since the two packages don't otherwise share code.
func batchItems[T any](in <-chan T, size int, interval time.Duration, out chan<- []T) {
	defer close(out)
	buf := make([]T, 0, size)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	flush := func() {
		if len(buf) == 0 {
			return
		}
		out <- buf
		buf = make([]T, 0, size)
	}

	for {
		select {
		case item, ok := <-in:
			if !ok {
				flush()
				return
			}
			buf = append(buf, item)
			if len(buf) >= size {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
