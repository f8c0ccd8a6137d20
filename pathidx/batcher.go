package pathidx

import "time"

// batch reads items from in and groups them into slices of at most
// size items, also flushing any partial batch of at least one item on
// every tick of a fixed interval ticker (the ticker is not reset by a
// size-triggered flush). This is the
// partition_or_time(size, interval) primitive named in REDESIGN FLAGS
// §9, used by every stage of the pipeline (§4.4).
//
// batch returns when in is closed, after flushing any partial batch.
func batch[T any](in <-chan T, size int, interval time.Duration, out chan<- []T) {
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
