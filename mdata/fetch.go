package mdata

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raintank/corehouse/batch"
	cerrors "github.com/raintank/corehouse/errors"
)

// FetchRequest is C9's input: an optional aggregation override, the
// paths to read, and the resolution/time window to read them at.
type FetchRequest struct {
	Agg    batch.Name // "" means "use the per-path default"
	Paths  []string
	Tenant string
	Rollup int32
	Period int32
	From   int64
	To     int64
}

// FetchResult is C9's output (§4.9 step 4).
type FetchResult struct {
	From   int64
	To     int64
	Step   int32
	Series map[string][]float64
}

// MaxPoints is the size hint named in §4.9: the number of points a
// fetch will return per path, times the number of paths, useful for
// clients that want to bound a query ahead of time.
func (r FetchRequest) MaxPoints() int64 {
	grid := (r.To-r.From)/int64(r.Rollup) + 1
	return grid * int64(len(r.Paths))
}

// reader is the capability fetch needs from the store; CassandraWriter
// satisfies it via ReadRange.
type reader interface {
	ReadRange(tenant string, rollup, period int32, path string, from, to int64) ([]Row, error)
}

// fetch issues one parallel read per path, each under its own
// FetchTimeout deadline, collapses each row's value list with the
// selected reducer, and aligns the results onto one shared timegrid
// (C9, §4.9). Every path gets its own goroutine; the number of
// concurrent reads is not capped.
func fetch(store reader, req FetchRequest) (FetchResult, error) {
	min := alignDown(req.From, req.Rollup)
	now := time.Now().Unix()
	to := req.To
	if now < to {
		to = now
	}
	max := alignDown(to, req.Rollup)

	series := make(map[string][]float64, len(req.Paths))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(context.Background())

	for _, path := range req.Paths {
		path := path
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, FetchTimeout)
			defer cancel()
			rows, err := readOne(pctx, store, req.Tenant, req.Rollup, req.Period, path, min, max)
			if err != nil {
				return err
			}
			aligned := alignSeries(rows, min, max, req.Rollup, reducerFor(req.Agg, path))
			mu.Lock()
			series[path] = aligned
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return FetchResult{}, err
	}

	return FetchResult{From: min, To: max, Step: req.Rollup, Series: series}, nil
}

// readOne performs the per-path read, translating a context deadline
// into the named FetchTimeout error (§4.9, §7).
func readOne(ctx context.Context, store reader, tenant string, rollup, period int32, path string, from, to int64) ([]Row, error) {
	type result struct {
		rows []Row
		err  error
	}
	done := make(chan result, 1)
	go func() {
		rows, err := store.ReadRange(tenant, rollup, period, path, from, to)
		done <- result{rows, err}
	}()

	select {
	case <-ctx.Done():
		return nil, cerrors.FetchTimeout{Path: path, Timeout: FetchTimeout.String()}
	case r := <-done:
		return r.rows, r.err
	}
}

// reducerFor returns the explicit override if given, else the
// per-path suffix-selected reducer (§4.9 step 2).
func reducerFor(override batch.Name, path string) batch.AggFunc {
	if override != "" {
		return batch.Func(override)
	}
	return batch.Func(batch.SelectForPath(path))
}

// alignDown floors t to the nearest multiple of step (§4.9 step 3).
func alignDown(t int64, step int32) int64 {
	s := int64(step)
	if s <= 0 {
		return t
	}
	return t - (t % s)
}

// alignSeries collapses each row to a scalar with reduce, then places
// it onto the [min, max] timegrid stepped by rollup; grid points with
// no matching row are left as NaN.
func alignSeries(rows []Row, min, max int64, rollup int32, reduce batch.AggFunc) []float64 {
	byTime := make(map[int64]float64, len(rows))
	for _, r := range rows {
		byTime[r.Time] = reduce(r.Values)
	}
	n := int((max-min)/int64(rollup)) + 1
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		t := min + int64(i)*int64(rollup)
		if v, ok := byTime[t]; ok {
			out[i] = v
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}
