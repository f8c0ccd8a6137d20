package mdata

import (
	"math"
	"testing"

	"github.com/raintank/corehouse/batch"
)

type fakeReader struct {
	rows map[string][]Row
}

func (f *fakeReader) ReadRange(tenant string, rollup, period int32, path string, from, to int64) ([]Row, error) {
	return f.rows[path], nil
}

func TestFetchAlignsOntoTimegrid(t *testing.T) {
	r := &fakeReader{rows: map[string][]Row{
		"a.b.c": {
			{Time: 1000, Values: []float64{1, 3}}, // avg -> 2
			{Time: 1020, Values: []float64{5}},
		},
	}}

	result, err := fetch(r, FetchRequest{
		Paths:  []string{"a.b.c"},
		Tenant: "acme",
		Rollup: 10,
		Period: 100,
		From:   1000,
		To:     1020,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.From != 1000 || result.To != 1020 || result.Step != 10 {
		t.Fatalf("unexpected grid bounds: %+v", result)
	}
	series := result.Series["a.b.c"]
	if len(series) != 3 {
		t.Fatalf("expected 3 grid points, got %d", len(series))
	}
	if series[0] != 2 {
		t.Fatalf("expected point 0 to be 2, got %v", series[0])
	}
	if !math.IsNaN(series[1]) {
		t.Fatalf("expected point 1 (no data) to be NaN, got %v", series[1])
	}
	if series[2] != 5 {
		t.Fatalf("expected point 2 to be 5, got %v", series[2])
	}
}

func TestFetchUsesPerPathReducerBySuffix(t *testing.T) {
	r := &fakeReader{rows: map[string][]Row{
		"a.b.count": {{Time: 1000, Values: []float64{1, 2, 3}}},
	}}
	result, err := fetch(r, FetchRequest{
		Paths:  []string{"a.b.count"},
		Tenant: "acme",
		Rollup: 10,
		Period: 100,
		From:   1000,
		To:     1000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Series["a.b.count"][0] != 6 {
		t.Fatalf("expected sum reducer to yield 6, got %v", result.Series["a.b.count"][0])
	}
}

func TestFetchAggOverrideWins(t *testing.T) {
	r := &fakeReader{rows: map[string][]Row{
		"a.b.avg": {{Time: 1000, Values: []float64{1, 2, 3}}},
	}}
	result, err := fetch(r, FetchRequest{
		Agg:    batch.NameMax,
		Paths:  []string{"a.b.avg"},
		Tenant: "acme",
		Rollup: 10,
		From:   1000,
		To:     1000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Series["a.b.avg"][0] != 3 {
		t.Fatalf("expected max override to yield 3, got %v", result.Series["a.b.avg"][0])
	}
}

func TestFetchRequestMaxPoints(t *testing.T) {
	req := FetchRequest{Paths: []string{"a", "b"}, Rollup: 10, From: 1000, To: 1020}
	if got := req.MaxPoints(); got != 6 {
		t.Fatalf("expected 3 grid points * 2 paths = 6, got %d", got)
	}
}
