package batch

import (
	"math"
	"testing"
)

func TestAvg(t *testing.T) {
	cases := []struct {
		in  []float64
		exp float64
	}{
		{[]float64{1, 2, 3, 4, 5}, 3},
		{[]float64{10}, 10},
		{[]float64{}, math.NaN()},
	}
	for _, c := range cases {
		got := Avg(c.in)
		if math.IsNaN(c.exp) {
			if !math.IsNaN(got) {
				t.Fatalf("Avg(%v) = %v, want NaN", c.in, got)
			}
			continue
		}
		if got != c.exp {
			t.Fatalf("Avg(%v) = %v, want %v", c.in, got, c.exp)
		}
	}
}

func TestSumMinMaxLast(t *testing.T) {
	in := []float64{1, 2, 3, 4, 5}
	if got := Sum(in); got != 15 {
		t.Fatalf("Sum = %v, want 15", got)
	}
	if got := Min(in); got != 1 {
		t.Fatalf("Min = %v, want 1", got)
	}
	if got := Max(in); got != 5 {
		t.Fatalf("Max = %v, want 5", got)
	}
	if got := Last(in); got != 5 {
		t.Fatalf("Last = %v, want 5", got)
	}
}

func TestSelectForPath(t *testing.T) {
	cases := []struct {
		path string
		want Name
	}{
		{"web.srv1.cpu.count", NameSum},
		{"web.srv1.cpu.min", NameMin},
		{"web.srv1.cpu.max", NameMax},
		{"web.srv1.cpu.last", NameLst},
		{"web.srv1.cpu.user", NameAvg},
	}
	for _, c := range cases {
		if got := SelectForPath(c.path); got != c.want {
			t.Fatalf("SelectForPath(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}
