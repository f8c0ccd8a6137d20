// Package batch implements the pure reducers (C1) used both by the
// rollup cache to collapse a bucket's accumulated samples and by fetch
// to collapse a stored value list into one scalar per timestamp.
package batch

import "math"

// AggFunc reduces a list of values into one scalar.
type AggFunc func(in []float64) float64

func Avg(in []float64) float64 {
	valid := 0
	sum := float64(0)
	for _, v := range in {
		if !math.IsNaN(v) {
			valid++
			sum += v
		}
	}
	if valid == 0 {
		return math.NaN()
	}
	return sum / float64(valid)
}

func Sum(in []float64) float64 {
	valid := false
	sum := float64(0)
	for _, v := range in {
		if !math.IsNaN(v) {
			valid = true
			sum += v
		}
	}
	if !valid {
		return math.NaN()
	}
	return sum
}

func Min(in []float64) float64 {
	min := math.Inf(1)
	valid := false
	for _, v := range in {
		if !math.IsNaN(v) {
			valid = true
			if v < min {
				min = v
			}
		}
	}
	if !valid {
		return math.NaN()
	}
	return min
}

func Max(in []float64) float64 {
	max := math.Inf(-1)
	valid := false
	for _, v := range in {
		if !math.IsNaN(v) {
			valid = true
			if v > max {
				max = v
			}
		}
	}
	if !valid {
		return math.NaN()
	}
	return max
}

func Last(in []float64) float64 {
	last := math.NaN()
	for _, v := range in {
		if !math.IsNaN(v) {
			last = v
		}
	}
	return last
}

// Name identifies a reducer for configuration and per-path suffix
// selection (§4.9: "paths ending .count sum, .min take min, else average").
type Name string

const (
	NameAvg Name = "avg"
	NameSum Name = "sum"
	NameMin Name = "min"
	NameMax Name = "max"
	NameLst Name = "last"
)

// Func returns the AggFunc for a reducer name, defaulting to Avg for
// anything unrecognized.
func Func(n Name) AggFunc {
	switch n {
	case NameSum:
		return Sum
	case NameMin:
		return Min
	case NameMax:
		return Max
	case NameLst:
		return Last
	default:
		return Avg
	}
}

// suffixRules maps a path's trailing segment to the reducer that
// should collapse its stored value lists. Checked in order; the first
// match wins. Unmatched paths default to NameAvg.
var suffixRules = []struct {
	suffix string
	name   Name
}{
	{".count", NameSum},
	{".sum", NameSum},
	{".min", NameMin},
	{".max", NameMax},
	{".last", NameLst},
}

// SelectForPath returns the reducer a path should use when no explicit
// override was given, chosen by its name suffix (§4.9).
func SelectForPath(path string) Name {
	for _, rule := range suffixRules {
		if hasSuffix(path, rule.suffix) {
			return rule.name
		}
	}
	return NameAvg
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
