package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean, NaN for no values.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

// StdDev returns the sample standard deviation (n-1), NaN below 2 values.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.StdDev(xs, nil)
}

// Median returns the middle value, averaging the two middle values of an
// even-length sample. NaN for no values.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// OutlierMask marks the values within mean ± k·sd. Samples of fewer than two
// values are kept whole.
func OutlierMask(xs []float64, k float64) []bool {
	keep := make([]bool, len(xs))
	if len(xs) < 2 {
		for i := range keep {
			keep[i] = true
		}
		return keep
	}
	mean, sd := Mean(xs), StdDev(xs)
	lo, hi := mean-k*sd, mean+k*sd
	for i, v := range xs {
		keep[i] = v >= lo && v <= hi
	}
	return keep
}
