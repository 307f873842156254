package cluster

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Median returns the middle value of xs, averaging the two middle values
// for even lengths. xs is not modified. The median of nothing is 0.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// SampleStdDev is the standard deviation with one degree of freedom
// removed. Fewer than two samples have no spread and yield 0.
func SampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

// Mean returns the arithmetic mean of xs, or 0 for no samples.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
