package cluster

import (
	"math"
	"sort"
)

const (
	// DefaultNeighbours is the neighbourhood size of the outlier factor.
	DefaultNeighbours = 5
	// DefaultOutlierThreshold marks samples whose factor exceeds it.
	DefaultOutlierThreshold = 1.5

	lrdEpsilon = 1e-10
)

// LocalOutlierFactor scores one-dimensional samples. A score close to 1
// means the sample is as dense as its neighbours; larger values mean
// sparser. k is capped to len(values)-1; fewer than two samples score 1.
func LocalOutlierFactor(values []float64, k int) []float64 {
	n := len(values)
	scores := make([]float64, n)
	if n < 2 || k < 1 {
		for i := range scores {
			scores[i] = 1
		}
		return scores
	}
	if k > n-1 {
		k = n - 1
	}

	neighbours := make([][]int, n)
	kdist := make([]float64, n)
	for p := range values {
		neighbours[p] = nearest(values, p, k)
		kdist[p] = math.Abs(values[p] - values[neighbours[p][k-1]])
	}

	lrd := make([]float64, n)
	for p := range values {
		var sum float64
		for _, o := range neighbours[p] {
			sum += math.Max(kdist[o], math.Abs(values[p]-values[o]))
		}
		lrd[p] = 1 / (sum/float64(k) + lrdEpsilon)
	}

	for p := range values {
		var sum float64
		for _, o := range neighbours[p] {
			sum += lrd[o] / lrd[p]
		}
		scores[p] = sum / float64(k)
	}
	return scores
}

// Inliers reports which samples have a local outlier factor at or below
// threshold.
func Inliers(values []float64, k int, threshold float64) []bool {
	scores := LocalOutlierFactor(values, k)
	mask := make([]bool, len(scores))
	for i, s := range scores {
		mask[i] = s <= threshold
	}
	return mask
}

// nearest returns the k samples closest to p, excluding p. Ties go to the
// lower index.
func nearest(values []float64, p, k int) []int {
	idx := make([]int, 0, len(values)-1)
	for i := range values {
		if i != p {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return math.Abs(values[p]-values[idx[a]]) < math.Abs(values[p]-values[idx[b]])
	})
	return idx[:k]
}
