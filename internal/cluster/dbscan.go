// Package cluster holds the density based algorithms used to find
// recurring transactions: DBSCAN grouping over edit distance and a local
// outlier factor over one-dimensional samples.
package cluster

import "github.com/agnivade/levenshtein"

// Noise is the label of points that belong to no cluster.
const Noise = -1

// DistanceFunc returns the distance between points i and j. It must be
// symmetric and non-negative.
type DistanceFunc func(i, j int) float64

// DBSCAN labels n points with cluster ids 0, 1, ... or Noise.
//
// A point's neighbourhood includes itself and every point within eps. A
// point is core when its neighbourhood holds at least minSamples points.
// Clusters are numbered in order of their first core point. Every pair is
// evaluated exactly once.
func DBSCAN(n int, eps float64, minSamples int, dist DistanceFunc) []int {
	neighbours := make([][]int, n)
	for i := range neighbours {
		neighbours[i] = append(neighbours[i], i)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if dist(i, j) <= eps {
				neighbours[i] = append(neighbours[i], j)
				neighbours[j] = append(neighbours[j], i)
			}
		}
	}

	core := make([]bool, n)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
		core[i] = len(neighbours[i]) >= minSamples
	}

	var stack []int
	label := 0
	for start := 0; start < n; start++ {
		if labels[start] != Noise || !core[start] {
			continue
		}
		i := start
		for {
			if labels[i] == Noise {
				labels[i] = label
				if core[i] {
					for _, v := range neighbours[i] {
						if labels[v] == Noise {
							stack = append(stack, v)
						}
					}
				}
			}
			if len(stack) == 0 {
				break
			}
			i = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		}
		label++
	}
	return labels
}

// GroupBySimilarity clusters strings by Levenshtein distance and returns
// one label per input string.
func GroupBySimilarity(values []string, eps float64, minSamples int) []int {
	return DBSCAN(len(values), eps, minSamples, func(i, j int) float64 {
		return float64(levenshtein.ComputeDistance(values[i], values[j]))
	})
}

// Groups collects indices by label. Clusters come first in ascending label
// order; noise points follow as single-element groups in input order.
func Groups(labels []int) [][]int {
	top := Noise
	for _, l := range labels {
		if l > top {
			top = l
		}
	}
	groups := make([][]int, top+1)
	var noise [][]int
	for i, l := range labels {
		if l == Noise {
			noise = append(noise, []int{i})
			continue
		}
		groups[l] = append(groups[l], i)
	}
	return append(groups, noise...)
}

// Clusters collects indices by label in order of first appearance, leaving
// out noise.
func Clusters(labels []int) [][]int {
	var out [][]int
	slot := map[int]int{}
	for i, l := range labels {
		if l == Noise {
			continue
		}
		s, ok := slot[l]
		if !ok {
			s = len(out)
			slot[l] = s
			out = append(out, nil)
		}
		out[s] = append(out[s], i)
	}
	return out
}
