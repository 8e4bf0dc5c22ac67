package trainer

import (
	"math"
	"sort"
)

// WeightStats summarises the final weights of all repetitions.
type WeightStats struct {
	Min         float64         `json:"min"`
	Max         float64         `json:"max"`
	Mean        float64         `json:"mean"`
	Median      float64         `json:"median"`
	Stddev      float64         `json:"stddev"`
	Percentiles map[int]float64 `json:"percentiles"`
	SampleCount int             `json:"sample_count"`
}

var defaultPercentiles = []int{5, 25, 75, 95}

func ComputeWeightStats(weights []float64) WeightStats {
	if len(weights) == 0 {
		return WeightStats{Percentiles: make(map[int]float64)}
	}

	sorted := make([]float64, len(weights))
	copy(sorted, weights)
	sort.Float64s(sorted)

	stats := WeightStats{
		Min:         sorted[0],
		Max:         sorted[len(sorted)-1],
		Median:      percentile(sorted, 50),
		Percentiles: make(map[int]float64, len(defaultPercentiles)),
		SampleCount: len(sorted),
	}

	var sum float64
	for _, w := range sorted {
		sum += w
	}
	stats.Mean = sum / float64(len(sorted))

	if len(sorted) > 1 {
		var sumSquares float64
		for _, w := range sorted {
			diff := w - stats.Mean
			sumSquares += diff * diff
		}
		stats.Stddev = math.Sqrt(sumSquares / float64(len(sorted)-1))
	}

	for _, p := range defaultPercentiles {
		stats.Percentiles[p] = percentile(sorted, p)
	}

	return stats
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func (s WeightStats) IsZero() bool {
	return s.SampleCount == 0
}
