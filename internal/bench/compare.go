package bench

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// Histogram bin edges for time ratios. Ratios below the first edge are
// counted in the total but fall outside every bucket.
var histogramBins = []float64{0.3, 0.9, 1.1, 2, 10, 100, math.Inf(1)}

var histogramLabels = []string{"0.3-0.9", "0.9-1.1", "1.1-2", "2-10", "10-100", ">100"}

// HistogramBucket is one ratio interval with its share of the observations.
type HistogramBucket struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Ratios computes numer[q]/denom[q] for every query present in both timing
// sets. Queries missing from either side are skipped.
func Ratios(numer, denom Timings) []float64 {
	ratios := make([]float64, 0, len(numer))
	for name, n := range numer {
		d, ok := denom[name]
		if !ok || d == 0 {
			continue
		}
		ratios = append(ratios, n/d)
	}
	return ratios
}

// Histogram buckets the ratios into the fixed intervals. Percentages are
// relative to the full ratio count, so buckets may sum below 100 when ratios
// fall under the lowest edge.
func Histogram(ratios []float64) []HistogramBucket {
	buckets := make([]HistogramBucket, len(histogramLabels))
	for i, label := range histogramLabels {
		buckets[i].Label = label
	}

	for _, r := range ratios {
		for i := 0; i < len(histogramBins)-1; i++ {
			if r >= histogramBins[i] && r < histogramBins[i+1] {
				buckets[i].Count++
				break
			}
		}
	}

	if len(ratios) > 0 {
		for i := range buckets {
			buckets[i].Percent = float64(buckets[i].Count) / float64(len(ratios)) * 100
		}
	}
	return buckets
}

// RatioStats summarizes a ratio distribution.
type RatioStats struct {
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// ComputeStats computes median, 95th percentile and max of the ratios.
func ComputeStats(ratios []float64) (RatioStats, error) {
	if len(ratios) == 0 {
		return RatioStats{}, fmt.Errorf("no ratios to summarize")
	}

	median, err := stats.Median(ratios)
	if err != nil {
		return RatioStats{}, fmt.Errorf("median: %w", err)
	}
	p95, err := stats.Percentile(ratios, 95)
	if err != nil {
		return RatioStats{}, fmt.Errorf("p95: %w", err)
	}
	max, err := stats.Max(ratios)
	if err != nil {
		return RatioStats{}, fmt.Errorf("max: %w", err)
	}

	return RatioStats{Median: median, P95: p95, Max: max, Count: len(ratios)}, nil
}
