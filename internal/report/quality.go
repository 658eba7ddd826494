// Package report turns stored benchmark results into selectivity-quality
// summaries, terminal tables and exports.
package report

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/planprobe/planprobe/pkg/models"
)

// JoinLevelStats summarizes the q-error distribution of plan nodes at one
// join level.
type JoinLevelStats struct {
	JoinLevel      int     `json:"join_level"`
	Nodes          int     `json:"nodes"`
	Underestimates int     `json:"underestimates"`
	Overestimates  int     `json:"overestimates"`
	MedianAbs      float64 `json:"median_abs_q_error"`
	P95Abs         float64 `json:"p95_abs_q_error"`
	MaxAbs         float64 `json:"max_abs_q_error"`
}

// QualityByJoinLevel aggregates node q-errors per join level across all
// results. Only join nodes and base scans (level 0) participate; pass-through
// nodes like Hash or Sort at higher levels repeat their child's estimate and
// would skew the distribution.
func QualityByJoinLevel(results []*models.QueryResult) ([]JoinLevelStats, error) {
	byLevel := make(map[int][]float64)
	under := make(map[int]int)
	over := make(map[int]int)

	for _, result := range results {
		for _, c := range result.Cardinalities {
			if !isJoinNode(c.NodeType) && c.JoinLevel != 0 {
				continue
			}
			qe := c.QError()
			byLevel[c.JoinLevel] = append(byLevel[c.JoinLevel], math.Abs(qe))
			if qe < 0 {
				under[c.JoinLevel]++
			} else {
				over[c.JoinLevel]++
			}
		}
	}

	levels := make([]int, 0, len(byLevel))
	for level := range byLevel {
		levels = append(levels, level)
	}
	sort.Ints(levels)

	out := make([]JoinLevelStats, 0, len(levels))
	for _, level := range levels {
		values := byLevel[level]
		median, err := stats.Median(values)
		if err != nil {
			return nil, fmt.Errorf("median for level %d: %w", level, err)
		}
		p95, err := stats.Percentile(values, 95)
		if err != nil {
			// Percentile needs more than one sample; fall back to max.
			p95, err = stats.Max(values)
			if err != nil {
				return nil, fmt.Errorf("p95 for level %d: %w", level, err)
			}
		}
		max, err := stats.Max(values)
		if err != nil {
			return nil, fmt.Errorf("max for level %d: %w", level, err)
		}
		out = append(out, JoinLevelStats{
			JoinLevel:      level,
			Nodes:          len(values),
			Underestimates: under[level],
			Overestimates:  over[level],
			MedianAbs:      median,
			P95Abs:         p95,
			MaxAbs:         max,
		})
	}
	return out, nil
}

// QueryQuality is the per-query view of estimation quality.
type QueryQuality struct {
	Name         string  `json:"name"`
	QError       float64 `json:"q_error"`
	MaxJoinLevel int     `json:"max_join_level"`
	PlanningMs   float64 `json:"planning_ms"`
	ExecutionMs  float64 `json:"execution_ms"`
	TotalCost    float64 `json:"total_cost"`
}

// QualityByQuery returns one row per query, ordered by worst estimation
// first.
func QualityByQuery(results []*models.QueryResult) []QueryQuality {
	out := make([]QueryQuality, 0, len(results))
	for _, r := range results {
		out = append(out, QueryQuality{
			Name:         r.Name,
			QError:       r.QError(),
			MaxJoinLevel: r.MaxJoinLevel,
			PlanningMs:   r.PlanningMs,
			ExecutionMs:  r.ExecutionMs,
			TotalCost:    r.TotalCost,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return math.Abs(out[i].QError) > math.Abs(out[j].QError)
	})
	return out
}

// WorstQError returns the largest absolute query-level q-error, 0 when empty.
func WorstQError(results []*models.QueryResult) float64 {
	worst := 0.0
	for _, r := range results {
		if abs := math.Abs(r.QError()); abs > worst {
			worst = abs
		}
	}
	return worst
}

func isJoinNode(nodeType string) bool {
	switch nodeType {
	case "Hash Join", "Merge Join", "Nested Loop":
		return true
	}
	return false
}
