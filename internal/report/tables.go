package report

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/planprobe/planprobe/internal/bench"
	"github.com/planprobe/planprobe/pkg/models"
)

// RenderRunSummary prints run metadata and per-query timings.
func RenderRunSummary(w io.Writer, run *models.Run, results []*models.QueryResult) {
	fmt.Fprintf(w, "Run %s", run.ID)
	if run.Label != "" {
		fmt.Fprintf(w, " (%s)", run.Label)
	}
	fmt.Fprintf(w, "\nTarget: %s | Tree shape: %s | Started: %s\n",
		run.Target, run.TreeShape, run.StartedAt.Format(time.RFC3339))
	if run.Host.CPUModel != "" {
		fmt.Fprintf(w, "Host: %s (%d threads, %.1f GB RAM)\n\n",
			run.Host.CPUModel, run.Host.CPUThreads, float64(run.Host.RAMTotalBytes)/(1<<30))
	}

	table := tablewriter.NewWriter(w)
	table.Header("Query", "Planning (ms)", "Execution (ms)", "Total Cost", "Join Depth", "Q-Error")

	for _, r := range results {
		table.Append(
			r.Name,
			fmt.Sprintf("%.2f", r.PlanningMs),
			fmt.Sprintf("%.2f", r.ExecutionMs),
			fmt.Sprintf("%.1f", r.TotalCost),
			fmt.Sprintf("%d", r.MaxJoinLevel),
			fmt.Sprintf("%.2f", r.QError()),
		)
	}
	table.Render()
}

// RenderJoinLevelTable prints the q-error distribution per join level.
func RenderJoinLevelTable(w io.Writer, levels []JoinLevelStats) {
	fmt.Fprintln(w, "Plan node q-error by join level:")

	table := tablewriter.NewWriter(w)
	table.Header("Join Level", "Nodes", "Under / Over", "Median |q|", "p95 |q|", "Max |q|")

	for _, l := range levels {
		table.Append(
			fmt.Sprintf("%d", l.JoinLevel),
			fmt.Sprintf("%d", l.Nodes),
			fmt.Sprintf("%d / %d", l.Underestimates, l.Overestimates),
			fmt.Sprintf("%.2f", l.MedianAbs),
			fmt.Sprintf("%.2f", l.P95Abs),
			fmt.Sprintf("%.2f", l.MaxAbs),
		)
	}
	table.Render()
}

// RenderQueryTable prints per-query estimation quality, worst first.
func RenderQueryTable(w io.Writer, rows []QueryQuality) {
	fmt.Fprintln(w, "Query q-error (worst estimation first):")

	table := tablewriter.NewWriter(w)
	table.Header("Query", "Q-Error", "Join Depth", "Execution (ms)", "Total Cost")

	for _, q := range rows {
		table.Append(
			q.Name,
			fmt.Sprintf("%.2f", q.QError),
			fmt.Sprintf("%d", q.MaxJoinLevel),
			fmt.Sprintf("%.2f", q.ExecutionMs),
			fmt.Sprintf("%.1f", q.TotalCost),
		)
	}
	table.Render()
}

// RenderShapeComparisons prints per-shape ratio stats and histograms for a
// plan-space run. Ratio is default time over shape time: above 1 means the
// forced shape beat the default plan.
func RenderShapeComparisons(w io.Writer, comparisons []bench.ShapeComparison) {
	for _, c := range comparisons {
		fmt.Fprintf(w, "\ndefault vs %s (%d queries)\n", c.Shape, c.Stats.Count)
		fmt.Fprintf(w, "  median: %.4f\n", c.Stats.Median)
		fmt.Fprintf(w, "  95%%:    %.4f\n", c.Stats.P95)
		fmt.Fprintf(w, "  max:    %.4f\n", c.Stats.Max)
		RenderHistogram(w, c.Histogram)
	}
}

// RenderHistogram prints the ratio histogram buckets.
func RenderHistogram(w io.Writer, buckets []bench.HistogramBucket) {
	table := tablewriter.NewWriter(w)
	table.Header("Time Ratio", "Queries", "Share")

	for _, b := range buckets {
		table.Append(b.Label, fmt.Sprintf("%d", b.Count), fmt.Sprintf("%.1f%%", b.Percent))
	}
	table.Render()
}

// RenderRunList prints stored runs, newest first.
func RenderRunList(w io.Writer, runs []*models.Run) {
	table := tablewriter.NewWriter(w)
	table.Header("Run ID", "Label", "Shape", "Target", "Started", "Completed")

	for _, run := range runs {
		completed := "-"
		if run.Completed() {
			completed = run.CompletedAt.Format(time.RFC3339)
		}
		table.Append(
			run.ID,
			run.Label,
			string(run.TreeShape),
			run.Target,
			run.StartedAt.Format(time.RFC3339),
			completed,
		)
	}
	table.Render()
}
