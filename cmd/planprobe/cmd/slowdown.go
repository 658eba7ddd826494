package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/planprobe/planprobe/internal/bench"
	"github.com/planprobe/planprobe/internal/query"
	"github.com/planprobe/planprobe/internal/report"
)

// slowdownCmd represents the slowdown command
var slowdownCmd = &cobra.Command{
	Use:   "slowdown <dir1> <dir2>",
	Short: "Compare execution times of two query sets",
	Long: `Time the same-named queries from two directories and print the
distribution of elapsed-time ratios (dir1 over dir2). Queries present in only
one directory are skipped.`,
	Args: cobra.ExactArgs(2),
	RunE: runSlowdown,
}

func init() {
	rootCmd.AddCommand(slowdownCmd)
}

func runSlowdown(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	first, err := query.Load(args[0])
	if err != nil {
		return err
	}
	second, err := query.Load(args[1])
	if err != nil {
		return err
	}

	session, err := connectSession(ctx)
	if err != nil {
		return err
	}
	defer session.Close()

	runner := bench.NewRunner(session, nil, newLogger())
	firstTimings, err := runner.TimeAll(ctx, first)
	if err != nil {
		return err
	}
	secondTimings, err := runner.TimeAll(ctx, second)
	if err != nil {
		return err
	}

	ratios := bench.Ratios(firstTimings, secondTimings)
	if len(ratios) == 0 {
		return fmt.Errorf("no queries with matching names in both directories")
	}
	stats, err := bench.ComputeStats(ratios)
	if err != nil {
		return err
	}

	fmt.Printf("%s vs %s (%d queries)\n", args[0], args[1], stats.Count)
	fmt.Printf("  median: %.4f\n", stats.Median)
	fmt.Printf("  95%%:    %.4f\n", stats.P95)
	fmt.Printf("  max:    %.4f\n", stats.Max)
	report.RenderHistogram(os.Stdout, bench.Histogram(ratios))
	return nil
}
