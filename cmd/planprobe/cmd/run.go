package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/planprobe/planprobe/internal/bench"
	"github.com/planprobe/planprobe/internal/query"
	"github.com/planprobe/planprobe/internal/report"
	"github.com/planprobe/planprobe/pkg/models"
)

var (
	runLabel string
	runShape string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <query-file-or-dir>...",
	Short: "Run instrumented EXPLAIN benchmarks",
	Long: `Run every query in the given files or directories under
EXPLAIN (ANALYZE, COSTS, VERBOSE, BUFFERS, FORMAT JSON), record per-node
cardinality estimates against actuals, and persist the results.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runLabel, "label", "", "free-form label stored with the run")
	runCmd.Flags().StringVar(&runShape, "shape", "default", "pg_hint_plan tree shape: default, left, right, zig-zag")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	queries, err := query.Load(args...)
	if err != nil {
		return err
	}
	shape, err := models.ParseTreeShape(runShape)
	if err != nil {
		return err
	}

	session, err := connectSession(ctx)
	if err != nil {
		return err
	}
	defer session.Close()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runner := bench.NewRunner(session, st, newLogger())
	run, results, err := runner.ExplainAll(ctx, queries, bench.RunOptions{
		Label:     runLabel,
		TreeShape: shape,
	})
	if err != nil {
		return err
	}

	report.RenderRunSummary(os.Stdout, run, results)
	return nil
}
