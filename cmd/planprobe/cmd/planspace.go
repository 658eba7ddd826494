package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/planprobe/planprobe/internal/bench"
	"github.com/planprobe/planprobe/internal/query"
	"github.com/planprobe/planprobe/internal/report"
)

// planspaceCmd represents the planspace command
var planspaceCmd = &cobra.Command{
	Use:   "planspace <query-file-or-dir>...",
	Short: "Compare execution times across all join tree shapes",
	Long: `Time the query set under every pg_hint_plan dp_tree_shape setting and
compare each forced shape against the optimizer's default. The reported ratio
is default time over shape time, so values above 1 mean the forced shape beat
the default plan.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlanspace,
}

func init() {
	rootCmd.AddCommand(planspaceCmd)
}

func runPlanspace(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	queries, err := query.Load(args...)
	if err != nil {
		return err
	}

	session, err := connectSession(ctx)
	if err != nil {
		return err
	}
	defer session.Close()

	runner := bench.NewRunner(session, nil, newLogger())
	comparisons, err := runner.PlanSpace(ctx, queries)
	if err != nil {
		return err
	}

	report.RenderShapeComparisons(os.Stdout, comparisons)
	return nil
}
