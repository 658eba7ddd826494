package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/planprobe/planprobe/internal/report"
	"github.com/planprobe/planprobe/pkg/models"
)

var (
	qualityRunID  string
	qualityOutput string
)

// qualityCmd represents the quality command
var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Report cardinality estimation quality for a stored run",
	Long: `Aggregate the recorded plan-node q-errors of a run per join level and
per query. Without --run the latest stored run is used.`,
	Args: cobra.NoArgs,
	RunE: runQuality,
}

func init() {
	rootCmd.AddCommand(qualityCmd)

	qualityCmd.Flags().StringVar(&qualityRunID, "run", "", "run ID to report on (default: latest run)")
	qualityCmd.Flags().StringVar(&qualityOutput, "output", "table", "output format: table or json")
}

type qualityReport struct {
	Run        *models.Run             `json:"run"`
	JoinLevels []report.JoinLevelStats `json:"join_levels"`
	Queries    []report.QueryQuality   `json:"queries"`
}

func validateQualityOutput(format string) error {
	switch format {
	case "table", "json":
		return nil
	}
	return fmt.Errorf("unsupported output format %q: must be table or json", format)
}

func runQuality(cmd *cobra.Command, args []string) error {
	if err := validateQualityOutput(qualityOutput); err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := resolveRun(st, qualityRunID)
	if err != nil {
		return err
	}
	results, err := st.GetResults(run.ID)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("run %s has no stored results", run.ID)
	}

	levels, err := report.QualityByJoinLevel(results)
	if err != nil {
		return err
	}
	queries := report.QualityByQuery(results)

	if qualityOutput == "json" {
		out, err := json.MarshalIndent(qualityReport{Run: run, JoinLevels: levels, Queries: queries}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Run %s (%s, tree shape %s)\n\n", run.ID, run.Target, run.TreeShape)
	report.RenderJoinLevelTable(os.Stdout, levels)
	fmt.Println()
	report.RenderQueryTable(os.Stdout, queries)
	return nil
}
