package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/planprobe/planprobe/internal/report"
)

var (
	exportFormat string
	exportOut    string
)

// resultsCmd represents the results command
var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect stored benchmark runs",
}

// resultsListCmd represents the results list command
var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runResultsList,
}

// resultsShowCmd represents the results show command
var resultsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show a run's per-query results",
	Long:  `Show the per-query results of a run. Without a run ID the latest stored run is used.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runResultsShow,
}

// resultsExportCmd represents the results export command
var resultsExportCmd = &cobra.Command{
	Use:   "export [run-id]",
	Short: "Export a run as JSON, YAML or CSV",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runResultsExport,
}

// resultsDeleteCmd represents the results delete command
var resultsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a run and its results",
	Args:  cobra.ExactArgs(1),
	RunE:  runResultsDelete,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsShowCmd)
	resultsCmd.AddCommand(resultsExportCmd)
	resultsCmd.AddCommand(resultsDeleteCmd)

	resultsExportCmd.Flags().StringVar(&exportFormat, "format", "json", "export format: json, yaml or csv")
	resultsExportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default: stdout)")
}

func runResultsList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No stored runs.")
		return nil
	}
	report.RenderRunList(os.Stdout, runs)
	return nil
}

func runResultsShow(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runID := ""
	if len(args) == 1 {
		runID = args[0]
	}
	run, err := resolveRun(st, runID)
	if err != nil {
		return err
	}
	results, err := st.GetResults(run.ID)
	if err != nil {
		return err
	}

	report.RenderRunSummary(os.Stdout, run, results)
	return nil
}

func runResultsExport(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runID := ""
	if len(args) == 1 {
		runID = args[0]
	}
	run, err := resolveRun(st, runID)
	if err != nil {
		return err
	}
	results, err := st.GetResults(run.ID)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("creating %s: %w", exportOut, err)
		}
		defer f.Close()
		w = f
	}
	return report.Export(w, exportFormat, run, results)
}

func runResultsDelete(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteRun(args[0]); err != nil {
		return err
	}
	fmt.Printf("Run %s deleted\n", args[0])
	return nil
}
