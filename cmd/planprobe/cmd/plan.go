package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/planprobe/planprobe/internal/query"
	"github.com/planprobe/planprobe/internal/render"
)

var (
	planFormat string
	planOut    string
)

// planCmd represents the plan command
var planCmd = &cobra.Command{
	Use:   "plan <query.sql>",
	Short: "Render a query's execution plan",
	Long: `EXPLAIN ANALYZE the query and render its plan tree as a Graphviz
diagram. Nodes whose row estimate is off by more than 10x are highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVar(&planFormat, "format", "dot", "output format: dot, svg, png")
	planCmd.Flags().StringVarP(&planOut, "output", "o", "", "output file (default: stdout for dot, <query>.<format> otherwise)")
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	queries, err := query.Load(args[0])
	if err != nil {
		return err
	}
	if len(queries) != 1 {
		return fmt.Errorf("expected a single query file, got %d queries", len(queries))
	}
	q := queries[0]

	session, err := connectSession(ctx)
	if err != nil {
		return err
	}
	defer session.Close()

	doc, _, err := session.Explain(ctx, q.SQL)
	if err != nil {
		return err
	}
	dot := render.ToDOT(doc.Plan)

	var data []byte
	switch planFormat {
	case "dot":
		data = []byte(dot)
	case "svg":
		data, err = render.RenderSVG(ctx, dot)
	case "png":
		data, err = render.RenderPNG(ctx, dot)
	default:
		return fmt.Errorf("unsupported format %q (want dot, svg or png)", planFormat)
	}
	if err != nil {
		return err
	}

	out := planOut
	if out == "" {
		if planFormat == "dot" {
			_, err := os.Stdout.Write(data)
			return err
		}
		out = q.Name + "." + planFormat
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}
