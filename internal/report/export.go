package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/planprobe/planprobe/pkg/models"
)

// RunExport is the machine-readable form of one run and its results.
type RunExport struct {
	Run     *models.Run           `json:"run" yaml:"run"`
	Results []*models.QueryResult `json:"results" yaml:"results"`
}

// Export writes a run in the requested format: json, yaml or csv.
// CSV flattens to one row per query and drops plans and cardinality records.
func Export(w io.Writer, format string, run *models.Run, results []*models.QueryResult) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(RunExport{Run: run, Results: results})

	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(RunExport{Run: run, Results: results})

	case "csv":
		return exportCSV(w, results)

	default:
		return fmt.Errorf("unsupported export format %q: must be json, yaml or csv", format)
	}
}

func exportCSV(w io.Writer, results []*models.QueryResult) error {
	writer := csv.NewWriter(w)
	header := []string{"query", "planning_ms", "execution_ms", "total_cost", "max_join_level", "q_error"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, r := range results {
		record := []string{
			r.Name,
			strconv.FormatFloat(r.PlanningMs, 'f', 3, 64),
			strconv.FormatFloat(r.ExecutionMs, 'f', 3, 64),
			strconv.FormatFloat(r.TotalCost, 'f', 1, 64),
			strconv.Itoa(r.MaxJoinLevel),
			strconv.FormatFloat(r.QError(), 'f', 3, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing csv row for %s: %w", r.Name, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
