package render

import (
	"strings"
	"testing"

	"github.com/planprobe/planprobe/internal/plan"
)

func TestToDOT(t *testing.T) {
	root := plan.Node{
		NodeType: "Hash Join", PlanRows: 100, ActualRows: 2500,
		Plans: []plan.Node{
			{NodeType: "Seq Scan", RelationName: "orders", PlanRows: 10000, ActualRows: 9800},
			{NodeType: "Index Scan", RelationName: "customers", PlanRows: 50, ActualRows: 60},
		},
	}

	dot := ToDOT(root)

	if !strings.HasPrefix(dot, "digraph plan {") {
		t.Errorf("Expected digraph header, got:\n%s", dot)
	}
	for _, want := range []string{"Hash Join", "orders", "customers", "est 100 / act 2500"} {
		if !strings.Contains(dot, want) {
			t.Errorf("Expected %q in DOT output:\n%s", want, dot)
		}
	}

	// Two edges: root to each scan.
	if got := strings.Count(dot, "->"); got != 2 {
		t.Errorf("Expected 2 edges, got %d:\n%s", got, dot)
	}

	// The join is off by 25x and should be highlighted.
	if !strings.Contains(dot, "lightcoral") {
		t.Errorf("Expected misestimated node to be highlighted:\n%s", dot)
	}
}

func TestToDOTAccurateEstimatesNotHighlighted(t *testing.T) {
	dot := ToDOT(plan.Node{NodeType: "Seq Scan", PlanRows: 100, ActualRows: 105})
	if strings.Contains(dot, "lightcoral") {
		t.Errorf("Accurate estimate should not be highlighted:\n%s", dot)
	}
}
