package plan

import (
	"testing"

	"github.com/planprobe/planprobe/pkg/models"
)

const sampleExplain = `[
  {
    "Plan": {
      "Node Type": "Aggregate",
      "Total Cost": 1500.5,
      "Plan Rows": 1,
      "Actual Rows": 1,
      "Plans": [
        {
          "Node Type": "Hash Join",
          "Total Cost": 1400.0,
          "Plan Rows": 100,
          "Actual Rows": 2500,
          "Plans": [
            {
              "Node Type": "Seq Scan",
              "Relation Name": "orders",
              "Total Cost": 500.0,
              "Plan Rows": 10000,
              "Actual Rows": 9800
            },
            {
              "Node Type": "Hash",
              "Total Cost": 300.0,
              "Plan Rows": 50,
              "Actual Rows": 60,
              "Plans": [
                {
                  "Node Type": "Index Scan",
                  "Relation Name": "customers",
                  "Total Cost": 250.0,
                  "Plan Rows": 50,
                  "Actual Rows": 60
                }
              ]
            }
          ]
        }
      ]
    },
    "Planning Time": 0.42,
    "Execution Time": 123.45
  }
]`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(sampleExplain))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if doc.Plan.NodeType != "Aggregate" {
		t.Errorf("Expected Aggregate root, got %q", doc.Plan.NodeType)
	}
	if doc.PlanningTime != 0.42 {
		t.Errorf("Expected planning time 0.42, got %v", doc.PlanningTime)
	}
	if doc.ExecutionTime != 123.45 {
		t.Errorf("Expected execution time 123.45, got %v", doc.ExecutionTime)
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("Expected error for invalid JSON")
	}
	if _, err := Parse([]byte("[]")); err == nil {
		t.Fatal("Expected error for empty plan array")
	}
}

func TestCardinalities(t *testing.T) {
	doc, err := Parse([]byte(sampleExplain))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	records := Cardinalities(doc.Plan)

	// Aggregate root is excluded: Seq Scan, Index Scan, Hash, Hash Join.
	if len(records) != 4 {
		t.Fatalf("Expected 4 cardinality records, got %d: %v", len(records), records)
	}

	byType := make(map[string]models.Cardinality)
	for _, r := range records {
		byType[r.NodeType] = r
	}

	if r := byType["Seq Scan"]; r.JoinLevel != 0 {
		t.Errorf("Seq Scan should be join level 0, got %d", r.JoinLevel)
	}
	if r := byType["Index Scan"]; r.JoinLevel != 0 {
		t.Errorf("Index Scan should be join level 0, got %d", r.JoinLevel)
	}
	// Hash is not a join: inherits its child's level.
	if r := byType["Hash"]; r.JoinLevel != 0 {
		t.Errorf("Hash should inherit join level 0, got %d", r.JoinLevel)
	}
	// Hash Join sits one above its deepest descendant.
	if r := byType["Hash Join"]; r.JoinLevel != 1 {
		t.Errorf("Hash Join should be join level 1, got %d", r.JoinLevel)
	}

	if got := MaxJoinLevel(records); got != 1 {
		t.Errorf("Expected max join level 1, got %d", got)
	}
}

func TestCardinalitiesNestedJoins(t *testing.T) {
	scan := func(name string) Node {
		return Node{NodeType: "Seq Scan", RelationName: name, PlanRows: 10, ActualRows: 10}
	}
	inner := Node{NodeType: "Nested Loop", PlanRows: 5, ActualRows: 50, Plans: []Node{scan("a"), scan("b")}}
	outer := Node{NodeType: "Merge Join", PlanRows: 3, ActualRows: 9, Plans: []Node{inner, scan("c")}}

	records := Cardinalities(outer)
	if got := MaxJoinLevel(records); got != 2 {
		t.Errorf("Expected max join level 2 for two stacked joins, got %d", got)
	}
}

func TestQueryQError(t *testing.T) {
	doc, err := Parse([]byte(sampleExplain))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	records := Cardinalities(doc.Plan)
	result := &models.QueryResult{Cardinalities: records}

	// Top join: estimated 100 vs actual 2500 -> underestimation, -25.
	if got := result.QError(); got != -25 {
		t.Errorf("Expected query q-error -25, got %v", got)
	}
}

func TestQErrorSigns(t *testing.T) {
	cases := []struct {
		name      string
		estimated float64
		actual    float64
		want      float64
	}{
		{"overestimate", 200, 10, 20},
		{"underestimate", 10, 200, -20},
		{"exact", 50, 50, -1},
		{"actual zero clamped", 10, 0, 10},
		{"estimated zero clamped", 0, 10, -10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := models.QError(tc.estimated, tc.actual); got != tc.want {
				t.Errorf("QError(%v, %v) = %v, want %v", tc.estimated, tc.actual, got, tc.want)
			}
		})
	}
}
