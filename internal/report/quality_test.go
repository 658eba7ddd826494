package report

import (
	"testing"

	"github.com/planprobe/planprobe/pkg/models"
)

func sampleResults() []*models.QueryResult {
	return []*models.QueryResult{
		{
			Name:         "q01",
			ExecutionMs:  100,
			TotalCost:    500,
			MaxJoinLevel: 1,
			Cardinalities: []models.Cardinality{
				{NodeType: "Seq Scan", JoinLevel: 0, Estimated: 100, Actual: 100},
				{NodeType: "Hash", JoinLevel: 0, Estimated: 100, Actual: 100},
				{NodeType: "Hash Join", JoinLevel: 1, Estimated: 10, Actual: 1000},
			},
		},
		{
			Name:         "q02",
			ExecutionMs:  50,
			TotalCost:    200,
			MaxJoinLevel: 1,
			Cardinalities: []models.Cardinality{
				{NodeType: "Index Scan", JoinLevel: 0, Estimated: 500, Actual: 50},
				{NodeType: "Nested Loop", JoinLevel: 1, Estimated: 40, Actual: 20},
			},
		},
	}
}

func TestQualityByJoinLevel(t *testing.T) {
	levels, err := QualityByJoinLevel(sampleResults())
	if err != nil {
		t.Fatalf("QualityByJoinLevel failed: %v", err)
	}

	if len(levels) != 2 {
		t.Fatalf("Expected stats for 2 join levels, got %d", len(levels))
	}

	level0 := levels[0]
	if level0.JoinLevel != 0 {
		t.Fatalf("Expected level 0 first, got %d", level0.JoinLevel)
	}
	// All level-0 nodes participate, including the non-join Hash.
	if level0.Nodes != 3 {
		t.Errorf("Expected 3 level-0 nodes, got %d", level0.Nodes)
	}
	// q02's Index Scan overestimates 10x; the exact estimates count as
	// underestimates (q-error -1).
	if level0.Overestimates != 1 {
		t.Errorf("Expected 1 overestimate at level 0, got %d", level0.Overestimates)
	}
	if level0.MaxAbs != 10 {
		t.Errorf("Expected max |q| 10 at level 0, got %v", level0.MaxAbs)
	}

	level1 := levels[1]
	if level1.Nodes != 2 {
		t.Errorf("Expected 2 level-1 nodes, got %d", level1.Nodes)
	}
	// Hash Join underestimates 100x.
	if level1.MaxAbs != 100 {
		t.Errorf("Expected max |q| 100 at level 1, got %v", level1.MaxAbs)
	}
	if level1.Underestimates != 1 {
		t.Errorf("Expected 1 underestimate at level 1, got %d", level1.Underestimates)
	}
}

func TestQualityByJoinLevelSkipsPassThroughAboveZero(t *testing.T) {
	results := []*models.QueryResult{{
		Name: "q",
		Cardinalities: []models.Cardinality{
			{NodeType: "Seq Scan", JoinLevel: 0, Estimated: 1, Actual: 1},
			{NodeType: "Sort", JoinLevel: 2, Estimated: 1, Actual: 1000},
		},
	}}

	levels, err := QualityByJoinLevel(results)
	if err != nil {
		t.Fatalf("QualityByJoinLevel failed: %v", err)
	}
	for _, l := range levels {
		if l.JoinLevel == 2 {
			t.Error("Non-join node above level 0 should be excluded")
		}
	}
}

func TestQualityByQueryOrdersWorstFirst(t *testing.T) {
	rows := QualityByQuery(sampleResults())
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	// q01's top join q-error is -100, q02's is 2.
	if rows[0].Name != "q01" {
		t.Errorf("Expected q01 (worst) first, got %s", rows[0].Name)
	}
	if rows[0].QError != -100 {
		t.Errorf("Expected q-error -100, got %v", rows[0].QError)
	}
	if rows[1].QError != 2 {
		t.Errorf("Expected q-error 2, got %v", rows[1].QError)
	}
}

func TestWorstQError(t *testing.T) {
	if got := WorstQError(sampleResults()); got != 100 {
		t.Errorf("Expected worst |q-error| 100, got %v", got)
	}
	if got := WorstQError(nil); got != 0 {
		t.Errorf("Expected 0 for no results, got %v", got)
	}
}
