// Package plan parses PostgreSQL EXPLAIN (FORMAT JSON) output and extracts
// the cardinality estimation data the quality reports are built on.
package plan

import (
	"encoding/json"
	"fmt"

	"github.com/planprobe/planprobe/pkg/models"
)

// Node is one node of the JSON plan tree. Only the fields the analysis needs
// are decoded; the raw document is kept alongside for storage.
type Node struct {
	NodeType     string  `json:"Node Type"`
	RelationName string  `json:"Relation Name,omitempty"`
	TotalCost    float64 `json:"Total Cost"`
	PlanRows     float64 `json:"Plan Rows"`
	ActualRows   float64 `json:"Actual Rows"`
	Plans        []Node  `json:"Plans,omitempty"`
}

// Explain is the top-level EXPLAIN ANALYZE document.
type Explain struct {
	Plan          Node    `json:"Plan"`
	PlanningTime  float64 `json:"Planning Time"`
	ExecutionTime float64 `json:"Execution Time"`
}

// Parse decodes EXPLAIN (FORMAT JSON) output. PostgreSQL wraps the document
// in a single-element array.
func Parse(raw []byte) (*Explain, error) {
	var docs []Explain
	if err := json.Unmarshal(raw, &docs); err != nil {
		// Some drivers hand back the unwrapped object.
		var doc Explain
		if err2 := json.Unmarshal(raw, &doc); err2 == nil && doc.Plan.NodeType != "" {
			return &doc, nil
		}
		return nil, fmt.Errorf("parsing explain output: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("explain output contained no plan")
	}
	return &docs[0], nil
}

// IsJoin reports whether the node combines two relations.
func (n *Node) IsJoin() bool {
	switch n.NodeType {
	case "Hash Join", "Merge Join", "Nested Loop":
		return true
	}
	return false
}

// Cardinalities walks the plan tree and returns one record per node with its
// estimated and actual row counts. Join level counts joins below a node:
// scans sit at level 0, each join node sits one above its deepest recorded
// descendant, and non-join inner nodes inherit their children's level.
// Aggregate nodes are skipped; their selectivity is not interesting.
func Cardinalities(root Node) []models.Cardinality {
	records, _ := walk(root)
	return records
}

// MaxJoinLevel returns the deepest join level among the records, 0 when empty.
func MaxJoinLevel(records []models.Cardinality) int {
	max := 0
	for _, r := range records {
		if r.JoinLevel > max {
			max = r.JoinLevel
		}
	}
	return max
}

func walk(n Node) ([]models.Cardinality, int) {
	if len(n.Plans) == 0 {
		if n.NodeType == "Aggregate" {
			return nil, 0
		}
		return []models.Cardinality{{
			NodeType:  n.NodeType,
			JoinLevel: 0,
			Estimated: n.PlanRows,
			Actual:    n.ActualRows,
		}}, 0
	}

	var records []models.Cardinality
	for _, child := range n.Plans {
		childRecords, _ := walk(child)
		records = append(records, childRecords...)
	}

	level := MaxJoinLevel(records)
	if n.NodeType == "Aggregate" {
		return records, level
	}
	if n.IsJoin() {
		level++
	}

	records = append(records, models.Cardinality{
		NodeType:  n.NodeType,
		JoinLevel: level,
		Estimated: n.PlanRows,
		Actual:    n.ActualRows,
	})
	return records, level
}
