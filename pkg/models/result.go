package models

import "encoding/json"

// Cardinality is one plan node's estimated vs actual row count.
type Cardinality struct {
	NodeType  string  `json:"node_type" yaml:"node_type"`
	JoinLevel int     `json:"join_level" yaml:"join_level"`
	Estimated float64 `json:"estimated" yaml:"estimated"`
	Actual    float64 `json:"actual" yaml:"actual"`
}

// QError computes the signed q-error of the estimation: positive for
// overestimation (est/actual), negative for underestimation (-actual/est).
// Zero-row sides are clamped to 1 to avoid division by zero.
func (c Cardinality) QError() float64 {
	return QError(c.Estimated, c.Actual)
}

// QError is the signed estimation error for a single estimated/actual pair.
func QError(estimated, actual float64) float64 {
	if estimated > actual {
		if actual < 1 {
			actual = 1
		}
		return estimated / actual
	}
	if estimated < 1 {
		estimated = 1
	}
	return actual / estimated * -1
}

// QueryResult is the immutable outcome of explaining one query. Set once when
// the query finishes, never updated.
type QueryResult struct {
	ID            int64           `json:"id,omitempty" yaml:"id,omitempty"`
	RunID         string          `json:"run_id" yaml:"run_id"`
	Name          string          `json:"name" yaml:"name"`
	SQL           string          `json:"sql,omitempty" yaml:"sql,omitempty"`
	PlanJSON      json.RawMessage `json:"plan,omitempty" yaml:"plan,omitempty"`
	PlanningMs    float64         `json:"planning_ms" yaml:"planning_ms"`
	ExecutionMs   float64         `json:"execution_ms" yaml:"execution_ms"`
	TotalCost     float64         `json:"total_cost" yaml:"total_cost"`
	MaxJoinLevel  int             `json:"max_join_level" yaml:"max_join_level"`
	Cardinalities []Cardinality   `json:"cardinalities,omitempty" yaml:"cardinalities,omitempty"`
}

// QError returns the query-level q-error: the q-error of the cardinality
// record at the deepest join level, mirroring how the top join dominates
// the plan choice.
func (q *QueryResult) QError() float64 {
	if len(q.Cardinalities) == 0 {
		return 0
	}
	top := q.Cardinalities[0]
	for _, c := range q.Cardinalities[1:] {
		if c.JoinLevel > top.JoinLevel {
			top = c
		}
	}
	return top.QError()
}
