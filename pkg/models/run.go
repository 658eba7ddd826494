package models

import (
	"fmt"
	"time"
)

// TreeShape constrains the pg_hint_plan dp_tree_shape setting.
type TreeShape string

const (
	TreeShapeDefault TreeShape = "default"
	TreeShapeLeft    TreeShape = "left"
	TreeShapeRight   TreeShape = "right"
	TreeShapeZigZag  TreeShape = "zig-zag"
)

// AllTreeShapes lists every supported shape, default first.
var AllTreeShapes = []TreeShape{TreeShapeDefault, TreeShapeLeft, TreeShapeRight, TreeShapeZigZag}

// ErrInvalidTreeShape is returned before any SQL is issued for an unknown shape.
type ErrInvalidTreeShape struct {
	Shape string
}

func (e *ErrInvalidTreeShape) Error() string {
	return fmt.Sprintf("invalid tree shape %q: must be default, left, right or zig-zag", e.Shape)
}

// ParseTreeShape validates a shape string.
func ParseTreeShape(s string) (TreeShape, error) {
	for _, shape := range AllTreeShapes {
		if string(shape) == s {
			return shape, nil
		}
	}
	return "", &ErrInvalidTreeShape{Shape: s}
}

// HostInfo captures the hardware the run executed on.
type HostInfo struct {
	CPUModel      string `json:"cpu_model" yaml:"cpu_model"`
	CPUThreads    int    `json:"cpu_threads" yaml:"cpu_threads"`
	RAMTotalBytes uint64 `json:"ram_total_bytes" yaml:"ram_total_bytes"`
	OS            string `json:"os" yaml:"os"`
	Arch          string `json:"arch" yaml:"arch"`
}

// Run groups the query results of one benchmark invocation.
type Run struct {
	ID          string    `json:"id" yaml:"id"`
	Label       string    `json:"label,omitempty" yaml:"label,omitempty"`
	TreeShape   TreeShape `json:"tree_shape" yaml:"tree_shape"`
	Target      string    `json:"target" yaml:"target"` // redacted DSN: host/dbname only
	Host        HostInfo  `json:"host" yaml:"host"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// Completed reports whether the run was closed out.
func (r *Run) Completed() bool {
	return !r.CompletedAt.IsZero()
}
