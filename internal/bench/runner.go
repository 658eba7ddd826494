// Package bench executes query sets against a database session, measures
// them, and records the outcome.
package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/planprobe/planprobe/internal/hostinfo"
	"github.com/planprobe/planprobe/internal/plan"
	"github.com/planprobe/planprobe/internal/query"
	"github.com/planprobe/planprobe/internal/store"
	"github.com/planprobe/planprobe/pkg/logging"
	"github.com/planprobe/planprobe/pkg/models"
)

// Executor is the database surface the runner needs. *db.Session implements it.
type Executor interface {
	Explain(ctx context.Context, query string) (*plan.Explain, json.RawMessage, error)
	Exec(ctx context.Context, query string) error
	SetTreeShape(ctx context.Context, shape models.TreeShape) error
	Target() string
}

// Runner drives benchmark executions.
type Runner struct {
	session Executor
	store   store.Store
	log     *logging.Logger
}

// NewRunner creates a runner recording into the given store.
func NewRunner(session Executor, s store.Store, log *logging.Logger) *Runner {
	return &Runner{session: session, store: s, log: log}
}

// RunOptions configures an explain run.
type RunOptions struct {
	Label     string
	TreeShape models.TreeShape
}

// ExplainAll runs an instrumented EXPLAIN of every query, persisting each
// result as it completes. On error the results stored so far remain stored;
// there is no rollback.
func (r *Runner) ExplainAll(ctx context.Context, queries []query.Query, opts RunOptions) (*models.Run, []*models.QueryResult, error) {
	shape := opts.TreeShape
	if shape == "" {
		shape = models.TreeShapeDefault
	}
	if shape != models.TreeShapeDefault {
		if err := r.session.SetTreeShape(ctx, shape); err != nil {
			return nil, nil, err
		}
	}

	run := &models.Run{
		ID:        uuid.New().String(),
		Label:     opts.Label,
		TreeShape: shape,
		Target:    r.session.Target(),
		Host:      hostinfo.Detect(),
		StartedAt: time.Now().UTC(),
	}
	if err := r.store.CreateRun(run); err != nil {
		return nil, nil, fmt.Errorf("creating run: %w", err)
	}

	results := make([]*models.QueryResult, 0, len(queries))
	for i, q := range queries {
		r.log.Info("executing query", map[string]interface{}{
			"query":    q.Name,
			"progress": fmt.Sprintf("%d/%d", i+1, len(queries)),
		})

		doc, raw, err := r.session.Explain(ctx, q.SQL)
		if err != nil {
			return run, results, fmt.Errorf("query %s: %w", q.Name, err)
		}

		cards := plan.Cardinalities(doc.Plan)
		result := &models.QueryResult{
			RunID:         run.ID,
			Name:          q.Name,
			SQL:           q.SQL,
			PlanJSON:      raw,
			PlanningMs:    doc.PlanningTime,
			ExecutionMs:   doc.ExecutionTime,
			TotalCost:     doc.Plan.TotalCost,
			MaxJoinLevel:  plan.MaxJoinLevel(cards),
			Cardinalities: cards,
		}
		if err := r.store.SaveResult(result); err != nil {
			return run, results, fmt.Errorf("saving result for %s: %w", q.Name, err)
		}
		results = append(results, result)

		r.log.Info("query finished", map[string]interface{}{
			"query":        q.Name,
			"execution_ms": fmt.Sprintf("%.2f", doc.ExecutionTime),
		})
	}

	run.CompletedAt = time.Now().UTC()
	if err := r.store.CompleteRun(run.ID, run.CompletedAt); err != nil {
		return run, results, fmt.Errorf("completing run: %w", err)
	}
	return run, results, nil
}

// Timings maps query name to elapsed wall-clock milliseconds.
type Timings map[string]float64

// TimeAll executes each query and records its wall-clock duration. Plain
// execution, not EXPLAIN: instrumentation overhead would distort the ratios
// the comparisons are built on.
func (r *Runner) TimeAll(ctx context.Context, queries []query.Query) (Timings, error) {
	timings := make(Timings, len(queries))
	for i, q := range queries {
		r.log.Info("timing query", map[string]interface{}{
			"query":    q.Name,
			"progress": fmt.Sprintf("%d/%d", i+1, len(queries)),
		})

		timing := NewTiming()
		if err := r.session.Exec(ctx, q.SQL); err != nil {
			return timings, fmt.Errorf("query %s: %w", q.Name, err)
		}
		timing.Complete()
		timings[q.Name] = float64(timing.Duration()) / float64(time.Millisecond)
	}
	return timings, nil
}

// TimeAllWithShape sets the pg_hint_plan tree shape, then times the query set.
func (r *Runner) TimeAllWithShape(ctx context.Context, queries []query.Query, shape models.TreeShape) (Timings, error) {
	if err := r.session.SetTreeShape(ctx, shape); err != nil {
		return nil, err
	}
	r.log.Info("running query set", map[string]interface{}{"tree_shape": string(shape)})
	return r.TimeAll(ctx, queries)
}

// ShapeComparison is the ratio distribution of one tree shape vs default.
type ShapeComparison struct {
	Shape     models.TreeShape  `json:"shape"`
	Stats     RatioStats        `json:"stats"`
	Histogram []HistogramBucket `json:"histogram"`
}

// PlanSpace times the query set under every pg_hint_plan tree shape and
// compares each non-default shape against the default run. Ratio > 1 means
// the shape beat the default plan.
func (r *Runner) PlanSpace(ctx context.Context, queries []query.Query) ([]ShapeComparison, error) {
	byShape := make(map[models.TreeShape]Timings, len(models.AllTreeShapes))
	for _, shape := range models.AllTreeShapes {
		timings, err := r.TimeAllWithShape(ctx, queries, shape)
		if err != nil {
			return nil, fmt.Errorf("tree shape %s: %w", shape, err)
		}
		byShape[shape] = timings
	}

	base := byShape[models.TreeShapeDefault]
	comparisons := make([]ShapeComparison, 0, len(models.AllTreeShapes)-1)
	for _, shape := range models.AllTreeShapes {
		if shape == models.TreeShapeDefault {
			continue
		}
		ratios := Ratios(base, byShape[shape])
		stats, err := ComputeStats(ratios)
		if err != nil {
			return nil, fmt.Errorf("stats for shape %s: %w", shape, err)
		}
		comparisons = append(comparisons, ShapeComparison{
			Shape:     shape,
			Stats:     stats,
			Histogram: Histogram(ratios),
		})
	}
	return comparisons, nil
}
