// Package metrics exposes stored benchmark results to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/planprobe/planprobe/internal/report"
	"github.com/planprobe/planprobe/internal/store"
)

// Collector projects the results store into Prometheus metrics on scrape.
type Collector struct {
	store store.Store

	runsTotal    *prometheus.Desc
	resultsTotal *prometheus.Desc
	avgExecution *prometheus.Desc
	worstQError  *prometheus.Desc
	storeHealthy *prometheus.Desc
}

// NewCollector creates a collector reading from s.
func NewCollector(s store.Store) *Collector {
	return &Collector{
		store: s,
		runsTotal: prometheus.NewDesc(
			"planprobe_runs_total",
			"Number of stored benchmark runs",
			nil, nil,
		),
		resultsTotal: prometheus.NewDesc(
			"planprobe_query_results_total",
			"Number of stored query results across all runs",
			nil, nil,
		),
		avgExecution: prometheus.NewDesc(
			"planprobe_run_avg_execution_ms",
			"Average query execution time of a run in milliseconds",
			[]string{"run_id", "tree_shape"}, nil,
		),
		worstQError: prometheus.NewDesc(
			"planprobe_run_worst_q_error",
			"Largest absolute query-level q-error of a run",
			[]string{"run_id", "tree_shape"}, nil,
		),
		storeHealthy: prometheus.NewDesc(
			"planprobe_store_healthy",
			"1 when the results store responds to health checks",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.runsTotal
	ch <- c.resultsTotal
	ch <- c.avgExecution
	ch <- c.worstQError
	ch <- c.storeHealthy
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	healthy := 1.0
	if err := c.store.HealthCheck(); err != nil {
		healthy = 0
	}
	ch <- prometheus.MustNewConstMetric(c.storeHealthy, prometheus.GaugeValue, healthy)

	runs, err := c.store.ListRuns()
	if err != nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.runsTotal, prometheus.GaugeValue, float64(len(runs)))

	totalResults := 0
	for _, run := range runs {
		results, err := c.store.GetResults(run.ID)
		if err != nil {
			continue
		}
		totalResults += len(results)
		if len(results) == 0 {
			continue
		}

		sum := 0.0
		for _, r := range results {
			sum += r.ExecutionMs
		}
		labels := []string{run.ID, string(run.TreeShape)}
		ch <- prometheus.MustNewConstMetric(c.avgExecution, prometheus.GaugeValue,
			sum/float64(len(results)), labels...)
		ch <- prometheus.MustNewConstMetric(c.worstQError, prometheus.GaugeValue,
			report.WorstQError(results), labels...)
	}
	ch <- prometheus.MustNewConstMetric(c.resultsTotal, prometheus.GaugeValue, float64(totalResults))
}
