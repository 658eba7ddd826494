package store

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/planprobe/planprobe/pkg/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "results.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRun(id string, startedAt time.Time) *models.Run {
	return &models.Run{
		ID:        id,
		Label:     "tpch warmup",
		TreeShape: models.TreeShapeDefault,
		Target:    "localhost:5432/tpch",
		Host: models.HostInfo{
			CPUModel:      "Test CPU",
			CPUThreads:    8,
			RAMTotalBytes: 16 << 30,
			OS:            "linux",
			Arch:          "amd64",
		},
		StartedAt: startedAt,
	}
}

func TestRunRoundTrip(t *testing.T) {
	store := newTestStore(t)

	started := time.Now().UTC().Truncate(time.Second)
	run := sampleRun("run-1", started)
	if err := store.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	got, err := store.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Label != run.Label {
		t.Errorf("Expected label %q, got %q", run.Label, got.Label)
	}
	if got.TreeShape != models.TreeShapeDefault {
		t.Errorf("Expected default tree shape, got %q", got.TreeShape)
	}
	if got.Host.CPUThreads != 8 {
		t.Errorf("Expected 8 CPU threads, got %d", got.Host.CPUThreads)
	}
	if got.Completed() {
		t.Error("New run should not be completed")
	}

	if err := store.CompleteRun("run-1", started.Add(time.Minute)); err != nil {
		t.Fatalf("CompleteRun failed: %v", err)
	}
	got, err = store.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun after complete failed: %v", err)
	}
	if !got.Completed() {
		t.Error("Run should be completed")
	}
}

func TestGetRunNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetRun("missing"); err != ErrRunNotFound {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
	if err := store.CompleteRun("missing", time.Now()); err != ErrRunNotFound {
		t.Errorf("Expected ErrRunNotFound from CompleteRun, got %v", err)
	}
	if err := store.DeleteRun("missing"); err != ErrRunNotFound {
		t.Errorf("Expected ErrRunNotFound from DeleteRun, got %v", err)
	}
}

func TestLatestRun(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.LatestRun(); err != ErrNoRuns {
		t.Errorf("Expected ErrNoRuns on empty store, got %v", err)
	}

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		run := sampleRun(id, base.Add(time.Duration(i)*time.Minute))
		if err := store.CreateRun(run); err != nil {
			t.Fatalf("CreateRun %s failed: %v", id, err)
		}
	}

	latest, err := store.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if latest.ID != "run-c" {
		t.Errorf("Expected run-c as latest, got %s", latest.ID)
	}

	runs, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("Expected 3 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-c" || runs[2].ID != "run-a" {
		t.Errorf("Runs not ordered newest first: %s, %s, %s", runs[0].ID, runs[1].ID, runs[2].ID)
	}
}

func TestResultRoundTrip(t *testing.T) {
	store := newTestStore(t)

	run := sampleRun("run-1", time.Now().UTC())
	if err := store.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	result := &models.QueryResult{
		RunID:        "run-1",
		Name:         "q05",
		SQL:          "SELECT count(*) FROM orders o JOIN customers c ON o.cid = c.id",
		PlanJSON:     json.RawMessage(`[{"Plan":{"Node Type":"Hash Join"}}]`),
		PlanningMs:   0.8,
		ExecutionMs:  412.5,
		TotalCost:    1400,
		MaxJoinLevel: 1,
		Cardinalities: []models.Cardinality{
			{NodeType: "Seq Scan", JoinLevel: 0, Estimated: 10000, Actual: 9800},
			{NodeType: "Hash Join", JoinLevel: 1, Estimated: 100, Actual: 2500},
		},
	}
	if err := store.SaveResult(result); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}
	if result.ID == 0 {
		t.Error("SaveResult should assign an id")
	}

	results, err := store.GetResults("run-1")
	if err != nil {
		t.Fatalf("GetResults failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}

	got := results[0]
	if got.Name != "q05" {
		t.Errorf("Expected name q05, got %q", got.Name)
	}
	if got.ExecutionMs != 412.5 {
		t.Errorf("Expected execution 412.5ms, got %v", got.ExecutionMs)
	}
	if len(got.Cardinalities) != 2 {
		t.Fatalf("Expected 2 cardinality records, got %d", len(got.Cardinalities))
	}
	if got.Cardinalities[1].NodeType != "Hash Join" {
		t.Errorf("Unexpected cardinality record: %+v", got.Cardinalities[1])
	}
	if qe := got.QError(); qe != -25 {
		t.Errorf("Expected restored query q-error -25, got %v", qe)
	}
}

func TestDeleteRunCascades(t *testing.T) {
	store := newTestStore(t)

	run := sampleRun("run-1", time.Now().UTC())
	if err := store.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := store.SaveResult(&models.QueryResult{RunID: "run-1", Name: "q01"}); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	if err := store.DeleteRun("run-1"); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	results, err := store.GetResults("run-1")
	if err != nil {
		t.Fatalf("GetResults failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected results to be deleted with run, got %d", len(results))
	}
}

func TestHealthCheck(t *testing.T) {
	store := newTestStore(t)
	if err := store.HealthCheck(); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}
