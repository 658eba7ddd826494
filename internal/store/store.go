// Package store persists benchmark runs and their query results so analysis
// commands can re-use measurements instead of re-executing queries.
package store

import (
	"errors"
	"time"

	"github.com/planprobe/planprobe/pkg/models"
)

var (
	// ErrRunNotFound is returned when a run id has no stored run.
	ErrRunNotFound = errors.New("run not found")
	// ErrNoRuns is returned by LatestRun on an empty store.
	ErrNoRuns = errors.New("no runs stored")
)

// Store defines the persistence interface. SQLite is the on-disk
// implementation; the memory store backs tests and ephemeral runs.
type Store interface {
	CreateRun(run *models.Run) error
	CompleteRun(id string, completedAt time.Time) error
	GetRun(id string) (*models.Run, error)
	LatestRun() (*models.Run, error)
	ListRuns() ([]*models.Run, error)
	DeleteRun(id string) error

	SaveResult(result *models.QueryResult) error
	GetResults(runID string) ([]*models.QueryResult, error)

	Close() error
	HealthCheck() error
}
