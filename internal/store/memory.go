package store

import (
	"sort"
	"sync"
	"time"

	"github.com/planprobe/planprobe/pkg/models"
)

// MemoryStore keeps runs in memory. Used by tests and by commands running
// without a results database.
type MemoryStore struct {
	mu      sync.RWMutex
	runs    map[string]*models.Run
	results map[string][]*models.QueryResult
	nextID  int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:    make(map[string]*models.Run),
		results: make(map[string][]*models.QueryResult),
		nextID:  1,
	}
}

func (m *MemoryStore) CreateRun(run *models.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *run
	m.runs[run.ID] = &clone
	return nil
}

func (m *MemoryStore) CompleteRun(id string, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	run.CompletedAt = completedAt
	return nil
}

func (m *MemoryStore) GetRun(id string) (*models.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	clone := *run
	return &clone, nil
}

func (m *MemoryStore) LatestRun() (*models.Run, error) {
	runs, err := m.ListRuns()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	return runs[0], nil
}

func (m *MemoryStore) ListRuns() ([]*models.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runs := make([]*models.Run, 0, len(m.runs))
	for _, run := range m.runs {
		clone := *run
		runs = append(runs, &clone)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].ID > runs[j].ID
		}
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}

func (m *MemoryStore) DeleteRun(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[id]; !ok {
		return ErrRunNotFound
	}
	delete(m.runs, id)
	delete(m.results, id)
	return nil
}

func (m *MemoryStore) SaveResult(result *models.QueryResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *result
	clone.ID = m.nextID
	m.nextID++
	result.ID = clone.ID
	m.results[result.RunID] = append(m.results[result.RunID], &clone)
	return nil
}

func (m *MemoryStore) GetResults(runID string) ([]*models.QueryResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored := m.results[runID]
	results := make([]*models.QueryResult, 0, len(stored))
	for _, r := range stored {
		clone := *r
		results = append(results, &clone)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) HealthCheck() error {
	return nil
}
