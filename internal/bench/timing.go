package bench

import "time"

// Timing records start/end timestamps for one measured operation.
type Timing struct {
	StartedAt   time.Time
	CompletedAt time.Time
}

// NewTiming creates a timing with the current start time.
func NewTiming() *Timing {
	return &Timing{StartedAt: time.Now()}
}

// Complete records the completion time.
func (t *Timing) Complete() {
	t.CompletedAt = time.Now()
}

// Duration returns the elapsed time, live if not yet completed.
func (t *Timing) Duration() time.Duration {
	if t.CompletedAt.IsZero() {
		return time.Since(t.StartedAt)
	}
	return t.CompletedAt.Sub(t.StartedAt)
}
