// Package history keeps a bounded in-memory record of connectivity
// transitions. Nothing is ever written to disk; the record exists only to
// feed uptime summaries in the log.
package history

import (
	"sync"
	"time"

	"netwatch/internal/models"
)

// DefaultCapacity bounds how many transitions are retained.
const DefaultCapacity = 2048

// Timeline is a capped, append-only transition log. Safe for concurrent use.
type Timeline struct {
	mu          sync.RWMutex
	cap         int
	transitions []models.Transition
}

// NewTimeline creates a timeline; capacity <= 0 uses DefaultCapacity.
func NewTimeline(capacity int) *Timeline {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Timeline{cap: capacity}
}

// Record appends a transition, evicting the oldest entries beyond capacity.
func (t *Timeline) Record(state models.InternetState, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.transitions = append(t.transitions, models.Transition{State: state, At: at})
	if len(t.transitions) > t.cap {
		t.transitions = t.transitions[len(t.transitions)-t.cap:]
	}
}

// Snapshot returns a copy of the recorded transitions in order.
func (t *Timeline) Snapshot() []models.Transition {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.transitions) == 0 {
		return nil
	}
	out := make([]models.Transition, len(t.transitions))
	copy(out, t.transitions)
	return out
}

// Last returns the most recent transition, if any.
func (t *Timeline) Last() (models.Transition, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.transitions) == 0 {
		return models.Transition{}, false
	}
	return t.transitions[len(t.transitions)-1], true
}
