// Package metrics summarises a transition timeline into per-state durations.
package metrics

import (
	"math"
	"time"

	"netwatch/internal/models"
)

// Breakdown summarises how long the host spent in each connectivity state.
type Breakdown struct {
	Total         time.Duration
	PerState      map[models.InternetState]time.Duration
	Transitions   int
	OnlinePercent float64
}

// StateBreakdown accumulates the duration between consecutive transitions,
// attributing each interval to the state entered at its start; the final
// interval extends to now. Out-of-order entries contribute nothing.
func StateBreakdown(transitions []models.Transition, now time.Time) Breakdown {
	b := Breakdown{
		PerState:    make(map[models.InternetState]time.Duration),
		Transitions: len(transitions),
	}
	if len(transitions) == 0 {
		return b
	}

	for i, tr := range transitions {
		end := now
		if i+1 < len(transitions) {
			end = transitions[i+1].At
		}
		if end.Before(tr.At) {
			continue
		}
		b.PerState[tr.State] += end.Sub(tr.At)
	}
	for _, d := range b.PerState {
		b.Total += d
	}
	if b.Total > 0 {
		b.OnlinePercent = round2(float64(b.PerState[models.StateOnline]) / float64(b.Total) * 100)
	}
	return b
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
