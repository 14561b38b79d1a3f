// Package netpath observes the OS view of the active network path and emits
// change events. The watcher does not care how the stream is produced; this
// package supplies both the interface and a portable polling implementation.
package netpath

import (
	"time"

	"netwatch/internal/models"
)

// Event is one path-change notification.
type Event struct {
	// Snapshot is nil when the observer could not determine link state.
	Snapshot *models.PathSnapshot
	At       time.Time
}

// Observer emits path-change events. Close stops the stream and closes the
// events channel.
type Observer interface {
	Events() <-chan Event
	Close() error
}
