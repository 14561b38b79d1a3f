// Package notify renders connectivity transitions as human-visible alerts.
// Delivery failures are never fatal; callers log and move on.
package notify

import (
	"github.com/gen2brain/beeep"

	"netwatch/internal/models"
)

// Notifier delivers one alert. Implementations must tolerate being called
// from the watcher's callback and must not block for long.
type Notifier interface {
	Notify(title, body, sound string) error
}

// Desktop sends alerts through the host desktop notification service.
type Desktop struct{}

// Notify implements Notifier. The sound name is advisory; the desktop
// backend has no sound hook.
func (Desktop) Notify(title, body, _ string) error {
	return beeep.Notify(title, body, "")
}

// Muted discards every alert. Used with -quiet and in tests.
type Muted struct{}

// Notify implements Notifier.
func (Muted) Notify(_, _, _ string) error { return nil }

// ForState renders the alert content for a state transition.
func ForState(state models.InternetState) (title, body, sound string) {
	switch state {
	case models.StateOnline:
		return "Internet connected",
			"Connectivity checks are passing again.",
			"Glass"
	case models.StateWifiNoInternet:
		return "Wi-Fi has no internet",
			"The network is up but internet checks are failing. A captive portal may be in the way.",
			"Basso"
	default:
		return "Internet offline",
			"No usable network connection detected.",
			"Basso"
	}
}
