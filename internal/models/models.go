package models

import (
	"time"
)

// InternetState classifies host connectivity. The set is closed and carries
// no ordering.
type InternetState int

const (
	// StateOffline means no usable network at all.
	StateOffline InternetState = iota
	// StateWifiNoInternet means the local link is up but internet is not
	// usable: captive portal, blocked DNS/HTTP, or unconfirmed reachability.
	StateWifiNoInternet
	// StateOnline means at least one HTTP probe confirmed usable internet.
	StateOnline
)

// String renders the state for logs and notifications.
func (s InternetState) String() string {
	switch s {
	case StateOffline:
		return "offline"
	case StateWifiNoInternet:
		return "wifi-no-internet"
	case StateOnline:
		return "online"
	default:
		return "unknown"
	}
}

// PathSnapshot mirrors what the OS reports about the active network path.
// Known is false when no path information has been observed yet; consumers
// must then assume the link is neither satisfied nor Wi-Fi.
type PathSnapshot struct {
	Known         bool `json:"known"`
	LinkSatisfied bool `json:"link_satisfied"`
	WiFi          bool `json:"wifi"`
}

// WifiSatisfied reports whether the snapshot describes a usable Wi-Fi link.
func (p PathSnapshot) WifiSatisfied() bool {
	return p.Known && p.LinkSatisfied && p.WiFi
}

// Transition records one connectivity state change.
type Transition struct {
	State InternetState `json:"state"`
	At    time.Time     `json:"at"`
}
