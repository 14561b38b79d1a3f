package netpath

import (
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"netwatch/internal/models"
)

// DefaultPollInterval is how often the link state is sampled when no
// override is configured.
const DefaultPollInterval = 2 * time.Second

// Poller is a portable link observer: it samples interface state at a fixed
// interval and emits an event whenever the derived snapshot changes. The
// first sample is always emitted so consumers start with a known snapshot.
type Poller struct {
	interval time.Duration
	log      *zap.Logger

	events    chan Event
	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// NewPoller starts sampling immediately.
func NewPoller(interval time.Duration, log *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	p := &Poller{
		interval: interval,
		log:      log,
		events:   make(chan Event, 8),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Events returns the path-change stream. The channel closes after Close.
func (p *Poller) Events() <-chan Event {
	return p.events
}

// Close stops the sampling loop and closes the event stream. Safe to call
// more than once.
func (p *Poller) Close() error {
	p.closeOnce.Do(func() {
		close(p.stopCh)
		<-p.doneCh
	})
	return nil
}

func (p *Poller) run() {
	defer close(p.doneCh)
	defer close(p.events)

	last := p.sample()
	p.send(last)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			snap := p.sample()
			if snap != last {
				p.log.Debug("path changed",
					zap.Bool("satisfied", snap.LinkSatisfied),
					zap.Bool("wifi", snap.WiFi))
				last = snap
				p.send(snap)
			}
		}
	}
}

func (p *Poller) send(snap models.PathSnapshot) {
	s := snap
	select {
	case p.events <- Event{Snapshot: &s, At: time.Now()}:
	default:
		// The consumer debounces anyway; dropping under backpressure is safe.
	}
}

// sample derives a snapshot from the visible interfaces: the link is
// satisfied when a non-loopback interface is up with a routable address, and
// the path is Wi-Fi when such an interface is wireless.
func (p *Poller) sample() models.PathSnapshot {
	ifaces, err := net.Interfaces()
	if err != nil {
		p.log.Debug("interface enumeration failed", zap.Error(err))
		return models.PathSnapshot{}
	}

	snap := models.PathSnapshot{Known: true}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil || !hasRoutableAddr(addrs) {
			continue
		}
		snap.LinkSatisfied = true
		if isWireless(iface.Name) {
			snap.WiFi = true
		}
	}
	return snap
}

func hasRoutableAddr(addrs []net.Addr) bool {
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP
		if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
			continue
		}
		return true
	}
	return false
}

// isWireless reports whether the kernel exposes wireless extensions for the
// interface. Hosts without sysfs simply never report Wi-Fi.
func isWireless(name string) bool {
	_, err := os.Stat(filepath.Join("/sys/class/net", name, "wireless"))
	return err == nil
}
