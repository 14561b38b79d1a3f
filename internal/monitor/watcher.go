package monitor

import (
	"context"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"netwatch/internal/models"
	"netwatch/internal/netpath"
)

// Watcher scheduling defaults.
const (
	DefaultDebounce        = 300 * time.Millisecond
	DefaultHeartbeatBase   = 2 * time.Minute
	DefaultHeartbeatJitter = 30 * time.Second
	DefaultHeartbeatFloor  = 15 * time.Second
)

// WatcherConfig holds the scheduling knobs. Unset durations fall back to the
// package defaults; a jitter of exactly zero is honored.
type WatcherConfig struct {
	// Debounce is how long a burst of path events must stay quiet before one
	// evaluation runs.
	Debounce time.Duration
	// HeartbeatBase is the nominal interval between safety-net evaluations.
	HeartbeatBase time.Duration
	// HeartbeatJitter is the maximum uniform offset applied around the base.
	HeartbeatJitter time.Duration
	// HeartbeatFloor is the minimum delay a jitter draw may produce.
	HeartbeatFloor time.Duration
}

func (c WatcherConfig) withDefaults() WatcherConfig {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.HeartbeatBase <= 0 {
		c.HeartbeatBase = DefaultHeartbeatBase
	}
	if c.HeartbeatJitter < 0 {
		c.HeartbeatJitter = DefaultHeartbeatJitter
	}
	if c.HeartbeatFloor <= 0 {
		c.HeartbeatFloor = DefaultHeartbeatFloor
	}
	return c
}

// stateEvaluator is what the watcher drives on each trigger.
type stateEvaluator interface {
	Evaluate(ctx context.Context, snap models.PathSnapshot) models.InternetState
}

// Watcher turns raw path-change events and a jittered heartbeat into
// change-only state callbacks. All scheduling state lives on the run
// goroutine, so timer arm/cancel, the in-flight flag and the last emitted
// state are never touched concurrently. At most one evaluation runs at a
// time; triggers arriving while one is in flight are dropped, not queued.
type Watcher struct {
	cfg      WatcherConfig
	eval     stateEvaluator
	events   <-chan netpath.Event
	onChange func(models.InternetState)
	clk      clock.Clock
	rng      *rand.Rand
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewWatcher builds a watcher consuming path events from events. A nil clk
// uses the wall clock; tests inject a mock.
func NewWatcher(cfg WatcherConfig, eval stateEvaluator, events <-chan netpath.Event, onChange func(models.InternetState), clk clock.Clock, log *zap.Logger) *Watcher {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		cfg:      cfg.withDefaults(),
		eval:     eval,
		events:   events,
		onChange: onChange,
		clk:      clk,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the scheduling loop. The heartbeat is armed immediately with
// one jittered delay.
func (w *Watcher) Start() {
	go w.run()
}

// Stop disarms both timers, stops consuming path events and cancels any
// evaluation still in flight. Its result is discarded: no callback fires
// after Stop returns.
func (w *Watcher) Stop() {
	select {
	case <-w.doneCh:
		return
	default:
	}
	close(w.stopCh)
	w.cancel()
	<-w.doneCh
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	var (
		last      models.InternetState
		haveLast  bool
		inFlight  bool
		snapshot  models.PathSnapshot
		debounce  *clock.Timer
		debounceC <-chan time.Time
	)

	// Buffered so a completion arriving after Stop never strands the
	// evaluation goroutine.
	results := make(chan models.InternetState, 1)

	heartbeat := w.clk.Timer(w.nextHeartbeat())
	defer heartbeat.Stop()

	trigger := func(reason string) {
		if inFlight {
			w.log.Debug("evaluation in flight, trigger dropped", zap.String("reason", reason))
			return
		}
		inFlight = true
		snap := snapshot
		go func() {
			results <- w.eval.Evaluate(w.ctx, snap)
		}()
	}

	for {
		select {
		case <-w.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return

		case ev, ok := <-w.events:
			if !ok {
				// Observer closed its stream; heartbeats keep the watcher alive.
				w.events = nil
				continue
			}
			if ev.Snapshot != nil {
				snapshot = *ev.Snapshot
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = w.clk.Timer(w.cfg.Debounce)
			debounceC = debounce.C

		case <-debounceC:
			debounce, debounceC = nil, nil
			trigger("path-change")

		case <-heartbeat.C:
			heartbeat.Reset(w.nextHeartbeat())
			trigger("heartbeat")

		case state := <-results:
			inFlight = false
			if haveLast && state == last {
				continue
			}
			last, haveLast = state, true
			w.log.Info("connectivity changed", zap.Stringer("state", state))
			if w.onChange != nil {
				w.onChange(state)
			}
		}
	}
}

func (w *Watcher) nextHeartbeat() time.Duration {
	return jitteredDelay(w.rng, w.cfg.HeartbeatBase, w.cfg.HeartbeatJitter, w.cfg.HeartbeatFloor)
}

// jitteredDelay draws base ± uniform(jitter), clamped to floor so a
// pathological draw cannot tight-loop, and so heartbeats across many hosts
// do not synchronize.
func jitteredDelay(rng *rand.Rand, base, jitter, floor time.Duration) time.Duration {
	d := base
	if jitter > 0 {
		d += time.Duration(rng.Int63n(int64(2*jitter)+1)) - jitter
	}
	if d < floor {
		d = floor
	}
	return d
}
