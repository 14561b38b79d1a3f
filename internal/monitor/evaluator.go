package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"netwatch/internal/models"
	"netwatch/internal/probe"
)

// prober abstracts the probe executor so evaluations can be tested against
// canned outcomes.
type prober interface {
	ExecuteHTTP(ctx context.Context, p probe.HTTPProbe) probe.Outcome
	DialTCP(ctx context.Context, t probe.TCPTarget, timeout time.Duration) bool
}

// aggregate collects the per-kind OR of all probe outcomes for one cycle. A
// fresh one is allocated per evaluation and guarded by its own mutex; it is
// never shared across cycles.
type aggregate struct {
	mu                sync.Mutex
	httpMatched       bool
	httpRespUnmatched bool
	tcpConnected      bool
}

// Evaluator classifies connectivity by running the whole probe catalog.
type Evaluator struct {
	httpProbes []probe.HTTPProbe
	tcpTargets []probe.TCPTarget
	tcpTimeout time.Duration
	exec       prober
	log        *zap.Logger
}

// NewEvaluator wires a probe catalog to an executor.
func NewEvaluator(httpProbes []probe.HTTPProbe, tcpTargets []probe.TCPTarget, tcpTimeout time.Duration, exec prober, log *zap.Logger) *Evaluator {
	if tcpTimeout <= 0 {
		tcpTimeout = probe.DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{
		httpProbes: httpProbes,
		tcpTargets: tcpTargets,
		tcpTimeout: tcpTimeout,
		exec:       exec,
		log:        log,
	}
}

// Evaluate runs every probe concurrently, waits for all of them, and resolves
// the aggregate to a single state. There is no early exit on first success:
// distinguishing "nothing answered" from "something answered but wrong" needs
// every signal. Evaluate never fails; each probe error degrades to a
// no-response signal.
func (e *Evaluator) Evaluate(ctx context.Context, snap models.PathSnapshot) models.InternetState {
	started := time.Now()

	var agg aggregate
	var wg sync.WaitGroup

	for _, p := range e.httpProbes {
		wg.Add(1)
		go func(p probe.HTTPProbe) {
			defer wg.Done()
			outcome := e.exec.ExecuteHTTP(ctx, p)
			agg.mu.Lock()
			switch outcome {
			case probe.OutcomeMatched:
				agg.httpMatched = true
			case probe.OutcomeRespondedUnmatched:
				agg.httpRespUnmatched = true
			}
			agg.mu.Unlock()
		}(p)
	}

	for _, t := range e.tcpTargets {
		wg.Add(1)
		go func(t probe.TCPTarget) {
			defer wg.Done()
			if e.exec.DialTCP(ctx, t, e.tcpTimeout) {
				agg.mu.Lock()
				agg.tcpConnected = true
				agg.mu.Unlock()
			}
		}(t)
	}

	wg.Wait()

	state := resolve(&agg, snap)
	e.log.Debug("evaluation complete",
		zap.Stringer("state", state),
		zap.Bool("http_matched", agg.httpMatched),
		zap.Bool("http_responded_unmatched", agg.httpRespUnmatched),
		zap.Bool("tcp_connected", agg.tcpConnected),
		zap.Duration("took", time.Since(started)))
	return state
}

// resolve applies the priority policy: a confirmed HTTP match beats
// everything; an HTTP response that missed its expectation is stronger
// walled-network evidence than a bare TCP connect; TCP success alone never
// proves application-layer usability; with no signals at all the link state
// decides.
func resolve(agg *aggregate, snap models.PathSnapshot) models.InternetState {
	switch {
	case agg.httpMatched:
		return models.StateOnline
	case agg.httpRespUnmatched:
		if snap.WifiSatisfied() {
			return models.StateWifiNoInternet
		}
		return models.StateOffline
	case agg.tcpConnected:
		return models.StateWifiNoInternet
	case snap.WifiSatisfied():
		return models.StateWifiNoInternet
	default:
		return models.StateOffline
	}
}
