package probe

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Outcome is the tri-state result of a single HTTP probe.
type Outcome int

const (
	// OutcomeNoResponse covers transport errors, refusals and timeouts.
	OutcomeNoResponse Outcome = iota
	// OutcomeRespondedUnmatched means something answered but not what the
	// probe expected. On a walled network this is the usual captive-portal
	// signature.
	OutcomeRespondedUnmatched
	// OutcomeMatched means the response satisfied the probe's expectation.
	OutcomeMatched
)

// String renders the outcome for logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeRespondedUnmatched:
		return "responded-unmatched"
	case OutcomeNoResponse:
		return "no-response"
	default:
		return "unknown"
	}
}

// maxBodyBytes caps how much of a response body is read before the
// expectation is evaluated. Catalog bodies are tiny; a portal page past this
// size cannot match anyway.
const maxBodyBytes = 64 << 10

// Executor issues individual probes. It is safe for concurrent use; every
// call is bounded by the probe's own timeout and performs no retries.
type Executor struct {
	client *http.Client
	dialer *net.Dialer
	log    *zap.Logger
}

// NewExecutor builds an executor with a shared HTTP transport.
func NewExecutor(log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   DefaultTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: DefaultTimeout,
	}
	return &Executor{
		client: &http.Client{Transport: transport},
		dialer: &net.Dialer{},
		log:    log,
	}
}

// ExecuteHTTP runs one probe to completion, never blocking past its timeout.
// Transport failures of any kind degrade to OutcomeNoResponse.
func (e *Executor) ExecuteHTTP(ctx context.Context, p HTTPProbe) Outcome {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, p.Method, p.URL, nil)
	if err != nil {
		e.log.Debug("probe request build failed", zap.String("probe", p.Name), zap.Error(err))
		return OutcomeNoResponse
	}

	started := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		e.log.Debug("probe transport failed", zap.String("probe", p.Name), zap.Error(err))
		return OutcomeNoResponse
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		e.log.Debug("probe body read failed", zap.String("probe", p.Name), zap.Error(err))
		return OutcomeNoResponse
	}

	outcome := OutcomeRespondedUnmatched
	if p.Expect.Matches(resp.StatusCode, body) {
		outcome = OutcomeMatched
	}
	e.log.Debug("probe finished",
		zap.String("probe", p.Name),
		zap.Int("status", resp.StatusCode),
		zap.Stringer("outcome", outcome),
		zap.Duration("latency", time.Since(started)))
	return outcome
}

// DialTCP reports whether a raw connection to the target succeeds within the
// timeout. The dialer deadline fires even when the remote end never answers,
// so the attempt self-cancels instead of blocking.
func (e *Executor) DialTCP(ctx context.Context, t TCPTarget, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := e.dialer.DialContext(ctx, "tcp", t.Addr())
	if err != nil {
		e.log.Debug("tcp probe failed", zap.String("target", t.Addr()), zap.Error(err))
		return false
	}
	_ = conn.Close()
	return true
}
