package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"netwatch/internal/probe"
)

// Config represents configuration data for the connectivity watcher.
type Config struct {
	DebounceMs             int    `yaml:"debounce_ms"`
	HeartbeatSeconds       int    `yaml:"heartbeat_seconds"`
	HeartbeatJitterSeconds int    `yaml:"heartbeat_jitter_seconds"`
	HeartbeatFloorSeconds  int    `yaml:"heartbeat_floor_seconds"`
	PathPollSeconds        int    `yaml:"path_poll_seconds"`
	TCPTimeoutSeconds      int    `yaml:"tcp_timeout_seconds"`
	Notifications          bool   `yaml:"notifications"`
	LogLevel               string `yaml:"log_level"`

	// Optional catalog overrides. Empty lists keep the built-in catalog.
	HTTPProbes []HTTPProbe `yaml:"http_probes"`
	TCPTargets []TCPTarget `yaml:"tcp_targets"`
}

// HTTPProbe is the yaml form of one HTTP probe.
type HTTPProbe struct {
	Name           string `yaml:"name"`
	URL            string `yaml:"url"`
	Method         string `yaml:"method"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Expect         Expect `yaml:"expect"`
}

// Expect declares exactly one expectation kind: a status range, an exact
// body, or a body substring.
type Expect struct {
	StatusMin    int    `yaml:"status_min"`
	StatusMax    int    `yaml:"status_max"`
	BodyExact    string `yaml:"body_exact"`
	BodyContains string `yaml:"body_contains"`
}

// TCPTarget is the yaml form of one TCP fallback target.
type TCPTarget struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DefaultConfig returns sensible defaults in case no configuration file is
// provided.
func DefaultConfig() Config {
	return Config{
		DebounceMs:             300,
		HeartbeatSeconds:       120,
		HeartbeatJitterSeconds: 30,
		HeartbeatFloorSeconds:  15,
		PathPollSeconds:        2,
		TCPTimeoutSeconds:      5,
		Notifications:          true,
		LogLevel:               "info",
	}
}

// Load reads configuration from a yaml file. Missing files fall back to
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the scheduling knobs and any catalog overrides.
func (c Config) Validate() error {
	if c.DebounceMs <= 0 {
		return fmt.Errorf("debounce_ms must be positive, got %d", c.DebounceMs)
	}
	if c.HeartbeatSeconds <= 0 {
		return fmt.Errorf("heartbeat_seconds must be positive, got %d", c.HeartbeatSeconds)
	}
	if c.HeartbeatJitterSeconds < 0 {
		return fmt.Errorf("heartbeat_jitter_seconds must not be negative, got %d", c.HeartbeatJitterSeconds)
	}
	if c.HeartbeatFloorSeconds <= 0 {
		return fmt.Errorf("heartbeat_floor_seconds must be positive, got %d", c.HeartbeatFloorSeconds)
	}
	if c.HeartbeatFloorSeconds > c.HeartbeatSeconds+c.HeartbeatJitterSeconds {
		return fmt.Errorf("heartbeat_floor_seconds %d exceeds every possible heartbeat draw", c.HeartbeatFloorSeconds)
	}
	if c.PathPollSeconds <= 0 {
		return fmt.Errorf("path_poll_seconds must be positive, got %d", c.PathPollSeconds)
	}
	if c.TCPTimeoutSeconds <= 0 {
		return fmt.Errorf("tcp_timeout_seconds must be positive, got %d", c.TCPTimeoutSeconds)
	}

	for i, p := range c.HTTPProbes {
		if err := p.validate(); err != nil {
			return fmt.Errorf("http_probes[%d]: %w", i, err)
		}
	}
	for i, t := range c.TCPTargets {
		if t.Host == "" {
			return fmt.Errorf("tcp_targets[%d]: host is required", i)
		}
		if t.Port < 1 || t.Port > 65535 {
			return fmt.Errorf("tcp_targets[%d]: port %d out of range", i, t.Port)
		}
	}
	return nil
}

func (p HTTPProbe) validate() error {
	if p.URL == "" {
		return fmt.Errorf("url is required")
	}
	switch strings.ToUpper(p.Method) {
	case "", http.MethodGet, http.MethodHead:
	default:
		return fmt.Errorf("method %q not supported, use GET or HEAD", p.Method)
	}

	kinds := 0
	if p.Expect.BodyExact != "" {
		kinds++
	}
	if p.Expect.BodyContains != "" {
		kinds++
	}
	if p.Expect.StatusMin != 0 || p.Expect.StatusMax != 0 {
		kinds++
		if p.Expect.StatusMin < 100 || p.Expect.StatusMax > 599 || p.Expect.StatusMin > p.Expect.StatusMax {
			return fmt.Errorf("status range %d-%d is invalid", p.Expect.StatusMin, p.Expect.StatusMax)
		}
	}
	if kinds != 1 {
		return fmt.Errorf("expect must declare exactly one of status range, body_exact, body_contains")
	}
	return nil
}

// Debounce returns the debounce window.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// Heartbeat returns the nominal heartbeat interval.
func (c Config) Heartbeat() time.Duration {
	return time.Duration(c.HeartbeatSeconds) * time.Second
}

// HeartbeatJitter returns the maximum heartbeat offset.
func (c Config) HeartbeatJitter() time.Duration {
	return time.Duration(c.HeartbeatJitterSeconds) * time.Second
}

// HeartbeatFloor returns the minimum heartbeat delay.
func (c Config) HeartbeatFloor() time.Duration {
	return time.Duration(c.HeartbeatFloorSeconds) * time.Second
}

// PathPoll returns the link-sampling interval.
func (c Config) PathPoll() time.Duration {
	return time.Duration(c.PathPollSeconds) * time.Second
}

// TCPTimeout returns the per-target TCP dial timeout.
func (c Config) TCPTimeout() time.Duration {
	return time.Duration(c.TCPTimeoutSeconds) * time.Second
}

// Catalog materialises the probe catalog, falling back to the built-in
// defaults when no overrides are configured.
func (c Config) Catalog() ([]probe.HTTPProbe, []probe.TCPTarget) {
	httpProbes := probe.DefaultHTTPProbes()
	if len(c.HTTPProbes) > 0 {
		httpProbes = make([]probe.HTTPProbe, 0, len(c.HTTPProbes))
		for i, p := range c.HTTPProbes {
			httpProbes = append(httpProbes, p.toProbe(i))
		}
	}

	tcpTargets := probe.DefaultTCPTargets()
	if len(c.TCPTargets) > 0 {
		tcpTargets = make([]probe.TCPTarget, 0, len(c.TCPTargets))
		for _, t := range c.TCPTargets {
			tcpTargets = append(tcpTargets, probe.TCPTarget{Host: t.Host, Port: t.Port})
		}
	}
	return httpProbes, tcpTargets
}

func (p HTTPProbe) toProbe(idx int) probe.HTTPProbe {
	name := p.Name
	if name == "" {
		name = fmt.Sprintf("probe-%d", idx)
	}
	method := strings.ToUpper(p.Method)
	if method == "" {
		method = http.MethodGet
	}
	timeout := time.Duration(p.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = probe.DefaultTimeout
	}

	var expect probe.Expectation
	switch {
	case p.Expect.BodyExact != "":
		expect = probe.ExactBody(p.Expect.BodyExact)
	case p.Expect.BodyContains != "":
		expect = probe.BodyContains(p.Expect.BodyContains)
	default:
		expect = probe.StatusIn(p.Expect.StatusMin, p.Expect.StatusMax)
	}

	return probe.HTTPProbe{
		Name:    name,
		URL:     p.URL,
		Method:  method,
		Timeout: timeout,
		Expect:  expect,
	}
}
