package config

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netwatch/internal/probe"
)

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadParsesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
debounce_ms: 500
heartbeat_seconds: 60
notifications: false
http_probes:
  - name: portal
    url: http://example.net/check
    method: head
    timeout_seconds: 3
    expect:
      status_min: 200
      status_max: 299
tcp_targets:
  - host: 192.0.2.1
    port: 443
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Debounce())
	assert.Equal(t, time.Minute, cfg.Heartbeat())
	assert.False(t, cfg.Notifications)
	// Untouched keys keep their defaults.
	assert.Equal(t, 15*time.Second, cfg.HeartbeatFloor())
	assert.Equal(t, 2*time.Second, cfg.PathPoll())
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debounce_ms: [nope"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	mutate := func(fn func(*Config)) Config {
		cfg := DefaultConfig()
		fn(&cfg)
		return cfg
	}

	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"defaults", DefaultConfig(), true},
		{"zero debounce", mutate(func(c *Config) { c.DebounceMs = 0 }), false},
		{"negative jitter", mutate(func(c *Config) { c.HeartbeatJitterSeconds = -1 }), false},
		{"floor above ceiling", mutate(func(c *Config) { c.HeartbeatFloorSeconds = 1000 }), false},
		{"zero floor", mutate(func(c *Config) { c.HeartbeatFloorSeconds = 0 }), false},
		{"probe without url", mutate(func(c *Config) {
			c.HTTPProbes = []HTTPProbe{{Expect: Expect{BodyExact: "ok"}}}
		}), false},
		{"probe with bad method", mutate(func(c *Config) {
			c.HTTPProbes = []HTTPProbe{{URL: "http://x", Method: "POST", Expect: Expect{BodyExact: "ok"}}}
		}), false},
		{"probe with two expectations", mutate(func(c *Config) {
			c.HTTPProbes = []HTTPProbe{{URL: "http://x", Expect: Expect{BodyExact: "ok", BodyContains: "o"}}}
		}), false},
		{"probe with no expectation", mutate(func(c *Config) {
			c.HTTPProbes = []HTTPProbe{{URL: "http://x"}}
		}), false},
		{"probe with inverted range", mutate(func(c *Config) {
			c.HTTPProbes = []HTTPProbe{{URL: "http://x", Expect: Expect{StatusMin: 300, StatusMax: 200}}}
		}), false},
		{"valid probe", mutate(func(c *Config) {
			c.HTTPProbes = []HTTPProbe{{URL: "http://x", Expect: Expect{StatusMin: 200, StatusMax: 299}}}
		}), true},
		{"tcp target without host", mutate(func(c *Config) {
			c.TCPTargets = []TCPTarget{{Port: 443}}
		}), false},
		{"tcp target with bad port", mutate(func(c *Config) {
			c.TCPTargets = []TCPTarget{{Host: "h", Port: 70000}}
		}), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCatalogDefaults(t *testing.T) {
	httpProbes, tcpTargets := DefaultConfig().Catalog()
	assert.Len(t, httpProbes, 5)
	assert.Len(t, tcpTargets, 4)
}

func TestCatalogOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HTTPProbes = []HTTPProbe{
		{URL: "http://a.example/204", Expect: Expect{StatusMin: 204, StatusMax: 204}},
		{Name: "portal", URL: "https://b.example/t", Method: "head", TimeoutSeconds: 3, Expect: Expect{BodyContains: "ok"}},
		{Name: "exact", URL: "http://c.example/t", Expect: Expect{BodyExact: "Success"}},
	}
	cfg.TCPTargets = []TCPTarget{{Host: "192.0.2.7", Port: 853}}
	require.NoError(t, cfg.Validate())

	httpProbes, tcpTargets := cfg.Catalog()
	require.Len(t, httpProbes, 3)
	require.Len(t, tcpTargets, 1)

	assert.Equal(t, "probe-0", httpProbes[0].Name, "unnamed probes get positional names")
	assert.Equal(t, http.MethodGet, httpProbes[0].Method)
	assert.Equal(t, probe.DefaultTimeout, httpProbes[0].Timeout)
	assert.True(t, httpProbes[0].Expect.Matches(204, nil))
	assert.False(t, httpProbes[0].Expect.Matches(200, nil))

	assert.Equal(t, http.MethodHead, httpProbes[1].Method)
	assert.Equal(t, 3*time.Second, httpProbes[1].Timeout)
	assert.True(t, httpProbes[1].Expect.Matches(503, []byte("all ok")))

	assert.True(t, httpProbes[2].Expect.Matches(200, []byte(" Success\n")))
	assert.False(t, httpProbes[2].Expect.Matches(200, []byte("Successful")))

	assert.Equal(t, "192.0.2.7:853", tcpTargets[0].Addr())
}
