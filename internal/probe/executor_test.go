package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProbe(url string, expect Expectation) HTTPProbe {
	return HTTPProbe{
		Name:    "test",
		URL:     url,
		Method:  http.MethodGet,
		Timeout: 2 * time.Second,
		Expect:  expect,
	}
}

func TestExecuteHTTPMatched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	exec := NewExecutor(nil)
	got := exec.ExecuteHTTP(context.Background(), testProbe(srv.URL, StatusIn(204, 204)))
	assert.Equal(t, OutcomeMatched, got)
}

func TestExecuteHTTPRespondedUnmatched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A captive portal answers 200 with its own page.
		_, _ = w.Write([]byte("<html>Hotel Wi-Fi login</html>"))
	}))
	defer srv.Close()

	exec := NewExecutor(nil)
	assert.Equal(t, OutcomeRespondedUnmatched,
		exec.ExecuteHTTP(context.Background(), testProbe(srv.URL, StatusIn(204, 204))))
	assert.Equal(t, OutcomeRespondedUnmatched,
		exec.ExecuteHTTP(context.Background(), testProbe(srv.URL, ExactBody("Success"))))
	assert.Equal(t, OutcomeRespondedUnmatched,
		exec.ExecuteHTTP(context.Background(), testProbe(srv.URL, BodyContains("success.txt"))))
}

func TestExecuteHTTPExactBodyTrimmed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Microsoft Connect Test\r\n"))
	}))
	defer srv.Close()

	exec := NewExecutor(nil)
	got := exec.ExecuteHTTP(context.Background(), testProbe(srv.URL, ExactBody("Microsoft Connect Test")))
	assert.Equal(t, OutcomeMatched, got)
}

func TestExecuteHTTPTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	p := testProbe(srv.URL, StatusIn(200, 299))
	p.Timeout = 50 * time.Millisecond

	exec := NewExecutor(nil)
	started := time.Now()
	got := exec.ExecuteHTTP(context.Background(), p)
	assert.Equal(t, OutcomeNoResponse, got)
	assert.Less(t, time.Since(started), time.Second, "probe must not block past its timeout")
}

func TestExecuteHTTPConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	exec := NewExecutor(nil)
	assert.Equal(t, OutcomeNoResponse, exec.ExecuteHTTP(context.Background(), testProbe(url, StatusIn(200, 299))))
}

func TestDialTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	addr := ln.Addr().(*net.TCPAddr)
	exec := NewExecutor(nil)

	ok := exec.DialTCP(context.Background(), TCPTarget{Host: "127.0.0.1", Port: addr.Port}, time.Second)
	assert.True(t, ok)
}

func TestDialTCPRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	exec := NewExecutor(nil)
	ok := exec.DialTCP(context.Background(), TCPTarget{Host: "127.0.0.1", Port: port}, time.Second)
	assert.False(t, ok)
}

func TestDialTCPRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := NewExecutor(nil)
	ok := exec.DialTCP(ctx, TCPTarget{Host: "127.0.0.1", Port: 9}, time.Second)
	assert.False(t, ok)
}
