package probe

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds a single probe when no override is configured.
const DefaultTimeout = 5 * time.Second

// ExpectKind selects how an HTTP probe response is judged.
type ExpectKind int

const (
	// ExpectStatusIn accepts any status code within [Lo, Hi].
	ExpectStatusIn ExpectKind = iota
	// ExpectExactBody accepts a body equal to Body after trimming
	// surrounding whitespace.
	ExpectExactBody
	// ExpectBodyContains accepts a body containing Body as a substring.
	ExpectBodyContains
)

// Expectation describes what a response must look like for the probe to
// count as a match.
type Expectation struct {
	Kind ExpectKind
	Lo   int
	Hi   int
	Body string
}

// StatusIn expects a status code in the inclusive range [lo, hi].
func StatusIn(lo, hi int) Expectation {
	return Expectation{Kind: ExpectStatusIn, Lo: lo, Hi: hi}
}

// ExactBody expects the whitespace-trimmed body to equal body.
func ExactBody(body string) Expectation {
	return Expectation{Kind: ExpectExactBody, Body: body}
}

// BodyContains expects the body to contain sub.
func BodyContains(sub string) Expectation {
	return Expectation{Kind: ExpectBodyContains, Body: sub}
}

// Matches reports whether the received status and body satisfy the
// expectation.
func (e Expectation) Matches(status int, body []byte) bool {
	switch e.Kind {
	case ExpectStatusIn:
		return status >= e.Lo && status <= e.Hi
	case ExpectExactBody:
		return strings.TrimSpace(string(body)) == e.Body
	case ExpectBodyContains:
		return strings.Contains(string(body), e.Body)
	default:
		return false
	}
}

// HTTPProbe defines a single HTTP reachability check.
type HTTPProbe struct {
	Name    string
	URL     string
	Method  string // http.MethodGet or http.MethodHead
	Timeout time.Duration
	Expect  Expectation
}

// TCPTarget defines a raw TCP reachability check, independent of DNS and
// HTTP.
type TCPTarget struct {
	Host string
	Port int
}

// Addr returns the dialable host:port form.
func (t TCPTarget) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// DefaultHTTPProbes returns the built-in catalog. The targets deliberately
// span independent vendors with mixed TLS and response shapes so a single
// vendor outage cannot look like a global failure.
func DefaultHTTPProbes() []HTTPProbe {
	return []HTTPProbe{
		{
			Name:    "google-204",
			URL:     "http://connectivitycheck.gstatic.com/generate_204",
			Method:  http.MethodGet,
			Timeout: DefaultTimeout,
			Expect:  StatusIn(204, 204),
		},
		{
			Name:    "firefox-portal",
			URL:     "http://detectportal.firefox.com/success.txt",
			Method:  http.MethodGet,
			Timeout: DefaultTimeout,
			Expect:  BodyContains("success"),
		},
		{
			Name:    "apple-hotspot",
			URL:     "http://captive.apple.com/hotspot-detect.html",
			Method:  http.MethodGet,
			Timeout: DefaultTimeout,
			Expect:  ExactBody("<HTML><HEAD><TITLE>Success</TITLE></HEAD><BODY>Success</BODY></HTML>"),
		},
		{
			Name:    "msft-connect",
			URL:     "http://www.msftconnecttest.com/connecttest.txt",
			Method:  http.MethodGet,
			Timeout: DefaultTimeout,
			Expect:  ExactBody("Microsoft Connect Test"),
		},
		{
			Name:    "wikipedia-head",
			URL:     "https://www.wikipedia.org",
			Method:  http.MethodHead,
			Timeout: DefaultTimeout,
			Expect:  StatusIn(200, 299),
		},
	}
}

// DefaultTCPTargets returns the built-in TCP fallback: well-known anycast
// resolver addresses on 443, reachable without DNS.
func DefaultTCPTargets() []TCPTarget {
	return []TCPTarget{
		{Host: "1.1.1.1", Port: 443},
		{Host: "8.8.8.8", Port: 443},
		{Host: "9.9.9.9", Port: 443},
		{Host: "208.67.222.222", Port: 443},
	}
}
