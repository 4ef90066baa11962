// Package netfetch defines the NetworkFetcher boundary the rendering
// core calls through to retrieve documents, stylesheets, and images,
// generalized from the teacher's pkg/resource.Fetcher/std/net.Fetch
// pair to classify failures into the richer error enum
// internal/process.FailureKind expects (Network/DNS/SSL/HTTP/Blocked/
// Timeout/Unknown) instead of the teacher's opaque wrapped strings.
package netfetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	stdnet "webcore/std/net"
)

// Kind classifies a fetch failure, mirroring internal/process.FailureKind
// so a NavigationResult can be derived directly from a fetch error.
type Kind int

const (
	KindNone Kind = iota
	KindNetwork
	KindDNS
	KindSSL
	KindHTTP
	KindBlocked
	KindTimeout
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNetwork:
		return "network"
	case KindDNS:
		return "dns"
	case KindSSL:
		return "ssl"
	case KindHTTP:
		return "http"
	case KindBlocked:
		return "blocked"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ErrBlocked is returned by a fetcher's allowlist/denylist check before
// any network access is attempted.
var ErrBlocked = errors.New("netfetch: request blocked by policy")

// FetchError wraps an underlying error with its classified Kind and,
// for KindHTTP, the response status code.
type FetchError struct {
	Kind       Kind
	StatusCode int
	URL        string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == KindHTTP {
		return fmt.Sprintf("netfetch: %s: http %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("netfetch: %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Result is the outcome of a successful fetch.
type Result struct {
	Body        []byte
	ContentType string
	StatusCode  int
}

// NetworkFetcher is the boundary the (out-of-scope) HTML/CSS parser and
// the resource loader call through. A concrete implementation wraps
// stdnet.Fetch for tests; production wiring (disk cache, connection
// pooling, per-host rate limiting) is out of scope.
type NetworkFetcher interface {
	Fetch(ctx context.Context, rawURL string) (Result, error)
}

// Policy optionally restricts which URLs may be fetched, e.g. to
// support a test harness that blocks non-localhost requests.
type Policy interface {
	Allow(rawURL string) bool
}

// AllowAllPolicy permits every URL.
type AllowAllPolicy struct{}

func (AllowAllPolicy) Allow(string) bool { return true }

// HTTPFetcher is the default NetworkFetcher, built on std/net.Fetch and
// classifying its errors into the Kind enum above.
type HTTPFetcher struct {
	BaseURL string
	Policy  Policy
}

// NewHTTPFetcher returns an HTTPFetcher resolving relative URIs against
// baseURL, with no blocking policy.
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{BaseURL: baseURL, Policy: AllowAllPolicy{}}
}

// Fetch retrieves rawURL, resolving it against BaseURL first if it is
// relative. ctx is observed only for cancellation before the request is
// issued; std/net.Fetch does not currently accept a context itself.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Result, error) {
	resolved := rawURL
	if !stdnet.IsNetworkURL(rawURL) && f.BaseURL != "" {
		resolved = stdnet.ResolveURL(f.BaseURL, rawURL)
	}
	if !stdnet.IsNetworkURL(resolved) {
		return Result{}, &FetchError{Kind: KindUnknown, URL: resolved, Err: fmt.Errorf("not a network URL")}
	}

	policy := f.Policy
	if policy == nil {
		policy = AllowAllPolicy{}
	}
	if !policy.Allow(resolved) {
		return Result{}, &FetchError{Kind: KindBlocked, URL: resolved, Err: ErrBlocked}
	}

	select {
	case <-ctx.Done():
		return Result{}, &FetchError{Kind: KindTimeout, URL: resolved, Err: ctx.Err()}
	default:
	}

	body, contentType, err := stdnet.Fetch(resolved)
	if err != nil {
		return Result{}, classify(resolved, err)
	}
	return Result{Body: body, ContentType: contentType}, nil
}

// classify maps std/net.Fetch's wrapped errors onto a Kind. Exact
// status codes surface through httpStatusFromError since std/net.Fetch
// only formats them into the error string rather than a typed field.
func classify(rawURL string, err error) *FetchError {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &FetchError{Kind: KindDNS, URL: rawURL, Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &FetchError{Kind: KindTimeout, URL: rawURL, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: KindTimeout, URL: rawURL, Err: err}
	}

	msg := err.Error()
	if strings.Contains(msg, "tls:") || strings.Contains(msg, "certificate") || strings.Contains(msg, "x509") {
		return &FetchError{Kind: KindSSL, URL: rawURL, Err: err}
	}
	if code, ok := statusCodeFromMessage(msg); ok {
		return &FetchError{Kind: KindHTTP, StatusCode: code, URL: rawURL, Err: err}
	}
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "no route to host") ||
		strings.Contains(msg, "network is unreachable") {
		return &FetchError{Kind: KindNetwork, URL: rawURL, Err: err}
	}
	return &FetchError{Kind: KindUnknown, URL: rawURL, Err: err}
}

// statusCodeFromMessage extracts the status code std/net.Fetch embeds
// in "HTTP %d fetching %s" error strings.
func statusCodeFromMessage(msg string) (int, bool) {
	const prefix = "HTTP "
	idx := strings.Index(msg, prefix)
	if idx < 0 {
		return 0, false
	}
	rest := msg[idx+len(prefix):]
	end := strings.IndexByte(rest, ' ')
	if end < 0 {
		return 0, false
	}
	var code int
	if _, err := fmt.Sscanf(rest[:end], "%d", &code); err != nil {
		return 0, false
	}
	return code, true
}
