package wbapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sellerstats/wb-reports/internal/domain"
	"github.com/sellerstats/wb-reports/internal/infra/observability"
	"github.com/sellerstats/wb-reports/internal/infra/resilience"
)

// ============================================================================
// Test fixtures
// ============================================================================

// scriptedTransport replays a fixed sequence of responses, one per request.
type scriptedTransport struct {
	responses []*http.Response
	errs      []error
	requests  []*http.Request
}

func (s *scriptedTransport) Do(req *http.Request) (*http.Response, error) {
	i := len(s.requests)
	s.requests = append(s.requests, req)
	if i >= len(s.responses) {
		return nil, errors.New("scripted transport exhausted")
	}
	if s.errs != nil && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return s.responses[i], nil
}

func response(status int, body string, headers map[string]string) *http.Response {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	return &http.Response{
		StatusCode: status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// noSleep records requested delays without waiting.
type noSleep struct {
	delays []time.Duration
}

func (n *noSleep) sleep(_ context.Context, d time.Duration) error {
	n.delays = append(n.delays, d)
	return nil
}

func testClient(t *testing.T, transport HTTPClient, opts Options) (*Client, *noSleep) {
	t.Helper()
	ns := &noSleep{}
	opts.Sleep = ns.sleep
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = resilience.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	}
	// high rates so limiter waits are instant in tests
	opts.LedgerPerMinute = 600000
	opts.AnalyticsPerMinute = 600000
	opts.ContentPerMinute = 600000
	opts.AdvertPerMinute = 600000
	c := NewClient(transport, Hosts{
		Statistics: "http://stats.test",
		Analytics:  "http://analytics.test",
		Content:    "http://content.test",
		Advert:     "http://advert.test",
	}, opts, resilience.NewCircuitBreaker("test"), observability.NewMetrics(), zap.NewNop())
	return c, ns
}

// ============================================================================
// Transport behavior
// ============================================================================

func TestCall_RetriesThrottlingWithHint(t *testing.T) {
	transport := &scriptedTransport{responses: []*http.Response{
		response(429, "", map[string]string{"X-Ratelimit-Retry": "7"}),
		response(429, "", map[string]string{"Retry-After": "3"}),
		response(200, `{"ok":true}`, nil),
	}}
	c, ns := testClient(t, transport, Options{})

	status, body, err := c.call(context.Background(), apiRequest{
		service: "statistics",
		method:  "GET",
		url:     "http://stats.test/x",
		apiKey:  "key",
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if status != 200 {
		t.Errorf("expected status 200, got %d", status)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("unexpected body: %s", body)
	}
	if len(transport.requests) != 3 {
		t.Errorf("expected 3 attempts, got %d", len(transport.requests))
	}
	// the hint headers override the policy backoff
	if len(ns.delays) != 2 || ns.delays[0] != 7*time.Second || ns.delays[1] != 3*time.Second {
		t.Errorf("expected hint delays [7s 3s], got %v", ns.delays)
	}
}

func TestCall_ThrottleBudgetExhausted(t *testing.T) {
	transport := &scriptedTransport{responses: []*http.Response{
		response(429, "", nil),
		response(429, "", nil),
		response(429, "", nil),
	}}
	c, _ := testClient(t, transport, Options{})

	_, _, err := c.call(context.Background(), apiRequest{
		service: "statistics", method: "GET", url: "http://stats.test/x",
	})

	var exhausted *domain.ErrRetryBudgetExhausted
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ErrRetryBudgetExhausted, got %v", err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", exhausted.Attempts)
	}
	if len(transport.requests) != 3 {
		t.Errorf("expected exactly MaxAttempts requests, got %d", len(transport.requests))
	}
}

func TestCall_UnauthorizedFailsImmediately(t *testing.T) {
	transport := &scriptedTransport{responses: []*http.Response{
		response(401, `{"title":"unauthorized"}`, nil),
	}}
	c, ns := testClient(t, transport, Options{})

	_, _, err := c.call(context.Background(), apiRequest{
		service: "statistics", method: "GET", url: "http://stats.test/x",
	})

	var cred *domain.ErrInvalidCredential
	if !errors.As(err, &cred) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
	if len(transport.requests) != 1 {
		t.Errorf("401 must not be retried, got %d requests", len(transport.requests))
	}
	if len(ns.delays) != 0 {
		t.Errorf("401 must not sleep, got delays %v", ns.delays)
	}
}

func TestCall_BadRequestFailsImmediately(t *testing.T) {
	transport := &scriptedTransport{responses: []*http.Response{
		response(400, `bad period`, nil),
	}}
	c, _ := testClient(t, transport, Options{})

	_, _, err := c.call(context.Background(), apiRequest{
		service: "analytics", method: "GET", url: "http://analytics.test/x",
	})

	var bad *domain.ErrBadRequest
	if !errors.As(err, &bad) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
	if bad.Message != "bad period" {
		t.Errorf("expected upstream message preserved, got %q", bad.Message)
	}
}

func TestCall_ServerErrorsRetriedThenUnavailable(t *testing.T) {
	transport := &scriptedTransport{responses: []*http.Response{
		response(500, "boom", nil),
		response(502, "boom", nil),
		response(503, "boom", nil),
	}}
	c, _ := testClient(t, transport, Options{})

	_, _, err := c.call(context.Background(), apiRequest{
		service: "content", method: "GET", url: "http://content.test/x",
	})

	var unavail *domain.ErrUpstreamUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if len(transport.requests) != 3 {
		t.Errorf("expected MaxAttempts requests, got %d", len(transport.requests))
	}
}

func TestCall_NetworkErrorRecovers(t *testing.T) {
	transport := &scriptedTransport{
		responses: []*http.Response{nil, response(200, `[]`, nil)},
		errs:      []error{errors.New("connection reset"), nil},
	}
	c, _ := testClient(t, transport, Options{})

	status, _, err := c.call(context.Background(), apiRequest{
		service: "advert", method: "GET", url: "http://advert.test/x",
	})
	if err != nil {
		t.Fatalf("expected recovery after network error, got %v", err)
	}
	if status != 200 {
		t.Errorf("expected 200, got %d", status)
	}
}

func TestCall_AuthorizationHeaderSet(t *testing.T) {
	transport := &scriptedTransport{responses: []*http.Response{
		response(200, `{}`, nil),
	}}
	c, _ := testClient(t, transport, Options{})

	_, _, err := c.call(context.Background(), apiRequest{
		service: "statistics", method: "GET", url: "http://stats.test/x", apiKey: "secret-key",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := transport.requests[0].Header.Get("Authorization"); got != "secret-key" {
		t.Errorf("expected Authorization header, got %q", got)
	}
}
