// Package wbapi is the client for the Wildberries seller APIs: the
// statistics ledger, the seller-analytics report tasks, the content
// catalog and the advertising endpoints.
//
// The transport applies per-endpoint rate limiting, bounded retry with
// backoff on throttling and transient failures, and maps upstream statuses
// to the typed errors in internal/domain. Endpoint methods on top of it
// handle pagination cursors and the async task protocol.
package wbapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sellerstats/wb-reports/internal/domain"
	"github.com/sellerstats/wb-reports/internal/infra/observability"
	"github.com/sellerstats/wb-reports/internal/infra/resilience"
)

var tracer = otel.Tracer("wbapi")

// HTTPClient is the transport interface; *http.Client implements it.
// An interface keeps the client mockable in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Hosts holds the base URLs of the four upstream services.
type Hosts struct {
	Statistics string
	Analytics  string
	Content    string
	Advert     string
}

// Options tunes pagination, polling and pacing. Zero fields fall back to
// production defaults.
type Options struct {
	Retry resilience.RetryPolicy
	Sleep resilience.Sleeper

	PollInterval time.Duration
	MaxPolls     int

	MaxLedgerPages  int
	MaxCatalogPages int
	LedgerPageLimit int
	CatalogPageSize int

	SkuBatchSize  int
	SkuBatchPause time.Duration

	// Requests per minute per endpoint family. The ledger and analytics
	// endpoints are limited upstream to one request per minute.
	LedgerPerMinute    float64
	AnalyticsPerMinute float64
	ContentPerMinute   float64
	AdvertPerMinute    float64
}

func (o Options) withDefaults() Options {
	if o.Retry.MaxAttempts == 0 {
		o.Retry = resilience.RetryPolicy{MaxAttempts: 5, BaseDelay: 2 * time.Second, Jitter: true}
	}
	if o.Sleep == nil {
		o.Sleep = resilience.WaitSleeper
	}
	if o.PollInterval == 0 {
		o.PollInterval = 5 * time.Second
	}
	if o.MaxPolls == 0 {
		o.MaxPolls = 36
	}
	if o.MaxLedgerPages == 0 {
		o.MaxLedgerPages = 50
	}
	if o.MaxCatalogPages == 0 {
		o.MaxCatalogPages = 10
	}
	if o.LedgerPageLimit == 0 {
		o.LedgerPageLimit = 100000
	}
	if o.CatalogPageSize == 0 {
		o.CatalogPageSize = 100
	}
	if o.SkuBatchSize == 0 {
		o.SkuBatchSize = 50
	}
	if o.SkuBatchPause == 0 {
		o.SkuBatchPause = 250 * time.Millisecond
	}
	if o.LedgerPerMinute == 0 {
		o.LedgerPerMinute = 1
	}
	if o.AnalyticsPerMinute == 0 {
		o.AnalyticsPerMinute = 1
	}
	if o.ContentPerMinute == 0 {
		o.ContentPerMinute = 60
	}
	if o.AdvertPerMinute == 0 {
		o.AdvertPerMinute = 60
	}
	return o
}

// Client wraps HTTP calls to the Wildberries seller APIs.
type Client struct {
	httpClient HTTPClient
	hosts      Hosts
	opts       Options
	cb         *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	logger     *zap.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewClient creates the upstream API client.
func NewClient(httpClient HTTPClient, hosts Hosts, opts Options, cb *gobreaker.CircuitBreaker, metrics *observability.Metrics, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		hosts:      hosts,
		opts:       opts.withDefaults(),
		cb:         cb,
		metrics:    metrics,
		logger:     logger,
		limiters:   make(map[string]*rate.Limiter),
	}
}

// apiRequest describes one upstream call.
type apiRequest struct {
	service string // statistics | analytics | content | advert
	method  string
	url     string
	apiKey  string
	body    any // marshaled to JSON when non-nil

	limiterKey string
	perMinute  float64
}

// limiter returns (creating on first use) the pacing limiter for an endpoint.
func (c *Client) limiter(key string, perMinute float64) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.limiters[key]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(perMinute/60.0), 1)
	c.limiters[key] = l
	return l
}

// call executes req with rate limiting and bounded retries. 429 and
// 5xx/network failures are retried under the policy; 401/400 fail
// immediately with typed errors. Returns the HTTP status and the raw body
// (nil for 204).
func (c *Client) call(ctx context.Context, req apiRequest) (int, []byte, error) {
	var payload []byte
	if req.body != nil {
		var err error
		payload, err = json.Marshal(req.body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	if req.perMinute > 0 {
		if err := c.limiter(req.limiterKey, req.perMinute).Wait(ctx); err != nil {
			return 0, nil, err
		}
	}

	var (
		status    int
		respBody  []byte
		throttled bool
		attempts  int
	)

	result := func() error {
		return resilience.Retry(ctx, c.opts.Retry, c.opts.Sleep, func() (bool, time.Duration, error) {
			attempts++

			var reader io.Reader
			if payload != nil {
				reader = bytes.NewReader(payload)
			}
			httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, reader)
			if err != nil {
				return false, 0, err
			}
			httpReq.Header.Set("Authorization", req.apiKey)
			httpReq.Header.Set("Accept", "application/json")
			if payload != nil {
				httpReq.Header.Set("Content-Type", "application/json")
			}

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				c.metrics.IncrUpstreamError(req.service)
				throttled = false
				return true, 0, err
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				c.metrics.IncrUpstreamError(req.service)
				throttled = false
				return true, 0, err
			}

			switch {
			case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent:
				status = resp.StatusCode
				respBody = body
				return false, 0, nil

			case resp.StatusCode == http.StatusTooManyRequests:
				c.metrics.IncrRetry(req.service)
				throttled = true
				hint := retryHint(resp)
				c.logger.Warn("wbapi: throttled",
					zap.String("service", req.service),
					zap.String("url", req.url),
					zap.Duration("retry_after", hint),
				)
				return true, hint, fmt.Errorf("%s returned 429", req.service)

			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				return false, 0, &domain.ErrInvalidCredential{Service: req.service}

			case resp.StatusCode == http.StatusBadRequest:
				return false, 0, &domain.ErrBadRequest{Service: req.service, Message: string(body)}

			default:
				c.metrics.IncrUpstreamError(req.service)
				throttled = false
				return true, 0, fmt.Errorf("%s returned status %d: %s", req.service, resp.StatusCode, string(body))
			}
		})
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, result()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return 0, nil, &domain.ErrCircuitOpen{Service: req.service}
		}
		var cred *domain.ErrInvalidCredential
		var bad *domain.ErrBadRequest
		if errors.As(err, &cred) || errors.As(err, &bad) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, nil, err
		}
		if throttled {
			return 0, nil, &domain.ErrRetryBudgetExhausted{Service: req.service, Attempts: attempts}
		}
		return 0, nil, &domain.ErrUpstreamUnavailable{Service: req.service, Err: err}
	}

	return status, respBody, nil
}

// retryHint reads the upstream throttle hint headers; zero means "use the
// policy backoff".
func retryHint(resp *http.Response) time.Duration {
	for _, h := range []string{"X-Ratelimit-Retry", "Retry-After"} {
		if s := resp.Header.Get(h); s != "" {
			if sec, err := strconv.Atoi(s); err == nil && sec > 0 {
				return time.Duration(sec) * time.Second
			}
		}
	}
	return 0
}

// decode unmarshals an upstream body, converting failures into the typed
// malformed-response error.
func decode(service string, body []byte, dest any) error {
	if err := json.Unmarshal(body, dest); err != nil {
		return &domain.ErrMalformedResponse{Service: service, Err: err}
	}
	return nil
}

// looksLikeJSONArray reports whether body plausibly holds a JSON array.
// Download endpoints legitimately answer with empty or non-JSON bodies when
// there is no data for the period.
func looksLikeJSONArray(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '['
}

const dateLayout = "2006-01-02"
