package fetcher

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"

	"github.com/IshaanNene/wikimatch/internal/config"
	"github.com/IshaanNene/wikimatch/internal/observability"
	"github.com/IshaanNene/wikimatch/internal/types"
)

// retryStatuses are the HTTP statuses worth another attempt.
var retryStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// APIClient implements Client over net/http with a response cache, a
// minimum delay between network requests, and retries with backoff.
type APIClient struct {
	client   *http.Client
	cfg      config.APIConfig
	cache    *FileCache
	limiter  *rate.Limiter
	proxyMgr *ProxyManager
	metrics  *observability.Metrics
	logger   *slog.Logger

	// sleep waits between retries; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewAPIClient creates a new API client. A nil metrics collector gets a
// private one.
func NewAPIClient(cfg config.APIConfig, metrics *observability.Metrics, logger *slog.Logger) (*APIClient, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true, // We handle decompression ourselves (including brotli)
	}

	var proxyMgr *ProxyManager
	if len(cfg.Proxies) > 0 {
		proxyMgr = NewProxyManager(cfg.Proxies, cfg.ProxyRotation, logger)
		transport.Proxy = proxyMgr.ProxyFunc()
	}

	var cache *FileCache
	if cfg.CacheEnabled {
		var err error
		cache, err = NewFileCache(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
	}

	if metrics == nil {
		metrics = observability.NewMetrics(logger)
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Every(cfg.RateLimit)
	}

	return &APIClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		cfg:      cfg,
		cache:    cache,
		limiter:  rate.NewLimiter(limit, 1),
		proxyMgr: proxyMgr,
		metrics:  metrics,
		logger:   logger.With("component", "api_client"),
		sleep:    sleepContext,
	}, nil
}

// GetJSON returns the JSON body for an API call. Cached responses are served
// without touching the network or the rate limiter.
func (c *APIClient) GetJSON(ctx context.Context, params map[string]string) ([]byte, error) {
	key := CacheKey(c.cfg.BaseURL, params)

	if c.cache != nil {
		unlock := c.cache.Lock(key)
		defer unlock()

		data, ok, err := c.cache.Get(key)
		if err != nil {
			return nil, err
		}
		if ok {
			c.metrics.CacheHits.Inc()
			c.logger.Debug("cache hit", "key", key)
			return data, nil
		}
	}

	if strings.TrimSpace(c.cfg.UserAgent) == "" {
		return nil, types.ErrMissingUserAgent
	}

	body, err := c.fetchWithRetry(ctx, params)
	if err != nil {
		c.metrics.APIFailures.Inc()
		return nil, err
	}

	var formatted bytes.Buffer
	if err := json.Indent(&formatted, body, "", "  "); err != nil {
		c.metrics.APIFailures.Inc()
		return nil, &types.FetchError{
			URL: c.requestURL(params),
			Err: fmt.Errorf("%w: %v", types.ErrInvalidJSON, err),
		}
	}
	data := formatted.Bytes()

	if c.cache != nil {
		if err := c.cache.Put(key, data); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// Close releases resources.
func (c *APIClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *APIClient) fetchWithRetry(ctx context.Context, params map[string]string) ([]byte, error) {
	backoff := c.cfg.RetryDelay
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.fetch(ctx, params)
		if err == nil {
			return body, nil
		}

		var fe *types.FetchError
		if !errors.As(err, &fe) || !fe.IsRetryable() {
			return nil, err
		}
		if attempt >= c.cfg.MaxRetries {
			return nil, fmt.Errorf("%w (%d attempts): %w", types.ErrMaxRetries, attempt+1, err)
		}

		wait := backoff
		if fe.RetryAfter > wait {
			wait = fe.RetryAfter
		}
		c.metrics.APIRetries.Inc()
		c.logger.Warn("retrying request",
			"attempt", attempt+1,
			"status", fe.StatusCode,
			"wait", wait,
			"error", fe.Err,
		)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
		backoff *= 2
	}
}

func (c *APIClient) fetch(ctx context.Context, params map[string]string) ([]byte, error) {
	reqURL := c.requestURL(params)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &types.FetchError{URL: reqURL, Err: err, Retryable: false}
	}
	httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Accept-Encoding", "gzip, br")

	c.metrics.APIRequests.Inc()
	start := time.Now()
	httpResp, err := c.client.Do(httpReq)
	duration := time.Since(start)
	c.metrics.RequestDuration.Observe(duration.Seconds())

	if err != nil {
		return nil, &types.FetchError{
			URL:       reqURL,
			Err:       err,
			Retryable: isRetryableError(err),
		}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		fe := &types.FetchError{
			URL:        reqURL,
			StatusCode: httpResp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, strings.TrimSpace(string(snippet))),
			Retryable:  retryStatuses[httpResp.StatusCode],
		}
		if httpResp.StatusCode == http.StatusTooManyRequests {
			fe.RetryAfter = parseRetryAfter(httpResp.Header.Get("Retry-After"))
		}
		return nil, fe
	}

	var reader io.Reader = httpResp.Body
	if c.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, c.cfg.MaxBodySize)
	}

	reader, err = decompressReader(httpResp, reader)
	if err != nil {
		return nil, &types.FetchError{URL: reqURL, Err: err, Retryable: false}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &types.FetchError{URL: reqURL, Err: err, Retryable: true}
	}

	c.logger.Debug("fetch complete",
		"url", reqURL,
		"status", httpResp.StatusCode,
		"size", len(body),
		"duration", duration,
	)
	return body, nil
}

func (c *APIClient) requestURL(params map[string]string) string {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	if len(values) == 0 {
		return c.cfg.BaseURL
	}
	return c.cfg.BaseURL + "?" + values.Encode()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

// isRetryableError checks if a network error warrants a retry.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	// Context cancellation is NOT retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return true
		}
	}
	return false
}

// parseRetryAfter parses the Retry-After header value.
// Supports both integer seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil {
		if secs > 120 {
			secs = 120 // cap at 2 minutes
		}
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d < 0 {
			return 0
		}
		if d > 2*time.Minute {
			return 2 * time.Minute
		}
		return d
	}
	return 0
}
