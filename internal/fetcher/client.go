// Package fetcher performs paced, retried HTTP fetches against the source
// sites through a single pooled Colly collector.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/galaxyhub/firmtrack/internal/telemetry"
)

// Config controls collector and retry behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRetries   int
	BackoffBase  time.Duration
	BackoffMax   time.Duration
	PaceInterval time.Duration
}

// StatusError reports a non-2xx response from a source.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the source, which callers
// treat as a normal negative result rather than a failure.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Client fetches pages with shared pacing across all sources.
type Client struct {
	cfg           Config
	limiter       *rate.Limiter
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds a Client. All requests across every source share one pacing
// limiter so the politeness interval holds globally.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 250 * time.Millisecond
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.PaceInterval > 0 {
		limit = rate.Every(cfg.PaceInterval)
	}

	// colly v2.1.0's Async option sets Async=true regardless of its
	// argument; the default collector is already synchronous.
	c := colly.NewCollector()
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true
	c.WithTransport(newHTTPTransport())

	return &Client{
		cfg:           cfg,
		limiter:       rate.NewLimiter(limit, 1),
		baseCollector: c,
		logger:        logger,
	}
}

// Fetch performs one paced GET with retry-with-backoff for transient
// failures and returns the raw response body.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	source := sourceLabel(rawURL)

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("pacing wait: %w", err)
		}

		start := time.Now()
		body, err := c.fetchOnce(ctx, rawURL)
		if err == nil {
			telemetry.ObserveFetch(source, "ok", time.Since(start))
			return body, nil
		}
		telemetry.ObserveFetch(source, "error", time.Since(start))
		lastErr = err

		if !c.shouldRetry(err, attempt) {
			return nil, lastErr
		}
		wait := backoff(c.cfg.BackoffBase, c.cfg.BackoffMax, attempt)
		c.logger.Warn("fetch failed, retrying",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
}

func (c *Client) fetchOnce(ctx context.Context, rawURL string) ([]byte, error) {
	collector := c.baseCollector.Clone()
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	collector.SetRequestTimeout(c.cfg.Timeout)

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			fetchErr = &StatusError{StatusCode: r.StatusCode, URL: rawURL}
			return
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if fetchErr != nil {
			return nil, fetchErr
		}
		if err != nil {
			return nil, fmt.Errorf("visit %s: %w", rawURL, err)
		}
		return body, nil
	}
}

// shouldRetry limits retries to transient network failures and server
// errors; schema problems and 4xx responses are never retried.
func (c *Client) shouldRetry(err error, attempt int) bool {
	if attempt >= c.cfg.MaxRetries {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= http.StatusInternalServerError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return true
}

func sourceLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
