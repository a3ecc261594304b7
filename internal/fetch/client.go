// Package fetch implements the resilient HTTP client used to pull catalog
// leaves from the remote sportsbook API.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Config controls client behavior.
type Config struct {
	Headers    map[string]string
	MaxRetries int
	Timeout    time.Duration
	Proxy      Proxy
}

// Client wraps a Colly collector with retry, a hard per-request timeout,
// and optional forward-proxy routing.
type Client struct {
	base    *colly.Collector
	cfg     Config
	policy  retryPolicy
	logger  *zap.Logger
	proxied bool
}

// New builds a Client. The proxy is applied only when every credential
// component is present; otherwise the client runs direct and logs the
// choice so a partial proxy config is never silently ignored.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(cfg.Timeout)

	proxied := false
	switch {
	case cfg.Proxy.Complete():
		if err := c.SetProxy(cfg.Proxy.url()); err != nil {
			return nil, fmt.Errorf("set proxy: %w", err)
		}
		proxied = true
		logger.Info("routing requests through forward proxy",
			zap.String("host", cfg.Proxy.Host),
			zap.Int("port", cfg.Proxy.Port),
			zap.String("country", cfg.Proxy.Country),
		)
	case cfg.Proxy != (Proxy{}):
		logger.Warn("proxy configuration incomplete, running direct",
			zap.Bool("host_set", cfg.Proxy.Host != ""),
			zap.Bool("port_set", cfg.Proxy.Port > 0),
			zap.Bool("user_set", cfg.Proxy.User != ""),
			zap.Bool("password_set", cfg.Proxy.Password != ""),
		)
	default:
		logger.Info("no proxy configured, running direct")
	}

	return &Client{
		base:    c,
		cfg:     cfg,
		policy:  newRetryPolicy(cfg.MaxRetries),
		logger:  logger,
		proxied: proxied,
	}, nil
}

// Proxied reports whether requests are routed through the forward proxy.
func (c *Client) Proxied() bool { return c.proxied }

// Get fetches url, retrying rate-limit and server errors with exponential
// backoff until the configured attempt cap. The last failure is returned
// once retries are exhausted.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		c.logger.Info("GET", zap.String("url", url), zap.Int("attempt", attempt+1))

		body, status, err := c.do(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !c.policy.shouldRetry(status, attempt) {
			return nil, lastErr
		}

		wait := c.policy.backoff(attempt)
		c.logger.Warn("transient failure, backing off",
			zap.String("url", url),
			zap.Int("status", status),
			zap.Duration("wait", wait),
		)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
}

// do executes a single attempt and reports the response status alongside
// any error, for retry classification.
func (c *Client) do(ctx context.Context, url string) ([]byte, int, error) {
	collector := c.base.Clone()

	var (
		body   []byte
		status int
	)
	var reqErr error

	collector.OnRequest(func(r *colly.Request) {
		for key, value := range c.cfg.Headers {
			r.Headers.Set(key, value)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		reqErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return nil, status, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, status, fmt.Errorf("GET %s: %w", url, err)
		}
		if reqErr != nil {
			return nil, status, fmt.Errorf("GET %s (status %d): %w", url, status, reqErr)
		}
		return body, status, nil
	}
}
