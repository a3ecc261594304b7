package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	c, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	// Tight backoff so retry tests stay fast.
	c.policy.baseDelay = time.Millisecond
	c.policy.maxDelay = 5 * time.Millisecond
	return c
}

func TestGetSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"markets":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, Config{})
	body, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.JSONEq(t, `{"markets":[]}`, string(body))
}

func TestGetSendsConfiguredHeaders(t *testing.T) {
	t.Parallel()

	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{Headers: map[string]string{"User-Agent": "odds-agent"}})
	_, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "odds-agent", got.Load())
}

func TestGetRetriesRateLimitThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := newTestClient(t, Config{MaxRetries: 3})
	body, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "ok", string(body))
	require.Equal(t, int32(3), calls.Load())
}

func TestGetSurfacesLastFailureAfterCap(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{MaxRetries: 2})
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
	require.Equal(t, int32(3), calls.Load(), "expected initial attempt plus two retries")
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{MaxRetries: 3})
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())
}

func TestGetHonorsTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(t, Config{Timeout: 100 * time.Millisecond})
	start := time.Now()
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
	require.Less(t, time.Since(start), 3*time.Second, "stuck connection must fail, not block")
}

func TestProxyApplication(t *testing.T) {
	t.Parallel()

	full := Proxy{Host: "proxy.example.com", Port: 8080, User: "scraper", Password: "pw", Country: "gb"}
	c, err := New(Config{Proxy: full, Timeout: time.Second}, zap.NewNop())
	require.NoError(t, err)
	require.True(t, c.Proxied())

	partial := full
	partial.Password = ""
	c, err = New(Config{Proxy: partial, Timeout: time.Second}, zap.NewNop())
	require.NoError(t, err)
	require.False(t, c.Proxied(), "partial proxy config must run direct")

	c, err = New(Config{Timeout: time.Second}, zap.NewNop())
	require.NoError(t, err)
	require.False(t, c.Proxied())
}

func TestProxyURLCarriesCountryTag(t *testing.T) {
	t.Parallel()

	p := Proxy{Host: "proxy.example.com", Port: 8080, User: "scraper", Password: "pw", Country: "gb"}
	require.Equal(t, "http://scraper-country-gb:pw@proxy.example.com:8080", p.url())

	p.Country = ""
	require.Equal(t, "http://scraper-country-us:pw@proxy.example.com:8080", p.url())
}

func TestTransientStatusClassification(t *testing.T) {
	t.Parallel()

	for _, status := range []int{429, 500, 502, 503, 504} {
		require.True(t, transientStatus(status), "status %d", status)
	}
	for _, status := range []int{200, 301, 400, 403, 404} {
		require.False(t, transientStatus(status), "status %d", status)
	}
}
