package fetch

import (
	"crypto/rand"
	"math"
	"math/big"
	"net/http"
	"time"
)

// retryPolicy implements jittered exponential backoff for transient HTTP
// failures. Only rate-limit and server errors are transient; everything
// else fails the request immediately.
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func newRetryPolicy(maxRetries int) retryPolicy {
	return retryPolicy{
		maxRetries: maxRetries,
		baseDelay:  time.Second,
		maxDelay:   30 * time.Second,
	}
}

// shouldRetry decides whether another attempt is allowed for the given
// status code. attempt is zero-based.
func (p retryPolicy) shouldRetry(status, attempt int) bool {
	if attempt >= p.maxRetries {
		return false
	}
	return transientStatus(status)
}

func transientStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// backoff returns the wait duration before the next attempt.
func (p retryPolicy) backoff(attempt int) time.Duration {
	delay := float64(p.baseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	jitter := randomJitter(time.Duration(delay) / 2)
	return time.Duration(delay/2) + jitter
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
