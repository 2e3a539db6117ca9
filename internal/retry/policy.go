// Package retry provides the backoff strategy injected into the external
// service clients (catalog, reasoning, library). Pipeline stages never retry
// on their own; they see the final error of a client call.
package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	retrygo "github.com/avast/retry-go/v4"
)

const (
	defaultAttempts  = 3
	defaultBaseDelay = time.Second
	defaultMaxDelay  = 10 * time.Second
)

// Policy describes how many times a call is attempted and how long to wait
// between attempts. The zero value performs a single attempt.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// OnRetry is invoked before each wait with the 1-based attempt that failed.
	OnRetry func(attempt int, err error)
}

// Default returns the policy used when configuration does not override it.
func Default() Policy {
	return Policy{Attempts: defaultAttempts, BaseDelay: defaultBaseDelay, MaxDelay: defaultMaxDelay}
}

// None returns a single-attempt policy, used by health checks.
func None() Policy {
	return Policy{Attempts: 1}
}

// StatusError is implemented by client errors that carry an HTTP status.
type StatusError interface {
	error
	HTTPStatus() int
}

// RetryAfterError is implemented by errors that carry a server-provided delay.
type RetryAfterError interface {
	error
	RetryAfter() time.Duration
}

// Do runs fn until it succeeds, the policy is exhausted, ctx ends, or
// retryable reports false. A nil retryable uses Retryable. The last error is
// returned unwrapped.
func (p Policy) Do(ctx context.Context, retryable func(error) bool, fn func(context.Context) error) error {
	if retryable == nil {
		retryable = Retryable
	}
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	base := p.BaseDelay
	if base < 0 {
		base = 0
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}

	return retrygo.Do(
		func() error { return fn(ctx) },
		retrygo.Context(ctx),
		retrygo.Attempts(uint(attempts)),
		retrygo.Delay(base),
		retrygo.MaxDelay(maxDelay),
		retrygo.DelayType(func(n uint, err error, cfg *retrygo.Config) time.Duration {
			var ra RetryAfterError
			if errors.As(err, &ra) && ra.RetryAfter() > 0 {
				return min(ra.RetryAfter(), maxDelay)
			}
			return retrygo.BackOffDelay(n, err, cfg)
		}),
		retrygo.RetryIf(func(err error) bool {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return false
			}
			return retryable(err)
		}),
		retrygo.OnRetry(func(n uint, err error) {
			// retry-go also reports the final failed attempt; no wait follows it.
			if p.OnRetry != nil && int(n)+1 < attempts {
				p.OnRetry(int(n)+1, err)
			}
		}),
		retrygo.LastErrorOnly(true),
	)
}

// Retryable treats timeouts, 408, 429 and 5xx responses as transient.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var status StatusError
	if errors.As(err, &status) {
		code := status.HTTPStatus()
		return code == http.StatusRequestTimeout ||
			code == http.StatusTooManyRequests ||
			code >= http.StatusInternalServerError
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
