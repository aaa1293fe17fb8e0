package emergent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/emergent-company/omviews/internal/faults"
	"github.com/emergent-company/omviews/internal/metrics"
)

// retryPolicy decides how long to wait after a transient store failure.
// Delays double from initial up to max; once outageAfter consecutive
// failures pile up the client is in a long outage and waits outage
// between attempts instead.
type retryPolicy struct {
	maxRetries  int // -1 retries forever
	initial     time.Duration
	max         time.Duration
	outage      time.Duration
	outageAfter int
}

func newRetryPolicy(opts Options) retryPolicy {
	return retryPolicy{
		maxRetries:  opts.MaxRetries,
		initial:     500 * time.Millisecond,
		max:         time.Minute,
		outage:      time.Duration(opts.LongOutageIntervalMins) * time.Minute,
		outageAfter: opts.LongOutageThreshold,
	}
}

// allows reports whether another attempt may follow the given number of failures.
func (p retryPolicy) allows(failures int) bool {
	return p.maxRetries < 0 || failures <= p.maxRetries
}

func (p retryPolicy) inOutage(failures int) bool {
	return p.outageAfter > 0 && failures >= p.outageAfter
}

// delay is the wait before the attempt that follows failures consecutive failures.
func (p retryPolicy) delay(failures int) time.Duration {
	if p.inOutage(failures) {
		return p.outage
	}
	d := p.initial
	for i := 1; i < failures && d < p.max; i++ {
		d *= 2
	}
	return min(d, p.max)
}

var transientMessages = map[string]bool{
	"EOF":                      true,
	"unexpected EOF":           true,
	"connection reset by peer": true,
	"broken pipe":              true,
}

// isTransient reports whether err is worth retrying: network failures,
// timeouts and dropped connections.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return transientMessages[err.Error()]
}

// withRetry runs fn until it succeeds, fails permanently, or the policy
// gives up. Every attempt waits on the shared rate limiter first.
func (c *Client) withRetry(ctx context.Context, operation string, fn func() error) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveStoreCall(operation, start, err) }()

	var lastErr error
	for failures := 0; c.retry.allows(failures); failures++ {
		if failures > 0 {
			metrics.ObserveStoreRetry(operation)
			wait := c.retry.delay(failures)
			c.logger.Warn("retrying store call",
				"operation", operation,
				"failures", failures,
				"backoff", wait,
				"long_outage", c.retry.inOutage(failures),
				"error", lastErr,
			)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return fmt.Errorf("%s: context cancelled during retry: %w", operation, ctx.Err())
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: waiting for rate limiter: %w", operation, err)
		}

		lastErr = fn()
		if lastErr == nil {
			if failures > 0 {
				c.logger.Info("store call recovered", "operation", operation, "attempts", failures+1)
			}
			return nil
		}
		if !isTransient(lastErr) {
			return classify(operation, lastErr)
		}
	}
	return faults.Server(fmt.Sprintf("%s: failed after %d attempts", operation, c.retry.maxRetries+1), lastErr)
}
