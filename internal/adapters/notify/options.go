package notify

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/talentcheck/pkg/logger"
)

// Option configures an HTTPNotifier.
type Option func(*HTTPNotifier)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(n *HTTPNotifier) {
		if d > 0 {
			n.client.Timeout = d
		}
	}
}

// WithRate limits outgoing requests to perSec with the given burst.
// A non-positive rate disables pacing.
func WithRate(perSec float64, burst int) Option {
	return func(n *HTTPNotifier) {
		if perSec <= 0 {
			n.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		if burst < 1 {
			burst = 1
		}
		n.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// WithMaxAttempts sets how many times a delivery is tried.
func WithMaxAttempts(attempts int) Option {
	return func(n *HTTPNotifier) {
		if attempts > 0 {
			n.maxAttempts = attempts
		}
	}
}

// WithBackoff sets the base delay between attempts; it doubles per retry.
func WithBackoff(d time.Duration) Option {
	return func(n *HTTPNotifier) {
		if d > 0 {
			n.backoff = d
		}
	}
}

// WithHTTPClient replaces the HTTP client. Its timeout is kept as is.
func WithHTTPClient(c *http.Client) Option {
	return func(n *HTTPNotifier) {
		if c != nil {
			n.client = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(n *HTTPNotifier) {
		if l != nil {
			n.logger = l
		}
	}
}
