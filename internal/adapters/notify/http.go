package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/talentcheck/pkg/logger"
)

const (
	defaultTimeout     = 5 * time.Second
	defaultMaxAttempts = 3
	defaultBackoff     = 200 * time.Millisecond
	maxBackoff         = 5 * time.Second
)

// HTTPNotifier posts notifications as JSON to a webhook, pacing requests with
// a token bucket and retrying transient failures.
type HTTPNotifier struct {
	url         string
	client      *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	backoff     time.Duration
	logger      logger.Logger
}

// NewHTTPNotifier creates a notifier posting to url.
func NewHTTPNotifier(url string, opts ...Option) (*HTTPNotifier, error) {
	if url == "" {
		return nil, ErrNoEndpoint
	}
	n := &HTTPNotifier{
		url:         url,
		client:      &http.Client{Timeout: defaultTimeout},
		limiter:     rate.NewLimiter(rate.Inf, 1),
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Notify implements Notifier. Server errors, 429 and transport failures are
// retried; other 4xx responses are not.
func (n *HTTPNotifier) Notify(ctx context.Context, note Notification) error {
	body, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("notify: marshal: %w", err)
	}

	var lastErr error
	for attempt := range n.maxAttempts {
		if err := n.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("notify: rate limiter wait: %w", err)
		}

		retry, err := n.post(ctx, body)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
		n.logger.Warn(ctx, "notification failed, retrying",
			logger.String("assessment_id", note.AssessmentID),
			logger.Int("attempt", attempt+1),
			logger.Error(err),
		)
		if attempt+1 < n.maxAttempts {
			if err := n.wait(ctx, attempt); err != nil {
				return fmt.Errorf("notify: %w", err)
			}
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrDelivery, n.maxAttempts, lastErr)
}

func (n *HTTPNotifier) post(ctx context.Context, body []byte) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("notify: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return ctx.Err() == nil, fmt.Errorf("notify: post: %w", err)
	}
	_ = resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return true, fmt.Errorf("notify: http %d", resp.StatusCode)
	default:
		return false, fmt.Errorf("%w: http %d", ErrRejected, resp.StatusCode)
	}
}

func (n *HTTPNotifier) wait(ctx context.Context, attempt int) error {
	d := n.backoff << attempt
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
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
