package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/talentcheck/internal/domain/model"
)

// ErrNotFound is returned when the service does not know an assessment.
var ErrNotFound = errors.New("not found")

// Client talks to the assessment API.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the service at base.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{base: base, http: &http.Client{Timeout: timeout}}
}

// Health checks that the service answers on /healthz.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}
	return nil
}

// Submit posts one assessment and classifies the answer.
func (c *Client) Submit(ctx context.Context, sub model.Submission) (Outcome, SubmitResponse, error) { //nolint:gocritic // hugeParam
	body, err := json.Marshal(sub)
	if err != nil {
		return OutcomeFailed, SubmitResponse{}, fmt.Errorf("marshal submission: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/assessments", body)
	if err != nil {
		return OutcomeFailed, SubmitResponse{}, err
	}
	defer resp.Body.Close()

	var ack SubmitResponse
	switch resp.StatusCode {
	case http.StatusAccepted:
		_ = json.NewDecoder(resp.Body).Decode(&ack)
		return OutcomeAccepted, ack, nil
	case http.StatusOK:
		_ = json.NewDecoder(resp.Body).Decode(&ack)
		return OutcomeDuplicate, ack, nil
	case http.StatusBadRequest:
		return OutcomeRejected, ack, nil
	case http.StatusTooManyRequests:
		return OutcomeThrottled, ack, nil
	default:
		return OutcomeFailed, ack, fmt.Errorf("submit returned status %d", resp.StatusCode)
	}
}

// Progress fetches the latest progress of an assessment.
func (c *Client) Progress(ctx context.Context, id string) (ProgressResponse, error) {
	var p ProgressResponse
	err := c.getJSON(ctx, "/assessments/"+url.PathEscape(id)+"/progress", &p)
	return p, err
}

// Verdict fetches the stored result of an assessment.
func (c *Client) Verdict(ctx context.Context, id string) (VerdictResponse, error) {
	var v VerdictResponse
	err := c.getJSON(ctx, "/assessments/"+url.PathEscape(id), &v)
	return v, err
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("GET %s returned status %d", path, resp.StatusCode)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}
