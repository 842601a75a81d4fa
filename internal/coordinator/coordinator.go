// Package coordinator implements the HTTP client for handout and ingest
// against the central coordinator service, plus the board adapter's
// bounded-retry submit policy.
package coordinator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/mwmbl/crawlworker/internal/crawlresult"
)

// Client talks the coordinator's JSON-over-HTTPS protocol.
type Client struct {
	baseURL string
	userID  string
	http    *http.Client
	logger  zerolog.Logger
}

// New builds a Client bound to a single worker identity.
func New(baseURL, userID string, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, userID: userID, http: httpClient, logger: logger}
}

type handoutRequest struct {
	UserID string `json:"user_id"`
}

type submitRequest struct {
	UserID string                `json:"user_id"`
	Items  []crawlresult.Result `json:"items"`
}

// NewBatch requests a fresh batch of URLs to crawl. A non-200 response or
// an empty array is a fatal error for this iteration; the outer loop is
// expected to back off and retry the next iteration, not this call.
func (c *Client) NewBatch(ctx context.Context) ([]string, error) {
	body, err := json.Marshal(handoutRequest{UserID: c.userID})
	if err != nil {
		return nil, fmt.Errorf("coordinator: marshaling handout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/crawler/batches/new", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("coordinator: building handout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coordinator: handout request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coordinator: handout returned status %d", resp.StatusCode)
	}

	var urls []string
	if err := json.NewDecoder(resp.Body).Decode(&urls); err != nil {
		return nil, fmt.Errorf("coordinator: decoding handout response: %w", err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("coordinator: handout returned an empty batch")
	}
	return urls, nil
}

// Submit posts a batch of results once, with no retry. This is the
// primary crawl-worker path: it submits once and proceeds to the next
// batch regardless of outcome.
func (c *Client) Submit(ctx context.Context, items []crawlresult.Result) error {
	status, err := c.submitOnce(ctx, items)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("coordinator: submit returned status %d", status)
	}
	return nil
}

// SubmitWithRetry is the board adapter's submit policy: a 502 or 504
// waits a fixed interval and retries, up to maxAttempts total attempts;
// any other non-200 status fails immediately without retry.
//
// The fixed-interval wait is built on github.com/cenkalti/backoff's
// ConstantBackOff rather than its exponential strategy, since this policy
// has no growth factor between attempts.
func (c *Client) SubmitWithRetry(ctx context.Context, items []crawlresult.Result, wait time.Duration, maxAttempts int) error {
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(wait), uint64(maxAttempts-1))
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		status, err := c.submitOnce(ctx, items)
		if err != nil {
			return backoff.Permanent(err)
		}
		switch status {
		case http.StatusOK:
			return nil
		case http.StatusBadGateway, http.StatusGatewayTimeout:
			c.logger.Warn().Int("status", status).Int("attempt", attempt).Msg("submit got gateway error, retrying")
			return fmt.Errorf("coordinator: submit returned status %d", status)
		default:
			return backoff.Permanent(fmt.Errorf("coordinator: submit returned status %d", status))
		}
	}, policy)
}

func (c *Client) submitOnce(ctx context.Context, items []crawlresult.Result) (int, error) {
	body, err := json.Marshal(submitRequest{UserID: c.userID, Items: items})
	if err != nil {
		return 0, fmt.Errorf("coordinator: marshaling submit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/crawler/batches/", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("coordinator: building submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("coordinator: submit request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
