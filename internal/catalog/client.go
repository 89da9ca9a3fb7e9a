package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

const maxResponseBytes = 1 * 1024 * 1024

// Client is the shared HTTP helper for catalog adapters. Every call is
// charged against the source's per-run budget, paced by the source's rate
// limiter, and retried with exponential backoff on transient failures.
type Client struct {
	http      *http.Client
	limiter   *RateLimiterMap
	budgets   *BudgetMap
	logger    *slog.Logger
	userAgent string
}

// NewClient creates a Client. The user agent is sent on every request;
// MusicBrainz in particular requires one with contact information.
func NewClient(limiter *RateLimiterMap, budgets *BudgetMap, logger *slog.Logger, userAgent string) *Client {
	return &Client{
		http:      &http.Client{Timeout: 45 * time.Second},
		limiter:   limiter,
		budgets:   budgets,
		logger:    logger.With(slog.String("component", "catalog")),
		userAgent: userAgent,
	}
}

// GetJSON performs a budgeted, rate-limited GET and decodes the JSON
// response into out. Transport-level retries do not consume extra budget;
// the charge is per lookup call placed by the caller.
func (c *Client) GetJSON(ctx context.Context, source SourceName, reqURL string, out any) error {
	if !c.budgets.TryConsume(source) {
		return fmt.Errorf("%s: %w", source, ErrBudgetExhausted)
	}

	backoff := retry.WithMaxRetries(4, retry.NewExponential(2*time.Second))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx, source); err != nil {
			return &ErrSourceUnavailable{Source: source, Cause: fmt.Errorf("rate limiter: %w", err)}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		c.logger.Debug("requesting",
			slog.String("source", string(source)),
			slog.String("url", reqURL))

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(&ErrSourceUnavailable{Source: source, Cause: err})
		}
		defer resp.Body.Close() //nolint:errcheck

		switch {
		case resp.StatusCode == http.StatusOK:
			// continue below
		case resp.StatusCode == http.StatusNotFound:
			_, _ = io.Copy(io.Discard, resp.Body)
			return &ErrNotFound{Source: source, Query: reqURL}
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			_, _ = io.Copy(io.Discard, resp.Body)
			return retry.RetryableError(&ErrSourceUnavailable{
				Source: source,
				Cause:  fmt.Errorf("HTTP %d", resp.StatusCode),
			})
		default:
			_, _ = io.Copy(io.Discard, resp.Body)
			return &ErrSourceUnavailable{
				Source: source,
				Cause:  fmt.Errorf("unexpected HTTP %d", resp.StatusCode),
			}
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return retry.RetryableError(&ErrSourceUnavailable{Source: source, Cause: err})
		}
		if err := json.Unmarshal(body, out); err != nil {
			return &ErrSourceUnavailable{Source: source, Cause: fmt.Errorf("parsing response: %w", err)}
		}
		return nil
	})
}
