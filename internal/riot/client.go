package riot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ErrNotFound indicates the requested resource does not exist upstream,
// e.g. a player with no live game. Callers treat it as "nothing to do"
// rather than a failure.
var ErrNotFound = errors.New("riot: not found")

// APIError is a non-404 error response from the Riot API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("riot: API error: status %d, body: %s", e.StatusCode, e.Body)
}

// IsClientError reports whether the error is a 4xx upstream response.
func IsClientError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
}

// Client is a Riot Games API client with request pacing and a circuit
// breaker. Platform-scoped endpoints (spectator, league) and regionally
// routed endpoints (account, match) use different base URLs.
type Client struct {
	apiKey          string
	platformBaseURL string
	regionalBaseURL string

	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a new Riot API client.
func NewClient(apiKey, platformBaseURL, regionalBaseURL string) *Client {
	return &Client{
		apiKey:          apiKey,
		platformBaseURL: platformBaseURL,
		regionalBaseURL: regionalBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		// Development keys allow 20 requests per second
		limiter: rate.NewLimiter(rate.Limit(20), 1),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "riot-api",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// Only server-side failures trip the breaker. A player with
			// no live game is a 404 and part of normal operation.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNotFound) || IsClientError(err)
			},
		}),
	}
}

// get performs a GET request through the limiter and breaker and
// decodes the JSON response into result.
func (c *Client) get(ctx context.Context, url string, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.doGet(ctx, url, result)
	})
	return err
}

func (c *Client) doGet(ctx context.Context, url string, result any) error {
	resp, err := c.request(ctx, url)
	if err != nil {
		return err
	}

	// Honor the upstream rate limit once before giving up on the item
	if resp.StatusCode == http.StatusTooManyRequests {
		wait := retryAfter(resp)
		resp.Body.Close()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		resp, err = c.request(ctx, url)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (c *Client) request(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func retryAfter(resp *http.Response) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Second
}
