package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/querygate/offline/internal/models"
)

// HTTPClient implements Client over the backend's JSON sync API.
//
// Transient failures (transport errors and 5xx responses) are retried with
// capped exponential backoff before the call is reported as failed; 4xx
// responses are permanent and returned immediately.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client

	// maxRetries bounds the in-call retries on top of the first attempt.
	maxRetries uint64
	backoff    time.Duration
}

// NewHTTPClient returns a client for the sync API rooted at baseURL. token,
// when non-empty, is sent as a bearer token on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		http:       &http.Client{Timeout: 15 * time.Second},
		maxRetries: 2,
		backoff:    500 * time.Millisecond,
	}
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/v1/health", nil)
}

func (c *HTTPClient) Upsert(ctx context.Context, entityType models.EntityType, id string, payload []byte) error {
	return c.do(ctx, http.MethodPut, c.entityPath(entityType, id), payload)
}

func (c *HTTPClient) Delete(ctx context.Context, entityType models.EntityType, id string) error {
	return c.do(ctx, http.MethodDelete, c.entityPath(entityType, id), nil)
}

func (c *HTTPClient) entityPath(entityType models.EntityType, id string) string {
	return fmt.Sprintf("/api/v1/sync/%s/%s", string(entityType), id)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte) error {
	b := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoff))

	return retry.Do(ctx, b, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("request failed: %w", err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode == http.StatusNotFound && method == http.MethodDelete:
			// delete is idempotent: the entity being gone already is success
			return nil
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("server error: %s", resp.Status))
		default:
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
			return fmt.Errorf("request rejected: %s: %s", resp.Status, string(snippet))
		}
	})
}
