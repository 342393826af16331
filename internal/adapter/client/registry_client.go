package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RegistryHTTPClient implements ports.ClientRegistry against the external
// bank-regulator registry. The lookup is a read, so transient failures
// (connection errors, 502/503/504) are retried a bounded number of times
// with backoff.
type RegistryHTTPClient struct {
	baseURL string
	http    HTTPDoer
	retries int
	backoff time.Duration
	log     zerolog.Logger
}

// NewRegistryHTTPClient creates a registry client.
func NewRegistryHTTPClient(baseURL string, doer HTTPDoer, retries int, backoff time.Duration, log zerolog.Logger) *RegistryHTTPClient {
	if retries < 1 {
		retries = 1
	}
	return &RegistryHTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		retries: retries,
		backoff: backoff,
		log:     log,
	}
}

// ClientExists looks up the client in the registry. 200 means registered,
// 404 means unknown; anything else after the retry budget is a transport
// failure surfaced to the caller.
func (c *RegistryHTTPClient) ClientExists(ctx context.Context, clientID uuid.UUID) (bool, error) {
	url := fmt.Sprintf("%s/clients/%s", c.baseURL, clientID)

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt-1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false, fmt.Errorf("build registry request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			c.log.Warn().Err(err).Int("attempt", attempt).Msg("registry lookup failed")
			continue
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return true, nil
		case resp.StatusCode == http.StatusNotFound:
			return false, nil
		case retryableStatus(resp.StatusCode):
			lastErr = &UpstreamError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
			c.log.Warn().Int("status", resp.StatusCode).Int("attempt", attempt).Msg("registry lookup transient failure")
		default:
			return false, &UpstreamError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
	}

	return false, fmt.Errorf("registry unreachable after %d attempts: %w", c.retries, lastErr)
}
