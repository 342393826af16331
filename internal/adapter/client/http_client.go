package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"card-payment-pipeline/internal/core/ports"

	"github.com/rs/zerolog"
)

// HTTPDoer is the transport interface, satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// baseClient carries the shared plumbing for calls to sibling services:
// bearer token injection, the JSON envelope, and error mapping.
type baseClient struct {
	baseURL string
	http    HTTPDoer
	tokens  ports.TokenService
	subject string
	log     zerolog.Logger
}

func newBaseClient(baseURL string, doer HTTPDoer, tokens ports.TokenService, subject string, log zerolog.Logger) baseClient {
	return baseClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		tokens:  tokens,
		subject: subject,
		log:     log,
	}
}

// envelope mirrors pkg/response.SuccessResponse.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// errorEnvelope mirrors pkg/response.ErrorResponse.
type errorEnvelope struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// postJSON sends one authenticated POST and decodes the success envelope
// into out. Mutating calls are never retried here: they are not idempotent
// without a deduplication key, so retries belong to the caller's semantics.
func (c *baseClient) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(req); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp errorEnvelope
		if json.Unmarshal(raw, &errResp) == nil && errResp.ErrorCode != "" {
			return &UpstreamError{StatusCode: resp.StatusCode, Code: errResp.ErrorCode, Message: errResp.Message}
		}
		return &UpstreamError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func (c *baseClient) authorize(req *http.Request) error {
	token, _, err := c.tokens.Generate(c.subject)
	if err != nil {
		return fmt.Errorf("mint service token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// UpstreamError is a non-2xx reply from a sibling service.
type UpstreamError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("upstream %d [%s]: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("upstream %d: %s", e.StatusCode, e.Message)
}

// retryableStatus reports whether a status code marks a transient condition
// worth retrying on an idempotent call.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// NewHTTPClient builds the default transport for sibling-service calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
