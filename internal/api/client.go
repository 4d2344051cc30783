package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Credentials supplies the bearer token attached to outgoing requests.
// Token may lazily issue a credential; Refresh replaces it after the backend
// reports an auth failure.
type Credentials interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// Client is a thin wrapper over the storefront REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      Credentials
}

// NewClient constructs a Client for the given API base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetCredentials wires the credential source. It is set after construction
// because the session manager issues its own token requests through this
// client.
func (c *Client) SetCredentials(creds Credentials) {
	c.creds = creds
}

type requestOpts struct {
	// skipAuth leaves the Authorization header off entirely; used by the
	// token issuance endpoints, which must not recurse into Credentials.
	skipAuth bool
	// token overrides the credential source for this one request.
	token string
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Error string `json:"error"`
}

// Do performs an authenticated request and decodes a 2xx body into out.
// A 401/403 triggers one credential refresh and retry before giving up.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, method, path, body, out, requestOpts{})
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, opts requestOpts) error {
	resp, raw, err := c.roundTrip(ctx, method, path, body, opts)
	if err != nil {
		return err
	}

	if (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) &&
		!opts.skipAuth && opts.token == "" && c.creds != nil {
		// Credential likely expired; refresh and retry once.
		token, refreshErr := c.creds.Refresh(ctx)
		if refreshErr != nil {
			return &AuthError{Status: resp.StatusCode, Message: decodeError(raw)}
		}
		opts.token = token
		resp, raw, err = c.roundTrip(ctx, method, path, body, opts)
		if err != nil {
			return err
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{Status: resp.StatusCode, Message: decodeError(raw)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{Message: decodeError(raw)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &ServerError{Status: resp.StatusCode, Message: decodeError(raw)}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ServerError{Status: resp.StatusCode, Message: fmt.Sprintf("malformed response: %v", err)}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any, opts requestOpts) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	url := c.baseURL + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if !opts.skipAuth {
		token := opts.token
		if token == "" && c.creds != nil {
			token, err = c.creds.Token(ctx)
			if err != nil {
				return nil, nil, fmt.Errorf("obtain credential: %w", err)
			}
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, err
		}
		log.Printf("api: %s %s failed: %v", method, path, err)
		return nil, nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &NetworkError{Err: err}
	}

	log.Printf("api: %s %s -> %d (%s)", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))
	return resp, raw, nil
}

func decodeError(raw []byte) string {
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil && eb.Error != "" {
		return eb.Error
	}
	return ""
}
