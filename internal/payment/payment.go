// Package payment talks to the external payment processor. The hosted
// widget of the web client becomes a Confirmer here: one confirmation call
// per client secret, reporting success, failure or a required follow-up.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Status is the processor's verdict on a confirmation attempt.
type Status string

const (
	StatusSucceeded      Status = "succeeded"
	StatusRequiresAction Status = "requires_action"
	StatusFailed         Status = "failed"
)

// Result is what a confirmation attempt reports back.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Billing carries the details attached to the confirmation call.
type Billing struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	PostalCode string `json:"postal_code"`
}

// Confirmer drives one payment confirmation round trip.
type Confirmer interface {
	Confirm(ctx context.Context, clientSecret string, billing Billing) (Result, error)
}

// Client confirms payments over the processor's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Client for the processor base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type confirmRequest struct {
	ClientSecret   string `json:"client_secret"`
	BillingDetails struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Address struct {
			PostalCode string `json:"postal_code"`
		} `json:"address"`
	} `json:"billing_details"`
}

// Confirm submits the client secret with billing details and returns the
// processor's result. A transport failure is an error; a declined payment is
// a Result with StatusFailed.
func (c *Client) Confirm(ctx context.Context, clientSecret string, billing Billing) (Result, error) {
	payload := confirmRequest{ClientSecret: clientSecret}
	payload.BillingDetails.Name = billing.Name
	payload.BillingDetails.Email = billing.Email
	payload.BillingDetails.Address.PostalCode = billing.PostalCode

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("marshal confirm payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment/confirm", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create confirm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("execute confirm request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read confirm response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("confirm request failed: status %d, body: %s", resp.StatusCode, string(raw))
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return Result{}, fmt.Errorf("unmarshal confirm response: %w", err)
	}
	if result.Status == "" {
		result.Status = StatusFailed
	}
	return result, nil
}
