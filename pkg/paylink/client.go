// Package paylink talks to the external billing provider that hosts
// payment pages for invoices. Link creation is best-effort: a provider
// outage degrades invoices to "no pay button", it never blocks sending.
package paylink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

// Client calls the payment link API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient reads PAYLINK_URL and PAYLINK_API_KEY from the environment.
// A client with an empty base URL is valid and never produces links.
func NewClient() *Client {
	return &Client{
		baseURL: os.Getenv("PAYLINK_URL"),
		apiKey:  os.Getenv("PAYLINK_API_KEY"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// LinkRequest describes the invoice a payment page is created for.
type LinkRequest struct {
	InvoiceID uuid.UUID `json:"invoiceId"`
	Number    string    `json:"number"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	ItemCount int       `json:"itemCount"`
}

type linkResponse struct {
	URL string `json:"url"`
}

// CreateLink asks the provider for a hosted payment page. Returns nil
// (not an error) when the provider is unconfigured, unreachable or
// rejects the request: callers store a missing link, nothing more.
func (c *Client) CreateLink(ctx context.Context, req LinkRequest) *string {
	if c.baseURL == "" {
		return nil
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/links", bytes.NewReader(body))
	if err != nil {
		return nil
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil
	}

	var out linkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.URL == "" {
		return nil
	}
	return &out.URL
}

// VoidLink cancels a hosted payment page, used when an invoice is voided.
func (c *Client) VoidLink(ctx context.Context, invoiceID uuid.UUID) error {
	if c.baseURL == "" {
		return nil
	}

	url := fmt.Sprintf("%s/v1/links/%s", c.baseURL, invoiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("paylink: void failed with status %d", resp.StatusCode)
	}
	return nil
}
