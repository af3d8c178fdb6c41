package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.razorpay.com"

// Client creates payment intents ("orders" in gateway parlance) over the
// Razorpay REST API. It is constructed explicitly at startup; missing
// credentials are a configuration error, not a per-request nil check.
type Client struct {
	log     *slog.Logger
	http    *http.Client
	baseURL string
	keyID   string
	secret  string
}

func New(log *slog.Logger, keyID, secret string) (*Client, error) {
	if keyID == "" || secret == "" {
		return nil, errors.New("razorpay: key id and secret are required")
	}
	return &Client{
		log:     log,
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: defaultBaseURL,
		keyID:   keyID,
		secret:  secret,
	}, nil
}

// WithBaseURL points the client at a test server.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

func (c *Client) KeyID() string { return c.keyID }

type intentRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type intentResponse struct {
	ID string `json:"id"`
}

// CreateIntent registers the amount with the gateway and returns the intent
// id the shopper's client needs to drive checkout. Amount is already in the
// gateway's minor unit.
func (c *Client) CreateIntent(ctx context.Context, amountCents int64, currency, receipt string) (string, error) {
	body, err := json.Marshal(intentRequest{Amount: amountCents, Currency: currency, Receipt: receipt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.keyID, c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("gateway returned %d: %s", resp.StatusCode, excerpt)
	}

	var out intentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}
	if out.ID == "" {
		return "", errors.New("gateway response missing intent id")
	}
	return out.ID, nil
}
