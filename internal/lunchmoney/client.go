// Package lunchmoney is a thin typed client for the remote budgeting API:
// transport and codec only. Retry belongs to the sync orchestrator, not here.
package lunchmoney

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://dev.lunchmoney.app/v1"

// Client talks to the remote ledger service with a bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a non-default endpoint (tests, staging).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a client for the given API token. A per-call timeout is
// always applied so a stalled request cannot wedge the push retry loop.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do executes one request and decodes the response into out (when non-nil).
// Any non-2xx status or non-empty errors list in the body surfaces as an
// *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("lunchmoney: encoding %s %s body: %w", method, path, err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("lunchmoney: building %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("lunchmoney: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("lunchmoney: reading %s %s response: %w", method, path, err)
	}

	// The service reports failures both via status codes and via an errors
	// list inside 200 responses; treat either as an API error.
	var envelope errorEnvelope
	_ = json.Unmarshal(raw, &envelope)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Errors: envelope.messages()}
	}
	if msgs := envelope.messages(); len(msgs) > 0 {
		return &APIError{StatusCode: resp.StatusCode, Errors: msgs}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("lunchmoney: decoding %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// GetUser returns the identity behind the configured token.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListCategories returns all remote budgeting categories.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var resp struct {
		Categories []Category `json:"categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/categories", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

// ListAssets returns all manually-managed remote accounts.
func (c *Client) ListAssets(ctx context.Context) ([]Asset, error) {
	var resp struct {
		Assets []Asset `json:"assets"`
	}
	if err := c.do(ctx, http.MethodGet, "/assets", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Assets, nil
}

// CreateAsset creates a remote asset and returns its id. The service has
// answered with several shapes over time (flat id, asset_id, nested asset
// object); all are tolerated.
func (c *Client) CreateAsset(ctx context.Context, asset Asset) (int64, error) {
	var resp struct {
		ID      int64 `json:"id"`
		AssetID int64 `json:"asset_id"`
		Asset   struct {
			ID int64 `json:"id"`
		} `json:"asset"`
	}
	if err := c.do(ctx, http.MethodPost, "/assets", nil, asset, &resp); err != nil {
		return 0, err
	}
	switch {
	case resp.ID != 0:
		return resp.ID, nil
	case resp.AssetID != 0:
		return resp.AssetID, nil
	case resp.Asset.ID != 0:
		return resp.Asset.ID, nil
	}
	return 0, fmt.Errorf("lunchmoney: create asset response carried no id")
}

// UpdateAssetBalance pushes a new balance (2-decimal string) with its as-of
// date to the remote asset.
func (c *Client) UpdateAssetBalance(ctx context.Context, assetID int64, balance string, asOf time.Time) error {
	body := map[string]string{
		"balance":       balance,
		"balance_as_of": asOf.Format(time.RFC3339),
	}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/assets/%d", assetID), nil, body, nil)
}

// ListTransactions returns remote transactions matching the filters.
func (c *Client) ListTransactions(ctx context.Context, filters TransactionFilters) ([]Transaction, error) {
	var resp struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := c.do(ctx, http.MethodGet, "/transactions", encodeQuery(filters), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}

// GetTransaction fetches one remote transaction by id.
func (c *Client) GetTransaction(ctx context.Context, id int64) (*Transaction, error) {
	var tx Transaction
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/transactions/%d", id), nil, nil, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// CreateTransactions inserts a batch of transactions and returns the created
// ids. An errors list in the response surfaces as *APIError.
func (c *Client) CreateTransactions(ctx context.Context, req InsertRequest) (*InsertResponse, error) {
	var resp InsertResponse
	if err := c.do(ctx, http.MethodPost, "/transactions", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateTransaction applies a partial update to one remote transaction.
func (c *Client) UpdateTransaction(ctx context.Context, id int64, fields UpdateFields) error {
	body := struct {
		Transaction UpdateFields `json:"transaction"`
	}{Transaction: fields}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/transactions/%d", id), nil, body, nil)
}
