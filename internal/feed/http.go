package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/stocksim/trade-engine/internal/model"
)

// Client fetches price snapshots from the market simulation backend over
// HTTP. The backend owns price movement; this client only reads
// GET {base}/market/status.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient creates a market feed client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: 10 * time.Second},
	}
}

type marketStatusResponse struct {
	Stocks map[string]model.Quote `json:"stocks"`
}

// CurrentPrices fetches the live snapshot. Any transport or decode failure
// surfaces as an error; the caller decides whether the day advance proceeds.
func (c *Client) CurrentPrices(ctx context.Context) (map[string]model.Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/market/status", nil)
	if err != nil {
		return nil, fmt.Errorf("build market status request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch market status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market status: unexpected status %d", resp.StatusCode)
	}

	var body marketStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode market status: %w", err)
	}
	if body.Stocks == nil {
		body.Stocks = map[string]model.Quote{}
	}
	return body.Stocks, nil
}
