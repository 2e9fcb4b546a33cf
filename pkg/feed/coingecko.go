package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

type CoinGeckoConfig struct {
	BaseURL string
	Timeout time.Duration
}

// CoinGecko fetches spot prices from the CoinGecko simple/price
// endpoint, batching all requested ids into a single call.
type CoinGecko struct {
	baseURL string
	client  *http.Client
}

func NewCoinGecko(cfg *CoinGeckoConfig) *CoinGecko {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}

	return &CoinGecko{
		baseURL: baseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *CoinGecko) Quotes(ctx context.Context, feedIDs []string) (map[string]float64, error) {
	if len(feedIDs) == 0 {
		return map[string]float64{}, nil
	}

	addr := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, strings.Join(feedIDs, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed: coingecko GET %s: %s", addr, resp.Status)
	}

	// e.g. { "bitcoin": { "usd": 56000 }, ... }
	var payload map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("feed: coingecko malformed payload: %w", err)
	}

	quotes := make(map[string]float64, len(payload))
	for id, q := range payload {
		if q.USD > 0 {
			quotes[id] = q.USD
		}
	}

	return quotes, nil
}
