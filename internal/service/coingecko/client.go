package coingecko

import (
	"context"
	"fmt"
	"time"

	"CryptoPulse/internal/domain/models"
	drepo "CryptoPulse/internal/domain/repository"
	xhttp "CryptoPulse/pkg/http"
)

// Client fetches spot prices from the CoinGecko simple-price endpoint.
type Client struct {
	http      *xhttp.Client
	url       string
	symbol    string // coingecko asset id, e.g. "bitcoin"
	currency  string // quote currency, e.g. "usd"
	userAgent string
}

// New creates a CoinGecko price source.
func New(url, symbol, currency, userAgent string, timeout time.Duration) drepo.PriceSource {
	return &Client{
		http:      xhttp.NewClient(xhttp.WithTimeout(timeout)),
		url:       url,
		symbol:    symbol,
		currency:  currency,
		userAgent: userAgent,
	}
}

// FetchSpot requests the current price and stamps it with the request
// time, truncated to seconds so repeated polls within the same second
// dedupe at the store.
func (c *Client) FetchSpot(ctx context.Context) (*models.Sample, error) {
	var body map[string]map[string]float64
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.url,
		Headers: map[string]string{
			"User-Agent": c.userAgent,
		},
		QueryParams: map[string][]string{
			"ids":           {c.symbol},
			"vs_currencies": {c.currency},
		},
	}, &body)
	if err != nil {
		return nil, fmt.Errorf("coingecko fetch: %w", err)
	}

	quote, ok := body[c.symbol]
	if !ok {
		return nil, fmt.Errorf("coingecko response missing asset %q", c.symbol)
	}
	price, ok := quote[c.currency]
	if !ok {
		return nil, fmt.Errorf("coingecko response missing currency %q", c.currency)
	}
	if price <= 0 {
		return nil, fmt.Errorf("coingecko returned non-positive price %v", price)
	}

	return &models.Sample{
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Symbol:    c.symbol,
		Price:     price,
		Source:    "coingecko",
	}, nil
}
