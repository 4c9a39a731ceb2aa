package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrPriceUnavailable means the quote API had no price for the mint.
var ErrPriceUnavailable = errors.New("price unavailable")

// PriceSource answers the current USD price of one unit of a mint.
// Position monitors poll it every tick and the paper executor fills
// against it.
type PriceSource interface {
	Price(ctx context.Context, mint string) (float64, error)
}

// QuoteClient fetches prices from the quote API.
type QuoteClient struct {
	http *resty.Client
}

var _ PriceSource = (*QuoteClient)(nil)

// NewQuoteClient creates a quote client for the given endpoint.
func NewQuoteClient(endpoint string, timeout time.Duration) *QuoteClient {
	return &QuoteClient{
		http: resty.New().
			SetBaseURL(endpoint).
			SetTimeout(timeout).
			SetRetryCount(1).
			SetRetryWaitTime(200 * time.Millisecond),
	}
}

// quoteResponse mirrors the quote API price response: a map of mint to
// price entry.
type quoteResponse struct {
	Data map[string]struct {
		Price float64 `json:"price"`
	} `json:"data"`
}

// Price returns the current USD price for one unit of the mint.
func (c *QuoteClient) Price(ctx context.Context, mint string) (float64, error) {
	var out quoteResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetQueryParam("ids", mint).
		Get("/price")
	if err != nil {
		return 0, fmt.Errorf("quote %s: %w", mint, err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("quote %s: http status %d", mint, resp.StatusCode())
	}

	entry, ok := out.Data[mint]
	if !ok || entry.Price <= 0 {
		return 0, fmt.Errorf("quote %s: %w", mint, ErrPriceUnavailable)
	}
	return entry.Price, nil
}
