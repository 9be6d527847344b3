package feeds

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// baseUnitExponent scales quoted prices into integer base units
// (9 decimals, matching the ledger's native unit).
const baseUnitExponent = 9

// Client fetches collection floor prices from an external marketplace
// API. Quotes arrive as decimal strings; they are converted to integer
// base units before being pushed into the oracle.
type Client struct {
	http    *resty.Client
	baseURL string
}

// AssetQuote is one marketplace floor-price quote
type AssetQuote struct {
	AssetID    string `json:"asset_id"`
	FloorPrice string `json:"floor_price"`
}

type collectionPricesResponse struct {
	CollectionID string       `json:"collection_id"`
	Assets       []AssetQuote `json:"assets"`
}

func NewClient(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(30 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(2 * time.Second),
		baseURL: baseURL,
	}
}

// GetCollectionPrices fetches current floor quotes for every asset in a
// collection
func (c *Client) GetCollectionPrices(ctx context.Context, collectionID string) ([]AssetQuote, error) {
	var result collectionPricesResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get(fmt.Sprintf("%s/collections/%s/prices", c.baseURL, collectionID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection prices: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("marketplace API returned %d for collection %s", resp.StatusCode(), collectionID)
	}

	return result.Assets, nil
}

// ToBaseUnits converts a quoted decimal price string to integer base
// units, truncating sub-unit precision
func ToBaseUnits(quoted string) (int64, error) {
	price, err := decimal.NewFromString(quoted)
	if err != nil {
		return 0, fmt.Errorf("invalid quoted price %q: %w", quoted, err)
	}
	if price.IsNegative() {
		return 0, fmt.Errorf("negative quoted price %q", quoted)
	}
	return price.Shift(baseUnitExponent).IntPart(), nil
}
