package coinbase

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/coinhook/relay/errs"
	"github.com/coinhook/relay/internal/schema"
)

// Catalog fallbacks applied when a pair is missing from the product list.
// These are policy defaults, not errors.
var (
	defaultBaseIncrement = decimal.New(1, -8)
	defaultMinSize       = decimal.RequireFromString("0.01")
	defaultMaxSize       = decimal.NewFromInt(999999)
)

type spotPriceResponse struct {
	Data struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	} `json:"data"`
}

type productCatalogResponse struct {
	Products []product `json:"products"`
}

type product struct {
	ProductID     string `json:"product_id"`
	BaseIncrement string `json:"base_increment"`
	BaseMinSize   string `json:"base_min_size"`
	BaseMaxSize   string `json:"base_max_size"`
}

// SpotPrice fetches the current spot price for the pair. An absent,
// non-numeric, or non-positive amount is an upstream error rather than a
// usable quote.
func (c *Client) SpotPrice(ctx context.Context, pair schema.TradingPair) (decimal.Decimal, error) {
	var out spotPriceResponse
	if err := c.Do(ctx, http.MethodGet, "/v2/prices/"+pair.ProductID()+"/spot", nil, &out); err != nil {
		return decimal.Zero, err
	}
	price, err := decimal.NewFromString(strings.TrimSpace(out.Data.Amount))
	if err != nil || !price.IsPositive() {
		return decimal.Zero, errs.New(venue, errs.CodeUpstream,
			errs.WithMessage("spot price unavailable for "+pair.ProductID()))
	}
	return price, nil
}

// Precision returns the smallest tradable increment of the pair's base
// asset. Pairs missing from the catalog fall back to 1e-8.
func (c *Client) Precision(ctx context.Context, pair schema.TradingPair) (decimal.Decimal, error) {
	found, ok, err := c.findProduct(ctx, pair)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return defaultBaseIncrement, nil
	}
	step, err := decimal.NewFromString(strings.TrimSpace(found.BaseIncrement))
	if err != nil || !step.IsPositive() {
		return decimal.Zero, errs.New(venue, errs.CodeUpstream,
			errs.WithMessage("malformed base increment for "+pair.ProductID()))
	}
	return step, nil
}

// TradeLimits returns the declared minimum and maximum order sizes for the
// pair, falling back to (0.01, 999999) when the pair is not listed.
func (c *Client) TradeLimits(ctx context.Context, pair schema.TradingPair) (decimal.Decimal, decimal.Decimal, error) {
	found, ok, err := c.findProduct(ctx, pair)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if !ok {
		return defaultMinSize, defaultMaxSize, nil
	}
	minSize, minErr := decimal.NewFromString(strings.TrimSpace(found.BaseMinSize))
	maxSize, maxErr := decimal.NewFromString(strings.TrimSpace(found.BaseMaxSize))
	if minErr != nil || maxErr != nil {
		return decimal.Zero, decimal.Zero, errs.New(venue, errs.CodeUpstream,
			errs.WithMessage("malformed trade limits for "+pair.ProductID()))
	}
	return minSize, maxSize, nil
}

// findProduct scans the product catalog for the pair. The catalog is fetched
// fresh on every call; nothing is cached between requests.
func (c *Client) findProduct(ctx context.Context, pair schema.TradingPair) (product, bool, error) {
	var out productCatalogResponse
	if err := c.Do(ctx, http.MethodGet, "/api/v3/brokerage/products", nil, &out); err != nil {
		return product{}, false, err
	}
	id := pair.ProductID()
	for _, p := range out.Products {
		if p.ProductID == id {
			return p, true, nil
		}
	}
	return product{}, false, nil
}
