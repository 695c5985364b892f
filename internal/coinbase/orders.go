package coinbase

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coinhook/relay/internal/schema"
)

// OrderRequest is the order placement payload. Orders are always
// immediate-or-cancel market orders sized by base quantity.
type OrderRequest struct {
	ClientOrderID      string             `json:"client_order_id"`
	ProductID          string             `json:"product_id"`
	Side               string             `json:"side"`
	OrderConfiguration OrderConfiguration `json:"order_configuration"`
}

// OrderConfiguration selects the market IOC order type.
type OrderConfiguration struct {
	MarketIOC MarketIOC `json:"market_market_ioc"`
}

// MarketIOC carries the base-quantity size of a market order.
type MarketIOC struct {
	BaseSize string `json:"base_size"`
}

// OrderResponse is the exchange's raw order placement result, surfaced to
// the caller untyped for auditability.
type OrderResponse = map[string]any

// PlaceMarketOrder submits a market IOC order with a fresh client order id.
// The id acts as the exchange-side idempotency key; nothing is enforced
// locally and the order is never retried.
func (c *Client) PlaceMarketOrder(ctx context.Context, pair schema.TradingPair, side schema.Side, baseSize decimal.Decimal) (OrderResponse, error) {
	payload := OrderRequest{
		ClientOrderID: uuid.NewString(),
		ProductID:     pair.ProductID(),
		Side:          string(side),
		OrderConfiguration: OrderConfiguration{
			MarketIOC: MarketIOC{BaseSize: baseSize.String()},
		},
	}
	var out OrderResponse
	if err := c.Do(ctx, http.MethodPost, "/api/v3/brokerage/orders", payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}
