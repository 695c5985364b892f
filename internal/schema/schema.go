// Package schema defines the wire types shared across the relay.
package schema

import "strings"

// Side captures the direction of a trade.
type Side string

const (
	// SideBuy indicates a buy order.
	SideBuy Side = "BUY"
	// SideSell indicates a sell order.
	SideSell Side = "SELL"
)

// ParseSide normalises raw webhook input into a Side. Input is trimmed and
// matched case-insensitively; anything other than buy/sell is rejected.
func ParseSide(raw string) (Side, bool) {
	switch Side(strings.ToUpper(strings.TrimSpace(raw))) {
	case SideBuy:
		return SideBuy, true
	case SideSell:
		return SideSell, true
	default:
		return "", false
	}
}

// TradingPair identifies a base asset priced against a quote asset.
type TradingPair struct {
	Base  string
	Quote string
}

// NewTradingPair builds a pair from raw symbols, upper-casing both sides.
func NewTradingPair(base, quote string) TradingPair {
	return TradingPair{
		Base:  strings.ToUpper(strings.TrimSpace(base)),
		Quote: strings.ToUpper(strings.TrimSpace(quote)),
	}
}

// ProductID renders the pair in the exchange's BASE-QUOTE form.
func (p TradingPair) ProductID() string {
	return p.Base + "-" + p.Quote
}

func (p TradingPair) String() string { return p.ProductID() }

// Signal is the inbound webhook payload.
type Signal struct {
	Currency string `json:"currency"`
	Action   string `json:"action"`
}
