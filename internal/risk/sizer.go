// Package risk holds the trade-sizing decision logic and the order guard.
package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/coinhook/relay/config"
	"github.com/coinhook/relay/errs"
	"github.com/coinhook/relay/internal/schema"
)

var hundred = decimal.NewFromInt(100)

// Policy captures the configured sizing parameters as exact decimals.
type Policy struct {
	// SellFraction is the fraction of the asset balance sold per signal.
	SellFraction decimal.Decimal
	// SpendFraction is the fraction of quote balance available after the
	// reserve buffer is held back.
	SpendFraction decimal.Decimal
	// CryptoCount divides the spendable quote balance across assets.
	CryptoCount decimal.Decimal
}

// NewPolicy converts trading settings into a Policy, validating ranges.
func NewPolicy(cfg config.TradingSettings) (Policy, error) {
	if cfg.SellPercentage <= 0 || cfg.SellPercentage > 100 {
		return Policy{}, fmt.Errorf("sell_percentage must be in (0, 100], got %d", cfg.SellPercentage)
	}
	if cfg.ReserveBuffer < 0 || cfg.ReserveBuffer >= 100 {
		return Policy{}, fmt.Errorf("reserve_buffer must be in [0, 100), got %d", cfg.ReserveBuffer)
	}
	if cfg.CryptoCount < 1 {
		return Policy{}, fmt.Errorf("crypto_count must be at least 1, got %d", cfg.CryptoCount)
	}
	return Policy{
		SellFraction:  decimal.NewFromInt(int64(cfg.SellPercentage)).Div(hundred),
		SpendFraction: decimal.NewFromInt(int64(100 - cfg.ReserveBuffer)).Div(hundred),
		CryptoCount:   decimal.NewFromInt(int64(cfg.CryptoCount)),
	}, nil
}

// Limits is the exchange-declared min/max order size for a pair.
type Limits struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Inputs carries everything a single sizing decision needs. All values are
// read fresh for the request; nothing is cached or shared.
type Inputs struct {
	Side   schema.Side
	Price  decimal.Decimal
	Step   decimal.Decimal
	Limits Limits
	// BaseBalance is the held quantity of the asset being sold.
	BaseBalance decimal.Decimal
	// QuoteBalance is the held quantity of the quote currency for buys.
	QuoteBalance decimal.Decimal
}

// Sizer computes order quantities from balances and policy. It is pure:
// no I/O, no state beyond the policy.
type Sizer struct {
	policy Policy
}

// NewSizer builds a Sizer from the policy.
func NewSizer(policy Policy) *Sizer {
	return &Sizer{policy: policy}
}

// Size computes the clamped order quantity for the signal, or a computation
// rejection when the result is not tradable.
//
// Sizing always rounds down so the order never exceeds the intended spend or
// sale; enforcing the exchange minimum rounds up so the clamped quantity
// never slips below it.
func (s *Sizer) Size(in Inputs) (decimal.Decimal, error) {
	var qty decimal.Decimal
	switch in.Side {
	case schema.SideSell:
		qty = floorToStep(in.BaseBalance.Mul(s.policy.SellFraction), in.Step)
	case schema.SideBuy:
		if !in.Price.IsPositive() {
			return decimal.Zero, errs.Computation("cannot size a buy without a positive price")
		}
		perTrade := in.QuoteBalance.Mul(s.policy.SpendFraction).Div(s.policy.CryptoCount)
		qty = floorToStep(perTrade.Div(in.Price), in.Step)
	default:
		return decimal.Zero, errs.Validation(fmt.Sprintf("unsupported side %q", in.Side))
	}

	qty = Clamp(qty, in.Step, in.Limits)
	if !qty.IsPositive() {
		return decimal.Zero, errs.Computation("trade amount too small")
	}
	return qty, nil
}

// Clamp enforces the exchange's min/max order sizes: a quantity below the
// minimum becomes the minimum rounded up to step, one above the maximum
// becomes the maximum rounded down. Applying it twice changes nothing.
func Clamp(qty, step decimal.Decimal, limits Limits) decimal.Decimal {
	if qty.LessThan(limits.Min) {
		qty = ceilToStep(limits.Min, step)
	}
	if qty.GreaterThan(limits.Max) {
		qty = floorToStep(limits.Max, step)
	}
	return qty
}

// floorToStep truncates v toward zero onto the step grid. Mod keeps the
// arithmetic exact; dividing first would be subject to division precision.
func floorToStep(v, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return v
	}
	return v.Sub(v.Mod(step))
}

func ceilToStep(v, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return v
	}
	rem := v.Mod(step)
	if rem.IsZero() {
		return v
	}
	return v.Sub(rem).Add(step)
}
