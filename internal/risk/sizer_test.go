package risk

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/coinhook/relay/config"
	"github.com/coinhook/relay/errs"
	"github.com/coinhook/relay/internal/schema"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func policy(t *testing.T, sellPct, reserve, count int) Policy {
	t.Helper()
	p, err := NewPolicy(config.TradingSettings{
		BaseCurrency:   "USDC",
		SellPercentage: sellPct,
		ReserveBuffer:  reserve,
		CryptoCount:    count,
	})
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	return p
}

func wideLimits() Limits {
	return Limits{Min: d("0.00000001"), Max: d("999999999")}
}

func TestSellSizingWorkedExample(t *testing.T) {
	// asset balance 3.456789, sell 10%, step 0.0001 -> 0.3456 (rounded down)
	sizer := NewSizer(policy(t, 10, 50, 1))
	qty, err := sizer.Size(Inputs{
		Side:        schema.SideSell,
		Price:       d("1"),
		Step:        d("0.0001"),
		Limits:      wideLimits(),
		BaseBalance: d("3.456789"),
	})
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if !qty.Equal(d("0.3456")) {
		t.Fatalf("expected 0.3456, got %s", qty)
	}
}

func TestBuySizingWorkedExample(t *testing.T) {
	// quote balance 1000, reserve 50, count 5, price 2.00, step 0.01 -> 50.00
	sizer := NewSizer(policy(t, 10, 50, 5))
	qty, err := sizer.Size(Inputs{
		Side:         schema.SideBuy,
		Price:        d("2.00"),
		Step:         d("0.01"),
		Limits:       Limits{Min: d("0.01"), Max: d("999999")},
		QuoteBalance: d("1000"),
	})
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if !qty.Equal(d("50.00")) {
		t.Fatalf("expected 50.00, got %s", qty)
	}
}

func TestSellNeverExceedsConfiguredFraction(t *testing.T) {
	cases := []struct {
		balance string
		sellPct int
		step    string
	}{
		{"3.456789", 10, "0.0001"},
		{"1000", 100, "0.01"},
		{"0.000123456", 25, "0.00000001"},
		{"7.77777", 33, "0.1"},
	}
	for _, tc := range cases {
		sizer := NewSizer(policy(t, tc.sellPct, 50, 1))
		qty, err := sizer.Size(Inputs{
			Side:        schema.SideSell,
			Step:        d(tc.step),
			Limits:      wideLimits(),
			BaseBalance: d(tc.balance),
		})
		if err != nil {
			t.Fatalf("%+v: %v", tc, err)
		}
		raw := d(tc.balance).Mul(decimal.NewFromInt(int64(tc.sellPct))).Div(decimal.NewFromInt(100))
		if qty.GreaterThan(raw) {
			t.Fatalf("%+v: quantity %s exceeds raw %s", tc, qty, raw)
		}
		if !qty.Mod(d(tc.step)).IsZero() {
			t.Fatalf("%+v: quantity %s not aligned to step %s", tc, qty, tc.step)
		}
	}
}

func TestBuyNeverExceedsSpendableBalance(t *testing.T) {
	cases := []struct {
		quote   string
		reserve int
		count   int
		price   string
		step    string
	}{
		{"1000", 50, 5, "2.00", "0.01"},
		{"250.75", 20, 3, "0.07", "0.1"},
		{"99999", 0, 1, "64123.45", "0.00000001"},
		{"10", 90, 2, "3.33", "0.001"},
	}
	for _, tc := range cases {
		sizer := NewSizer(policy(t, 10, tc.reserve, tc.count))
		qty, err := sizer.Size(Inputs{
			Side:         schema.SideBuy,
			Price:        d(tc.price),
			Step:         d(tc.step),
			Limits:       wideLimits(),
			QuoteBalance: d(tc.quote),
		})
		if err != nil {
			t.Fatalf("%+v: %v", tc, err)
		}
		spend := d(tc.quote).
			Mul(decimal.NewFromInt(int64(100 - tc.reserve))).
			Div(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(tc.count)))
		// within one step of the budget, never above it
		if qty.Mul(d(tc.price)).GreaterThan(spend.Add(d(tc.step).Mul(d(tc.price)))) {
			t.Fatalf("%+v: notional %s exceeds budget %s", tc, qty.Mul(d(tc.price)), spend)
		}
	}
}

func TestClampRaisesToMinimumRoundedUp(t *testing.T) {
	// raw 0.0000009 is below min 0.000016; result is min rounded up to step
	limits := Limits{Min: d("0.000016"), Max: d("2600")}
	got := Clamp(d("0.0000009"), d("0.00001"), limits)
	if !got.Equal(d("0.00002")) {
		t.Fatalf("expected 0.00002, got %s", got)
	}
	if got.LessThan(limits.Min) {
		t.Fatalf("clamped quantity %s fell below the exchange minimum %s", got, limits.Min)
	}
}

func TestClampLowersToMaximumRoundedDown(t *testing.T) {
	limits := Limits{Min: d("0.01"), Max: d("2600.005")}
	got := Clamp(d("9999"), d("0.01"), limits)
	if !got.Equal(d("2600.00")) {
		t.Fatalf("expected 2600.00, got %s", got)
	}
	if got.GreaterThan(limits.Max) {
		t.Fatalf("clamped quantity %s above the exchange maximum %s", got, limits.Max)
	}
}

func TestClampIsIdempotent(t *testing.T) {
	step := d("0.01")
	limits := Limits{Min: d("0.05"), Max: d("100")}
	for _, raw := range []string{"0.001", "0.05", "42.42", "5000"} {
		once := Clamp(d(raw), step, limits)
		twice := Clamp(once, step, limits)
		if !once.Equal(twice) {
			t.Fatalf("clamp not idempotent for %s: %s then %s", raw, once, twice)
		}
	}
}

func TestSizeRejectsDustResult(t *testing.T) {
	sizer := NewSizer(policy(t, 10, 50, 1))
	_, err := sizer.Size(Inputs{
		Side:        schema.SideSell,
		Step:        d("0.0001"),
		Limits:      Limits{Min: decimal.Zero, Max: d("999999")},
		BaseBalance: d("0.0000001"),
	})
	if errs.CodeOf(err) != errs.CodeComputation {
		t.Fatalf("expected computation rejection, got %v", err)
	}
	if errs.UserMessage(err) != "trade amount too small" {
		t.Fatalf("unexpected rejection message %q", errs.UserMessage(err))
	}
}

func TestSizeBuyRequiresPositivePrice(t *testing.T) {
	sizer := NewSizer(policy(t, 10, 50, 1))
	_, err := sizer.Size(Inputs{
		Side:         schema.SideBuy,
		Price:        decimal.Zero,
		Step:         d("0.01"),
		Limits:       wideLimits(),
		QuoteBalance: d("100"),
	})
	if errs.CodeOf(err) != errs.CodeComputation {
		t.Fatalf("expected computation rejection for zero price, got %v", err)
	}
}

func TestNewPolicyValidatesRanges(t *testing.T) {
	cases := []config.TradingSettings{
		{SellPercentage: 0, ReserveBuffer: 50, CryptoCount: 1},
		{SellPercentage: 101, ReserveBuffer: 50, CryptoCount: 1},
		{SellPercentage: 10, ReserveBuffer: 100, CryptoCount: 1},
		{SellPercentage: 10, ReserveBuffer: -1, CryptoCount: 1},
		{SellPercentage: 10, ReserveBuffer: 50, CryptoCount: 0},
	}
	for _, cfg := range cases {
		if _, err := NewPolicy(cfg); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}
