package risk

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/coinhook/relay/config"
	"github.com/coinhook/relay/errs"
)

// Manager guards order submissions with a rate throttle and an optional cap
// on single-order size. It deliberately does not serialize balance reads:
// concurrent signals for the same asset can still double-spend, which the
// current design accepts.
type Manager struct {
	maxOrderSize decimal.Decimal
	limiter      *rate.Limiter
}

// NewManager builds a Manager from trading settings. A zero throttle means
// unlimited; an empty or unparseable max order size disables the cap.
func NewManager(cfg config.TradingSettings) (*Manager, error) {
	limit := rate.Inf
	burst := 1
	if cfg.OrderThrottle > 0 {
		limit = rate.Limit(cfg.OrderThrottle)
	}

	maxSize := decimal.Zero
	if cfg.MaxOrderSize != "" {
		parsed, err := decimal.NewFromString(cfg.MaxOrderSize)
		if err != nil {
			return nil, fmt.Errorf("parse max_order_size %q: %w", cfg.MaxOrderSize, err)
		}
		maxSize = parsed
	}

	return &Manager{
		maxOrderSize: maxSize,
		limiter:      rate.NewLimiter(limit, burst),
	}, nil
}

// CheckOrder blocks until the throttle admits the order, then verifies the
// quantity against the configured cap.
func (m *Manager) CheckOrder(ctx context.Context, qty decimal.Decimal) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return errs.New("relay", errs.CodeUnavailable,
			errs.WithMessage("order throttle exceeded"), errs.WithCause(err))
	}
	if m.maxOrderSize.IsPositive() && qty.GreaterThan(m.maxOrderSize) {
		return errs.New("relay", errs.CodeUnavailable,
			errs.WithMessage(fmt.Sprintf("order quantity %s exceeds max order size %s", qty, m.maxOrderSize)))
	}
	return nil
}
