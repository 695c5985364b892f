package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/coinhook/relay/errs"
	"github.com/coinhook/relay/internal/observability"
	"github.com/coinhook/relay/internal/risk"
	"github.com/coinhook/relay/internal/schema"
)

// handleWebhook drives a signal through the linear pipeline: validate,
// price, size, submit. The first failure short-circuits to a 400 with
// readable text; the process never crashes on a bad request.
func (s *server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	result, err := s.processSignal(r)
	observability.Telemetry().ObserveHistogram(observability.MetricWebhookDuration,
		time.Since(started).Seconds(), nil)

	if err != nil {
		code := string(errs.CodeOf(err))
		if code == "" {
			code = "internal"
		}
		observability.Telemetry().IncCounter(observability.MetricSignalsRejected, 1,
			map[string]string{"code": code})
		observability.Log().Error("webhook rejected",
			observability.F("code", code),
			observability.F("reason", errs.UserMessage(err)))
		writeError(w, http.StatusBadRequest, errs.UserMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) processSignal(r *http.Request) (map[string]any, error) {
	var signal schema.Signal
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxJSONBodyBytes)).Decode(&signal); err != nil {
		return nil, errs.Validation("invalid request format: webhook must contain 'currency' and 'action'")
	}

	currency := strings.ToUpper(strings.TrimSpace(signal.Currency))
	if currency == "" || strings.TrimSpace(signal.Action) == "" {
		return nil, errs.Validation("invalid request format: webhook must contain 'currency' and 'action'")
	}
	side, ok := schema.ParseSide(signal.Action)
	if !ok {
		return nil, errs.Validation("invalid action: must be 'BUY' or 'SELL'")
	}

	observability.Telemetry().IncCounter(observability.MetricSignalsReceived, 1,
		map[string]string{"action": string(side)})

	ctx := r.Context()
	pair := schema.NewTradingPair(currency, s.baseCurrency)

	price, err := s.exchange.SpotPrice(ctx, pair)
	if err != nil {
		return nil, err
	}
	step, err := s.exchange.Precision(ctx, pair)
	if err != nil {
		return nil, err
	}
	minSize, maxSize, err := s.exchange.TradeLimits(ctx, pair)
	if err != nil {
		return nil, err
	}

	inputs := risk.Inputs{
		Side:   side,
		Price:  price,
		Step:   step,
		Limits: risk.Limits{Min: minSize, Max: maxSize},
	}
	if side == schema.SideSell {
		inputs.BaseBalance, err = s.exchange.AvailableBalance(ctx, currency)
	} else {
		inputs.QuoteBalance, err = s.exchange.AvailableBalance(ctx, s.baseCurrency)
	}
	if err != nil {
		return nil, err
	}

	qty, err := s.sizer.Size(inputs)
	if err != nil {
		return nil, err
	}
	if err := s.guard.CheckOrder(ctx, qty); err != nil {
		return nil, err
	}

	orderResp, err := s.exchange.PlaceMarketOrder(ctx, pair, side, qty)
	if err != nil {
		observability.Telemetry().IncCounter(observability.MetricOrdersFailed, 1,
			map[string]string{"action": string(side)})
		return nil, err
	}

	notional := qty.Mul(price)
	observability.Telemetry().IncCounter(observability.MetricOrdersSubmitted, 1,
		map[string]string{"action": string(side)})
	observability.Log().Info("order placed",
		observability.F("side", string(side)),
		observability.F("pair", pair.ProductID()),
		observability.F("qty", qty.String()),
		observability.F("price", price.String()),
		observability.F("notional", notional.StringFixed(2)))

	return map[string]any{
		"status": fmt.Sprintf("%s order placed for %s %s (~$%s)",
			side, qty, currency, notional.StringFixed(2)),
		"order_response": orderResp,
	}, nil
}
