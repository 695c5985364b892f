// Package server exposes the relay's HTTP surface: the trading webhook, the
// balance reports, and the health check.
package server

import (
	"context"
	"net/http"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/coinhook/relay/internal/coinbase"
	"github.com/coinhook/relay/internal/risk"
	"github.com/coinhook/relay/internal/schema"
)

const (
	maxJSONBodyBytes int64 = 1 << 20 // 1 MiB

	webhookPath   = "/webhook"
	balancesPath  = "/balances"
	portfolioPath = "/portfolio"
	healthPath    = "/"
)

// Exchange is the slice of the brokerage client the handlers need.
type Exchange interface {
	SpotPrice(ctx context.Context, pair schema.TradingPair) (decimal.Decimal, error)
	Precision(ctx context.Context, pair schema.TradingPair) (decimal.Decimal, error)
	TradeLimits(ctx context.Context, pair schema.TradingPair) (decimal.Decimal, decimal.Decimal, error)
	AvailableBalance(ctx context.Context, asset string) (decimal.Decimal, error)
	ListAccounts(ctx context.Context) ([]coinbase.Account, error)
	PlaceMarketOrder(ctx context.Context, pair schema.TradingPair, side schema.Side, baseSize decimal.Decimal) (coinbase.OrderResponse, error)
}

type handlerFunc func(http.ResponseWriter, *http.Request)

type server struct {
	baseCurrency string
	exchange     Exchange
	sizer        *risk.Sizer
	guard        *risk.Manager
}

// NewHandler wires the relay's routes onto a mux.
func NewHandler(baseCurrency string, exchange Exchange, sizer *risk.Sizer, guard *risk.Manager) http.Handler {
	s := &server{
		baseCurrency: strings.ToUpper(strings.TrimSpace(baseCurrency)),
		exchange:     exchange,
		sizer:        sizer,
		guard:        guard,
	}

	mux := http.NewServeMux()
	mux.Handle(webhookPath, s.methodHandlers(map[string]handlerFunc{
		http.MethodPost: s.handleWebhook,
	}))
	mux.Handle(balancesPath, s.methodHandlers(map[string]handlerFunc{
		http.MethodGet: s.handleBalances,
	}))
	mux.Handle(portfolioPath, s.methodHandlers(map[string]handlerFunc{
		http.MethodGet: s.handlePortfolio,
	}))
	mux.Handle(healthPath, s.methodHandlers(map[string]handlerFunc{
		http.MethodGet: s.handleHealth,
	}))
	return mux
}

func (s *server) methodHandlers(handlers map[string]handlerFunc) http.Handler {
	allowed := allowedMethods(handlers)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler(w, r)
			return
		}
		methodNotAllowed(w, allowed...)
	})
}

func allowedMethods(handlers map[string]handlerFunc) []string {
	if len(handlers) == 0 {
		return nil
	}
	allowed := make([]string, 0, len(handlers))
	for method := range handlers {
		allowed = append(allowed, method)
	}
	sort.Strings(allowed)
	return allowed
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != healthPath {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Server is running"))
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
