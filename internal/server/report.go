package server

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/coinhook/relay/errs"
	"github.com/coinhook/relay/internal/coinbase"
	"github.com/coinhook/relay/internal/schema"
)

type holding struct {
	currency string
	balance  decimal.Decimal
	raw      string
	usd      decimal.Decimal
}

// positiveHoldings values every positively held asset against the base
// currency. Price lookups that fail value the asset at zero rather than
// failing the whole report.
func (s *server) positiveHoldings(r *http.Request, accounts []coinbase.Account) []holding {
	var holdings []holding
	for _, account := range accounts {
		balance, err := decimal.NewFromString(strings.TrimSpace(account.AvailableBalance.Value))
		if err != nil || !balance.IsPositive() {
			continue
		}
		price := decimal.Zero
		if strings.EqualFold(account.Currency, s.baseCurrency) {
			price = decimal.NewFromInt(1)
		} else if p, err := s.exchange.SpotPrice(r.Context(), schema.NewTradingPair(account.Currency, s.baseCurrency)); err == nil {
			price = p
		}
		holdings = append(holdings, holding{
			currency: strings.ToUpper(account.Currency),
			balance:  balance,
			raw:      account.AvailableBalance.Value,
			usd:      balance.Mul(price),
		})
	}
	return holdings
}

func (s *server) handleBalances(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.exchange.ListAccounts(r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, errs.UserMessage(err))
		return
	}

	lines := make([]string, 0)
	for _, h := range s.positiveHoldings(r, accounts) {
		lines = append(lines, fmt.Sprintf("%-6s ~$%s (%s %s)", h.currency, h.usd.StringFixed(2), h.raw, h.currency))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(strings.Join(lines, "\n")))
}

func (s *server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.exchange.ListAccounts(r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, errs.UserMessage(err))
		return
	}

	holdings := s.positiveHoldings(r, accounts)
	sort.Slice(holdings, func(i, j int) bool {
		return holdings[i].usd.GreaterThan(holdings[j].usd)
	})

	total := decimal.Zero
	positions := make([]map[string]string, 0, len(holdings))
	for _, h := range holdings {
		total = total.Add(h.usd)
		positions = append(positions, map[string]string{
			"currency":  h.currency,
			"balance":   h.balance.String(),
			"usd_value": h.usd.StringFixed(2),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"positions": positions,
		"total_usd": total.StringFixed(2),
	})
}
