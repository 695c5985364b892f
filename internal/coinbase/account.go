package coinbase

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/coinhook/relay/errs"
)

// Money is a currency-tagged decimal amount as the exchange reports it.
type Money struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Account describes one asset held by the authenticated account.
type Account struct {
	Currency         string `json:"currency"`
	AvailableBalance Money  `json:"available_balance"`
}

type accountsResponse struct {
	Accounts []Account `json:"accounts"`
}

// ListAccounts fetches every account the credential can see.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var out accountsResponse
	if err := c.Do(ctx, http.MethodGet, "/api/v3/brokerage/accounts", nil, &out); err != nil {
		return nil, err
	}
	return out.Accounts, nil
}

// AvailableBalance scans the account list for the asset and returns its
// available quantity, or zero when the asset is not held. The scan is O(n)
// over accounts, which is fine at the account counts involved.
func (c *Client) AvailableBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	accounts, err := c.ListAccounts(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	asset = strings.ToUpper(strings.TrimSpace(asset))
	for _, account := range accounts {
		if !strings.EqualFold(account.Currency, asset) {
			continue
		}
		value, err := decimal.NewFromString(strings.TrimSpace(account.AvailableBalance.Value))
		if err != nil {
			return decimal.Zero, errs.New(venue, errs.CodeUpstream,
				errs.WithMessage("malformed balance for "+asset))
		}
		return value, nil
	}
	return decimal.Zero, nil
}
