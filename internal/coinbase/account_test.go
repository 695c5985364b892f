package coinbase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/coinhook/relay/errs"
)

func accountsServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/brokerage/accounts" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAvailableBalanceScansAccounts(t *testing.T) {
	srv := accountsServer(t, `{"accounts":[
		{"currency":"USDC","available_balance":{"value":"1500.25","currency":"USDC"}},
		{"currency":"BTC","available_balance":{"value":"0.5","currency":"BTC"}}
	]}`)
	client, _ := newTestClient(t, srv.URL)

	balance, err := client.AvailableBalance(context.Background(), "btc")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("unexpected balance %s", balance)
	}
}

func TestAvailableBalanceMissingAssetIsZero(t *testing.T) {
	srv := accountsServer(t, `{"accounts":[
		{"currency":"USDC","available_balance":{"value":"1500.25","currency":"USDC"}}
	]}`)
	client, _ := newTestClient(t, srv.URL)

	balance, err := client.AvailableBalance(context.Background(), "ETH")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("expected zero for unheld asset, got %s", balance)
	}
}

func TestAvailableBalanceMalformedValue(t *testing.T) {
	srv := accountsServer(t, `{"accounts":[
		{"currency":"BTC","available_balance":{"value":"??","currency":"BTC"}}
	]}`)
	client, _ := newTestClient(t, srv.URL)

	_, err := client.AvailableBalance(context.Background(), "BTC")
	if errs.CodeOf(err) != errs.CodeUpstream {
		t.Fatalf("expected upstream error for malformed balance, got %v", err)
	}
}

func TestListAccounts(t *testing.T) {
	srv := accountsServer(t, `{"accounts":[
		{"currency":"USDC","available_balance":{"value":"10","currency":"USDC"}},
		{"currency":"ETH","available_balance":{"value":"2","currency":"ETH"}}
	]}`)
	client, _ := newTestClient(t, srv.URL)

	accounts, err := client.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 2 || accounts[1].Currency != "ETH" {
		t.Fatalf("unexpected accounts %+v", accounts)
	}
}
