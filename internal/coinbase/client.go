// Package coinbase implements the signed REST surface of the Coinbase
// brokerage API used by the relay: spot prices, the product catalog,
// account balances, and market order placement.
package coinbase

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/coinhook/relay/config"
	"github.com/coinhook/relay/errs"
)

const (
	venue = "coinbase"

	// maxDiagnosticBody bounds how much of an error response is kept as
	// diagnostic text.
	maxDiagnosticBody int64 = 4 << 10
)

// Client issues individually signed HTTP requests against the brokerage API.
// Every authenticated call carries a fresh short-lived bearer credential; no
// request is ever retried.
type Client struct {
	baseURL    string
	host       string
	http       *http.Client
	apiKey     string
	privateKey *ecdsa.PrivateKey
	limiter    *rate.Limiter
	now        func() time.Time
}

// NewClient constructs a client from settings, parsing the PEM credential
// once up front so signing failures surface at startup rather than on the
// first trade.
func NewClient(cfg config.CoinbaseSettings) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	parsed, err := url.Parse(base)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("coinbase base URL %q is not a valid URL", cfg.BaseURL)
	}

	key, err := parsePrivateKey(cfg.Credentials.APISecret)
	if err != nil {
		return nil, err
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		if n := int(cfg.RequestsPerSecond); n > burst {
			burst = n
		}
	}

	client := new(http.Client)
	client.Timeout = timeout
	return &Client{
		baseURL:    base,
		host:       parsed.Host,
		http:       client,
		apiKey:     cfg.Credentials.APIKey,
		privateKey: key,
		limiter:    rate.NewLimiter(limit, burst),
		now:        time.Now,
	}, nil
}

// Do signs and sends a single request, decoding the JSON response into out
// when out is non-nil. Non-success statuses become upstream errors carrying
// the raw response body.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errs.New(venue, errs.CodeNetwork, errs.WithMessage("request throttled"), errs.WithCause(err))
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	token, err := c.bearerToken(method, path)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.New(venue, errs.CodeNetwork,
			errs.WithMessage(fmt.Sprintf("%s %s failed", method, path)),
			errs.WithCause(err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxDiagnosticBody))
		return errs.New(venue, errs.CodeUpstream,
			errs.WithHTTP(resp.StatusCode),
			errs.WithMessage(fmt.Sprintf("%s %s returned status %d", method, path, resp.StatusCode)),
			errs.WithRawBody(string(raw)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errs.New(venue, errs.CodeUpstream,
				errs.WithMessage(fmt.Sprintf("decode %s %s response", method, path)),
				errs.WithCause(err))
		}
	}
	return nil
}

// ServerTime probes the public time endpoint without credentials. Used as a
// startup connectivity check.
func (c *Client) ServerTime(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/time", nil)
	if err != nil {
		return fmt.Errorf("create time request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errs.New(venue, errs.CodeNetwork, errs.WithMessage("time probe failed"), errs.WithCause(err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxDiagnosticBody))
		return errs.New(venue, errs.CodeUpstream,
			errs.WithHTTP(resp.StatusCode),
			errs.WithMessage("time probe rejected"),
			errs.WithRawBody(string(raw)))
	}
	return nil
}
