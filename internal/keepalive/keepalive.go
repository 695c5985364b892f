// Package keepalive periodically pings an external URL so free-tier
// hosting platforms do not idle the process out.
package keepalive

import (
	"context"
	"net/http"
	"time"

	"github.com/coinhook/relay/config"
	"github.com/coinhook/relay/internal/observability"
)

const defaultInterval = 5 * time.Minute

// Pinger issues a GET against a configured URL on a fixed interval.
type Pinger struct {
	url      string
	interval time.Duration
	client   *http.Client
}

// New builds a Pinger from settings. A nil Pinger is returned when no
// URL is configured; Run on a nil Pinger returns immediately.
func New(cfg config.KeepAliveSettings) *Pinger {
	if cfg.URL == "" {
		return nil
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Pinger{
		url:      cfg.URL,
		interval: interval,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Run pings until ctx is cancelled. Failures are logged and the loop
// keeps going; a sleeping host is exactly when errors are expected.
func (p *Pinger) Run(ctx context.Context) {
	if p == nil {
		return
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ping(ctx)
		}
	}
}

func (p *Pinger) ping(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		observability.Log().Error("keepalive request build failed", observability.F("error", err.Error()))
		return
	}
	resp, err := p.client.Do(req)
	if err != nil {
		observability.Log().Error("keepalive ping failed", observability.F("error", err.Error()))
		return
	}
	defer func() { _ = resp.Body.Close() }()
	observability.Log().Debug("keepalive ping", observability.F("status", resp.Status))
}
