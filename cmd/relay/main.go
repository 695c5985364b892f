// Command relay launches the webhook trade relay.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/coinhook/relay/config"
	"github.com/coinhook/relay/internal/coinbase"
	"github.com/coinhook/relay/internal/keepalive"
	"github.com/coinhook/relay/internal/observability"
	"github.com/coinhook/relay/internal/risk"
	"github.com/coinhook/relay/internal/server"
	"github.com/coinhook/relay/lib/telemetry"
)

const (
	defaultConfigPath        = "config.yaml"
	relayLoggerPrefix        = "relay "
	shutdownTimeout          = 30 * time.Second
	telemetryShutdownTimeout = 5 * time.Second
	readHeaderTimeout        = 5 * time.Second
	startupProbeTimeout      = 10 * time.Second
)

func main() {
	cfgPath := parseFlags()
	ctx, cancel := newSignalContext()
	defer cancel()

	logger := log.New(os.Stdout, relayLoggerPrefix, log.LstdFlags|log.Lmicroseconds)
	observability.SetLogger(observability.NewStdLogger(os.Stdout, relayLoggerPrefix))

	cfg, loadedFromFile, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if !loadedFromFile {
		logger.Printf("configuration file not found, using defaults")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	logger.Printf("configuration initialised: addr=%s, base=%s", cfg.Server.Addr, cfg.Trading.BaseCurrency)

	telemetryShutdown, err := initTelemetry(ctx, logger, cfg.Telemetry)
	if err != nil {
		logger.Fatalf("initialize telemetry: %v", err)
	}

	client, err := coinbase.NewClient(cfg.Coinbase)
	if err != nil {
		logger.Fatalf("initialise exchange client: %v", err)
	}
	probeExchange(ctx, logger, client)

	policy, err := risk.NewPolicy(cfg.Trading)
	if err != nil {
		logger.Fatalf("initialise sizing policy: %v", err)
	}
	guard, err := risk.NewManager(cfg.Trading)
	if err != nil {
		logger.Fatalf("initialise order guard: %v", err)
	}

	handler := server.NewHandler(cfg.Trading.BaseCurrency, client, risk.NewSizer(policy), guard)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	var lifecycle conc.WaitGroup
	lifecycle.Go(func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("http server: %v", err)
			cancel()
		}
	})
	lifecycle.Go(func() {
		keepalive.New(cfg.KeepAlive).Run(ctx)
	})
	logger.Printf("relay listening on %s", cfg.Server.Addr)

	<-ctx.Done()
	logger.Print("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("http shutdown: %v", err)
	}
	cancel()
	lifecycle.Wait()

	telemetryCtx, telemetryCancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	defer telemetryCancel()
	if err := telemetryShutdown(telemetryCtx); err != nil {
		logger.Printf("telemetry shutdown: %v", err)
	}
	logger.Print("shutdown completed")
}

func parseFlags() string {
	cfgPath := flag.String("config", defaultConfigPath, fmt.Sprintf("Path to configuration file (default: %s)", defaultConfigPath))
	flag.Parse()
	return *cfgPath
}

func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func initTelemetry(ctx context.Context, logger *log.Logger, cfg config.TelemetrySettings) (func(context.Context) error, error) {
	provider, shutdown, err := telemetry.Init(ctx, cfg)
	if err != nil {
		return nil, err
	}
	observability.SetMetrics(telemetry.NewCollector(provider))
	if cfg.OTLPEndpoint != "" {
		logger.Printf("telemetry initialized: endpoint=%s, service=%s", cfg.OTLPEndpoint, cfg.ServiceName)
	} else {
		logger.Printf("telemetry disabled")
	}
	return shutdown, nil
}

// probeExchange confirms the venue is reachable before accepting signals.
// A failed probe is logged rather than fatal; credentials are only
// exercised once the first signal arrives.
func probeExchange(ctx context.Context, logger *log.Logger, client *coinbase.Client) {
	probeCtx, probeCancel := context.WithTimeout(ctx, startupProbeTimeout)
	defer probeCancel()
	if err := client.ServerTime(probeCtx); err != nil {
		logger.Printf("exchange probe failed: %v", err)
		return
	}
	logger.Print("exchange reachable")
}
