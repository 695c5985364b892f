// Package config centralises runtime configuration for the relay.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Credentials captures the API key material used for signed requests.
type Credentials struct {
	// APIKey is the Coinbase CDP key name, used as both the JWT subject
	// and the kid header.
	APIKey string `yaml:"api_key"`
	// APISecret is the PEM-encoded EC private key that signs each token.
	APISecret string `yaml:"api_secret"`
}

// CoinbaseSettings aggregates transport and credential configuration.
type CoinbaseSettings struct {
	BaseURL           string        `yaml:"base_url"`
	Credentials       Credentials   `yaml:"credentials"`
	HTTPTimeout       time.Duration `yaml:"http_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// TradingSettings holds the sizing controls applied to every signal.
type TradingSettings struct {
	// BaseCurrency is the quote asset every pair is priced against.
	BaseCurrency string `yaml:"base_currency"`
	// SellPercentage is the percentage of the asset balance sold per SELL signal.
	SellPercentage int `yaml:"sell_percentage"`
	// ReserveBuffer is the percentage of quote balance held back from BUYs.
	ReserveBuffer int `yaml:"reserve_buffer"`
	// CryptoCount divides the spendable quote balance across assets.
	CryptoCount int `yaml:"crypto_count"`
	// OrderThrottle is the maximum rate of order submissions per second;
	// zero disables the throttle.
	OrderThrottle float64 `yaml:"order_throttle"`
	// MaxOrderSize caps a single order's base quantity; empty disables the cap.
	MaxOrderSize string `yaml:"max_order_size"`
}

// ServerSettings configures the inbound HTTP listener.
type ServerSettings struct {
	Addr string `yaml:"addr"`
}

// KeepAliveSettings configures the background ping task.
type KeepAliveSettings struct {
	URL      string        `yaml:"url"`
	Interval time.Duration `yaml:"interval"`
}

// TelemetrySettings configures the OTLP metric exporter.
type TelemetrySettings struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

// Settings contains the full relay configuration tree. It is built once at
// startup and passed by value; nothing mutates it afterwards.
type Settings struct {
	Server    ServerSettings    `yaml:"server"`
	Coinbase  CoinbaseSettings  `yaml:"coinbase"`
	Trading   TradingSettings   `yaml:"trading"`
	KeepAlive KeepAliveSettings `yaml:"keepalive"`
	Telemetry TelemetrySettings `yaml:"telemetry"`
}

// Default returns the relay's default configuration.
func Default() Settings {
	return Settings{
		Server: ServerSettings{Addr: ":80"},
		Coinbase: CoinbaseSettings{
			BaseURL:           "https://api.coinbase.com",
			HTTPTimeout:       10 * time.Second,
			RequestsPerSecond: 5,
		},
		Trading: TradingSettings{
			BaseCurrency:   "USDC",
			SellPercentage: 10,
			ReserveBuffer:  50,
			CryptoCount:    1,
			OrderThrottle:  0,
		},
		KeepAlive: KeepAliveSettings{Interval: 5 * time.Minute},
		Telemetry: TelemetrySettings{ServiceName: "trade-relay"},
	}
}

// Load builds Settings from defaults, overlays the YAML file at path when it
// exists, then applies environment overrides. The second return reports
// whether a file was read.
func Load(path string) (Settings, bool, error) {
	cfg := Default()
	loaded := false
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Settings{}, false, fmt.Errorf("parse config %s: %w", path, err)
			}
			loaded = true
		case os.IsNotExist(err):
			// fall through to defaults
		default:
			return Settings{}, false, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg = fromEnv(cfg)
	return cfg, loaded, nil
}

func fromEnv(cfg Settings) Settings {
	if v := strings.TrimSpace(os.Getenv("RELAY_ADDR")); v != "" {
		cfg.Server.Addr = v
	} else if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		cfg.Server.Addr = ":" + v
	}
	if v := strings.TrimSpace(os.Getenv("COINBASE_BASE_URL")); v != "" {
		cfg.Coinbase.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("COINBASE_API_KEY")); v != "" {
		cfg.Coinbase.Credentials.APIKey = v
	}
	if v := os.Getenv("COINBASE_API_SECRET"); strings.TrimSpace(v) != "" {
		cfg.Coinbase.Credentials.APISecret = v
	}
	if v := strings.TrimSpace(os.Getenv("COINBASE_HTTP_TIMEOUT")); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			cfg.Coinbase.HTTPTimeout = dur
		}
	}
	if v := strings.TrimSpace(os.Getenv("RELAY_BASE_CURRENCY")); v != "" {
		cfg.Trading.BaseCurrency = strings.ToUpper(v)
	}
	if v := strings.TrimSpace(os.Getenv("RELAY_KEEPALIVE_URL")); v != "" {
		cfg.KeepAlive.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("RELAY_OTLP_ENDPOINT")); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	return cfg
}

// Validate reports the first configuration problem that would prevent the
// relay from operating.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Coinbase.Credentials.APIKey) == "" {
		return fmt.Errorf("coinbase api_key is required")
	}
	if strings.TrimSpace(s.Coinbase.Credentials.APISecret) == "" {
		return fmt.Errorf("coinbase api_secret is required")
	}
	if strings.TrimSpace(s.Coinbase.BaseURL) == "" {
		return fmt.Errorf("coinbase base_url is required")
	}
	if strings.TrimSpace(s.Trading.BaseCurrency) == "" {
		return fmt.Errorf("trading base_currency is required")
	}
	if s.Trading.SellPercentage <= 0 || s.Trading.SellPercentage > 100 {
		return fmt.Errorf("trading sell_percentage must be in (0, 100], got %d", s.Trading.SellPercentage)
	}
	if s.Trading.ReserveBuffer < 0 || s.Trading.ReserveBuffer >= 100 {
		return fmt.Errorf("trading reserve_buffer must be in [0, 100), got %d", s.Trading.ReserveBuffer)
	}
	if s.Trading.CryptoCount < 1 {
		return fmt.Errorf("trading crypto_count must be at least 1, got %d", s.Trading.CryptoCount)
	}
	if s.KeepAlive.Interval <= 0 {
		return fmt.Errorf("keepalive interval must be positive")
	}
	return nil
}
