// Package config loads application configuration from file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"solana-lp-watch/internal/domain"
	"solana-lp-watch/internal/filter"
)

// Config represents the complete application configuration.
type Config struct {
	Mode     string         `mapstructure:"mode"`
	Solana   SolanaConfig   `mapstructure:"solana"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// SolanaConfig holds RPC and WebSocket endpoints.
type SolanaConfig struct {
	RPCURL  string `mapstructure:"rpc_url"`
	WSURL   string `mapstructure:"ws_url"`
	Program string `mapstructure:"program"`
}

// WatchConfig holds filter thresholds.
type WatchConfig struct {
	MinIgniteSOL           float64       `mapstructure:"min_ignite_sol"`
	NearZeroBaselineSOL    float64       `mapstructure:"near_zero_baseline_sol"`
	HardRejectBaselineSOL  float64       `mapstructure:"hard_reject_baseline_sol"`
	HardRejectPairAge      time.Duration `mapstructure:"hard_reject_pair_age"`
	PreferredPairAge       time.Duration `mapstructure:"preferred_pair_age"`
	HardRejectMarketCapUSD float64       `mapstructure:"hard_reject_market_cap_usd"`
	SignalWindow           time.Duration `mapstructure:"signal_window"`
	RequireMultiSignal     bool          `mapstructure:"require_multi_signal"`
	MinSignalsRequired     int           `mapstructure:"min_signals_required"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	Enabled  bool   `mapstructure:"enabled"`
}

// StorageConfig holds database DSNs. Empty DSNs select in-memory stores.
type StorageConfig struct {
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"`
}

// MetricsConfig holds the Prometheus endpoint configuration.
type MetricsConfig struct {
	Addr    string `mapstructure:"addr"`
	Enabled bool   `mapstructure:"enabled"`
}

// Load reads configuration from an optional file and environment
// variables. A missing file is not an error; env and defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("LPWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", domain.ModeTest)

	v.SetDefault("solana.rpc_url", "https://api.mainnet-beta.solana.com")
	v.SetDefault("solana.ws_url", "wss://api.mainnet-beta.solana.com")
	v.SetDefault("solana.program", "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")

	th := filter.DefaultThresholds()
	v.SetDefault("watch.min_ignite_sol", th.MinIgniteSOL)
	v.SetDefault("watch.near_zero_baseline_sol", th.NearZeroBaselineSOL)
	v.SetDefault("watch.hard_reject_baseline_sol", th.HardRejectBaselineSOL)
	v.SetDefault("watch.hard_reject_pair_age", th.HardRejectPairAge.String())
	v.SetDefault("watch.preferred_pair_age", th.PreferredPairAge.String())
	v.SetDefault("watch.hard_reject_market_cap_usd", th.HardRejectMarketCapUSD)
	v.SetDefault("watch.signal_window", th.SignalWindow.String())
	v.SetDefault("watch.require_multi_signal", th.RequireMultiSignal)
	v.SetDefault("watch.min_signals_required", th.MinSignalsRequired)

	v.SetDefault("telegram.enabled", false)

	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.clickhouse_dsn", "")

	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("metrics.enabled", true)
}

// Validate checks that all configuration values are valid.
func (c *Config) Validate() error {
	if c.Mode != domain.ModeLive && c.Mode != domain.ModeTest {
		return fmt.Errorf("mode must be %s or %s", domain.ModeLive, domain.ModeTest)
	}
	if c.Solana.RPCURL == "" {
		return fmt.Errorf("solana.rpc_url is required")
	}
	if c.Solana.WSURL == "" {
		return fmt.Errorf("solana.ws_url is required")
	}
	if c.Solana.Program == "" {
		return fmt.Errorf("solana.program is required")
	}
	if c.Watch.MinIgniteSOL < 0 {
		return fmt.Errorf("watch.min_ignite_sol must not be negative")
	}
	if c.Watch.HardRejectBaselineSOL < c.Watch.NearZeroBaselineSOL {
		return fmt.Errorf("watch.hard_reject_baseline_sol must be at least watch.near_zero_baseline_sol")
	}
	if c.Watch.SignalWindow < time.Minute {
		return fmt.Errorf("watch.signal_window must be at least 1 minute")
	}
	if c.Watch.MinSignalsRequired < 1 {
		return fmt.Errorf("watch.min_signals_required must be at least 1")
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}

// Thresholds converts the watch section into filter thresholds.
func (c *Config) Thresholds() filter.Thresholds {
	th := filter.DefaultThresholds()
	th.MinIgniteSOL = c.Watch.MinIgniteSOL
	th.NearZeroBaselineSOL = c.Watch.NearZeroBaselineSOL
	th.HardRejectBaselineSOL = c.Watch.HardRejectBaselineSOL
	th.HardRejectPairAge = c.Watch.HardRejectPairAge
	th.PreferredPairAge = c.Watch.PreferredPairAge
	th.HardRejectMarketCapUSD = c.Watch.HardRejectMarketCapUSD
	th.SignalWindow = c.Watch.SignalWindow
	th.RequireMultiSignal = c.Watch.RequireMultiSignal
	th.MinSignalsRequired = c.Watch.MinSignalsRequired
	return th
}
