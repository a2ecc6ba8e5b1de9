package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration loaded at startup. It is treated
// as immutable after Load returns; the orchestrator receives the Sync section
// by value at cycle start rather than reading ambient globals.
type Config struct {
	Remote RemoteConfig `mapstructure:"remote"`
	Store  StoreConfig  `mapstructure:"store"`
	Wallet WalletConfig `mapstructure:"wallet"`
	Daemon DaemonConfig `mapstructure:"daemon"`
	Sync   SyncOptions  `mapstructure:"sync"`
}

// RemoteConfig holds the budgeting-service credentials and endpoint.
type RemoteConfig struct {
	// Token is the bearer token for the remote ledger API. An empty token is
	// not a configuration error: a sync cycle treats it as "nothing to do".
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
}

// StoreConfig locates the local record store.
type StoreConfig struct {
	Path string `mapstructure:"path"`
	// RetentionDays bounds how long Complete/Never transactions are kept
	// before the purge command removes them. Zero disables purging.
	RetentionDays int `mapstructure:"retention_days"`
}

// WalletConfig configures the local wallet feed.
type WalletConfig struct {
	// FixturePath points the simulated feed at a YAML fixture; empty means
	// the platform feed (not available in this build) would be used.
	FixturePath string `mapstructure:"fixture_path"`
	// WindowDays is the half-width of the fetch window around today.
	WindowDays int `mapstructure:"window_days"`
}

// DaemonConfig configures the long-running trigger surface.
type DaemonConfig struct {
	Port            int `mapstructure:"port"`
	IntervalMinutes int `mapstructure:"interval_minutes"`
}

// SyncOptions are the per-cycle feature toggles, passed explicitly into the
// orchestrator instead of being read from shared mutable defaults.
type SyncOptions struct {
	ImportAsCleared    bool `mapstructure:"import_as_cleared"`
	PutStatusInNotes   bool `mapstructure:"put_status_in_notes"`
	CategorizeIncoming bool `mapstructure:"categorize_incoming"`
	AlertAfterImport   bool `mapstructure:"alert_after_import"`
	AutoImport         bool `mapstructure:"auto_import"`
	ApplyRules         bool `mapstructure:"apply_rules"`
	SkipDuplicates     bool `mapstructure:"skip_duplicates"`
	CheckForRecurring  bool `mapstructure:"check_for_recurring"`
	SkipBalanceUpdate  bool `mapstructure:"skip_balance_update"`
}

// Load reads the configuration file at path and applies WALLETSYNC_* env
// overrides. Missing optional values fall back to defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("remote.base_url", "https://dev.lunchmoney.app/v1")
	v.SetDefault("store.path", "walletsync.db")
	v.SetDefault("store.retention_days", 0)
	v.SetDefault("wallet.window_days", 30)
	v.SetDefault("daemon.port", 8480)
	v.SetDefault("daemon.interval_minutes", 60)
	v.SetDefault("sync.categorize_incoming", true)
	v.SetDefault("sync.skip_duplicates", true)

	v.SetEnvPrefix("WALLETSYNC")
	v.AutomaticEnv()
	// Env names use underscores in place of dots, e.g. WALLETSYNC_REMOTE_TOKEN.
	_ = v.BindEnv("remote.token", "WALLETSYNC_REMOTE_TOKEN")
	_ = v.BindEnv("remote.base_url", "WALLETSYNC_REMOTE_BASE_URL")
	_ = v.BindEnv("store.path", "WALLETSYNC_STORE_PATH")
	_ = v.BindEnv("wallet.fixture_path", "WALLETSYNC_WALLET_FIXTURE_PATH")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return cfg, nil
}
