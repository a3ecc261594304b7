// Package config loads and validates ingest configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Pacing  PacingConfig  `mapstructure:"pacing"`
	Proxy   ProxyConfig   `mapstructure:"proxy"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// HTTPConfig configures the fetch client.
type HTTPConfig struct {
	BaseURL        string            `mapstructure:"base_url"`
	Headers        map[string]string `mapstructure:"headers"`
	TimeoutSeconds int               `mapstructure:"timeout_seconds"`
	MaxRetries     int               `mapstructure:"max_retries"`
}

// PacingConfig bounds the politeness sleep between catalog leaves.
type PacingConfig struct {
	SleepSecondsMin float64 `mapstructure:"sleep_seconds_min"`
	SleepSecondsMax float64 `mapstructure:"sleep_seconds_max"`
}

// ProxyConfig routes requests through a forward proxy. All four credential
// fields must be present for the proxy to be used at all; with a partial
// set the fetch client runs direct and says so in its logs.
type ProxyConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Country  string `mapstructure:"country"`
}

// Complete reports whether every credential component is present.
func (p ProxyConfig) Complete() bool {
	return p.Host != "" && p.Port > 0 && p.User != "" && p.Password != ""
}

// Empty reports whether no proxy was configured at all.
func (p ProxyConfig) Empty() bool {
	return p.Host == "" && p.Port == 0 && p.User == "" && p.Password == ""
}

// StorageConfig names the backend, bucket, and key layout for all sinks.
// Provider selects the object store implementation: "s3" for production,
// "local" for filesystem-backed development runs (BaseDir required).
type StorageConfig struct {
	Provider  string `mapstructure:"provider"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Env       string `mapstructure:"env"`
	StoreName string `mapstructure:"store_name"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	PathStyle bool   `mapstructure:"path_style"`
	BaseDir   string `mapstructure:"base_dir"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment. Environment variables use the
// ODDS_ prefix with underscores (ODDS_STORAGE_BUCKET and so on), matching
// the Lambda deployment contract.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ODDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("pacing.sleep_seconds_min", 3)
	v.SetDefault("pacing.sleep_seconds_max", 10)
	v.SetDefault("proxy.country", "us")
	v.SetDefault("storage.provider", "s3")
	v.SetDefault("storage.env", "dev")
	v.SetDefault("storage.store_name", "odds")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	switch c.Storage.Provider {
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required")
		}
	case "local":
		if c.Storage.BaseDir == "" {
			return fmt.Errorf("storage.base_dir is required for the local provider")
		}
	default:
		return fmt.Errorf("storage.provider must be s3 or local, got %q", c.Storage.Provider)
	}
	if c.Storage.Env == "" {
		return fmt.Errorf("storage.env is required")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.Pacing.SleepSecondsMin < 0 || c.Pacing.SleepSecondsMax < c.Pacing.SleepSecondsMin {
		return fmt.Errorf("pacing window must satisfy 0 <= min <= max")
	}
	return nil
}

// Timeout converts the HTTP timeout into a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// PaceWindow converts the pacing bounds into durations.
func (c Config) PaceWindow() (time.Duration, time.Duration) {
	toDur := func(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }
	return toDur(c.Pacing.SleepSecondsMin), toDur(c.Pacing.SleepSecondsMax)
}
