// Package config loads client configuration from defaults, an optional
// YAML file, an optional .env file and GUARDIAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environments
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Storage drivers for the persistent key-value store
const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
)

const (
	envPrefix        = "GUARDIAN"
	defaultDataDir   = ".guardian"
	defaultLocalURL  = "http://localhost:8080"
	defaultLogLevel  = "info"
	defaultDeviceKey = "guardian-local-device"
)

// ErrMissingAPIBaseURL is returned when a production build has no backend URL
var ErrMissingAPIBaseURL = errors.New("api_base_url is required in prod")

// Config is the full client configuration.
type Config struct {
	Env           string         `mapstructure:"app_env"`
	APIBaseURL    string         `mapstructure:"api_base_url"`
	LogLevel      string         `mapstructure:"log_level"`
	LogFile       string         `mapstructure:"log_file"`
	DataDir       string         `mapstructure:"data_dir"`
	StorageDriver string         `mapstructure:"storage_driver"`
	DeviceSecret  string         `mapstructure:"device_secret"`
	Queue         QueueConfig    `mapstructure:"queue"`
	Location      LocationConfig `mapstructure:"location"`
	Alert         AlertConfig    `mapstructure:"alert"`
	Netmon        NetmonConfig   `mapstructure:"netmon"`
	Cache         CacheConfig    `mapstructure:"cache"`
	HTTPTimeout   time.Duration  `mapstructure:"http_timeout"`
}

// QueueConfig configures the durable operation queue.
type QueueConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	DrainDelay time.Duration `mapstructure:"drain_delay"`
}

// LocationConfig configures location capture and upload.
type LocationConfig struct {
	Throttle      time.Duration `mapstructure:"throttle"`
	StartDelay    time.Duration `mapstructure:"start_delay"`
	FixTimeout    time.Duration `mapstructure:"fix_timeout"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	WatchInterval time.Duration `mapstructure:"watch_interval"`
	MaxSampleAge  time.Duration `mapstructure:"max_sample_age"`
	BatchSize     int           `mapstructure:"batch_size"`
	MinDistanceM  float64       `mapstructure:"min_distance_m"`
}

// AlertConfig configures the alert cascade.
type AlertConfig struct {
	ContactDelay time.Duration `mapstructure:"contact_delay"`
}

// NetmonConfig configures connectivity probing.
type NetmonConfig struct {
	ProbeInterval time.Duration `mapstructure:"probe_interval"`
}

// CacheConfig holds per-entity staleness tolerances.
type CacheConfig struct {
	MaxAge MaxAgeConfig `mapstructure:"max_age"`
}

// MaxAgeConfig is the staleness tolerance of each cached entity.
type MaxAgeConfig struct {
	Contacts time.Duration `mapstructure:"contacts"`
	Profile  time.Duration `mapstructure:"profile"`
	Medical  time.Duration `mapstructure:"medical"`
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("app_env", EnvLocal)
	v.SetDefault("api_base_url", "")
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("log_file", "")
	v.SetDefault("data_dir", filepath.Join(home, defaultDataDir))
	v.SetDefault("storage_driver", DriverBolt)
	v.SetDefault("device_secret", defaultDeviceKey)
	v.SetDefault("http_timeout", 30*time.Second)

	v.SetDefault("queue.max_retries", 3)
	v.SetDefault("queue.drain_delay", 500*time.Millisecond)

	v.SetDefault("location.throttle", 3*time.Second)
	v.SetDefault("location.start_delay", 3*time.Second)
	v.SetDefault("location.fix_timeout", 3*time.Second)
	v.SetDefault("location.retry_delay", 2*time.Second)
	v.SetDefault("location.watch_interval", 10*time.Second)
	v.SetDefault("location.max_sample_age", 24*time.Hour)
	v.SetDefault("location.batch_size", 50)
	v.SetDefault("location.min_distance_m", 10.0)

	v.SetDefault("alert.contact_delay", 2*time.Second)
	v.SetDefault("netmon.probe_interval", 15*time.Second)

	v.SetDefault("cache.max_age.contacts", 24*time.Hour)
	v.SetDefault("cache.max_age.profile", 7*24*time.Hour)
	v.SetDefault("cache.max_age.medical", 7*24*time.Hour)
}

// Load builds the configuration. configPath may be empty; a missing file is
// not an error. envFile is loaded into the process environment when present.
func Load(configPath, envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("load env file: %w", err)
			}
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	v := viper.New()
	setDefaults(v, home)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.APIBaseURL == "" && cfg.Env != EnvProd {
		cfg.APIBaseURL = defaultLocalURL
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for fatal problems.
func (c *Config) Validate() error {
	if c.IsProd() && c.APIBaseURL == "" {
		return ErrMissingAPIBaseURL
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}
	if c.StorageDriver != DriverBolt && c.StorageDriver != DriverSQLite {
		return fmt.Errorf("storage_driver must be %q or %q, got %q", DriverBolt, DriverSQLite, c.StorageDriver)
	}
	if c.IsProd() && c.DeviceSecret == defaultDeviceKey {
		return fmt.Errorf("device_secret must be set in prod")
	}
	if c.DeviceSecret == "" {
		return fmt.Errorf("device_secret cannot be empty")
	}
	if c.Queue.MaxRetries < 1 {
		return fmt.Errorf("queue.max_retries must be at least 1")
	}
	if c.Location.BatchSize < 1 {
		return fmt.Errorf("location.batch_size must be at least 1")
	}
	if c.Queue.DrainDelay < 0 || c.Location.Throttle < 0 || c.Alert.ContactDelay < 0 {
		return fmt.Errorf("delays cannot be negative")
	}
	return nil
}

// IsProd reports whether this is a production build.
func (c *Config) IsProd() bool {
	return c.Env == EnvProd
}

// BoltPath is the bbolt database file.
func (c *Config) BoltPath() string {
	return filepath.Join(c.DataDir, "guardian.db")
}

// SQLitePath is the sqlite database file (KV backend and alert audit log).
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "guardian.sqlite")
}
