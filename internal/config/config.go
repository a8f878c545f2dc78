package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Timer   TimerConfig   `mapstructure:"timer" yaml:"timer"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Labels  LabelsConfig  `mapstructure:"labels" yaml:"labels"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Type       string      `mapstructure:"type" yaml:"type"` // bolt, sqlite, redis or memory
	Path       string      `mapstructure:"path" yaml:"path"`
	SQLitePath string      `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	CacheSize  int         `mapstructure:"cache_size" yaml:"cache_size"` // 0 disables the read cache
	Redis      RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	Host         string `mapstructure:"host" yaml:"host"`
	Port         int    `mapstructure:"port" yaml:"port"`
	Password     string `mapstructure:"password" yaml:"password"`
	DB           int    `mapstructure:"db" yaml:"db"`
	PoolSize     int    `mapstructure:"pool_size" yaml:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns" yaml:"min_idle_conns"`
	DialTimeout  string `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout" yaml:"write_timeout"`
	KeyPrefix    string `mapstructure:"key_prefix" yaml:"key_prefix"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // json or text
}

// TimerConfig defines focus timer settings
type TimerConfig struct {
	TickInterval string `mapstructure:"tick_interval" yaml:"tick_interval"`
}

// MetricsConfig defines the exporter served by `habitd serve`
type MetricsConfig struct {
	BindAddress     string `mapstructure:"bind_address" yaml:"bind_address"`
	Port            int    `mapstructure:"port" yaml:"port"`
	RefreshInterval string `mapstructure:"refresh_interval" yaml:"refresh_interval"`
	// PushgatewayURL receives the activity counters of each command on exit.
	PushgatewayURL  string `mapstructure:"pushgateway_url" yaml:"pushgateway_url"`
}

// LabelsConfig overrides the display names of units and frequencies
type LabelsConfig struct {
	Units       map[string]string `mapstructure:"units" yaml:"units"`
	Frequencies map[string]string `mapstructure:"frequencies" yaml:"frequencies"`
}

// Addr returns the metrics listen address.
func (m MetricsConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.BindAddress, m.Port)
}

// TickDuration returns the parsed timer tick interval.
func (t TimerConfig) TickDuration() time.Duration {
	d, _ := time.ParseDuration(t.TickInterval)
	return d
}

// RefreshDuration returns the parsed exporter refresh interval.
func (m MetricsConfig) RefreshDuration() time.Duration {
	d, _ := time.ParseDuration(m.RefreshInterval)
	return d
}

// DefaultPath returns the default configuration file location.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "habitd", "config.yaml")
	}
	return "habitd.yaml"
}

// Load loads configuration from file and environment variables.
// A missing file is not an error; defaults and environment apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("HABITD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal config
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Defaults returns the configuration that applies when neither a file nor
// the environment overrides anything.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// UnknownKeys returns the keys set in the file at configPath that no setting
// reads, sorted. Label maps accept any key; their values are checked by the
// labels table.
func UnknownKeys(configPath string) ([]string, error) {
	file := viper.New()
	file.SetConfigFile(configPath)
	file.SetConfigType("yaml")
	if err := file.ReadInConfig(); err != nil {
		return nil, err
	}

	known := viper.New()
	setDefaults(known)
	valid := make(map[string]bool)
	for _, key := range known.AllKeys() {
		valid[key] = true
	}

	unknown := []string{}
	for _, key := range file.AllKeys() {
		if valid[key] || strings.HasPrefix(key, "labels.units.") || strings.HasPrefix(key, "labels.frequencies.") {
			continue
		}
		unknown = append(unknown, key)
	}
	sort.Strings(unknown)
	return unknown, nil
}

func dataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "habitd")
	}
	return "."
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Storage defaults
	v.SetDefault("storage.type", "bolt")
	v.SetDefault("storage.path", filepath.Join(dataDir(), "habitd.bolt"))
	v.SetDefault("storage.sqlite_path", filepath.Join(dataDir(), "habitd.db"))
	v.SetDefault("storage.cache_size", 128)
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.min_idle_conns", 2)
	v.SetDefault("storage.redis.dial_timeout", "5s")
	v.SetDefault("storage.redis.read_timeout", "3s")
	v.SetDefault("storage.redis.write_timeout", "3s")
	v.SetDefault("storage.redis.key_prefix", "habitd")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Timer defaults
	v.SetDefault("timer.tick_interval", "1s")

	// Metrics defaults
	v.SetDefault("metrics.bind_address", "127.0.0.1")
	v.SetDefault("metrics.port", 9464)
	v.SetDefault("metrics.refresh_interval", "30s")
	v.SetDefault("metrics.pushgateway_url", "")

	// Labels default to the built-in table
	v.SetDefault("labels.units", map[string]string{})
	v.SetDefault("labels.frequencies", map[string]string{})
}

// validate validates the configuration
func validate(cfg *Config) error {
	switch cfg.Storage.Type {
	case "bolt":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path is required")
		}
	case "sqlite":
		if cfg.Storage.SQLitePath == "" {
			return fmt.Errorf("storage sqlite_path is required")
		}
	case "redis":
		if cfg.Storage.Redis.Host == "" {
			return fmt.Errorf("storage redis host is required")
		}
		for name, value := range map[string]string{
			"dial_timeout":  cfg.Storage.Redis.DialTimeout,
			"read_timeout":  cfg.Storage.Redis.ReadTimeout,
			"write_timeout": cfg.Storage.Redis.WriteTimeout,
		} {
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("invalid redis %s %q: %w", name, value, err)
			}
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage type %q (must be bolt, sqlite, redis or memory)", cfg.Storage.Type)
	}

	if cfg.Storage.CacheSize < 0 {
		return fmt.Errorf("invalid cache size: %d", cfg.Storage.CacheSize)
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s (must be json or text)", cfg.Logging.Format)
	}

	if d, err := time.ParseDuration(cfg.Timer.TickInterval); err != nil || d <= 0 {
		return fmt.Errorf("invalid timer tick_interval: %q", cfg.Timer.TickInterval)
	}

	if cfg.Metrics.Port <= 0 || cfg.Metrics.Port > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.Metrics.Port)
	}
	if d, err := time.ParseDuration(cfg.Metrics.RefreshInterval); err != nil || d <= 0 {
		return fmt.Errorf("invalid metrics refresh_interval: %q", cfg.Metrics.RefreshInterval)
	}
	if raw := cfg.Metrics.PushgatewayURL; raw != "" {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid metrics pushgateway_url: %q", raw)
		}
	}

	return nil
}
