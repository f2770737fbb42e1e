package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultDatasetURL is the JHU CSSE global confirmed-cases time series.
const DefaultDatasetURL = "https://raw.githubusercontent.com/CSSEGISandData/COVID-19/master/csse_covid_19_data/csse_covid_19_time_series/time_series_covid19_confirmed_global.csv"

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Global configuration structure.
type Global struct {
	DatasetURL      string `mapstructure:"dataset_url" yaml:"dataset_url"`
	DateFormat      string `mapstructure:"date_format" yaml:"date_format"`
	LabelDateFormat string `mapstructure:"label_date_format" yaml:"label_date_format"`
	ResultsDir      string `mapstructure:"results_dir" yaml:"results_dir"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Dataset cache
	CacheBackend string        `mapstructure:"cache_backend" yaml:"cache_backend"`
	CacheDir     string        `mapstructure:"cache_dir" yaml:"cache_dir"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	RedisURL     string        `mapstructure:"redis_url" yaml:"redis_url"`

	ServerAddr string `mapstructure:"server_addr" yaml:"server_addr"`
	LogLevel   string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat  string `mapstructure:"log_format" yaml:"log_format"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"dataset_url", "date_format", "label_date_format", "results_dir",
	"http_timeout_sec", "retry_max_attempts", "retry_base_delay_ms", "retry_max_delay_ms",
	"cache_backend", "cache_dir", "cache_ttl", "redis_url",
	"server_addr", "log_level", "log_format",
}

func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".wavepeak"), nil
}

// Path returns the config file path: cfgFile, or ~/.wavepeak/config.yaml.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	dir, err := homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.wavepeak/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dataset_url", DefaultDatasetURL)
	v.SetDefault("date_format", "2006-01-02")
	v.SetDefault("label_date_format", "Jan/02/2006")
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	// Cache defaults
	v.SetDefault("cache_backend", CacheFile)
	v.SetDefault("cache_ttl", "6h")
	v.SetDefault("redis_url", "redis://localhost:6379/0")
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "console")
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("WAVEPEAK")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.ResultsDir == "" || c.CacheDir == "" {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		if c.ResultsDir == "" {
			c.ResultsDir = filepath.Join(dir, "results")
		}
		if c.CacheDir == "" {
			c.CacheDir = filepath.Join(dir, "cache")
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks value ranges and enumerations.
func (c *Global) Validate() error {
	switch c.CacheBackend {
	case CacheNone, CacheFile, CacheRedis:
	default:
		return fmt.Errorf("invalid cache_backend: %q (use none|file|redis)", c.CacheBackend)
	}
	if c.CacheBackend == CacheRedis && c.RedisURL == "" {
		return fmt.Errorf("redis_url is required when cache_backend is redis")
	}
	if c.HTTPTimeoutSec <= 0 {
		return fmt.Errorf("http_timeout_sec must be positive, got %d", c.HTTPTimeoutSec)
	}
	if c.RetryMaxAttempts < 0 || c.RetryBaseDelayMs < 0 || c.RetryMaxDelayMs < 0 {
		return fmt.Errorf("retry settings must not be negative")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative")
	}
	if strings.TrimSpace(c.DateFormat) == "" || strings.TrimSpace(c.LabelDateFormat) == "" {
		return fmt.Errorf("date_format and label_date_format must be set")
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "pretty", "json", "":
	default:
		return fmt.Errorf("invalid log_format: %q (use console|json)", c.LogFormat)
	}
	return nil
}

// Get returns the string form of key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "dataset_url":
		return c.DatasetURL, nil
	case "date_format":
		return c.DateFormat, nil
	case "label_date_format":
		return c.LabelDateFormat, nil
	case "results_dir":
		return c.ResultsDir, nil
	case "http_timeout_sec":
		return fmt.Sprint(c.HTTPTimeoutSec), nil
	case "retry_max_attempts":
		return fmt.Sprint(c.RetryMaxAttempts), nil
	case "retry_base_delay_ms":
		return fmt.Sprint(c.RetryBaseDelayMs), nil
	case "retry_max_delay_ms":
		return fmt.Sprint(c.RetryMaxDelayMs), nil
	case "cache_backend":
		return c.CacheBackend, nil
	case "cache_dir":
		return c.CacheDir, nil
	case "cache_ttl":
		return c.CacheTTL.String(), nil
	case "redis_url":
		return c.RedisURL, nil
	case "server_addr":
		return c.ServerAddr, nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// Set assigns key from its string form and re-validates.
func (c *Global) Set(key, value string) error {
	next := *c
	var err error
	switch key {
	case "dataset_url":
		next.DatasetURL = value
	case "date_format":
		next.DateFormat = value
	case "label_date_format":
		next.LabelDateFormat = value
	case "results_dir":
		next.ResultsDir = value
	case "http_timeout_sec":
		next.HTTPTimeoutSec, err = atoi(key, value)
	case "retry_max_attempts":
		next.RetryMaxAttempts, err = atoi(key, value)
	case "retry_base_delay_ms":
		next.RetryBaseDelayMs, err = atoi(key, value)
	case "retry_max_delay_ms":
		next.RetryMaxDelayMs, err = atoi(key, value)
	case "cache_backend":
		next.CacheBackend = strings.ToLower(value)
	case "cache_dir":
		next.CacheDir = value
	case "cache_ttl":
		next.CacheTTL, err = time.ParseDuration(value)
		if err != nil {
			err = fmt.Errorf("invalid %s: %w", key, err)
		}
	case "redis_url":
		next.RedisURL = value
	case "server_addr":
		next.ServerAddr = value
	case "log_level":
		next.LogLevel = value
	case "log_format":
		next.LogFormat = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func atoi(key, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not an integer", key, value)
	}
	return n, nil
}
