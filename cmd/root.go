package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/wavepeak-cli/internal/cache"
	cfgpkg "github.com/KaramelBytes/wavepeak-cli/internal/config"
	"github.com/KaramelBytes/wavepeak-cli/internal/logging"
	"github.com/KaramelBytes/wavepeak-cli/internal/render"
	"github.com/KaramelBytes/wavepeak-cli/internal/service"
	"github.com/KaramelBytes/wavepeak-cli/internal/source"
)

var (
	cfgFile string
	debug   bool
	noCache bool
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "wavepeak",
	Short: "wavepeak: locate the peak and trough of a COVID-19 wave",
	Long: `wavepeak reads a cumulative confirmed-cases time series (Johns Hopkins CSSE layout),
derives daily new cases, smooths them with a 5-day moving average and reports the
date and size of the wave's highest or lowest point.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.wavepeak/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "bypass the dataset cache")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
	if noCache {
		cfg.CacheBackend = cfgpkg.CacheNone
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	if l, err := logging.NewFromConfig(os.Stderr, level, cfg.LogFormat); err == nil {
		logging.SetGlobal(l)
	}
}

// requireConfig returns the loaded configuration or loads it on demand.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

// newService builds the service with the configured cache backend. The
// returned close func releases the cache store.
func newService(c *cfgpkg.Global) (*service.Service, func(), error) {
	store, err := cache.New(cache.Options{
		Backend:  c.CacheBackend,
		Dir:      c.CacheDir,
		TTL:      c.CacheTTL,
		RedisURL: c.RedisURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}
	svc := service.New(source.Config{
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
	}, store)
	return svc, func() { _ = store.Close() }, nil
}

func renderOptions(c *cfgpkg.Global) render.Options {
	return render.Options{DateLayout: c.DateFormat, LabelLayout: c.LabelDateFormat}
}

// resolveLocation picks the dataset location from --url/--file, falling
// back to the configured dataset_url.
func resolveLocation(c *cfgpkg.Global, url, file string) (string, error) {
	if url != "" && file != "" {
		return "", fmt.Errorf("specify only one of --url or --file")
	}
	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return "", fmt.Errorf("dataset file: %w", err)
		}
		return file, nil
	}
	if url != "" {
		return url, nil
	}
	if c.DatasetURL == "" {
		return "", fmt.Errorf("no dataset: pass --url or --file, or set dataset_url")
	}
	return c.DatasetURL, nil
}
