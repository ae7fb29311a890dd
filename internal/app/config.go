package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"aggsnap/internal/provider"
	"aggsnap/internal/saver"
	"aggsnap/internal/tickers"
)

// Provider names accepted by Config.Provider.
const (
	ProviderMassive = "massive"
	ProviderHTTP    = "http"
)

// Schedule modes.
const (
	ScheduleOnce  = "once"
	ScheduleDaily = "daily"
)

// Config holds application configuration. Sources are layered, later wins:
// defaults, YAML file, environment (including .env), command-line flags.
type Config struct {
	Provider      string        `yaml:"provider"` // massive | http
	APIKey        string        `yaml:"api_key"`
	BaseURL       string        `yaml:"base_url"` // empty keeps the provider default
	MaxRetries    int           `yaml:"max_retries"`
	Tickers       []string      `yaml:"tickers"`
	TickersFile   string        `yaml:"tickers_file"`
	From          string        `yaml:"from"` // YYYY-MM-DD, inclusive
	To            string        `yaml:"to"`   // YYYY-MM-DD, inclusive; also the as-of date
	Multiplier    int           `yaml:"multiplier"`
	Timespan      string        `yaml:"timespan"`
	DataDir       string        `yaml:"data_dir"`
	RawFormat     string        `yaml:"raw_format"` // empty disables the raw archive
	LogFile       string        `yaml:"log_file"`
	LogLevel      string        `yaml:"log_level"` // debug | info | warn | error
	FailFast      bool          `yaml:"fail_fast"`
	TickerTimeout time.Duration `yaml:"ticker_timeout"`
	Schedule      string        `yaml:"schedule"` // once | daily
	RunHour       int           `yaml:"run_hour"` // UTC
	RunMinute     int           `yaml:"run_minute"`

	// raw POLYGON_TICKERS, parsed in Resolve unless --tickers replaced it
	envTickers string
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:   ProviderMassive,
		MaxRetries: 10,
		From:       "2025-01-01",
		To:         "2025-03-31",
		Multiplier: 1,
		Timespan:   "day",
		DataDir:    "data",
		LogFile:    filepath.Join("tmp", "logging.log"),
		LogLevel:   "info",
		Schedule:   ScheduleOnce,
		RunMinute:  30,
	}
}

// LoadConfig reads defaults, then the YAML file at path (skipped when empty),
// then .env and the environment.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	LoadDotenv()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Provider = getEnv("PROVIDER", c.Provider)
	c.APIKey = getEnv("POLYGON_API_KEY", c.APIKey)
	c.BaseURL = getEnv("POLYGON_BASE_URL", c.BaseURL)
	c.TickersFile = getEnv("TICKERS_FILE", c.TickersFile)
	c.From = getEnv("FROM_DATE", c.From)
	c.To = getEnv("TO_DATE", c.To)
	c.Timespan = getEnv("TIMESPAN", c.Timespan)
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.RawFormat = getEnv("RAW_FORMAT", c.RawFormat)
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Schedule = getEnv("SCHEDULE", c.Schedule)

	c.envTickers = os.Getenv("POLYGON_TICKERS")

	var errs []error
	intEnv := func(key string, dst *int) {
		if s := os.Getenv(key); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = v
		}
	}
	intEnv("MULTIPLIER", &c.Multiplier)
	intEnv("MAX_RETRIES", &c.MaxRetries)
	intEnv("RUN_HOUR", &c.RunHour)
	intEnv("RUN_MINUTE", &c.RunMinute)

	if s := os.Getenv("FAIL_FAST"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("FAIL_FAST: %w", err))
		} else {
			c.FailFast = v
		}
	}
	if s := os.Getenv("TICKER_TIMEOUT"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("TICKER_TIMEOUT: %w", err))
		} else {
			c.TickerTimeout = d
		}
	}
	return errors.Join(errs...)
}

// Overrides are command-line values. Nil or empty fields leave the config as is.
type Overrides struct {
	Tickers  string // JSON array
	APIKey   string
	From     string
	To       string
	DataDir  string
	LogFile  string
	FailFast *bool
}

// ApplyOverrides layers command-line values on top of the loaded config.
func (c *Config) ApplyOverrides(o Overrides) error {
	if o.Tickers != "" {
		list, err := tickers.Parse(o.Tickers)
		if err != nil {
			return fmt.Errorf("--tickers: %w", err)
		}
		c.Tickers = list
		c.envTickers = ""
	}
	if o.APIKey != "" {
		c.APIKey = o.APIKey
	}
	if o.From != "" {
		c.From = o.From
	}
	if o.To != "" {
		c.To = o.To
	}
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.LogFile != "" {
		c.LogFile = o.LogFile
	}
	if o.FailFast != nil {
		c.FailFast = *o.FailFast
	}
	return nil
}

// Resolve parses POLYGON_TICKERS (unless a flag overrode it), loads TickersFile
// when no tickers were given inline, then validates.
func (c *Config) Resolve() error {
	if c.envTickers != "" {
		list, err := tickers.Parse(c.envTickers)
		if err != nil {
			return fmt.Errorf("POLYGON_TICKERS: %w", err)
		}
		c.Tickers = list
		c.envTickers = ""
	}
	if len(c.Tickers) == 0 && c.TickersFile != "" {
		list, err := tickers.LoadFile(c.TickersFile)
		if err != nil {
			return err
		}
		c.Tickers = list
	}
	c.Tickers = tickers.Normalize(c.Tickers)
	return c.Validate()
}

// Validate checks that the config can drive a run.
func (c *Config) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, errors.New("api key not set (POLYGON_API_KEY or --api-key)"))
	}
	if len(c.Tickers) == 0 {
		errs = append(errs, errors.New("no tickers (POLYGON_TICKERS, --tickers or tickers_file)"))
	}
	for _, t := range c.Tickers {
		if err := tickers.Check(t); err != nil {
			errs = append(errs, err)
		}
	}
	switch strings.ToLower(c.Provider) {
	case ProviderMassive, ProviderHTTP:
	default:
		errs = append(errs, fmt.Errorf("unsupported provider %q (use %s or %s)", c.Provider, ProviderMassive, ProviderHTTP))
	}
	from, ferr := time.Parse(provider.DateLayout, c.From)
	if ferr != nil {
		errs = append(errs, fmt.Errorf("from: %w", ferr))
	}
	to, terr := time.Parse(provider.DateLayout, c.To)
	if terr != nil {
		errs = append(errs, fmt.Errorf("to: %w", terr))
	}
	if ferr == nil && terr == nil && to.Before(from) {
		errs = append(errs, fmt.Errorf("from %s is after to %s", c.From, c.To))
	}
	if c.RawFormat != "" {
		if _, err := saver.NewPacketSaver(c.RawFormat); err != nil {
			errs = append(errs, err)
		}
	}
	switch c.Schedule {
	case ScheduleOnce, ScheduleDaily:
	default:
		errs = append(errs, fmt.Errorf("unsupported schedule %q (use %s or %s)", c.Schedule, ScheduleOnce, ScheduleDaily))
	}
	if c.RunHour < 0 || c.RunHour > 23 || c.RunMinute < 0 || c.RunMinute > 59 {
		errs = append(errs, fmt.Errorf("invalid run time %02d:%02d", c.RunHour, c.RunMinute))
	}
	if c.TickerTimeout < 0 {
		errs = append(errs, errors.New("ticker_timeout must not be negative"))
	}
	return errors.Join(errs...)
}

// Window returns the parsed request bounds. Call after Validate.
func (c *Config) Window() (from, to time.Time) {
	from, _ = time.Parse(provider.DateLayout, c.From)
	to, _ = time.Parse(provider.DateLayout, c.To)
	return from, to
}

// RawDir returns data/raw
func (c *Config) RawDir() string {
	return filepath.Join(c.DataDir, "raw")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
