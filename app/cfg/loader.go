package cfg

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Commerce backend
	StoreURL       string `long:"store-url" env:"STORE_URL" description:"Base URL of the commerce backend (required)" required:"true"`
	ConsumerKey    string `long:"consumer-key" env:"WC_CONSUMER_KEY" description:"REST API consumer key"`
	ConsumerSecret string `long:"consumer-secret" env:"WC_CONSUMER_SECRET" description:"REST API consumer secret"`
	CategoriesPath string `long:"categories-path" env:"CATEGORIES_PATH" default:"/wp-json/wc/v3/products/categories" description:"Path of the product categories endpoint"`
	PerPage        int    `long:"per-page" env:"CATEGORIES_PER_PAGE" default:"100" description:"Categories requested per page"`

	// Storage
	CatalogFile string `long:"catalog-file" env:"CATALOG_FILE" default:"./catalog.yml" description:"YAML file with icons, default images and fallback categories"`
	DBPath      string `long:"db-path" env:"DB_PATH" default:"./data/category-comb.db" description:"SQLite database path for category snapshots"`
	RedisAddr   string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address; snapshots are kept in Redis instead of SQLite when set"`

	// Retrieval policy
	StaleTime       time.Duration `long:"stale-time" env:"STALE_TIME" default:"5m" description:"How long fetched categories stay fresh"`
	FetchRetry      int           `long:"retry" env:"FETCH_RETRY" default:"2" description:"Additional attempts after a failed fetch"`
	FetchTimeout    time.Duration `long:"timeout" env:"FETCH_TIMEOUT" default:"15s" description:"Timeout of a single upstream request"`
	RefreshInterval time.Duration `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"5m" description:"Background refresh interval (0 disables)"`
	WorkerCount     int           `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers"`

	// Application configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Category Comb/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return load(os.Args[1:], os.Stderr)
}

func load(args []string, out io.Writer) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.HelpFlag|flags.PassDoubleDash)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				fmt.Fprintln(out, flagsErr.Message)
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		StoreURL:        raw.StoreURL,
		ConsumerKey:     raw.ConsumerKey,
		ConsumerSecret:  raw.ConsumerSecret,
		CategoriesPath:  raw.CategoriesPath,
		PerPage:         raw.PerPage,
		CatalogFile:     raw.CatalogFile,
		DBPath:          raw.DBPath,
		RedisAddr:       raw.RedisAddr,
		StaleTime:       raw.StaleTime,
		FetchRetry:      raw.FetchRetry,
		FetchTimeout:    raw.FetchTimeout,
		RefreshInterval: raw.RefreshInterval,
		WorkerCount:     raw.WorkerCount,
		Port:            raw.Port,
		APIAccessKey:    raw.APIAccessKey,
		UserAgent:       raw.UserAgent,
		Timezone:        raw.Timezone,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Fprintf(out, "Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func (c *Cfg) validate() error {
	if c.PerPage < 1 || c.PerPage > 100 {
		return fmt.Errorf("per-page must be between 1 and 100, got %d", c.PerPage)
	}
	if c.FetchRetry < 0 {
		return fmt.Errorf("retry must not be negative, got %d", c.FetchRetry)
	}
	if c.StaleTime <= 0 {
		return fmt.Errorf("stale-time must be positive, got %s", c.StaleTime)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("refresh-interval must not be negative, got %s", c.RefreshInterval)
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return err
		}
		time.Local = loc
	}
	return nil
}
