package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./sentinel.db" description:"SQLite database file path"`

	// Application configuration
	Port        string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	CatalogFile string `long:"catalog-file" env:"CATALOG_FILE" description:"Channel catalog YAML file (embedded defaults when absent)"`
	NewsAPIKey  string `long:"newsapi-key" env:"NEWSAPI_KEY" description:"NewsAPI key (source disabled when empty)"`
	GuardianKey string `long:"guardian-key" env:"GUARDIAN_KEY" description:"Guardian Open Platform key (public test key when empty)"`
	RedisAddr   string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for the shared cache (in-memory cache when empty)"`
	AuthURL     string `long:"auth-url" env:"AUTH_URL" description:"Identity provider base URL (sync disabled when empty)"`
	AuthAnonKey string `long:"auth-anon-key" env:"AUTH_ANON_KEY" description:"Identity provider public anon key"`

	// Fetch tuning
	BatchSize    int `long:"batch-size" env:"BATCH_SIZE" default:"4" description:"Rate-limited channel fetches per batch"`
	BatchDelayMS int `long:"batch-delay-ms" env:"BATCH_DELAY_MS" default:"200" description:"Delay between channel batches in milliseconds"`
	CacheTTL     int `long:"cache-ttl" env:"CACHE_TTL" default:"300" description:"Source cache TTL in seconds"`
	FeedCap      int `long:"feed-cap" env:"FEED_CAP" default:"150" description:"Maximum items in the aggregate feed response"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Sentinel/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:       raw.DBPath,
		Port:         raw.Port,
		CatalogFile:  raw.CatalogFile,
		NewsAPIKey:   raw.NewsAPIKey,
		GuardianKey:  raw.GuardianKey,
		RedisAddr:    raw.RedisAddr,
		AuthURL:      raw.AuthURL,
		AuthAnonKey:  raw.AuthAnonKey,
		BatchSize:    raw.BatchSize,
		BatchDelayMS: raw.BatchDelayMS,
		CacheTTL:     raw.CacheTTL,
		FeedCap:      raw.FeedCap,
		UserAgent:    raw.UserAgent,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
