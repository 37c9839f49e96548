package cfg

import "log/slog"

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	Port        string
	CatalogFile string
	NewsAPIKey  string
	GuardianKey string
	RedisAddr   string
	AuthURL     string
	AuthAnonKey string

	// Fetch tuning
	BatchSize    int
	BatchDelayMS int
	CacheTTL     int
	FeedCap      int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

// LogLevel returns the slog level matching the Debug flag.
func (c *Cfg) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
