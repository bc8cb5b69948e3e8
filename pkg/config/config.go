package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Every environment variable is read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional archive store)
	Database DatabaseConfig

	// Redis (optional cross-process cache / rate limiting)
	Redis RedisConfig

	// External data providers
	FRED      FREDConfig
	Yahoo     YahooConfig
	CoinGecko CoinGeckoConfig

	// Fetching behavior
	Fetch FetchConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL     string
	Enabled bool

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// FREDConfig holds Federal Reserve Economic Data API configuration.
type FREDConfig struct {
	APIKey   string
	BaseURL  string
	GraphURL string // fredgraph CSV endpoint, no key required
}

// YahooConfig holds Yahoo Finance configuration.
type YahooConfig struct {
	BaseURL  string
	QuoteURL string // HTML quote page, scraped for current prices
}

// CoinGeckoConfig holds CoinGecko API configuration.
type CoinGeckoConfig struct {
	BaseURL string
}

// FetchConfig tunes the source adapter.
type FetchConfig struct {
	// Minimum interval between two requests to the same provider.
	MinRequestInterval time.Duration

	// Every Nth request sleeps an extra randomized interval to stay
	// under provider throttling radar.
	LongPauseEvery int

	// Upper bound for a single strategy attempt. A timeout counts as a
	// failed strategy, not a failed fetch.
	StrategyTimeout time.Duration

	// Concurrent fetches per batch.
	Workers int

	// Symbols per batch; batches run sequentially with a pause between.
	BatchSize int

	// Randomized pause bounds between failed provider attempts.
	AttemptPauseMin time.Duration
	AttemptPauseMax time.Duration

	// Randomized pause bounds between sequential batches.
	BatchPauseMin time.Duration
	BatchPauseMax time.Duration
}

// Load reads configuration from environment variables.
// This is the only function that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Enabled:         getEnvAsBool("DATABASE_ENABLED", false),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// External providers
		FRED: FREDConfig{
			APIKey:   getEnv("FRED_API_KEY", ""),
			BaseURL:  getEnv("FRED_BASE_URL", "https://api.stlouisfed.org/fred"),
			GraphURL: getEnv("FRED_GRAPH_URL", "https://fred.stlouisfed.org/graph"),
		},

		Yahoo: YahooConfig{
			BaseURL:  getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			QuoteURL: getEnv("YAHOO_QUOTE_URL", "https://finance.yahoo.com"),
		},

		CoinGecko: CoinGeckoConfig{
			BaseURL: getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		},

		// Fetching
		Fetch: FetchConfig{
			MinRequestInterval: getEnvAsDuration("FETCH_MIN_INTERVAL", "750ms"),
			LongPauseEvery:     getEnvAsInt("FETCH_LONG_PAUSE_EVERY", 10),
			StrategyTimeout:    getEnvAsDuration("FETCH_STRATEGY_TIMEOUT", "15s"),
			Workers:            getEnvAsInt("FETCH_WORKERS", 3),
			BatchSize:          getEnvAsInt("FETCH_BATCH_SIZE", 5),
			AttemptPauseMin:    getEnvAsDuration("FETCH_ATTEMPT_PAUSE_MIN", "1s"),
			AttemptPauseMax:    getEnvAsDuration("FETCH_ATTEMPT_PAUSE_MAX", "3s"),
			BatchPauseMin:      getEnvAsDuration("FETCH_BATCH_PAUSE_MIN", "3s"),
			BatchPauseMax:      getEnvAsDuration("FETCH_BATCH_PAUSE_MAX", "6s"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks required configuration values.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when DATABASE_ENABLED=true")
	}

	if c.Fetch.Workers < 1 {
		return fmt.Errorf("FETCH_WORKERS must be at least 1")
	}

	if c.Fetch.LongPauseEvery < 1 {
		return fmt.Errorf("FETCH_LONG_PAUSE_EVERY must be at least 1")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
