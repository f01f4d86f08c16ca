package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	OpenAI   OpenAIConfig
	Market   MarketConfig
	Chat     ChatConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds Postgres connection parameters.
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	ConnectTimeout     time.Duration
}

// OpenAIConfig holds LLM provider parameters. ClassifierModel is used only
// for the single-token intent classification call.
type OpenAIConfig struct {
	APIKey          string
	Model           string
	ClassifierModel string
	Temperature     float32
	MaxTokens       int
	Timeout         time.Duration
}

// MarketConfig holds market-data provider parameters.
type MarketConfig struct {
	BaseURL           string
	Timeout           time.Duration
	Debug             bool
	CacheTTL          time.Duration
	TrendLookbackDays int
	LookupConcurrency int
}

// ChatConfig holds conversation grounding parameters.
type ChatConfig struct {
	HistoryLimit int
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultDBMaxConnections     = 25
	defaultDBMaxIdleConnections = 5
	defaultDBConnMaxLifetime    = 5 * time.Minute
	defaultDBConnectTimeout     = 10 * time.Second

	defaultOpenAIModel           = "gpt-4o-mini"
	defaultOpenAIClassifierModel = "gpt-4"
	defaultOpenAITemperature     = 0.2
	defaultOpenAIMaxTokens       = 1024
	defaultOpenAITimeout         = 60 * time.Second

	defaultMarketTimeout     = 10 * time.Second
	defaultMarketCacheTTL    = 30 * time.Second
	defaultTrendLookbackDays = 126
	defaultLookupConcurrency = 5

	defaultHistoryLimit = 10

	defaultLogFormat = "json"
)

// Load reads configuration from environment variables, applying defaults when
// values are not provided. DATABASE_URL, OPENAI_API_KEY and MARKET_DATA_URL
// are required.
func Load() (Config, error) {
	// Cloud Run sets PORT, but allow SERVER_PORT override for local dev
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Database: DatabaseConfig{
			URL:                os.Getenv("DATABASE_URL"),
			MaxConnections:     defaultDBMaxConnections,
			MaxIdleConnections: defaultDBMaxIdleConnections,
			ConnMaxLifetime:    defaultDBConnMaxLifetime,
			ConnectTimeout:     defaultDBConnectTimeout,
		},
		OpenAI: OpenAIConfig{
			APIKey:          os.Getenv("OPENAI_API_KEY"),
			Model:           getEnv("OPENAI_MODEL", defaultOpenAIModel),
			ClassifierModel: getEnv("OPENAI_CLASSIFIER_MODEL", defaultOpenAIClassifierModel),
			Temperature:     defaultOpenAITemperature,
			MaxTokens:       defaultOpenAIMaxTokens,
			Timeout:         defaultOpenAITimeout,
		},
		Market: MarketConfig{
			BaseURL:           os.Getenv("MARKET_DATA_URL"),
			Timeout:           defaultMarketTimeout,
			Debug:             os.Getenv("MARKET_DEBUG") == "true",
			CacheTTL:          defaultMarketCacheTTL,
			TrendLookbackDays: defaultTrendLookbackDays,
			LookupConcurrency: defaultLookupConcurrency,
		},
		Chat: ChatConfig{
			HistoryLimit: defaultHistoryLimit,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.OpenAI.APIKey == "" {
		return Config{}, fmt.Errorf("OPENAI_API_KEY is required")
	}

	if cfg.Market.BaseURL == "" {
		return Config{}, fmt.Errorf("MARKET_DATA_URL is required")
	}

	durations := []struct {
		env    string
		target *time.Duration
	}{
		{"SERVER_READ_TIMEOUT_SECONDS", &cfg.Server.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT_SECONDS", &cfg.Server.WriteTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT_SECONDS", &cfg.Server.ShutdownTimeout},
		{"DB_CONNECT_TIMEOUT_SECONDS", &cfg.Database.ConnectTimeout},
		{"OPENAI_TIMEOUT_SECONDS", &cfg.OpenAI.Timeout},
		{"MARKET_TIMEOUT_SECONDS", &cfg.Market.Timeout},
		{"MARKET_CACHE_TTL_SECONDS", &cfg.Market.CacheTTL},
	}
	for _, d := range durations {
		if v := os.Getenv(d.env); v != "" {
			parsed, err := parseSeconds(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", d.env, err)
			}
			*d.target = parsed
		}
	}

	counts := []struct {
		env    string
		target *int
	}{
		{"DB_MAX_CONNECTIONS", &cfg.Database.MaxConnections},
		{"DB_MAX_IDLE_CONNECTIONS", &cfg.Database.MaxIdleConnections},
		{"OPENAI_MAX_TOKENS", &cfg.OpenAI.MaxTokens},
		{"MARKET_TREND_LOOKBACK_DAYS", &cfg.Market.TrendLookbackDays},
		{"MARKET_LOOKUP_CONCURRENCY", &cfg.Market.LookupConcurrency},
		{"CHAT_HISTORY_LIMIT", &cfg.Chat.HistoryLimit},
	}
	for _, c := range counts {
		if v := os.Getenv(c.env); v != "" {
			parsed, err := parsePositiveInt(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", c.env, err)
			}
			*c.target = parsed
		}
	}

	if v := os.Getenv("OPENAI_TEMPERATURE"); v != "" {
		temp, err := strconv.ParseFloat(v, 32)
		if err != nil || temp < 0 || temp > 2 {
			return Config{}, fmt.Errorf("invalid OPENAI_TEMPERATURE: must be a number between 0 and 2")
		}
		cfg.OpenAI.Temperature = float32(temp)
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	return cfg, nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("must be a positive integer")
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
