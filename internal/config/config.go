package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"snapshot-keeper/internal/domain"
	"snapshot-keeper/internal/store"

	"github.com/rs/zerolog/log"
)

type Config struct {
	SnapshotURL          string
	SnapshotAPIKey       string
	SnapshotAPIKeyHeader string

	StoreBackend string
	GitHubToken  string
	GitHubOwner  string
	GitHubRepo   string
	GitHubBranch string
	GitHubAPIURL string

	RawPath     string
	DerivedPath string

	DerivedCapacity       int
	RequestTimeoutSecs    int
	PreviousReadAttempts  int
	PreviousReadBackoffMs int

	SnapshotPollSecs     int
	SnapshotCacheTTLSecs int

	SentimentEnabled  bool
	SentimentPollSecs int

	RedisURL  string
	HTTPAddr  string
	APIKey    string
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		SnapshotURL:    strings.TrimSpace(os.Getenv("SNAPSHOT_URL")),
		SnapshotAPIKey: os.Getenv("SNAPSHOT_API_KEY"),
		GitHubToken:    os.Getenv("GITHUB_TOKEN"),
		GitHubOwner:    strings.TrimSpace(os.Getenv("GITHUB_OWNER")),
		GitHubRepo:     strings.TrimSpace(os.Getenv("GITHUB_REPO")),
		RedisURL:       strings.TrimSpace(os.Getenv("REDIS_URL")),
		APIKey:         strings.TrimSpace(os.Getenv("API_KEY")),
	}

	if cfg.SnapshotURL == "" {
		log.Warn().Msg("SNAPSHOT_URL not set")
	}
	if cfg.SnapshotAPIKey == "" {
		log.Warn().Msg("SNAPSHOT_API_KEY not set, requests will be unauthenticated")
	}
	if cfg.APIKey == "" {
		log.Warn().Msg("API_KEY not set, pipeline and sentiment triggers are unauthenticated")
	}
	if cfg.RedisURL == "" {
		log.Warn().Msg("REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.SnapshotAPIKeyHeader = stringOr("SNAPSHOT_API_KEY_HEADER", "X-API-KEY")

	cfg.StoreBackend = strings.ToLower(stringOr("STORE_BACKEND", store.BackendGitHub))
	if cfg.StoreBackend != store.BackendGitHub && cfg.StoreBackend != store.BackendMemory {
		log.Warn().Str("value", cfg.StoreBackend).Msgf("unsupported STORE_BACKEND, defaulting to %s", store.BackendGitHub)
		cfg.StoreBackend = store.BackendGitHub
	}

	cfg.GitHubBranch = stringOr("GITHUB_BRANCH", "main")
	cfg.GitHubAPIURL = stringOr("GITHUB_API_URL", "https://api.github.com")
	cfg.RawPath = strings.Trim(stringOr("RAW_PATH", "data/raw.json"), "/")
	cfg.DerivedPath = strings.Trim(stringOr("DERIVED_PATH", "data/derived.json"), "/")

	cfg.DerivedCapacity = positiveInt("DERIVED_CAPACITY", 16)
	cfg.RequestTimeoutSecs = positiveInt("REQUEST_TIMEOUT_SECS", 15)
	cfg.PreviousReadAttempts = positiveInt("PREVIOUS_READ_ATTEMPTS", 3)
	cfg.PreviousReadBackoffMs = positiveInt("PREVIOUS_READ_BACKOFF_MS", 500)
	cfg.SnapshotPollSecs = positiveInt("SNAPSHOT_POLL_SECS", 300)
	cfg.SnapshotCacheTTLSecs = positiveInt("SNAPSHOT_CACHE_TTL_SECS", 60)

	cfg.SentimentEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("SENTIMENT_ENABLED")), "true")
	cfg.SentimentPollSecs = positiveInt("SENTIMENT_POLL_SECS", 3600)

	cfg.HTTPAddr = stringOr("HTTP_ADDR", ":8080")
	cfg.LogLevel, cfg.LogFormat = LoggingFromEnv()

	return cfg
}

// LoggingFromEnv reads only the logging settings, so logging can be set up
// before Load emits its warnings.
func LoggingFromEnv() (level, format string) {
	return strings.ToLower(stringOr("LOG_LEVEL", "info")), strings.ToLower(stringOr("LOG_FORMAT", "json"))
}

// Validate reports every missing coordinate or credential at once. The
// returned error wraps domain.ErrConfiguration.
func (c *Config) Validate() error {
	var problems []error
	if c.SnapshotURL == "" {
		problems = append(problems, errors.New("SNAPSHOT_URL is required"))
	}
	if c.StoreBackend == store.BackendGitHub {
		if c.GitHubToken == "" {
			problems = append(problems, errors.New("GITHUB_TOKEN is required"))
		}
		if c.GitHubOwner == "" || c.GitHubRepo == "" {
			problems = append(problems, errors.New("GITHUB_OWNER and GITHUB_REPO are required"))
		}
	}
	if c.RawPath == "" || c.DerivedPath == "" {
		problems = append(problems, errors.New("RAW_PATH and DERIVED_PATH must not be empty"))
	} else if c.RawPath == c.DerivedPath {
		problems = append(problems, errors.New("RAW_PATH and DERIVED_PATH must differ"))
	}
	if c.DerivedCapacity <= 0 {
		problems = append(problems, errors.New("DERIVED_CAPACITY must be positive"))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrConfiguration, errors.Join(problems...))
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

func (c *Config) PreviousReadBackoff() time.Duration {
	return time.Duration(c.PreviousReadBackoffMs) * time.Millisecond
}

func (c *Config) SnapshotPollInterval() time.Duration {
	return time.Duration(c.SnapshotPollSecs) * time.Second
}

func (c *Config) SnapshotCacheTTL() time.Duration {
	return time.Duration(c.SnapshotCacheTTLSecs) * time.Second
}

func (c *Config) SentimentPollInterval() time.Duration {
	return time.Duration(c.SentimentPollSecs) * time.Second
}

func stringOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func positiveInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", v).Int("default", fallback).Msg("invalid integer setting, using default")
		return fallback
	}
	return n
}
