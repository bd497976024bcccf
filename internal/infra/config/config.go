package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	// Embedded zone data keeps briefing.timezone loadable on hosts without zoneinfo.
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	LLM      LLMConfig      `yaml:"llm"`
	Auth     AuthConfig     `yaml:"auth"`
	Postgres PostgresConfig `yaml:"postgres"`
	Valkey   ValkeyConfig   `yaml:"valkey"`
	News     NewsConfig     `yaml:"news"`
	Briefing BriefingConfig `yaml:"briefing"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// LLMConfig contains Gemini settings.
type LLMConfig struct {
	APIKey         string        `yaml:"apiKey"`
	PrimaryURL     string        `yaml:"primaryUrl"`
	FallbackURL    string        `yaml:"fallbackUrl"`
	Model          string        `yaml:"model"`
	Persona        string        `yaml:"persona"`
	AttemptTimeout time.Duration `yaml:"attemptTimeout"`
	MaxAttempts    int           `yaml:"maxAttempts"`
	BaseBackoff    time.Duration `yaml:"baseBackoff"`
}

// AuthConfig holds the bearer token verification settings.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwtSecret"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"tokenTtl"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ValkeyConfig contains connection information for cache storage.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// NewsConfig controls the news board.
type NewsConfig struct {
	CacheTTL        time.Duration `yaml:"cacheTtl"`
	DefaultPageSize int           `yaml:"defaultPageSize"`
	MaxPageSize     int           `yaml:"maxPageSize"`
	LatestLimit     int           `yaml:"latestLimit"`
}

// BriefingConfig controls schedule briefings.
type BriefingConfig struct {
	Timezone string        `yaml:"timezone"`
	Archive  ArchiveConfig `yaml:"archive"`
}

// ArchiveConfig points at the S3-compatible bucket generated briefings are copied to.
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from .env, a YAML file and environment variables.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv populates unset variables from DOTENV_PATH or ./.env when present.
func loadDotEnv() error {
	path := os.Getenv("DOTENV_PATH")
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.HTTP.Address, "HTTP_ADDRESS")
	setDuration(&cfg.HTTP.ReadTimeout, "HTTP_READ_TIMEOUT")
	setDuration(&cfg.HTTP.WriteTimeout, "HTTP_WRITE_TIMEOUT")
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	setBool(&cfg.HTTP.RateLimit.Enabled, "HTTP_RATE_LIMIT_ENABLED")
	setInt(&cfg.HTTP.RateLimit.RequestsPerMinute, "HTTP_RATE_LIMIT_RPM")
	setInt(&cfg.HTTP.RateLimit.Burst, "HTTP_RATE_LIMIT_BURST")
	setBool(&cfg.HTTP.Retry.Enabled, "HTTP_RETRY_ENABLED")
	setInt(&cfg.HTTP.Retry.MaxAttempts, "HTTP_RETRY_MAX_ATTEMPTS")
	setDuration(&cfg.HTTP.Retry.BaseBackoff, "HTTP_RETRY_BASE_BACKOFF")

	// The account service historically exported the key with mixed case.
	setString(&cfg.LLM.APIKey, "Gemini_API_Key")
	setString(&cfg.LLM.APIKey, "GEMINI_API_KEY")
	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.PrimaryURL, "LLM_PRIMARY_URL")
	setString(&cfg.LLM.FallbackURL, "LLM_FALLBACK_URL")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setString(&cfg.LLM.Persona, "LLM_PERSONA")
	setDuration(&cfg.LLM.AttemptTimeout, "LLM_ATTEMPT_TIMEOUT")
	setInt(&cfg.LLM.MaxAttempts, "LLM_MAX_ATTEMPTS")
	setDuration(&cfg.LLM.BaseBackoff, "LLM_BASE_BACKOFF")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Auth.Issuer, "JWT_ISSUER")
	setDuration(&cfg.Auth.TokenTTL, "JWT_TOKEN_TTL")

	setString(&cfg.Postgres.DSN, "POSTGRES_DSN")
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MinConns = int32(parsed)
		}
	}

	setBool(&cfg.Valkey.Enabled, "VALKEY_ENABLED")
	setString(&cfg.Valkey.Addr, "VALKEY_ADDR")

	setDuration(&cfg.News.CacheTTL, "NEWS_CACHE_TTL")
	setInt(&cfg.News.DefaultPageSize, "NEWS_DEFAULT_PAGE_SIZE")
	setInt(&cfg.News.MaxPageSize, "NEWS_MAX_PAGE_SIZE")
	setInt(&cfg.News.LatestLimit, "NEWS_LATEST_LIMIT")

	setString(&cfg.Briefing.Timezone, "BRIEFING_TIMEZONE")
	setBool(&cfg.Briefing.Archive.Enabled, "BRIEFING_ARCHIVE_ENABLED")
	setString(&cfg.Briefing.Archive.Endpoint, "R2_ENDPOINT")
	setString(&cfg.Briefing.Archive.AccessKey, "R2_ACCESS_KEY_ID")
	setString(&cfg.Briefing.Archive.SecretKey, "R2_SECRET_ACCESS_KEY")
	setString(&cfg.Briefing.Archive.Bucket, "R2_BUCKET")
	setString(&cfg.Briefing.Archive.Region, "R2_REGION")

	setBool(&cfg.Metrics.Enabled, "METRICS_ENABLED")
	setString(&cfg.Metrics.Path, "METRICS_PATH")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:     ":8080",
			ReadTimeout: 10 * time.Second,
			// a briefing may run three primary attempts and a fallback at 90s each
			WriteTimeout: 7 * time.Minute,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/schedule-briefing",
				},
			},
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		LLM: LLMConfig{
			PrimaryURL:     "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent",
			FallbackURL:    "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions",
			Model:          "gemini-2.5-flash",
			Persona:        "당신은 부동산 CRM 시스템의 AI 어시스턴트입니다. 한국어로 친근하고 전문적인 톤으로 응답해주세요.",
			AttemptTimeout: 90 * time.Second,
			MaxAttempts:    3,
			BaseBackoff:    500 * time.Millisecond,
		},
		Auth: AuthConfig{
			TokenTTL: 12 * time.Hour,
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
		},
		News: NewsConfig{
			CacheTTL:        5 * time.Minute,
			DefaultPageSize: 10,
			MaxPageSize:     100,
			LatestLimit:     5,
		},
		Briefing: BriefingConfig{
			Timezone: "Asia/Seoul",
			Archive: ArchiveConfig{
				Region: "auto",
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth.jwtSecret cannot be empty")
	}
	if c.LLM.AttemptTimeout <= 0 {
		return errors.New("llm.attemptTimeout must be positive")
	}
	if c.LLM.MaxAttempts <= 0 {
		return errors.New("llm.maxAttempts must be positive")
	}
	if c.LLM.BaseBackoff < 0 {
		return errors.New("llm.baseBackoff cannot be negative")
	}
	if c.Valkey.Enabled && strings.TrimSpace(c.Valkey.Addr) == "" {
		return errors.New("valkey.addr cannot be empty when valkey is enabled")
	}
	if c.News.CacheTTL < 0 {
		return errors.New("news.cacheTtl cannot be negative")
	}
	if c.News.DefaultPageSize <= 0 || c.News.MaxPageSize <= 0 {
		return errors.New("news page sizes must be positive")
	}
	if c.News.DefaultPageSize > c.News.MaxPageSize {
		return errors.New("news.defaultPageSize cannot exceed news.maxPageSize")
	}
	if _, err := time.LoadLocation(c.Briefing.Timezone); err != nil {
		return fmt.Errorf("briefing.timezone: %w", err)
	}
	if c.Briefing.Archive.Enabled {
		a := c.Briefing.Archive
		if strings.TrimSpace(a.Endpoint) == "" || strings.TrimSpace(a.Bucket) == "" {
			return errors.New("briefing.archive endpoint and bucket are required when the archive is enabled")
		}
		if a.AccessKey == "" || a.SecretKey == "" {
			return errors.New("briefing.archive credentials are required when the archive is enabled")
		}
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	return nil
}
