package config

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`

	JWTSecret   string        `mapstructure:"JWT_SECRET"`
	TokenTTL    time.Duration `mapstructure:"TOKEN_TTL"`
	FailureURL  string        `mapstructure:"AUTH_FAILURE_URL"`
	CookieName  string        `mapstructure:"SESSION_COOKIE_NAME"`
	BodyLimitMB int64         `mapstructure:"BODY_LIMIT_MB"`

	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `mapstructure:"GOOGLE_CALLBACK_URL"`
	GitHubClientID     string `mapstructure:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `mapstructure:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `mapstructure:"GITHUB_CALLBACK_URL"`

	MediaBucketURL string `mapstructure:"MEDIA_BUCKET_URL"`
	MediaPublicURL string `mapstructure:"MEDIA_PUBLIC_URL"`

	TrustedProxies string `mapstructure:"TRUSTED_PROXIES"`

	RedisURL       string        `mapstructure:"REDIS_URL"`
	AuthRateLimit  int           `mapstructure:"AUTH_RATE_LIMIT"`
	AuthRateWindow time.Duration `mapstructure:"AUTH_RATE_WINDOW"`

	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogFormat     string `mapstructure:"LOG_FORMAT"`
	LogFile       string `mapstructure:"LOG_FILE"`
	LogMaxSizeMB  int    `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `mapstructure:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays int    `mapstructure:"LOG_MAX_AGE_DAYS"`
}

var defaults = map[string]interface{}{
	"PORT":                 "3000",
	"ENVIRONMENT":          "development",
	"FRONTEND_URL":         "http://localhost:3000",
	"DATABASE_DRIVER":      "postgres",
	"DATABASE_URL":         "",
	"JWT_SECRET":           "",
	"TOKEN_TTL":            "168h",
	"AUTH_FAILURE_URL":     "/login",
	"SESSION_COOKIE_NAME":  "token",
	"BODY_LIMIT_MB":        10,
	"GOOGLE_CLIENT_ID":     "",
	"GOOGLE_CLIENT_SECRET": "",
	"GOOGLE_CALLBACK_URL":  "http://localhost:3000/auth/google/callback",
	"GITHUB_CLIENT_ID":     "",
	"GITHUB_CLIENT_SECRET": "",
	"GITHUB_CALLBACK_URL":  "http://localhost:3000/auth/github/callback",
	"MEDIA_BUCKET_URL":     "file:///tmp/gamecatalog-media",
	"MEDIA_PUBLIC_URL":     "http://localhost:3000/media",
	"TRUSTED_PROXIES":      "",
	"REDIS_URL":            "",
	"AUTH_RATE_LIMIT":      100,
	"AUTH_RATE_WINDOW":     "15m",
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "text",
	"LOG_FILE":             "",
	"LOG_MAX_SIZE_MB":      100,
	"LOG_MAX_BACKUPS":      5,
	"LOG_MAX_AGE_DAYS":     30,
}

// Load reads the configuration from a .env file in the working directory and
// from environment variables. Environment variables win.
func Load() (*Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("env")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		slog.Warn(".env file not found, loading from environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.DatabaseDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	case "sqlite":
	default:
		return errors.New("DATABASE_DRIVER must be postgres or sqlite")
	}
	return nil
}

// TrustedProxyList splits TRUSTED_PROXIES into addresses and CIDRs.
// An empty value trusts no proxy.
func (c *Config) TrustedProxyList() []string {
	var list []string
	for _, part := range strings.Split(c.TrustedProxies, ",") {
		if p := strings.TrimSpace(part); p != "" {
			list = append(list, p)
		}
	}
	return list
}

// IsProduction reports whether cookies and logging should use production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
