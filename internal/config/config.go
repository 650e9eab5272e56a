package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DatabaseDriverPostgres = "postgres"
	DatabaseDriverSQLite   = "sqlite"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseDriver    string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	NATSSubject       string
	JWTSecret         string
	JWTTTL            time.Duration
	AnalyticsCacheTTL time.Duration
	ChartHeight       int
	AdminUsername     string
	AdminPassword     string
	AuthRateLimitMax  int
	AuthRateLimitWin  time.Duration
	CORSAllowOrigins  string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("FITNESS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Fitness Tracker API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", DatabaseDriverPostgres)
	v.SetDefault("nats.subject", "fitness.entries")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("analytics.cache_ttl", "5m")
	v.SetDefault("chart.height", 160)
	v.SetDefault("auth.rate_limit_max", 10)
	v.SetDefault("auth.rate_limit_window", "1m")

	jwtTTL, err := parseDuration(v, "jwt.ttl", "24h")
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt ttl: %w", err)
	}

	cacheTTL, err := parseDuration(v, "analytics.cache_ttl", "5m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid analytics cache ttl: %w", err)
	}

	rateWindow, err := parseDuration(v, "auth.rate_limit_window", "1m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid auth rate limit window: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseDriver:    strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		NATSSubject:       v.GetString("nats.subject"),
		JWTSecret:         v.GetString("jwt.secret"),
		JWTTTL:            jwtTTL,
		AnalyticsCacheTTL: cacheTTL,
		ChartHeight:       v.GetInt("chart.height"),
		AdminUsername:     strings.TrimSpace(v.GetString("admin.username")),
		AdminPassword:     v.GetString("admin.password"),
		AuthRateLimitMax:  v.GetInt("auth.rate_limit_max"),
		AuthRateLimitWin:  rateWindow,
		CORSAllowOrigins:  strings.TrimSpace(v.GetString("cors.allow_origins")),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case DatabaseDriverPostgres, DatabaseDriverSQLite:
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.ChartHeight <= 0 {
		cfg.ChartHeight = 160
	}

	if cfg.AuthRateLimitMax <= 0 {
		cfg.AuthRateLimitMax = 10
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(v.GetString(key))
	if value == "" {
		value = fallback
	}
	return time.ParseDuration(value)
}
