package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the yearbook API service.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	AllowOrigins        string
	StaticDir           string
	DatabaseURL         string
	RedisURL            string
	SessionCookieName   string
	SessionTTL          time.Duration
	SessionSecureCookie bool
	CatalogBaseURL      string
	CatalogSyncInterval time.Duration
	CatalogTimeout      time.Duration
	CatalogSyncEnabled  bool
	CatalogCacheTTL     time.Duration
	LoginRateLimit      int
	LoginRateWindow     time.Duration
	NATSURL             string
	NATSActivitySubject string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EYBMS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "EYBMS API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "3000")
	v.SetDefault("app.allowed_origins", "*")
	v.SetDefault("session.cookie_name", "eybms_session")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("catalog.base_url", "http://localhost/wordpress")
	v.SetDefault("catalog.sync_interval", "10m")
	v.SetDefault("catalog.timeout", "15s")
	v.SetDefault("catalog.sync_enabled", true)
	v.SetDefault("catalog.cache_ttl", "5m")
	v.SetDefault("login.rate_limit", 10)
	v.SetDefault("login.rate_window", "1m")
	v.SetDefault("nats.activity_subject", "eybms.activity")

	sessionTTL, err := parseDuration(v, "session.ttl")
	if err != nil {
		return Config{}, err
	}
	syncInterval, err := parseDuration(v, "catalog.sync_interval")
	if err != nil {
		return Config{}, err
	}
	catalogTimeout, err := parseDuration(v, "catalog.timeout")
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := parseDuration(v, "catalog.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v, "login.rate_window")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		AllowOrigins:        v.GetString("app.allowed_origins"),
		StaticDir:           strings.TrimSpace(v.GetString("app.static_dir")),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		SessionCookieName:   v.GetString("session.cookie_name"),
		SessionTTL:          sessionTTL,
		CatalogBaseURL:      strings.TrimRight(v.GetString("catalog.base_url"), "/"),
		CatalogSyncInterval: syncInterval,
		CatalogTimeout:      catalogTimeout,
		CatalogSyncEnabled:  v.GetBool("catalog.sync_enabled"),
		CatalogCacheTTL:     cacheTTL,
		LoginRateLimit:      v.GetInt("login.rate_limit"),
		LoginRateWindow:     rateWindow,
		NATSURL:             v.GetString("nats.url"),
		NATSActivitySubject: v.GetString("nats.activity_subject"),
	}

	if v.IsSet("session.secure_cookie") {
		cfg.SessionSecureCookie = v.GetBool("session.secure_cookie")
	} else {
		cfg.SessionSecureCookie = cfg.IsProduction()
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("redis url must be provided")
	}

	if cfg.LoginRateLimit <= 0 {
		cfg.LoginRateLimit = 10
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
