package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr           string
		Env            string
		AllowedOrigin  string
		TrustedProxies []string
	}
	Database struct {
		URL string
	}
	Auth struct {
		JWTSecret       string
		TokenTTLMinutes int
	}
	RateLimit struct {
		Requests      int
		WindowMinutes int
	}
	Log struct {
		Level  string
		Format string
	}
}

// Production reports whether cookies must be marked secure and cross-site.
func (c Config) Production() bool {
	return strings.EqualFold(c.Server.Env, "production")
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

func (c Config) RateWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowMinutes) * time.Minute
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, errors.New("database url is required (TASKBOARD_DATABASE_URL or MONGODB_URI)"))
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("auth jwt secret is required (TASKBOARD_AUTH_JWTSECRET or JWT_SECRET)"))
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		errs = append(errs, errors.New("auth token ttl must be positive"))
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.WindowMinutes <= 0 {
		errs = append(errs, errors.New("rate limit requests and window must be positive"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	// existing environment wins over .env
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TASKBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:4002")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.allowedorigin", "http://localhost:5173")
	v.SetDefault("server.trustedproxies", []string{})
	v.SetDefault("database.url", "")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttlminutes", 60)
	v.SetDefault("ratelimit.requests", 100)
	v.SetDefault("ratelimit.windowminutes", 15)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// names used by earlier deployments
	aliases := map[string][]string{
		"server.env":            {"TASKBOARD_SERVER_ENV", "APP_ENV", "NODE_ENV"},
		"server.allowedorigin":  {"TASKBOARD_SERVER_ALLOWEDORIGIN", "ALLOWED_ORIGIN", "FRONTEND_URL"},
		"server.trustedproxies": {"TASKBOARD_SERVER_TRUSTEDPROXIES", "TRUSTED_PROXIES"},
		"database.url":          {"TASKBOARD_DATABASE_URL", "DATABASE_URL", "MONGODB_URI"},
		"auth.jwtsecret":        {"TASKBOARD_AUTH_JWTSECRET", "JWT_SECRET"},
	}
	aliases["port"] = []string{"PORT"}
	for key, envs := range aliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if port := v.GetString("port"); port != "" && v.GetString("server.addr") == "0.0.0.0:4002" {
		cfg.Server.Addr = "0.0.0.0:" + port
	}

	return cfg, nil
}
