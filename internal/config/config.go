// Package config loads application configuration from environment variables
// using github.com/caarlos0/env. Domain-specific sections live in their own
// files:
//   - http.go: HTTP server, CORS, and rate limiting
//   - auth.go: MFA session and token lifetime configuration
//   - collect.go: utility, weather, and data folder configuration
package config

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// AppName is displayed in the startup banner.
	AppName string `env:"APP_NAME" envDefault:"Live Wire"`

	// Env selects the runtime environment ("DEV" or "production").
	Env string `env:"ENV" envDefault:"DEV"`

	HTTP    HTTPConfig
	Auth    AuthConfig
	Utility UtilityConfig
	Weather WeatherConfig
	Data    DataConfig
}

// Load parses configuration from the environment and applies guardrails.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, err
	}
	c.Sanitize()
	return c, nil
}

// Sanitize applies guardrails to values loaded from env.
func (c *Config) Sanitize() {
	c.HTTP.Sanitize()
	c.Auth.Sanitize()
	c.Weather.Sanitize()
}

func (c *Config) IsDev() bool {
	return !strings.EqualFold(c.Env, "production")
}

// LoadDotEnv loads a local dotenv file in development. Tries .env.local first
// and falls back to .env. Missing files are not an error; the environment wins
// over file values either way.
func LoadDotEnv() {
	if strings.EqualFold(os.Getenv("ENV"), "production") {
		return
	}
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}
	_ = godotenv.Load()
}
