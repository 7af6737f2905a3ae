package config

import "time"

type AuthConfig struct {
	// MFATimeout bounds how long a login waits for the second-factor code.
	MFATimeout time.Duration `env:"MFA_TIMEOUT" envDefault:"300s"`

	// TokenTTL is how long a stored access token stays usable after the
	// session was created.
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"2h"`

	// DemoUsername and DemoPassword enable the credential-free demo mode when
	// both are set.
	DemoUsername string `env:"DEMO_CONED_USERNAME"`
	DemoPassword string `env:"DEMO_CONED_PASSWORD"`

	// DemoCacheTTL is how long collected demo data is served from cache.
	DemoCacheTTL time.Duration `env:"DEMO_CACHE_TTL" envDefault:"15m"`
}

func (c *AuthConfig) Sanitize() {
	if c.MFATimeout <= 0 {
		c.MFATimeout = 300 * time.Second
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = 2 * time.Hour
	}
	if c.DemoCacheTTL <= 0 {
		c.DemoCacheTTL = 15 * time.Minute
	}
}

// DemoConfigured reports whether demo mode credentials are available.
func (c AuthConfig) DemoConfigured() bool {
	return c.DemoUsername != "" && c.DemoPassword != ""
}
