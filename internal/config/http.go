package config

import (
	"fmt"
	"strings"
)

type HTTPConfig struct {
	// Port the server listens on.
	Port string `env:"PORT" envDefault:"5050"`

	// AllowedOrigins is a comma-separated list of hosts (no scheme) permitted
	// for CORS and cookie domains, e.g. "localhost:3000,dashboard.example.com".
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"localhost:3000,127.0.0.1:3000"`

	// LoginRatePerMinute caps login and demo-login attempts per client IP.
	LoginRatePerMinute int `env:"LOGIN_RATE_PER_MINUTE" envDefault:"5"`

	// MFARatePerMinute caps MFA code submissions per client IP.
	MFARatePerMinute int `env:"MFA_RATE_PER_MINUTE" envDefault:"10"`
}

func (c *HTTPConfig) Sanitize() {
	c.Port = strings.TrimPrefix(c.Port, ":")
	if c.Port == "" {
		c.Port = "5050"
	}
	if c.LoginRatePerMinute <= 0 {
		c.LoginRatePerMinute = 5
	}
	if c.MFARatePerMinute <= 0 {
		c.MFARatePerMinute = 10
	}
}

// Addr returns the listen address for http.Server.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Origins expands AllowedOrigins into full origin URLs. Localhost hosts get
// http, everything else https.
func (c HTTPConfig) Origins() []string {
	origins := make([]string, 0, len(c.AllowedOrigins))
	for _, host := range c.AllowedOrigins {
		host = strings.TrimSpace(host)
		if host == "" {
			continue
		}
		if strings.HasPrefix(host, "localhost") || strings.Contains(host, "127.0.0.1") {
			origins = append(origins, "http://"+host)
		} else {
			origins = append(origins, "https://"+host)
		}
	}
	return origins
}

// CookieDomains returns the non-localhost hosts usable as cookie domains.
func (c HTTPConfig) CookieDomains() []string {
	domains := make([]string, 0, len(c.AllowedOrigins))
	for _, host := range c.AllowedOrigins {
		host = strings.TrimSpace(host)
		if host == "" || strings.HasPrefix(host, "localhost") || strings.Contains(host, "127.0.0.1") {
			continue
		}
		domains = append(domains, host)
	}
	return domains
}
