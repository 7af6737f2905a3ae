package server

import (
	"net/http"
	"strings"
	"time"
)

const (
	SessionCookieName = "user_session"
	DemoCookieName    = "demo_mode"
)

// cookieDomain derives a wildcard cookie domain (".example.com") when the
// request host matches one of the configured cookie domains. Localhost and
// unknown hosts get a host-only cookie.
func (s *Server) cookieDomain(r *http.Request) string {
	host := r.Host
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	for _, domain := range s.config.HTTP.CookieDomains() {
		if !strings.Contains(host, domain) && !strings.Contains(domain, host) {
			continue
		}
		parts := strings.Split(domain, ".")
		if len(parts) >= 2 {
			return "." + strings.Join(parts[len(parts)-2:], ".")
		}
	}
	return ""
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, name, value string, ttl time.Duration) {
	secure := !s.config.IsDev()
	sameSite := http.SameSiteLaxMode
	if secure {
		// Cross-site dashboard frontend needs the cookie on fetch requests.
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   s.cookieDomain(r),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   s.cookieDomain(r),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !s.config.IsDev(),
	})
}

func cookieValue(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
