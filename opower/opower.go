package opower

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/skortchmar/livewire/auth"
)

const requestTimeout = 30 * time.Second

// Transport carries the HTTP client and base-URL overrides used by utility
// login flows and data reads. Overrides exist so tests can point the client
// at a local server.
type Transport struct {
	HTTPClient *http.Client

	// LoginBase overrides "https://<login_domain>" when non-empty.
	LoginBase string

	// APIBase overrides "https://<subdomain>.opower.com" when non-empty.
	APIBase string
}

// Client drives a single utility's login flow and the opower edge data API.
// It holds no per-user state; tokens are passed into each read, so one client
// serves concurrent sessions.
type Client struct {
	utility    Utility
	transport  Transport
	totpSecret string
}

// ClientOption modifies a Client instance.
type ClientOption func(*Client)

// WithTransport overrides the HTTP transport (primarily for testing).
func WithTransport(t Transport) ClientOption {
	return func(c *Client) {
		if t.HTTPClient != nil {
			c.transport.HTTPClient = t.HTTPClient
		}
		c.transport.LoginBase = t.LoginBase
		c.transport.APIBase = t.APIBase
	}
}

// WithTOTPSecret configures a shared secret for TOTPPrompt. The secret has no
// effect on logins that supply their own prompt.
func WithTOTPSecret(secret string) ClientOption {
	return func(c *Client) {
		c.totpSecret = secret
	}
}

// NewClient creates a client for the named utility (e.g. "coned").
func NewClient(utilityKey string, options ...ClientOption) (*Client, error) {
	utility, err := SelectUtility(utilityKey)
	if err != nil {
		return nil, err
	}
	c := &Client{
		utility:   utility,
		transport: Transport{HTTPClient: &http.Client{Timeout: requestTimeout}},
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Utility returns the utility this client is bound to.
func (c *Client) Utility() Utility {
	return c.utility
}

// Login implements auth.LoginClient. The supplied prompt answers any
// second-factor challenge; unattended callers pass TOTPPrompt.
func (c *Client) Login(ctx context.Context, username, password string, prompt auth.MFAPrompt) (string, error) {
	if prompt == nil {
		prompt = func(context.Context) (string, error) {
			return "", fmt.Errorf("no second factor available for this login")
		}
	}

	raw, err := c.utility.Login(ctx, &c.transport, username, password, prompt)
	if err != nil {
		return "", err
	}

	token := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	if expiry, err := TokenExpiry(raw); err == nil {
		token.Expiry = expiry
	}
	if !token.Valid() {
		return "", fmt.Errorf("login issued an expired access token")
	}
	log.Info().Str("utility", c.utility.Subdomain()).Time("token_expiry", token.Expiry).Msg("utility login complete")
	return token.AccessToken, nil
}

// TOTPPrompt returns a prompt that generates second-factor codes locally from
// the configured secret, for logins with no human in the loop.
func (c *Client) TOTPPrompt() auth.MFAPrompt {
	return func(ctx context.Context) (string, error) {
		if c.totpSecret == "" {
			return "", fmt.Errorf("no TOTP secret configured")
		}
		code, err := totp.GenerateCode(c.totpSecret, time.Now())
		if err != nil {
			return "", fmt.Errorf("generating TOTP code: %w", err)
		}
		return code, nil
	}
}

// TokenExpiry reads the exp claim from an opower access token. The token is
// not verified here; the resource server does that.
func TokenExpiry(raw string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, fmt.Errorf("parsing access token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("access token has no exp claim")
	}
	return claims.ExpiresAt.Time, nil
}

func (c *Client) apiBase() string {
	if c.transport.APIBase != "" {
		return c.transport.APIBase
	}
	return fmt.Sprintf("https://%s.opower.com", c.utility.Subdomain())
}
