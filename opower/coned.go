package opower

import (
	"context"
	"fmt"

	"github.com/skortchmar/livewire/auth"
)

func init() {
	RegisterUtility("coned", ConEd{})
}

// ConEd is Consolidated Edison of New York. Its login flow issues an MFA
// challenge for devices the identity provider has not seen before.
type ConEd struct{}

func (ConEd) Name() string        { return "Consolidated Edison (ConEd)" }
func (ConEd) Subdomain() string   { return "cned" }
func (ConEd) Timezone() string    { return "America/New_York" }
func (ConEd) LoginDomain() string { return "www.coned.com" }

const (
	conedLoginPath  = "/sitecore/api/ssc/ConEdWeb-Foundation-Login-Areas-LoginAPI/User/0/Login"
	conedVerifyPath = "/sitecore/api/ssc/ConEdWeb-Foundation-Login-Areas-LoginAPI/User/0/VerifyFactor"
	conedTokenPath  = "/sitecore/api/ssc/ConEdWeb-Foundation-Login-Areas-LoginAPI/User/0/AccessToken"
)

type conedLoginResponse struct {
	Login          bool   `json:"login"`
	NewDevice      bool   `json:"newDevice"`
	NoMFA          bool   `json:"noMfa"`
	LoginErrorMsg  string `json:"loginErrorMsg"`
	AuthRedirectID string `json:"authRedirectId"`
}

type conedVerifyResponse struct {
	Code           bool   `json:"code"`
	AuthRedirectID string `json:"authRedirectId"`
}

type conedTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login drives ConEd's three-step exchange: credentials, an MFA code for new
// devices, and finally the redirect-ticket exchange for an opower access
// token. prompt is invoked at most once.
func (u ConEd) Login(ctx context.Context, t *Transport, username, password string, prompt auth.MFAPrompt) (string, error) {
	var loginResp conedLoginResponse
	err := t.postJSON(ctx, t.loginURL(u, conedLoginPath), map[string]string{
		"LoginEmail":       username,
		"LoginPassword":    password,
		"ReturnUrl":        "/en/accounts-billing/dashboard",
		"OpenIdRelayState": "",
	}, &loginResp)
	if err != nil {
		return "", fmt.Errorf("coned login: %w", err)
	}
	if !loginResp.Login {
		if loginResp.LoginErrorMsg != "" {
			return "", fmt.Errorf("coned login rejected: %s", loginResp.LoginErrorMsg)
		}
		return "", fmt.Errorf("coned login rejected")
	}

	redirectID := loginResp.AuthRedirectID

	if loginResp.NewDevice && !loginResp.NoMFA {
		code, err := prompt(ctx)
		if err != nil {
			return "", err
		}

		var verifyResp conedVerifyResponse
		err = t.postJSON(ctx, t.loginURL(u, conedVerifyPath), map[string]string{
			"MFACode":   code,
			"ReturnUrl": "/en/accounts-billing/dashboard",
		}, &verifyResp)
		if err != nil {
			return "", fmt.Errorf("coned mfa verify: %w", err)
		}
		if !verifyResp.Code {
			return "", fmt.Errorf("coned rejected the MFA code")
		}
		redirectID = verifyResp.AuthRedirectID
	}

	var tokenResp conedTokenResponse
	err = t.postJSON(ctx, t.loginURL(u, conedTokenPath), map[string]string{
		"AuthRedirectId": redirectID,
	}, &tokenResp)
	if err != nil {
		return "", fmt.Errorf("coned token exchange: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("coned token exchange returned no access token")
	}
	return tokenResp.AccessToken, nil
}
