package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/skortchmar/livewire/internal/utils"
)

// LoginRequest carries the utility account credentials for a new session.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// MFARequest submits the second-factor code for a pending session.
type MFARequest struct {
	SessionID string `json:"session_id"`
	MFACode   string `json:"mfa_code"`
}

// LoginHandler creates a login session and kicks off the background login
// sequence. The response returns immediately; the client polls the status
// endpoint while the sequence waits for its MFA code.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "Username and password are required")
			return
		}

		// Opportunistic cleanup of sessions whose tokens have aged out.
		if evicted := s.auth.Sweep(); evicted > 0 {
			log.Debug().Int("evicted", evicted).Msg("swept expired sessions")
		}

		sessionID, _ := s.auth.StartLogin(context.WithoutCancel(r.Context()), req.Username, req.Password)

		// A fresh real login supersedes any demo browsing state.
		s.clearCookie(w, r, DemoCookieName)
		s.setSessionCookie(w, r, SessionCookieName, sessionID, s.config.Auth.TokenTTL)

		writeJSON(w, http.StatusOK, map[string]string{
			"session_id": sessionID,
			"status":     "authenticating",
			"message":    "Login started. Submit your MFA code when prompted.",
		})
	}
}

// MFAHandler accepts the second-factor code for a session created by
// LoginHandler.
func (s *Server) MFAHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MFARequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.SessionID == "" || req.MFACode == "" {
			writeError(w, http.StatusBadRequest, "session_id and mfa_code are required")
			return
		}

		if !s.auth.SubmitCode(req.SessionID, req.MFACode) {
			writeError(w, http.StatusBadRequest, "Session not found or expired")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"session_id": req.SessionID,
			"status":     "processing",
			"message":    "MFA code received, completing login",
		})
	}
}

// StatusHandler reports the current state of a login session. Clients poll
// this until the session reaches a terminal state.
func (s *Server) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.PathValue("session_id")
		info, ok := s.auth.Status(sessionID)
		if !ok {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"session_id": sessionID,
			"status":     string(info.Status),
			"error":      utils.PtrIfSet(info.Err),
			"created_at": info.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
}

// DemoLoginHandler flags the browser for demo mode. No session is created;
// demo data requests are served from the shared demo cache.
func (s *Server) DemoLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.config.Auth.DemoConfigured() {
			writeError(w, http.StatusServiceUnavailable, "Demo mode is not configured")
			return
		}

		s.clearCookie(w, r, SessionCookieName)
		s.setSessionCookie(w, r, DemoCookieName, "true", s.config.Auth.TokenTTL)

		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "success",
			"message": "Demo mode enabled",
		})
	}
}
