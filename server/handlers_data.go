package server

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	interrors "github.com/skortchmar/livewire/internal/errors"
	"github.com/skortchmar/livewire/forecast"
)

// PreflightHandler answers same-origin OPTIONS requests; cross-origin
// preflights are short-circuited by CorsMiddleware before reaching it.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// HealthHandler reports process liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// ElectricityDataHandler serves usage and bill forecast data. Demo-mode
// browsers get shared cached data; authenticated browsers trigger a live
// collection against their session's access token.
func (s *Server) ElectricityDataHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, demo := cookieValue(r, DemoCookieName); demo {
			result, err := s.demo.Get(r.Context())
			if err != nil {
				log.Error().Err(err).Msg("demo data collection failed")
				writeError(w, http.StatusBadGateway, "Demo data is temporarily unavailable")
				return
			}
			writeJSON(w, http.StatusOK, result)
			return
		}

		sessionID, ok := cookieValue(r, SessionCookieName)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		token, ok := s.auth.ValidToken(sessionID)
		if !ok {
			s.clearCookie(w, r, SessionCookieName)
			writeError(w, http.StatusUnauthorized, "Session expired, please log in again")
			return
		}

		result, err := s.collector.Collect(r.Context(), token)
		if err != nil {
			switch {
			case interrors.Is(err, interrors.ErrNoAccessToken):
				s.clearCookie(w, r, SessionCookieName)
				writeError(w, http.StatusUnauthorized, "Access token expired, please log in again")
			case interrors.Is(err, interrors.ErrNoAccounts), interrors.Is(err, interrors.ErrNoElectricAccount):
				writeError(w, http.StatusNotFound, "No electric account found for this login")
			default:
				log.Error().Err(err).Msg("electricity collection failed")
				writeError(w, http.StatusBadGateway, "Failed to collect electricity data")
			}
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// WeatherDataHandler serves the most recent weather document collected by the
// background updater.
func (s *Server) WeatherDataHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, ok := s.weather.Get()
		if !ok {
			writeError(w, http.StatusServiceUnavailable, "Weather data not collected yet")
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

// PredictionsHandler serves the artifact written by the forecast pipeline.
// The file is produced offline, so a missing file means the pipeline has not
// run for this data folder yet.
func (s *Server) PredictionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(s.config.Data.Folder, forecast.PredictionsFileName)
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				writeError(w, http.StatusNotImplemented, "Predictions not generated yet")
				return
			}
			log.Error().Err(err).Str("path", path).Msg("failed to read predictions")
			writeError(w, http.StatusInternalServerError, "Failed to read predictions")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
	}
}
