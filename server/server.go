package server

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/skortchmar/livewire/auth"
	"github.com/skortchmar/livewire/electricity"
	"github.com/skortchmar/livewire/internal/config"
	"github.com/skortchmar/livewire/weather"
)

type Server struct {
	env    string // Environment (e.g., "DEV", "production")
	mux    *http.ServeMux
	routes []string
	config config.Config

	auth      *auth.Service
	collector *electricity.Collector
	weather   *weather.Store
	demo      *demoCache

	loginLimiter *ipLimiter
	mfaLimiter   *ipLimiter
}

func New(cfg config.Config, authService *auth.Service, collector *electricity.Collector, weatherStore *weather.Store, demoFetch DemoFetcher) (*Server, error) {
	if authService == nil {
		return nil, errors.New("[Server New] auth service is required")
	}
	if collector == nil {
		return nil, errors.New("[Server New] electricity collector is required")
	}
	if weatherStore == nil {
		return nil, errors.New("[Server New] weather store is required")
	}

	s := &Server{
		mux:          http.NewServeMux(),
		config:       cfg,
		auth:         authService,
		collector:    collector,
		weather:      weatherStore,
		demo:         newDemoCache(demoFetch, cfg.Auth.DemoCacheTTL),
		loginLimiter: newIPLimiter(cfg.HTTP.LoginRatePerMinute),
		mfaLimiter:   newIPLimiter(cfg.HTTP.MFARatePerMinute),
	}
	s.env = cfg.Env

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if !s.config.IsDev() {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			log.Debug().Str("method", parts[0]).Str("path", parts[1]).Msg("route registered")
		} else {
			log.Debug().Str("path", parts[0]).Msg("route registered")
		}
	}
}
