package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/skortchmar/livewire/auth"
	"github.com/skortchmar/livewire/auth/sessions"
	"github.com/skortchmar/livewire/electricity"
	"github.com/skortchmar/livewire/internal/config"
	"github.com/skortchmar/livewire/opower"
	"github.com/skortchmar/livewire/server"
	"github.com/skortchmar/livewire/weather"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func run() error {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setupLogging(cfg)
	displayAppname(cfg.AppName)

	utilityClient, err := opower.NewClient(cfg.Utility.Name, opower.WithTOTPSecret(cfg.Utility.TOTPSecret))
	if err != nil {
		return fmt.Errorf("create utility client: %w", err)
	}

	sessionRepo := sessions.NewInMemoryRepo()
	authService, err := auth.NewService(sessionRepo, utilityClient,
		auth.WithMFATimeout(cfg.Auth.MFATimeout),
		auth.WithTokenTTL(cfg.Auth.TokenTTL),
	)
	if err != nil {
		return fmt.Errorf("create auth service: %w", err)
	}

	collector := electricity.NewCollector(utilityClient)
	weatherStore := weather.NewStore()
	weatherClient := weather.NewClient(cfg.Weather.Latitude, cfg.Weather.Longitude)
	weatherUpdater := weather.NewUpdater(weatherClient, weatherStore, cfg.Weather.UpdateInterval,
		weather.WithDataFolder(cfg.Data.Folder))

	srv, err := server.New(cfg, authService, collector, weatherStore, demoFetcher(cfg, utilityClient, collector))
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{Addr: cfg.HTTP.Addr(), Handler: srv}
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info().Str("addr", httpServer.Addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		return weatherUpdater.Run(groupCtx)
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// demoFetcher logs in with the demo account and collects its dashboard data.
// The TOTP prompt answers the demo account's MFA challenge without a human in
// the loop; interactive sessions keep their own prompt. Returns nil when demo
// mode is not configured, which disables the demo endpoints.
func demoFetcher(cfg config.Config, client *opower.Client, collector *electricity.Collector) server.DemoFetcher {
	if !cfg.Auth.DemoConfigured() {
		return nil
	}
	return func(ctx context.Context) (*electricity.Result, error) {
		token, err := client.Login(ctx, cfg.Auth.DemoUsername, cfg.Auth.DemoPassword, client.TOTPPrompt())
		if err != nil {
			return nil, fmt.Errorf("demo login: %w", err)
		}
		result, err := collector.Collect(ctx, token)
		if err != nil {
			return nil, err
		}
		// Keep the forecast pipeline's training data current.
		if err := electricity.WriteUsageDocument(cfg.Data.Folder, result); err != nil {
			log.Warn().Err(err).Msg("usage export failed")
		}
		return result, nil
	}
}

func setupLogging(cfg config.Config) {
	if cfg.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
