package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/mireva/tete/internal/adapter/driven/gateway/ws"
	filestore "github.com/mireva/tete/internal/adapter/driven/persistence/file"
	memstore "github.com/mireva/tete/internal/adapter/driven/persistence/memory"
	handler "github.com/mireva/tete/internal/adapter/driving/http"
	"github.com/mireva/tete/internal/config"
	"github.com/mireva/tete/internal/core/port"
	"github.com/mireva/tete/internal/core/service"
)

func main() {
	flags := pflag.NewFlagSet("tete-server", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to YAML config file")
	addr := flags.String("addr", "", "listen address (overrides config)")
	storePath := flags.String("store", "", "state file path (overrides config)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		os.Exit(2)
	}

	w := zerolog.ConsoleWriter{Out: os.Stdout}
	l := zerolog.New(w).With().Timestamp().Caller().Logger()
	zlog.Logger = l

	cfg, err := config.Load(*configPath)
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to load config")
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if flags.Changed("store") {
		cfg.StorePath = *storePath
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	var store port.Store
	if cfg.StorePath == "" {
		l.Warn().Msg("No store path configured, state will not survive restarts")
		store = memstore.NewStore()
	} else {
		store = filestore.NewStore(cfg.StorePath)
	}

	registry := service.NewRegistry()
	state, err := store.Load(context.Background())
	if err != nil {
		l.Warn().Err(err).Msg("Failed to load store, starting empty")
	} else {
		registry.Restore(state)
	}

	hub := ws.NewHub()
	persist := service.NewPersister(store, registry)
	sessionService := service.NewSessionService(registry, hub, persist)
	relayService := service.NewRelayService(registry, hub)
	h := handler.NewHandler(sessionService, relayService, registry, hub)

	go persist.Run()

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: h.NewRouter(),
	}

	go func() {
		l.Info().Str("addr", cfg.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	l.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("Server forced to shutdown")
	}

	hub.Stop()
	persist.Stop()
	if err := persist.SaveNow(ctx); err != nil {
		l.Error().Err(err).Msg("Final state flush failed")
	}
	l.Info().Msg("Server exited")
}
