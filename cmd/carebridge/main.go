package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/savegress/carebridge/internal/api"
	"github.com/savegress/carebridge/internal/config"
	"github.com/savegress/carebridge/internal/hl7v2"
	"github.com/savegress/carebridge/internal/mapping"
	"github.com/savegress/carebridge/internal/pipeline"
	"github.com/savegress/carebridge/internal/projector"
	"github.com/savegress/carebridge/internal/risk"
	"github.com/savegress/carebridge/internal/terminology"
)

func main() {
	cfg := loadConfig()

	logger := newLogger(cfg.Server.Environment)
	defer logger.Sync()

	logger.Info("starting carebridge",
		zap.String("environment", cfg.Server.Environment))

	// Terminology mapper with optional remote resolvers
	terms := terminology.NewMapper(logger)
	if cfg.Terminology.RemoteURL != "" {
		for _, system := range cfg.Terminology.RemoteSystems {
			terms.SetResolver(system, terminology.NewRemoteResolver(&terminology.RemoteConfig{
				BaseURL:      cfg.Terminology.RemoteURL,
				TargetSystem: system,
			}, logger))
		}
		logger.Info("remote terminology resolver enabled",
			zap.String("url", cfg.Terminology.RemoteURL),
			zap.Strings("systems", cfg.Terminology.RemoteSystems))
	}

	// Translation components
	sourceMapper := mapping.NewMapper(logger)
	proj := projector.NewProjector(terms, &hl7v2.ParserConfig{
		FieldSeparator:     cfg.Parser.FieldSeparator,
		ComponentSeparator: cfg.Parser.ComponentSeparator,
	}, logger)
	batch := pipeline.NewEngine(sourceMapper, cfg.Pipeline.Workers, logger)
	riskSvc := risk.NewService(logger)

	// API server
	handlers := api.NewHandlers(sourceMapper, proj, terms, batch, riskSvc, logger)
	server := api.NewServer(cfg, handlers)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("carebridge API listening", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down carebridge")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	logger.Info("carebridge stopped")
}

func loadConfig() *config.Config {
	configPath := os.Getenv("CAREBRIDGE_CONFIG")
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err == nil {
			return cfg
		}
		fmt.Fprintf(os.Stderr, "failed to load config from %s: %v, using environment\n", configPath, err)
	}
	return config.LoadFromEnv()
}

func newLogger(environment string) *zap.Logger {
	if environment == "production" {
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return logger
}
