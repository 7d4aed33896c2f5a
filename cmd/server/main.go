package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/deckflash/internal/api"
	"github.com/vytor/deckflash/internal/config"
	"github.com/vytor/deckflash/internal/db"
	"github.com/vytor/deckflash/internal/logger"
	"github.com/vytor/deckflash/internal/repository/sqlite"
	"github.com/vytor/deckflash/internal/services"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(cfg.LogColors),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	log.Info("DeckFlash server starting")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("default_quiz_size=%d", cfg.DefaultQuizSize)
	log.Debug("max_quiz_size=%d", cfg.MaxQuizSize)
	log.Debug("duplicate_threshold=%.2f", cfg.DuplicateThreshold)
	log.Debug("duplicate_limit=%d", cfg.DuplicateLimit)
	if cfg.RandomSeed != 0 {
		log.Warn("RANDOM_SEED is set, session order is reproducible")
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	cards := sqlite.NewCardRepository(database.DB)
	decks := sqlite.NewDeckRepository(database.DB)
	users := sqlite.NewUserRepository(database.DB)
	results := sqlite.NewResultRepository(database.DB)

	opts := services.OptionsFromConfig(cfg)
	srv := api.NewServer(
		services.NewQuizService(cards, decks, users, results, opts),
		services.NewDeckService(decks, cards, opts),
		services.NewUserService(users, results, opts),
		database,
	)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		log.Info("received signal %v, initiating graceful shutdown", sig)
	case err := <-serveErr:
		if err != nil {
			log.Error("HTTP server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}
	log.Info("DeckFlash server stopped")
}
