// Package main is the shelftalk server entry point.
//
// Wire-up order: config, database, broker (with the optional cross-process
// bridge), repositories, services, handlers, routes, HTTP server, graceful
// shutdown. No globals; everything is built here and handed down.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mkaraca/shelftalk/broker"
	"github.com/mkaraca/shelftalk/config"
	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/middleware"
	"github.com/mkaraca/shelftalk/pkg"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := log.With().Str("service", "shelftalk").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.New(cfg.Database.Path, database.Migrations())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	store, err := pkg.NewBlobStore(cfg.Upload.Dir, cfg.Upload.MaxSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize blob store")
	}

	// Broker: local delivery always; the Postgres bridge makes fan-out reach
	// sibling processes when configured.
	b := broker.NewLocalBroker(logger)
	var bridge *broker.PgBridge
	if cfg.Broker.PostgresURL != "" {
		bridge, err = broker.NewPgBridge(context.Background(), cfg.Broker.PostgresURL, b, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect broker bridge")
		}
		b.SetBridge(bridge)
		logger.Info().Msg("cross-process fan-out enabled")
	} else {
		logger.Info().Msg("running with process-local delivery only")
	}

	repos := initRepositories(db.Conn)
	svcs := initServices(db.Conn, repos, b, cfg, logger)
	h := initHandlers(svcs, b, store, cfg, logger)

	mux := http.NewServeMux()
	authMw := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	initRoutes(mux, h, authMw)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      corsHandler.Handler(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info().Str("addr", cfg.Server.Addr()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-done
	logger.Info().Msg("shutting down")

	if bridge != nil {
		bridge.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("forced shutdown")
	}
	logger.Info().Msg("server stopped")
}
