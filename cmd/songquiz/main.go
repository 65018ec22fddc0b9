// Command songquiz runs the song quiz API server.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/justestif/songquiz/internal/auth"
	"github.com/justestif/songquiz/internal/config"
	"github.com/justestif/songquiz/internal/db"
	"github.com/justestif/songquiz/internal/game"
	"github.com/justestif/songquiz/internal/migrate"
	"github.com/justestif/songquiz/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	if err := migrate.Up(ctx, cfg.DatabaseURL); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	authenticator := auth.NewAuthenticator(cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.SpotifyRedirectURI)
	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret), auth.DefaultTokenTTL)
	tokens := auth.NewTokenManager(authenticator, database.Users())

	svc := game.New(database.Snapshots(), database.Attempts(), tokens, game.Options{
		ShareBaseURL: cfg.FrontendURL,
	})

	handlers := web.NewHandlers(authenticator, database.Users(), issuer, tokens, svc, cfg.FrontendURL, logger)
	server := web.NewServer(web.ServerConfig{
		Addr:        cfg.ServerAddr,
		FrontendURL: cfg.FrontendURL,
	}, handlers, logger)

	return server.Run()
}
