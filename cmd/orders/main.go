// Order tracker command-line entry point
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/findosh/ordertrack/internal/cli"
	"github.com/findosh/ordertrack/internal/config"
	"github.com/findosh/ordertrack/internal/logger"
	"github.com/findosh/ordertrack/internal/services/auth"
	"github.com/findosh/ordertrack/internal/services/orders"
	"github.com/findosh/ordertrack/internal/services/session"
	"github.com/findosh/ordertrack/internal/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	// A local .env is optional; real environment variables win.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty || cfg.IsDevelopment(),
	})

	// Initialize database
	db, err := storage.New(cfg.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Str("database", cfg.DatabaseURL).Msg("failed to open database")
		return 1
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Error().Err(err).Msg("failed to run migrations")
		return 1
	}

	// Initialize repositories
	userRepo := storage.NewUserRepository(db)
	orderRepo := storage.NewOrderRepository(db)
	settingsRepo := storage.NewSettingsRepository(db)

	// Initialize services
	tokens := session.NewRememberTokens(cfg.SecretKey, cfg.RememberDuration)
	sessions := session.NewManager(userRepo, settingsRepo, tokens, log)
	authService := auth.NewService(userRepo, sessions, cfg.BcryptCost, log)
	orderService := orders.NewService(orderRepo, log)

	app := cli.New(authService, sessions, orderService, os.Stdout)
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, cli.Message(err))
		if errors.Is(err, cli.ErrUsage) {
			return 2
		}
		return 1
	}
	return 0
}
