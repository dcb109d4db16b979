package main

import (
	"context"
	"os"
	"os/signal"
	"storefront_server/cli"
	"storefront_server/config"
	"syscall"

	"github.com/MonkyMars/gecho"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.GetConfig()
	logger := config.InitializeLogger()

	if envErr != nil {
		logger.Warn("No .env file found or error loading .env file, proceeding with system environment variables")
	}

	// Cancel running commands on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("Starting", gecho.Field("app", cfg.App.AppName), gecho.Field("environment", cfg.App.Environment))

	if err := cli.Execute(ctx); err != nil {
		logger.Error("Command failed", gecho.Field("error", err))
		stop()
		os.Exit(1)
	}
}
