package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gocausal/internal"
	"gocausal/internal/config"
	"gocausal/internal/container"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, ok := internal.ParseLogLevel(appConfig.LogLevel)
	if !ok {
		log.Printf("Unknown LOG_LEVEL %q, using INFO", appConfig.LogLevel)
	}
	logger := internal.NewLogger(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := container.Serve(ctx, appConfig, logger); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
