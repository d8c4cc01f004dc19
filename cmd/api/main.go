package main

import (
	"context"
	"os"

	"github.com/deptcms/portal/internal/pkg/logger"
	"github.com/deptcms/portal/internal/server"
	"github.com/joho/godotenv"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	// A .env file is optional; real environment variables win
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	srv, err := server.NewServer(context.Background(), configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
