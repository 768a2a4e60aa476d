package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gokatarajesh/question-bank/internal/app"
	"github.com/gokatarajesh/question-bank/internal/config"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = "configs/.env"
	}
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", envFile).Msg("could not load env file")
		}
	}

	loadCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	cfg, err := config.Load(loadCtx)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	instance, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store_driver", cfg.Store.Driver).Msg("failed to build app")
	}

	if err := instance.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("runtime error")
	}
}
