package api

import (
	"os"

	"conduit/config"
	"conduit/controllers"
	"conduit/seed"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

var server = controllers.Server{}

// Run loads configuration, connects everything and serves until killed.
func Run() {
	// Load .env only outside production; deployed config comes from the
	// environment itself.
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	cfg := config.Load()
	log := newLogger(cfg.Log)

	if err := server.Initialize(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("cannot initialize server")
	}

	if cfg.Server.SeedDB {
		if err := seed.Load(server.DB); err != nil {
			log.Error().Err(err).Msg("seeding failed")
		}
	}

	if err := server.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "pretty" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
