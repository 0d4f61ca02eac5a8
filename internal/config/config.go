package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN             string        // empty means in-memory appointment store
	Environment       string        // development | production
	HTTPAddr          string        // listen address for the turn API
	TelegramToken     string        // optional Telegram front-end
	GoogleAPIKey      string        // optional Gemini extraction fallback
	ClassifierTimeout time.Duration // budget for one fallback call
}

// Load reads configuration from the environment, preferring a local .env
// file when present.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := &Config{
		DBDSN:             os.Getenv("DB_DSN"),
		Environment:       os.Getenv("ENV"),
		HTTPAddr:          os.Getenv("HTTP_ADDR"),
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		GoogleAPIKey:      os.Getenv("GOOGLE_API_KEY"),
		ClassifierTimeout: 5 * time.Second,
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if raw := os.Getenv("CLASSIFIER_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			log.Printf("invalid CLASSIFIER_TIMEOUT %q, keeping default", raw)
		} else {
			cfg.ClassifierTimeout = d
		}
	}

	return cfg, nil
}
