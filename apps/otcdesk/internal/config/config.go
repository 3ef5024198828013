package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DbURL             string
	KafkaBroker       string
	KafkaTopic        string
	APIPort           int
	PromoCheckTimeout time.Duration
}

// NewConfig loads configuration from environment variables
func NewConfig() *Config {
	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	return &Config{
		DbURL:             getEnvOrFatal("DB_URL"),
		KafkaBroker:       getEnvOrFatal("KAFKA_BROKER"),
		KafkaTopic:        getEnvOrFatal("KAFKA_TOPIC"),
		APIPort:           getEnvInt("API_PORT", 8080),
		PromoCheckTimeout: time.Duration(getEnvInt("PROMO_CHECK_TIMEOUT_MS", 5000)) * time.Millisecond,
	}
}

func getEnvOrFatal(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	log.Fatalf("Warning: environment variable %s not set", key)

	return ""
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
