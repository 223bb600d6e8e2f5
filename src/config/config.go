package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// Chain reconstruction
	RollWindowDays   int
	OptionSoldPolicy string

	// Premium reconciliation
	PremiumWorkers int
	ReportCacheTTL time.Duration

	// Request rate limiting
	RateLimitRPS   float64
	RateLimitBurst int
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	// 1. Try loading from the current directory (standard behavior)
	errEnv := godotenv.Load()

	// 2. If not found, try loading from the parent directory
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")
	Cfg = fromEnv()

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, RollWindowDays=%d, OptionSoldPolicy=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.RollWindowDays, Cfg.OptionSoldPolicy)
}

func fromEnv() *AppConfig {
	policy := strings.ToLower(strings.TrimSpace(getEnv("OPTION_SOLD_POLICY", "open")))
	if policy != "open" && policy != "close" {
		log.Printf("WARNING: Invalid OPTION_SOLD_POLICY '%s'. Using default 'open'.", policy)
		policy = "open"
	}

	rollWindow := getEnvAsInt("ROLL_WINDOW_DAYS", 1)
	if rollWindow < 0 {
		log.Printf("WARNING: Negative ROLL_WINDOW_DAYS '%d'. Using default 1.", rollWindow)
		rollWindow = 1
	}

	return &AppConfig{
		// Core
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./wheelbook.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		// Chains
		RollWindowDays:   rollWindow,
		OptionSoldPolicy: policy,

		// Premium
		PremiumWorkers: getEnvAsInt("PREMIUM_WORKERS", 4),
		ReportCacheTTL: getEnvAsDuration("REPORT_CACHE_TTL", 15*time.Minute),

		// Rate limiting
		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 30),
	}
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil && value > 0 {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
