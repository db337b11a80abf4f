package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	APIBaseURL      string
	RealtimeURL     string
	CredentialsPath string
	Port            string
}

// New sets up all config related services
func New() *Config {

	// load a .env if one is present, real env always wins
	_ = godotenv.Load()

	//setup zap logger and replace default logger
	logger, err := setLogger(os.Getenv("APP_ENV"))
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		APIBaseURL:      getEnv("MATCHPOINT_API_URL", "http://localhost:8080"),
		RealtimeURL:     getEnv("MATCHPOINT_REALTIME_URL", "ws://localhost:8080/ws"),
		CredentialsPath: getEnv("MATCHPOINT_CREDENTIALS", defaultCredentialsPath()),
		Port:            getEnv("PORT", "8080"),
	}
}

func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "development":
		return zap.NewDevelopment()
	case "production":
		return zap.NewProduction()
	default:
		return zap.NewExample(), nil
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "matchpoint-credentials.json"
	}
	return filepath.Join(home, ".config", "matchpoint", "credentials.json")
}
