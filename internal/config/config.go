package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	NodeEnv      string
	Port         string
	JWTSecret    string
	StoreDriver  string
	CORSOrigins  []string
	LabelBaseURL string
	Database     DatabaseConfig

	// Optional first admin account, created at startup if missing
	AdminUsername string
	AdminPassword string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Silent   bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	driver := getEnv("STORE_DRIVER", StorePostgres)
	if driver != StorePostgres && driver != StoreMemory {
		return nil, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StorePostgres, StoreMemory, driver)
	}

	return &Config{
		NodeEnv:       getEnv("NODE_ENV", "development"),
		Port:          getEnv("PORT", "3001"),
		JWTSecret:     jwtSecret,
		StoreDriver:   driver,
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "*")),
		LabelBaseURL:  strings.TrimRight(getEnv("LABEL_BASE_URL", "http://localhost:3001/track"), "/"),
		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "fleetgo"),
			Silent:   getEnv("DB_SILENT", "false") == "true",
		},
	}, nil
}

// IsProduction reports whether NODE_ENV is production
func (c *Config) IsProduction() bool {
	return c.NodeEnv == "production"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
