/*
Package configs is responsible for loading and parsing the application's configuration settings.

All settings come from environment variables: listening port, running
environment, CORS allowed origins, the session token secret, the identity
database DSN, and the offline backlog cap.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultPort is the listening port used when PORT is not set.
const DefaultPort = 1234

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Security Settings
	AllowedOrigins []string
	JWTSecret      string

	// Identity Database Settings. Empty in development selects the in-memory
	// identity directory.
	DatabaseDSN string

	// OfflineBacklogMax caps the number of pending messages buffered per
	// offline recipient. Zero means unbounded.
	OfflineBacklogMax int
}

// LoadConfig reads and parses the application configuration from environment
// variables, applying defaults and validating each value.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = strconv.Itoa(DefaultPort)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	// --- Security Settings ---
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if cfg.Environment == "development" {
		if jwtSecret == "" {
			jwtSecret = "your_default_insecure_secret_key_change_me"
		}
	} else {
		if jwtSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in %s environment for security", cfg.Environment)
		}
	}
	cfg.JWTSecret = jwtSecret

	// --- Identity Database Settings ---
	cfg.DatabaseDSN = os.Getenv("DATABASE_URL")
	if cfg.DatabaseDSN == "" && cfg.Environment != "development" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required in %s environment", cfg.Environment)
	}

	// --- Relay Settings ---
	backlogStr := os.Getenv("OFFLINE_BACKLOG_MAX")
	if backlogStr == "" {
		backlogStr = "0"
	}
	backlogMax, err := strconv.Atoi(backlogStr)
	if err != nil || backlogMax < 0 {
		return nil, fmt.Errorf("invalid OFFLINE_BACKLOG_MAX environment variable: %q", backlogStr)
	}
	cfg.OfflineBacklogMax = backlogMax

	return cfg, nil
}
