package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"gotier/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Paths    PathConfig
	Build    BuildConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	APIPort string
	GinMode string
}

// PathConfig holds file system paths
type PathConfig struct {
	PolicyFile   string
	SnapshotFile string
	AuditLog     string
	EvidenceDir  string
}

// BuildConfig holds classification build settings
type BuildConfig struct {
	Workers int
}

// Load reads configuration from environment variables and validates it.
// A .env file in the working directory is merged in first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			APIPort: getEnvOrDefault("API_PORT", "8081"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Paths: PathConfig{
			PolicyFile:   getEnvOrDefault("POLICY_FILE", "policy.yaml"),
			SnapshotFile: getEnvOrDefault("SNAPSHOT_FILE", "snapshot.yaml"),
			AuditLog:     getEnvOrDefault("AUDIT_LOG", "audit.jsonl"),
			EvidenceDir:  getEnvOrDefault("EVIDENCE_DIR", "evidence"),
		},
		Build: BuildConfig{
			Workers: getEnvIntOrDefault("BUILD_WORKERS", 4),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Paths.PolicyFile == "" {
		return errors.ConfigInvalid("policy file path is required")
	}
	if config.Paths.SnapshotFile == "" {
		return errors.ConfigInvalid("snapshot file path is required")
	}
	if config.Build.Workers < 1 {
		return errors.ConfigInvalid("BUILD_WORKERS must be at least 1")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
