package config

import (
	"os"
	"strconv"
	"strings"

	"gocausal/domain/causal"
	"gocausal/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Discovery DiscoveryConfig
	Data      DataConfig
	LogLevel  string
}

// DatabaseConfig holds database connection settings. An empty URL keeps run
// records in memory.
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether a Postgres run repository should be used
func (d DatabaseConfig) Enabled() bool { return d.URL != "" }

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DiscoveryConfig holds the default discovery parameters
type DiscoveryConfig struct {
	Alpha         float64
	Depth         causal.Limit
	MaxPathLength causal.Limit
	Workers       int
	Verbose       bool
}

// Params converts the defaults into run parameters
func (d DiscoveryConfig) Params() causal.Params {
	return causal.Params{
		Alpha:         d.Alpha,
		Depth:         d.Depth,
		MaxPathLength: d.MaxPathLength,
		Workers:       d.Workers,
		Verbose:       d.Verbose,
	}
}

// DataConfig holds data ingestion settings. An empty Sheet reads the first sheet.
// The API settings apply to http(s) sources.
type DataConfig struct {
	File  string
	Sheet string

	APIDataPath   string
	APIToken      string
	APIPagination string
	APIPageSize   int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	discovery, err := loadDiscoveryConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load discovery configuration")
	}

	pageSize, err := getEnvInt("DATA_API_PAGE_SIZE", 100)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Database:  DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Server:    *loadServerConfig(),
		Discovery: *discovery,
		Data: DataConfig{
			File:          getEnvOrDefault("DATA_FILE", ""),
			Sheet:         os.Getenv("DATA_SHEET"),
			APIDataPath:   os.Getenv("DATA_API_PATH"),
			APIToken:      os.Getenv("DATA_API_TOKEN"),
			APIPagination: getEnvOrDefault("DATA_API_PAGINATION", "none"),
			APIPageSize:   pageSize,
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadDiscoveryConfig() (*DiscoveryConfig, error) {
	alpha, err := getEnvFloat("DISCOVERY_ALPHA", causal.DefaultAlpha)
	if err != nil {
		return nil, err
	}
	depth, err := getEnvLimit("DISCOVERY_DEPTH")
	if err != nil {
		return nil, err
	}
	pathLength, err := getEnvLimit("DISCOVERY_MAX_PATH_LENGTH")
	if err != nil {
		return nil, err
	}
	workers, err := getEnvInt("DISCOVERY_WORKERS", 1)
	if err != nil {
		return nil, err
	}

	return &DiscoveryConfig{
		Alpha:         alpha,
		Depth:         depth,
		MaxPathLength: pathLength,
		Workers:       workers,
		Verbose:       getEnvBoolOrDefault("DISCOVERY_VERBOSE", false),
	}, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT must not be empty")
	}
	if err := config.Discovery.Params().Validate(nil); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.ConfigInvalid(key + " must be an integer")
	}
	return intValue, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(key + " must be a number")
	}
	return floatValue, nil
}

func getEnvLimit(key string) (causal.Limit, error) {
	limit, err := causal.ParseLimit(os.Getenv(key))
	if err != nil {
		return 0, errors.ConfigInvalid(key + ": " + err.Error())
	}
	return limit, nil
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
