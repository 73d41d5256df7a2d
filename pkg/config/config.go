// Package config provides configuration management for bi-import.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Import ImportConfig
	Paths  PathsConfig
	Debug  bool
}

// ImportConfig represents the import preferences.
type ImportConfig struct {
	DateFormat     string
	Encoding       string
	AutoPayInvoice bool
	AutoPayBill    bool
	OpenMode       string
	CacheTTL       time.Duration
}

// PathsConfig represents where data is stored.
type PathsConfig struct {
	Root       string
	DBPath     string
	JournalDir string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	autoPayInvoice, err := parseBoolEnv("BI_IMPORT_AUTO_PAY_INVOICE", false)
	if err != nil {
		return nil, err
	}
	autoPayBill, err := parseBoolEnv("BI_IMPORT_AUTO_PAY_BILL", false)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDurationEnv("BI_IMPORT_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Import: ImportConfig{
			DateFormat:     getEnvOrDefault("BI_IMPORT_DATE_FORMAT", "us"),
			Encoding:       getEnvOrDefault("BI_IMPORT_ENCODING", "utf-8"),
			AutoPayInvoice: autoPayInvoice,
			AutoPayBill:    autoPayBill,
			OpenMode:       getEnvOrDefault("BI_IMPORT_OPEN_MODE", "NO"),
			CacheTTL:       cacheTTL,
		},
		Paths: PathsConfig{
			Root:       getEnvOrDefault("BI_IMPORT_ROOT", "./books"),
			DBPath:     os.Getenv("BI_IMPORT_DB_PATH"),
			JournalDir: os.Getenv("BI_IMPORT_JOURNAL_DIR"),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate validates the configuration.
// It checks if all required fields are set.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "paths":
			switch path[1] {
			case "root":
				value = c.Paths.Root
			case "dbPath":
				value = c.Paths.DBPath
			case "journalDir":
				value = c.Paths.JournalDir
			}
		case "import":
			switch path[1] {
			case "dateFormat":
				value = c.Import.DateFormat
			case "encoding":
				value = c.Import.Encoding
			case "openMode":
				value = c.Import.OpenMode
			}
		}

		if value == "" {
			missing = append(missing, strings.Join(path, "."))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseBoolEnv parses a bool from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean value for %s: %s", key, value)
	}

	return parsed, nil
}

// parseDurationEnv parses a duration such as "5m" from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value for %s: %s", key, value)
	}

	return parsed, nil
}
