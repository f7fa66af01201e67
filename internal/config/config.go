// Package config loads process configuration from the environment
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"github.com/nexuscrm/backoffice/pkg/logging"
)

// Storage drivers for the document store
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// AppName names the per-user data directory
const AppName = "backoffice"

// Config holds every setting the server reads at startup
type Config struct {
	Port    string
	GinMode string

	LogLevel  string
	LogFormat string

	StorageDriver string
	SQLitePath    string
	MySQL         MySQLConfig

	DataDir      string
	ColumnsDir   string
	DefaultsFile string

	JWTSecret string
	TokenTTL  time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
}

// MySQLConfig holds MySQL/TiDB connection settings
type MySQLConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

// Load reads .env files (when present) and the environment
func Load(envFiles ...string) *Config {
	log := logging.For("config")
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, p := range envFiles {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			log.WithError(err).Warnf("⚠️ Failed to load %s", p)
			continue
		}
		log.Infof("📁 Loaded environment from %s", p)
	}

	dataDir := getEnv("DATA_DIR", filepath.Join(xdg.DataHome, AppName))

	return &Config{
		Port:      getEnv("PORT", "3001"),
		GinMode:   getEnv("GIN_MODE", "release"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", DriverSQLite)),
		SQLitePath:    getEnv("SQLITE_PATH", filepath.Join(dataDir, "backoffice.db")),
		MySQL: MySQLConfig{
			Host:     getEnv("TIDB_HOST", "127.0.0.1"),
			Port:     getEnv("TIDB_PORT", "4000"),
			User:     getEnv("TIDB_USER", "root"),
			Password: os.Getenv("TIDB_PASSWORD"),
			Database: getEnv("TIDB_DATABASE", "backoffice"),
		},

		DataDir:      dataDir,
		ColumnsDir:   getEnv("COLUMNS_DIR", filepath.Join(dataDir, "columns")),
		DefaultsFile: os.Getenv("DEFAULTS_FILE"),

		JWTSecret: getEnv("JWT_SECRET", "default-secret-change-in-production"),
		TokenTTL:  getDuration("TOKEN_TTL", 24*time.Hour),

		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 40),
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
