package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"barangay-registry/utils"
)

var (
	config     *Config
	configOnce sync.Once
)

// Store backends
const (
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// Password schemes accepted by utils.HashPassword
const (
	SchemePBKDF2 = utils.SchemePBKDF2
	SchemeBcrypt = utils.SchemeBcrypt
)

// Config stores all configuration of the application
type Config struct {
	// Environment type
	EnvType string

	// Store backend: "redis"(default) or "badger"
	StoreBackend string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int

	// Badger
	BadgerPath     string
	BadgerInMemory bool

	// Registry
	Barangay             string
	ValidateHouseholdRef bool // reject residents that point at a missing household

	// Users
	PasswordScheme       string
	DefaultAdminPassword string
	DefaultAdminEmail    string

	// Logging
	LogDir       string
	LogLevel     string
	LogMaxSizeMB int
	LogMaxFiles  int

	// Metrics listen address, empty disables the endpoint
	MetricsAddr string
}

// LoadConfig loads config from environment variables based on ENV_TYPE
func LoadConfig() *Config {
	// Get environment type (default to LOCAL if not set)
	envType := getEnv("ENV_TYPE", "LOCAL")
	prefix := ""

	// Set prefix based on environment type
	if strings.ToUpper(envType) == "LOCAL" {
		prefix = "LOCAL_"
	} else if strings.ToUpper(envType) == "SERVER" {
		prefix = "SERVER_"
	} else {
		fmt.Printf("Warning: Unknown ENV_TYPE '%s', defaulting to LOCAL environment\n", envType)
		prefix = "LOCAL_"
		envType = "LOCAL"
	}

	return &Config{
		EnvType: envType,

		StoreBackend: strings.ToLower(getEnv(prefix+"STORE_BACKEND", getEnv("STORE_BACKEND", BackendRedis))),

		// Redis config - environment-specific variables win
		RedisHost:     getEnv(prefix+"REDIS_HOST", getEnv("REDIS_HOST", "localhost")),
		RedisPort:     getEnv(prefix+"REDIS_PORT", getEnv("REDIS_PORT", "6379")),
		RedisPassword: getEnv(prefix+"REDIS_PASSWORD", getEnv("REDIS_PASSWORD", "")),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		RedisPoolSize: getEnvAsInt("REDIS_POOL_SIZE", 10),

		BadgerPath:     getEnv(prefix+"BADGER_PATH", getEnv("BADGER_PATH", "data/registry")),
		BadgerInMemory: getEnvAsBool("BADGER_IN_MEMORY", false),

		Barangay:             getEnv("BARANGAY", "Kabacsanan"),
		ValidateHouseholdRef: getEnvAsBool("VALIDATE_HOUSEHOLD_REF", false),

		PasswordScheme:       strings.ToLower(getEnv("PASSWORD_SCHEME", SchemePBKDF2)),
		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", ""),
		DefaultAdminEmail:    getEnv("DEFAULT_ADMIN_EMAIL", "admin@barangaykabacsanan.gov.ph"),

		LogDir:       getEnv("LOG_DIR", "logs"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogMaxSizeMB: getEnvAsInt("LOG_MAX_SIZE_MB", 10),
		LogMaxFiles:  getEnvAsInt("LOG_MAX_FILES", 5),

		MetricsAddr: getEnv(prefix+"METRICS_ADDR", getEnv("METRICS_ADDR", "")),
	}
}

// GetConfig returns the application configuration as a singleton
func GetConfig() *Config {
	configOnce.Do(func() {
		config = LoadConfig()
	})
	return config
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendRedis, BackendBadger:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.PasswordScheme {
	case SchemePBKDF2, SchemeBcrypt:
	default:
		return fmt.Errorf("unknown PASSWORD_SCHEME %q", c.PasswordScheme)
	}
	if strings.TrimSpace(c.Barangay) == "" {
		return fmt.Errorf("BARANGAY must not be empty")
	}
	return nil
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// Helper function to get environment variable with default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as integer with default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as boolean with default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
