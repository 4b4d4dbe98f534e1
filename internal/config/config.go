package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	Port              string
	GinMode           string
	LogLevel          string
	DBDriver          string
	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBPath            string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	SessionSecret     string
	DirectoryCacheTTL time.Duration
	FirebaseProjectID string
	JWKSURL           string
	AuthHMACSecret    string
	OpenAIAPIKey      string
}

func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8080"),
		GinMode:           getEnv("GIN_MODE", "debug"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DBDriver:          getEnv("DB_DRIVER", "mysql"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBUser:            getEnv("DB_USER", "taskuser"),
		DBPassword:        getEnv("DB_PASSWORD", "taskpassword"),
		DBName:            getEnv("DB_NAME", "task_boards"),
		DBPath:            getEnv("DB_PATH", "task_boards.db"),
		RedisHost:         getEnv("REDIS_HOST", "localhost"),
		RedisPort:         getEnv("REDIS_PORT", "6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		SessionSecret:     getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		DirectoryCacheTTL: getDurationEnv("DIRECTORY_CACHE_TTL", 10*time.Minute),
		FirebaseProjectID: getEnv("FIREBASE_PROJECT_ID", ""),
		JWKSURL:           getEnv("JWKS_URL", ""),
		AuthHMACSecret:    getEnv("AUTH_HMAC_SECRET", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
	}
}

// Validate reports settings that would prevent the server from starting.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be one of mysql, postgres, sqlite (got %q)", c.DBDriver)
	}
	if c.FirebaseProjectID == "" && c.AuthHMACSecret == "" {
		return fmt.Errorf("either FIREBASE_PROJECT_ID or AUTH_HMAC_SECRET must be set")
	}
	if c.DirectoryCacheTTL < 0 {
		return fmt.Errorf("DIRECTORY_CACHE_TTL must not be negative")
	}
	if c.GinMode == "release" && c.SessionSecret == "default-secret-key-change-me" {
		return fmt.Errorf("SESSION_SECRET must be changed in release mode")
	}
	return nil
}

// RedisAddr returns host:port for the Redis server.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		// Validate rejects negative values
		return -1
	}
	return d
}
