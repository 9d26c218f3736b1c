package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the server needs at startup. It is built once in
// Load and passed by reference; nothing in this package is mutated afterwards.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Cache    CacheConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port   string
	AppEnv string
	SeedDB bool
}

// DatabaseConfig holds the Postgres connection settings. In production a full
// DATABASE_URL wins over the discrete pieces.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	Secret    string
	Algorithm string
	TTL       time.Duration
}

// StorageConfig holds the S3 settings for avatar uploads.
type StorageConfig struct {
	Bucket string
	Region string
}

// CacheConfig holds the Redis settings for the tag cache.
type CacheConfig struct {
	URL  string
	Addr string
	TTL  time.Duration
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:   getEnv("PORT", getEnv("API_PORT", "8080")),
			AppEnv: getEnv("APP_ENV", "development"),
			SeedDB: os.Getenv("SEED_DB") != "",
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "conduit"),
		},
		Auth: AuthConfig{
			Secret:    os.Getenv("JWT_SECRET"),
			Algorithm: getEnv("JWT_ALG", "HS256"),
			TTL:       time.Duration(getIntEnv("JWT_EXP_MINUTES", 1440)) * time.Minute,
		},
		Storage: StorageConfig{
			Bucket: strings.SplitN(os.Getenv("S3_BUCKET"), "/", 2)[0],
			Region: getEnv("AWS_REGION", "us-east-2"),
		},
		Cache: CacheConfig{
			URL:  os.Getenv("REDIS_URL"),
			Addr: os.Getenv("REDIS_ADDR"),
			TTL:  time.Duration(getIntEnv("TAG_CACHE_TTL_MINUTES", 5)) * time.Minute,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Production reports whether the server runs with production settings.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Server.AppEnv, "production")
}

// DSN assembles the Postgres connection string.
func (c *DatabaseConfig) DSN(production bool) string {
	if production && c.URL != "" {
		dsn := c.URL
		if !strings.Contains(dsn, "sslmode=") {
			if strings.Contains(dsn, "?") {
				dsn += "&sslmode=require"
			} else {
				dsn += "?sslmode=require"
			}
		}
		return dsn
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.Host, c.User, c.Password, c.Name, c.Port,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
