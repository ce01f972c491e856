// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Admin       AdminConfig
	Log         LogConfig
	CORS        CORSConfig
	RateLimit   RateLimitConfig
	AWS         AWSConfig
	Storage     StorageConfig
	RabbitMQ    RabbitMQConfig
	Recommender RecommenderConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
	// TrustedProxies may set X-Forwarded-For; empty trusts none
	TrustedProxies []string
}

type DatabaseConfig struct {
	Driver       string // postgres | sqlite
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	SQLitePath   string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
	Seed         bool
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL int // in hours
	Issuer         string
}

// AdminConfig describes the catalog manager account created by the seeder.
type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

type LogConfig struct {
	Level  string
	Format string // text | json
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	Enabled        bool
	RequestsPerSec float64
	Burst          int
	AuthPerMinute  int
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	PublicURL       string
}

type StorageConfig struct {
	LocalDir        string
	PublicBaseURL   string
	MaxUploadMB     int
	AllowedImageExt []string
}

type RabbitMQConfig struct {
	URL string
}

type RecommenderConfig struct {
	BaseURL string
	Timeout time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "5000"),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:    getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:   getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:    getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES", nil),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "readsphere"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			SQLitePath:   getEnv("DB_SQLITE_PATH", "readsphere.db"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
			Seed:         getEnvAsBool("DB_SEED", false),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 24*7), // 7 days
			Issuer:         getEnv("JWT_ISSUER", "readsphere"),
		},
		Admin: AdminConfig{
			Name:     getEnv("ADMIN_NAME", "ReadSphere Admin"),
			Email:    getEnv("ADMIN_EMAIL", "admin@readsphere.com"),
			Password: getEnv("ADMIN_PASSWORD", "admin123456"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("FRONTEND_URL", []string{"http://localhost:3000"}),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerSec: getEnvAsFloat("RATE_LIMIT_RPS", 10),
			Burst:          getEnvAsInt("RATE_LIMIT_BURST", 20),
			AuthPerMinute:  getEnvAsInt("RATE_LIMIT_AUTH_PER_MINUTE", 10),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "readsphere-covers"),
			PublicURL:       getEnv("AWS_PUBLIC_URL", ""),
		},
		Storage: StorageConfig{
			LocalDir:        getEnv("STORAGE_LOCAL_DIR", "./uploads"),
			PublicBaseURL:   getEnv("STORAGE_PUBLIC_BASE_URL", "http://localhost:5000/uploads"),
			MaxUploadMB:     getEnvAsInt("STORAGE_MAX_UPLOAD_MB", 5),
			AllowedImageExt: []string{".jpg", ".jpeg", ".png", ".webp"},
		},
		RabbitMQ: RabbitMQConfig{
			URL: getEnv("RABBITMQ_URL", ""),
		},
		Recommender: RecommenderConfig{
			BaseURL: getEnv("RECOMMENDER_URL", ""),
			Timeout: time.Duration(getEnvAsInt("RECOMMENDER_TIMEOUT_MS", 3000)) * time.Millisecond,
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == defaultJWTSecret && c.IsProduction() {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Database.Driver == "postgres" && c.Database.Password == "" && c.IsProduction() {
		return fmt.Errorf("database password is required in production")
	}

	if c.JWT.AccessTokenTTL <= 0 {
		return fmt.Errorf("JWT access token TTL must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
