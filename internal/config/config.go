package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backends selectable through STORAGE_BACKEND.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

// Config holds all configuration for the application.
type Config struct {
	// Storage
	StorageBackend string
	StorageKey     string // Name of the single slot holding every saved order
	StorageFile    string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// MongoDB
	MongoURI    string
	MongoDbName string

	// PostgreSQL
	DatabaseURL string

	// AWS S3
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string
	AwsS3Endpoint      string // Optional, for S3 compatible stores

	// Server
	ApiHost        string
	ApiPort        string
	ServiceApiPort string

	// Logging and collaborators
	LogLevel         string
	LogNotifications string // File path; empty disables the file sink
	MockServices     bool

	// New order template
	DefaultPaymentTerms  string
	DefaultDeliveryTerms string
	DefaultUnit          string

	// Rate Limiting
	RateLimitBucketSize int
	RateLimitRefillRate int // tokens per second
}

// Load configuration from environment variables, reading .env first when present.
func Load() (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{}
	var err error

	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists || value == "" {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	cfg.StorageBackend = strings.ToLower(getEnv("STORAGE_BACKEND", BackendFile))
	cfg.StorageKey = getEnv("STORAGE_KEY", "savedPurchaseOrders")
	cfg.StorageFile = getEnv("STORAGE_FILE", "./data/po-store.json")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "purchase_orders")
	cfg.AwsRegion = getEnv("AWS_REGION", "")
	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsS3Endpoint = getEnv("AWS_S3_ENDPOINT", "")
	cfg.ApiHost = getEnv("API_HOST", "127.0.0.1")
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.ServiceApiPort = getEnv("SERVICE_API_PORT", "12345")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogNotifications = getEnv("LOG_NOTIFICATIONS", "")
	cfg.DefaultPaymentTerms = getEnv("DEFAULT_PAYMENT_TERMS", "")
	cfg.DefaultDeliveryTerms = getEnv("DEFAULT_DELIVERY_TERMS", "")
	cfg.DefaultUnit = getEnv("DEFAULT_UNIT", "EA")

	if cfg.StorageKey == "" {
		return nil, fmt.Errorf("invalid STORAGE_KEY: must not be empty")
	}

	cfg.MockServices, err = strconv.ParseBool(getEnv("MOCK_SERVICES", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid MOCK_SERVICES: %w", err)
	}

	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.RateLimitBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_BUCKET_SIZE", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_REFILL_RATE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REFILL_RATE: %w", err)
	}

	// Backend specific settings are only required when that backend is selected.
	switch cfg.StorageBackend {
	case BackendFile:
		if cfg.StorageFile == "" {
			return nil, fmt.Errorf("invalid STORAGE_FILE: must not be empty for the file backend")
		}
	case BackendMemory, BackendRedis:
	case BackendMongo:
		cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
		if err != nil {
			return nil, err
		}
	case BackendPostgres:
		cfg.DatabaseURL, err = getRequiredEnv("DATABASE_URL")
		if err != nil {
			return nil, err
		}
	case BackendS3:
		cfg.AwsS3Bucket, err = getRequiredEnv("AWS_S3_BUCKET")
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND: %q", cfg.StorageBackend)
	}

	return cfg, nil
}

// ApiAddr is the listen address of the local HTTP bridge.
func (c *Config) ApiAddr() string {
	return c.ApiHost + ":" + c.ApiPort
}
