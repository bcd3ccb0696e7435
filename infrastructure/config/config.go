package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	EventBusName  string

	// Lambda configuration
	IsLambda bool

	// Logging
	LogLevel string

	// Authentication
	JWTSecret string
	JWTIssuer string
	JWTExpiry time.Duration

	// Login credentials for the token endpoint. One configured user
	// is enough for this single-tenant deployment.
	AuthUserID   string
	AuthEmail    string
	AuthUsername string
	AuthPassword string

	// Feature flags
	EnableQueue   bool // publish trigger events instead of running flows inline
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
	UseMemoryStore bool // in-memory persistence for local runs
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", "mailflow"),
		EventBusName:  getEnv("EVENT_BUS_NAME", "mailflow-events"),

		IsLambda: os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "",

		LogLevel: getEnv("LOG_LEVEL", "info"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "mailflow"),
		JWTExpiry: getEnvDuration("JWT_EXPIRY", 24*time.Hour),

		AuthUserID:   getEnv("AUTH_USER_ID", "user-1"),
		AuthEmail:    getEnv("AUTH_EMAIL", "admin@example.com"),
		AuthUsername: getEnv("AUTH_USERNAME", "admin"),
		AuthPassword: getEnv("AUTH_PASSWORD", ""),

		EnableQueue:    getEnvBool("ENABLE_QUEUE", true),
		EnableMetrics:  getEnvBool("ENABLE_METRICS", false),
		EnableTracing:  getEnvBool("ENABLE_TRACING", false),
		EnableCORS:     getEnvBool("ENABLE_CORS", true),
		UseMemoryStore: getEnvBool("USE_MEMORY_STORE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.AuthPassword == "" {
			return fmt.Errorf("AUTH_PASSWORD is required in production")
		}
		if !c.UseMemoryStore && c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required")
		}
		if c.EnableQueue && c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required when the queue is enabled")
		}
	}
	return nil
}

// IsDevelopment reports whether this is a development run.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether this is a production run.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
