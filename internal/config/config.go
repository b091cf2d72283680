// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	Environment  string
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Auth         AuthConfig
	Redis        RedisConfig
	AWS          AWSConfig
	Storage      StorageConfig
	Payment      PaymentConfig
	Order        OrderConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
	Log          LogConfig
	Telemetry    TelemetryConfig
	I18n         I18nConfig
	SeedDemoData bool
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
	AuditLog     bool
}

type DatabaseConfig struct {
	Driver       string // pgx, postgres (lib/pq) or sqlite
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
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL int // in hours
}

type AuthConfig struct {
	RequireStrongPassword bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

type StorageConfig struct {
	LocalDir      string
	PublicBaseURL string
	MaxImageSize  int64 // in bytes
}

type PaymentConfig struct {
	Provider             string // stub or stripe
	StripeSecretKey      string
	StripePublishableKey string
	Currency             string
}

type OrderConfig struct {
	MinAddressLength int
	EnforceLivePrice bool
}

type CORSConfig struct {
	AllowedOrigins []string
	MaxAgeHours    int
}

type RateLimitConfig struct {
	Enabled        bool
	Backend        string // memory or redis
	RequestsPerMin int
	Burst          int
	AuthPerMin     int
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

type TelemetryConfig struct {
	Enabled     bool
	ServiceName string
	Exporter    string // stdout or none
}

type I18nConfig struct {
	DefaultLocale string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			AuditLog:     getEnvAsBool("AUDIT_LOG_ENABLED", true),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "pgx"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "marketplace"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			SQLitePath:   getEnv("DB_SQLITE_PATH", "marketplace.db"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 24), // 24 hours
		},
		Auth: AuthConfig{
			RequireStrongPassword: getEnvAsBool("AUTH_REQUIRE_STRONG_PASSWORD", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "marketplace-product-images"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		Storage: StorageConfig{
			LocalDir:      getEnv("STORAGE_LOCAL_DIR", "./uploads"),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080/uploads"),
			MaxImageSize:  int64(getEnvAsInt("STORAGE_MAX_IMAGE_MB", 10)) * 1024 * 1024,
		},
		Payment: PaymentConfig{
			Provider:             getEnv("PAYMENT_PROVIDER", "stub"),
			StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			StripePublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			Currency:             getEnv("PAYMENT_CURRENCY", "idr"),
		},
		Order: OrderConfig{
			MinAddressLength: getEnvAsInt("ORDER_MIN_ADDRESS_LENGTH", 10),
			EnforceLivePrice: getEnvAsBool("ORDER_ENFORCE_LIVE_PRICE", false),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			MaxAgeHours:    getEnvAsInt("CORS_MAX_AGE_HOURS", 12),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvAsBool("RATE_LIMIT_ENABLED", true),
			Backend:        getEnv("RATE_LIMIT_BACKEND", "memory"),
			RequestsPerMin: getEnvAsInt("RATE_LIMIT_REQUESTS_PER_MIN", 600),
			Burst:          getEnvAsInt("RATE_LIMIT_BURST", 50),
			AuthPerMin:     getEnvAsInt("RATE_LIMIT_AUTH_PER_MIN", 30),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getEnvAsBool("TELEMETRY_ENABLED", false),
			ServiceName: getEnv("TELEMETRY_SERVICE_NAME", "marketplace-backend"),
			Exporter:    getEnv("TELEMETRY_EXPORTER", "stdout"),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		},
		SeedDemoData: getEnvAsBool("SEED_DEMO_DATA", false),
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == defaultJWTSecret && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("database password is required in production")
	}

	switch c.Database.Driver {
	case "pgx", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Payment.Provider {
	case "stub":
	case "stripe":
		if c.Payment.StripeSecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required when PAYMENT_PROVIDER=stripe")
		}
	default:
		return fmt.Errorf("unsupported payment provider %q", c.Payment.Provider)
	}

	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported rate limit backend %q", c.RateLimit.Backend)
	}

	if c.Order.MinAddressLength < 1 {
		return fmt.Errorf("ORDER_MIN_ADDRESS_LENGTH must be positive")
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
