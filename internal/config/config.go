// internal/config/config.go
package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Redis       RedisConfig
	AWS         AWSConfig
	Email       EmailConfig
	I18n        I18nConfig
	Frontend    FrontendConfig
	RateLimit   RateLimitConfig
}

type FrontendConfig struct {
	AllowedOrigins []string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Driver         string // postgres | sqlite
	Host           string
	Port           string
	User           string
	Password       string
	Database       string
	SSLMode        string
	SQLitePath     string
	EnsureDatabase bool
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    int
	LogLevel       string
}

type JWTConfig struct {
	SecretKey         string
	AccessTokenTTL    int // in minutes
	RefreshTokenTTL   int // in hours
	AccessCookieName  string
	RefreshCookieName string
	CookiePath        string
	CookieSecure      bool
	CookieSameSite    string
}

type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	ProductCacheTTL int // in seconds
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
	LocalBaseURL    string
	LocalMediaDir   string // uploads land here when S3 is not configured
	LocalMediaPath  string // route serving LocalMediaDir
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

type I18nConfig struct {
	DefaultLocale string
}

type RateLimitConfig struct {
	GeneralPerSecond float64
	GeneralBurst     int
	AuthPerMinute    int
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8000"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:         strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "admin"),
			Password:       getEnv("DB_PASSWORD", ""),
			Database:       getEnv("DB_NAME", "backoffice"),
			SSLMode:        getEnv("DB_SSL_MODE", "disable"),
			SQLitePath:     getEnv("DB_SQLITE_PATH", "db.sqlite3"),
			EnsureDatabase: getEnvAsBool("DB_ENSURE_DATABASE", true),
			MaxOpenConns:   getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:    getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:       getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			SecretKey:         getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenTTL:    getEnvAsInt("JWT_ACCESS_TTL", 60),   // 1 hour
			RefreshTokenTTL:   getEnvAsInt("JWT_REFRESH_TTL", 168), // 7 days
			AccessCookieName:  getEnv("JWT_AUTH_COOKIE", "access_token"),
			RefreshCookieName: getEnv("JWT_REFRESH_COOKIE", "refresh_token"),
			CookiePath:        getEnv("JWT_COOKIE_PATH", "/api/"),
			CookieSecure:      getEnvAsBool("JWT_AUTH_SECURE", false),
			CookieSameSite:    getEnv("JWT_AUTH_SAMESITE", "Lax"),
		},
		Redis: RedisConfig{
			Addr:            getEnv("REDIS_ADDR", ""),
			Password:        getEnv("REDIS_PASSWORD", ""),
			DB:              getEnvAsInt("REDIS_DB", 0),
			ProductCacheTTL: getEnvAsInt("PRODUCT_CACHE_TTL", 300),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "backoffice-media"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
			LocalBaseURL:    getEnv("MEDIA_BASE_URL", "http://localhost:8000/media"),
			LocalMediaDir:   getEnv("MEDIA_ROOT", "media"),
			LocalMediaPath:  getEnv("MEDIA_URL_PATH", "/media"),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@mercadito.app"),
			FromName:     getEnv("FROM_NAME", "Mercadito"),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "es"),
		},
		Frontend: FrontendConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		RateLimit: RateLimitConfig{
			GeneralPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 10),
			GeneralBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
			AuthPerMinute:    getEnvAsInt("RATE_LIMIT_AUTH_PER_MINUTE", 10),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == defaultJWTSecret && c.IsProduction() {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Password == "" && c.IsProduction() {
			return fmt.Errorf("database password is required in production")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if _, err := ParseSameSite(c.JWT.CookieSameSite); err != nil {
		return err
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ParseSameSite maps the configured SameSite mode onto net/http's constants.
func ParseSameSite(mode string) (http.SameSite, error) {
	switch strings.ToLower(mode) {
	case "lax", "":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return http.SameSiteDefaultMode, fmt.Errorf("invalid cookie SameSite mode %q", mode)
	}
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
