// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	DBPath     string `mapstructure:"DB_PATH"`

	RedisURL string `mapstructure:"REDIS_URL"`

	JWTSecret     string `mapstructure:"JWT_SECRET"`
	JWTIssuer     string `mapstructure:"JWT_ISSUER"`
	JWTAudience   string `mapstructure:"JWT_AUDIENCE"`
	JWTTTLMinutes int    `mapstructure:"JWT_TTL_MINUTES"`

	StorageDriver       string `mapstructure:"STORAGE_DRIVER"`
	UploadDir           string `mapstructure:"UPLOAD_DIR"`
	MediaBaseURL        string `mapstructure:"MEDIA_BASE_URL"`
	MediaURLSecret      string `mapstructure:"MEDIA_URL_SECRET"`
	MaxUploadMB         int    `mapstructure:"MAX_UPLOAD_MB"`
	SignedURLTTLSeconds int    `mapstructure:"SIGNED_URL_TTL_SECONDS"`
	S3Endpoint          string `mapstructure:"S3_ENDPOINT"`
	S3Region            string `mapstructure:"S3_REGION"`
	S3Bucket            string `mapstructure:"S3_BUCKET"`
	S3AccessKeyID       string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey   string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3UseSSL            bool   `mapstructure:"S3_USE_SSL"`

	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`

	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogFile       string `mapstructure:"LOG_FILE"`
	LogMaxSizeMB  int    `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `mapstructure:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays int    `mapstructure:"LOG_MAX_AGE_DAYS"`

	DevBootstrapAdmin bool   `mapstructure:"DEV_BOOTSTRAP_ADMIN"`
	DevAdminEmail     string `mapstructure:"DEV_ADMIN_EMAIL"`
	DevAdminPassword  string `mapstructure:"DEV_ADMIN_PASSWORD"`
}

// keys lists every setting so viper binds them for Unmarshal even without a config file.
var keys = []string{
	"PORT", "APP_ENV", "ALLOWED_ORIGINS", "FEATURE_FLAGS",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE", "DB_PATH",
	"REDIS_URL",
	"JWT_SECRET", "JWT_ISSUER", "JWT_AUDIENCE", "JWT_TTL_MINUTES",
	"STORAGE_DRIVER", "UPLOAD_DIR", "MEDIA_BASE_URL", "MEDIA_URL_SECRET", "MAX_UPLOAD_MB", "SIGNED_URL_TTL_SECONDS",
	"S3_ENDPOINT", "S3_REGION", "S3_BUCKET", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY", "S3_USE_SSL",
	"TRACING_ENABLED", "TRACING_EXPORTER", "OTLP_ENDPOINT", "TRACING_SAMPLE_RATIO",
	"LOG_LEVEL", "LOG_FILE", "LOG_MAX_SIZE_MB", "LOG_MAX_BACKUPS", "LOG_MAX_AGE_DAYS",
	"DEV_BOOTSTRAP_ADMIN", "DEV_ADMIN_EMAIL", "DEV_ADMIN_PASSWORD",
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables always win.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	// The base file may not exist.
	_ = v.ReadInConfig()

	env := v.GetString("APP_ENV")
	if env != "" && env != "development" && env != "test" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults(v)
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.DBSSLMode = strings.ToLower(strings.TrimSpace(config.DBSSLMode))
	config.DBDriver = strings.ToLower(strings.TrimSpace(config.DBDriver))
	config.StorageDriver = strings.ToLower(strings.TrimSpace(config.StorageDriver))
	if config.MediaURLSecret == "" {
		config.MediaURLSecret = config.JWTSecret
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("FEATURE_FLAGS", "realtime_feed=on")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "inkpress")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "inkpress")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_PATH", "inkpress.db")

	v.SetDefault("REDIS_URL", "localhost:6379")

	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ISSUER", "inkpress-api")
	v.SetDefault("JWT_AUDIENCE", "inkpress-client")
	v.SetDefault("JWT_TTL_MINUTES", 30)

	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("MEDIA_BASE_URL", "http://localhost:8080")
	v.SetDefault("MAX_UPLOAD_MB", 10)
	v.SetDefault("SIGNED_URL_TTL_SECONDS", 3600)
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_USE_SSL", true)

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING_SAMPLE_RATIO", 1.0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE_DAYS", 28)

	v.SetDefault("DEV_ADMIN_EMAIL", "admin@inkpress.local")
}

// IsProduction reports whether the app runs with production safeguards.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// TokenTTL returns the access token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTTTLMinutes) * time.Minute
}

// SignedURLTTL returns the lifetime of signed file URLs.
func (c *Config) SignedURLTTL() time.Duration {
	return time.Duration(c.SignedURLTTLSeconds) * time.Second
}

// MaxUploadBytes returns the per-file upload limit.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTTTLMinutes <= 0 {
		return errors.New("JWT_TTL_MINUTES must be positive")
	}
	if c.MaxUploadMB <= 0 {
		return errors.New("MAX_UPLOAD_MB must be positive")
	}
	if c.SignedURLTTLSeconds <= 0 {
		return errors.New("SIGNED_URL_TTL_SECONDS must be positive")
	}

	switch strings.ToLower(c.DBDriver) {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch strings.ToLower(c.StorageDriver) {
	case "local":
		if c.UploadDir == "" {
			return errors.New("UPLOAD_DIR is required for local storage")
		}
	case "s3":
		if c.S3Bucket == "" || c.S3Endpoint == "" {
			return errors.New("S3_BUCKET and S3_ENDPOINT are required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver == "postgres" && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBDriver == "postgres" && (c.DBSSLMode == "disable" || c.DBSSLMode == "") {
			return errors.New("DB_SSLMODE must not be 'disable' in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
