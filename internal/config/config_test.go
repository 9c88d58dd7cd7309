package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                 "development",
		Port:                "8080",
		DBDriver:            "postgres",
		DBSSLMode:           "disable",
		DBPassword:          "secure-password",
		JWTSecret:           "secure-secret-at-least-32-chars-long",
		JWTTTLMinutes:       30,
		StorageDriver:       "local",
		UploadDir:           "./uploads",
		MaxUploadMB:         10,
		SignedURLTTLSeconds: 3600,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown db driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"unknown storage driver", func(c *Config) { c.StorageDriver = "ftp" }},
		{"s3 without bucket", func(c *Config) { c.StorageDriver = "s3"; c.S3Endpoint = "localhost:9000" }},
		{"zero token ttl", func(c *Config) { c.JWTTTLMinutes = 0 }},
		{"zero upload limit", func(c *Config) { c.MaxUploadMB = 0 }},
		{"default secret in production", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
			c.JWTSecret = defaultJWTSecret
		}},
		{"short secret in production", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
			c.JWTSecret = "short"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfig_Durations(t *testing.T) {
	c := validConfig()
	assert.Equal(t, 30*time.Minute, c.TokenTTL())
	assert.Equal(t, time.Hour, c.SignedURLTTL())
	assert.Equal(t, int64(10*1024*1024), c.MaxUploadBytes())
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("JWT_TTL_MINUTES", "15")
	_ = os.Unsetenv("MEDIA_URL_SECRET")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 15, c.JWTTTLMinutes)
	assert.Equal(t, "inkpress-api", c.JWTIssuer)
	assert.Equal(t, c.JWTSecret, c.MediaURLSecret)
}
