package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"inkpress/internal/cache"
	"inkpress/internal/config"
	"inkpress/internal/middleware"
	"inkpress/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

func devConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Env:               "development",
		DBDriver:          "sqlite",
		DBPath:            filepath.Join(dir, "inkpress.db"),
		JWTTTLMinutes:     30,
		StorageDriver:     "local",
		UploadDir:         filepath.Join(dir, "uploads"),
		MediaBaseURL:      "http://localhost:8080",
		MediaURLSecret:    "media-secret",
		DevBootstrapAdmin: true,
		DevAdminEmail:     "Root@Example.com",
		DevAdminPassword:  "password123",
		LogLevel:          "error",
	}
}

func TestInitRuntime_DevelopmentEnsuresAdmin(t *testing.T) {
	ctx := context.Background()
	cfg := devConfig(t)

	rt, err := InitRuntime(ctx, cfg, Options{})
	require.NoError(t, err)

	assert.Nil(t, rt.Redis)
	assert.Equal(t, cache.BackendMemory, rt.Revocations.Backend())
	require.NotNil(t, rt.Store)
	assert.Equal(t, "local", rt.Store.Driver())

	var admins []models.User
	require.NoError(t, rt.DB.Where("role = ?", models.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "root@example.com", admins[0].Email)
	require.NoError(t, rt.Close(ctx))

	// A second start finds the existing account.
	rt, err = InitRuntime(ctx, cfg, Options{SkipStorage: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(ctx) })

	assert.Nil(t, rt.Store)
	var count int64
	require.NoError(t, rt.DB.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestInitRuntime_SkipsAdminOutsideDevelopment(t *testing.T) {
	ctx := context.Background()
	cfg := devConfig(t)
	cfg.Env = "test"

	rt, err := InitRuntime(ctx, cfg, Options{SkipStorage: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(ctx) })

	var count int64
	require.NoError(t, rt.DB.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestInitRuntime_UsesRedisWhenReachable(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	t.Cleanup(func() { cache.SetClient(nil) })

	cfg := devConfig(t)
	cfg.DevBootstrapAdmin = false
	cfg.RedisURL = "redis://" + mr.Addr()

	rt, err := InitRuntime(ctx, cfg, Options{SkipStorage: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(ctx) })

	require.NotNil(t, rt.Redis)
	assert.Equal(t, cache.BackendRedis, rt.Revocations.Backend())
}

func TestInitRuntime_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("dev admin without credentials", func(t *testing.T) {
		cfg := devConfig(t)
		cfg.DevAdminPassword = ""
		_, err := InitRuntime(ctx, cfg, Options{SkipStorage: true})
		assert.ErrorContains(t, err, "DEV_ADMIN_PASSWORD")
	})

	t.Run("unknown storage driver", func(t *testing.T) {
		cfg := devConfig(t)
		cfg.StorageDriver = "tape"
		_, err := InitRuntime(ctx, cfg, Options{})
		assert.ErrorContains(t, err, "object storage")
	})

	t.Run("unknown database driver", func(t *testing.T) {
		cfg := devConfig(t)
		cfg.DBDriver = "oracle"
		_, err := InitRuntime(ctx, cfg, Options{})
		assert.ErrorContains(t, err, "database connection failed")
	})
}

func TestInitRuntime_LogsRevocationBackendOnce(t *testing.T) {
	ctx := context.Background()
	cfg := devConfig(t)
	cfg.DevBootstrapAdmin = false
	cfg.LogLevel = "info"
	cfg.LogFile = filepath.Join(t.TempDir(), "inkpress.log")
	prev := middleware.Logger
	t.Cleanup(func() { middleware.Logger = prev })

	rt, err := InitRuntime(ctx, cfg, Options{SkipStorage: true})
	require.NoError(t, err)
	require.NoError(t, rt.Close(ctx))

	raw, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	out := string(raw)
	assert.Equal(t, 1, strings.Count(out, "backend=memory"), out)
	assert.NotContains(t, out, "process-local", "the fallback warning is for production only")
}
