// Package bootstrap turns configuration into the process-wide dependencies shared by the binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"inkpress/internal/cache"
	"inkpress/internal/config"
	"inkpress/internal/database"
	"inkpress/internal/middleware"
	"inkpress/internal/observability"
	"inkpress/internal/repository"
	"inkpress/internal/service"
	"inkpress/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ServiceName labels traces.
	ServiceName string
	// SkipStorage leaves Store nil for tools that never touch files.
	SkipStorage bool
}

// Runtime holds initialized dependencies. Close releases them in reverse order.
type Runtime struct {
	Config      *config.Config
	DB          *gorm.DB
	Redis       *redis.Client
	Revocations cache.RevocationStore
	Store       storage.ObjectStore

	closers []func(context.Context) error
}

// InitRuntime configures logging and tracing, connects the database (applying the schema),
// connects Redis when reachable, picks the revocation backend and opens the object store.
// In development with DEV_BOOTSTRAP_ADMIN set it also ensures the admin account exists.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	rt := &Runtime{Config: cfg}

	logCloser := middleware.InitLogger(middleware.LogOptions{
		Env:        cfg.Env,
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	rt.closers = append(rt.closers, func(context.Context) error { return logCloser.Close() })

	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = "inkpress-api"
	}
	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return nil, rt.fail(ctx, fmt.Errorf("init tracing: %w", err))
	}
	rt.closers = append(rt.closers, shutdownTracing)

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, rt.fail(ctx, fmt.Errorf("database connection failed: %w", err))
	}
	rt.DB = db
	rt.closers = append(rt.closers, func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	// Redis is optional; a nil client selects the in-process fallbacks.
	if cfg.RedisURL != "" {
		rt.Redis = cache.InitRedis(cfg.RedisURL)
	}
	if rt.Redis != nil {
		rdb := rt.Redis
		rt.closers = append(rt.closers, func(context.Context) error { return rdb.Close() })
	}
	rt.Revocations = cache.NewRevocationStore(rt.Redis, cfg.TokenTTL())
	if rt.Revocations.Backend() == cache.BackendMemory && cfg.IsProduction() {
		middleware.Logger.Warn("revocations are process-local; logged-out tokens stay valid on other instances and across restarts")
	}

	if !opts.SkipStorage {
		store, err := storage.New(ctx, cfg)
		if err != nil {
			return nil, rt.fail(ctx, fmt.Errorf("object storage: %w", err))
		}
		rt.Store = store
		middleware.Logger.Info("object storage ready", slog.String("driver", store.Driver()))
	}

	if err := rt.ensureDevAdmin(ctx); err != nil {
		return nil, rt.fail(ctx, fmt.Errorf("bootstrap development admin: %w", err))
	}
	return rt, nil
}

func (rt *Runtime) ensureDevAdmin(ctx context.Context) error {
	cfg := rt.Config
	if cfg.Env != "development" || !cfg.DevBootstrapAdmin {
		return nil
	}
	if cfg.DevAdminEmail == "" || cfg.DevAdminPassword == "" {
		return errors.New("DEV_ADMIN_EMAIL and DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}

	users := service.NewUserService(repository.NewUserRepository(rt.DB))
	admin, err := users.EnsureAdmin(ctx, cfg.DevAdminEmail, cfg.DevAdminPassword)
	if err != nil {
		return err
	}
	middleware.Logger.Info("development admin ensured",
		slog.Uint64("user_id", uint64(admin.ID)),
		slog.String("email", admin.Email),
	)
	return nil
}

// Close releases every initialized dependency, newest first, and joins their errors.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

func (rt *Runtime) fail(ctx context.Context, err error) error {
	if cerr := rt.Close(ctx); cerr != nil {
		middleware.Logger.Warn("cleanup after failed init", slog.String("error", cerr.Error()))
	}
	return err
}
