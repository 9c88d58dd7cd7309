// Command server is the entry point for the Inkpress API.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkpress/internal/bootstrap"
	"inkpress/internal/config"
	"inkpress/internal/middleware"
	"inkpress/internal/server"
)

// @title Inkpress API
// @version 1.0
// @description Blog CMS backend: articles, categories, comments, likes and file attachments.

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ServiceName: "inkpress-api"})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	srv, err := server.NewServerWithDeps(cfg, server.Deps{
		DB:          rt.DB,
		Redis:       rt.Redis,
		Revocations: rt.Revocations,
		Store:       rt.Store,
	})
	if err != nil {
		_ = rt.Close(ctx)
		log.Fatalf("Failed to create server: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigChan:
		middleware.Logger.Info("Shutting down server...", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			middleware.Logger.Error("server stopped", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		middleware.Logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	if err := rt.Close(shutdownCtx); err != nil {
		log.Printf("Runtime shutdown error: %v", err)
	}
	os.Exit(exitCode)
}
