package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/contact-directory/internal/config"
	"github.com/msomdec/contact-directory/internal/domain"
	"github.com/msomdec/contact-directory/internal/handler"
	"github.com/msomdec/contact-directory/internal/repository/memory"
	"github.com/msomdec/contact-directory/internal/repository/sqlite"
	"github.com/msomdec/contact-directory/internal/seed"
	"github.com/msomdec/contact-directory/internal/service"
)

func main() {
	level := new(slog.LevelVar)
	logOpts := &slog.HandlerOptions{Level: level}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	level.Set(cfg.LogLevel)

	db, err := openDatabase(cfg)
	if err != nil {
		slog.Error("failed to open database", "storage", cfg.Storage, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("storage ready", "storage", cfg.Storage)

	identityService := service.NewIdentityService(db.Users(), cfg.BcryptCost)
	sessionService := service.NewSessionService(identityService, cfg.JWTSecret)
	directoryService := service.NewDirectoryService(db.Users())
	authService := service.NewAuthService(identityService, sessionService)

	if err := applySeeds(context.Background(), cfg, seed.NewSeeder(identityService, directoryService)); err != nil {
		slog.Error("failed to seed users", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authService, directoryService, handler.Options{
		CookieSecure:   cfg.CookieSecure,
		DebugEndpoints: cfg.DebugEndpoints,
		StatusRefresh:  cfg.StatusRefresh,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "debug_endpoints", cfg.DebugEndpoints)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func openDatabase(cfg *config.Config) (domain.Database, error) {
	if cfg.Storage == config.StorageSQLite {
		return sqlite.New(cfg.DatabasePath)
	}
	return memory.New(), nil
}

// applySeeds loads the embedded demo users and then SEED_FILE, if set.
func applySeeds(ctx context.Context, cfg *config.Config, seeder *seed.Seeder) error {
	if cfg.SeedDemo {
		f, err := seed.Demo()
		if err != nil {
			return err
		}
		if err := seeder.Apply(ctx, f); err != nil {
			return err
		}
		slog.Info("demo users seeded", "count", len(f.Users))
	}

	if cfg.SeedFile != "" {
		f, err := seed.LoadFile(cfg.SeedFile)
		if err != nil {
			return err
		}
		if err := seeder.Apply(ctx, f); err != nil {
			return err
		}
		slog.Info("seed file applied", "path", cfg.SeedFile, "count", len(f.Users))
	}
	return nil
}
