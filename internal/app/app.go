package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/videoportal/backend/internal/accounts"
	"github.com/videoportal/backend/internal/auth"
	"github.com/videoportal/backend/internal/config"
	"github.com/videoportal/backend/internal/db"
	"github.com/videoportal/backend/internal/handlers"
	"github.com/videoportal/backend/internal/httpserver"
	"github.com/videoportal/backend/internal/logging"
	"github.com/videoportal/backend/internal/middleware"
	"github.com/videoportal/backend/internal/repositories"
)

// Run bootstraps the video portal backend.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, seed, or create-admin")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "seed":
		return runSeed(ctx, args[1:])
	case "create-admin":
		return runCreateAdmin(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

const uploadWriteTimeout = 10 * time.Minute

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, cleanup, err := buildDependencies(ctx, pool, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
		defer cancel()
		if err := cleanup(drainCtx); err != nil {
			logger.Warn("notification queue not drained", "error", err)
		}
	}()

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)

	handler := middleware.RequestLogger(logger)(middleware.CORS(cfg.AllowedOrigins)(mux))

	srv := httpserver.New(cfg.AppPort, handler, httpserver.WithWriteTimeout(uploadWriteTimeout))

	logger.Info("starting http server", "port", cfg.AppPort)
	return httpserver.Run(ctx, srv, logger)
}

// runCreateAdmin creates or promotes an approved admin account. It is the
// only way to bootstrap the first administrator.
func runCreateAdmin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: create-admin <email> <password>")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	service := &accounts.Service{
		Users:  repositories.NewPostgresUserRepository(pool),
		Hasher: auth.NewHasher(cfg.BcryptCost),
	}

	user, created, err := service.EnsureAdmin(ctx, args[0], args[1])
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	if created {
		fmt.Printf("created admin %s (%s)\n", user.Email, user.ID)
	} else {
		fmt.Printf("admin %s (%s) already present\n", user.Email, user.ID)
	}
	return nil
}
