package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/videoportal/backend/internal/accounts"
	"github.com/videoportal/backend/internal/auth"
	"github.com/videoportal/backend/internal/config"
	"github.com/videoportal/backend/internal/db"
	"github.com/videoportal/backend/internal/handlers"
	"github.com/videoportal/backend/internal/middleware"
	"github.com/videoportal/backend/internal/notify"
	"github.com/videoportal/backend/internal/repositories"
	"github.com/videoportal/backend/internal/storage"
	"github.com/videoportal/backend/internal/videos"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup drains the notification queue.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	users := repositories.NewPostgresUserRepository(pool)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	var sender notify.Sender
	if cfg.SMTP.Host != "" {
		smtpSender, err := notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		if err != nil {
			return handlers.Dependencies{}, nil, err
		}
		sender = smtpSender
	} else {
		logger.Warn("smtp not configured, approval emails will be dropped")
	}

	dispatcher := notify.NewDispatcher(sender, notify.DispatcherConfig{
		QueueSize:   cfg.Notifier.QueueSize,
		Workers:     cfg.Notifier.Workers,
		SendTimeout: cfg.Notifier.SendTimeout,
	}, logger)

	hosts := append([]string(nil), cfg.ExtraVideoHosts...)
	var uploader handlers.VideoUploader
	if cfg.ObjectStore.Bucket != "" {
		host, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			_ = dispatcher.Shutdown(ctx)
			return handlers.Dependencies{}, nil, fmt.Errorf("configure video host: %w", err)
		}
		hosts = append(hosts, host.PublicHost())
		uploader = videos.NewUploader(host, cfg.ObjectStore.UploadSlots)
	} else {
		logger.Warn("object store not configured, uploads disabled")
	}

	service := &accounts.Service{
		Users:    users,
		Hasher:   auth.NewHasher(cfg.BcryptCost),
		Tokens:   tokens,
		Notifier: dispatcher,
	}
	catalog := videos.NewCatalog(
		repositories.NewPostgresAlbumRepository(pool),
		repositories.NewPostgresVideoRepository(pool),
		videos.NewHostAllowList(hosts...),
	)

	deps := handlers.Dependencies{
		Accounts:    service,
		Catalog:     catalog,
		Uploader:    uploader,
		Identities:  auth.NewGate(users, tokens),
		AuthLimiter: middleware.NewAuthRateLimiter(cfg.AuthRateLimit.RequestsPerMinute, cfg.AuthRateLimit.Burst),
		Health:      pool,
	}

	return deps, dispatcher.Shutdown, nil
}
