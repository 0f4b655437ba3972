// Package subscriptionmanager собирает приложение: подключения, сервисы,
// маршруты и HTTP-сервер.
package subscriptionmanager

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magelanzzz/subscription-manager/internal/cache"
	"github.com/magelanzzz/subscription-manager/internal/config"
	"github.com/magelanzzz/subscription-manager/internal/lib/jwt"
	"github.com/magelanzzz/subscription-manager/internal/migrations"
	authservice "github.com/magelanzzz/subscription-manager/internal/services/auth"
	planservice "github.com/magelanzzz/subscription-manager/internal/services/plan"
	subservice "github.com/magelanzzz/subscription-manager/internal/services/subscription"
	"github.com/magelanzzz/subscription-manager/internal/storage"
)

// App хранит собранный HTTP-сервер и его зависимости.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	cache  *cache.Cache
}

// New инициализирует хранилище, применяет миграции, поднимает redis-кеш
// и собирает маршруты приложения.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}
	if err = storage.CheckDatabaseReady(db); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewMaker(cfg.JWTToken.SecretKey, cfg.JWTToken.AccessTTL, cfg.JWTToken.RefreshTTL)

	authService := authservice.NewAuthService(db, jwtMaker, logger)
	planService := planservice.NewPlanService(db, cacheRedis, cfg.Cache.TTL, logger)
	subscriptionService := subservice.New(db, cacheRedis, cfg.Cache.TTL, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, jwtMaker, authService, planService, subscriptionService)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.db.Close(); closeErr != nil {
			a.logger.Error("failed to close storage", slog.Any("err", closeErr))
		}
		return err
	}
}
