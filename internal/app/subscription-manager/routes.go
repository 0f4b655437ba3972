package subscriptionmanager

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magelanzzz/subscription-manager/internal/http/handlers/login"
	"github.com/magelanzzz/subscription-manager/internal/http/handlers/logout"
	plancreate "github.com/magelanzzz/subscription-manager/internal/http/handlers/plan/create"
	planget "github.com/magelanzzz/subscription-manager/internal/http/handlers/plan/get"
	planlist "github.com/magelanzzz/subscription-manager/internal/http/handlers/plan/list"
	planmeta "github.com/magelanzzz/subscription-manager/internal/http/handlers/plan/meta"
	planremove "github.com/magelanzzz/subscription-manager/internal/http/handlers/plan/remove"
	planupdate "github.com/magelanzzz/subscription-manager/internal/http/handlers/plan/update"
	"github.com/magelanzzz/subscription-manager/internal/http/handlers/refresh"
	"github.com/magelanzzz/subscription-manager/internal/http/handlers/register"
	"github.com/magelanzzz/subscription-manager/internal/http/handlers/subscription/active"
	"github.com/magelanzzz/subscription-manager/internal/http/handlers/subscription/cancel"
	"github.com/magelanzzz/subscription-manager/internal/http/handlers/subscription/expiring"
	"github.com/magelanzzz/subscription-manager/internal/http/handlers/subscription/grant"
	"github.com/magelanzzz/subscription-manager/internal/http/handlers/subscription/history"
	"github.com/magelanzzz/subscription-manager/internal/http/handlers/subscription/pause"
	"github.com/magelanzzz/subscription-manager/internal/http/handlers/subscription/payment"
	"github.com/magelanzzz/subscription-manager/internal/http/handlers/subscription/renewal"
	"github.com/magelanzzz/subscription-manager/internal/http/handlers/subscription/stats"
	"github.com/magelanzzz/subscription-manager/internal/http/handlers/subscription/subscribe"
	"github.com/magelanzzz/subscription-manager/internal/http/handlers/subscription/upgrade"
	"github.com/magelanzzz/subscription-manager/internal/http/middlewarectx"
	"github.com/magelanzzz/subscription-manager/internal/lib/jwt"
	authservice "github.com/magelanzzz/subscription-manager/internal/services/auth"
	planservice "github.com/magelanzzz/subscription-manager/internal/services/plan"
	subservice "github.com/magelanzzz/subscription-manager/internal/services/subscription"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, jwtMaker jwt.Maker,
	authService *authservice.AuthService, planService *planservice.PlanService,
	subscriptionService *subservice.Service) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, authService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, authService).ServeHTTP)
		r.Post("/auth/refresh", refresh.New(logger, authService).ServeHTTP)

		// Каталог планов открыт на чтение: токен не обязателен,
		// но предъявленный раскладывается в контекст ради флага all=true.
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.OptionalJWTMiddleware(jwtMaker, logger))

			r.Get("/plans", planlist.New(logger, planService).ServeHTTP)
			r.Get("/plans/intervals", planmeta.NewIntervals(logger, planService).ServeHTTP)
			r.Get("/plans/statuses", planmeta.NewStatuses(logger, planService).ServeHTTP)
			r.Get("/plans/{id}", planget.New(logger, planService).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/auth/logout", logout.New(logger, authService).ServeHTTP)

			r.Post("/subscriptions", subscribe.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/active", active.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/history", history.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/cancel", cancel.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/upgrade", upgrade.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/pause", pause.NewPause(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/resume", pause.NewResume(logger, subscriptionService).ServeHTTP)

			// Административные конечные точки
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminMiddleware(logger))

				r.Post("/plans", plancreate.New(logger, planService).ServeHTTP)
				r.Put("/plans/{id}", planupdate.New(logger, planService).ServeHTTP)
				r.Delete("/plans/{id}", planremove.New(logger, planService).ServeHTTP)

				r.Post("/admin/subscriptions/grant", grant.New(logger, subscriptionService).ServeHTTP)
				r.Patch("/admin/subscriptions/{id}/payment", payment.New(logger, subscriptionService).ServeHTTP)
				r.Post("/admin/subscriptions/{id}/renew", renewal.NewRenew(logger, subscriptionService).ServeHTTP)
				r.Post("/admin/subscriptions/{id}/expire", renewal.NewExpire(logger, subscriptionService).ServeHTTP)
				r.Get("/admin/subscriptions/stats", stats.New(logger, subscriptionService).ServeHTTP)
				r.Get("/admin/subscriptions/expiring", expiring.New(logger, subscriptionService).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
