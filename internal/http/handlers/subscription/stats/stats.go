package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magelanzzz/subscription-manager/internal/http/response"
	"github.com/magelanzzz/subscription-manager/internal/lib/sl"
	"github.com/magelanzzz/subscription-manager/internal/models"
)

// StatsGetter описывает сервис сводной статистики подписок.
type StatsGetter interface {
	Stats(ctx context.Context) (*models.SubscriptionStats, error)
}

// New
// @Summary Сводная статистика подписок
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response "Счётчики подписок"
// @Failure 403 {object} response.Response "Требуются права администратора"
// @Router /admin/subscriptions/stats [get]
func New(log *slog.Logger, getter StatsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.subscription.stats.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		result, err := getter.Stats(r.Context())
		if err != nil {
			log.Error("failed to get subscription stats", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.OKWithData(result))
	}
}
