package expiring

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magelanzzz/subscription-manager/internal/http/response"
	"github.com/magelanzzz/subscription-manager/internal/lib/sl"
	"github.com/magelanzzz/subscription-manager/internal/models"
)

const defaultDaysAhead = 7

// ExpiringLister описывает сервис выборки истекающих подписок.
type ExpiringLister interface {
	Expiring(ctx context.Context, daysAhead int) ([]*models.SubscriptionWithPlan, error)
}

// New
// @Summary Подписки, истекающие в ближайшие дни
// @Description Активные подписки без автопродления с окончанием периода
// @Description в ближайшие days дней.
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param   days query int false "Горизонт в днях (по умолчанию 7)"
// @Success 200 {object} response.Response "Истекающие подписки"
// @Failure 403 {object} response.Response "Требуются права администратора"
// @Router /admin/subscriptions/expiring [get]
func New(log *slog.Logger, lister ExpiringLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.subscription.expiring.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		daysAhead := defaultDaysAhead
		if raw := r.URL.Query().Get("days"); raw != "" {
			if value, err := strconv.Atoi(raw); err == nil && value > 0 {
				daysAhead = value
			}
		}

		subs, err := lister.Expiring(r.Context(), daysAhead)
		if err != nil {
			log.Error("failed to list expiring subscriptions", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		log.Info("listed expiring subscriptions", slog.Int("count", len(subs)))
		render.JSON(w, r, response.OKWithData(map[string]any{
			"days_ahead":    daysAhead,
			"subscriptions": subs,
		}))
	}
}
