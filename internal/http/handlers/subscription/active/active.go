package active

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magelanzzz/subscription-manager/internal/http/middlewarectx"
	"github.com/magelanzzz/subscription-manager/internal/http/response"
	"github.com/magelanzzz/subscription-manager/internal/lib/sl"
	"github.com/magelanzzz/subscription-manager/internal/models"
)

// ActiveGetter описывает сервис получения действующей подписки пользователя.
type ActiveGetter interface {
	GetActive(ctx context.Context, userID int) (*models.SubscriptionWithPlan, error)
}

// New
// @Summary Действующая подписка пользователя
// @Description Возвращает активную подписку либо действующий пробный период
// @Description вместе с деталями тарифного плана.
// @Tags subscriptions
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response "Действующая подписка с планом"
// @Failure 404 {object} response.Response "Действующей подписки нет"
// @Router /subscriptions/active [get]
func New(log *slog.Logger, getter ActiveGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.subscription.active.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, ok := middlewarectx.UserIDFromContext(r.Context())
		if !ok {
			log.Error("user identification missing")
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("user identification missing"))
			return
		}

		sub, err := getter.GetActive(r.Context(), userID)
		if err != nil {
			log.Error("failed to get active subscription", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		now := time.Now().UTC()
		render.JSON(w, r, response.OKWithData(map[string]any{
			"subscription":       sub,
			"is_trial":           sub.IsTrial(now),
			"days_until_renewal": sub.DaysUntilRenewal(now),
		}))
	}
}
