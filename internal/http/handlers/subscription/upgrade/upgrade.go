package upgrade

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magelanzzz/subscription-manager/internal/http/middlewarectx"
	"github.com/magelanzzz/subscription-manager/internal/http/response"
	"github.com/magelanzzz/subscription-manager/internal/lib/sl"
	"github.com/magelanzzz/subscription-manager/internal/models"
)

// Upgrader описывает сервис смены тарифного плана подписки.
type Upgrader interface {
	Upgrade(ctx context.Context, userID int, req models.DummyUpgrade) (*models.Subscription, error)
}

// New
// @Summary Смена тарифного плана действующей подписки
// @Description Биллинговый период пересчитывается по интервалу нового плана.
// @Tags subscriptions
// @Security BearerAuth
// @Accept  json
// @Produce json
// @Param   upgradeRequest body models.DummyUpgrade true "Новый план"
// @Success 200 {object} response.Response "Подписка переведена на новый план"
// @Failure 404 {object} response.Response "Действующей подписки или плана нет"
// @Failure 409 {object} response.Response "Подписка уже на этом плане"
// @Failure 412 {object} response.Response "Целевой план недоступен"
// @Router /subscriptions/upgrade [post]
func New(log *slog.Logger, upgrader Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.subscription.upgrade.New"

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

		var req models.DummyUpgrade
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode request"))
			return
		}

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("invalid request", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		sub, err := upgrader.Upgrade(r.Context(), userID, req)
		if err != nil {
			log.Error("failed to upgrade subscription", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		log.Info("upgraded subscription",
			slog.Int("subscription_id", sub.ID),
			slog.Int("plan_id", sub.PlanID))
		render.JSON(w, r, response.OKWithData(sub))
	}
}
