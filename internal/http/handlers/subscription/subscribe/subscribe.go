package subscribe

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

// Subscriber описывает сервис оформления подписок.
type Subscriber interface {
	Subscribe(ctx context.Context, userID int, req models.DummySubscribe) (*models.Subscription, error)
}

// New
// @Summary Оформление подписки на тарифный план
// @Description При trial_days > 0 подписка начинается с пробного периода.
// @Description У пользователя может быть только одна действующая подписка.
// @Tags subscriptions
// @Security BearerAuth
// @Accept  json
// @Produce json
// @Param   subscribeRequest body models.DummySubscribe true "Данные подписки"
// @Success 201 {object} response.Response "Подписка оформлена"
// @Failure 409 {object} response.Response "У пользователя уже есть действующая подписка"
// @Failure 412 {object} response.Response "План недоступен для подписки"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Router /subscriptions [post]
func New(log *slog.Logger, subscriber Subscriber) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.subscription.subscribe.New"

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

		var req models.DummySubscribe
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode request"))
			return
		}
		log.Info("request body decoded", slog.Int("plan_id", req.PlanID))

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("invalid request", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		sub, err := subscriber.Subscribe(r.Context(), userID, req)
		if err != nil {
			log.Error("failed to create subscription", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		log.Info("created subscription", slog.Int("subscription_id", sub.ID))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.OKWithData(sub))
	}
}
