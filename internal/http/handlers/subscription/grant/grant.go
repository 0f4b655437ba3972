package grant

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magelanzzz/subscription-manager/internal/http/response"
	"github.com/magelanzzz/subscription-manager/internal/lib/sl"
	"github.com/magelanzzz/subscription-manager/internal/models"
)

// Granter описывает сервис административной выдачи бессрочных подписок.
type Granter interface {
	GrantIndefinite(ctx context.Context, req models.DummyGrant) (*models.Subscription, error)
}

// New
// @Summary Выдача бессрочной подписки пользователю
// @Description Подписка без даты окончания и автопродления. Действующая
// @Description подписка пользователя при этом закрывается.
// @Tags admin
// @Security BearerAuth
// @Accept  json
// @Produce json
// @Param   grantRequest body models.DummyGrant true "Пользователь и план"
// @Success 201 {object} response.Response "Подписка выдана"
// @Failure 403 {object} response.Response "Требуются права администратора"
// @Failure 404 {object} response.Response "Пользователь или план не найден"
// @Router /admin/subscriptions/grant [post]
func New(log *slog.Logger, granter Granter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.subscription.grant.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req models.DummyGrant
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

		sub, err := granter.GrantIndefinite(r.Context(), req)
		if err != nil {
			log.Error("failed to grant subscription", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		log.Info("granted indefinite subscription",
			slog.Int("subscription_id", sub.ID),
			slog.Int("user_id", req.UserID))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.OKWithData(sub))
	}
}
