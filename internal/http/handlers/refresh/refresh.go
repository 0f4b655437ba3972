package refresh

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

// Refresher описывает сервис обновления access-токена.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// New
// @Summary Обновление access-токена по refresh-токену
// @Tags auth
// @Accept  json
// @Produce json
// @Param   refreshRequest body models.DummyRefresh true "Refresh-токен"
// @Success 200 {object} response.Response "Новый access-токен"
// @Failure 401 {object} response.Response "Недействительный refresh-токен"
// @Router /auth/refresh [post]
func New(log *slog.Logger, refresher Refresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.refresh.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req models.DummyRefresh
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

		access, err := refresher.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			log.Error("failed to refresh token", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		log.Info("access token refreshed")
		render.JSON(w, r, response.OKWithData(map[string]any{
			"access_token": access,
		}))
	}
}
