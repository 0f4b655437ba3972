package login

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
	"github.com/magelanzzz/subscription-manager/internal/services/auth"
)

// Authentication описывает сервис аутентификации пользователей.
type Authentication interface {
	Login(ctx context.Context, identifier, rawPassword string) (*auth.TokenPair, *models.User, error)
}

// New
// @Summary Вход пользователя по имени или email
// @Tags auth
// @Accept  json
// @Produce json
// @Param   loginRequest body models.DummyLogin true "Данные для входа (identifier, password)"
// @Success 200 {object} response.Response "Пара токенов и данные пользователя"
// @Failure 401 {object} response.Response "Неверные учетные данные"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Router /auth/login [post]
func New(log *slog.Logger, authentication Authentication) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.login.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req models.DummyLogin
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

		pair, user, err := authentication.Login(r.Context(), req.Identifier, req.Password)
		if err != nil {
			log.Error("failed to login", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		log.Info("user logged in", slog.String("username", user.Username))
		render.JSON(w, r, response.OKWithData(map[string]any{
			"access_token":  pair.AccessToken,
			"refresh_token": pair.RefreshToken,
			"user": map[string]any{
				"id":       user.ID,
				"username": user.Username,
				"email":    user.Email,
				"is_admin": user.IsAdmin,
			},
		}))
	}
}
