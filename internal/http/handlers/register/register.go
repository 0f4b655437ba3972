package register

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

// Registration описывает сервис регистрации пользователей.
type Registration interface {
	Register(ctx context.Context, req models.DummyRegister) (int, error)
}

// New
// @Summary Регистрация нового пользователя
// @Tags auth
// @Accept  json
// @Produce json
// @Param   registerRequest body models.DummyRegister true "Данные для регистрации (username, email, password)"
// @Success 201 {object} response.Response "Пользователь успешно создан"
// @Failure 400 {object} response.Response "Некорректный запрос"
// @Failure 409 {object} response.Response "Имя пользователя или email уже заняты"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Router /auth/register [post]
func New(log *slog.Logger, registration Registration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req models.DummyRegister
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode request"))
			return
		}
		log.Info("request body decoded", slog.String("username", req.Username))

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("invalid request", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		id, err := registration.Register(r.Context(), req)
		if err != nil {
			log.Error("failed to register new user", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		log.Info("created new user", slog.String("username", req.Username), slog.Int("id", id))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.OKWithData(map[string]any{
			"id":       id,
			"username": req.Username,
			"message":  "user created successfully",
		}))
	}
}
