package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magelanzzz/subscription-manager/internal/http/middlewarectx"
	"github.com/magelanzzz/subscription-manager/internal/http/response"
)

// Sessions описывает сервис завершения пользовательских сессий.
type Sessions interface {
	Logout(ctx context.Context, username string)
}

// New
// @Summary Завершение сессии пользователя
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response "Сессия завершена"
// @Failure 401 {object} response.Response "Пользователь не аутентифицирован"
// @Router /auth/logout [post]
func New(log *slog.Logger, sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.logout.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		username, ok := middlewarectx.UsernameFromContext(r.Context())
		if !ok {
			log.Error("user identification missing")
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("user identification missing"))
			return
		}

		sessions.Logout(r.Context(), username)
		render.JSON(w, r, response.OKWithData(map[string]any{
			"message": "logged out successfully",
		}))
	}
}
