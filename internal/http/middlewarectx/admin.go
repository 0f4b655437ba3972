package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magelanzzz/subscription-manager/internal/http/response"
)

// AdminMiddleware возвращает HTTP middleware, который пропускает дальше только
// администраторов. Признак берётся из claims токена, материализованных
// в контекст JWTMiddleware, без обращения к базе.
func AdminMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.AdminMiddleware"

			if !IsAdminFromContext(r.Context()) {
				log.Error("admin privileges required",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("admin privileges required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
