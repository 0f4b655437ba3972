// Package pause содержит обработчики приостановки и возобновления подписки.
package pause

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magelanzzz/subscription-manager/internal/http/middlewarectx"
	"github.com/magelanzzz/subscription-manager/internal/http/response"
	"github.com/magelanzzz/subscription-manager/internal/lib/sl"
	"github.com/magelanzzz/subscription-manager/internal/models"
)

// Pauser описывает сервис приостановки и возобновления подписок.
type Pauser interface {
	Pause(ctx context.Context, userID int) (*models.Subscription, error)
	Resume(ctx context.Context, userID int) (*models.Subscription, error)
}

// NewPause
// @Summary Приостановка действующей подписки
// @Tags subscriptions
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response "Подписка приостановлена"
// @Failure 404 {object} response.Response "Действующей подписки нет"
// @Router /subscriptions/pause [post]
func NewPause(log *slog.Logger, pauser Pauser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.subscription.pause.NewPause"

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

		sub, err := pauser.Pause(r.Context(), userID)
		if err != nil {
			log.Error("failed to pause subscription", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		log.Info("paused subscription", slog.Int("subscription_id", sub.ID))
		render.JSON(w, r, response.OKWithData(sub))
	}
}

// NewResume
// @Summary Возобновление приостановленной подписки
// @Tags subscriptions
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response "Подписка возобновлена"
// @Failure 404 {object} response.Response "Приостановленной подписки нет"
// @Router /subscriptions/resume [post]
func NewResume(log *slog.Logger, pauser Pauser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.subscription.pause.NewResume"

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

		sub, err := pauser.Resume(r.Context(), userID)
		if err != nil {
			log.Error("failed to resume subscription", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		log.Info("resumed subscription", slog.Int("subscription_id", sub.ID))
		render.JSON(w, r, response.OKWithData(sub))
	}
}
