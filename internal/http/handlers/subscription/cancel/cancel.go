package cancel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magelanzzz/subscription-manager/internal/http/middlewarectx"
	"github.com/magelanzzz/subscription-manager/internal/http/response"
	"github.com/magelanzzz/subscription-manager/internal/lib/sl"
	"github.com/magelanzzz/subscription-manager/internal/models"
)

// Canceler описывает сервис отмены подписок.
type Canceler interface {
	Cancel(ctx context.Context, userID int, atPeriodEnd bool) (*models.Subscription, error)
}

// New
// @Summary Отмена действующей подписки
// @Description По умолчанию подписка остаётся активной до конца оплаченного
// @Description периода. При at_period_end=false закрывается немедленно.
// @Tags subscriptions
// @Security BearerAuth
// @Accept  json
// @Produce json
// @Param   cancelRequest body models.DummyCancel false "Параметры отмены"
// @Success 200 {object} response.Response "Подписка отменена"
// @Failure 404 {object} response.Response "Действующей подписки нет"
// @Router /subscriptions/cancel [post]
func New(log *slog.Logger, canceler Canceler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.subscription.cancel.New"

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

		// Тело запроса необязательно: пустое тело означает отмену
		// в конце периода.
		var req models.DummyCancel
		if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode request"))
			return
		}
		atPeriodEnd := true
		if req.AtPeriodEnd != nil {
			atPeriodEnd = *req.AtPeriodEnd
		}

		sub, err := canceler.Cancel(r.Context(), userID, atPeriodEnd)
		if err != nil {
			log.Error("failed to cancel subscription", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		log.Info("canceled subscription",
			slog.Int("subscription_id", sub.ID),
			slog.Bool("at_period_end", atPeriodEnd))
		render.JSON(w, r, response.OKWithData(sub))
	}
}
