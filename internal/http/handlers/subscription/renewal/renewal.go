// Package renewal содержит административные обработчики продления
// и принудительного истечения подписок, используемые также внешним
// планировщиком биллинга.
package renewal

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magelanzzz/subscription-manager/internal/http/response"
	"github.com/magelanzzz/subscription-manager/internal/lib/sl"
	"github.com/magelanzzz/subscription-manager/internal/models"
)

// Renewer описывает сервис продления и истечения подписок.
type Renewer interface {
	Renew(ctx context.Context, subscriptionID int) (*models.Subscription, error)
	Expire(ctx context.Context, subscriptionID int) (*models.Subscription, error)
}

// NewRenew
// @Summary Продление подписки на один биллинговый период
// @Description Возвращает подписку в active, в том числе из expired.
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param   id path int true "ID подписки"
// @Success 200 {object} response.Response "Подписка продлена"
// @Failure 403 {object} response.Response "Требуются права администратора"
// @Failure 404 {object} response.Response "Подписка не найдена"
// @Router /admin/subscriptions/{id}/renew [post]
func NewRenew(log *slog.Logger, renewer Renewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.subscription.renewal.NewRenew"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			log.Error("invalid subscription id", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid subscription id"))
			return
		}

		sub, err := renewer.Renew(r.Context(), id)
		if err != nil {
			log.Error("failed to renew subscription", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		log.Info("renewed subscription", slog.Int("subscription_id", sub.ID))
		render.JSON(w, r, response.OKWithData(sub))
	}
}

// NewExpire
// @Summary Принудительное истечение подписки
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param   id path int true "ID подписки"
// @Success 200 {object} response.Response "Подписка помечена истёкшей"
// @Failure 403 {object} response.Response "Требуются права администратора"
// @Failure 404 {object} response.Response "Подписка не найдена"
// @Router /admin/subscriptions/{id}/expire [post]
func NewExpire(log *slog.Logger, renewer Renewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.subscription.renewal.NewExpire"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			log.Error("invalid subscription id", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid subscription id"))
			return
		}

		sub, err := renewer.Expire(r.Context(), id)
		if err != nil {
			log.Error("failed to expire subscription", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		log.Info("expired subscription", slog.Int("subscription_id", sub.ID))
		render.JSON(w, r, response.OKWithData(sub))
	}
}
