package payment

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magelanzzz/subscription-manager/internal/http/response"
	"github.com/magelanzzz/subscription-manager/internal/lib/sl"
	"github.com/magelanzzz/subscription-manager/internal/models"
)

// PaymentRequest — тело запроса смены статуса платежа.
type PaymentRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=paid pending failed refunded"` // Новый статус платежа
}

// PaymentUpdater описывает сервис смены статуса платежа по подписке.
type PaymentUpdater interface {
	UpdatePaymentStatus(ctx context.Context, subscriptionID int, status models.PaymentStatus) (*models.Subscription, error)
}

// New
// @Summary Смена статуса платежа по подписке
// @Description Статус failed дополнительно переводит подписку в past_due.
// @Tags admin
// @Security BearerAuth
// @Accept  json
// @Produce json
// @Param   id path int true "ID подписки"
// @Param   paymentRequest body PaymentRequest true "Новый статус платежа"
// @Success 200 {object} response.Response "Статус платежа обновлён"
// @Failure 403 {object} response.Response "Требуются права администратора"
// @Failure 404 {object} response.Response "Подписка не найдена"
// @Failure 422 {object} response.Response "Недопустимый статус платежа"
// @Router /admin/subscriptions/{id}/payment [patch]
func New(log *slog.Logger, updater PaymentUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.subscription.payment.New"

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

		var req PaymentRequest
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

		sub, err := updater.UpdatePaymentStatus(r.Context(), id, models.PaymentStatus(req.PaymentStatus))
		if err != nil {
			log.Error("failed to update payment status", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		log.Info("updated payment status",
			slog.Int("subscription_id", sub.ID),
			slog.String("payment_status", req.PaymentStatus))
		render.JSON(w, r, response.OKWithData(sub))
	}
}
