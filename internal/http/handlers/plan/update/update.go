package update

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

// PlanUpdater описывает сервис обновления тарифных планов.
type PlanUpdater interface {
	Update(ctx context.Context, id int, req models.DummyPlan) (*models.Plan, error)
}

// New
// @Summary Обновление тарифного плана
// @Tags plans
// @Security BearerAuth
// @Accept  json
// @Produce json
// @Param   id path int true "ID плана"
// @Param   planRequest body models.DummyPlan true "Новые данные плана"
// @Success 200 {object} response.Response "Обновлённый план"
// @Failure 403 {object} response.Response "Требуются права администратора"
// @Failure 404 {object} response.Response "План не найден"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Router /plans/{id} [put]
func New(log *slog.Logger, updater PlanUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.plan.update.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			log.Error("invalid plan id", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid plan id"))
			return
		}

		var req models.DummyPlan
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

		plan, err := updater.Update(r.Context(), id, req)
		if err != nil {
			log.Error("failed to update plan", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		log.Info("updated plan", slog.Int("plan_id", id))
		render.JSON(w, r, response.OKWithData(plan))
	}
}
