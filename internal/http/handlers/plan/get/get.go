package get

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

// PlanGetter описывает сервис получения тарифного плана.
type PlanGetter interface {
	Get(ctx context.Context, id int) (*models.Plan, error)
}

// New
// @Summary Тарифный план по ID
// @Tags plans
// @Produce json
// @Param   id path int true "ID плана"
// @Success 200 {object} response.Response "Тарифный план"
// @Failure 404 {object} response.Response "План не найден"
// @Router /plans/{id} [get]
func New(log *slog.Logger, getter PlanGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.plan.get.New"

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

		plan, err := getter.Get(r.Context(), id)
		if err != nil {
			log.Error("failed to get plan", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.OKWithData(map[string]any{
			"plan":          plan,
			"monthly_price": plan.MonthlyPrice(),
			"features":      plan.FeaturesMap(),
		}))
	}
}
