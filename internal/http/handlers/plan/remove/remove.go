package remove

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
)

// PlanRemover описывает сервис удаления тарифных планов.
type PlanRemover interface {
	Delete(ctx context.Context, id int) error
}

// New
// @Summary Удаление тарифного плана
// @Description План с активными подписками удалить нельзя.
// @Tags plans
// @Security BearerAuth
// @Produce json
// @Param   id path int true "ID плана"
// @Success 200 {object} response.Response "План удалён"
// @Failure 403 {object} response.Response "Требуются права администратора"
// @Failure 404 {object} response.Response "План не найден"
// @Failure 412 {object} response.Response "У плана есть активные подписки"
// @Router /plans/{id} [delete]
func New(log *slog.Logger, remover PlanRemover) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.plan.remove.New"

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

		if err := remover.Delete(r.Context(), id); err != nil {
			log.Error("failed to delete plan", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		log.Info("deleted plan", slog.Int("plan_id", id))
		render.JSON(w, r, response.OKWithData(map[string]any{
			"message": "plan deleted successfully",
		}))
	}
}
