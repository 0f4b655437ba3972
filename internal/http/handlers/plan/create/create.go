package create

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

// PlanCreater описывает сервис создания тарифных планов.
type PlanCreater interface {
	Create(ctx context.Context, req models.DummyPlan) (int, error)
}

// New
// @Summary Создание тарифного плана
// @Tags plans
// @Security BearerAuth
// @Accept  json
// @Produce json
// @Param   planRequest body models.DummyPlan true "Данные нового плана"
// @Success 201 {object} response.Response "План создан"
// @Failure 403 {object} response.Response "Требуются права администратора"
// @Failure 409 {object} response.Response "План с таким именем и интервалом уже существует"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Router /plans [post]
func New(log *slog.Logger, creater PlanCreater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.plan.create.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req models.DummyPlan
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode request"))
			return
		}
		log.Info("request body decoded", slog.String("name", req.Name))

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("invalid request", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		id, err := creater.Create(r.Context(), req)
		if err != nil {
			log.Error("failed to create plan", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		log.Info("created new plan", slog.Int("plan_id", id))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.OKWithData(map[string]any{
			"id": id,
		}))
	}
}
