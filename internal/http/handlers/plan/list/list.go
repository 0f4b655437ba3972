package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magelanzzz/subscription-manager/internal/http/middlewarectx"
	"github.com/magelanzzz/subscription-manager/internal/http/response"
	"github.com/magelanzzz/subscription-manager/internal/lib/sl"
	"github.com/magelanzzz/subscription-manager/internal/models"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// PlanLister описывает сервис постраничного списка тарифных планов.
type PlanLister interface {
	List(ctx context.Context, status *models.PlanStatus, publicOnly bool, page, perPage int) (*models.PlanPage, error)
}

// New
// @Summary Список тарифных планов
// @Description Доступен без аутентификации: анонимный пользователь видит
// @Description только публичные планы, администратор при all=true — весь каталог.
// @Tags plans
// @Produce json
// @Param   status query string false "Фильтр по статусу плана"
// @Param   all query bool false "Показать непубличные планы (только администратор)"
// @Param   page query int false "Номер страницы"
// @Param   per_page query int false "Размер страницы"
// @Success 200 {object} response.Response "Страница планов"
// @Router /plans [get]
func New(log *slog.Logger, lister PlanLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.plan.list.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var status *models.PlanStatus
		if s := r.URL.Query().Get("status"); s != "" {
			planStatus := models.PlanStatus(s)
			status = &planStatus
		}

		publicOnly := true
		if r.URL.Query().Get("all") == "true" && middlewarectx.IsAdminFromContext(r.Context()) {
			publicOnly = false
		}

		page := parsePositive(r.URL.Query().Get("page"), 1)
		perPage := parsePositive(r.URL.Query().Get("per_page"), defaultPerPage)
		if perPage > maxPerPage {
			perPage = maxPerPage
		}

		result, err := lister.List(r.Context(), status, publicOnly, page, perPage)
		if err != nil {
			log.Error("failed to list plans", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		log.Info("listed plans", slog.Int("total", result.Total))
		render.JSON(w, r, response.OKWithData(result))
	}
}

// parsePositive разбирает положительное число из строки запроса,
// возвращая fallback для пустых и некорректных значений.
func parsePositive(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
