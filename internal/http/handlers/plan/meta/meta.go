// Package meta отдаёт справочные перечисления каталога планов:
// поддерживаемые интервалы списания и статусы планов.
package meta

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magelanzzz/subscription-manager/internal/http/response"
	"github.com/magelanzzz/subscription-manager/internal/models"
)

// PlanMeta описывает сервис справочных данных каталога планов.
type PlanMeta interface {
	Intervals(ctx context.Context) []models.Interval
	Statuses(ctx context.Context) []models.PlanStatus
}

// NewIntervals
// @Summary Поддерживаемые интервалы тарифных планов
// @Tags plans
// @Produce json
// @Success 200 {object} response.Response "Интервалы с длительностью в днях"
// @Router /plans/intervals [get]
func NewIntervals(log *slog.Logger, meta PlanMeta) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		intervals := meta.Intervals(r.Context())
		result := make([]map[string]any, 0, len(intervals))
		for _, interval := range intervals {
			result = append(result, map[string]any{
				"interval":    interval,
				"period_days": interval.PeriodDays(),
			})
		}
		render.JSON(w, r, response.OKWithData(result))
	}
}

// NewStatuses
// @Summary Поддерживаемые статусы тарифных планов
// @Tags plans
// @Produce json
// @Success 200 {object} response.Response "Статусы планов"
// @Router /plans/statuses [get]
func NewStatuses(log *slog.Logger, meta PlanMeta) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.OKWithData(meta.Statuses(r.Context())))
	}
}
