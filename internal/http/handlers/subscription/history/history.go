package history

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

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

// HistoryLister описывает сервис постраничной истории подписок пользователя.
type HistoryLister interface {
	GetHistory(ctx context.Context, userID int, filter models.HistoryFilter, page, perPage int) (*models.SubscriptionPage, error)
}

// New
// @Summary История подписок пользователя
// @Description Все подписки пользователя с деталями планов, новые первыми.
// @Tags subscriptions
// @Security BearerAuth
// @Produce json
// @Param   status query string false "Фильтр по статусам через запятую"
// @Param   from query string false "Созданные не раньше даты (RFC 3339)"
// @Param   to query string false "Созданные не позже даты (RFC 3339)"
// @Param   page query int false "Номер страницы"
// @Param   per_page query int false "Размер страницы"
// @Success 200 {object} response.Response "Страница истории подписок"
// @Failure 400 {object} response.Response "Некорректные параметры фильтра"
// @Router /subscriptions/history [get]
func New(log *slog.Logger, lister HistoryLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.subscription.history.New"

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

		filter, err := parseFilter(r)
		if err != nil {
			log.Error("invalid history filter", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid history filter"))
			return
		}

		page := parsePositive(r.URL.Query().Get("page"), 1)
		perPage := parsePositive(r.URL.Query().Get("per_page"), defaultPerPage)
		if perPage > maxPerPage {
			perPage = maxPerPage
		}

		result, err := lister.GetHistory(r.Context(), userID, filter, page, perPage)
		if err != nil {
			log.Error("failed to get subscription history", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		log.Info("listed subscription history", slog.Int("total", result.Total))
		render.JSON(w, r, response.OKWithData(result))
	}
}

func parseFilter(r *http.Request) (models.HistoryFilter, error) {
	var filter models.HistoryFilter

	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.Statuses = append(filter.Statuses, models.SubscriptionStatus(strings.TrimSpace(s)))
		}
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, err
		}
		filter.FromDate = &from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, err
		}
		filter.ToDate = &to
	}
	return filter, nil
}

func parsePositive(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
