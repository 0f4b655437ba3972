// Package plan содержит бизнес-логику каталога тарифных планов
// с кешированием публичных выборок.
package plan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magelanzzz/subscription-manager/internal/errs"
	"github.com/magelanzzz/subscription-manager/internal/lib/sl"
	"github.com/magelanzzz/subscription-manager/internal/models"
)

// Префикс всех кеш-ключей списков планов. Мутации каталога сбрасывают
// префикс целиком: пагинированные страницы по отдельности не отследить.
const listCachePrefix = "plans:list:"

// PlanRepository определяет методы для работы с планами в хранилище.
type PlanRepository interface {
	// CreatePlan добавляет новый план и возвращает его ID.
	CreatePlan(ctx context.Context, plan models.Plan) (int, error)
	// GetPlan возвращает план по ID.
	GetPlan(ctx context.Context, id int) (*models.Plan, error)
	// UpdatePlan обновляет данные плана по ID.
	UpdatePlan(ctx context.Context, plan models.Plan) error
	// DeletePlan удаляет план по ID.
	DeletePlan(ctx context.Context, id int) error
	// ListPlans возвращает страницу планов и общее количество по фильтру.
	ListPlans(ctx context.Context, status *models.PlanStatus, publicOnly bool, limit, offset int) ([]*models.Plan, int, error)
	// CountActiveSubscriptionsByPlan подсчитывает активные подписки плана.
	CountActiveSubscriptionsByPlan(ctx context.Context, planID int) (int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// InvalidateByPrefix удаляет все ключи с указанным префиксом.
	InvalidateByPrefix(ctx context.Context, prefix string) error
}

// PlanService реализует бизнес-логику каталога планов, включая кеширование.
type PlanService struct {
	repo     PlanRepository
	cache    Cache
	cacheTTL time.Duration
	log      *slog.Logger
}

// NewPlanService создает новый экземпляр PlanService.
func NewPlanService(repo PlanRepository, cache Cache, cacheTTL time.Duration, log *slog.Logger) *PlanService {
	return &PlanService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// List возвращает страницу планов по фильтрам, используя кеш или репозиторий.
// Администратор видит любые планы, обычный пользователь — только публичные.
func (s *PlanService) List(ctx context.Context, status *models.PlanStatus, publicOnly bool, page, perPage int) (*models.PlanPage, error) {
	statusKey := "any"
	if status != nil {
		statusKey = string(*status)
	}
	cacheKey := fmt.Sprintf("%s%s:%t:%d:%d", listCachePrefix, statusKey, publicOnly, page, perPage)

	var cached models.PlanPage
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read plans from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	plans, total, err := s.repo.ListPlans(ctx, status, publicOnly, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}
	result := &models.PlanPage{
		Plans:   plans,
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   models.CountPages(total, perPage),
	}
	if err := s.cache.Set(ctx, cacheKey, result, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache plans", slog.String("key", cacheKey), sl.Err(err))
	}
	return result, nil
}

// Get возвращает план по ID.
func (s *PlanService) Get(ctx context.Context, id int) (*models.Plan, error) {
	return s.repo.GetPlan(ctx, id)
}

// Create создает новый план из данных запроса и возвращает его ID.
func (s *PlanService) Create(ctx context.Context, req models.DummyPlan) (int, error) {
	plan, err := planFromRequest(req)
	if err != nil {
		return 0, err
	}
	id, err := s.repo.CreatePlan(ctx, *plan)
	if err != nil {
		return 0, err
	}
	s.log.Info("created new plan", slog.Int("plan_id", id))
	s.invalidateListCache(ctx)
	return id, nil
}

// Update обновляет план по ID данными запроса.
func (s *PlanService) Update(ctx context.Context, id int, req models.DummyPlan) (*models.Plan, error) {
	plan, err := planFromRequest(req)
	if err != nil {
		return nil, err
	}
	plan.ID = id
	if err := s.repo.UpdatePlan(ctx, *plan); err != nil {
		return nil, err
	}
	s.log.Info("updated plan", slog.Int("plan_id", id))
	s.invalidateListCache(ctx)
	return s.repo.GetPlan(ctx, id)
}

// Delete удаляет план по ID. План с активными подписками удалить нельзя.
func (s *PlanService) Delete(ctx context.Context, id int) error {
	count, err := s.repo.CountActiveSubscriptionsByPlan(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errs.ErrPlanHasActiveSubscriptions
	}
	if err := s.repo.DeletePlan(ctx, id); err != nil {
		return err
	}
	s.log.Info("deleted plan", slog.Int("plan_id", id))
	s.invalidateListCache(ctx)
	return nil
}

// Intervals возвращает поддерживаемые интервалы тарифных планов.
func (s *PlanService) Intervals(_ context.Context) []models.Interval {
	return models.Intervals()
}

// Statuses возвращает поддерживаемые статусы тарифных планов.
func (s *PlanService) Statuses(_ context.Context) []models.PlanStatus {
	return models.PlanStatuses()
}

// invalidateListCache сбрасывает кеш списков планов синхронно, до возврата
// ответа вызывающей стороне. Ошибка сброса мутацию не откатывает.
func (s *PlanService) invalidateListCache(ctx context.Context) {
	if err := s.cache.InvalidateByPrefix(ctx, listCachePrefix); err != nil {
		s.log.Warn("failed to invalidate plans cache", sl.Err(err))
	}
}

// planFromRequest преобразует данные запроса в модель плана, выставляя
// значения по умолчанию для опущенных полей.
func planFromRequest(req models.DummyPlan) (*models.Plan, error) {
	plan := &models.Plan{
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		Interval:       models.Interval(req.Interval),
		DurationMonths: req.DurationMonths,
		Status:         models.PlanStatusActive,
		IsPublic:       true,
		MaxUsers:       req.MaxUsers,
		ParentID:       req.ParentID,
		SortOrder:      req.SortOrder,
	}
	if req.DurationMonths == 0 {
		plan.DurationMonths = 1
	}
	if req.Status != "" {
		plan.Status = models.PlanStatus(req.Status)
	}
	if req.IsPublic != nil {
		plan.IsPublic = *req.IsPublic
	}
	if req.Features != nil {
		if err := plan.SetFeaturesMap(req.Features); err != nil {
			return nil, err
		}
	}
	return plan, nil
}
