// Package subscription содержит бизнес-логику жизненного цикла подписок:
// оформление, смену плана, отмену, продление и сводную статистику,
// с кешированием читающих запросов.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magelanzzz/subscription-manager/internal/errs"
	"github.com/magelanzzz/subscription-manager/internal/lib/sl"
	"github.com/magelanzzz/subscription-manager/internal/models"
)

// Ключи кеша читающих запросов. Пагинированная история инвалидируется
// по префиксу пользователя, остальные записи — по точному ключу.
const (
	activeCacheKeyFmt     = "subscription:active:%d"
	historyCachePrefixFmt = "subscription:history:%d|"
	statsCacheKey         = "subscription:stats"
)

// Repository определяет методы для работы с подписками и смежными
// сущностями в хранилище.
type Repository interface {
	// CreateSubscription добавляет новую подписку и возвращает её ID.
	CreateSubscription(ctx context.Context, sub models.Subscription) (int, error)
	// UpdateSubscription обновляет все изменяемые поля подписки по ID.
	UpdateSubscription(ctx context.Context, sub models.Subscription) error
	// GetSubscription возвращает подписку по ID.
	GetSubscription(ctx context.Context, id int) (*models.Subscription, error)
	// FindCurrentSubscription возвращает действующую подписку пользователя
	// или nil, если её нет.
	FindCurrentSubscription(ctx context.Context, userID int, now time.Time) (*models.Subscription, error)
	// FindSubscriptionByStatus возвращает подписку пользователя в указанном
	// статусе или nil.
	FindSubscriptionByStatus(ctx context.Context, userID int, status models.SubscriptionStatus) (*models.Subscription, error)
	// GetActiveSubscriptionWithPlan возвращает действующую подписку с планом
	// или nil, если её нет.
	GetActiveSubscriptionWithPlan(ctx context.Context, userID int, now time.Time) (*models.SubscriptionWithPlan, error)
	// ListSubscriptionHistory возвращает страницу истории подписок
	// пользователя и общее количество по фильтру.
	ListSubscriptionHistory(ctx context.Context, userID int, filter models.HistoryFilter, limit, offset int) ([]*models.SubscriptionWithPlan, int, error)
	// ListExpiringSubscriptions возвращает подписки, истекающие в ближайшие
	// daysAhead дней без автопродления.
	ListExpiringSubscriptions(ctx context.Context, now time.Time, daysAhead int) ([]*models.SubscriptionWithPlan, error)
	// GetSubscriptionStats собирает сводные счётчики подписок.
	GetSubscriptionStats(ctx context.Context, now time.Time) (*models.SubscriptionStats, error)
	// GetPlan возвращает тарифный план по ID.
	GetPlan(ctx context.Context, id int) (*models.Plan, error)
	// GetUserByID возвращает пользователя по ID.
	GetUserByID(ctx context.Context, id int) (*models.User, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значения из кеша по точным ключам.
	Invalidate(ctx context.Context, keys ...string) error
	// InvalidateByPrefix удаляет все ключи с указанным префиксом.
	InvalidateByPrefix(ctx context.Context, prefix string) error
}

// Service реализует бизнес-логику жизненного цикла подписок.
type Service struct {
	repo     Repository
	cache    Cache
	cacheTTL time.Duration
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, cacheTTL time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// Subscribe оформляет подписку пользователя на план. При trial_days > 0
// подписка начинается с пробного периода, иначе сразу активна. Вторая
// действующая подписка запрещена: дружелюбная проверка до вставки плюс
// частичный уникальный индекс в базе на случай гонки.
func (s *Service) Subscribe(ctx context.Context, userID int, req models.DummySubscribe) (*models.Subscription, error) {
	plan, err := s.repo.GetPlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive() {
		return nil, errs.ErrPlanNotActive
	}

	now := time.Now().UTC()
	existing, err := s.repo.FindCurrentSubscription(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errs.ErrDuplicateActiveSubscription
	}

	periodEnd := now.AddDate(0, 0, plan.Interval.PeriodDays())
	sub := models.Subscription{
		UserID:             userID,
		PlanID:             plan.ID,
		PaymentStatus:      models.PaymentStatusPending,
		StartDate:          now,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   &periodEnd,
		Quantity:           1,
		AutoRenew:          true,
	}
	if req.Quantity > 0 {
		sub.Quantity = req.Quantity
	}
	if req.AutoRenew != nil {
		sub.AutoRenew = *req.AutoRenew
	}
	if req.TrialDays > 0 {
		sub.StartTrial(now, req.TrialDays)
	} else {
		sub.Activate()
		sub.PaymentStatus = models.PaymentStatusPaid
	}

	id, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, err
	}
	sub.ID = id
	s.log.Info("created new subscription",
		slog.Int("subscription_id", id),
		slog.Int("user_id", userID),
		slog.Int("plan_id", plan.ID),
		slog.String("status", string(sub.Status)))

	s.invalidateUser(ctx, userID)
	return &sub, nil
}

// GetActive возвращает действующую подписку пользователя с деталями плана:
// активную либо, если активной нет, действующую пробную. Промахи кеша
// и отсутствие подписки не кешируются.
func (s *Service) GetActive(ctx context.Context, userID int) (*models.SubscriptionWithPlan, error) {
	cacheKey := fmt.Sprintf(activeCacheKeyFmt, userID)
	var cached models.SubscriptionWithPlan
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read subscription from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	now := time.Now().UTC()
	sub, err := s.repo.GetActiveSubscriptionWithPlan(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, errs.ErrNoActiveSubscription
	}
	if err := s.cache.Set(ctx, cacheKey, sub, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey), sl.Err(err))
	}
	return sub, nil
}

// GetHistory возвращает страницу истории подписок пользователя с деталями
// планов, новые записи первыми.
func (s *Service) GetHistory(ctx context.Context, userID int, filter models.HistoryFilter, page, perPage int) (*models.SubscriptionPage, error) {
	cacheKey := s.historyCacheKey(userID, filter, page, perPage)
	var cached models.SubscriptionPage
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read history from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	subs, total, err := s.repo.ListSubscriptionHistory(ctx, userID, filter, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}
	result := &models.SubscriptionPage{
		Subscriptions: subs,
		Total:         total,
		Page:          page,
		PerPage:       perPage,
		Pages:         models.CountPages(total, perPage),
	}
	if err := s.cache.Set(ctx, cacheKey, result, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache history", slog.String("key", cacheKey), sl.Err(err))
	}
	return result, nil
}

// Cancel отменяет действующую подписку пользователя. По умолчанию отмена
// отложена до конца оплаченного периода; при atPeriodEnd == false подписка
// закрывается немедленно.
func (s *Service) Cancel(ctx context.Context, userID int, atPeriodEnd bool) (*models.Subscription, error) {
	now := time.Now().UTC()
	sub, err := s.repo.FindCurrentSubscription(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, errs.ErrNoActiveSubscription
	}

	sub.Cancel(now, atPeriodEnd)
	if err := s.repo.UpdateSubscription(ctx, *sub); err != nil {
		return nil, err
	}
	s.log.Info("canceled subscription",
		slog.Int("subscription_id", sub.ID),
		slog.Int("user_id", userID),
		slog.Bool("at_period_end", atPeriodEnd))

	s.invalidateUser(ctx, userID)
	return sub, nil
}

// Upgrade переводит действующую подписку пользователя на другой план.
// Биллинговый период пересчитывается от момента смены по интервалу нового
// плана. Прорация объявлена в запросе, но не считается.
func (s *Service) Upgrade(ctx context.Context, userID int, req models.DummyUpgrade) (*models.Subscription, error) {
	now := time.Now().UTC()
	sub, err := s.repo.FindCurrentSubscription(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, errs.ErrNoActiveSubscription
	}
	if sub.PlanID == req.PlanID {
		return nil, errs.ErrSamePlan
	}

	newPlan, err := s.repo.GetPlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if !newPlan.IsActive() {
		return nil, errs.ErrTargetPlanInactive
	}

	oldPlanID := sub.PlanID
	sub.ChangePlan(newPlan.ID)
	sub.CurrentPeriodStart = now
	periodEnd := now.AddDate(0, 0, newPlan.Interval.PeriodDays())
	sub.CurrentPeriodEnd = &periodEnd
	if err := s.repo.UpdateSubscription(ctx, *sub); err != nil {
		return nil, err
	}
	s.log.Info("changed subscription plan",
		slog.Int("subscription_id", sub.ID),
		slog.Int("old_plan_id", oldPlanID),
		slog.Int("new_plan_id", newPlan.ID))

	s.invalidateUser(ctx, userID)
	return sub, nil
}

// Pause приостанавливает действующую подписку пользователя.
func (s *Service) Pause(ctx context.Context, userID int) (*models.Subscription, error) {
	now := time.Now().UTC()
	sub, err := s.repo.FindCurrentSubscription(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, errs.ErrNoActiveSubscription
	}

	sub.Pause()
	if err := s.repo.UpdateSubscription(ctx, *sub); err != nil {
		return nil, err
	}
	s.log.Info("paused subscription", slog.Int("subscription_id", sub.ID))
	s.invalidateUser(ctx, userID)
	return sub, nil
}

// Resume возвращает приостановленную подписку пользователя в active.
func (s *Service) Resume(ctx context.Context, userID int) (*models.Subscription, error) {
	sub, err := s.repo.FindSubscriptionByStatus(ctx, userID, models.SubscriptionStatusPaused)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, errs.ErrNoActiveSubscription
	}

	sub.Resume()
	if err := s.repo.UpdateSubscription(ctx, *sub); err != nil {
		return nil, err
	}
	s.log.Info("resumed subscription", slog.Int("subscription_id", sub.ID))
	s.invalidateUser(ctx, userID)
	return sub, nil
}

// UpdatePaymentStatus выставляет статус платежа по подписке. Статус failed
// дополнительно переводит подписку в past_due.
func (s *Service) UpdatePaymentStatus(ctx context.Context, subscriptionID int, status models.PaymentStatus) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	sub.UpdatePaymentStatus(status)
	if err := s.repo.UpdateSubscription(ctx, *sub); err != nil {
		return nil, err
	}
	s.log.Info("updated payment status",
		slog.Int("subscription_id", sub.ID),
		slog.String("payment_status", string(status)))
	s.invalidateUser(ctx, sub.UserID)
	return sub, nil
}

// Renew продлевает подписку на один биллинговый период её плана от текущего
// момента, возвращая её в active в том числе из expired. Вызывается внешним
// планировщиком продлений или администратором.
func (s *Service) Renew(ctx context.Context, subscriptionID int) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	plan, err := s.repo.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sub.Renew(now, plan.Interval.PeriodDays())
	if err := s.repo.UpdateSubscription(ctx, *sub); err != nil {
		return nil, err
	}
	s.log.Info("renewed subscription",
		slog.Int("subscription_id", sub.ID),
		slog.Time("current_period_end", *sub.CurrentPeriodEnd))
	s.invalidateUser(ctx, sub.UserID)
	return sub, nil
}

// Expire помечает подписку истёкшей. Вызывается внешним планировщиком
// по окончании неоплаченного периода.
func (s *Service) Expire(ctx context.Context, subscriptionID int) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	sub.Expire(time.Now().UTC())
	if err := s.repo.UpdateSubscription(ctx, *sub); err != nil {
		return nil, err
	}
	s.log.Info("expired subscription", slog.Int("subscription_id", sub.ID))
	s.invalidateUser(ctx, sub.UserID)
	return sub, nil
}

// GrantIndefinite выдаёт пользователю бессрочную подписку на план без дат
// окончания и автопродления. Действующая подписка, если есть, закрывается
// немедленно, иначе вставка упёрлась бы в уникальный индекс.
func (s *Service) GrantIndefinite(ctx context.Context, req models.DummyGrant) (*models.Subscription, error) {
	if _, err := s.repo.GetUserByID(ctx, req.UserID); err != nil {
		return nil, err
	}
	plan, err := s.repo.GetPlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	existing, err := s.repo.FindCurrentSubscription(ctx, req.UserID, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Cancel(now, false)
		if err := s.repo.UpdateSubscription(ctx, *existing); err != nil {
			return nil, err
		}
	}

	sub := models.Subscription{
		UserID:             req.UserID,
		PlanID:             plan.ID,
		Status:             models.SubscriptionStatusActive,
		PaymentStatus:      models.PaymentStatusPaid,
		StartDate:          now,
		CurrentPeriodStart: now,
		Quantity:           1,
		AutoRenew:          false,
	}
	if req.Quantity > 0 {
		sub.Quantity = req.Quantity
	}
	id, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, err
	}
	sub.ID = id
	s.log.Info("granted indefinite subscription",
		slog.Int("subscription_id", id),
		slog.Int("user_id", req.UserID),
		slog.Int("plan_id", plan.ID))

	s.invalidateUser(ctx, req.UserID)
	return &sub, nil
}

// Expiring возвращает подписки без автопродления, истекающие в ближайшие
// daysAhead дней. Выборка для внешнего планировщика уведомлений.
func (s *Service) Expiring(ctx context.Context, daysAhead int) ([]*models.SubscriptionWithPlan, error) {
	return s.repo.ListExpiringSubscriptions(ctx, time.Now().UTC(), daysAhead)
}

// Stats возвращает сводные счётчики подписок для административной панели.
func (s *Service) Stats(ctx context.Context) (*models.SubscriptionStats, error) {
	var cached models.SubscriptionStats
	found, err := s.cache.Get(ctx, statsCacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read stats from cache", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	stats, err := s.repo.GetSubscriptionStats(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, statsCacheKey, stats, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache stats", sl.Err(err))
	}
	return stats, nil
}

// historyCacheKey строит ключ кеша страницы истории. Префикс до "|"
// общий для всех страниц пользователя и используется при инвалидации.
func (s *Service) historyCacheKey(userID int, filter models.HistoryFilter, page, perPage int) string {
	key := fmt.Sprintf(historyCachePrefixFmt, userID)
	for _, status := range filter.Statuses {
		key += string(status) + ","
	}
	if filter.FromDate != nil {
		key += "from:" + filter.FromDate.Format(time.RFC3339)
	}
	if filter.ToDate != nil {
		key += ";to:" + filter.ToDate.Format(time.RFC3339)
	}
	return fmt.Sprintf("%s:%d:%d", key, page, perPage)
}

// invalidateUser синхронно сбрасывает кеш-записи, которые могла затронуть
// мутация подписок пользователя, до возврата ответа вызывающей стороне.
func (s *Service) invalidateUser(ctx context.Context, userID int) {
	keys := []string{fmt.Sprintf(activeCacheKeyFmt, userID), statsCacheKey}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("failed to invalidate subscription cache", sl.Err(err))
	}
	prefix := fmt.Sprintf(historyCachePrefixFmt, userID)
	if err := s.cache.InvalidateByPrefix(ctx, prefix); err != nil {
		s.log.Warn("failed to invalidate history cache", sl.Err(err))
	}
}
