package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/magelanzzz/subscription-manager/internal/errs"
	"github.com/magelanzzz/subscription-manager/internal/models"
)

const subscriptionColumns = `s.id, s.user_id, s.plan_id, s.status, s.payment_status,
	s.start_date, s.end_date, s.trial_end_date, s.canceled_at,
	s.current_period_start, s.current_period_end, s.quantity,
	s.cancel_at_period_end, s.auto_renew, s.metadata, s.created_at, s.updated_at`

const joinedPlanColumns = `p.id, p.name, p.description, p.price, p.interval,
	p.duration_months, p.features, p.status, p.is_public, p.max_users,
	p.parent_id, p.sort_order, p.created_at, p.updated_at`

// subscriptionActiveSQL возвращает SQL-эквивалент предиката
// models.(*Subscription).IsActive для инжектированного параметра now.
// Оба контекста исполнения обязаны давать одинаковый результат на одном
// и том же значении now.
func subscriptionActiveSQL(nowParam string) string {
	return fmt.Sprintf(
		"s.status = 'active' AND s.start_date <= %[1]s AND (s.end_date IS NULL OR s.end_date > %[1]s)",
		nowParam)
}

// subscriptionTrialSQL возвращает SQL-эквивалент предиката
// models.(*Subscription).IsTrial для инжектированного параметра now.
func subscriptionTrialSQL(nowParam string) string {
	return fmt.Sprintf(
		"s.status = 'trial' AND s.trial_end_date IS NOT NULL AND s.trial_end_date > %s",
		nowParam)
}

func scanSubscription(row rowScanner, extra ...any) (*models.Subscription, error) {
	var sub models.Subscription
	dest := []any{
		&sub.ID, &sub.UserID, &sub.PlanID, &sub.Status, &sub.PaymentStatus,
		&sub.StartDate, &sub.EndDate, &sub.TrialEndDate, &sub.CanceledAt,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.Quantity,
		&sub.CancelAtPeriodEnd, &sub.AutoRenew, &sub.Metadata, &sub.CreatedAt, &sub.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &sub, nil
}

func scanSubscriptionWithPlan(row rowScanner, extra ...any) (*models.SubscriptionWithPlan, error) {
	var sub models.Subscription
	var plan models.Plan
	var features sql.NullString
	dest := []any{
		&sub.ID, &sub.UserID, &sub.PlanID, &sub.Status, &sub.PaymentStatus,
		&sub.StartDate, &sub.EndDate, &sub.TrialEndDate, &sub.CanceledAt,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.Quantity,
		&sub.CancelAtPeriodEnd, &sub.AutoRenew, &sub.Metadata, &sub.CreatedAt, &sub.UpdatedAt,
		&plan.ID, &plan.Name, &plan.Description, &plan.Price, &plan.Interval,
		&plan.DurationMonths, &features, &plan.Status, &plan.IsPublic,
		&plan.MaxUsers, &plan.ParentID, &plan.SortOrder, &plan.CreatedAt, &plan.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	plan.Features = features.String
	return &models.SubscriptionWithPlan{Subscription: sub, Plan: &plan}, nil
}

// CreateSubscription вставляет новую подписку и возвращает её ID.
// Частичный уникальный индекс uniq_user_active_subscription гарантирует
// не более одной подписки в статусах active/trial на пользователя:
// нарушение отображается в ErrDuplicateActiveSubscription, поэтому гонка
// параллельных подписок не может создать две одновременно действующие.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (int, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO user_subscriptions
			      (user_id, plan_id, status, payment_status, start_date, end_date,
			       trial_end_date, canceled_at, current_period_start, current_period_end,
			       quantity, cancel_at_period_end, auto_renew, metadata)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		sub.UserID, sub.PlanID, sub.Status, sub.PaymentStatus, sub.StartDate,
		sub.EndDate, sub.TrialEndDate, sub.CanceledAt, sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd, sub.Quantity, sub.CancelAtPeriodEnd, sub.AutoRenew,
		sub.Metadata).Scan(&newID)
	if err != nil {
		if isUniqueViolation(err, "uniq_user_active_subscription") {
			return 0, errs.ErrDuplicateActiveSubscription
		}
		return 0, fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	return newID, nil
}

// UpdateSubscription обновляет все изменяемые поля подписки по её ID.
func (s *Storage) UpdateSubscription(ctx context.Context, sub models.Subscription) error {
	const op = "storage.UpdateSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE user_subscriptions
			  SET plan_id = $1, status = $2, payment_status = $3, start_date = $4,
			      end_date = $5, trial_end_date = $6, canceled_at = $7,
			      current_period_start = $8, current_period_end = $9, quantity = $10,
			      cancel_at_period_end = $11, auto_renew = $12, metadata = $13,
			      updated_at = now()
			  WHERE id = $14`
	result, err := s.DB.ExecContext(ctx, query,
		sub.PlanID, sub.Status, sub.PaymentStatus, sub.StartDate, sub.EndDate,
		sub.TrialEndDate, sub.CanceledAt, sub.CurrentPeriodStart, sub.CurrentPeriodEnd,
		sub.Quantity, sub.CancelAtPeriodEnd, sub.AutoRenew, sub.Metadata, sub.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	if rowsAffected == 0 {
		return errs.ErrSubscriptionNotFound
	}
	return nil
}

// GetSubscription возвращает подписку по её ID.
func (s *Storage) GetSubscription(ctx context.Context, id int) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + ` FROM user_subscriptions s WHERE s.id = $1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	return sub, nil
}

// FindSubscriptionByStatus возвращает подписку пользователя в указанном
// статусе или nil, если такой нет. Отсутствие записи ошибкой не считается.
func (s *Storage) FindSubscriptionByStatus(ctx context.Context, userID int, status models.SubscriptionStatus) (*models.Subscription, error) {
	const op = "storage.FindSubscriptionByStatus"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM user_subscriptions s
			  WHERE s.user_id = $1 AND s.status = $2
			  LIMIT 1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userID, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	return sub, nil
}

// FindCurrentSubscription возвращает действующую в момент now подписку
// пользователя: активную по предикату is_active либо, если такой нет,
// пробную по предикату is_trial. nil без ошибки — если нет ни той, ни другой.
func (s *Storage) FindCurrentSubscription(ctx context.Context, userID int, now time.Time) (*models.Subscription, error) {
	const op = "storage.FindCurrentSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM user_subscriptions s
			  WHERE s.user_id = $1 AND (` + subscriptionActiveSQL("$2") + `
			     OR ` + subscriptionTrialSQL("$2") + `)
			  ORDER BY s.status
			  LIMIT 1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userID, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	return sub, nil
}

// GetActiveSubscriptionWithPlan возвращает активную подписку пользователя
// вместе с планом одним JOIN-запросом; если активной нет, пытается найти
// действующую пробную. nil без ошибки — если не найдено ничего.
func (s *Storage) GetActiveSubscriptionWithPlan(ctx context.Context, userID int, now time.Time) (*models.SubscriptionWithPlan, error) {
	const op = "storage.GetActiveSubscriptionWithPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	activeQuery := `SELECT ` + subscriptionColumns + `, ` + joinedPlanColumns + `
			  FROM user_subscriptions s
			  JOIN subscription_plans p ON s.plan_id = p.id
			  WHERE s.user_id = $1 AND ` + subscriptionActiveSQL("$2") + `
			  LIMIT 1`
	sub, err := scanSubscriptionWithPlan(s.DB.QueryRowContext(ctx, activeQuery, userID, now))
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, errs.Store(err))
	}

	trialQuery := `SELECT ` + subscriptionColumns + `, ` + joinedPlanColumns + `
			  FROM user_subscriptions s
			  JOIN subscription_plans p ON s.plan_id = p.id
			  WHERE s.user_id = $1 AND ` + subscriptionTrialSQL("$2") + `
			  LIMIT 1`
	sub, err = scanSubscriptionWithPlan(s.DB.QueryRowContext(ctx, trialQuery, userID, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	return sub, nil
}

// ListSubscriptionHistory возвращает страницу истории подписок пользователя
// с деталями планов, новые записи первыми. Общее количество считается тем же
// запросом через COUNT(*) OVER() и отражает тот же набор фильтров.
func (s *Storage) ListSubscriptionHistory(ctx context.Context, userID int, filter models.HistoryFilter, limit, offset int) ([]*models.SubscriptionWithPlan, int, error) {
	const op = "storage.ListSubscriptionHistory"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	where := "s.user_id = $1"
	args := []any{userID}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			args = append(args, status)
			placeholders = append(placeholders, "$"+strconv.Itoa(len(args)))
		}
		where += " AND s.status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	if filter.FromDate != nil {
		args = append(args, *filter.FromDate)
		where += " AND s.created_at >= $" + strconv.Itoa(len(args))
	}
	if filter.ToDate != nil {
		args = append(args, *filter.ToDate)
		where += " AND s.created_at <= $" + strconv.Itoa(len(args))
	}
	args = append(args, limit)
	limitParam := strconv.Itoa(len(args))
	args = append(args, offset)
	offsetParam := strconv.Itoa(len(args))

	query := `SELECT ` + subscriptionColumns + `, ` + joinedPlanColumns + `,
			      COUNT(*) OVER() AS total_count
			  FROM user_subscriptions s
			  JOIN subscription_plans p ON s.plan_id = p.id
			  WHERE ` + where + `
			  ORDER BY s.created_at DESC
			  LIMIT $` + limitParam + ` OFFSET $` + offsetParam
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	defer rows.Close()

	var result []*models.SubscriptionWithPlan
	var total int
	for rows.Next() {
		sub, err := scanSubscriptionWithPlan(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, errs.Store(err))
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	return result, total, nil
}

// ListExpiringSubscriptions возвращает активные подписки без автопродления,
// чей текущий период заканчивается в ближайшие daysAhead дней от now.
// Выборка предназначена для внешнего планировщика продлений.
func (s *Storage) ListExpiringSubscriptions(ctx context.Context, now time.Time, daysAhead int) ([]*models.SubscriptionWithPlan, error) {
	const op = "storage.ListExpiringSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `, ` + joinedPlanColumns + `
			  FROM user_subscriptions s
			  JOIN subscription_plans p ON s.plan_id = p.id
			  WHERE s.status = $1
			    AND s.auto_renew = FALSE
			    AND s.current_period_end IS NOT NULL
			    AND s.current_period_end BETWEEN $2 AND $2 + make_interval(days => $3)
			  ORDER BY s.current_period_end`
	rows, err := s.DB.QueryContext(ctx, query, models.SubscriptionStatusActive, now, daysAhead)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	defer rows.Close()

	var result []*models.SubscriptionWithPlan
	for rows.Next() {
		sub, err := scanSubscriptionWithPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, errs.Store(err))
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	return result, nil
}

// GetSubscriptionStats собирает сводные счётчики подписок одним запросом
// с подзапросами — единственный сетевой round-trip для всей статистики.
func (s *Storage) GetSubscriptionStats(ctx context.Context, now time.Time) (*models.SubscriptionStats, error) {
	const op = "storage.GetSubscriptionStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
			  (SELECT COUNT(*) FROM user_subscriptions
			   WHERE status = 'active') AS active_count,

			  (SELECT COUNT(*) FROM user_subscriptions
			   WHERE status = 'trial'
			     AND trial_end_date IS NOT NULL
			     AND trial_end_date > $1) AS trial_count,

			  (SELECT COUNT(*) FROM user_subscriptions
			   WHERE status = 'active'
			     AND auto_renew = FALSE
			     AND current_period_end IS NOT NULL
			     AND current_period_end BETWEEN $1 AND $1 + interval '7 days') AS expiring_soon_count,

			  (SELECT COUNT(*) FROM user_subscriptions
			   WHERE created_at >= $1 - interval '30 days') AS new_count,

			  (SELECT COUNT(*) FROM user_subscriptions
			   WHERE status = 'canceled'
			     AND canceled_at IS NOT NULL
			     AND canceled_at >= $1 - interval '30 days') AS recently_canceled_count`
	var stats models.SubscriptionStats
	err := s.DB.QueryRowContext(ctx, query, now).Scan(
		&stats.ActiveCount, &stats.TrialCount, &stats.ExpiringSoonCount,
		&stats.NewCount, &stats.RecentlyCanceledCount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	return &stats, nil
}
