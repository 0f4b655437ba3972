package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/magelanzzz/subscription-manager/internal/errs"
	"github.com/magelanzzz/subscription-manager/internal/models"
)

const planColumns = `id, name, description, price, interval, duration_months,
	features, status, is_public, max_users, parent_id, sort_order, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner, extra ...any) (*models.Plan, error) {
	var plan models.Plan
	var features sql.NullString
	dest := []any{
		&plan.ID, &plan.Name, &plan.Description, &plan.Price, &plan.Interval,
		&plan.DurationMonths, &features, &plan.Status, &plan.IsPublic,
		&plan.MaxUsers, &plan.ParentID, &plan.SortOrder, &plan.CreatedAt, &plan.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	plan.Features = features.String
	return &plan, nil
}

// CreatePlan вставляет новый тарифный план и возвращает его ID.
// Нарушение уникальности пары (name, interval) отображается в ErrDuplicatePlan.
func (s *Storage) CreatePlan(ctx context.Context, plan models.Plan) (int, error) {
	const op = "storage.CreatePlan"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscription_plans
			      (name, description, price, interval, duration_months, features,
			       status, is_public, max_users, parent_id, sort_order)
			  VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		plan.Name, plan.Description, plan.Price, plan.Interval, plan.DurationMonths,
		plan.Features, plan.Status, plan.IsPublic, plan.MaxUsers, plan.ParentID,
		plan.SortOrder).Scan(&newID)
	if err != nil {
		if isUniqueViolation(err, "uix_plan_name_interval") {
			return 0, errs.ErrDuplicatePlan
		}
		return 0, fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	return newID, nil
}

// GetPlan возвращает тарифный план по его ID.
func (s *Storage) GetPlan(ctx context.Context, id int) (*models.Plan, error) {
	const op = "storage.GetPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + ` FROM subscription_plans WHERE id = $1`
	plan, err := scanPlan(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrPlanNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	return plan, nil
}

// UpdatePlan обновляет все изменяемые поля тарифного плана по его ID.
func (s *Storage) UpdatePlan(ctx context.Context, plan models.Plan) error {
	const op = "storage.UpdatePlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscription_plans
			  SET name = $1, description = $2, price = $3, interval = $4,
			      duration_months = $5, features = NULLIF($6, ''), status = $7,
			      is_public = $8, max_users = $9, parent_id = $10, sort_order = $11,
			      updated_at = now()
			  WHERE id = $12`
	result, err := s.DB.ExecContext(ctx, query,
		plan.Name, plan.Description, plan.Price, plan.Interval, plan.DurationMonths,
		plan.Features, plan.Status, plan.IsPublic, plan.MaxUsers, plan.ParentID,
		plan.SortOrder, plan.ID)
	if err != nil {
		if isUniqueViolation(err, "uix_plan_name_interval") {
			return errs.ErrDuplicatePlan
		}
		return fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	if rowsAffected == 0 {
		return errs.ErrPlanNotFound
	}
	return nil
}

// DeletePlan удаляет тарифный план по его ID.
// Проверку на активные подписки выполняет сервисный слой до вызова.
func (s *Storage) DeletePlan(ctx context.Context, id int) error {
	const op = "storage.DeletePlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM subscription_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	if rowsAffected == 0 {
		return errs.ErrPlanNotFound
	}
	return nil
}

// ListPlans возвращает страницу тарифных планов по фильтрам вместе с общим
// количеством строк, посчитанным той же выборкой через COUNT(*) OVER().
// Планы упорядочены по sort_order по возрастанию.
func (s *Storage) ListPlans(ctx context.Context, status *models.PlanStatus, publicOnly bool, limit, offset int) ([]*models.Plan, int, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	where := "TRUE"
	args := []any{}
	if status != nil {
		args = append(args, *status)
		where += " AND status = $" + strconv.Itoa(len(args))
	}
	if publicOnly {
		where += " AND is_public = TRUE"
	}
	args = append(args, limit)
	limitParam := strconv.Itoa(len(args))
	args = append(args, offset)
	offsetParam := strconv.Itoa(len(args))

	query := `SELECT ` + planColumns + `, COUNT(*) OVER() AS total_count
			  FROM subscription_plans
			  WHERE ` + where + `
			  ORDER BY sort_order
			  LIMIT $` + limitParam + ` OFFSET $` + offsetParam
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	defer rows.Close()

	var result []*models.Plan
	var total int
	for rows.Next() {
		plan, err := scanPlan(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, errs.Store(err))
		}
		result = append(result, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	return result, total, nil
}

// CountActiveSubscriptionsByPlan подсчитывает подписки плана в статусе active.
// Используется для запрета удаления плана с активными подписками.
func (s *Storage) CountActiveSubscriptionsByPlan(ctx context.Context, planID int) (int, error) {
	const op = "storage.CountActiveSubscriptionsByPlan"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*) FROM user_subscriptions WHERE plan_id = $1 AND status = $2`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, planID, models.SubscriptionStatusActive).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	return count, nil
}
