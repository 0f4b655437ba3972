package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magelanzzz/subscription-manager/internal/errs"
	"github.com/magelanzzz/subscription-manager/internal/models"
)

// CreateUser вставляет нового пользователя и возвращает его ID.
// Нарушение уникальности имени или email отображается в ErrDuplicateUser.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (int, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (username, email, password_hash, is_admin)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.IsAdmin).Scan(&newID)
	if err != nil {
		if isUniqueViolation(err, "users_") {
			return 0, errs.ErrDuplicateUser
		}
		return 0, fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	return newID, nil
}

// GetUserByIdentifier возвращает пользователя по имени или email.
// Совпадение точное, с учётом регистра, как хранится в базе.
func (s *Storage) GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	const op = "storage.GetUserByIdentifier"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, username, email, password_hash, is_admin, created_at, updated_at
			  FROM users
			  WHERE username = $1 OR email = $1`
	row := s.DB.QueryRowContext(ctx, query, identifier)

	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.IsAdmin, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	return &user, nil
}

// GetUserByID возвращает пользователя по его идентификатору.
func (s *Storage) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	const op = "storage.GetUserByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, username, email, password_hash, is_admin, created_at, updated_at
			  FROM users
			  WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.IsAdmin, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, errs.Store(err))
	}
	return &user, nil
}
