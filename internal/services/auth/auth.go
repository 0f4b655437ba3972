// Package auth содержит логику бизнес-уровня для регистрации,
// аутентификации и обновления токенов пользователей.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/magelanzzz/subscription-manager/internal/errs"
	"github.com/magelanzzz/subscription-manager/internal/lib/jwt"
	"github.com/magelanzzz/subscription-manager/internal/lib/password"
	"github.com/magelanzzz/subscription-manager/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его ID.
	CreateUser(ctx context.Context, user models.User) (int, error)

	// GetUserByIdentifier возвращает пользователя по имени или email.
	GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error)

	// GetUserByID возвращает пользователя по его идентификатору.
	GetUserByID(ctx context.Context, id int) (*models.User, error)
}

// TokenPair — пара выпущенных токенов доступа.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService отвечает за регистрацию, авторизацию и обновление JWT.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Register создает нового пользователя с хэшированием пароля.
// Первый администратор назначается вне API, флаг is_admin при регистрации
// всегда false.
func (s *AuthService) Register(ctx context.Context, req models.DummyRegister) (int, error) {
	if !strings.Contains(req.Email, "@") {
		return 0, errs.ErrInvalidEmail
	}
	if len(req.Password) < 6 {
		return 0, errs.ErrWeakPassword
	}

	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return 0, err
	}
	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		IsAdmin:      false,
	}
	id, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return 0, err
	}
	s.log.Info("registered new user", slog.Int("user_id", id))
	return id, nil
}

// Login проверяет пароль пользователя по имени или email и выпускает пару
// токенов. Признак администратора материализуется в claims в момент входа.
// Несуществующий пользователь и неверный пароль дают одинаковую ошибку.
func (s *AuthService) Login(ctx context.Context, identifier, rawPassword string) (*TokenPair, *models.User, error) {
	user, err := s.users.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			return nil, nil, errs.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, nil, errs.ErrInvalidCredentials
	}

	access, err := s.jwtMaker.GenerateAccessToken(user.Username, user.ID, user.IsAdmin)
	if err != nil {
		return nil, nil, err
	}
	refresh, err := s.jwtMaker.GenerateRefreshToken(user.Username, user.ID, user.IsAdmin)
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("user logged in", slog.Int("user_id", user.ID))
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, user, nil
}

// Refresh выпускает новый access-токен по действующему refresh-токену.
// Пользователь перечитывается из базы: отозванный к этому моменту признак
// администратора в новый токен не попадёт.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtMaker.ParseToken(refreshToken)
	if err != nil {
		return "", errs.ErrInvalidToken
	}
	if claims.TokenType != jwt.TokenTypeRefresh {
		return "", errs.ErrInvalidToken
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			return "", errs.ErrInvalidToken
		}
		return "", err
	}
	return s.jwtMaker.GenerateAccessToken(user.Username, user.ID, user.IsAdmin)
}

// Logout завершает сессию пользователя. Сервер состояния сессий не хранит,
// токены остаются формально валидными до истечения TTL: клиент обязан
// удалить их у себя.
func (s *AuthService) Logout(_ context.Context, username string) {
	s.log.Info("user logged out", slog.String("username", username))
}
