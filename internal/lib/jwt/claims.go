package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Типы токенов, различаемые по claim token_type.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// CustomClaims описывает пользовательские данные, хранящиеся в JWT.
type CustomClaims struct {
	Username             string `json:"username"`   // Имя пользователя
	UserID               int    `json:"user_id"`    // Идентификатор пользователя
	IsAdmin              bool   `json:"is_admin"`   // Признак администратора
	TokenType            string `json:"token_type"` // Тип токена: access или refresh
	jwt.RegisteredClaims        // Стандартные claims JWT (ExpiresAt, IssuedAt и пр.)
}

// GenerateAccessToken создаёт access-токен с заданными данными пользователя,
// подписывая его секретным ключом. Время жизни определяется accessTTL.
func (j *MakerImpl) GenerateAccessToken(username string, userID int, isAdmin bool) (string, error) {
	return j.generate(username, userID, isAdmin, TokenTypeAccess, j.accessTTL)
}

// GenerateRefreshToken создаёт refresh-токен с заданными данными пользователя.
// Время жизни определяется refreshTTL.
func (j *MakerImpl) GenerateRefreshToken(username string, userID int, isAdmin bool) (string, error) {
	return j.generate(username, userID, isAdmin, TokenTypeRefresh, j.refreshTTL)
}

func (j *MakerImpl) generate(username string, userID int, isAdmin bool, tokenType string, ttl time.Duration) (string, error) {
	claims := CustomClaims{
		Username:  username,
		UserID:    userID,
		IsAdmin:   isAdmin,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken парсит JWT токен, проверяет его подпись и валидность,
// возвращает CustomClaims с данными, если токен корректен.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
