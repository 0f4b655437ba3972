// Package models содержит доменные структуры сервиса управления подписками:
// пользователей, тарифные планы и подписки, а также вспомогательные типы
// для приёма данных из JSON-запросов.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID           int       `json:"id"`         // Уникальный идентификатор пользователя
	Username     string    `json:"username"`   // Имя пользователя (уникальное)
	Email        string    `json:"email"`      // Электронная почта (уникальная)
	PasswordHash string    `json:"-"`          // Хэш пароля пользователя
	IsAdmin      bool      `json:"is_admin"`   // Признак административных привилегий
	CreatedAt    time.Time `json:"created_at"` // Дата создания записи
	UpdatedAt    time.Time `json:"updated_at"` // Дата последнего обновления
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса
// до их валидации.
type DummyRegister struct {
	Username string `json:"username" validate:"required,alphanum"` // Имя пользователя
	Email    string `json:"email" validate:"required,email"`       // Электронная почта
	Password string `json:"password" validate:"required,min=6"`    // Пароль (минимум 6 символов)
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
// Identifier принимает имя пользователя или email, совпадение точное.
type DummyLogin struct {
	Identifier string `json:"identifier" validate:"required"` // Имя пользователя или email
	Password   string `json:"password" validate:"required"`   // Пароль
}

// DummyRefresh используется для приёма refresh-токена из JSON-запроса.
type DummyRefresh struct {
	RefreshToken string `json:"refresh_token" validate:"required"` // Refresh-токен
}
