// Package errs определяет типизированные доменные ошибки сервиса.
// Каждая ошибка несёт стабильный машинный код причины и человекочитаемое
// сообщение; сопоставление кодов с HTTP-статусами выполняет только
// транспортный слой.
package errs

import (
	"errors"
	"fmt"
)

// Code — машинно-стабильный код причины ошибки.
type Code string

// Коды причин доменных ошибок.
const (
	CodeValidation         Code = "validation_error"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeForbidden          Code = "forbidden"
	CodeUnauthorized       Code = "unauthorized"
	CodePreconditionFailed Code = "precondition_failed"
	CodeStore              Code = "store_error"
)

// Error — доменная ошибка с кодом причины и сообщением.
// Внутренние детали (стеки, ошибки драйверов) наружу не выходят.
type Error struct {
	Code    Code   // Код причины
	Message string // Человекочитаемое сообщение
	err     error  // Обёрнутая ошибка нижнего слоя
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap возвращает обёрнутую ошибку нижнего слоя.
func (e *Error) Unwrap() error { return e.err }

// Is считает ошибки эквивалентными при совпадении кода и сообщения,
// чтобы сентинелы работали с errors.Is сквозь обёртки.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// Доменные ошибки сервиса.
var (
	ErrInvalidEmail       = &Error{Code: CodeValidation, Message: "invalid email format"}
	ErrWeakPassword       = &Error{Code: CodeValidation, Message: "password must be at least 6 characters long"}
	ErrDuplicateUser      = &Error{Code: CodeConflict, Message: "username or email already exists"}
	ErrInvalidCredentials = &Error{Code: CodeUnauthorized, Message: "invalid credentials"}
	ErrInvalidToken       = &Error{Code: CodeUnauthorized, Message: "invalid or expired token"}
	ErrAdminRequired      = &Error{Code: CodeForbidden, Message: "admin privileges required"}

	ErrPlanNotFound               = &Error{Code: CodeNotFound, Message: "plan not found"}
	ErrPlanHasActiveSubscriptions = &Error{Code: CodePreconditionFailed, Message: "cannot delete plan with active subscriptions"}
	ErrDuplicatePlan              = &Error{Code: CodeConflict, Message: "plan with this name and interval already exists"}

	ErrUserNotFound                = &Error{Code: CodeNotFound, Message: "user not found"}
	ErrSubscriptionNotFound        = &Error{Code: CodeNotFound, Message: "subscription not found"}
	ErrNoActiveSubscription        = &Error{Code: CodeNotFound, Message: "no active subscription found"}
	ErrPlanNotActive               = &Error{Code: CodePreconditionFailed, Message: "cannot subscribe to inactive plan"}
	ErrTargetPlanInactive          = &Error{Code: CodePreconditionFailed, Message: "cannot upgrade to inactive plan"}
	ErrSamePlan                    = &Error{Code: CodeConflict, Message: "already subscribed to this plan"}
	ErrDuplicateActiveSubscription = &Error{Code: CodeConflict, Message: "user already has an active subscription"}
)

// Store оборачивает ошибку хранилища в доменную ошибку с кодом store_error.
// Сервис ошибки хранилища не ретраит, политика ретраев принадлежит клиенту
// хранилища или внешнему слою.
func Store(err error) *Error {
	return &Error{Code: CodeStore, Message: "storage failure", err: err}
}

// IsStore сообщает, является ли ошибка ошибкой хранилища.
func IsStore(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeStore
}

// CodeOf извлекает код причины из ошибки; для недоменных ошибок
// возвращает CodeStore.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeStore
}
