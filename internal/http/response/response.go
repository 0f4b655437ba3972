// Package response определяет единый формат JSON-ответов сервиса
// и сопоставление доменных ошибок с HTTP-статусами.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magelanzzz/subscription-manager/internal/errs"
)

// Response — единый конверт всех JSON-ответов сервиса.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Code   string `json:"code,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// Статусы конверта ответа.
const (
	StatusOK    = "OK"
	StatusError = "Error"
)

// OK возвращает успешный ответ без данных.
func OK() Response {
	return Response{
		Status: StatusOK,
	}
}

// OKWithData возвращает успешный ответ с данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает ответ с сообщением об ошибке.
func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError собирает человекочитаемые сообщения по каждому
// непрошедшему валидацию полю запроса.
func ValidationError(verrs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range verrs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "alphanum":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers and letters", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email address", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is shorter than the allowed minimum", err.Field()))
		case "gt", "gte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is below the allowed minimum", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s has an unsupported value", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
		Code:   string(errs.CodeValidation),
	}
}

// HTTPStatus сопоставляет код причины доменной ошибки с HTTP-статусом.
// Недоменные ошибки считаются внутренними.
func HTTPStatus(err error) int {
	switch errs.CodeOf(err) {
	case errs.CodeValidation:
		return http.StatusUnprocessableEntity
	case errs.CodeUnauthorized:
		return http.StatusUnauthorized
	case errs.CodeForbidden:
		return http.StatusForbidden
	case errs.CodeNotFound:
		return http.StatusNotFound
	case errs.CodeConflict:
		return http.StatusConflict
	case errs.CodePreconditionFailed:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

// RenderError пишет доменную ошибку в ответ с подходящим HTTP-статусом
// и стабильным машинным кодом причины. Детали внутренних ошибок наружу
// не выходят.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	msg := "internal server error"
	var domainErr *errs.Error
	if errors.As(err, &domainErr) && domainErr.Code != errs.CodeStore {
		msg = domainErr.Message
	}
	render.Status(r, status)
	render.JSON(w, r, Response{
		Status: StatusError,
		Error:  msg,
		Code:   string(errs.CodeOf(err)),
	})
}
