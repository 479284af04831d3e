// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/review-service/internal/models"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status: статус запроса ("OK" или "Error").
// Поле Error: текст ошибки (опционально, при неуспехе).
// Поле Data: данные ответа (опционально, при успехе).
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse: структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK: значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError: значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// FromError сопоставляет доменную ошибку с HTTP-статусом и безопасным
// сообщением для клиента. Неизвестные ошибки не раскрываются.
func FromError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized, Error("Unauthorized")
	case errors.Is(err, models.ErrUserNotFound):
		return http.StatusNotFound, Error("user not found")
	case errors.Is(err, models.ErrUserExists):
		return http.StatusConflict, Error("user already exists")
	case errors.Is(err, models.ErrNoActiveSession):
		return http.StatusNotFound, Error("no active session")
	case errors.Is(err, models.ErrActiveSessionExists):
		return http.StatusConflict, Error("session already active")
	case errors.Is(err, models.ErrCoolingPeriod):
		return http.StatusConflict, Error("cooling period in progress")
	case errors.Is(err, models.ErrReviewQuotaExceeded):
		return http.StatusTooManyRequests, Error("review quota exceeded")
	case errors.Is(err, models.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, Error("file too large")
	case errors.Is(err, models.ErrSubscriptionInactive):
		return http.StatusForbidden, Error("subscription inactive")
	case errors.Is(err, models.ErrAnalysisUnavailable):
		return http.StatusServiceUnavailable, Error("code analysis unavailable")
	default:
		return http.StatusInternalServerError, Error("internal error")
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "alphanum":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers and letters", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too short", err.Field()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		case "gte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must not be negative", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}
