package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

type ErrorType string

const (
	NetworkError        ErrorType = "NETWORK_ERROR"
	TimeoutError        ErrorType = "TIMEOUT_ERROR"
	ValidationError     ErrorType = "VALIDATION_ERROR"
	AuthenticationError ErrorType = "AUTHENTICATION_ERROR"
	AuthorizationError  ErrorType = "AUTHORIZATION_ERROR"
	NotFoundError       ErrorType = "NOT_FOUND_ERROR"
	ServerError         ErrorType = "SERVER_ERROR"
	UnknownError        ErrorType = "UNKNOWN_ERROR"
)

type Error struct {
	Type    ErrorType
	Status  int
	Message string
	Body    []byte
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Type, e.Status, e.Message)
}

func retryable(t ErrorType) bool {
	switch t {
	case NetworkError, TimeoutError, ServerError:
		return true
	}
	return false
}

// classifyTransport maps request execution failures (no response received).
func classifyTransport(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Type: TimeoutError, Message: "Превышено время ожидания ответа сервера"}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Type: TimeoutError, Message: "Превышено время ожидания ответа сервера"}
	}

	return &Error{Type: NetworkError, Message: "Ошибка сети. Проверьте подключение к интернету."}
}

// classifyStatus maps a received response to a classified error, preferring
// the server-provided message when the body carries one.
func classifyStatus(status int, body []byte) *Error {
	apiErr := &Error{Status: status, Body: body}

	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		apiErr.Type = ValidationError
		apiErr.Message = "Неверные данные запроса"
	case status == http.StatusUnauthorized:
		apiErr.Type = AuthenticationError
		apiErr.Message = "Необходима авторизация"
	case status == http.StatusForbidden:
		apiErr.Type = AuthorizationError
		apiErr.Message = "Доступ запрещен"
	case status == http.StatusNotFound:
		apiErr.Type = NotFoundError
		apiErr.Message = "Ресурс не найден"
	case status >= 500:
		apiErr.Type = ServerError
		apiErr.Message = "Ошибка сервера. Попробуйте позже."
	default:
		apiErr.Type = UnknownError
		apiErr.Message = "Произошла неизвестная ошибка"
	}

	var payload struct {
		Message string `json:"message"`
	}
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		apiErr.Message = payload.Message
	}

	return apiErr
}
