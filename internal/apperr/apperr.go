package apperr

import (
	"errors"
	"net/http"
)

// Error ошибка с HTTP статусом, которую можно безопасно показать клиенту
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Wrap сохраняет исходную ошибку для логов, клиент видит только message
func Wrap(err error, status int, message string) *Error {
	return &Error{Status: status, Message: message, Err: err}
}

func BadRequest(message string) *Error     { return New(http.StatusBadRequest, message) }
func Unauthorized(message string) *Error   { return New(http.StatusUnauthorized, message) }
func Forbidden(message string) *Error      { return New(http.StatusForbidden, message) }
func NotFound(message string) *Error       { return New(http.StatusNotFound, message) }
func Conflict(message string) *Error       { return New(http.StatusConflict, message) }
func NotImplemented(message string) *Error { return New(http.StatusNotImplemented, message) }

func Internal(err error) *Error {
	return Wrap(err, http.StatusInternalServerError, "Internal Server Error")
}

// StatusOf возвращает статус из цепочки ошибок или 500.
// Статусы вне диапазона 4xx/5xx считаются некорректными.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil {
		if appErr.Status >= 400 && appErr.Status <= 599 {
			return appErr.Status
		}
	}
	return http.StatusInternalServerError
}
