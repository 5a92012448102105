package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"notemate-backend/internal/apperr"
	"notemate-backend/internal/pipeline"
	"notemate-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Classify выбирает статус и безопасный текст для клиента.
// Неизвестные ошибки и nil дают 500.
func Classify(err error) (int, string) {
	var (
		appErr    *apperr.Error
		panicErr  *pipeline.PanicError
		maxBytes  *http.MaxBytesError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)

	switch {
	case err == nil:
	case errors.As(err, &panicErr):
	case errors.As(err, &appErr) && appErr != nil:
		status := apperr.StatusOf(appErr)
		if appErr.Status != status || appErr.Message == "" {
			return status, http.StatusText(status)
		}
		return status, appErr.Message
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "Request body too large"
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest, "Malformed JSON"
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		return http.StatusNotFound, "Resource not found"
	case errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict, "Resource already exists"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Request timed out"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "Request canceled"
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// describe текст ошибки для логов; Error() чужой ошибки может паниковать
func describe(err error) (s string) {
	if err == nil {
		return "<nil>"
	}
	defer func() {
		if rvr := recover(); rvr != nil {
			s = fmt.Sprintf("<error text unavailable: %v>", rvr)
		}
	}()
	return err.Error()
}

// HandleError последняя точка конвейера: превращает любую ошибку в ответ.
// Никогда не паникует наружу и пишет ответ не более одного раза.
func (m *Middleware) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			m.logger.Error("Error handler failed", "panic", rvr)
			if !pipeline.Written(w) {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, fallbackErrorBody)
			}
		}
	}()

	status, text := Classify(err)

	if pipeline.Written(w) {
		m.logger.Error("Error after response was sent",
			"method", r.Method,
			"url", r.URL.Path,
			"error", describe(err),
		)
		return
	}

	resp := &ErrorResponse{Code: status, Text: text}
	if status >= http.StatusInternalServerError {
		resp.Incident = uuid.NewString()
		attrs := []any{
			"incident", resp.Incident,
			"method", r.Method,
			"url", r.URL.Path,
			"status", status,
			"error", describe(err),
		}
		var panicErr *pipeline.PanicError
		if errors.As(err, &panicErr) {
			attrs = append(attrs, "stack", string(panicErr.Stack))
		}
		m.logger.Error("Request failed", attrs...)
	} else {
		if m.debug {
			resp.Detail = describe(err)
		}
		m.logger.Debug("Request rejected", "method", r.Method, "url", r.URL.Path, "status", status, "error", describe(err))
	}

	WriteJSONResponse(w, Response{Error: resp}, status)
}

// NotFound отвечает на запросы, не попавшие ни в один маршрут
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteJSONResponse(w, Response{Error: &ErrorResponse{
		Code: http.StatusNotFound,
		Text: "Not Found - " + r.URL.Path,
	}}, http.StatusNotFound)
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteJSONResponse(w, Response{Error: &ErrorResponse{
		Code: http.StatusMethodNotAllowed,
		Text: "Method " + r.Method + " not allowed on " + r.URL.Path,
	}}, http.StatusMethodNotAllowed)
}
