package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"notemate-backend/internal/apperr"
	"notemate-backend/internal/model"
	"notemate-backend/internal/pipeline"
	"notemate-backend/internal/service"
)

// SessionCookie имя куки с JWT токеном
const SessionCookie = "token"

type principalKey struct{}

type Middleware struct {
	service *service.Service
	logger  *slog.Logger
	// debug добавляет текст исходной ошибки в 4xx ответы
	debug bool
}

func NewMiddleware(s *service.Service, logger *slog.Logger, debug bool) *Middleware {
	return &Middleware{service: s, logger: logger, debug: debug}
}

// Response структура для ответа
// swagger:model Response
type Response struct {
	Error    *ErrorResponse `json:"error,omitempty"`
	Response interface{}    `json:"response,omitempty"`
	Data     interface{}    `json:"data,omitempty"`
}

// swagger:model ErrorResponse
type ErrorResponse struct {
	Code     int    `json:"code"`
	Text     string `json:"text"`
	Incident string `json:"incident,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

const fallbackErrorBody = `{"error":{"code":500,"text":"Internal Server Error"}}`

// WriteJSONResponse записывает структурированный JSON ответ
func WriteJSONResponse(w http.ResponseWriter, resp Response, statusCode int) {
	body, err := json.Marshal(resp)
	if err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		// Заголовок ещё не отправлен, можно ответить минимальным телом
		body, statusCode = []byte(fallbackErrorBody), http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write(append(body, '\n'))
}

func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom владелец сессии, положенный AuthRequired
func PrincipalFrom(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(model.Principal)
	return p, ok
}

func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if token := strings.TrimPrefix(authHeader, "Bearer "); token != authHeader {
			return strings.TrimSpace(token)
		}
	}
	if token, ok := pipeline.Cookie(r, SessionCookie); ok {
		return token
	}
	// Запрос пришёл мимо CookieParser
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// fail отдаёт ошибку в обработчик конвейера, а без конвейера пишет ответ сам
func fail(w http.ResponseWriter, r *http.Request, err error) {
	if pipeline.Forward(r, err) {
		return
	}
	status := apperr.StatusOf(err)
	WriteJSONResponse(w, Response{Error: &ErrorResponse{Code: status, Text: http.StatusText(status)}}, status)
}

// AuthRequired проверяет JWT токен из заголовка Authorization или куки
func (m *Middleware) AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := tokenFromRequest(r)
		if tokenString == "" {
			fail(w, r, apperr.Unauthorized("Authorization required"))
			return
		}

		principal, err := m.service.ValidateToken(r.Context(), tokenString)
		if err != nil {
			fail(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// CacheControl запрещает кэширование персональных ответов API
func (m *Middleware) CacheControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "private, no-store, no-cache, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}
