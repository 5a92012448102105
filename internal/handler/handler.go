package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"notemate-backend/internal/apperr"
	"notemate-backend/internal/middleware"
	"notemate-backend/internal/pipeline"
	"notemate-backend/internal/service"
)

// Banner текст ответа GET /
const Banner = "🚀 NoteMate Backend is running..."

type Handler struct {
	service *service.Service
	mw      *middleware.Middleware
	logger  *slog.Logger
	// secureCookies выставляет Secure и SameSite=None для кросс-доменного клиента
	secureCookies bool
}

func NewHandler(s *service.Service, mw *middleware.Middleware, logger *slog.Logger, secureCookies bool) *Handler {
	return &Handler{service: s, mw: mw, logger: logger, secureCookies: secureCookies}
}

// Root godoc
// @Summary Проверка, что сервер жив
// @Produce plain
// @Success 200 {string} string
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, Banner)
}

// HealthCheck проверка одной зависимости (БД, кэш)
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Health godoc
// @Summary Готовность зависимостей
// @Produce json
// @Success 200 {object} middleware.Response
// @Failure 503 {object} middleware.Response
// @Router /healthz [get]
func Health(checks ...HealthCheck) pipeline.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := make(map[string]string, len(checks))
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				return apperr.Wrap(err, http.StatusServiceUnavailable, c.Name+" is unavailable")
			}
			status[c.Name] = "ok"
		}
		middleware.WriteJSONResponse(w, middleware.Response{Response: status}, http.StatusOK)
		return nil
	}
}

// Unavailable под-приложение для разделов, которые этот сервер не обслуживает.
// Любой запрос уходит в обработчик ошибок с 501.
func Unavailable(feature string) http.Handler {
	return pipeline.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		return apperr.NotImplemented(feature + " is not available on this server")
	})
}

// decodeJSON читает тело, уже разобранное стадией BodyParser
func decodeJSON(r *http.Request, dst any) error {
	raw, ok := pipeline.Body(r)
	if !ok {
		return apperr.BadRequest("Request body must be JSON")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperr.Wrap(err, http.StatusBadRequest, "Invalid JSON")
	}
	return nil
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
