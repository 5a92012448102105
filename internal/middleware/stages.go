package middleware

import (
	"context"
	"net/http"
	"time"

	"notemate-backend/internal/pipeline"

	"github.com/go-chi/chi/v5/middleware"
)

const RequestIDHeader = "X-Request-Id"

// RequestID присваивает запросу id (или берёт присланный клиентом) и отдаёт его в заголовке ответа
func RequestID() pipeline.Stage {
	inner := pipeline.Adapt("request_id", middleware.RequestID)
	return pipeline.NewStage("request_id", func(w http.ResponseWriter, r *http.Request) (*http.Request, pipeline.Result, error) {
		r, res, err := inner.Process(w, r)
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(RequestIDHeader, id)
		}
		return r, res, err
	})
}

// RealIP подставляет адрес клиента из X-Forwarded-For / X-Real-IP
func RealIP() pipeline.Stage {
	return pipeline.Adapt("real_ip", middleware.RealIP)
}

// Timeout ограничивает время обработки запроса; контекст отменяется после ответа
func Timeout(d time.Duration) pipeline.Stage {
	return pipeline.NewStage("timeout", func(w http.ResponseWriter, r *http.Request) (*http.Request, pipeline.Result, error) {
		if d <= 0 {
			return r, pipeline.Continue, nil
		}
		ctx, cancel := context.WithTimeout(r.Context(), d)
		pipeline.OnFinish(r, func(pipeline.FinishInfo) { cancel() })
		return r.WithContext(ctx), pipeline.Continue, nil
	})
}
