package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"notemate-backend/internal/pipeline"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	LogFormatDev  = "dev"
	LogFormatText = "text"
	LogFormatJSON = "json"
)

var (
	methodStyle  = lipgloss.NewStyle().Bold(true)
	status2xx    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	status3xx    = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	status4xx    = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	status5xx    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	statusOther  = lipgloss.NewStyle()
	devLineMutex sync.Mutex
)

type loggedAtKey struct{}

// LoggedAt момент, когда запрос прошёл стадию логирования
func LoggedAt(r *http.Request) time.Time {
	t, _ := r.Context().Value(loggedAtKey{}).(time.Time)
	return t
}

func statusStyle(status int) lipgloss.Style {
	switch {
	case status >= 500:
		return status5xx
	case status >= 400:
		return status4xx
	case status >= 300:
		return status3xx
	case status >= 200:
		return status2xx
	default:
		return statusOther
	}
}

// devLine строка в духе morgan "dev": METHOD path STATUS 1.234 ms - bytes
func devLine(method, path string, info pipeline.FinishInfo) string {
	return fmt.Sprintf("%s %s %s %.3f ms - %d",
		methodStyle.Render(method),
		path,
		statusStyle(info.Status).Render(fmt.Sprintf("%d", info.Status)),
		float64(info.Took.Microseconds())/1000,
		info.Bytes,
	)
}

// Logging логирует запросы: одна запись на запрос после отправки ответа.
// Формат dev пишет цветную строку в out, остальные идут в slog.
func (m *Middleware) Logging(format string, out io.Writer) pipeline.Stage {
	return pipeline.NewStage("logging", func(w http.ResponseWriter, r *http.Request) (*http.Request, pipeline.Result, error) {
		r = r.WithContext(context.WithValue(r.Context(), loggedAtKey{}, time.Now()))

		method, path := r.Method, r.URL.RequestURI()
		remoteAddr, userAgent := r.RemoteAddr, r.UserAgent()
		requestID := middleware.GetReqID(r.Context())

		pipeline.OnFinish(r, func(info pipeline.FinishInfo) {
			if info.Status == 0 {
				info.Status = http.StatusOK
			}
			if format == LogFormatDev && out != nil {
				devLineMutex.Lock()
				fmt.Fprintln(out, devLine(method, path, info))
				devLineMutex.Unlock()
				return
			}
			m.logger.Info("Request",
				"method", method,
				"url", path,
				"remote_addr", remoteAddr,
				"user_agent", userAgent,
				"request_id", requestID,
				"status", info.Status,
				"bytes", info.Bytes,
				"took", info.Took,
			)
		})
		return r, pipeline.Continue, nil
	})
}
