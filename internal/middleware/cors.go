package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"notemate-backend/internal/pipeline"

	"github.com/go-chi/cors"
)

// CORS разрешает запросы с credentials только с настроенных origin.
// Без origin остаются только запросы со своего же хоста.
func CORS(origins []string, logger *slog.Logger) pipeline.Stage {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost,
			http.MethodPut, http.MethodPatch, http.MethodDelete,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           600,
	}
	if len(origins) == 0 {
		logger.Warn("CLIENT_URL is not set, cross-origin requests will be rejected")
		opts.AllowOriginFunc = sameOrigin
	} else {
		opts.AllowedOrigins = origins
	}
	return pipeline.Adapt("cors", cors.New(opts).Handler)
}

func sameOrigin(r *http.Request, origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
