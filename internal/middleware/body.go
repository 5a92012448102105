package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"notemate-backend/internal/apperr"
	"notemate-backend/internal/pipeline"
)

const DefaultBodyLimit int64 = 1 << 20

func isJSONType(mediaType string) bool {
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func bodyReadError(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return apperr.Wrap(err, http.StatusRequestEntityTooLarge, "Request body too large")
	}
	return apperr.Wrap(err, http.StatusBadRequest, "Failed to read request body")
}

// BodyParser разбирает JSON и application/x-www-form-urlencoded тела.
// JSON верхнего уровня должен быть объектом или массивом.
// После разбора r.Body снова можно читать в обработчике.
func BodyParser(limit int64) pipeline.Stage {
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	return pipeline.NewStage("body", func(w http.ResponseWriter, r *http.Request) (*http.Request, pipeline.Result, error) {
		if r.Body == nil || r.Body == http.NoBody {
			return r, pipeline.Continue, nil
		}
		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			return r, pipeline.Continue, nil
		}
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			// Непонятный тип тела оставляем обработчику
			return r, pipeline.Continue, nil
		}

		switch {
		case isJSONType(mediaType):
			data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
			_ = r.Body.Close()
			if err != nil {
				return r, pipeline.Continue, bodyReadError(err)
			}
			r.Body = io.NopCloser(bytes.NewReader(data))

			trimmed := bytes.TrimSpace(data)
			if len(trimmed) == 0 {
				return r, pipeline.Continue, nil
			}
			if trimmed[0] != '{' && trimmed[0] != '[' {
				return r, pipeline.Continue, apperr.BadRequest("JSON body must be an object or an array")
			}
			var raw json.RawMessage
			if err := json.Unmarshal(trimmed, &raw); err != nil {
				return r, pipeline.Continue, apperr.Wrap(err, http.StatusBadRequest, "Malformed JSON body")
			}
			pipeline.SetBody(r, raw)

		case mediaType == "application/x-www-form-urlencoded":
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			if err := r.ParseForm(); err != nil {
				return r, pipeline.Continue, bodyReadError(err)
			}
		}
		return r, pipeline.Continue, nil
	})
}
