package middleware

import (
	"net/http"
	"net/url"

	"notemate-backend/internal/pipeline"
)

// CookieParser раскладывает заголовок Cookie в map.
// При повторе имени побеждает первое значение, значения декодируются из URL-кодировки.
func CookieParser() pipeline.Stage {
	return pipeline.NewStage("cookies", func(w http.ResponseWriter, r *http.Request) (*http.Request, pipeline.Result, error) {
		cookies := make(map[string]string)
		for _, c := range r.Cookies() {
			if _, seen := cookies[c.Name]; seen {
				continue
			}
			value := c.Value
			if decoded, err := url.PathUnescape(value); err == nil {
				value = decoded
			}
			cookies[c.Name] = value
		}
		pipeline.SetCookies(r, cookies)
		return r, pipeline.Continue, nil
	})
}
