package handler

import (
	"net/http"
	"time"

	"notemate-backend/internal/apperr"
	"notemate-backend/internal/middleware"
	"notemate-backend/internal/pipeline"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// readCredentials принимает JSON или application/x-www-form-urlencoded
func readCredentials(r *http.Request) (credentials, error) {
	var req credentials
	if _, ok := pipeline.Body(r); ok {
		if err := decodeJSON(r, &req); err != nil {
			return req, err
		}
	} else if r.PostForm != nil {
		req.Login = r.PostForm.Get("login")
		req.Password = r.PostForm.Get("password")
	}
	if req.Login == "" || req.Password == "" {
		return req, apperr.BadRequest("Missing required fields: login, password")
	}
	return req, nil
}

// AuthRoutes под-приложение /api/auth
func (h *Handler) AuthRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.GetHead)
	r.Use(h.mw.CacheControl)

	r.Method(http.MethodPost, "/register", pipeline.HandlerFunc(h.Register))
	r.Method(http.MethodPost, "/login", pipeline.HandlerFunc(h.Login))

	r.Group(func(r chi.Router) {
		r.Use(h.mw.AuthRequired)
		r.Method(http.MethodPost, "/logout", pipeline.HandlerFunc(h.Logout))
		r.Method(http.MethodGet, "/me", pipeline.HandlerFunc(h.Me))
	})
	return r
}

func (h *Handler) sessionCookie(value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if h.secureCookies {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	if value == "" {
		c.MaxAge = -1
	}
	return c
}

// Register godoc
// @Summary Регистрация нового пользователя
// @Tags auth
// @Accept json
// @Produce json
// @Param request body map[string]string true "login, password"
// @Success 201 {object} middleware.Response
// @Failure 400 {object} middleware.Response
// @Failure 409 {object} middleware.Response
// @Router /api/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) error {
	req, err := readCredentials(r)
	if err != nil {
		return err
	}

	user, err := h.service.Register(r.Context(), req.Login, req.Password)
	if err != nil {
		return err
	}

	middleware.WriteJSONResponse(w, middleware.Response{Data: user}, http.StatusCreated)
	return nil
}

// Login godoc
// @Summary Вход по логину и паролю
// @Description Возвращает JWT в теле и в httpOnly куке token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body map[string]string true "login, password"
// @Success 200 {object} middleware.Response
// @Failure 400 {object} middleware.Response
// @Failure 401 {object} middleware.Response
// @Router /api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) error {
	req, err := readCredentials(r)
	if err != nil {
		return err
	}

	token, expires, err := h.service.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		return err
	}

	http.SetCookie(w, h.sessionCookie(token, expires))
	middleware.WriteJSONResponse(w, middleware.Response{Response: map[string]any{
		"token":   token,
		"expires": expires.UTC().Format(time.RFC3339),
	}}, http.StatusOK)
	return nil
}

// Logout godoc
// @Summary Завершение сессии
// @Tags auth
// @Produce json
// @Success 200 {object} middleware.Response
// @Failure 401 {object} middleware.Response
// @Router /api/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) error {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		return apperr.Unauthorized("Authorization required")
	}

	if err := h.service.Logout(r.Context(), principal); err != nil {
		return err
	}

	http.SetCookie(w, h.sessionCookie("", time.Unix(0, 0)))
	middleware.WriteJSONResponse(w, middleware.Response{Response: map[string]bool{"logout": true}}, http.StatusOK)
	return nil
}

// Me godoc
// @Summary Текущий пользователь
// @Tags auth
// @Produce json
// @Success 200 {object} middleware.Response
// @Failure 401 {object} middleware.Response
// @Router /api/auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) error {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		return apperr.Unauthorized("Authorization required")
	}

	user, err := h.service.CurrentUser(r.Context(), principal)
	if err != nil {
		return err
	}

	middleware.WriteJSONResponse(w, middleware.Response{Data: user}, http.StatusOK)
	return nil
}
