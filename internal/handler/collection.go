package handler

import (
	"net/http"

	"notemate-backend/internal/apperr"
	"notemate-backend/internal/middleware"
	"notemate-backend/internal/model"
	"notemate-backend/internal/pipeline"
	"notemate-backend/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// collection обработчики одной коллекции документов (note, todo, ...)
type collection struct {
	name string
	h    *Handler
}

// CollectionRoutes под-приложение для /api/<name>: CRUD над JSON документами владельца
func (h *Handler) CollectionRoutes(name string) http.Handler {
	c := &collection{name: name, h: h}

	r := chi.NewRouter()
	r.Use(chimw.GetHead)
	r.Use(h.mw.AuthRequired)
	r.Use(h.mw.CacheControl)

	r.Method(http.MethodPost, "/", pipeline.HandlerFunc(c.create))
	r.Method(http.MethodGet, "/", pipeline.HandlerFunc(c.list))
	r.Method(http.MethodGet, "/{id}", pipeline.HandlerFunc(c.get))
	r.Method(http.MethodPut, "/{id}", pipeline.HandlerFunc(c.update))
	r.Method(http.MethodDelete, "/{id}", pipeline.HandlerFunc(c.delete))
	return r
}

func principal(r *http.Request) (model.Principal, error) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		return model.Principal{}, apperr.Unauthorized("Authorization required")
	}
	return p, nil
}

func documentBody(r *http.Request) ([]byte, error) {
	raw, ok := pipeline.Body(r)
	if !ok {
		return nil, apperr.BadRequest("Request body must be a JSON object")
	}
	return raw, nil
}

// create godoc
// @Summary Создание документа в коллекции
// @Tags documents
// @Accept json
// @Produce json
// @Param collection path string true "note, todo, formula, timetable, feedback"
// @Success 201 {object} middleware.Response
// @Failure 400 {object} middleware.Response
// @Failure 401 {object} middleware.Response
// @Router /api/{collection} [post]
func (c *collection) create(w http.ResponseWriter, r *http.Request) error {
	p, err := principal(r)
	if err != nil {
		return err
	}
	body, err := documentBody(r)
	if err != nil {
		return err
	}

	doc, err := c.h.service.CreateDocument(r.Context(), p, c.name, body)
	if err != nil {
		return err
	}

	middleware.WriteJSONResponse(w, middleware.Response{Data: doc}, http.StatusCreated)
	return nil
}

// list godoc
// @Summary Список документов текущего пользователя
// @Tags documents
// @Produce json
// @Param limit query int false "Лимит (по умолчанию 100, максимум 1000)"
// @Param offset query int false "Смещение"
// @Success 200 {object} middleware.Response
// @Failure 401 {object} middleware.Response
// @Router /api/{collection} [get]
func (c *collection) list(w http.ResponseWriter, r *http.Request) error {
	p, err := principal(r)
	if err != nil {
		return err
	}

	limit := queryInt(r, "limit", service.DefaultListLimit)
	offset := queryInt(r, "offset", 0)

	docs, err := c.h.service.ListDocuments(r.Context(), p, c.name, limit, offset)
	if err != nil {
		return err
	}

	middleware.WriteJSONResponse(w, middleware.Response{Data: map[string]any{"docs": docs}}, http.StatusOK)
	return nil
}

// get godoc
// @Summary Получение документа по ID
// @Tags documents
// @Produce json
// @Param id path string true "ID документа"
// @Success 200 {object} middleware.Response
// @Failure 403 {object} middleware.Response
// @Failure 404 {object} middleware.Response
// @Router /api/{collection}/{id} [get]
func (c *collection) get(w http.ResponseWriter, r *http.Request) error {
	p, err := principal(r)
	if err != nil {
		return err
	}

	doc, err := c.h.service.GetDocument(r.Context(), p, c.name, chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	middleware.WriteJSONResponse(w, middleware.Response{Data: doc}, http.StatusOK)
	return nil
}

// update godoc
// @Summary Замена тела документа
// @Tags documents
// @Accept json
// @Produce json
// @Param id path string true "ID документа"
// @Success 200 {object} middleware.Response
// @Failure 400 {object} middleware.Response
// @Failure 403 {object} middleware.Response
// @Failure 404 {object} middleware.Response
// @Router /api/{collection}/{id} [put]
func (c *collection) update(w http.ResponseWriter, r *http.Request) error {
	p, err := principal(r)
	if err != nil {
		return err
	}
	body, err := documentBody(r)
	if err != nil {
		return err
	}

	doc, err := c.h.service.UpdateDocument(r.Context(), p, c.name, chi.URLParam(r, "id"), body)
	if err != nil {
		return err
	}

	middleware.WriteJSONResponse(w, middleware.Response{Data: doc}, http.StatusOK)
	return nil
}

// delete godoc
// @Summary Удаление документа
// @Tags documents
// @Produce json
// @Param id path string true "ID документа"
// @Success 200 {object} middleware.Response
// @Failure 403 {object} middleware.Response
// @Failure 404 {object} middleware.Response
// @Router /api/{collection}/{id} [delete]
func (c *collection) delete(w http.ResponseWriter, r *http.Request) error {
	p, err := principal(r)
	if err != nil {
		return err
	}

	docID := chi.URLParam(r, "id")
	if err := c.h.service.DeleteDocument(r.Context(), p, c.name, docID); err != nil {
		return err
	}

	middleware.WriteJSONResponse(w, middleware.Response{Response: map[string]bool{docID: true}}, http.StatusOK)
	return nil
}
