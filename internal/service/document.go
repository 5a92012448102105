package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"notemate-backend/internal/apperr"
	"notemate-backend/internal/model"
	"notemate-backend/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

var errDocumentNotFound = apperr.NotFound("document not found")

// --- Document Service ---

func validateBody(body json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, apperr.BadRequest("document body must be a JSON object")
	}
	return json.RawMessage(trimmed), nil
}

func listPrefix(ownerID uuid.UUID, collection string) string {
	return fmt.Sprintf("%s:%s:", ownerID, collection)
}

func (s *Service) invalidate(ctx context.Context, doc model.Document, item bool) {
	if err := s.cache.InvalidateDocumentLists(ctx, listPrefix(doc.OwnerID, doc.Collection)); err != nil {
		s.logger.Warn("Failed to invalidate document lists", "collection", doc.Collection, "error", err)
	}
	if !item {
		return
	}
	if err := s.cache.InvalidateDocumentItem(ctx, doc.ID.String()); err != nil {
		s.logger.Warn("Failed to invalidate document", "id", doc.ID, "error", err)
	}
}

func (s *Service) CreateDocument(ctx context.Context, principal model.Principal, collection string, body json.RawMessage) (model.Document, error) {
	body, err := validateBody(body)
	if err != nil {
		return model.Document{}, err
	}

	now := s.now().UTC()
	doc := model.Document{
		ID:         uuid.New(),
		Collection: collection,
		OwnerID:    principal.UserID,
		Body:       body,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	created, err := s.docRepo.CreateDocument(ctx, doc)
	if err != nil {
		return model.Document{}, fmt.Errorf("failed to create document: %w", err)
	}

	s.invalidate(ctx, created, false)
	return created, nil
}

func (s *Service) ListDocuments(ctx context.Context, principal model.Principal, collection string, limit, offset int) ([]model.Document, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	cacheKey := fmt.Sprintf("%s%d:%d", listPrefix(principal.UserID, collection), limit, offset)
	if cachedData, err := s.cache.GetDocumentList(ctx, cacheKey); err == nil {
		var docs []model.Document
		if json.Unmarshal(cachedData, &docs) == nil {
			return docs, nil
		}
	}

	docs, err := s.docRepo.GetDocuments(ctx, collection, principal.UserID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}

	if data, err := json.Marshal(docs); err == nil {
		if err := s.cache.SetDocumentList(ctx, cacheKey, data); err != nil {
			s.logger.Warn("Failed to cache document list", "collection", collection, "error", err)
		}
	}
	return docs, nil
}

// load достаёт документ (сначала из кэша) и проверяет владельца
func (s *Service) load(ctx context.Context, principal model.Principal, collection, docIDStr string) (model.Document, error) {
	docID, err := uuid.Parse(docIDStr)
	if err != nil {
		return model.Document{}, errDocumentNotFound
	}

	var doc model.Document
	cached := false
	if cachedData, err := s.cache.GetDocumentItem(ctx, docID.String()); err == nil {
		cached = json.Unmarshal(cachedData, &doc) == nil
	}

	if !cached {
		doc, err = s.docRepo.GetDocumentByID(ctx, collection, docID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return model.Document{}, errDocumentNotFound
			}
			return model.Document{}, fmt.Errorf("failed to get document: %w", err)
		}
		if data, err := json.Marshal(doc); err == nil {
			if err := s.cache.SetDocumentItem(ctx, docID.String(), data); err != nil {
				s.logger.Warn("Failed to cache document", "id", docID, "error", err)
			}
		}
	}

	if doc.Collection != collection {
		return model.Document{}, errDocumentNotFound
	}
	if doc.OwnerID != principal.UserID {
		return model.Document{}, apperr.Forbidden("access denied")
	}
	return doc, nil
}

func (s *Service) GetDocument(ctx context.Context, principal model.Principal, collection, docID string) (model.Document, error) {
	return s.load(ctx, principal, collection, docID)
}

func (s *Service) UpdateDocument(ctx context.Context, principal model.Principal, collection, docID string, body json.RawMessage) (model.Document, error) {
	body, err := validateBody(body)
	if err != nil {
		return model.Document{}, err
	}

	doc, err := s.load(ctx, principal, collection, docID)
	if err != nil {
		return model.Document{}, err
	}

	doc.Body = body
	doc.UpdatedAt = s.now().UTC()
	updated, err := s.docRepo.UpdateDocument(ctx, doc)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.invalidate(ctx, doc, true)
			return model.Document{}, errDocumentNotFound
		}
		return model.Document{}, fmt.Errorf("failed to update document: %w", err)
	}

	s.invalidate(ctx, updated, true)
	return updated, nil
}

func (s *Service) DeleteDocument(ctx context.Context, principal model.Principal, collection, docID string) error {
	doc, err := s.load(ctx, principal, collection, docID)
	if err != nil {
		return err
	}

	if err := s.docRepo.DeleteDocument(ctx, collection, doc.ID); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return apperr.Internal(fmt.Errorf("failed to delete document: %w", err))
		}
	}

	s.invalidate(ctx, doc, true)
	return nil
}
