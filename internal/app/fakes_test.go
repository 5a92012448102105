package app

import (
	"context"
	"sort"
	"sync"

	"notemate-backend/internal/model"
	"notemate-backend/internal/repository"

	"github.com/google/uuid"
)

// memStore пользователи и документы в памяти вместо Postgres
type memStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
	docs  map[uuid.UUID]model.Document
}

func newMemStore() *memStore {
	return &memStore{users: map[uuid.UUID]model.User{}, docs: map[uuid.UUID]model.Document{}}
}

func (s *memStore) CreateUser(_ context.Context, user model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Login == user.Login {
			return repository.ErrDuplicate
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memStore) GetUserByLogin(_ context.Context, login string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Login == login {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *memStore) GetUserByID(_ context.Context, id uuid.UUID) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *memStore) CreateDocument(_ context.Context, doc model.Document) (model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
	return doc, nil
}

func (s *memStore) GetDocuments(_ context.Context, collection string, ownerID uuid.UUID, limit, offset int) ([]model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Document
	for _, d := range s.docs {
		if d.Collection == collection && d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []model.Document{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) GetDocumentByID(_ context.Context, collection string, docID uuid.UUID) (model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[docID]
	if !ok || d.Collection != collection {
		return model.Document{}, repository.ErrNotFound
	}
	return d, nil
}

func (s *memStore) UpdateDocument(_ context.Context, doc model.Document) (model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.docs[doc.ID]
	if !ok || old.Collection != doc.Collection {
		return model.Document{}, repository.ErrNotFound
	}
	doc.OwnerID, doc.CreatedAt = old.OwnerID, old.CreatedAt
	s.docs[doc.ID] = doc
	return doc, nil
}

func (s *memStore) DeleteDocument(_ context.Context, collection string, docID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[docID]
	if !ok || d.Collection != collection {
		return repository.ErrNotFound
	}
	delete(s.docs, docID)
	return nil
}
