package service

import (
	"context"
	"sort"
	"sync"

	"notemate-backend/internal/model"
	"notemate-backend/internal/repository"

	"github.com/google/uuid"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]model.User)}
}

func (f *fakeUsers) CreateUser(_ context.Context, user model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.Login]; ok {
		return repository.ErrDuplicate
	}
	f.users[user.Login] = user
	return nil
}

func (f *fakeUsers) GetUserByLogin(_ context.Context, login string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[login]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id uuid.UUID) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

type fakeDocs struct {
	mu        sync.Mutex
	docs      map[uuid.UUID]model.Document
	listCalls int
	getCalls  int
	deleteErr error
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: make(map[uuid.UUID]model.Document)}
}

func (f *fakeDocs) CreateDocument(_ context.Context, doc model.Document) (model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.ID] = doc
	return doc, nil
}

func (f *fakeDocs) GetDocuments(_ context.Context, collection string, ownerID uuid.UUID, limit, offset int) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	docs := make([]model.Document, 0)
	for _, d := range f.docs {
		if d.Collection == collection && d.OwnerID == ownerID {
			docs = append(docs, d)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].UpdatedAt.After(docs[j].UpdatedAt) })
	if offset >= len(docs) {
		return []model.Document{}, nil
	}
	docs = docs[offset:]
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (f *fakeDocs) GetDocumentByID(_ context.Context, collection string, docID uuid.UUID) (model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	d, ok := f.docs[docID]
	if !ok || d.Collection != collection {
		return model.Document{}, repository.ErrNotFound
	}
	return d, nil
}

func (f *fakeDocs) UpdateDocument(_ context.Context, doc model.Document) (model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.docs[doc.ID]
	if !ok || old.Collection != doc.Collection {
		return model.Document{}, repository.ErrNotFound
	}
	old.Body = doc.Body
	old.UpdatedAt = doc.UpdatedAt
	f.docs[doc.ID] = old
	return old, nil
}

func (f *fakeDocs) DeleteDocument(_ context.Context, collection string, docID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	d, ok := f.docs[docID]
	if !ok || d.Collection != collection {
		return repository.ErrNotFound
	}
	delete(f.docs, docID)
	return nil
}
