package repository

import (
	"context"
	"errors"

	"notemate-backend/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// DB то подмножество pgxpool.Pool, которым пользуется репозиторий
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type UserRepository interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUserByLogin(ctx context.Context, login string) (model.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)
}

type DocumentRepository interface {
	CreateDocument(ctx context.Context, doc model.Document) (model.Document, error)
	GetDocuments(ctx context.Context, collection string, ownerID uuid.UUID, limit, offset int) ([]model.Document, error)
	GetDocumentByID(ctx context.Context, collection string, docID uuid.UUID) (model.Document, error)
	UpdateDocument(ctx context.Context, doc model.Document) (model.Document, error)
	DeleteDocument(ctx context.Context, collection string, docID uuid.UUID) error
}
