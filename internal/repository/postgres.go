package repository

import (
	"context"
	"errors"
	"fmt"

	"notemate-backend/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		login         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id         UUID PRIMARY KEY,
		collection TEXT NOT NULL,
		owner_id   UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		body       JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS documents_owner_collection_idx
		ON documents (owner_id, collection, updated_at DESC)`,
}

type Postgres struct {
	db DB
}

func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema создаёт таблицы, если их ещё нет
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	batch := &pgx.Batch{}
	for _, stmt := range schema {
		batch.Queue(stmt)
	}
	br := p.db.SendBatch(ctx, batch)

	var execErr error
	for i := range schema {
		if _, err := br.Exec(); err != nil {
			execErr = fmt.Errorf("schema statement %d: %w", i, err)
			break
		}
	}
	// Батч нужно закрыть даже после ошибки выполнения
	closeErr := br.Close()
	if execErr != nil {
		return execErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close batch: %w", closeErr)
	}
	return nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

// --- User Repository ---

func (p *Postgres) CreateUser(ctx context.Context, user model.User) error {
	query := `INSERT INTO users (id, login, password_hash, created_at) VALUES ($1, $2, $3, $4)`
	_, err := p.db.Exec(ctx, query, user.ID, user.Login, user.PasswordHash, user.CreatedAt)
	return mapErr(err)
}

func (p *Postgres) GetUserByLogin(ctx context.Context, login string) (model.User, error) {
	var user model.User
	query := `SELECT id, login, password_hash, created_at FROM users WHERE login = $1`
	err := p.db.QueryRow(ctx, query, login).Scan(&user.ID, &user.Login, &user.PasswordHash, &user.CreatedAt)
	return user, mapErr(err)
}

func (p *Postgres) GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	var user model.User
	query := `SELECT id, login, password_hash, created_at FROM users WHERE id = $1`
	err := p.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Login, &user.PasswordHash, &user.CreatedAt)
	return user, mapErr(err)
}

// --- Document Repository ---

func (p *Postgres) CreateDocument(ctx context.Context, doc model.Document) (model.Document, error) {
	query := `INSERT INTO documents (id, collection, owner_id, body, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := p.db.Exec(ctx, query, doc.ID, doc.Collection, doc.OwnerID, doc.Body, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return doc, mapErr(err)
	}
	return doc, nil
}

func (p *Postgres) GetDocuments(ctx context.Context, collection string, ownerID uuid.UUID, limit, offset int) ([]model.Document, error) {
	query := `SELECT id, collection, owner_id, body, created_at, updated_at
	          FROM documents
	          WHERE collection = $1 AND owner_id = $2
	          ORDER BY updated_at DESC, id
	          LIMIT $3 OFFSET $4`
	rows, err := p.db.Query(ctx, query, collection, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]model.Document, 0)
	for rows.Next() {
		var doc model.Document
		if err := rows.Scan(&doc.ID, &doc.Collection, &doc.OwnerID, &doc.Body, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (p *Postgres) GetDocumentByID(ctx context.Context, collection string, docID uuid.UUID) (model.Document, error) {
	var doc model.Document
	query := `SELECT id, collection, owner_id, body, created_at, updated_at
	          FROM documents WHERE id = $1 AND collection = $2`
	err := p.db.QueryRow(ctx, query, docID, collection).
		Scan(&doc.ID, &doc.Collection, &doc.OwnerID, &doc.Body, &doc.CreatedAt, &doc.UpdatedAt)
	return doc, mapErr(err)
}

func (p *Postgres) UpdateDocument(ctx context.Context, doc model.Document) (model.Document, error) {
	query := `UPDATE documents SET body = $1, updated_at = $2
	          WHERE id = $3 AND collection = $4
	          RETURNING owner_id, created_at`
	err := p.db.QueryRow(ctx, query, doc.Body, doc.UpdatedAt, doc.ID, doc.Collection).Scan(&doc.OwnerID, &doc.CreatedAt)
	return doc, mapErr(err)
}

func (p *Postgres) DeleteDocument(ctx context.Context, collection string, docID uuid.UUID) error {
	query := `DELETE FROM documents WHERE id = $1 AND collection = $2`
	tag, err := p.db.Exec(ctx, query, docID, collection)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
