package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"notemate-backend/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *Postgres) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock, NewPostgres(mock)
}

var docColumns = []string{"id", "collection", "owner_id", "body", "created_at", "updated_at"}

func TestCreateUser(t *testing.T) {
	mock, repo := newMock(t)
	user := model.User{ID: uuid.New(), Login: "notemate01", PasswordHash: "hash", CreatedAt: time.Now()}

	mock.ExpectExec("INSERT INTO users").
		WithArgs(user.ID, user.Login, user.PasswordHash, user.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, repo.CreateUser(context.Background(), user))

	mock.ExpectExec("INSERT INTO users").
		WithArgs(user.ID, user.Login, user.PasswordHash, user.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_login_key"})
	err := repo.CreateUser(context.Background(), user)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestGetUserByLogin(t *testing.T) {
	mock, repo := newMock(t)
	id := uuid.New()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, login, password_hash, created_at FROM users WHERE login").
		WithArgs("notemate01").
		WillReturnRows(pgxmock.NewRows([]string{"id", "login", "password_hash", "created_at"}).
			AddRow(id, "notemate01", "hash", created))

	user, err := repo.GetUserByLogin(context.Background(), "notemate01")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "hash", user.PasswordHash)
	assert.Equal(t, created, user.CreatedAt)

	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetUserByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetDocuments(t *testing.T) {
	mock, repo := newMock(t)
	owner := uuid.New()
	now := time.Now().UTC()
	first, second := uuid.New(), uuid.New()

	mock.ExpectQuery("FROM documents").
		WithArgs("note", owner, 10, 0).
		WillReturnRows(pgxmock.NewRows(docColumns).
			AddRow(first, "note", owner, json.RawMessage(`{"title":"a"}`), now, now).
			AddRow(second, "note", owner, json.RawMessage(`{"title":"b"}`), now, now))

	docs, err := repo.GetDocuments(context.Background(), "note", owner, 10, 0)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, first, docs[0].ID)
	assert.JSONEq(t, `{"title":"b"}`, string(docs[1].Body))

	mock.ExpectQuery("FROM documents").
		WithArgs("todo", owner, 10, 0).
		WillReturnRows(pgxmock.NewRows(docColumns))
	docs, err = repo.GetDocuments(context.Background(), "todo", owner, 10, 0)
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestGetDocumentByIDNotFound(t *testing.T) {
	mock, repo := newMock(t)
	id := uuid.New()

	mock.ExpectQuery("FROM documents WHERE id").
		WithArgs(id, "note").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetDocumentByID(context.Background(), "note", id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateDocument(t *testing.T) {
	mock, repo := newMock(t)
	owner := uuid.New()
	created := time.Now().Add(-time.Hour).UTC()
	doc := model.Document{ID: uuid.New(), Collection: "todo", Body: json.RawMessage(`{"done":true}`), UpdatedAt: time.Now().UTC()}

	mock.ExpectQuery("UPDATE documents SET body").
		WithArgs(doc.Body, doc.UpdatedAt, doc.ID, doc.Collection).
		WillReturnRows(pgxmock.NewRows([]string{"owner_id", "created_at"}).AddRow(owner, created))

	updated, err := repo.UpdateDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, owner, updated.OwnerID)
	assert.Equal(t, created, updated.CreatedAt)
}

func TestDeleteDocument(t *testing.T) {
	mock, repo := newMock(t)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM documents").
		WithArgs(id, "note").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, repo.DeleteDocument(context.Background(), "note", id))

	mock.ExpectExec("DELETE FROM documents").
		WithArgs(id, "note").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	assert.ErrorIs(t, repo.DeleteDocument(context.Background(), "note", id), ErrNotFound)

	mock.ExpectExec("DELETE FROM documents").
		WithArgs(id, "note").
		WillReturnError(errors.New("connection reset"))
	err := repo.DeleteDocument(context.Background(), "note", id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr(nil))
	assert.ErrorIs(t, mapErr(pgx.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, mapErr(&pgconn.PgError{Code: uniqueViolation}), ErrDuplicate)

	other := &pgconn.PgError{Code: "23503"}
	assert.Same(t, other, mapErr(other))
}
