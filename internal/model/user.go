package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Login        string    `json:"login" db:"login"`
	PasswordHash string    `json:"-" db:"password_hash"` // Не сериализуем в JSON
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Principal владелец сессии, извлечённый из проверенного токена
type Principal struct {
	UserID    uuid.UUID `json:"user_id"`
	Login     string    `json:"login"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}
