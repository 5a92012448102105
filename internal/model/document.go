package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Document произвольный JSON объект пользователя внутри коллекции (note, todo, ...).
// Схема тела не фиксируется, её определяет клиент.
type Document struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Collection string          `json:"collection" db:"collection"`
	OwnerID    uuid.UUID       `json:"owner_id" db:"owner_id"`
	Body       json.RawMessage `json:"body" db:"body"`
	CreatedAt  time.Time       `json:"created" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated" db:"updated_at"`
}
