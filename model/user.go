package model

import (
	"database/sql"
	"time"
)

// User represents a registered artist account.
type User struct {
	ID           int64          `json:"id"`
	Email        string         `json:"email"`
	Name         string         `json:"name"`
	PasswordHash string         `json:"-"`
	Phone        sql.NullString `json:"-"`
	IsAdmin      bool           `json:"isAdmin"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}
