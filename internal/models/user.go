package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that owns properties and tax calculations.
type User struct {
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash []byte    `json:"-"`
	ID           uuid.UUID `json:"id"`
}
