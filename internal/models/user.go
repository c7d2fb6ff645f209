package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Versioned

	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	PhoneNumber   *string   `json:"phone_number,omitempty"`
	PhoneVerified bool      `json:"phone_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u *User) GetID() string {
	return u.ID.String()
}
