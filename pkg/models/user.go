package models

import (
	"time"
)

// User represents a locally registered account, keyed by the
// identity provider's stable subject id.
type User struct {
	ID          string    `json:"id" db:"id"`
	GoogleID    string    `json:"-" db:"google_id"`
	Email       string    `json:"email" db:"email"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Picture     string    `json:"picture,omitempty" db:"picture"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	LastLogin   time.Time `json:"last_login" db:"last_login"`
}

// Identity holds the claims extracted from a verified provider token.
type Identity struct {
	SubjectID   string
	Email       string
	DisplayName string
	Picture     string
}
