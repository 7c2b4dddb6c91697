package auth

import "time"

type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserContext is what the auth middleware attaches to a request.
type UserContext struct {
	UserID string
	Email  string
	Role   string
}
