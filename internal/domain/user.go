// Package domain holds BookCrush's core types and the rules that don't need storage.
package domain

import "time"

// User is an account that can join clubs, suggest books and vote.
type User struct {
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
}
