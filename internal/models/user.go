package models

import "time"

// User is the admin account stored in the users collection.
type User struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
}
