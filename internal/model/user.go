package model

import "time"

// User represents an application user record as stored in the
// `users` table. Identity is immutable after registration: the id
// never changes and the email is normalized (trimmed, lower-cased)
// before insert so the unique index treats addresses
// case-insensitively.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique normalized email address.
//  PasswordHash – bcrypt hashed password; opaque to everything but auth.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
