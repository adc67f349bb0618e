package models

import "time"

// User represents a registered account
type User struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	PassHash  string    `json:"-" db:"pass_hash"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Settings holds the per-user preferences created at registration
type Settings struct {
	UserID   int64  `json:"id_user" db:"user_id"`
	Language string `json:"language" db:"language"`
	Currency string `json:"currency" db:"currency"`
}

// Profile is a user together with their settings
type Profile struct {
	ID       int64  `json:"id_user"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Language string `json:"language"`
	Currency string `json:"currency"`
}

// Session is the result of a successful login
type Session struct {
	Token  string `json:"token"`
	UserID int64  `json:"id_user"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}
