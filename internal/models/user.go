// Package models defines the data structures that map to gateway records
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"

	"pagesmith/internal/gateway"
)

// Role represents a user's permission level in the system.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

// User represents a site manager account with authentication and 2FA fields.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	TOTPSecret   *string   `json:"-"` // Nullable; set during 2FA enrolment
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Needs2FASetup returns true if the user has not completed 2FA enrolment.
func (u *User) Needs2FASetup() bool {
	return !u.TOTPEnabled
}

// UserFromRecord maps a users record onto a User.
func UserFromRecord(r gateway.Record) *User {
	return &User{
		ID:           r.UUID("id"),
		Email:        r.String("email"),
		PasswordHash: r.String("password_hash"),
		DisplayName:  r.String("display_name"),
		Role:         Role(r.String("role")),
		TOTPSecret:   r.StringPtr("totp_secret"),
		TOTPEnabled:  r.Bool("totp_enabled"),
		CreatedAt:    r.Time("created_at"),
		UpdatedAt:    r.Time("updated_at"),
	}
}

// Record returns the writable columns of u. The id and timestamps are left
// to the backend.
func (u *User) Record() gateway.Record {
	return gateway.Record{
		"email":         u.Email,
		"password_hash": u.PasswordHash,
		"display_name":  u.DisplayName,
		"role":          string(u.Role),
		"totp_secret":   u.TOTPSecret,
		"totp_enabled":  u.TOTPEnabled,
	}
}
