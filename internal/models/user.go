package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// ParseUserRole maps identity provider role names onto the roles this service knows.
// Anything unrecognised is treated as a student.
func ParseUserRole(name string) UserRole {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "admin", "administrator":
		return RoleAdmin
	case "teacher", "instructor", "educator":
		return RoleTeacher
	default:
		return RoleStudent
	}
}

// CanAuthor reports whether the role may build forms
func (r UserRole) CanAuthor() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// User is read from Casdoor, never stored by this service
type User struct {
	ID       string   `json:"id"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`

	// Profile info
	AvatarURL *string `json:"avatar_url"`

	EmailVerified bool `json:"email_verified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
