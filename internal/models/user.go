package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles.
const (
	RoleAthlete = "athlete"
	RoleCoach   = "coach"
)

// ValidRole reports whether role is one of athlete|coach.
func ValidRole(role string) bool {
	return role == RoleAthlete || role == RoleCoach
}

// User represents an account in the system. Coaches can review the daily
// rollups of the athletes assigned to them; athletes record sessions.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never expose in JSON
	Role         string     `json:"role" db:"role"`
	DisplayName  *string    `json:"displayName,omitempty" db:"display_name"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	IsActive     bool       `json:"isActive" db:"is_active"`
}

// UserResponse represents a user for API responses (excludes sensitive fields)
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	DisplayName *string    `json:"displayName,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	IsActive    bool       `json:"isActive"`
}

// ToResponse converts a User to a UserResponse (safe for API)
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
		IsActive:    u.IsActive,
	}
}
