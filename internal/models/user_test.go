package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUser_ToResponse(t *testing.T) {
	now := time.Now()
	userID := uuid.New()
	lastLogin := now.Add(-1 * time.Hour)
	displayName := "Sam Carter"

	user := &User{
		ID:           userID,
		Email:        "test@example.com",
		PasswordHash: "hashed-password-should-not-appear",
		Role:         RoleCoach,
		DisplayName:  &displayName,
		CreatedAt:    now.Add(-7 * 24 * time.Hour),
		UpdatedAt:    now,
		LastLoginAt:  &lastLogin,
		IsActive:     true,
	}

	response := user.ToResponse()

	// Verify exposed fields
	assert.Equal(t, userID, response.ID)
	assert.Equal(t, "test@example.com", response.Email)
	assert.Equal(t, RoleCoach, response.Role)
	assert.Equal(t, &displayName, response.DisplayName)
	assert.Equal(t, user.CreatedAt, response.CreatedAt)
	assert.Equal(t, &lastLogin, response.LastLoginAt)
	assert.True(t, response.IsActive)

	// Verify password hash is not in response (it has json:"-" tag)
	// We can't directly check this, but the struct definition ensures it
}

func TestUser_ToResponse_NoLastLogin(t *testing.T) {
	now := time.Now()
	userID := uuid.New()

	user := &User{
		ID:           userID,
		Email:        "new@example.com",
		PasswordHash: "hashed-password",
		Role:         RoleAthlete,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLoginAt:  nil,
		IsActive:     true,
	}

	response := user.ToResponse()

	assert.Equal(t, userID, response.ID)
	assert.Equal(t, "new@example.com", response.Email)
	assert.Equal(t, RoleAthlete, response.Role)
	assert.Nil(t, response.DisplayName)
	assert.Nil(t, response.LastLoginAt)
	assert.True(t, response.IsActive)
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleAthlete))
	assert.True(t, ValidRole(RoleCoach))
	assert.False(t, ValidRole("admin"))
	assert.False(t, ValidRole(""))
	assert.False(t, ValidRole("Athlete"))
}
