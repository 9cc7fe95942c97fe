package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/axisfit/axisfit-service/internal/models"
)

// MockUserRepository is a mock implementation of UserRepository for testing
type MockUserRepository struct {
	CreateFunc          func(ctx context.Context, user *models.User) error
	GetByIDFunc         func(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmailFunc      func(ctx context.Context, email string) (*models.User, error)
	UpdateFunc          func(ctx context.Context, user *models.User) error
	UpdatePasswordFunc  func(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateLastLoginFunc func(ctx context.Context, id uuid.UUID) error
}

// NewMockUserRepository creates a new mock user repository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		CreateFunc: func(_ context.Context, _ *models.User) error {
			return nil
		},
		GetByIDFunc: func(_ context.Context, _ uuid.UUID) (*models.User, error) {
			return nil, ErrUserNotFound
		},
		GetByEmailFunc: func(_ context.Context, _ string) (*models.User, error) {
			return nil, ErrUserNotFound
		},
		UpdateFunc: func(_ context.Context, _ *models.User) error {
			return nil
		},
		UpdatePasswordFunc: func(_ context.Context, _ uuid.UUID, _ string) error {
			return nil
		},
		UpdateLastLoginFunc: func(_ context.Context, _ uuid.UUID) error {
			return nil
		},
	}
}

// Create implements UserRepository.Create
func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.CreateFunc(ctx, user)
}

// GetByID implements UserRepository.GetByID
func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.GetByIDFunc(ctx, id)
}

// GetByEmail implements UserRepository.GetByEmail
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.GetByEmailFunc(ctx, email)
}

// Update implements UserRepository.Update
func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	return m.UpdateFunc(ctx, user)
}

// UpdatePassword implements UserRepository.UpdatePassword
func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return m.UpdatePasswordFunc(ctx, id, passwordHash)
}

// UpdateLastLogin implements UserRepository.UpdateLastLogin
func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	return m.UpdateLastLoginFunc(ctx, id)
}
