package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/axisfit/axisfit-service/internal/models"
	"github.com/axisfit/axisfit-service/internal/posture"
)

// MockSessionRepository is a mock implementation of SessionRepository for testing
type MockSessionRepository struct {
	StartSessionFunc          func(ctx context.Context, userID uuid.UUID, kind, mode, sport string) (uuid.UUID, error)
	EndSessionFunc            func(ctx context.Context, sessionID uuid.UUID) error
	GetSessionFunc            func(ctx context.Context, sessionID uuid.UUID) (*models.SensorSession, error)
	InsertRawBatchFunc        func(ctx context.Context, sessionID uuid.UUID, rows []models.AnnotatedSample) error
	InsertAggBatchFunc        func(ctx context.Context, sessionID uuid.UUID, rows []models.AggSample) error
	GetRawSamplesFunc         func(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.AnnotatedSample, error)
	ListSessionSummariesFunc  func(ctx context.Context, userID uuid.UUID, limit int) ([]models.SessionOverview, error)
	UpsertSessionSummaryFunc  func(ctx context.Context, summary *models.SessionSummary) error
	GetSessionSummaryFunc     func(ctx context.Context, sessionID uuid.UUID) (*models.SessionSummary, error)
	RecomputeDailySummaryFunc func(ctx context.Context, userID uuid.UUID, day string) (*models.DailySummary, error)
	GetDailySummaryFunc       func(ctx context.Context, userID uuid.UUID, day string) (*models.DailySummary, error)
	ListDailySummariesFunc    func(ctx context.Context, userID uuid.UUID, startDay, endDay string) ([]models.DailySummary, error)
	GetUserThresholdsFunc     func(ctx context.Context, userID uuid.UUID) (*posture.UserPatch, error)
	UpsertUserThresholdsFunc  func(ctx context.Context, userID uuid.UUID, patch *posture.UserPatch) error
}

// NewMockSessionRepository creates a new mock session repository
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{
		StartSessionFunc: func(_ context.Context, _ uuid.UUID, _, _, _ string) (uuid.UUID, error) {
			return uuid.New(), nil
		},
		EndSessionFunc: func(_ context.Context, _ uuid.UUID) error {
			return nil
		},
		GetSessionFunc: func(_ context.Context, _ uuid.UUID) (*models.SensorSession, error) {
			return nil, ErrSessionNotFound
		},
		InsertRawBatchFunc: func(_ context.Context, _ uuid.UUID, _ []models.AnnotatedSample) error {
			return nil
		},
		InsertAggBatchFunc: func(_ context.Context, _ uuid.UUID, _ []models.AggSample) error {
			return nil
		},
		GetRawSamplesFunc: func(_ context.Context, _ uuid.UUID, _ int) ([]models.AnnotatedSample, error) {
			return nil, nil
		},
		ListSessionSummariesFunc: func(_ context.Context, _ uuid.UUID, _ int) ([]models.SessionOverview, error) {
			return nil, nil
		},
		UpsertSessionSummaryFunc: func(_ context.Context, _ *models.SessionSummary) error {
			return nil
		},
		GetSessionSummaryFunc: func(_ context.Context, _ uuid.UUID) (*models.SessionSummary, error) {
			return nil, ErrSummaryNotFound
		},
		RecomputeDailySummaryFunc: func(_ context.Context, userID uuid.UUID, day string) (*models.DailySummary, error) {
			return &models.DailySummary{UserID: userID, Day: day}, nil
		},
		GetDailySummaryFunc: func(_ context.Context, _ uuid.UUID, _ string) (*models.DailySummary, error) {
			return nil, ErrDailySummaryNotFound
		},
		ListDailySummariesFunc: func(_ context.Context, _ uuid.UUID, _, _ string) ([]models.DailySummary, error) {
			return nil, nil
		},
		GetUserThresholdsFunc: func(_ context.Context, _ uuid.UUID) (*posture.UserPatch, error) {
			return nil, nil
		},
		UpsertUserThresholdsFunc: func(_ context.Context, _ uuid.UUID, _ *posture.UserPatch) error {
			return nil
		},
	}
}

// StartSession implements SessionRepository.StartSession
func (m *MockSessionRepository) StartSession(ctx context.Context, userID uuid.UUID, kind, mode, sport string) (uuid.UUID, error) {
	return m.StartSessionFunc(ctx, userID, kind, mode, sport)
}

// EndSession implements SessionRepository.EndSession
func (m *MockSessionRepository) EndSession(ctx context.Context, sessionID uuid.UUID) error {
	return m.EndSessionFunc(ctx, sessionID)
}

// GetSession implements SessionRepository.GetSession
func (m *MockSessionRepository) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.SensorSession, error) {
	return m.GetSessionFunc(ctx, sessionID)
}

// InsertRawBatch implements SessionRepository.InsertRawBatch
func (m *MockSessionRepository) InsertRawBatch(ctx context.Context, sessionID uuid.UUID, rows []models.AnnotatedSample) error {
	return m.InsertRawBatchFunc(ctx, sessionID, rows)
}

// InsertAggBatch implements SessionRepository.InsertAggBatch
func (m *MockSessionRepository) InsertAggBatch(ctx context.Context, sessionID uuid.UUID, rows []models.AggSample) error {
	return m.InsertAggBatchFunc(ctx, sessionID, rows)
}

// GetRawSamples implements SessionRepository.GetRawSamples
func (m *MockSessionRepository) GetRawSamples(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.AnnotatedSample, error) {
	return m.GetRawSamplesFunc(ctx, sessionID, limit)
}

// ListSessionSummaries implements SessionRepository.ListSessionSummaries
func (m *MockSessionRepository) ListSessionSummaries(ctx context.Context, userID uuid.UUID, limit int) ([]models.SessionOverview, error) {
	return m.ListSessionSummariesFunc(ctx, userID, limit)
}

// UpsertSessionSummary implements SessionRepository.UpsertSessionSummary
func (m *MockSessionRepository) UpsertSessionSummary(ctx context.Context, summary *models.SessionSummary) error {
	return m.UpsertSessionSummaryFunc(ctx, summary)
}

// GetSessionSummary implements SessionRepository.GetSessionSummary
func (m *MockSessionRepository) GetSessionSummary(ctx context.Context, sessionID uuid.UUID) (*models.SessionSummary, error) {
	return m.GetSessionSummaryFunc(ctx, sessionID)
}

// RecomputeDailySummary implements SessionRepository.RecomputeDailySummary
func (m *MockSessionRepository) RecomputeDailySummary(ctx context.Context, userID uuid.UUID, day string) (*models.DailySummary, error) {
	return m.RecomputeDailySummaryFunc(ctx, userID, day)
}

// GetDailySummary implements SessionRepository.GetDailySummary
func (m *MockSessionRepository) GetDailySummary(ctx context.Context, userID uuid.UUID, day string) (*models.DailySummary, error) {
	return m.GetDailySummaryFunc(ctx, userID, day)
}

// ListDailySummaries implements SessionRepository.ListDailySummaries
func (m *MockSessionRepository) ListDailySummaries(ctx context.Context, userID uuid.UUID, startDay, endDay string) ([]models.DailySummary, error) {
	return m.ListDailySummariesFunc(ctx, userID, startDay, endDay)
}

// GetUserThresholds implements SessionRepository.GetUserThresholds
func (m *MockSessionRepository) GetUserThresholds(ctx context.Context, userID uuid.UUID) (*posture.UserPatch, error) {
	return m.GetUserThresholdsFunc(ctx, userID)
}

// UpsertUserThresholds implements SessionRepository.UpsertUserThresholds
func (m *MockSessionRepository) UpsertUserThresholds(ctx context.Context, userID uuid.UUID, patch *posture.UserPatch) error {
	return m.UpsertUserThresholdsFunc(ctx, userID, patch)
}
