// Package repository provides data access interfaces and implementations.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/axisfit/axisfit-service/internal/models"
	"github.com/axisfit/axisfit-service/internal/posture"
)

var (
	// ErrSessionNotFound is returned when a sensor session is not found
	ErrSessionNotFound = errors.New("sensor session not found")
	// ErrSummaryNotFound is returned when a session has no stored summary
	ErrSummaryNotFound = errors.New("session summary not found")
	// ErrDailySummaryNotFound is returned when no rollup exists for a user/day
	ErrDailySummaryNotFound = errors.New("daily summary not found")
)

// SessionRepository defines the storage collaborator for sensor sessions,
// raw/aggregate sample batches, summaries and per-user threshold overrides.
type SessionRepository interface {
	// StartSession creates a new sensor session and returns its identifier
	StartSession(ctx context.Context, userID uuid.UUID, kind, mode, sport string) (uuid.UUID, error)

	// EndSession marks a session as ended
	EndSession(ctx context.Context, sessionID uuid.UUID) error

	// GetSession retrieves a sensor session by ID
	GetSession(ctx context.Context, sessionID uuid.UUID) (*models.SensorSession, error)

	// InsertRawBatch stores a batch of annotated 50 Hz samples
	InsertRawBatch(ctx context.Context, sessionID uuid.UUID, rows []models.AnnotatedSample) error

	// InsertAggBatch stores a batch of 1 Hz downsampled rows
	InsertAggBatch(ctx context.Context, sessionID uuid.UUID, rows []models.AggSample) error

	// ListSessionSummaries retrieves a user's sessions, most recent first,
	// each paired with its stored summary when one exists
	ListSessionSummaries(ctx context.Context, userID uuid.UUID, limit int) ([]models.SessionOverview, error)

	// GetRawSamples retrieves a session's raw samples ordered by timestamp
	GetRawSamples(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.AnnotatedSample, error)

	// UpsertSessionSummary stores or replaces the summary of a session
	UpsertSessionSummary(ctx context.Context, summary *models.SessionSummary) error

	// GetSessionSummary retrieves the stored summary of a session
	GetSessionSummary(ctx context.Context, sessionID uuid.UUID) (*models.SessionSummary, error)

	// RecomputeDailySummary rebuilds the (user, day) rollup from all
	// completed sessions of that day and upserts it. Idempotent.
	RecomputeDailySummary(ctx context.Context, userID uuid.UUID, day string) (*models.DailySummary, error)

	// GetDailySummary retrieves the stored rollup for a user and day
	GetDailySummary(ctx context.Context, userID uuid.UUID, day string) (*models.DailySummary, error)

	// ListDailySummaries retrieves the stored rollups for a day range,
	// oldest first; days without sessions are absent
	ListDailySummaries(ctx context.Context, userID uuid.UUID, startDay, endDay string) ([]models.DailySummary, error)

	// GetUserThresholds retrieves a user's threshold override, or nil when
	// the user has none (defaults apply)
	GetUserThresholds(ctx context.Context, userID uuid.UUID) (*posture.UserPatch, error)

	// UpsertUserThresholds stores or replaces a user's threshold override
	UpsertUserThresholds(ctx context.Context, userID uuid.UUID, patch *posture.UserPatch) error
}
