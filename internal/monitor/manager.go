package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/axisfit/axisfit-service/internal/config"
	"github.com/axisfit/axisfit-service/internal/posture"
	"github.com/axisfit/axisfit-service/internal/recorder"
	"github.com/axisfit/axisfit-service/internal/repository"
	"github.com/axisfit/axisfit-service/internal/sim"
)

var (
	// ErrSessionActive is returned when a user already has a live monitor
	ErrSessionActive = errors.New("user already has an active session")
	// ErrNoSuchSession is returned for ticks against unknown session IDs
	ErrNoSuchSession = errors.New("no active session with that ID")
)

// SourceFactory builds the device stream for a new monitor. The default uses
// the simulator anchored at the session's start time.
type SourceFactory func(startMillis int64) Source

func defaultSourceFactory(startMillis int64) Source {
	return sim.New(sim.Config{StartMillis: startMillis})
}

// Manager owns the live monitors, at most one per user.
type Manager struct {
	repo      repository.SessionRepository
	sensorCfg config.SensorConfig
	newSource SourceFactory
	now       func() time.Time

	mu       sync.Mutex
	bySess   map[uuid.UUID]*Monitor
	userSess map[uuid.UUID]uuid.UUID
}

// NewManager creates a monitor manager backed by the session repository.
func NewManager(cfg config.SensorConfig, repo repository.SessionRepository) *Manager {
	return &Manager{
		repo:      repo,
		sensorCfg: cfg,
		newSource: defaultSourceFactory,
		now:       time.Now,
		bySess:    make(map[uuid.UUID]*Monitor),
		userSess:  make(map[uuid.UUID]uuid.UUID),
	}
}

// WithSource overrides the stream factory, used by tests to inject a seeded
// simulator.
func (mgr *Manager) WithSource(f SourceFactory) *Manager {
	mgr.newSource = f
	return mgr
}

// WithClock overrides the wall clock, used by tests.
func (mgr *Manager) WithClock(now func() time.Time) *Manager {
	mgr.now = now
	return mgr
}

// StartSession opens a new monitored session for the user. The effective
// thresholds are the mode defaults adjusted for sport with the user's stored
// override merged on top.
func (mgr *Manager) StartSession(ctx context.Context, userID uuid.UUID, kind, mode, sport string) (uuid.UUID, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	if _, busy := mgr.userSess[userID]; busy {
		return uuid.Nil, ErrSessionActive
	}

	patch, err := mgr.repo.GetUserThresholds(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}

	// A stored override that merges cleanly over the plain mode defaults can
	// still invert a green/yellow boundary once the sport widening is applied.
	// Reject the session rather than record with degenerate zones.
	thresholds := posture.ForContext(mode, sport, patch)
	if err := thresholds.Validate(); err != nil {
		return uuid.Nil, err
	}

	startMillis := mgr.now().UnixMilli()
	mon := New(Config{
		SampleRateHz:        mgr.sensorCfg.SampleRateHz,
		AlignerMaxAgeMillis: mgr.sensorCfg.AlignerMaxAgeMillis,
		SyncWindowPoints:    mgr.sensorCfg.SyncWindowPoints,
		SyncMinPoints:       mgr.sensorCfg.SyncMinPoints,
		CompWindowSeconds:   mgr.sensorCfg.CompWindowSeconds,
		CompScaleDeg:        mgr.sensorCfg.CompScaleDeg,
		Thresholds:          thresholds,
		Recorder: recorder.Config{
			UserID:           userID,
			Kind:             kind,
			Mode:             mode,
			Sport:            sport,
			SampleRateHz:     mgr.sensorCfg.SampleRateHz,
			FlushInterval:    mgr.sensorCfg.FlushInterval,
			FlushMaxRows:     mgr.sensorCfg.FlushMaxRows,
			AlertCooldown:    mgr.sensorCfg.AlertCooldown,
			RedStreakSeconds: mgr.sensorCfg.RedStreakSeconds,
			CompHighStreak:   mgr.sensorCfg.CompHighStreak,
			CompHighLevel:    mgr.sensorCfg.CompHighLevel,
		},
	}, mgr.newSource(startMillis), mgr.repo)

	sessionID, err := mon.Start(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	mgr.bySess[sessionID] = mon
	mgr.userSess[userID] = sessionID
	return sessionID, nil
}

// Get returns the live monitor for a session.
func (mgr *Manager) Get(sessionID uuid.UUID) (*Monitor, bool) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mon, ok := mgr.bySess[sessionID]
	return mon, ok
}

// ActiveSession returns the user's live session ID, if any.
func (mgr *Manager) ActiveSession(userID uuid.UUID) (uuid.UUID, bool) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	id, ok := mgr.userSess[userID]
	return id, ok
}

// StopSession closes a live session and releases the user's slot.
func (mgr *Manager) StopSession(ctx context.Context, sessionID uuid.UUID) (*recorder.StopResult, error) {
	mgr.mu.Lock()
	mon, ok := mgr.bySess[sessionID]
	if !ok {
		mgr.mu.Unlock()
		return nil, ErrNoSuchSession
	}
	delete(mgr.bySess, sessionID)
	for user, sess := range mgr.userSess {
		if sess == sessionID {
			delete(mgr.userSess, user)
			break
		}
	}
	mgr.mu.Unlock()

	return mon.Stop(ctx)
}
