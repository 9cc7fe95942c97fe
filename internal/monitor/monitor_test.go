package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axisfit/axisfit-service/internal/config"
	"github.com/axisfit/axisfit-service/internal/models"
	"github.com/axisfit/axisfit-service/internal/posture"
	"github.com/axisfit/axisfit-service/internal/recorder"
	"github.com/axisfit/axisfit-service/internal/repository"
	"github.com/axisfit/axisfit-service/internal/sim"
)

const simStart = int64(1_700_000_000_000)

func testMonitor(repo repository.SessionRepository) *Monitor {
	return New(Config{
		SampleRateHz:        50,
		AlignerMaxAgeMillis: 250,
		SyncWindowPoints:    200,
		SyncMinPoints:       12,
		CompWindowSeconds:   10,
		CompScaleDeg:        25,
		Thresholds:          posture.DefaultThresholds(models.ModeDesk),
		Recorder: recorder.Config{
			UserID: uuid.New(),
			Kind:   models.SessionKindMonitor,
			Mode:   models.ModeDesk,
			// Keep everything buffered until Stop
			FlushMaxRows:  1 << 20,
			FlushInterval: time.Hour,
		},
	}, sim.New(sim.Config{Seed: 11, StartMillis: simStart}), repo)
}

func TestMonitor_TickProducesAnnotatedStream(t *testing.T) {
	repo := repository.NewMockSessionRepository()
	mon := testMonitor(repo)
	ctx := context.Background()

	_, err := mon.Start(ctx)
	require.NoError(t, err)

	var total int
	for step := int64(1); step <= 10; step++ {
		out, err := mon.Tick(ctx, simStart+step*1000)
		require.NoError(t, err)
		total += len(out)

		for _, s := range out {
			assert.True(t, s.ThorZone.Valid())
			assert.True(t, s.LumZone.Valid())
			assert.GreaterOrEqual(t, s.CompIndex, 0.0)
			assert.LessOrEqual(t, s.CompIndex, 100.0)
			// Device clocks stay within their offset bound of the
			// host-relative time for the held sample.
			rel := s.TSMillis - simStart
			assert.InDelta(t, rel, float64(s.ThorIMUTSMillis), 300)
			assert.InDelta(t, rel, float64(s.LumIMUTSMillis), 300)
		}
	}

	// 10 s of stream at 50 Hz fuses to roughly 500 samples
	assert.InDelta(t, 500, total, 25)

	_, err = mon.Stop(ctx)
	require.NoError(t, err)
}

func TestMonitor_SamplesAreOrderedAndOnGrid(t *testing.T) {
	repo := repository.NewMockSessionRepository()
	mon := testMonitor(repo)
	ctx := context.Background()

	_, err := mon.Start(ctx)
	require.NoError(t, err)

	out, err := mon.Tick(ctx, simStart+5000)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	for i := 1; i < len(out); i++ {
		assert.Equal(t, int64(20), out[i].TSMillis-out[i-1].TSMillis)
	}
}

func TestMonitor_TickWithoutStart(t *testing.T) {
	mon := testMonitor(repository.NewMockSessionRepository())
	_, err := mon.Tick(context.Background(), simStart+1000)
	assert.ErrorIs(t, err, recorder.ErrNotRecording)
}

func TestMonitor_StopPersistsEverything(t *testing.T) {
	repo := repository.NewMockSessionRepository()
	rawTotal := 0
	repo.InsertRawBatchFunc = func(_ context.Context, _ uuid.UUID, rows []models.AnnotatedSample) error {
		rawTotal += len(rows)
		return nil
	}

	mon := testMonitor(repo)
	ctx := context.Background()
	_, err := mon.Start(ctx)
	require.NoError(t, err)

	produced := 0
	for step := int64(1); step <= 20; step++ {
		out, err := mon.Tick(ctx, simStart+step*500)
		require.NoError(t, err)
		produced += len(out)
	}

	res, err := mon.Stop(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.PersistErrs)
	assert.Equal(t, produced, rawTotal)
	assert.InDelta(t, float64(produced)/50.0, res.Summary.DurationS, 1e-9)
	assert.GreaterOrEqual(t, res.Summary.CompPeak, res.Summary.CompAvg)
}

func TestMonitor_WindowReturnsRecentSeconds(t *testing.T) {
	repo := repository.NewMockSessionRepository()
	mon := testMonitor(repo)
	ctx := context.Background()

	_, err := mon.Start(ctx)
	require.NoError(t, err)

	_, err = mon.Tick(ctx, simStart+30_000)
	require.NoError(t, err)

	win := mon.Window(5)
	require.NotEmpty(t, win)
	span := win[len(win)-1].TSMillis - win[0].TSMillis
	assert.LessOrEqual(t, span, int64(5000))
	// ~5 s at 50 Hz
	assert.InDelta(t, 250, len(win), 15)

	full := mon.Window(3600)
	assert.Greater(t, len(full), len(win))

	_, err = mon.Stop(ctx)
	require.NoError(t, err)
}

func TestMonitor_RateAboveGridClampsPeriod(t *testing.T) {
	// Above 1000 Hz the integer tick period would truncate to zero; the
	// monitor clamps it to 1 ms so Tick still terminates.
	repo := repository.NewMockSessionRepository()
	mon := New(Config{
		SampleRateHz:        2000,
		AlignerMaxAgeMillis: 250,
		SyncWindowPoints:    200,
		SyncMinPoints:       12,
		CompWindowSeconds:   10,
		CompScaleDeg:        25,
		Thresholds:          posture.DefaultThresholds(models.ModeDesk),
		Recorder: recorder.Config{
			UserID:        uuid.New(),
			Kind:          models.SessionKindMonitor,
			Mode:          models.ModeDesk,
			FlushMaxRows:  1 << 20,
			FlushInterval: time.Hour,
		},
	}, sim.New(sim.Config{Seed: 11, StartMillis: simStart}), repo)
	ctx := context.Background()

	_, err := mon.Start(ctx)
	require.NoError(t, err)

	out, err := mon.Tick(ctx, simStart+1000)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	for i := 1; i < len(out); i++ {
		assert.Equal(t, int64(1), out[i].TSMillis-out[i-1].TSMillis)
	}

	_, err = mon.Stop(ctx)
	require.NoError(t, err)
}

func TestManager_OneSessionPerUser(t *testing.T) {
	repo := repository.NewMockSessionRepository()
	mgr := newTestManager(repo)
	ctx := context.Background()
	userID := uuid.New()

	id, err := mgr.StartSession(ctx, userID, models.SessionKindMonitor, models.ModeDesk, models.SportGym)
	require.NoError(t, err)

	_, err = mgr.StartSession(ctx, userID, models.SessionKindMonitor, models.ModeDesk, models.SportGym)
	assert.ErrorIs(t, err, ErrSessionActive)

	got, ok := mgr.ActiveSession(userID)
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, err = mgr.StopSession(ctx, id)
	require.NoError(t, err)

	// Slot released, a new session may start
	_, ok = mgr.ActiveSession(userID)
	assert.False(t, ok)
	_, err = mgr.StartSession(ctx, userID, models.SessionKindRoutine, models.ModeTrain, models.SportCrossfit)
	assert.NoError(t, err)
}

func TestManager_StopUnknownSession(t *testing.T) {
	mgr := newTestManager(repository.NewMockSessionRepository())
	_, err := mgr.StopSession(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoSuchSession)
}

func TestManager_LoadsUserThresholds(t *testing.T) {
	repo := repository.NewMockSessionRepository()
	asked := false
	repo.GetUserThresholdsFunc = func(_ context.Context, _ uuid.UUID) (*posture.UserPatch, error) {
		asked = true
		return nil, nil
	}

	mgr := newTestManager(repo)
	_, err := mgr.StartSession(context.Background(), uuid.New(), models.SessionKindMonitor, models.ModeDesk, "")
	require.NoError(t, err)
	assert.True(t, asked)
}

func TestManager_RejectsDegenerateThresholds(t *testing.T) {
	// A train override that merges cleanly over the plain defaults can still
	// cross the crossfit-widened green boundary. The start must fail instead
	// of recording with inverted zones.
	repo := repository.NewMockSessionRepository()
	pitchY := 13.0
	repo.GetUserThresholdsFunc = func(_ context.Context, _ uuid.UUID) (*posture.UserPatch, error) {
		return &posture.UserPatch{
			Train: &posture.ModePatch{Thoracic: &posture.SegmentPatch{PitchY: &pitchY}},
		}, nil
	}

	mgr := newTestManager(repo)
	_, err := mgr.StartSession(context.Background(), uuid.New(), models.SessionKindMonitor, models.ModeTrain, models.SportCrossfit)
	assert.ErrorIs(t, err, posture.ErrInvalidThresholds)

	// The same override is fine without the sport widening.
	_, err = mgr.StartSession(context.Background(), uuid.New(), models.SessionKindMonitor, models.ModeTrain, models.SportGym)
	assert.NoError(t, err)
}

func TestManager_TickThroughManagedMonitor(t *testing.T) {
	repo := repository.NewMockSessionRepository()
	mgr := newTestManager(repo)
	ctx := context.Background()

	id, err := mgr.StartSession(ctx, uuid.New(), models.SessionKindMonitor, models.ModeDesk, "")
	require.NoError(t, err)

	mon, ok := mgr.Get(id)
	require.True(t, ok)

	out, err := mon.Tick(ctx, simStart+2000)
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	res, err := mgr.StopSession(ctx, id)
	require.NoError(t, err)
	assert.Greater(t, res.Summary.DurationS, 0.0)
}

func newTestManager(repo repository.SessionRepository) *Manager {
	cfg := config.SensorConfig{
		SampleRateHz:        50,
		CompWindowSeconds:   10,
		CompScaleDeg:        25,
		AlignerMaxAgeMillis: 250,
		SyncWindowPoints:    200,
		SyncMinPoints:       12,
		FlushMaxRows:        1 << 20,
		FlushInterval:       time.Hour,
		AlertCooldown:       5 * time.Second,
		RedStreakSeconds:    3,
		CompHighStreak:      2,
		CompHighLevel:       60,
	}
	return NewManager(cfg, repo).
		WithClock(func() time.Time { return time.UnixMilli(simStart) }).
		WithSource(func(startMillis int64) Source {
			return sim.New(sim.Config{Seed: 99, StartMillis: startMillis})
		})
}
