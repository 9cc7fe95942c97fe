// Package monitor runs the live posture pipeline for one session: device
// stream in, clock sync and alignment, zone annotation, and recording out.
package monitor

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/axisfit/axisfit-service/internal/clocksync"
	"github.com/axisfit/axisfit-service/internal/models"
	"github.com/axisfit/axisfit-service/internal/posture"
	"github.com/axisfit/axisfit-service/internal/recorder"
	"github.com/axisfit/axisfit-service/internal/repository"
)

// Source supplies raw device samples up to a host instant. The simulator
// implements it; a BLE bridge would too.
type Source interface {
	Advance(toHostMillis int64)
	SamplesSince(sinceHostMillis int64, maxFrames int) []models.DeviceSample
}

// windowRetainSeconds bounds the in-memory annotated window served to the
// dashboard.
const windowRetainSeconds = 120

// Config assembles one monitor pipeline.
type Config struct {
	SampleRateHz        int
	AlignerMaxAgeMillis int64
	SyncWindowPoints    int
	SyncMinPoints       int
	CompWindowSeconds   int
	CompScaleDeg        float64

	Thresholds posture.ThresholdSet
	Recorder   recorder.Config
}

func (c *Config) applyDefaults() {
	if c.SampleRateHz <= 0 {
		c.SampleRateHz = int(posture.DefaultSampleRateHz)
	}
}

// Monitor drives raw samples from a source through clock sync, alignment and
// annotation into the recorder. Fusion happens on a nominal tick grid so the
// output rate stays fixed regardless of how raw samples arrive.
type Monitor struct {
	mu sync.Mutex

	src      Source
	syncThor *clocksync.Estimator
	syncLum  *clocksync.Estimator
	aligner  *clocksync.DualAligner
	engine   *posture.Engine
	rec      *recorder.Recorder
	thr      posture.ThresholdSet

	periodMillis     int64
	cursorHostMillis int64
	nextFuseMillis   int64

	window    []models.AnnotatedSample
	windowMax int
}

// New builds a monitor around a source and a session repository.
func New(cfg Config, src Source, repo repository.SessionRepository) *Monitor {
	cfg.applyDefaults()
	// Rates above 1000 Hz would round the tick period down to zero and stall
	// the fuse loop, so the grid never runs finer than 1 ms.
	periodMillis := int64(1000 / cfg.SampleRateHz)
	if periodMillis < 1 {
		periodMillis = 1
	}
	return &Monitor{
		src:      src,
		syncThor: clocksync.NewEstimator(cfg.SyncWindowPoints, cfg.SyncMinPoints),
		syncLum:  clocksync.NewEstimator(cfg.SyncWindowPoints, cfg.SyncMinPoints),
		aligner:  clocksync.NewDualAligner(float64(cfg.AlignerMaxAgeMillis)),
		engine: posture.NewEngine(posture.EngineConfig{
			SampleRateHz:      float64(cfg.SampleRateHz),
			CompWindowSeconds: float64(cfg.CompWindowSeconds),
			CompScaleDeg:      cfg.CompScaleDeg,
		}),
		rec:          recorder.New(cfg.Recorder, repo),
		thr:          cfg.Thresholds,
		periodMillis: periodMillis,
		windowMax:    windowRetainSeconds * cfg.SampleRateHz,
	}
}

// Start opens the underlying recording session.
func (m *Monitor) Start(ctx context.Context) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.rec.Start(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	m.cursorHostMillis = 0
	m.nextFuseMillis = 0
	m.window = m.window[:0]
	return id, nil
}

// SessionID returns the active session's ID, or uuid.Nil when idle.
func (m *Monitor) SessionID() uuid.UUID {
	return m.rec.SessionID()
}

// Tick advances the source to nowMillis and pushes everything new through
// the pipeline. It returns the samples annotated by this tick.
func (m *Monitor) Tick(ctx context.Context, nowMillis int64) ([]models.AnnotatedSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.rec.Recording() {
		return nil, recorder.ErrNotRecording
	}

	m.src.Advance(nowMillis)
	raw := m.src.SamplesSince(m.cursorHostMillis, 0)

	for _, s := range raw {
		switch s.DeviceID {
		case models.DeviceThoracic:
			m.syncThor.Update(s.DeviceTSMillis, s.HostRecvMillis)
			m.aligner.Push(s.DeviceID, m.syncThor.ToHostMillis(s.DeviceTSMillis), s.DeviceTSMillis, s.Angles)
		case models.DeviceLumbar:
			m.syncLum.Update(s.DeviceTSMillis, s.HostRecvMillis)
			m.aligner.Push(s.DeviceID, m.syncLum.ToHostMillis(s.DeviceTSMillis), s.DeviceTSMillis, s.Angles)
		}
		if ts := int64(s.HostRecvMillis); ts > m.cursorHostMillis {
			m.cursorHostMillis = ts
		}
	}

	if len(raw) == 0 {
		return nil, nil
	}
	if m.nextFuseMillis == 0 {
		m.nextFuseMillis = int64(raw[0].HostRecvMillis)
	}

	var out []models.AnnotatedSample
	for ; m.nextFuseMillis <= m.cursorHostMillis; m.nextFuseMillis += m.periodMillis {
		fused, ok := m.aligner.FusedAt(float64(m.nextFuseMillis))
		if !ok {
			continue
		}
		annotated := m.engine.Annotate(m.nextFuseMillis, fused.Thoracic, fused.Lumbar, m.thr)
		annotated.ThorIMUTSMillis = fused.ThorIMUTSMillis
		annotated.LumIMUTSMillis = fused.LumIMUTSMillis

		if err := m.rec.Append(ctx, annotated); err != nil {
			return out, err
		}
		out = append(out, annotated)
		m.window = append(m.window, annotated)
	}

	if len(m.window) > m.windowMax {
		m.window = append(m.window[:0], m.window[len(m.window)-m.windowMax:]...)
	}
	return out, nil
}

// Window returns the most recent annotated samples covering up to the given
// number of seconds, oldest first.
func (m *Monitor) Window(seconds int) []models.AnnotatedSample {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.window) == 0 {
		return nil
	}
	cutoff := m.window[len(m.window)-1].TSMillis - int64(seconds)*1000
	start := len(m.window)
	for start > 0 && m.window[start-1].TSMillis >= cutoff {
		start--
	}
	out := make([]models.AnnotatedSample, len(m.window)-start)
	copy(out, m.window[start:])
	return out
}

// Alerts returns the recorder's recent alert feed.
func (m *Monitor) Alerts() []recorder.Alert {
	return m.rec.RecentAlerts()
}

// Stop closes the session and returns its summary rollups.
func (m *Monitor) Stop(ctx context.Context) (*recorder.StopResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec.Stop(ctx)
}
