// Package recorder accumulates the annotated posture stream for one session:
// dwell times, alert streaks, buffered persistence, and the end-of-session
// summary rollups.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/axisfit/axisfit-service/internal/models"
	"github.com/axisfit/axisfit-service/internal/posture"
	"github.com/axisfit/axisfit-service/internal/repository"
)

var (
	// ErrNotRecording is returned when samples arrive without an active session
	ErrNotRecording = errors.New("no active recording")
	// ErrAlreadyRecording is returned when Start is called twice
	ErrAlreadyRecording = errors.New("recording already in progress")
)

// Alert kinds raised during a recording.
const (
	AlertThoracicRed = "thor_red"
	AlertLumbarRed   = "lum_red"
	AlertCompHigh    = "comp_high"
)

// recentAlertsKept bounds the live alert feed handed to clients.
const recentAlertsKept = 5

// Alert is one raised posture warning on the session timeline.
type Alert struct {
	TSMillis int64  `json:"ts_ms"`
	Kind     string `json:"kind"`
}

// Config tunes one recording. Zero values fall back to the 50 Hz defaults.
type Config struct {
	UserID uuid.UUID
	Kind   string
	Mode   string
	Sport  string

	SampleRateHz     int
	FlushInterval    time.Duration
	FlushMaxRows     int
	AlertCooldown    time.Duration
	RedStreakSeconds float64
	CompHighStreak   float64
	CompHighLevel    float64
}

func (c *Config) applyDefaults() {
	if c.SampleRateHz <= 0 {
		c.SampleRateHz = posture.DefaultSampleRateHz
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = time.Second
	}
	if c.FlushMaxRows <= 0 {
		c.FlushMaxRows = 350
	}
	if c.AlertCooldown <= 0 {
		c.AlertCooldown = 5 * time.Second
	}
	if c.RedStreakSeconds <= 0 {
		c.RedStreakSeconds = 3
	}
	if c.CompHighStreak <= 0 {
		c.CompHighStreak = 2
	}
	if c.CompHighLevel <= 0 {
		c.CompHighLevel = 60
	}
}

// StopResult is what a finished recording yields. PersistErrs collects
// non-fatal persistence failures; the summary is computed regardless.
type StopResult struct {
	SessionID   uuid.UUID
	Summary     *models.SessionSummary
	Daily       *models.DailySummary
	PersistErrs []error
}

// Recorder consumes annotated samples for exactly one session at a time.
// All methods are safe for concurrent use.
type Recorder struct {
	cfg  Config
	repo repository.SessionRepository

	mu        sync.Mutex
	recording bool
	sessionID uuid.UUID

	prevTSMillis int64
	firstSample  bool
	sampleCount  int64

	thorRedS float64
	lumRedS  float64
	compSum  float64
	compPeak float64

	thorStreakS float64
	lumStreakS  float64
	compStreakS float64

	lastAlertMillis map[string]int64
	alertsTotal     int
	recentAlerts    []Alert

	rawBuf        []models.AnnotatedSample
	aggBuf        []models.AggSample
	lastFlush     time.Time
	lastAggSecond int64
}

// New creates a recorder bound to a session repository.
func New(cfg Config, repo repository.SessionRepository) *Recorder {
	cfg.applyDefaults()
	return &Recorder{cfg: cfg, repo: repo}
}

// Start opens a new session row and arms the accumulators.
func (r *Recorder) Start(ctx context.Context) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return uuid.Nil, ErrAlreadyRecording
	}

	id, err := r.repo.StartSession(ctx, r.cfg.UserID, r.cfg.Kind, r.cfg.Mode, r.cfg.Sport)
	if err != nil {
		return uuid.Nil, fmt.Errorf("start recording: %w", err)
	}

	r.recording = true
	r.sessionID = id
	r.firstSample = true
	r.prevTSMillis = 0
	r.sampleCount = 0
	r.thorRedS, r.lumRedS = 0, 0
	r.compSum, r.compPeak = 0, 0
	r.thorStreakS, r.lumStreakS, r.compStreakS = 0, 0, 0
	r.lastAlertMillis = make(map[string]int64)
	r.alertsTotal = 0
	r.recentAlerts = nil
	r.rawBuf = r.rawBuf[:0]
	r.aggBuf = r.aggBuf[:0]
	r.lastFlush = time.Now()
	r.lastAggSecond = -1

	return id, nil
}

// SessionID returns the active session's ID, or uuid.Nil when idle.
func (r *Recorder) SessionID() uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return uuid.Nil
	}
	return r.sessionID
}

// Recording reports whether a session is currently open.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// RecentAlerts returns the latest raised alerts, newest last.
func (r *Recorder) RecentAlerts() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Alert, len(r.recentAlerts))
	copy(out, r.recentAlerts)
	return out
}

// Append feeds one annotated sample into the recording. Samples with
// non-finite angles are dropped, as are samples older than the previous one.
func (r *Recorder) Append(ctx context.Context, s models.AnnotatedSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return ErrNotRecording
	}
	if !finiteSample(s) {
		return nil
	}
	if !r.firstSample && s.TSMillis < r.prevTSMillis {
		// Late arrival from before the current head; the stream is
		// append-only so it cannot be spliced back in.
		return nil
	}

	dt := r.nominalPeriodS()
	if !r.firstSample {
		if d := float64(s.TSMillis-r.prevTSMillis) / 1000.0; d > 0 {
			dt = d
		}
	}
	r.firstSample = false
	r.prevTSMillis = s.TSMillis
	r.sampleCount++

	r.accumulate(s, dt)
	r.raiseAlerts(s.TSMillis)
	r.buffer(s)

	return r.maybeFlushLocked(ctx)
}

// AppendBatch feeds a slice of samples in order.
func (r *Recorder) AppendBatch(ctx context.Context, batch []models.AnnotatedSample) error {
	for _, s := range batch {
		if err := r.Append(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Stop closes the session, flushes buffers, and computes the rollups. The
// summary is always returned; persistence failures are collected in
// PersistErrs rather than aborting the stop.
func (r *Recorder) Stop(ctx context.Context) (*StopResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil, ErrNotRecording
	}
	r.recording = false

	res := &StopResult{SessionID: r.sessionID}

	if err := r.flushLocked(ctx); err != nil {
		res.PersistErrs = append(res.PersistErrs, err)
	}
	if err := r.repo.EndSession(ctx, r.sessionID); err != nil {
		res.PersistErrs = append(res.PersistErrs, err)
	}

	res.Summary = r.summarize()
	if err := r.repo.UpsertSessionSummary(ctx, res.Summary); err != nil {
		res.PersistErrs = append(res.PersistErrs, err)
	} else {
		day := time.Now().UTC().Format("2006-01-02")
		daily, err := r.repo.RecomputeDailySummary(ctx, r.cfg.UserID, day)
		if err != nil {
			res.PersistErrs = append(res.PersistErrs, err)
		} else {
			res.Daily = daily
		}
	}

	for _, err := range res.PersistErrs {
		log.Printf("Recorder stop for session %s: %v", res.SessionID, err)
	}
	return res, nil
}

func (r *Recorder) nominalPeriodS() float64 {
	return 1.0 / float64(r.cfg.SampleRateHz)
}

func (r *Recorder) accumulate(s models.AnnotatedSample, dt float64) {
	r.compSum += s.CompIndex
	if s.CompIndex > r.compPeak {
		r.compPeak = s.CompIndex
	}

	if s.ThorZone == models.ZoneRed {
		r.thorRedS += dt
		r.thorStreakS += dt
	} else {
		r.thorStreakS = 0
	}

	if s.LumZone == models.ZoneRed {
		r.lumRedS += dt
		r.lumStreakS += dt
	} else {
		r.lumStreakS = 0
	}

	if s.CompIndex >= r.cfg.CompHighLevel {
		r.compStreakS += dt
	} else {
		r.compStreakS = 0
	}
}

func (r *Recorder) raiseAlerts(tsMillis int64) {
	if r.thorStreakS >= r.cfg.RedStreakSeconds {
		r.raise(AlertThoracicRed, tsMillis)
	}
	if r.lumStreakS >= r.cfg.RedStreakSeconds {
		r.raise(AlertLumbarRed, tsMillis)
	}
	if r.compStreakS >= r.cfg.CompHighStreak {
		r.raise(AlertCompHigh, tsMillis)
	}
}

func (r *Recorder) raise(kind string, tsMillis int64) {
	last, seen := r.lastAlertMillis[kind]
	if seen && tsMillis-last < r.cfg.AlertCooldown.Milliseconds() {
		return
	}
	r.lastAlertMillis[kind] = tsMillis
	r.alertsTotal++
	r.recentAlerts = append(r.recentAlerts, Alert{TSMillis: tsMillis, Kind: kind})
	if len(r.recentAlerts) > recentAlertsKept {
		r.recentAlerts = r.recentAlerts[len(r.recentAlerts)-recentAlertsKept:]
	}
}

func (r *Recorder) buffer(s models.AnnotatedSample) {
	r.rawBuf = append(r.rawBuf, s)

	// One held row per wall second for chart backfill.
	if sec := s.TSMillis / 1000; sec != r.lastAggSecond {
		r.lastAggSecond = sec
		r.aggBuf = append(r.aggBuf, models.AggSample{
			TSSeconds: sec,
			ThorPitch: s.ThorPitch,
			LumPitch:  s.LumPitch,
			ThorZone:  s.ThorZone,
			LumZone:   s.LumZone,
			CompIndex: s.CompIndex,
		})
	}
}

func (r *Recorder) maybeFlushLocked(ctx context.Context) error {
	if len(r.rawBuf) < r.cfg.FlushMaxRows && time.Since(r.lastFlush) < r.cfg.FlushInterval {
		return nil
	}
	return r.flushLocked(ctx)
}

// flushLocked persists the buffered rows. Buffers are kept on failure so the
// next flush retries them.
func (r *Recorder) flushLocked(ctx context.Context) error {
	if len(r.rawBuf) > 0 {
		if err := r.repo.InsertRawBatch(ctx, r.sessionID, r.rawBuf); err != nil {
			return fmt.Errorf("flush raw samples: %w", err)
		}
		r.rawBuf = r.rawBuf[:0]
	}
	if len(r.aggBuf) > 0 {
		if err := r.repo.InsertAggBatch(ctx, r.sessionID, r.aggBuf); err != nil {
			return fmt.Errorf("flush agg samples: %w", err)
		}
		r.aggBuf = r.aggBuf[:0]
	}
	r.lastFlush = time.Now()
	return nil
}

// summarize derives the session rollup from the accumulators. Duration is
// sample-count based so it matches the dwell sums under any clock.
func (r *Recorder) summarize() *models.SessionSummary {
	durationS := float64(r.sampleCount) / float64(r.cfg.SampleRateHz)
	compAvg := 0.0
	if r.sampleCount > 0 {
		compAvg = r.compSum / float64(r.sampleCount)
	}

	return &models.SessionSummary{
		SessionID:   r.sessionID,
		DurationS:   durationS,
		ThorRedS:    r.thorRedS,
		LumRedS:     r.lumRedS,
		AlertsCount: r.alertsTotal,
		CompAvg:     compAvg,
		CompPeak:    r.compPeak,
		RiskIndex:   posture.RiskIndex(durationS, r.thorRedS, r.lumRedS, compAvg),
	}
}

func finiteSample(s models.AnnotatedSample) bool {
	for _, v := range []float64{
		s.ThorPitch, s.ThorRoll, s.ThorYaw,
		s.LumPitch, s.LumRoll, s.LumYaw,
		s.CompIndex,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
