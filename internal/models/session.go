package models

import (
	"time"

	"github.com/google/uuid"
)

// Session kinds.
const (
	SessionKindMonitor  = "monitor"
	SessionKindRoutine  = "routine"
	SessionKindBaseline = "baseline"
)

// Recording modes. Mode selects which threshold table applies.
const (
	ModeDesk  = "desk"
	ModeTrain = "train"
)

// Sports known to the threshold tuning.
const (
	SportGym      = "gym"
	SportCrossfit = "crossfit"
)

// ValidSessionKind reports whether kind is one of monitor|routine|baseline.
func ValidSessionKind(kind string) bool {
	return kind == SessionKindMonitor || kind == SessionKindRoutine || kind == SessionKindBaseline
}

// ValidMode reports whether mode is one of desk|train.
func ValidMode(mode string) bool {
	return mode == ModeDesk || mode == ModeTrain
}

// SensorSession is one recording of the dual-IMU stream for a user.
type SensorSession struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"userId" db:"user_id"`
	Kind      string     `json:"kind" db:"kind"`
	Mode      string     `json:"mode" db:"mode"`
	Sport     string     `json:"sport" db:"sport"`
	StartedAt time.Time  `json:"startedAt" db:"started_at"`
	EndedAt   *time.Time `json:"endedAt,omitempty" db:"ended_at"`
}

// SessionSummary is the per-session rollup computed once when a recording
// stops. Duration is sample-count derived, not wall clock, so it stays
// consistent under simulated or accelerated time.
type SessionSummary struct {
	SessionID   uuid.UUID `json:"sessionId" db:"session_id"`
	DurationS   float64   `json:"durationS" db:"duration_s"`
	ThorRedS    float64   `json:"thorRedS" db:"thor_red_s"`
	LumRedS     float64   `json:"lumRedS" db:"lum_red_s"`
	AlertsCount int       `json:"alertsCount" db:"alerts_count"`
	CompAvg     float64   `json:"compAvg" db:"comp_avg"`
	CompPeak    float64   `json:"compPeak" db:"comp_peak"`
	RiskIndex   float64   `json:"riskIndex" db:"risk_index"`
}

// SessionOverview pairs a session with its stored summary for list views.
// Summary is nil while the session is still recording.
type SessionOverview struct {
	Session SensorSession   `json:"session"`
	Summary *SessionSummary `json:"summary,omitempty"`
}

// DailySummary is the per-user-per-day rollup over all completed sessions of
// that day. CompAvg and RiskIndexAvg are averages of per-session averages,
// not sample weighted; the rollup is recomputed in full on each update.
type DailySummary struct {
	UserID        uuid.UUID `json:"userId" db:"user_id"`
	Day           string    `json:"day" db:"day"` // YYYY-MM-DD
	SessionsCount int       `json:"sessionsCount" db:"sessions_count"`
	DurationS     float64   `json:"durationS" db:"duration_s"`
	ThorRedS      float64   `json:"thorRedS" db:"thor_red_s"`
	LumRedS       float64   `json:"lumRedS" db:"lum_red_s"`
	AlertsCount   int       `json:"alertsCount" db:"alerts_count"`
	CompAvg       float64   `json:"compAvg" db:"comp_avg"`
	CompPeak      float64   `json:"compPeak" db:"comp_peak"`
	RiskIndexAvg  float64   `json:"riskIndexAvg" db:"risk_index_avg"`
	RiskIndexMax  float64   `json:"riskIndexMax" db:"risk_index_max"`
}
