package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/axisfit/axisfit-service/internal/database"
	"github.com/axisfit/axisfit-service/internal/models"
	"github.com/axisfit/axisfit-service/internal/posture"
)

// PostgresSessionRepository implements SessionRepository using PostgreSQL
type PostgresSessionRepository struct {
	db *database.DB
}

// NewPostgresSessionRepository creates a new PostgreSQL session repository
func NewPostgresSessionRepository(db *database.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

// StartSession creates a new sensor session and returns its identifier
func (r *PostgresSessionRepository) StartSession(ctx context.Context, userID uuid.UUID, kind, mode, sport string) (uuid.UUID, error) {
	if !models.ValidSessionKind(kind) {
		return uuid.Nil, fmt.Errorf("invalid session kind %q", kind)
	}
	if !models.ValidMode(mode) {
		return uuid.Nil, fmt.Errorf("invalid mode %q", mode)
	}

	query := `
		INSERT INTO sensor_sessions (id, user_id, kind, mode, sport, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	id := uuid.New()
	_, err := r.db.ExecContext(ctx, query, id, userID, kind, mode, sport, time.Now().UTC())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to start sensor session: %w", err)
	}
	return id, nil
}

// EndSession marks a session as ended
func (r *PostgresSessionRepository) EndSession(ctx context.Context, sessionID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sensor_sessions SET ended_at = $1 WHERE id = $2`,
		time.Now().UTC(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to end sensor session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// GetSession retrieves a sensor session by ID
func (r *PostgresSessionRepository) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.SensorSession, error) {
	query := `
		SELECT id, user_id, kind, mode, sport, started_at, ended_at
		FROM sensor_sessions
		WHERE id = $1
	`

	s := &models.SensorSession{}
	var endedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&s.ID, &s.UserID, &s.Kind, &s.Mode, &s.Sport, &s.StartedAt, &endedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get sensor session: %w", err)
	}

	if endedAt.Valid {
		s.EndedAt = &endedAt.Time
	}
	return s, nil
}

// InsertRawBatch stores a batch of annotated 50 Hz samples in one transaction
func (r *PostgresSessionRepository) InsertRawBatch(ctx context.Context, sessionID uuid.UUID, rows []models.AnnotatedSample) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Rollback is safe to call even after Commit
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sensor_samples_raw (
			session_id, ts_ms,
			t_pitch, t_roll, t_yaw,
			l_pitch, l_roll, l_yaw,
			thor_zone, lum_zone, comp_index,
			t_imu_ts_ms, l_imu_ts_ms
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			sessionID, row.TSMillis,
			row.ThorPitch, row.ThorRoll, row.ThorYaw,
			row.LumPitch, row.LumRoll, row.LumYaw,
			string(row.ThorZone), string(row.LumZone), row.CompIndex,
			row.ThorIMUTSMillis, row.LumIMUTSMillis,
		)
		if err != nil {
			return fmt.Errorf("failed to insert raw sample in batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// InsertAggBatch stores a batch of 1 Hz downsampled rows in one transaction
func (r *PostgresSessionRepository) InsertAggBatch(ctx context.Context, sessionID uuid.UUID, rows []models.AggSample) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sensor_samples_agg (
			session_id, ts_s, t_pitch, l_pitch, thor_zone, lum_zone, comp_index
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			sessionID, row.TSSeconds,
			row.ThorPitch, row.LumPitch,
			string(row.ThorZone), string(row.LumZone), row.CompIndex,
		)
		if err != nil {
			return fmt.Errorf("failed to insert agg sample in batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRawSamples retrieves a session's raw samples ordered by timestamp
func (r *PostgresSessionRepository) GetRawSamples(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.AnnotatedSample, error) {
	if limit <= 0 {
		limit = 100000
	}

	query := `
		SELECT
			ts_ms,
			t_pitch, t_roll, t_yaw,
			l_pitch, l_roll, l_yaw,
			thor_zone, lum_zone, comp_index,
			t_imu_ts_ms, l_imu_ts_ms
		FROM sensor_samples_raw
		WHERE session_id = $1
		ORDER BY ts_ms ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query raw samples: %w", err)
	}
	defer rows.Close()

	var results []models.AnnotatedSample
	for rows.Next() {
		var s models.AnnotatedSample
		var thorZone, lumZone string
		err := rows.Scan(
			&s.TSMillis,
			&s.ThorPitch, &s.ThorRoll, &s.ThorYaw,
			&s.LumPitch, &s.LumRoll, &s.LumYaw,
			&thorZone, &lumZone, &s.CompIndex,
			&s.ThorIMUTSMillis, &s.LumIMUTSMillis,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan raw sample row: %w", err)
		}
		s.ThorZone = models.Zone(thorZone)
		s.LumZone = models.Zone(lumZone)
		results = append(results, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating raw sample rows: %w", err)
	}
	return results, nil
}

// UpsertSessionSummary stores or replaces the summary of a session
func (r *PostgresSessionRepository) UpsertSessionSummary(ctx context.Context, summary *models.SessionSummary) error {
	query := `
		INSERT INTO session_summary (
			session_id, duration_s, thor_red_s, lum_red_s,
			alerts_count, comp_avg, comp_peak, risk_index
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id)
		DO UPDATE SET
			duration_s = EXCLUDED.duration_s,
			thor_red_s = EXCLUDED.thor_red_s,
			lum_red_s = EXCLUDED.lum_red_s,
			alerts_count = EXCLUDED.alerts_count,
			comp_avg = EXCLUDED.comp_avg,
			comp_peak = EXCLUDED.comp_peak,
			risk_index = EXCLUDED.risk_index
	`

	_, err := r.db.ExecContext(ctx, query,
		summary.SessionID, summary.DurationS, summary.ThorRedS, summary.LumRedS,
		summary.AlertsCount, summary.CompAvg, summary.CompPeak, summary.RiskIndex,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session summary: %w", err)
	}
	return nil
}

// GetSessionSummary retrieves the stored summary of a session
func (r *PostgresSessionRepository) GetSessionSummary(ctx context.Context, sessionID uuid.UUID) (*models.SessionSummary, error) {
	query := `
		SELECT session_id, duration_s, thor_red_s, lum_red_s,
			alerts_count, comp_avg, comp_peak, risk_index
		FROM session_summary
		WHERE session_id = $1
	`

	s := &models.SessionSummary{}
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&s.SessionID, &s.DurationS, &s.ThorRedS, &s.LumRedS,
		&s.AlertsCount, &s.CompAvg, &s.CompPeak, &s.RiskIndex,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSummaryNotFound
		}
		return nil, fmt.Errorf("failed to get session summary: %w", err)
	}
	return s, nil
}

// ListSessionSummaries retrieves a user's sessions, most recent first, each
// paired with its stored summary when one exists
func (r *PostgresSessionRepository) ListSessionSummaries(ctx context.Context, userID uuid.UUID, limit int) ([]models.SessionOverview, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT
			s.id, s.user_id, s.kind, s.mode, s.sport, s.started_at, s.ended_at,
			ss.duration_s, ss.thor_red_s, ss.lum_red_s,
			ss.alerts_count, ss.comp_avg, ss.comp_peak, ss.risk_index
		FROM sensor_sessions s
		LEFT JOIN session_summary ss ON ss.session_id = s.id
		WHERE s.user_id = $1
		ORDER BY s.started_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query session summaries: %w", err)
	}
	defer rows.Close()

	var results []models.SessionOverview
	for rows.Next() {
		var o models.SessionOverview
		var endedAt sql.NullTime
		var durationS, thorRedS, lumRedS, compAvg, compPeak, riskIndex sql.NullFloat64
		var alertsCount sql.NullInt64

		err := rows.Scan(
			&o.Session.ID, &o.Session.UserID, &o.Session.Kind, &o.Session.Mode,
			&o.Session.Sport, &o.Session.StartedAt, &endedAt,
			&durationS, &thorRedS, &lumRedS,
			&alertsCount, &compAvg, &compPeak, &riskIndex,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session overview row: %w", err)
		}

		if endedAt.Valid {
			o.Session.EndedAt = &endedAt.Time
		}
		if durationS.Valid {
			o.Summary = &models.SessionSummary{
				SessionID:   o.Session.ID,
				DurationS:   durationS.Float64,
				ThorRedS:    thorRedS.Float64,
				LumRedS:     lumRedS.Float64,
				AlertsCount: int(alertsCount.Int64),
				CompAvg:     compAvg.Float64,
				CompPeak:    compPeak.Float64,
				RiskIndex:   riskIndex.Float64,
			}
		}
		results = append(results, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session overview rows: %w", err)
	}
	return results, nil
}

// RecomputeDailySummary rebuilds the (user, day) rollup from all completed
// sessions of that day and upserts it. comp_avg and risk_index_avg are
// averages of per-session values, not sample weighted.
func (r *PostgresSessionRepository) RecomputeDailySummary(ctx context.Context, userID uuid.UUID, day string) (*models.DailySummary, error) {
	query := `
		SELECT
			COUNT(ss.session_id)              AS sessions_count,
			COALESCE(SUM(ss.duration_s), 0)   AS duration_s,
			COALESCE(SUM(ss.thor_red_s), 0)   AS thor_red_s,
			COALESCE(SUM(ss.lum_red_s), 0)    AS lum_red_s,
			COALESCE(SUM(ss.alerts_count), 0) AS alerts_count,
			COALESCE(AVG(ss.comp_avg), 0)     AS comp_avg,
			COALESCE(MAX(ss.comp_peak), 0)    AS comp_peak,
			COALESCE(AVG(ss.risk_index), 0)   AS risk_index_avg,
			COALESCE(MAX(ss.risk_index), 0)   AS risk_index_max
		FROM sensor_sessions s
		JOIN session_summary ss ON ss.session_id = s.id
		WHERE s.user_id = $1
		  AND DATE(s.started_at) = $2::date
		  AND s.ended_at IS NOT NULL
	`

	d := &models.DailySummary{UserID: userID, Day: day}
	err := r.db.QueryRowContext(ctx, query, userID, day).Scan(
		&d.SessionsCount, &d.DurationS, &d.ThorRedS, &d.LumRedS,
		&d.AlertsCount, &d.CompAvg, &d.CompPeak, &d.RiskIndexAvg, &d.RiskIndexMax,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily summary: %w", err)
	}

	upsert := `
		INSERT INTO daily_summary (
			user_id, day, sessions_count, duration_s, thor_red_s, lum_red_s,
			alerts_count, comp_avg, comp_peak, risk_index_avg, risk_index_max,
			updated_at
		) VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (user_id, day)
		DO UPDATE SET
			sessions_count = EXCLUDED.sessions_count,
			duration_s = EXCLUDED.duration_s,
			thor_red_s = EXCLUDED.thor_red_s,
			lum_red_s = EXCLUDED.lum_red_s,
			alerts_count = EXCLUDED.alerts_count,
			comp_avg = EXCLUDED.comp_avg,
			comp_peak = EXCLUDED.comp_peak,
			risk_index_avg = EXCLUDED.risk_index_avg,
			risk_index_max = EXCLUDED.risk_index_max,
			updated_at = NOW()
	`

	_, err = r.db.ExecContext(ctx, upsert,
		d.UserID, d.Day, d.SessionsCount, d.DurationS, d.ThorRedS, d.LumRedS,
		d.AlertsCount, d.CompAvg, d.CompPeak, d.RiskIndexAvg, d.RiskIndexMax,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert daily summary: %w", err)
	}
	return d, nil
}

// GetDailySummary retrieves the stored rollup for a user and day
func (r *PostgresSessionRepository) GetDailySummary(ctx context.Context, userID uuid.UUID, day string) (*models.DailySummary, error) {
	query := `
		SELECT user_id, day::text, sessions_count, duration_s, thor_red_s, lum_red_s,
			alerts_count, comp_avg, comp_peak, risk_index_avg, risk_index_max
		FROM daily_summary
		WHERE user_id = $1 AND day = $2::date
	`

	d := &models.DailySummary{}
	err := r.db.QueryRowContext(ctx, query, userID, day).Scan(
		&d.UserID, &d.Day, &d.SessionsCount, &d.DurationS, &d.ThorRedS, &d.LumRedS,
		&d.AlertsCount, &d.CompAvg, &d.CompPeak, &d.RiskIndexAvg, &d.RiskIndexMax,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDailySummaryNotFound
		}
		return nil, fmt.Errorf("failed to get daily summary: %w", err)
	}
	return d, nil
}

// ListDailySummaries retrieves a user's stored rollups for a day range,
// oldest first. Days without sessions have no row and are simply absent.
func (r *PostgresSessionRepository) ListDailySummaries(ctx context.Context, userID uuid.UUID, startDay, endDay string) ([]models.DailySummary, error) {
	query := `
		SELECT user_id, day::text, sessions_count, duration_s, thor_red_s, lum_red_s,
			alerts_count, comp_avg, comp_peak, risk_index_avg, risk_index_max
		FROM daily_summary
		WHERE user_id = $1 AND day BETWEEN $2::date AND $3::date
		ORDER BY day ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, startDay, endDay)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily summaries: %w", err)
	}
	defer rows.Close()

	var out []models.DailySummary
	for rows.Next() {
		var d models.DailySummary
		if err := rows.Scan(
			&d.UserID, &d.Day, &d.SessionsCount, &d.DurationS, &d.ThorRedS, &d.LumRedS,
			&d.AlertsCount, &d.CompAvg, &d.CompPeak, &d.RiskIndexAvg, &d.RiskIndexMax,
		); err != nil {
			return nil, fmt.Errorf("failed to scan daily summary: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list daily summaries: %w", err)
	}
	return out, nil
}

// GetUserThresholds retrieves a user's threshold override, or nil when the
// user has none
func (r *PostgresSessionRepository) GetUserThresholds(ctx context.Context, userID uuid.UUID) (*posture.UserPatch, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT thresholds_json FROM user_posture_settings WHERE user_id = $1`,
		userID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user thresholds: %w", err)
	}

	patch := &posture.UserPatch{}
	if err := json.Unmarshal(raw, patch); err != nil {
		return nil, fmt.Errorf("failed to decode user thresholds: %w", err)
	}
	return patch, nil
}

// UpsertUserThresholds stores or replaces a user's threshold override
func (r *PostgresSessionRepository) UpsertUserThresholds(ctx context.Context, userID uuid.UUID, patch *posture.UserPatch) error {
	raw, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to encode user thresholds: %w", err)
	}

	query := `
		INSERT INTO user_posture_settings (user_id, thresholds_json, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET
			thresholds_json = EXCLUDED.thresholds_json,
			updated_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query, userID, raw); err != nil {
		return fmt.Errorf("failed to upsert user thresholds: %w", err)
	}
	return nil
}
