package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/axisfit/axisfit-service/internal/middleware"
	"github.com/axisfit/axisfit-service/internal/models"
	"github.com/axisfit/axisfit-service/internal/monitor"
	"github.com/axisfit/axisfit-service/internal/posture"
	"github.com/axisfit/axisfit-service/internal/recorder"
	"github.com/axisfit/axisfit-service/internal/repository"
)

// SessionHandler handles sensor session lifecycle and live monitoring
// requests.
type SessionHandler struct {
	sessions *monitor.Manager
	repo     repository.SessionRepository
	now      func() time.Time
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *monitor.Manager, repo repository.SessionRepository) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		repo:     repo,
		now:      time.Now,
	}
}

// WithClock overrides the wall clock, used by tests.
func (h *SessionHandler) WithClock(now func() time.Time) *SessionHandler {
	h.now = now
	return h
}

// StartSessionRequest represents the session start request body
type StartSessionRequest struct {
	Kind  string `json:"kind" binding:"required"`
	Mode  string `json:"mode" binding:"required"`
	Sport string `json:"sport"`
}

// StartSessionResponse represents the session start response
type StartSessionResponse struct {
	SessionID string `json:"sessionId"`
	Kind      string `json:"kind"`
	Mode      string `json:"mode"`
	Sport     string `json:"sport"`
}

// TickRequest represents the monitor tick request body. NowMs is optional;
// when absent the server clock drives the stream.
type TickRequest struct {
	NowMs int64 `json:"nowMs"`
}

// TickResponse represents the monitor tick response
type TickResponse struct {
	SessionID string                  `json:"sessionId"`
	Produced  int                     `json:"produced"`
	Latest    *models.AnnotatedSample `json:"latest,omitempty"`
	Alerts    []recorder.Alert        `json:"alerts"`
}

// LiveWindowResponse represents the recent annotated stream of a live
// session.
type LiveWindowResponse struct {
	SessionID string                   `json:"sessionId"`
	Seconds   int                      `json:"seconds"`
	Samples   []models.AnnotatedSample `json:"samples"`
	Alerts    []recorder.Alert         `json:"alerts"`
}

// StopSessionResponse represents the session stop response. Warnings lists
// persistence failures that did not prevent the summary from being computed.
type StopSessionResponse struct {
	SessionID string                 `json:"sessionId"`
	Summary   *models.SessionSummary `json:"summary"`
	Daily     *models.DailySummary   `json:"daily,omitempty"`
	Warnings  []string               `json:"warnings,omitempty"`
}

// ListSessionsResponse represents the session history of a user
type ListSessionsResponse struct {
	Sessions []models.SessionOverview `json:"sessions"`
	Count    int                      `json:"count"`
}

// StartSession opens a new monitored session for the authenticated user
// POST /api/v1/sessions
func (h *SessionHandler) StartSession(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body: " + err.Error(),
		})
		return
	}

	if !models.ValidSessionKind(req.Kind) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_kind",
			"message": "Kind must be one of: monitor, routine, baseline",
		})
		return
	}
	if !models.ValidMode(req.Mode) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_mode",
			"message": "Mode must be one of: desk, train",
		})
		return
	}
	if req.Sport == "" {
		req.Sport = models.SportGym
	}

	sessionID, err := h.sessions.StartSession(c.Request.Context(), userID, req.Kind, req.Mode, req.Sport)
	if err != nil {
		if errors.Is(err, monitor.ErrSessionActive) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "session_active",
				"message": "A session is already being recorded for this user",
			})
			return
		}
		if errors.Is(err, posture.ErrInvalidThresholds) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_thresholds",
				"message": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to start session",
		})
		return
	}

	c.JSON(http.StatusCreated, StartSessionResponse{
		SessionID: sessionID.String(),
		Kind:      req.Kind,
		Mode:      req.Mode,
		Sport:     req.Sport,
	})
}

// Tick advances the live session's stream up to now and returns what was
// produced since the previous tick
// POST /api/v1/sessions/:id/tick
func (h *SessionHandler) Tick(c *gin.Context) {
	sessionID, mon, ok := h.liveMonitor(c)
	if !ok {
		return
	}

	var req TickRequest
	// Body is optional; ignore bind errors on an empty body.
	_ = c.ShouldBindJSON(&req)

	nowMillis := req.NowMs
	if nowMillis == 0 {
		nowMillis = h.now().UnixMilli()
	}

	produced, err := mon.Tick(c.Request.Context(), nowMillis)
	if err != nil {
		if errors.Is(err, recorder.ErrNotRecording) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "not_recording",
				"message": "Session is not recording",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to advance session",
		})
		return
	}

	resp := TickResponse{
		SessionID: sessionID.String(),
		Produced:  len(produced),
		Alerts:    mon.Alerts(),
	}
	if len(produced) > 0 {
		last := produced[len(produced)-1]
		resp.Latest = &last
	}

	c.JSON(http.StatusOK, resp)
}

// LiveWindow returns the last N seconds of the live annotated stream
// GET /api/v1/sessions/:id/live?seconds=30
func (h *SessionHandler) LiveWindow(c *gin.Context) {
	sessionID, mon, ok := h.liveMonitor(c)
	if !ok {
		return
	}

	seconds := 30
	if raw := c.Query("seconds"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "seconds must be a positive integer",
			})
			return
		}
		seconds = parsed
	}

	samples := mon.Window(seconds)
	c.JSON(http.StatusOK, LiveWindowResponse{
		SessionID: sessionID.String(),
		Seconds:   seconds,
		Samples:   samples,
		Alerts:    mon.Alerts(),
	})
}

// StopSession ends a live session, flushes buffers and reports the rollups
// POST /api/v1/sessions/:id/stop
func (h *SessionHandler) StopSession(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_session_id",
			"message": "Session ID must be a valid UUID",
		})
		return
	}

	if active, ok := h.sessions.ActiveSession(userID); !ok || active != sessionID {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "session_not_found",
			"message": "No live session with that ID for this user",
		})
		return
	}

	result, err := h.sessions.StopSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, monitor.ErrNoSuchSession) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "session_not_found",
				"message": "No live session with that ID",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to stop session",
		})
		return
	}

	resp := StopSessionResponse{
		SessionID: result.SessionID.String(),
		Summary:   result.Summary,
		Daily:     result.Daily,
	}
	for _, perr := range result.PersistErrs {
		resp.Warnings = append(resp.Warnings, perr.Error())
	}

	c.JSON(http.StatusOK, resp)
}

// ListSessions returns the caller's session history, most recent first, each
// entry paired with its summary once the session has completed
// GET /api/v1/sessions?limit=20
func (h *SessionHandler) ListSessions(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}

	overviews, err := h.repo.ListSessionSummaries(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to list sessions",
		})
		return
	}

	c.JSON(http.StatusOK, ListSessionsResponse{
		Sessions: overviews,
		Count:    len(overviews),
	})
}

// GetSession retrieves a stored session
// GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	_, session, ok := h.readableSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetSummary retrieves the stored summary of a completed session
// GET /api/v1/sessions/:id/summary
func (h *SessionHandler) GetSummary(c *gin.Context) {
	sessionID, _, ok := h.readableSession(c)
	if !ok {
		return
	}

	summary, err := h.repo.GetSessionSummary(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSummaryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "summary_not_found",
				"message": "Session has no stored summary yet",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to retrieve summary",
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// liveMonitor resolves the :id path param to the caller's live monitor,
// writing the error response itself when it cannot.
func (h *SessionHandler) liveMonitor(c *gin.Context) (uuid.UUID, *monitor.Monitor, bool) {
	userID := middleware.MustGetUserID(c)

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_session_id",
			"message": "Session ID must be a valid UUID",
		})
		return uuid.Nil, nil, false
	}

	if active, ok := h.sessions.ActiveSession(userID); !ok || active != sessionID {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "session_not_found",
			"message": "No live session with that ID for this user",
		})
		return uuid.Nil, nil, false
	}

	mon, ok := h.sessions.Get(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "session_not_found",
			"message": "No live session with that ID",
		})
		return uuid.Nil, nil, false
	}

	return sessionID, mon, true
}

// readableSession loads a stored session and enforces access: owners always,
// coaches for any athlete's session.
func (h *SessionHandler) readableSession(c *gin.Context) (uuid.UUID, *models.SensorSession, bool) {
	userID := middleware.MustGetUserID(c)

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_session_id",
			"message": "Session ID must be a valid UUID",
		})
		return uuid.Nil, nil, false
	}

	session, err := h.repo.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "session_not_found",
				"message": "Session not found",
			})
			return uuid.Nil, nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to retrieve session",
		})
		return uuid.Nil, nil, false
	}

	if session.UserID != userID {
		role, _ := middleware.GetUserRole(c)
		if role != models.RoleCoach {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "You do not have access to this session",
			})
			return uuid.Nil, nil, false
		}
	}

	return sessionID, session, true
}
