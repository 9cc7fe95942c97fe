package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/axisfit/axisfit-service/internal/middleware"
	"github.com/axisfit/axisfit-service/internal/models"
	"github.com/axisfit/axisfit-service/internal/repository"
)

const dayLayout = "2006-01-02"

// SummaryHandler handles daily rollup requests.
type SummaryHandler struct {
	repo repository.SessionRepository
	now  func() time.Time
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(repo repository.SessionRepository) *SummaryHandler {
	return &SummaryHandler{
		repo: repo,
		now:  time.Now,
	}
}

// WithClock overrides the wall clock, used by tests.
func (h *SummaryHandler) WithClock(now func() time.Time) *SummaryHandler {
	h.now = now
	return h
}

// GetDaily returns the caller's rollup for one day (today by default)
// GET /api/v1/me/summary/daily?day=2026-08-31
func (h *SummaryHandler) GetDaily(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	h.respondDaily(c, userID)
}

// GetAthleteDaily returns an athlete's rollup for one day, for coaches
// GET /api/v1/athletes/:id/summary/daily?day=2026-08-31
func (h *SummaryHandler) GetAthleteDaily(c *gin.Context) {
	role, err := middleware.GetUserRole(c)
	if err != nil || role != models.RoleCoach {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "Only coaches can review other athletes",
		})
		return
	}

	athleteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_user_id",
			"message": "Athlete ID must be a valid UUID",
		})
		return
	}

	h.respondDaily(c, athleteID)
}

// DailyRangeResponse represents consecutive daily rollups over a day span.
// Days without a stored rollup are absent from Days.
type DailyRangeResponse struct {
	UserID string                `json:"userId"`
	Start  string                `json:"start"`
	End    string                `json:"end"`
	Days   []models.DailySummary `json:"days"`
	Count  int                   `json:"count"`
}

// GetDailyRange returns the caller's rollups over a day span, the trailing
// week by default; the progress graphs feed on this
// GET /api/v1/me/summary/range?start=2026-08-25&end=2026-08-31
func (h *SummaryHandler) GetDailyRange(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	h.respondRange(c, userID)
}

// GetAthleteDailyRange returns an athlete's rollups over a day span, for
// coaches
// GET /api/v1/athletes/:id/summary/range?start=2026-08-25&end=2026-08-31
func (h *SummaryHandler) GetAthleteDailyRange(c *gin.Context) {
	role, err := middleware.GetUserRole(c)
	if err != nil || role != models.RoleCoach {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "Only coaches can review other athletes",
		})
		return
	}

	athleteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_user_id",
			"message": "Athlete ID must be a valid UUID",
		})
		return
	}

	h.respondRange(c, athleteID)
}

func (h *SummaryHandler) respondRange(c *gin.Context, userID uuid.UUID) {
	end := c.Query("end")
	if end == "" {
		end = h.now().UTC().Format(dayLayout)
	}
	endT, err := time.Parse(dayLayout, end)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_day",
			"message": "End day must be formatted as YYYY-MM-DD",
		})
		return
	}

	start := c.Query("start")
	startT := endT.AddDate(0, 0, -6)
	if start == "" {
		start = startT.Format(dayLayout)
	} else if startT, err = time.Parse(dayLayout, start); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_day",
			"message": "Start day must be formatted as YYYY-MM-DD",
		})
		return
	}
	if startT.After(endT) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_range",
			"message": "Start day must not be after end day",
		})
		return
	}

	days, err := h.repo.ListDailySummaries(c.Request.Context(), userID, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to retrieve daily summaries",
		})
		return
	}
	if days == nil {
		days = []models.DailySummary{}
	}

	c.JSON(http.StatusOK, DailyRangeResponse{
		UserID: userID.String(),
		Start:  start,
		End:    end,
		Days:   days,
		Count:  len(days),
	})
}

func (h *SummaryHandler) respondDaily(c *gin.Context, userID uuid.UUID) {
	day := c.Query("day")
	if day == "" {
		day = h.now().UTC().Format(dayLayout)
	} else if _, err := time.Parse(dayLayout, day); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_day",
			"message": "Day must be formatted as YYYY-MM-DD",
		})
		return
	}

	summary, err := h.repo.GetDailySummary(c.Request.Context(), userID, day)
	if err != nil {
		if errors.Is(err, repository.ErrDailySummaryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "summary_not_found",
				"message": "No rollup stored for that day",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to retrieve daily summary",
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}
