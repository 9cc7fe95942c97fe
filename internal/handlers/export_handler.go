package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/axisfit/axisfit-service/internal/export"
	"github.com/axisfit/axisfit-service/internal/middleware"
	"github.com/axisfit/axisfit-service/internal/models"
	"github.com/axisfit/axisfit-service/internal/repository"
)

// ExportHandler handles session data downloads.
type ExportHandler struct {
	repo repository.SessionRepository
}

// NewExportHandler creates a new export handler
func NewExportHandler(repo repository.SessionRepository) *ExportHandler {
	return &ExportHandler{repo: repo}
}

// ExportSessionCSV streams a session's raw annotated samples as a CSV
// attachment
// GET /api/v1/sessions/:id/export
func (h *ExportHandler) ExportSessionCSV(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_session_id",
			"message": "Session ID must be a valid UUID",
		})
		return
	}

	session, err := h.repo.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "session_not_found",
				"message": "Session not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to retrieve session",
		})
		return
	}

	if session.UserID != userID {
		role, _ := middleware.GetUserRole(c)
		if role != models.RoleCoach {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "You do not have access to this session",
			})
			return
		}
	}

	rows, err := h.repo.GetRawSamples(c.Request.Context(), sessionID, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to retrieve samples",
		})
		return
	}

	filename := export.Filename("axisfit_session", "csv", session.StartedAt, shortID(sessionID))
	c.Header("Content-Type", export.CSVContentType)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	if err := export.WriteSessionCSV(c.Writer, rows); err != nil {
		// Headers are already out; nothing sensible left to send.
		_ = c.Error(err)
	}
}

// shortID is the first UUID group, enough to tell exports apart.
func shortID(id uuid.UUID) string {
	s := id.String()
	return s[:8]
}
