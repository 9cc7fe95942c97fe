package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/axisfit/axisfit-service/internal/middleware"
	"github.com/axisfit/axisfit-service/internal/models"
	"github.com/axisfit/axisfit-service/internal/posture"
	"github.com/axisfit/axisfit-service/internal/repository"
)

// ThresholdHandler handles per-user posture threshold overrides.
type ThresholdHandler struct {
	repo repository.SessionRepository
}

// NewThresholdHandler creates a new threshold handler
func NewThresholdHandler(repo repository.SessionRepository) *ThresholdHandler {
	return &ThresholdHandler{repo: repo}
}

// ThresholdsResponse represents the resolved thresholds for a mode/sport
// context along with the user's stored override.
type ThresholdsResponse struct {
	Mode      string               `json:"mode"`
	Sport     string               `json:"sport"`
	Effective posture.ThresholdSet `json:"effective"`
	Override  *posture.UserPatch   `json:"override,omitempty"`
}

// GetThresholds returns the thresholds that would apply in a mode/sport
// context, with the user's override merged on top
// GET /api/v1/me/thresholds?mode=desk&sport=gym
func (h *ThresholdHandler) GetThresholds(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	mode := c.DefaultQuery("mode", models.ModeDesk)
	if !models.ValidMode(mode) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_mode",
			"message": "Mode must be one of: desk, train",
		})
		return
	}
	sport := c.DefaultQuery("sport", models.SportGym)

	patch, err := h.repo.GetUserThresholds(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to retrieve thresholds",
		})
		return
	}

	c.JSON(http.StatusOK, ThresholdsResponse{
		Mode:      mode,
		Sport:     sport,
		Effective: posture.ForContext(mode, sport, patch),
		Override:  patch,
	})
}

// PutThresholds stores the user's threshold override after checking that
// the merged result stays well-formed in every mode and sport context
// PUT /api/v1/me/thresholds
func (h *ThresholdHandler) PutThresholds(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var patch posture.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body: " + err.Error(),
		})
		return
	}

	// The sport widening shifts the green boundaries before the override
	// merges on top, so a patch has to stay well-formed under every sport,
	// not just over the plain mode defaults.
	for _, mode := range []string{models.ModeDesk, models.ModeTrain} {
		for _, sport := range []string{models.SportGym, models.SportCrossfit} {
			if err := posture.ForContext(mode, sport, &patch).Validate(); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":   "invalid_thresholds",
					"message": err.Error(),
				})
				return
			}
		}
	}

	if err := h.repo.UpsertUserThresholds(c.Request.Context(), userID, &patch); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to store thresholds",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Thresholds updated",
	})
}
