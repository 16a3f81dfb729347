package handlers

import (
	"net/http"

	"github.com/arnavshah/crew-scheduler-api/pkg/models"
	"github.com/arnavshah/crew-scheduler-api/pkg/scheduler"
	"github.com/gin-gonic/gin"
)

// ValidateInput checks a resolve payload without classifying it
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.ResolveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if input.Mission.ID == "" {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "mission.id is required"})
		return
	}

	if err := scheduler.ValidateWindow(input.Mission.Window()); err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "mission: " + err.Error()})
		return
	}

	if len(input.Candidates) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "At least one candidate is required",
		})
		return
	}

	// Check for duplicate IDs
	techIDs := make(map[string]bool)
	for _, cand := range input.Candidates {
		id := cand.Technician.ID
		if id == "" {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Candidate without technician id"})
			return
		}
		if techIDs[id] {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Duplicate technician ID: " + id})
			return
		}
		techIDs[id] = true
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"mission_id":      input.Mission.ID,
			"candidate_count": len(input.Candidates),
		},
	})
}
