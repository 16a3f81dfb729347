package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/arnavshah/crew-scheduler-api/pkg/models"
	"github.com/arnavshah/crew-scheduler-api/pkg/staffing"
	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateMission(c *gin.Context) {
	var in staffing.MissionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.Service.CreateMission(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) ListMissions(c *gin.Context) {
	missions, err := h.Service.ListMissions(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"missions": missions})
}

func (h *Handler) GetMission(c *gin.Context) {
	m, err := h.Service.GetMission(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) UpdateMission(c *gin.Context) {
	var in staffing.MissionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.Service.UpdateMission(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteMission(c *gin.Context) {
	if err := h.Service.DeleteMission(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Mission deleted"})
}

// Candidates returns the resolver report for every technician. An explicit
// ?selected=a,b replaces the selection derived from stored proposals.
func (h *Handler) Candidates(c *gin.Context) {
	var selected []string
	if raw, ok := c.GetQuery("selected"); ok {
		selected = []string{}
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				selected = append(selected, id)
			}
		}
	}

	reports, err := h.Service.Candidates(c.Request.Context(), c.Param("id"), selected)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if c.Query("format") == "csv" {
		h.writeCandidatesCSV(c, c.Param("id"), reports)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mission_id": c.Param("id"), "candidates": reports})
}

func (h *Handler) writeCandidatesCSV(c *gin.Context, missionID string, reports []models.CandidateReport) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=candidates-%s.csv", missionID))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"technician_id", "name", "validated", "label", "existing_status", "selected", "selectable", "can_toggle", "conflicting_missions"})
	for _, r := range reports {
		existing := ""
		if r.ExistingStatus != nil {
			existing = string(*r.ExistingStatus)
		}
		_ = w.Write([]string{
			r.TechnicianID,
			r.Name,
			strconv.FormatBool(r.Validated),
			string(r.Label),
			existing,
			strconv.FormatBool(r.Selected),
			strconv.FormatBool(r.Selectable),
			strconv.FormatBool(r.CanToggle),
			strings.Join(r.ConflictingMissionIDs, ";"),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.Log.Warnf("candidate export for %s interrupted: %v", missionID, err)
	}
}

// Propose replaces the pending selection of a mission
func (h *Handler) Propose(c *gin.Context) {
	var req struct {
		TechnicianIDs []string `json:"technician_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.Service.Propose(c.Request.Context(), c.Param("id"), req.TechnicianIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) CancelPending(c *gin.Context) {
	out, err := h.Service.CancelPending(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Completion(c *gin.Context) {
	comp, err := h.Service.Completion(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comp)
}

// Workload reports accepted hours per technician over ?from&to
func (h *Handler) Workload(c *gin.Context) {
	report, err := h.Service.Workload(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
