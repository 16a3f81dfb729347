package handlers

import (
	"net/http"

	"github.com/arnavshah/crew-scheduler-api/pkg/staffing"
	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateTechnician(c *gin.Context) {
	var in staffing.TechnicianInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.Service.CreateTechnician(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) ListTechnicians(c *gin.Context) {
	techs, err := h.Service.ListTechnicians(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"technicians": techs})
}

// SetValidation toggles the validated flag used by mission completion
func (h *Handler) SetValidation(c *gin.Context) {
	var req struct {
		Validated *bool `json:"validated"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Validated == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validated is required"})
		return
	}
	t, err := h.Service.SetValidated(c.Request.Context(), c.Param("id"), *req.Validated)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// technicianID reads the technician bound to the JWT. AuthMiddleware only
// lets technician tokens with an ID through to /me routes.
func technicianID(c *gin.Context) string {
	if claims := claimsOf(c); claims != nil {
		return claims.TechnicianID
	}
	return ""
}

func (h *Handler) MyAvailabilities(c *gin.Context) {
	list, err := h.Service.ListAvailabilities(c.Request.Context(), technicianID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"availabilities": list})
}

func (h *Handler) AddAvailability(c *gin.Context) {
	var in staffing.WindowInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := h.Service.AddAvailability(c.Request.Context(), technicianID(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) RemoveAvailability(c *gin.Context) {
	if err := h.Service.RemoveAvailability(c.Request.Context(), technicianID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Availability removed"})
}

func (h *Handler) MyUnavailabilities(c *gin.Context) {
	list, err := h.Service.ListUnavailabilities(c.Request.Context(), technicianID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unavailabilities": list})
}

func (h *Handler) AddUnavailability(c *gin.Context) {
	var in staffing.WindowInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.Service.AddUnavailability(c.Request.Context(), technicianID(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) RemoveUnavailability(c *gin.Context) {
	if err := h.Service.RemoveUnavailability(c.Request.Context(), technicianID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unavailability removed"})
}

func (h *Handler) MyAssignments(c *gin.Context) {
	rows, err := h.Service.MyAssignments(c.Request.Context(), technicianID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": rows})
}

func (h *Handler) Accept(c *gin.Context) {
	out, err := h.Service.Accept(c.Request.Context(), technicianID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Reject(c *gin.Context) {
	out, err := h.Service.Reject(c.Request.Context(), technicianID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
