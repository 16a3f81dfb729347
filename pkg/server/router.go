package server

import (
	"github.com/arnavshah/crew-scheduler-api/pkg/auth"
	"github.com/arnavshah/crew-scheduler-api/pkg/handlers"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter registers every route on a fresh gin engine.
func NewRouter(h *handlers.Handler, withMetrics bool) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/", h.Home)
	r.GET("/healthz", h.Health)
	if withMetrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	r.POST("/auth/login", h.Login)

	v1 := r.Group("/api/v1")

	// Admin Endpoints
	admin := v1.Group("")
	admin.Use(h.AuthMiddleware(auth.RoleAdmin))
	{
		admin.POST("/missions", h.CreateMission)
		admin.GET("/missions", h.ListMissions)
		admin.GET("/missions/:id", h.GetMission)
		admin.PUT("/missions/:id", h.UpdateMission)
		admin.DELETE("/missions/:id", h.DeleteMission)
		admin.GET("/missions/:id/candidates", h.Candidates)
		admin.POST("/missions/:id/proposals", h.Propose)
		admin.DELETE("/missions/:id/proposals", h.CancelPending)
		admin.GET("/missions/:id/completion", h.Completion)

		admin.POST("/technicians", h.CreateTechnician)
		admin.GET("/technicians", h.ListTechnicians)
		admin.PUT("/technicians/:id/validation", h.SetValidation)

		admin.GET("/billing", h.ListBillings)
		admin.GET("/billing/export", h.ExportBillings)
		admin.PUT("/billing/:id/paid", h.MarkBillingPaid)

		admin.GET("/reports/workload", h.Workload)

		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	// Technician Endpoints
	me := v1.Group("/me")
	me.Use(h.AuthMiddleware(auth.RoleTechnician))
	{
		me.GET("/availabilities", h.MyAvailabilities)
		me.POST("/availabilities", h.AddAvailability)
		me.DELETE("/availabilities/:id", h.RemoveAvailability)
		me.GET("/unavailabilities", h.MyUnavailabilities)
		me.POST("/unavailabilities", h.AddUnavailability)
		me.DELETE("/unavailabilities/:id", h.RemoveUnavailability)
		me.GET("/assignments", h.MyAssignments)
		me.POST("/assignments/:id/accept", h.Accept)
		me.POST("/assignments/:id/reject", h.Reject)
	}

	// Integration Endpoints
	api := v1.Group("")
	api.Use(h.APIKeyMiddleware())
	{
		api.POST("/resolve", h.Resolve)
		api.POST("/validate", h.ValidateInput)
		api.GET("/usage", h.GetMyUsage)
	}

	return r
}
