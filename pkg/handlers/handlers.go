package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/arnavshah/crew-scheduler-api/pkg/auth"
	"github.com/arnavshah/crew-scheduler-api/pkg/database"
	"github.com/arnavshah/crew-scheduler-api/pkg/logger"
	"github.com/arnavshah/crew-scheduler-api/pkg/models"
	"github.com/arnavshah/crew-scheduler-api/pkg/scheduler"
	"github.com/arnavshah/crew-scheduler-api/pkg/staffing"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ctxClaims = "claims"
	ctxAPIKey = "apiKey"
	ctxUserID = "userID"
)

// Handler contains dependencies for the route handlers
type Handler struct {
	DB      *gorm.DB
	Service *staffing.Service
	Auth    *auth.Manager
	Log     logger.Logger
}

func bearer(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	if len(token) > 7 && strings.EqualFold(token[:7], "Bearer ") {
		token = token[7:]
	}
	return token
}

// AuthMiddleware verifies the JWT token and requires one of roles
func (h *Handler) AuthMiddleware(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		allowed := len(roles) == 0
		for _, r := range roles {
			if claims.Role == r {
				allowed = true
				break
			}
		}
		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
			c.Abort()
			return
		}

		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// APIKeyMiddleware verifies the API key for integration routes using HMAC
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearer(c)
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			c.Abort()
			return
		}

		userID, err := h.Auth.VerifyHMACKey(key)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			c.Abort()
			return
		}

		apiKey, err := auth.TouchAPIKey(h.DB, key, userID)
		if err != nil {
			h.Log.Errorf("api key lookup failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load API key"})
			c.Abort()
			return
		}

		c.Set(ctxAPIKey, apiKey)
		c.Set(ctxUserID, userID)
		c.Next()
	}
}

func claimsOf(c *gin.Context) *auth.Claims {
	raw, ok := c.Get(ctxClaims)
	if !ok {
		return nil
	}
	claims, _ := raw.(*auth.Claims)
	return claims
}

// respondError maps service errors to HTTP responses
func (h *Handler) respondError(c *gin.Context, err error) {
	var vErr *staffing.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": vErr.FieldErrors})
		return
	}
	var inel *scheduler.IneligibleError
	if errors.As(err, &inel) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "technicians not eligible", "ineligible": inel.Reasons})
		return
	}

	kind := staffing.ErrorKind(err)
	switch kind {
	case "not_found":
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case "forbidden":
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case "invalid_transition", "conflict":
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "kind": kind})
	case "invalid_credentials":
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	default:
		h.Log.Errorf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// Home returns the service banner
func (h *Handler) Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Crew Scheduler API",
		"version": "3.0.0",
	})
}

// Health pings the database
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Login handles admin and technician login. Admins log in with their
// username, technicians with their email address.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if user, err := auth.AuthenticateAdmin(h.DB, req.Username, req.Password); err == nil {
		h.issueToken(c, user.Username, auth.RoleAdmin, "")
		return
	}

	tech, err := h.Service.AuthenticateTechnician(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	h.issueToken(c, tech.Email, auth.RoleTechnician, tech.ID)
}

func (h *Handler) issueToken(c *gin.Context, username string, role auth.Role, technicianID string) {
	token, err := h.Auth.CreateToken(username, role, technicianID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer", "role": role})
}

// Resolve classifies an inline snapshot for API key holders
func (h *Handler) Resolve(c *gin.Context) {
	var input models.ResolveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.Service.Resolve(input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.RecordUsage(c, 1, len(input.Candidates))
	c.JSON(http.StatusOK, resp)
}

// RecordUsage records API usage in the database using an efficient upsert
func (h *Handler) RecordUsage(c *gin.Context, missionCount, candidateCount int) {
	apiKeyRaw, exists := c.Get(ctxAPIKey)
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	today := time.Now().Format("2006-01-02")

	// Single-query upsert, supported by both Postgres and SQLite
	err := h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":    gorm.Expr("request_count + ?", 1),
			"total_missions":   gorm.Expr("total_missions + ?", missionCount),
			"total_candidates": gorm.Expr("total_candidates + ?", candidateCount),
		}),
	}).Create(&database.APIUsage{
		KeyID:           apiKey.ID,
		Date:            today,
		RequestCount:    1,
		TotalMissions:   missionCount,
		TotalCandidates: candidateCount,
	}).Error
	if err != nil {
		h.Log.Warnf("usage not recorded for key %d: %v", apiKey.ID, err)
	}
}
