package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/arnavshah/crew-scheduler-api/pkg/database"
	"github.com/gin-gonic/gin"
)

const (
	defaultUsageDays = 30
	maxUsageDays     = 90
)

type usageDay struct {
	Date                 string  `json:"date"`
	Requests             int     `json:"requests"`
	Missions             int     `json:"missions"`
	Candidates           int     `json:"candidates"`
	CandidatesPerRequest float64 `json:"candidates_per_request"`
}

type usageTotals struct {
	Requests   int64 `json:"requests"`
	Missions   int64 `json:"missions"`
	Candidates int64 `json:"candidates"`
}

type usageReport struct {
	KeyID     uint        `json:"key_id"`
	KeyName   string      `json:"key_name,omitempty"`
	RateLimit int         `json:"rate_limit,omitempty"`
	Since     string      `json:"since"`
	Days      []usageDay  `json:"days"`
	Totals    usageTotals `json:"totals"`
	// Remaining is today's request budget left under the key's rate limit.
	Remaining *int `json:"remaining_today,omitempty"`
}

// usageDays reads ?days, clamped to [1, maxUsageDays].
func usageDays(c *gin.Context) int {
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(defaultUsageDays)))
	if err != nil || days < 1 {
		return defaultUsageDays
	}
	if days > maxUsageDays {
		return maxUsageDays
	}
	return days
}

// usageFor summarises the daily usage rows of one key, newest day first.
func (h *Handler) usageFor(keyID uint, days int) (usageReport, error) {
	since := time.Now().AddDate(0, 0, -(days - 1)).Format("2006-01-02")
	var rows []database.APIUsage
	if err := h.DB.Where("key_id = ? AND date >= ?", keyID, since).Order("date desc").Find(&rows).Error; err != nil {
		return usageReport{}, err
	}

	report := usageReport{KeyID: keyID, Since: since, Days: make([]usageDay, 0, len(rows))}
	for _, u := range rows {
		d := usageDay{Date: u.Date, Requests: u.RequestCount, Missions: u.TotalMissions, Candidates: u.TotalCandidates}
		if u.RequestCount > 0 {
			d.CandidatesPerRequest = float64(u.TotalCandidates) / float64(u.RequestCount)
		}
		report.Days = append(report.Days, d)
		report.Totals.Requests += int64(u.RequestCount)
		report.Totals.Missions += int64(u.TotalMissions)
		report.Totals.Candidates += int64(u.TotalCandidates)
	}
	return report, nil
}

// GetMyUsage returns usage stats for the authenticated API key
func (h *Handler) GetMyUsage(c *gin.Context) {
	apiKeyRaw, exists := c.Get(ctxAPIKey)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API Key context missing"})
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	report, err := h.usageFor(apiKey.ID, usageDays(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	report.KeyName = apiKey.Name
	report.RateLimit = apiKey.RateLimit

	today := time.Now().Format("2006-01-02")
	remaining := apiKey.RateLimit
	if len(report.Days) > 0 && report.Days[0].Date == today {
		remaining -= report.Days[0].Requests
	}
	if remaining < 0 {
		remaining = 0
	}
	report.Remaining = &remaining

	c.JSON(http.StatusOK, report)
}

// GetUsage returns usage stats for a key
func (h *Handler) GetUsage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key id"})
		return
	}

	var apiKey database.APIKey
	if err := h.DB.First(&apiKey, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	report, err := h.usageFor(apiKey.ID, usageDays(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	report.KeyName = apiKey.Name
	report.RateLimit = apiKey.RateLimit
	c.JSON(http.StatusOK, report)
}
