package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/rotation-api-go/pkg/database"
)

// RecordUsage adds the request to the caller's daily usage. Failures are logged,
// never surfaced to the caller.
func (h *Handler) RecordUsage(c *gin.Context, slots, personnel int) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)
	if err := database.RecordUsage(h.DB, apiKey.ID, slots, personnel); err != nil {
		h.Log.Warnf("record usage for key %d: %v", apiKey.ID, err)
	}
}

// GetUsage returns usage stats for a key
func (h *Handler) GetUsage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key id"})
		return
	}
	usage, err := database.RecentUsage(h.DB, uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}

// GetMyUsage returns usage stats for the authenticated API key
func (h *Handler) GetMyUsage(c *gin.Context) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API Key context missing"})
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	usage, err := database.RecentUsage(h.DB, apiKey.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}

	// Calculate totals
	var totalRequests, totalSlots, totalPersonnel int64
	for _, u := range usage {
		totalRequests += int64(u.RequestCount)
		totalSlots += int64(u.TotalSlots)
		totalPersonnel += int64(u.TotalPersonnel)
	}

	c.JSON(http.StatusOK, gin.H{
		"key_name":      apiKey.Name,
		"rate_limit":    apiKey.RateLimit,
		"usage_history": usage,
		"totals": gin.H{
			"requests":  totalRequests,
			"slots":     totalSlots,
			"personnel": totalPersonnel,
		},
	})
}
