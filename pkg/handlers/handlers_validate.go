package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/rotation-api-go/pkg/models"
)

// ValidateInput dry-runs a planning request and reports problems
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.PlanRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, h.Planner.Validate(input))
}
