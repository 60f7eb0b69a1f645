package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/rotation-api-go/pkg/database"
	"github.com/arnavshah/rotation-api-go/pkg/models"
	"github.com/arnavshah/rotation-api-go/pkg/service"
)

// PlanJSON handles planning requests with a JSON body
func (h *Handler) PlanJSON(c *gin.Context) {
	var req models.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.Planner.Plan(req)
	if err != nil {
		h.planError(c, err)
		return
	}
	h.recordPlan(c, res.Plan)
	c.JSON(http.StatusOK, res.Response)
}

func (h *Handler) recordPlan(c *gin.Context, plan *models.Plan) {
	slots := 0
	for _, tp := range plan.Tracks {
		slots += len(tp.Assignments)
	}
	h.RecordUsage(c, slots, len(plan.AssignedIDs()))
}

// PlanCSV handles CSV file uploads for planning
func (h *Handler) PlanCSV(c *gin.Context) {
	rosterFile, _ := c.FormFile("roster_file")
	overridesFile, _ := c.FormFile("overrides_file")
	if rosterFile == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roster_file is required"})
		return
	}

	rf, err := rosterFile.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open roster file"})
		return
	}
	defer rf.Close()

	req := models.PlanRequest{
		Policy: c.PostForm("policy"),
		Date:   c.PostForm("date"),
	}
	req.Roster, req.PresentToday, err = parseRosterCSV(rf)
	if err != nil {
		h.planError(c, err)
		return
	}

	if overridesFile != nil {
		of, err := overridesFile.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open overrides file"})
			return
		}
		defer of.Close()
		if req.Overrides, err = parseOverridesCSV(of); err != nil {
			h.planError(c, err)
			return
		}
	}

	res, err := h.Planner.Plan(req)
	if err != nil {
		h.planError(c, err)
		return
	}
	h.recordPlan(c, res.Plan)

	var out strings.Builder
	if err := writePlanCSV(&out, res.Plan); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write plan"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"plan_id": res.Response.PlanID,
		"csv":     out.String(),
		"present": res.Response.Present,
	})
}

// GetCatalog returns the configured slot catalog
func (h *Handler) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, h.Planner.Catalog())
}

// GetRoster returns the stored roster
func (h *Handler) GetRoster(c *gin.Context) {
	roster, err := database.LoadRoster(h.DB)
	if err != nil {
		h.Log.Errorf("load roster: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load roster"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"roster": service.PersonInputs(roster)})
}

// PutRoster replaces the stored roster
func (h *Handler) PutRoster(c *gin.Context) {
	var req struct {
		Roster []models.PersonInput `json:"roster"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	roster, err := service.ParseRoster(req.Roster)
	if err != nil {
		h.planError(c, err)
		return
	}
	if err := database.SaveRoster(h.DB, roster); err != nil {
		h.Log.Errorf("save roster: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save roster"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Roster saved", "count": len(roster)})
}

// PlanStoredRoster plans from the stored roster and writes the updated recency
// back, so consecutive calls rotate without the client keeping state.
func (h *Handler) PlanStoredRoster(c *gin.Context) {
	var req models.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roster, err := database.LoadRoster(h.DB)
	if err != nil {
		h.Log.Errorf("load roster: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load roster"})
		return
	}
	if len(roster) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no stored roster"})
		return
	}
	req.Roster = service.PersonInputs(roster)
	if req.Ledger == nil {
		req.Ledger = make(models.Ledger)
		for _, p := range roster {
			if p.LastSlot != "" {
				req.Ledger[p.ID] = p.LastSlot
			}
		}
	}

	res, err := h.Planner.Plan(req)
	if err != nil {
		h.planError(c, err)
		return
	}
	if err := database.SaveRoster(h.DB, res.Roster); err != nil {
		h.Log.Errorf("save roster: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save roster"})
		return
	}
	h.recordPlan(c, res.Plan)
	c.JSON(http.StatusOK, res.Response)
}
