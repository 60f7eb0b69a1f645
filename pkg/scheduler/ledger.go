package scheduler

import (
	"time"

	"github.com/arnavshah/rotation-api-go/pkg/models"
)

// UpdateLedger copies prior and records the slot label of every assignment.
// Tracks are applied in models.TrackOrder, so a person assigned on several
// tracks ends with the label of the last one (night over floor over day).
func UpdateLedger(prior models.Ledger, tracks []models.TrackPlan) models.Ledger {
	ledger := prior.Clone()
	for _, t := range models.TrackOrder {
		for _, tp := range tracks {
			if tp.Track != t {
				continue
			}
			for _, a := range tp.Assignments {
				for _, id := range a.PersonIDs {
					ledger[id] = a.Slot.Label()
				}
			}
		}
	}
	return ledger
}

// ApplyPlan returns the roster snapshot for the next run: every person assigned
// in plan gets date as last duty and their ledger label as last slot.
func ApplyPlan(roster []models.Person, plan *models.Plan, date time.Time) []models.Person {
	assigned := make(map[string]bool)
	for _, id := range plan.AssignedIDs() {
		assigned[id] = true
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	out := make([]models.Person, len(roster))
	for i, p := range roster {
		if assigned[p.ID] {
			p.LastDuty = models.DateKey(day)
			p.LastSlot = plan.Ledger[p.ID]
		}
		out[i] = p
	}
	return out
}
