package service

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/arnavshah/rotation-api-go/pkg/models"
	"github.com/arnavshah/rotation-api-go/pkg/scheduler"
)

// ValidationReport describes whether a request would plan and what would be ignored
type ValidationReport struct {
	Valid    bool           `json:"valid"`
	Errors   []string       `json:"errors,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Stats    map[string]int `json:"stats"`
}

// Validate dry-runs a request without recording it. Unknown ids get a
// "did you mean" hint from the closest roster id.
func (p *Planner) Validate(req models.PlanRequest) ValidationReport {
	report := ValidationReport{Stats: map[string]int{
		"roster":    len(req.Roster),
		"overrides": len(req.Overrides),
		"seats":     p.catalog.SeatCount(),
	}}

	if len(req.Roster) == 0 {
		report.Errors = append(report.Errors, "at least one person is required")
		return report
	}
	roster, err := ParseRoster(req.Roster)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report
	}
	ids := make([]string, len(roster))
	known := make(map[string]bool, len(roster))
	for i, person := range roster {
		ids[i] = person.ID
		known[person.ID] = true
	}

	for _, id := range req.PresentToday {
		if id = strings.TrimSpace(id); !known[id] {
			report.Warnings = append(report.Warnings, unknownID("present_today", id, ids))
		}
	}
	for _, o := range req.Overrides {
		if !o.Track.Valid() {
			report.Warnings = append(report.Warnings, fmt.Sprintf("override names unknown track %q", o.Track))
		} else if !p.catalog.HasSlot(o.Track, o.Start, o.End) {
			report.Warnings = append(report.Warnings, fmt.Sprintf("override slot %s-%s is not in the %s catalog", o.Start, o.End, o.Track))
		}
		for _, id := range o.PersonIDs {
			if id = strings.TrimSpace(id); !known[id] {
				report.Warnings = append(report.Warnings, unknownID("override", id, ids))
			}
		}
	}

	policy, err := scheduler.ParsePolicy(firstNonEmpty(req.Policy, p.defaults.Policy))
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report
	}
	if _, err := p.runDate(req.Date); err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report
	}
	plan, err := p.newScheduler(policy, req.Seed).Plan(scheduler.Input{
		Roster:       roster,
		PresentToday: req.PresentToday,
		Overrides:    req.Overrides,
		Ledger:       req.Ledger,
	})
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report
	}
	for _, tp := range plan.Tracks {
		if tp.Seats > 1 && len(tp.Pool) < tp.Seats {
			report.Warnings = append(report.Warnings, fmt.Sprintf("track %s has a single eligible person; pairs will repeat them", tp.Track))
		}
	}
	report.Stats["eligible"] = len(plan.Ranking)
	report.Valid = true
	return report
}

func unknownID(field, id string, ids []string) string {
	msg := fmt.Sprintf("%s id %q is not in the roster and will be ignored", field, id)
	if s := closest(id, ids); s != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", s)
	}
	return msg
}

// closest returns the roster id nearest to id, if it is close enough to be a typo
func closest(id string, ids []string) string {
	best, bestDist := "", -1
	for _, candidate := range ids {
		d := levenshtein.ComputeDistance(id, candidate)
		if bestDist < 0 || d < bestDist {
			best, bestDist = candidate, d
		}
	}
	limit := max(2, len([]rune(id))/3)
	if bestDist < 0 || bestDist > limit {
		return ""
	}
	return best
}
