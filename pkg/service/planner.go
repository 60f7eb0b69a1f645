package service

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arnavshah/rotation-api-go/pkg/config"
	"github.com/arnavshah/rotation-api-go/pkg/logger"
	"github.com/arnavshah/rotation-api-go/pkg/metrics"
	"github.com/arnavshah/rotation-api-go/pkg/models"
	"github.com/arnavshah/rotation-api-go/pkg/scheduler"
)

// Planner turns planning requests into scheduler runs. It is safe for concurrent
// use: every request gets its own scheduler and random source.
type Planner struct {
	catalog  *scheduler.Catalog
	defaults config.SchedulingConfig
	recorder metrics.Recorder
	log      logger.Logger
	now      func() time.Time
	newID    func() string
}

// NewPlanner validates the scheduling configuration and creates a Planner
func NewPlanner(cfg config.SchedulingConfig, recorder metrics.Recorder, log logger.Logger) (*Planner, error) {
	catalog := cfg.ShiftCatalog()
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Planner{
		catalog:  catalog,
		defaults: cfg,
		recorder: recorder,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}, nil
}

// Catalog returns the active slot catalog
func (p *Planner) Catalog() *scheduler.Catalog {
	return p.catalog
}

// Result is a finished planning run
type Result struct {
	Plan     *models.Plan
	Response models.PlanResponse
	// Roster is the input roster updated with this run's assignments
	Roster []models.Person
}

// Plan runs the scheduler for one request
func (p *Planner) Plan(req models.PlanRequest) (*Result, error) {
	policy, err := scheduler.ParsePolicy(firstNonEmpty(req.Policy, p.defaults.Policy))
	if err != nil {
		p.recorder.PlanFailed("unknown", "invalid_input")
		return nil, err
	}
	roster, err := ParseRoster(req.Roster)
	if err != nil {
		p.recorder.PlanFailed(string(policy), "invalid_input")
		return nil, err
	}
	date, err := p.runDate(req.Date)
	if err != nil {
		p.recorder.PlanFailed(string(policy), "invalid_input")
		return nil, err
	}

	start := time.Now()
	plan, err := p.newScheduler(policy, req.Seed).Plan(scheduler.Input{
		Roster:       roster,
		PresentToday: req.PresentToday,
		Overrides:    req.Overrides,
		Ledger:       req.Ledger,
	})
	if err != nil {
		p.recorder.PlanFailed(string(policy), failureReason(err))
		p.log.Warnf("plan rejected: %v", err)
		return nil, err
	}
	p.recorder.PlanGenerated(string(policy), plan, time.Since(start))

	resp := BuildResponse(p.newID(), policy, plan)
	resp.Roster = scheduler.ApplyPlan(roster, plan, date)
	p.log.Infow("plan generated", map[string]any{
		"plan_id":           resp.PlanID,
		"policy":            string(policy),
		"roster":            len(roster),
		"ranked":            len(plan.Ranking),
		"present":           len(plan.Present),
		"ignored_overrides": len(plan.IgnoredOverrides),
	})
	if len(plan.IgnoredOverrides) > 0 {
		p.log.Debugw("overrides ignored", map[string]any{"ids": plan.IgnoredOverrides})
	}
	return &Result{Plan: plan, Response: resp, Roster: resp.Roster}, nil
}

func (p *Planner) newScheduler(policy scheduler.Policy, seed *int64) *scheduler.Scheduler {
	opts := scheduler.Options{
		Policy:            policy,
		PresentTarget:     p.defaults.PresentTarget,
		RestAfterOverride: p.defaults.RestAfterOverride,
	}
	if policy == scheduler.PolicyRandom && seed != nil {
		opts.Rand = rand.New(rand.NewSource(*seed))
	}
	return scheduler.NewScheduler(p.catalog, opts)
}

func (p *Planner) runDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return p.now().UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", scheduler.ErrInvalidInput, s)
	}
	return t, nil
}

// ParseRoster converts client rows into roster members
func ParseRoster(rows []models.PersonInput) ([]models.Person, error) {
	roster := make([]models.Person, 0, len(rows))
	for _, r := range rows {
		key, err := models.ParseRecencyKey(r.LastDuty)
		if err != nil {
			return nil, fmt.Errorf("%w: person %s: %v", scheduler.ErrInvalidInput, r.ID, err)
		}
		roster = append(roster, models.Person{ID: strings.TrimSpace(r.ID), LastDuty: key, LastSlot: r.LastSlot})
	}
	if err := scheduler.ValidateRoster(roster); err != nil {
		return nil, err
	}
	return roster, nil
}

// PersonInputs converts roster members back into client rows
func PersonInputs(roster []models.Person) []models.PersonInput {
	out := make([]models.PersonInput, len(roster))
	for i, p := range roster {
		out[i] = models.PersonInput{ID: p.ID, LastDuty: p.LastDuty.String(), LastSlot: p.LastSlot}
	}
	return out
}

// BuildResponse shapes a plan for display
func BuildResponse(id string, policy scheduler.Policy, plan *models.Plan) models.PlanResponse {
	resp := models.PlanResponse{
		PlanID:           id,
		Policy:           string(policy),
		Day:              []models.SingleAssignment{},
		Floor:            []models.SingleAssignment{},
		Night:            []models.PairAssignment{},
		Present:          plan.Present,
		Ledger:           plan.Ledger,
		Ranking:          plan.Ranking,
		Fairness:         scheduler.FairnessScores(plan),
		IgnoredOverrides: plan.IgnoredOverrides,
	}
	for _, tp := range plan.Tracks {
		for _, a := range tp.Assignments {
			switch tp.Track {
			case models.TrackDay:
				resp.Day = append(resp.Day, models.SingleAssignment{Slot: a.Slot.Label(), PersonID: a.PersonIDs[0]})
			case models.TrackFloor:
				resp.Floor = append(resp.Floor, models.SingleAssignment{Slot: a.Slot.Label(), PersonID: a.PersonIDs[0]})
			case models.TrackNight:
				resp.Night = append(resp.Night, models.PairAssignment{Slot: a.Slot.Label(), PersonIDs: a.PersonIDs, Degraded: a.Degraded})
			}
		}
	}
	return resp
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, scheduler.ErrEmptyPool):
		return "empty_pool"
	case errors.Is(err, scheduler.ErrInvalidInput):
		return "invalid_input"
	}
	return "error"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
