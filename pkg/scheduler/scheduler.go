package scheduler

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/arnavshah/rotation-api-go/pkg/models"
)

// Policy selects how people are drawn for each slot
type Policy string

const (
	// PolicyFIFO draws from per-track rotation queues. Deterministic for a given
	// roster order, overrides and ledger.
	PolicyFIFO Policy = "fifo-fairness"
	// PolicyRandom draws each slot from a shuffled copy of the pool. Frequency
	// skew is unbounded and runs are not reproducible without a fixed seed.
	PolicyRandom Policy = "random-draw"
)

// DefaultPresentTarget is the minimum size of the present list
const DefaultPresentTarget = 10

// ParsePolicy maps the textual policy name; empty means PolicyFIFO
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyFIFO:
		return PolicyFIFO, nil
	case PolicyRandom:
		return PolicyRandom, nil
	}
	return "", fmt.Errorf("%w: unknown policy %q", ErrInvalidInput, s)
}

// Options configures a Scheduler
type Options struct {
	Policy            Policy
	PresentTarget     int
	RestAfterOverride bool
	// Rand is only used by PolicyRandom. Nil seeds a source from the clock.
	Rand Shuffler
}

// Input is one planning invocation. Roster and Ledger are owned by the caller and
// never modified.
type Input struct {
	Roster       []models.Person
	PresentToday []string
	Overrides    []models.Override
	Ledger       models.Ledger
}

// Scheduler assigns personnel to catalog slots. It keeps no state between calls
// to Plan apart from the random source of PolicyRandom.
//
// Tracks draw from independent queues seeded with the same ranking, so the same
// person may hold overlapping windows on two tracks. Only fairness within a track
// is guaranteed.
type Scheduler struct {
	catalog *Catalog
	opts    Options
}

// NewScheduler creates a new scheduler instance. A nil catalog uses DefaultCatalog.
func NewScheduler(catalog *Catalog, opts Options) *Scheduler {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if opts.Policy == "" {
		opts.Policy = PolicyFIFO
	}
	if opts.PresentTarget <= 0 {
		opts.PresentTarget = DefaultPresentTarget
	}
	if opts.Policy == PolicyRandom && opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Scheduler{catalog: catalog, opts: opts}
}

// Catalog returns the slot catalog in use
func (s *Scheduler) Catalog() *Catalog {
	return s.catalog
}

// Plan produces the assignments, present list and updated ledger for one run
func (s *Scheduler) Plan(in Input) (*models.Plan, error) {
	if err := ValidateRoster(in.Roster); err != nil {
		return nil, err
	}

	present := FilterPresent(in.Roster, in.PresentToday)
	ranking := Rank(present, in.Overrides)

	// every pool is checked before anything is drawn
	pools := make([][]models.Person, len(s.catalog.Tracks))
	for i, spec := range s.catalog.Tracks {
		pools[i] = s.pool(spec, ranking.People)
		if len(pools[i]) == 0 {
			return nil, &ConfigurationError{Track: spec.Track}
		}
	}

	plan := &models.Plan{
		Tracks:           make([]models.TrackPlan, 0, len(s.catalog.Tracks)),
		Ranking:          ranking.IDs(),
		IgnoredOverrides: ranking.Ignored,
	}
	for i, spec := range s.catalog.Tracks {
		d := s.drawer(pools[i])
		tp := models.TrackPlan{
			Track:       spec.Track,
			Seats:       spec.Seats,
			Pool:        personIDs(pools[i]),
			Assignments: make([]models.Assignment, 0, len(spec.Slots)),
		}
		for _, slot := range spec.ShiftSlots() {
			people, degraded := d.Draw(spec.Seats)
			tp.Assignments = append(tp.Assignments, models.Assignment{
				Slot:      slot,
				PersonIDs: personIDs(people),
				Degraded:  degraded,
			})
		}
		plan.Tracks = append(plan.Tracks, tp)
	}

	plan.Present = Presence(personIDs(present), plan.AssignedIDs(), s.opts.PresentTarget)
	plan.Ledger = UpdateLedger(in.Ledger, plan.Tracks)
	return plan, nil
}

func (s *Scheduler) pool(spec TrackSpec, ranked []models.Person) []models.Person {
	if !spec.Rest || !s.opts.RestAfterOverride {
		return ranked
	}
	out := make([]models.Person, 0, len(ranked))
	for _, p := range ranked {
		if !p.LastDuty.IsOverride() {
			out = append(out, p)
		}
	}
	return out
}

func (s *Scheduler) drawer(pool []models.Person) drawer {
	if s.opts.Policy == PolicyRandom {
		return &randomDraw{pool: pool, rng: s.opts.Rand}
	}
	return NewRotationQueue(pool)
}

// ValidateRoster rejects empty and duplicated ids
func ValidateRoster(roster []models.Person) error {
	seen := make(map[string]bool, len(roster))
	for i, p := range roster {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("%w: roster entry %d has no id", ErrInvalidInput, i)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate roster id %q", ErrInvalidInput, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}
