package models

// PersonInput is a roster row as sent by clients
type PersonInput struct {
	ID       string `json:"id" yaml:"id"`
	LastDuty string `json:"last_duty" yaml:"last_duty"`
	LastSlot string `json:"last_slot,omitempty" yaml:"last_slot"`
}

// PlanRequest is the body of the planning endpoints
type PlanRequest struct {
	Roster       []PersonInput `json:"roster"`
	PresentToday []string      `json:"present_today,omitempty"`
	Overrides    []Override    `json:"overrides,omitempty"`
	Ledger       Ledger        `json:"ledger,omitempty"`
	Policy       string        `json:"policy,omitempty"`
	Seed         *int64        `json:"seed,omitempty"`
	Date         string        `json:"date,omitempty"`
}

// SingleAssignment is a display row of a one-seat track
type SingleAssignment struct {
	Slot     string `json:"slot"`
	PersonID string `json:"person_id"`
}

// PairAssignment is a display row of the paired night track
type PairAssignment struct {
	Slot      string   `json:"slot"`
	PersonIDs []string `json:"person_ids"`
	Degraded  bool     `json:"degraded,omitempty"`
}

// PlanResponse is the data structure for the planning result
type PlanResponse struct {
	PlanID           string             `json:"plan_id"`
	Policy           string             `json:"policy"`
	Day              []SingleAssignment `json:"day"`
	Floor            []SingleAssignment `json:"floor"`
	Night            []PairAssignment   `json:"night"`
	Present          []string           `json:"present"`
	Ledger           Ledger             `json:"ledger"`
	Ranking          []string           `json:"ranking"`
	Fairness         map[Track]float64  `json:"fairness"`
	IgnoredOverrides []string           `json:"ignored_overrides,omitempty"`
	Roster           []Person           `json:"roster,omitempty"`
}
