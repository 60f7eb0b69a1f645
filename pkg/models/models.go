package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Track is one of the independently scheduled duty lines
type Track string

const (
	TrackDay   Track = "day"
	TrackFloor Track = "floor"
	TrackNight Track = "night"
)

// TrackOrder is the fixed processing order. The ledger relies on it: later tracks
// overwrite earlier ones for the same person.
var TrackOrder = []Track{TrackDay, TrackFloor, TrackNight}

// Valid reports whether t is a known track
func (t Track) Valid() bool {
	switch t {
	case TrackDay, TrackFloor, TrackNight:
		return true
	}
	return false
}

// RecencyKind separates real service dates from override markers
type RecencyKind int

const (
	RecencyNormal RecencyKind = iota
	RecencyOverride
)

// OverrideToken is the textual form of an override recency key
const OverrideToken = "override"

// RecencyKey orders personnel by how recently they served. An override key sorts
// after every dated key; the zero key (never served) sorts first.
type RecencyKey struct {
	Kind RecencyKind
	At   time.Time
}

// OverrideKey returns the key meaning "served in the previous cycle"
func OverrideKey() RecencyKey {
	return RecencyKey{Kind: RecencyOverride}
}

// DateKey returns a normal key for the given service date
func DateKey(t time.Time) RecencyKey {
	return RecencyKey{Kind: RecencyNormal, At: t}
}

// Compare returns -1, 0 or +1
func (k RecencyKey) Compare(o RecencyKey) int {
	if k.Kind != o.Kind {
		if k.Kind < o.Kind {
			return -1
		}
		return 1
	}
	return k.At.Compare(o.At)
}

// IsOverride reports whether the key is the override marker
func (k RecencyKey) IsOverride() bool {
	return k.Kind == RecencyOverride
}

func (k RecencyKey) String() string {
	switch {
	case k.Kind == RecencyOverride:
		return OverrideToken
	case k.At.IsZero():
		return ""
	default:
		return k.At.Format(time.DateOnly)
	}
}

// ParseRecencyKey accepts an ISO date, an RFC 3339 timestamp, the override token or
// an empty string (never served).
func ParseRecencyKey(s string) (RecencyKey, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return RecencyKey{}, nil
	case strings.EqualFold(s, OverrideToken):
		return OverrideKey(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return DateKey(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateKey(t.UTC()), nil
	}
	return RecencyKey{}, fmt.Errorf("invalid recency key %q", s)
}

func (k RecencyKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *RecencyKey) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseRecencyKey(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Person is a roster member
type Person struct {
	ID       string     `json:"id"`
	LastDuty RecencyKey `json:"last_duty"`
	LastSlot string     `json:"last_slot,omitempty"`
}

// ShiftSlot is a fixed time-of-day window on one track. Start and End are HH:MM;
// night slots may wrap past midnight.
type ShiftSlot struct {
	Track Track  `json:"track"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Label is the ledger form of the slot
func (s ShiftSlot) Label() string {
	return s.Start + "-" + s.End
}

// Assignment fills one slot. Degraded marks a paired slot held twice by the same
// person because the pool had a single member.
type Assignment struct {
	Slot      ShiftSlot `json:"slot"`
	PersonIDs []string  `json:"person_ids"`
	Degraded  bool      `json:"degraded,omitempty"`
}

// TrackPlan is the ordered assignments of one track
type TrackPlan struct {
	Track       Track        `json:"track"`
	Seats       int          `json:"seats"`
	Pool        []string     `json:"pool"`
	Assignments []Assignment `json:"assignments"`
}

// Ledger maps a person to the label of their most recently assigned slot
type Ledger map[string]string

// Clone returns a copy safe to mutate
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// Override is the prior cycle's actual assignment of a slot
type Override struct {
	Track     Track    `json:"track"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	PersonIDs []string `json:"person_ids"`
}

// Plan is the result of one planning invocation
type Plan struct {
	Tracks           []TrackPlan `json:"tracks"`
	Ranking          []string    `json:"ranking"`
	Present          []string    `json:"present"`
	Ledger           Ledger      `json:"ledger"`
	IgnoredOverrides []string    `json:"ignored_overrides,omitempty"`
}

// Track returns the plan of the given track, or nil
func (p *Plan) Track(t Track) *TrackPlan {
	for i := range p.Tracks {
		if p.Tracks[i].Track == t {
			return &p.Tracks[i]
		}
	}
	return nil
}

// AssignedIDs returns every assigned person once, in first-appearance order
// across tracks in plan order.
func (p *Plan) AssignedIDs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, tp := range p.Tracks {
		for _, a := range tp.Assignments {
			for _, id := range a.PersonIDs {
				if !seen[id] {
					seen[id] = true
					out = append(out, id)
				}
			}
		}
	}
	return out
}
