package scheduler

import (
	"fmt"
	"time"

	"github.com/arnavshah/rotation-api-go/pkg/models"
)

const minutesPerDay = 24 * 60

// trackSeats is the number of people per slot: single posts by day, pairs at night
var trackSeats = map[models.Track]int{
	models.TrackDay:   1,
	models.TrackFloor: 1,
	models.TrackNight: 2,
}

// SlotSpec is one time window of a track
type SlotSpec struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// TrackSpec defines the slots of one track and how many people fill each slot.
// Rest marks tracks that drop persons who served in the previous cycle when the
// rest rule is enabled.
type TrackSpec struct {
	Track models.Track `json:"track" yaml:"track"`
	Seats int          `json:"seats" yaml:"seats"`
	Rest  bool         `json:"rest" yaml:"rest"`
	Slots []SlotSpec   `json:"slots" yaml:"slots"`
}

// ShiftSlots returns the track's slots in catalog order
func (t TrackSpec) ShiftSlots() []models.ShiftSlot {
	out := make([]models.ShiftSlot, len(t.Slots))
	for i, s := range t.Slots {
		out[i] = models.ShiftSlot{Track: t.Track, Start: s.Start, End: s.End}
	}
	return out
}

// Catalog is the static slot definition of every track
type Catalog struct {
	Tracks []TrackSpec `json:"tracks"`
}

var dayWindows = []SlotSpec{
	{"06:00", "08:00"},
	{"08:00", "10:00"},
	{"10:00", "12:00"},
	{"12:00", "14:00"},
	{"14:00", "16:00"},
	{"16:00", "18:00"},
	{"18:00", "19:30"},
	{"19:30", "21:00"},
}

var nightWindows = []SlotSpec{
	{"21:00", "22:30"},
	{"22:30", "00:00"},
	{"00:00", "01:30"},
	{"01:30", "03:00"},
	{"03:00", "04:30"},
	{"04:30", "06:00"},
}

// DefaultCatalog returns the reference catalog: eight day-post and eight floor-post
// slots between 06:00 and 21:00, and six paired ninety-minute night slots.
func DefaultCatalog() *Catalog {
	return &Catalog{Tracks: []TrackSpec{
		{Track: models.TrackDay, Seats: 1, Rest: true, Slots: append([]SlotSpec(nil), dayWindows...)},
		{Track: models.TrackFloor, Seats: 1, Rest: true, Slots: append([]SlotSpec(nil), dayWindows...)},
		{Track: models.TrackNight, Seats: 2, Slots: append([]SlotSpec(nil), nightWindows...)},
	}}
}

// NewCatalog validates the given tracks and returns a catalog
func NewCatalog(tracks []TrackSpec) (*Catalog, error) {
	c := &Catalog{Tracks: tracks}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks track order, seat counts and slot chronology
func (c *Catalog) Validate() error {
	if len(c.Tracks) == 0 {
		return fmt.Errorf("%w: no tracks", ErrInvalidCatalog)
	}
	last := -1
	for _, t := range c.Tracks {
		pos := trackPosition(t.Track)
		if pos < 0 {
			return fmt.Errorf("%w: unknown track %q", ErrInvalidCatalog, t.Track)
		}
		if pos <= last {
			return fmt.Errorf("%w: track %s duplicated or out of order", ErrInvalidCatalog, t.Track)
		}
		last = pos
		if want := trackSeats[t.Track]; t.Seats != want {
			return fmt.Errorf("%w: track %s needs %d seats, got %d", ErrInvalidCatalog, t.Track, want, t.Seats)
		}
		if err := validateSlots(t); err != nil {
			return err
		}
	}
	return nil
}

func validateSlots(t TrackSpec) error {
	var first, prev int
	for i, s := range t.Slots {
		start, err := clockMinutes(s.Start)
		if err != nil {
			return fmt.Errorf("%w: track %s slot %d: %v", ErrInvalidCatalog, t.Track, i, err)
		}
		end, err := clockMinutes(s.End)
		if err != nil {
			return fmt.Errorf("%w: track %s slot %d: %v", ErrInvalidCatalog, t.Track, i, err)
		}
		if start == end {
			return fmt.Errorf("%w: track %s slot %s is empty", ErrInvalidCatalog, t.Track, s.Start)
		}
		if i == 0 {
			first = start
			continue
		}
		// offsets from the first start, so night slots may wrap past midnight
		offset := (start - first + minutesPerDay) % minutesPerDay
		if offset <= prev {
			return fmt.Errorf("%w: track %s slot %s-%s is not chronological", ErrInvalidCatalog, t.Track, s.Start, s.End)
		}
		prev = offset
	}
	return nil
}

func clockMinutes(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("bad time of day %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func trackPosition(t models.Track) int {
	for i, known := range models.TrackOrder {
		if known == t {
			return i
		}
	}
	return -1
}

// Spec returns the definition of a track
func (c *Catalog) Spec(t models.Track) (TrackSpec, bool) {
	for _, spec := range c.Tracks {
		if spec.Track == t {
			return spec, true
		}
	}
	return TrackSpec{}, false
}

// HasSlot reports whether the catalog defines the given window on a track
func (c *Catalog) HasSlot(t models.Track, start, end string) bool {
	spec, ok := c.Spec(t)
	if !ok {
		return false
	}
	for _, s := range spec.Slots {
		if s.Start == start && s.End == end {
			return true
		}
	}
	return false
}

// SeatCount is the number of person-slots the catalog fills per run
func (c *Catalog) SeatCount() int {
	n := 0
	for _, t := range c.Tracks {
		n += t.Seats * len(t.Slots)
	}
	return n
}
