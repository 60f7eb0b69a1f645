package scheduler

import (
	"slices"
	"strings"

	"github.com/arnavshah/rotation-api-go/pkg/models"
)

// Ranking is the seed order shared by every track's rotation
type Ranking struct {
	People  []models.Person
	Ignored []string
}

// IDs returns the ranked ids
func (r Ranking) IDs() []string {
	return personIDs(r.People)
}

// FilterPresent keeps the roster members selected for today in roster order.
// A nil selection keeps the whole roster.
func FilterPresent(roster []models.Person, present []string) []models.Person {
	if present == nil {
		return slices.Clone(roster)
	}
	selected := make(map[string]bool, len(present))
	for _, id := range present {
		selected[strings.TrimSpace(id)] = true
	}
	out := make([]models.Person, 0, len(present))
	for _, p := range roster {
		if selected[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

// Rank orders the roster from longest since last served to most recently served.
// Persons named by an override get the override key; override ids missing from
// the roster are ignored and reported. Ties keep roster order.
func Rank(roster []models.Person, overrides []models.Override) Ranking {
	index := make(map[string]int, len(roster))
	people := slices.Clone(roster)
	for i, p := range people {
		index[p.ID] = i
	}

	var ignored []string
	seenIgnored := make(map[string]bool)
	for _, o := range overrides {
		for _, id := range o.PersonIDs {
			id = strings.TrimSpace(id)
			i, ok := index[id]
			if !ok {
				if !seenIgnored[id] {
					seenIgnored[id] = true
					ignored = append(ignored, id)
				}
				continue
			}
			people[i].LastDuty = models.OverrideKey()
		}
	}

	slices.SortStableFunc(people, func(a, b models.Person) int {
		return a.LastDuty.Compare(b.LastDuty)
	})
	return Ranking{People: people, Ignored: ignored}
}

func personIDs(people []models.Person) []string {
	ids := make([]string, len(people))
	for i, p := range people {
		ids[i] = p.ID
	}
	return ids
}
