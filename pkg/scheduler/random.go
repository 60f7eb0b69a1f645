package scheduler

import (
	"github.com/arnavshah/rotation-api-go/pkg/models"
)

// Shuffler is the random source of the random-draw policy. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// randomDraw draws every slot independently from a freshly shuffled copy of the
// pool. Repeats across slots are unbounded and results are not reproducible unless
// the Shuffler is seeded; it gives none of RotationQueue's fairness guarantees.
type randomDraw struct {
	pool []models.Person
	rng  Shuffler
}

func (d *randomDraw) Draw(n int) ([]models.Person, bool) {
	if len(d.pool) == 0 || n <= 0 {
		return nil, false
	}
	shuffled := make([]models.Person, len(d.pool))
	copy(shuffled, d.pool)
	d.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	drawn := make([]models.Person, 0, n)
	picked := make(map[string]bool, n)
	for _, p := range shuffled {
		if len(drawn) == n {
			break
		}
		if !picked[p.ID] {
			picked[p.ID] = true
			drawn = append(drawn, p)
		}
	}
	degraded := false
	for len(drawn) < n {
		drawn = append(drawn, shuffled[0])
		degraded = true
	}
	return drawn, degraded
}
