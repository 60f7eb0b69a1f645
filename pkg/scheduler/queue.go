package scheduler

import (
	"github.com/arnavshah/rotation-api-go/pkg/models"
)

// drawer hands out the people for one slot
type drawer interface {
	Draw(n int) ([]models.Person, bool)
}

// RotationQueue is a fixed-size ring of personnel. Every drawn entry is moved to
// the tail, so over a full cycle each member is drawn at most once more than any other.
type RotationQueue struct {
	items []models.Person
	head  int
}

// NewRotationQueue copies seed into a new queue
func NewRotationQueue(seed []models.Person) *RotationQueue {
	items := make([]models.Person, len(seed))
	copy(items, seed)
	return &RotationQueue{items: items}
}

// Len returns the number of entries
func (q *RotationQueue) Len() int {
	return len(q.items)
}

// Snapshot returns the entries from front to tail
func (q *RotationQueue) Snapshot() []models.Person {
	out := make([]models.Person, len(q.items))
	for i := range out {
		out[i] = q.at(i)
	}
	return out
}

// Draw removes up to n pairwise distinct entries from the front and re-enqueues
// each one at the tail. When fewer than n distinct identities exist, the front
// entry is drawn again and the result is reported as degraded.
func (q *RotationQueue) Draw(n int) ([]models.Person, bool) {
	if len(q.items) == 0 || n <= 0 {
		return nil, false
	}
	drawn := make([]models.Person, 0, n)
	picked := make(map[string]bool, n)
	degraded := false
	for len(drawn) < n {
		i := q.firstUnpicked(picked)
		if i < 0 {
			i = 0
			degraded = true
		}
		p := q.take(i)
		picked[p.ID] = true
		drawn = append(drawn, p)
	}
	return drawn, degraded
}

func (q *RotationQueue) firstUnpicked(picked map[string]bool) int {
	for i := range q.items {
		if !picked[q.at(i).ID] {
			return i
		}
	}
	return -1
}

// take moves the entry at logical position i to the tail and returns it
func (q *RotationQueue) take(i int) models.Person {
	p := q.at(i)
	n := len(q.items)
	if i == 0 {
		q.head = (q.head + 1) % n
		return p
	}
	for j := i; j < n-1; j++ {
		q.set(j, q.at(j+1))
	}
	q.set(n-1, p)
	return p
}

func (q *RotationQueue) at(i int) models.Person {
	return q.items[(q.head+i)%len(q.items)]
}

func (q *RotationQueue) set(i int, p models.Person) {
	q.items[(q.head+i)%len(q.items)] = p
}
