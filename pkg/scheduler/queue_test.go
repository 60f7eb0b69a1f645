package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arnavshah/rotation-api-go/pkg/models"
)

func people(ids ...string) []models.Person {
	out := make([]models.Person, len(ids))
	for i, id := range ids {
		out[i] = models.Person{ID: id}
	}
	return out
}

func TestRotationQueue_Draw(t *testing.T) {
	t.Run("re-enqueues drawn entries at the tail", func(t *testing.T) {
		q := NewRotationQueue(people("a", "b", "c"))

		got, degraded := q.Draw(1)
		require.False(t, degraded)
		require.Equal(t, []string{"a"}, personIDs(got))
		require.Equal(t, []string{"b", "c", "a"}, personIDs(q.Snapshot()))

		got, _ = q.Draw(2)
		require.Equal(t, []string{"b", "c"}, personIDs(got))
		require.Equal(t, []string{"a", "b", "c"}, personIDs(q.Snapshot()))
	})

	t.Run("does not share state with the seed", func(t *testing.T) {
		seed := people("a", "b")
		q := NewRotationQueue(seed)
		q.Draw(1)
		require.Equal(t, []string{"a", "b"}, personIDs(seed))
	})

	t.Run("splices a distinct entry out of the middle", func(t *testing.T) {
		q := NewRotationQueue(people("a", "a", "b"))

		got, degraded := q.Draw(2)
		require.False(t, degraded)
		require.Equal(t, []string{"a", "b"}, personIDs(got))
		require.Equal(t, []string{"a", "a", "b"}, personIDs(q.Snapshot()))
	})

	t.Run("repeats the only member when the pool is too small", func(t *testing.T) {
		q := NewRotationQueue(people("solo"))

		got, degraded := q.Draw(2)
		require.True(t, degraded)
		require.Equal(t, []string{"solo", "solo"}, personIDs(got))
		require.Equal(t, 1, q.Len())
	})

	t.Run("empty queue draws nothing", func(t *testing.T) {
		q := NewRotationQueue(nil)
		got, degraded := q.Draw(1)
		require.Empty(t, got)
		require.False(t, degraded)
	})

	t.Run("full cycle draws everyone once", func(t *testing.T) {
		q := NewRotationQueue(people("a", "b", "c", "d", "e"))
		counts := make(map[string]int)
		for i := 0; i < 5; i++ {
			got, _ := q.Draw(1)
			counts[got[0].ID]++
		}
		for _, id := range []string{"a", "b", "c", "d", "e"} {
			require.Equal(t, 1, counts[id])
		}
	})
}

func TestRank(t *testing.T) {
	roster := []models.Person{
		{ID: "late", LastDuty: day("2024-06-10")},
		{ID: "never"},
		{ID: "early", LastDuty: day("2024-06-01")},
		{ID: "tie", LastDuty: day("2024-06-01")},
	}

	r := Rank(roster, nil)
	require.Equal(t, []string{"never", "early", "tie", "late"}, r.IDs())
	require.Empty(t, r.Ignored)

	r = Rank(roster, []models.Override{{PersonIDs: []string{"never", "ghost", "ghost"}}})
	require.Equal(t, []string{"early", "tie", "late", "never"}, r.IDs())
	require.Equal(t, []string{"ghost"}, r.Ignored)
	require.False(t, roster[1].LastDuty.IsOverride())

	r = Rank(roster, []models.Override{{PersonIDs: []string{" early "}}})
	require.Equal(t, []string{"never", "tie", "late", "early"}, r.IDs())
	require.Empty(t, r.Ignored)
}

func TestFilterPresent(t *testing.T) {
	roster := people("a", "b", "c")
	require.Equal(t, []string{"a", "b", "c"}, personIDs(FilterPresent(roster, nil)))
	require.Equal(t, []string{"a", "c"}, personIDs(FilterPresent(roster, []string{"c", "a", "zz"})))
	require.Empty(t, FilterPresent(roster, []string{}))
	require.Equal(t, []string{"b"}, personIDs(FilterPresent(roster, []string{" b", "\tb\n"})))
}

func TestPresence(t *testing.T) {
	roster := make([]string, 19)
	for i := range roster {
		roster[i] = string(rune('a' + i))
	}

	t.Run("pads with assigned names in first-appearance order", func(t *testing.T) {
		// 14 distinct names on duty, with repeats across tracks
		assigned := append(append([]string{}, roster[5:19]...), roster[5], roster[6])
		present := Presence(roster, assigned, 10)
		require.Len(t, present, 10)
		require.Equal(t, roster[:5], present[:5])
		require.Equal(t, roster[5:10], present[5:])
	})

	t.Run("truncates idle names to the target", func(t *testing.T) {
		present := Presence(roster, roster[:3], 10)
		require.Equal(t, roster[3:13], present)
	})

	t.Run("stops when the roster is exhausted", func(t *testing.T) {
		present := Presence(roster[:4], roster[:4], 10)
		require.Equal(t, roster[:4], present)
	})
}

func TestCalculateFairnessScore(t *testing.T) {
	even := models.TrackPlan{
		Pool: []string{"a", "b", "c"},
		Assignments: []models.Assignment{
			{PersonIDs: []string{"a"}}, {PersonIDs: []string{"b"}}, {PersonIDs: []string{"c"}}, {PersonIDs: []string{"a"}},
		},
	}
	require.InDelta(t, 100.0, CalculateFairnessScore(even), 1e-9)

	skewed := models.TrackPlan{
		Pool: []string{"a", "b", "c"},
		Assignments: []models.Assignment{
			{PersonIDs: []string{"a"}}, {PersonIDs: []string{"a"}}, {PersonIDs: []string{"a"}}, {PersonIDs: []string{"b"}},
		},
	}
	require.Less(t, CalculateFairnessScore(skewed), 100.0)

	require.Equal(t, 100.0, CalculateFairnessScore(models.TrackPlan{}))
}

func TestFairnessScores_FIFOIsPerfect(t *testing.T) {
	plan, err := NewScheduler(nil, Options{}).Plan(Input{Roster: baseRoster()})
	require.NoError(t, err)
	for track, score := range FairnessScores(plan) {
		require.InDelta(t, 100.0, score, 1e-9, "track %s", track)
	}
}
