package scheduler

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/arnavshah/rotation-api-go/pkg/models"
)

// TrackCounts returns how many seats each pool member holds on the track
func TrackCounts(tp models.TrackPlan) map[string]int {
	counts := make(map[string]int, len(tp.Pool))
	for _, id := range tp.Pool {
		counts[id] = 0
	}
	for _, a := range tp.Assignments {
		for _, id := range a.PersonIDs {
			counts[id]++
		}
	}
	return counts
}

// CalculateFairnessScore returns a percentage (0-100) representing how evenly the
// track's seats are spread over its pool. 100% means the spread is as even as a
// round robin over the pool allows; the deviation beyond that is taken relative
// to the mean.
func CalculateFairnessScore(tp models.TrackPlan) float64 {
	counts := TrackCounts(tp)
	if len(counts) == 0 {
		return 100.0
	}

	total := 0
	observed := make([]float64, 0, len(counts))
	for _, c := range counts {
		observed = append(observed, float64(c))
		total += c
	}
	if total == 0 {
		return 100.0
	}

	k := len(observed)
	ideal := make([]float64, k)
	for i := range ideal {
		ideal[i] = float64(total / k)
		if i < total%k {
			ideal[i]++
		}
	}
	sort.Float64s(observed)
	sort.Float64s(ideal)

	mean, stdDev := stat.PopMeanStdDev(observed, nil)
	_, idealStdDev := stat.PopMeanStdDev(ideal, nil)

	score := (1.0 - (stdDev-idealStdDev)/mean) * 100.0
	if score < 0 {
		return 0.0
	}
	if score > 100 {
		return 100.0
	}
	return score
}

// FairnessScores scores every track of the plan
func FairnessScores(plan *models.Plan) map[models.Track]float64 {
	out := make(map[models.Track]float64, len(plan.Tracks))
	for _, tp := range plan.Tracks {
		out[tp.Track] = CalculateFairnessScore(tp)
	}
	return out
}
