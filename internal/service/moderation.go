package service

import (
	"sort"

	"github.com/edupulse/feedback-api/internal/dto"
)

// ModerationThresholds gate the low-rating classroom flag. A classroom is
// flagged only once it has MinRatings ratings and its average sits strictly
// between zero and RatingCeiling.
type ModerationThresholds struct {
	MinRatings    int
	RatingCeiling float64
}

const reasonLowAverageRating = "low_average_rating"

// FlagLowRated selects classroom rollups that breach the thresholds, worst
// average first, at most limit entries. Ties break ascending by classroom
// ID. An empty result is a normal outcome, not an error.
func FlagLowRated(rollups []ClassroomRollup, thresholds ModerationThresholds, limit int) []dto.LowRatedClassroom {
	flagged := make([]ClassroomRollup, 0)
	for _, rollup := range rollups {
		avg := rollup.Stats.AverageRating
		if rollup.Stats.RatedCount >= thresholds.MinRatings && avg > 0 && avg < thresholds.RatingCeiling {
			flagged = append(flagged, rollup)
		}
	}

	sort.SliceStable(flagged, func(i, j int) bool {
		a, b := flagged[i].Stats.AverageRating, flagged[j].Stats.AverageRating
		if a == b {
			return flagged[i].Classroom.ID < flagged[j].Classroom.ID
		}
		return a < b
	})
	flagged = Truncate(flagged, limit)

	entries := make([]dto.LowRatedClassroom, 0, len(flagged))
	for _, rollup := range flagged {
		entries = append(entries, dto.LowRatedClassroom{
			ClassroomID:    rollup.Classroom.ID,
			ClassroomName:  rollup.Classroom.Name,
			Subject:        rollup.Classroom.Subject,
			ProfessorName:  rollup.Classroom.ProfessorName,
			ProfessorEmail: rollup.Classroom.ProfessorEmail,
			AverageRating:  rollup.Stats.AverageRating,
			TotalRatings:   rollup.Stats.RatedCount,
			Status:         rollup.Classroom.Status,
			Reason:         reasonLowAverageRating,
		})
	}
	return entries
}
