package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse/feedback-api/internal/models"
)

func lowRatedRollup(id string, ratedCount int, avg float64) ClassroomRollup {
	return ClassroomRollup{
		Classroom: models.Classroom{
			ID:            id,
			Name:          "Classroom " + id,
			Subject:       "Math",
			Status:        models.ClassroomStatusActive,
			ProfessorName: "Prof X",
		},
		Stats: RatingStats{RatedCount: ratedCount, AverageRating: avg},
	}
}

func TestFlagLowRatedThresholds(t *testing.T) {
	thresholds := ModerationThresholds{MinRatings: 3, RatingCeiling: 3.0}
	rollups := []ClassroomRollup{
		lowRatedRollup("c1", 3, 2.5),
		lowRatedRollup("c2", 2, 1.0),  // too few ratings
		lowRatedRollup("c3", 5, 3.0),  // at the ceiling, not below it
		lowRatedRollup("c4", 4, 0),    // zero average means no usable ratings
		lowRatedRollup("c5", 10, 2.99),
		lowRatedRollup("c6", 3, 4.5), // healthy
	}

	flagged := FlagLowRated(rollups, thresholds, 0)
	require.Len(t, flagged, 2)
	// worst average first
	assert.Equal(t, "c1", flagged[0].ClassroomID)
	assert.Equal(t, "c5", flagged[1].ClassroomID)
	assert.Equal(t, "low_average_rating", flagged[0].Reason)
}

func TestFlagLowRatedTieBreakAndLimit(t *testing.T) {
	thresholds := ModerationThresholds{MinRatings: 3, RatingCeiling: 3.0}
	rollups := []ClassroomRollup{
		lowRatedRollup("c9", 3, 2.0),
		lowRatedRollup("c2", 3, 2.0),
		lowRatedRollup("c5", 3, 1.5),
	}

	flagged := FlagLowRated(rollups, thresholds, 2)
	require.Len(t, flagged, 2)
	assert.Equal(t, "c5", flagged[0].ClassroomID)
	assert.Equal(t, "c2", flagged[1].ClassroomID)
}

func TestFlagLowRatedEmptyInput(t *testing.T) {
	flagged := FlagLowRated(nil, ModerationThresholds{MinRatings: 3, RatingCeiling: 3.0}, 10)
	assert.Empty(t, flagged)
}
