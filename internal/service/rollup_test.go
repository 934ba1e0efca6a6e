package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse/feedback-api/internal/models"
)

func classroom(id, subject, status, professorID string) models.Classroom {
	return models.Classroom{
		ID:          id,
		Name:        "Classroom " + id,
		Subject:     subject,
		Status:      status,
		ProfessorID: professorID,
		CreatedAt:   time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
	}
}

func professor(id string) models.Professor {
	return models.Professor{ID: id, Name: "Prof " + id, Email: id + "@example.edu"}
}

// Two classrooms under one professor: one fully evaluated, one with ten
// silent enrollments. The per-classroom numbers and the professor rollup
// must stay consistent with each other.
func TestRollupFullAndSilentClassrooms(t *testing.T) {
	classrooms := []models.Classroom{
		classroom("full", "Math", models.ClassroomStatusActive, "p1"),
		classroom("silent", "Math", models.ClassroomStatusActive, "p1"),
	}
	evals := []models.Evaluation{
		ratedEval("e1", "s1", "full", 5, models.SentimentPositive),
		ratedEval("e2", "s2", "full", 4, models.SentimentPositive),
		ratedEval("e3", "s3", "full", 3, models.SentimentNeutral),
		ratedEval("e4", "s4", "full", 2, models.SentimentNegative),
		ratedEval("e5", "s5", "full", 1, models.SentimentNegative),
	}
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("s%d", 10+i)
		evals = append(evals, evalRow("q"+id, id, "silent"))
	}

	byClassroom := RollupByClassroom(classrooms, evals)
	require.Len(t, byClassroom, 2)

	full := byClassroom[0].Stats
	assert.Equal(t, 5, full.RatedCount)
	assert.InDelta(t, 3.0, full.AverageRating, 1e-9)
	assert.InDelta(t, 100.0, full.CompletionRate, 1e-9)
	assert.InDelta(t, 40.0, full.PositivePercentage, 1e-9)

	silent := byClassroom[1].Stats
	assert.Equal(t, 10, silent.PopulationSize)
	assert.Equal(t, 0, silent.RatedCount)
	assert.Zero(t, silent.AverageRating)
	assert.Zero(t, silent.CompletionRate)
	assert.Zero(t, silent.PositivePercentage)

	byProfessor := RollupByProfessor([]models.Professor{professor("p1")}, classrooms, evals)
	require.Len(t, byProfessor, 1)
	rollup := byProfessor[0]
	assert.Equal(t, 15, rollup.DistinctStudents)
	assert.Equal(t, 5, rollup.Stats.RatedCount)
	assert.InDelta(t, 3.0, rollup.Stats.AverageRating, 1e-9)
	assert.InDelta(t, 33.33, rollup.Stats.CompletionRate, 1e-9)
}

func TestParseSortField(t *testing.T) {
	field, err := ParseSortField("")
	require.NoError(t, err)
	assert.Equal(t, SortByAverageRating, field)

	field, err = ParseSortField("completion_rate")
	require.NoError(t, err)
	assert.Equal(t, SortByCompletionRate, field)

	_, err = ParseSortField("popularity")
	require.Error(t, err)
}

func TestParseSortOrder(t *testing.T) {
	order, err := ParseSortOrder("")
	require.NoError(t, err)
	assert.Equal(t, SortDesc, order)

	order, err = ParseSortOrder("asc")
	require.NoError(t, err)
	assert.Equal(t, SortAsc, order)

	_, err = ParseSortOrder("sideways")
	require.Error(t, err)
}

func TestRollupByProfessor(t *testing.T) {
	professors := []models.Professor{professor("p1"), professor("p2")}
	classrooms := []models.Classroom{
		classroom("c1", "Math", models.ClassroomStatusActive, "p1"),
		classroom("c2", "Math", models.ClassroomStatusArchived, "p1"),
		classroom("c3", "Physics", models.ClassroomStatusActive, "p2"),
	}

	evals := []models.Evaluation{
		ratedEval("e1", "s1", "c1", 5, models.SentimentPositive),
		ratedEval("e2", "s2", "c1", 4, models.SentimentPositive),
		ratedEval("e3", "s1", "c2", 3, models.SentimentNeutral),
		evalRow("e4", "s3", "c1"),
		evalRow("e5", "s4", "c2"),
		// classroom without a roster entry is skipped entirely
		ratedEval("e6", "s5", "ghost", 1, models.SentimentNegative),
	}

	rollups := RollupByProfessor(professors, classrooms, evals)
	require.Len(t, rollups, 2)

	p1 := rollups[0]
	assert.Equal(t, "p1", p1.Professor.ID)
	assert.Equal(t, 2, p1.TotalClassrooms)
	assert.Equal(t, 1, p1.ActiveClassrooms)
	// s1 is enrolled in both of p1's classrooms and counts once
	assert.Equal(t, 4, p1.DistinctStudents)
	assert.Equal(t, 5, p1.Stats.PopulationSize)
	assert.Equal(t, 3, p1.Stats.RatedCount)
	assert.InDelta(t, 4.0, p1.Stats.AverageRating, 0.001)

	p2 := rollups[1]
	assert.Equal(t, 0, p2.Stats.PopulationSize)
	assert.Zero(t, p2.Stats.AverageRating)
}

func TestRollupBySubjectFirstSeenOrder(t *testing.T) {
	classrooms := []models.Classroom{
		classroom("c1", "Math", models.ClassroomStatusActive, "p1"),
		classroom("c2", "Physics", models.ClassroomStatusActive, "p1"),
		classroom("c3", "Math", models.ClassroomStatusActive, "p2"),
	}
	evals := []models.Evaluation{
		ratedEval("e1", "s1", "c1", 5, models.SentimentPositive),
		ratedEval("e2", "s1", "c3", 3, models.SentimentNeutral),
		ratedEval("e3", "s2", "c2", 4, models.SentimentPositive),
	}

	rollups := RollupBySubject(classrooms, evals)
	require.Len(t, rollups, 2)
	assert.Equal(t, "Math", rollups[0].Subject)
	assert.Equal(t, 2, rollups[0].TotalClassrooms)
	assert.Equal(t, 1, rollups[0].DistinctStudents)
	assert.InDelta(t, 4.0, rollups[0].Stats.AverageRating, 0.001)
	assert.Equal(t, "Physics", rollups[1].Subject)
}

func TestSortProfessorRollupsTieBreak(t *testing.T) {
	mk := func(id string, avg float64) ProfessorRollup {
		return ProfessorRollup{Professor: professor(id), Stats: RatingStats{AverageRating: avg}}
	}
	rollups := []ProfessorRollup{mk("p3", 4.0), mk("p1", 4.0), mk("p2", 2.0)}

	SortProfessorRollups(rollups, SortByAverageRating, SortDesc)
	assert.Equal(t, []string{"p1", "p3", "p2"}, []string{
		rollups[0].Professor.ID, rollups[1].Professor.ID, rollups[2].Professor.ID,
	})

	SortProfessorRollups(rollups, SortByAverageRating, SortAsc)
	assert.Equal(t, "p2", rollups[0].Professor.ID)
	assert.Equal(t, "p1", rollups[1].Professor.ID)
}

func TestTruncate(t *testing.T) {
	items := []int{1, 2, 3, 4}
	assert.Len(t, Truncate(items, 2), 2)
	assert.Len(t, Truncate(items, 0), 4)
	assert.Len(t, Truncate(items, 10), 4)
}
