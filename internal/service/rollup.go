package service

import (
	"fmt"
	"sort"

	"github.com/edupulse/feedback-api/internal/models"
	appErrors "github.com/edupulse/feedback-api/pkg/errors"
)

// SortField is the closed set of rollup sort keys. Arbitrary attribute
// names from user input are rejected rather than silently defaulted.
type SortField string

const (
	SortByAverageRating      SortField = "average_rating"
	SortByTotalStudents      SortField = "total_students"
	SortByTotalClassrooms    SortField = "total_classrooms"
	SortByTotalRatings       SortField = "total_ratings"
	SortByPositivePercentage SortField = "positive_percentage"
	SortByCompletionRate     SortField = "completion_rate"
)

// ParseSortField maps raw query input onto the closed enum. Empty input
// selects average_rating.
func ParseSortField(raw string) (SortField, error) {
	switch SortField(raw) {
	case "":
		return SortByAverageRating, nil
	case SortByAverageRating, SortByTotalStudents, SortByTotalClassrooms,
		SortByTotalRatings, SortByPositivePercentage, SortByCompletionRate:
		return SortField(raw), nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown sort_by field %q", raw))
	}
}

// SortOrder is asc or desc.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder maps raw query input onto a sort direction. Empty input
// selects descending, matching the ranked-list endpoints.
func ParseSortOrder(raw string) (SortOrder, error) {
	switch SortOrder(raw) {
	case "":
		return SortDesc, nil
	case SortAsc, SortDesc:
		return SortOrder(raw), nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown sort_order %q", raw))
	}
}

// ClassroomRollup couples classroom identity with its aggregate stats.
type ClassroomRollup struct {
	Classroom models.Classroom
	Stats     RatingStats
}

// ProfessorRollup aggregates all evaluations across one professor's
// classrooms. DistinctStudents deduplicates students enrolled in several of
// the professor's classrooms.
type ProfessorRollup struct {
	Professor        models.Professor
	TotalClassrooms  int
	ActiveClassrooms int
	DistinctStudents int
	Stats            RatingStats
}

// SubjectRollup aggregates all classrooms sharing one subject.
type SubjectRollup struct {
	Subject          string
	TotalClassrooms  int
	DistinctStudents int
	Stats            RatingStats
}

// RollupByClassroom partitions evaluations by classroom and summarises each
// partition. Output order follows the classrooms argument; classrooms with
// no enrollments get zero stats.
func RollupByClassroom(classrooms []models.Classroom, evals []models.Evaluation) []ClassroomRollup {
	byClassroom := make(map[string][]models.Evaluation)
	for _, ev := range evals {
		byClassroom[ev.ClassroomID] = append(byClassroom[ev.ClassroomID], ev)
	}

	rollups := make([]ClassroomRollup, 0, len(classrooms))
	for _, classroom := range classrooms {
		rollups = append(rollups, ClassroomRollup{
			Classroom: classroom,
			Stats:     SummarizeEvaluations(byClassroom[classroom.ID]),
		})
	}
	return rollups
}

// RollupByProfessor partitions evaluations by owning professor across the
// given classrooms. Output order follows the professors argument;
// professors without classrooms get zero stats.
func RollupByProfessor(professors []models.Professor, classrooms []models.Classroom, evals []models.Evaluation) []ProfessorRollup {
	classroomOwner := make(map[string]string, len(classrooms))
	classroomCount := make(map[string]int)
	activeCount := make(map[string]int)
	for _, classroom := range classrooms {
		classroomOwner[classroom.ID] = classroom.ProfessorID
		classroomCount[classroom.ProfessorID]++
		if classroom.Status == models.ClassroomStatusActive {
			activeCount[classroom.ProfessorID]++
		}
	}

	byProfessor := make(map[string][]models.Evaluation)
	students := make(map[string]map[string]struct{})
	for _, ev := range evals {
		owner, ok := classroomOwner[ev.ClassroomID]
		if !ok {
			continue
		}
		byProfessor[owner] = append(byProfessor[owner], ev)
		if students[owner] == nil {
			students[owner] = make(map[string]struct{})
		}
		students[owner][ev.StudentID] = struct{}{}
	}

	rollups := make([]ProfessorRollup, 0, len(professors))
	for _, professor := range professors {
		rollups = append(rollups, ProfessorRollup{
			Professor:        professor,
			TotalClassrooms:  classroomCount[professor.ID],
			ActiveClassrooms: activeCount[professor.ID],
			DistinctStudents: len(students[professor.ID]),
			Stats:            SummarizeEvaluations(byProfessor[professor.ID]),
		})
	}
	return rollups
}

// RollupBySubject groups classrooms by subject in first-seen order and
// summarises the union of their evaluations.
func RollupBySubject(classrooms []models.Classroom, evals []models.Evaluation) []SubjectRollup {
	classroomSubject := make(map[string]string, len(classrooms))
	classroomCount := make(map[string]int)
	var order []string
	for _, classroom := range classrooms {
		classroomSubject[classroom.ID] = classroom.Subject
		if classroomCount[classroom.Subject] == 0 {
			order = append(order, classroom.Subject)
		}
		classroomCount[classroom.Subject]++
	}

	bySubject := make(map[string][]models.Evaluation)
	students := make(map[string]map[string]struct{})
	for _, ev := range evals {
		subject, ok := classroomSubject[ev.ClassroomID]
		if !ok {
			continue
		}
		bySubject[subject] = append(bySubject[subject], ev)
		if students[subject] == nil {
			students[subject] = make(map[string]struct{})
		}
		students[subject][ev.StudentID] = struct{}{}
	}

	rollups := make([]SubjectRollup, 0, len(order))
	for _, subject := range order {
		rollups = append(rollups, SubjectRollup{
			Subject:          subject,
			TotalClassrooms:  classroomCount[subject],
			DistinctStudents: len(students[subject]),
			Stats:            SummarizeEvaluations(bySubject[subject]),
		})
	}
	return rollups
}

// SortProfessorRollups orders rollups by the given field and direction.
// Ties break ascending by professor ID so rankings stay reproducible.
func SortProfessorRollups(rollups []ProfessorRollup, field SortField, order SortOrder) {
	sort.SliceStable(rollups, func(i, j int) bool {
		a, b := rollups[i].sortValue(field), rollups[j].sortValue(field)
		if a == b {
			return rollups[i].Professor.ID < rollups[j].Professor.ID
		}
		if order == SortAsc {
			return a < b
		}
		return a > b
	})
}

func (r ProfessorRollup) sortValue(field SortField) float64 {
	switch field {
	case SortByTotalStudents:
		return float64(r.DistinctStudents)
	case SortByTotalClassrooms:
		return float64(r.TotalClassrooms)
	case SortByTotalRatings:
		return float64(r.Stats.RatedCount)
	case SortByPositivePercentage:
		return r.Stats.PositivePercentage
	case SortByCompletionRate:
		return r.Stats.CompletionRate
	default:
		return r.Stats.AverageRating
	}
}

// Truncate keeps at most limit leading rollups; non-positive limits keep
// everything.
func Truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
