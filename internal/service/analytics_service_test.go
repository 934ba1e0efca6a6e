package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edupulse/feedback-api/internal/models"
	appErrors "github.com/edupulse/feedback-api/pkg/errors"
)

type fakeEvaluationReader struct {
	evals      []models.Evaluation
	classrooms []models.Classroom
	err        error
	calls      int
	last       models.EvaluationFilter
}

func (f *fakeEvaluationReader) ListEvaluations(_ context.Context, filter models.EvaluationFilter) ([]models.Evaluation, error) {
	f.calls++
	f.last = filter
	if f.err != nil {
		return nil, f.err
	}
	byID := make(map[string]models.Classroom, len(f.classrooms))
	for _, classroom := range f.classrooms {
		byID[classroom.ID] = classroom
	}
	out := make([]models.Evaluation, 0, len(f.evals))
	for _, ev := range f.evals {
		room := byID[ev.ClassroomID]
		if filter.ProfessorID != "" && room.ProfessorID != filter.ProfessorID {
			continue
		}
		if filter.ClassroomStatus != "" && room.Status != filter.ClassroomStatus {
			continue
		}
		if filter.Sentiment != "" && (ev.Sentiment == nil || *ev.Sentiment != filter.Sentiment) {
			continue
		}
		if filter.WithComment && ev.Comment == nil {
			continue
		}
		out = append(out, ev)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

type fakeRosterReader struct {
	professors []models.Professor
	classrooms []models.Classroom
	students   int
	err        error
}

func (f *fakeRosterReader) ListProfessors(_ context.Context, _ models.ProfessorFilter) ([]models.Professor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.professors, nil
}

func (f *fakeRosterReader) FindProfessor(_ context.Context, id string) (*models.Professor, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.professors {
		if f.professors[i].ID == id {
			return &f.professors[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRosterReader) ListClassrooms(_ context.Context, filter models.ClassroomFilter) ([]models.Classroom, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Classroom, 0, len(f.classrooms))
	for _, classroom := range f.classrooms {
		if filter.ProfessorID != "" && classroom.ProfessorID != filter.ProfessorID {
			continue
		}
		if filter.Status != "" && classroom.Status != filter.Status {
			continue
		}
		out = append(out, classroom)
	}
	return out, nil
}

func (f *fakeRosterReader) CountStudents(_ context.Context) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.students, nil
}

type memoryCacheRepo struct {
	store map[string][]byte
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if m.store == nil {
		m.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = payload
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, _ string) error {
	m.store = nil
	return nil
}

func fixtureData() (*fakeEvaluationReader, *fakeRosterReader) {
	evals := &fakeEvaluationReader{evals: []models.Evaluation{
		ratedEval("e1", "s1", "c1", 5, models.SentimentPositive),
		ratedEval("e2", "s2", "c1", 4, models.SentimentPositive),
		ratedEval("e3", "s3", "c1", 2, models.SentimentNegative),
		evalRow("e4", "s4", "c1"),
		ratedEval("e5", "s1", "c2", 3, models.SentimentNeutral),
		evalRow("e6", "s5", "c2"),
	}}
	roster := &fakeRosterReader{
		professors: []models.Professor{professor("p1"), professor("p2")},
		classrooms: []models.Classroom{
			classroom("c1", "Math", models.ClassroomStatusActive, "p1"),
			classroom("c2", "Physics", models.ClassroomStatusActive, "p2"),
		},
		students: 20,
	}
	evals.classrooms = roster.classrooms
	return evals, roster
}

func newTestService(evals *fakeEvaluationReader, roster *fakeRosterReader, cache *CacheService) *AnalyticsService {
	return NewAnalyticsService(evals, roster, cache, nil, zap.NewNop(), AnalyticsServiceConfig{})
}

func TestAnalyticsServiceOverview(t *testing.T) {
	evals, roster := fixtureData()
	svc := newTestService(evals, roster, nil)

	report, cacheHit, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, cacheHit)

	assert.Equal(t, 2, report.Professors.Total)
	assert.Equal(t, 2, report.Professors.WithClassrooms)
	assert.Equal(t, 20, report.Students.Total)
	assert.Equal(t, 5, report.Students.Enrolled)
	assert.Equal(t, 3, report.Students.WithFeedback)
	assert.Equal(t, 2, report.Classrooms.Total)
	assert.Equal(t, 2, report.Classrooms.Active)
	assert.InDelta(t, 3.0, report.Classrooms.AvgStudentsPerClassroom, 0.001)
	assert.Equal(t, 4, report.Feedback.TotalFeedback)
	assert.InDelta(t, 3.5, report.Feedback.AverageRating, 0.001)
	assert.InDelta(t, 66.67, report.Feedback.CompletionRate, 0.001)
	assert.Equal(t, 2, report.Sentiment.Positive)
	assert.InDelta(t, 50.0, report.Sentiment.PositivePercentage, 0.001)
}

func TestAnalyticsServiceOverviewCaching(t *testing.T) {
	evals, roster := fixtureData()
	cacheSvc := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := newTestService(evals, roster, cacheSvc)

	first, cacheHit, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, cacheHit)
	firstCalls := evals.calls

	second, cacheHit2, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.True(t, cacheHit2)
	assert.Equal(t, firstCalls, evals.calls)
	assert.Equal(t, first, second)
}

func TestAnalyticsServiceProfessorOverview(t *testing.T) {
	evals, roster := fixtureData()
	svc := newTestService(evals, roster, nil)

	report, _, err := svc.ProfessorOverview(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalClassrooms)
	assert.Equal(t, 4, report.TotalStudents)
	assert.Equal(t, 3, report.StudentsWithFeedback)
	assert.InDelta(t, 3.67, report.AverageRating, 0.001)
	assert.Equal(t, 2, report.SentimentDistribution.Positive)
	assert.Equal(t, 1, report.SentimentDistribution.Negative)
	assert.InDelta(t, 66.67, report.PositivePercentage, 0.001)
}

func TestAnalyticsServiceProfessorOverviewNotFound(t *testing.T) {
	evals, roster := fixtureData()
	svc := newTestService(evals, roster, nil)

	_, _, err := svc.ProfessorOverview(context.Background(), "ghost")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestAnalyticsServiceProfessorAnalyticsSorting(t *testing.T) {
	evals, roster := fixtureData()
	svc := newTestService(evals, roster, nil)

	entries, _, err := svc.ProfessorAnalytics(context.Background(), ProfessorAnalyticsParams{
		SortBy:    SortByAverageRating,
		SortOrder: SortDesc,
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// p1 averages 3.67 across c1, p2 averages 3.0 across c2
	assert.Equal(t, "p1", entries[0].ID)
	assert.InDelta(t, 3.67, entries[0].AverageRating, 0.001)
	assert.Equal(t, 4, entries[0].TotalStudents)
}

func TestAnalyticsServiceProfessorAnalyticsLimitValidation(t *testing.T) {
	evals, roster := fixtureData()
	svc := newTestService(evals, roster, nil)

	_, _, err := svc.ProfessorAnalytics(context.Background(), ProfessorAnalyticsParams{Limit: -1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, _, err = svc.ProfessorAnalytics(context.Background(), ProfessorAnalyticsParams{Limit: 100000})
	require.Error(t, err)
}

func TestAnalyticsServiceClassroomAnalyticsStatusValidation(t *testing.T) {
	evals, roster := fixtureData()
	svc := newTestService(evals, roster, nil)

	_, _, err := svc.ClassroomAnalytics(context.Background(), ClassroomAnalyticsParams{Status: "paused"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAnalyticsServiceSubjectAnalyticsOrder(t *testing.T) {
	evals, roster := fixtureData()
	svc := newTestService(evals, roster, nil)

	entries, _, err := svc.SubjectAnalytics(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Math", entries[0].Subject)
	assert.True(t, entries[0].AverageRating >= entries[1].AverageRating)
}

func TestAnalyticsServiceStudentEngagement(t *testing.T) {
	evals, roster := fixtureData()
	svc := newTestService(evals, roster, nil)

	report, _, err := svc.StudentEngagement(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 20, report.Overview.TotalStudents)
	assert.Equal(t, 5, report.Overview.EnrolledStudents)
	assert.Equal(t, 3, report.Overview.ActiveStudents)
	assert.InDelta(t, 15.0, report.Overview.EngagementRate, 0.001)

	// dense histogram: all five buckets present
	require.Len(t, report.RatingHistogram, 5)
	assert.Equal(t, 1, report.RatingHistogram[0].Rating)
	assert.Equal(t, 0, report.RatingHistogram[0].Count)
	assert.Equal(t, 1, report.RatingHistogram[1].Count)

	require.NotEmpty(t, report.TopActiveStudents)
	// s1 gave feedback twice across classrooms
	assert.Equal(t, "s1", report.TopActiveStudents[0].StudentID)
	assert.Equal(t, 2, report.TopActiveStudents[0].FeedbackCount)
	assert.InDelta(t, 4.0, report.TopActiveStudents[0].AverageRatingGiven, 0.001)
}

func TestAnalyticsServiceTrendsValidation(t *testing.T) {
	evals, roster := fixtureData()
	svc := newTestService(evals, roster, nil)

	_, _, err := svc.Trends(context.Background(), -5)
	require.Error(t, err)

	_, _, err = svc.Trends(context.Background(), 4000)
	require.Error(t, err)

	report, _, err := svc.Trends(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 30, report.Days)
}

func TestAnalyticsServiceModeration(t *testing.T) {
	evals, roster := fixtureData()
	// push c1 under the moderation ceiling
	evals.evals = []models.Evaluation{
		ratedEval("e1", "s1", "c1", 2, models.SentimentNegative),
		ratedEval("e2", "s2", "c1", 2, models.SentimentNegative),
		ratedEval("e3", "s3", "c1", 3, models.SentimentNegative),
	}
	svc := newTestService(evals, roster, nil)

	report, _, err := svc.Moderation(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, report.LowRatedClassrooms, 1)
	assert.Equal(t, "c1", report.LowRatedClassrooms[0].ClassroomID)
	assert.InDelta(t, 2.33, report.LowRatedClassrooms[0].AverageRating, 0.001)
	require.Len(t, report.NegativeFeedback, 3)
	assert.Equal(t, "Classroom c1", report.NegativeFeedback[0].ClassroomName)
}

func TestAnalyticsServiceModerationMissingClassroom(t *testing.T) {
	evals, roster := fixtureData()
	evals.evals = []models.Evaluation{
		ratedEval("e1", "s1", "orphan", 1, models.SentimentNegative),
	}
	svc := newTestService(evals, roster, nil)

	_, _, err := svc.Moderation(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAnalyticsServiceAIInsights(t *testing.T) {
	evals, roster := fixtureData()
	analysis := "students respond well to worked examples"
	roster.classrooms[0].AIAnalysis = &analysis
	svc := newTestService(evals, roster, nil)

	report, _, err := svc.AIInsights(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.TotalClassrooms)
	assert.Equal(t, 1, report.Summary.WithAnalysis)
	assert.InDelta(t, 50.0, report.Summary.CoveragePercentage, 0.001)
	require.Len(t, report.Insights, 1)
	assert.Equal(t, "c1", report.Insights[0].ClassroomID)
}

func TestAnalyticsServiceExport(t *testing.T) {
	evals, roster := fixtureData()
	svc := newTestService(evals, roster, nil)
	fixed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	report, err := svc.Export(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, report.ReportID)
	assert.Equal(t, fixed, report.GeneratedAt)
	assert.Len(t, report.ProfessorAnalytics, 2)
	assert.Len(t, report.SubjectAnalytics, 2)
	assert.Equal(t, 2, report.SystemOverview.Professors.Total)
}

func TestAnalyticsServiceExportFailsWhole(t *testing.T) {
	evals, roster := fixtureData()
	svc := newTestService(evals, roster, nil)
	roster.err = assert.AnError

	_, err := svc.Export(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
