package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edupulse/feedback-api/internal/dto"
	"github.com/edupulse/feedback-api/internal/models"
	appErrors "github.com/edupulse/feedback-api/pkg/errors"
)

// EvaluationReader describes the evaluation store required by the
// analytics service. Implementations must be read-only.
type EvaluationReader interface {
	ListEvaluations(ctx context.Context, filter models.EvaluationFilter) ([]models.Evaluation, error)
}

// RosterReader exposes classroom and professor identity plus creation
// timestamps for trend reports.
type RosterReader interface {
	ListProfessors(ctx context.Context, filter models.ProfessorFilter) ([]models.Professor, error)
	FindProfessor(ctx context.Context, id string) (*models.Professor, error)
	ListClassrooms(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, error)
	CountStudents(ctx context.Context) (int, error)
}

// AnalyticsServiceConfig tunes report defaults and bounds.
type AnalyticsServiceConfig struct {
	CacheTTL         time.Duration
	DefaultTrendDays int
	MaxTrendDays     int
	MaxLimit         int
	Moderation       ModerationThresholds
}

const (
	defaultProfessorLimit  = 20
	defaultClassroomLimit  = 50
	defaultModerationLimit = 20
	engagementTopN         = 10
)

// AnalyticsService assembles every consumer-facing report. Each report is a
// stateless pure function of current store contents; concurrent requests
// share nothing mutable.
type AnalyticsService struct {
	evals   EvaluationReader
	roster  RosterReader
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
	cfg     AnalyticsServiceConfig
}

// NewAnalyticsService constructs an analytics service with sane defaults.
func NewAnalyticsService(evals EvaluationReader, roster RosterReader, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg AnalyticsServiceConfig) *AnalyticsService {
	if cfg.DefaultTrendDays <= 0 {
		cfg.DefaultTrendDays = 30
	}
	if cfg.MaxTrendDays <= 0 {
		cfg.MaxTrendDays = 365
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 200
	}
	if cfg.Moderation.MinRatings <= 0 {
		cfg.Moderation.MinRatings = 3
	}
	if cfg.Moderation.RatingCeiling <= 0 {
		cfg.Moderation.RatingCeiling = 3.0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		evals:   evals,
		roster:  roster,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		cfg:     cfg,
	}
}

// Overview returns the system-wide summary. The boolean reports cache use.
func (s *AnalyticsService) Overview(ctx context.Context) (*dto.SystemOverviewReport, bool, error) {
	cacheKey := makeReportCacheKey("overview")
	var cached dto.SystemOverviewReport
	if s.tryCache(ctx, cacheKey, &cached) {
		return &cached, true, nil
	}

	start := time.Now()
	professors, err := s.roster.ListProfessors(ctx, models.ProfessorFilter{})
	if err != nil {
		return nil, false, err
	}
	classrooms, err := s.roster.ListClassrooms(ctx, models.ClassroomFilter{})
	if err != nil {
		return nil, false, err
	}
	evals, err := s.evals.ListEvaluations(ctx, models.EvaluationFilter{})
	if err != nil {
		return nil, false, err
	}
	totalStudents, err := s.roster.CountStudents(ctx)
	if err != nil {
		return nil, false, err
	}
	s.observeQuery("analytics_overview", start)

	report := composeOverview(professors, classrooms, evals, totalStudents)
	s.persistCache(ctx, cacheKey, report)
	return &report, false, nil
}

// ProfessorOverview returns the dashboard summary for one professor's
// active classrooms. The professor scope is an explicit argument, never
// ambient session state.
func (s *AnalyticsService) ProfessorOverview(ctx context.Context, professorID string) (*dto.ProfessorOverviewReport, bool, error) {
	if professorID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "professor id is required")
	}
	if _, err := s.roster.FindProfessor(ctx, professorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, false, err
	}

	cacheKey := makeReportCacheKey("professor-overview", professorID)
	var cached dto.ProfessorOverviewReport
	if s.tryCache(ctx, cacheKey, &cached) {
		return &cached, true, nil
	}

	start := time.Now()
	classrooms, err := s.roster.ListClassrooms(ctx, models.ClassroomFilter{
		ProfessorID: professorID,
		Status:      models.ClassroomStatusActive,
	})
	if err != nil {
		return nil, false, err
	}
	evals, err := s.evals.ListEvaluations(ctx, models.EvaluationFilter{
		ProfessorID:     professorID,
		ClassroomStatus: models.ClassroomStatusActive,
	})
	if err != nil {
		return nil, false, err
	}
	s.observeQuery("analytics_professor_overview", start)

	stats := SummarizeEvaluations(evals)
	report := dto.ProfessorOverviewReport{
		TotalClassrooms:      len(classrooms),
		TotalStudents:        stats.PopulationSize,
		StudentsWithFeedback: stats.FeedbackCount,
		AverageRating:        stats.AverageRating,
		SentimentDistribution: dto.SentimentBreakdown{
			Positive: stats.PositiveCount,
			Negative: stats.NegativeCount,
			Neutral:  stats.NeutralCount,
		},
		PositivePercentage: stats.PositivePercentage,
	}
	s.persistCache(ctx, cacheKey, report)
	return &report, false, nil
}

// ProfessorAnalyticsParams select and order the ranked professor list.
type ProfessorAnalyticsParams struct {
	Limit     int
	SortBy    SortField
	SortOrder SortOrder
}

// ProfessorAnalytics returns ranked professor rollups.
func (s *AnalyticsService) ProfessorAnalytics(ctx context.Context, params ProfessorAnalyticsParams) ([]dto.ProfessorAnalyticsEntry, bool, error) {
	limit, err := s.normalizeLimit(params.Limit, defaultProfessorLimit)
	if err != nil {
		return nil, false, err
	}
	if params.SortBy == "" {
		params.SortBy = SortByAverageRating
	}
	if params.SortOrder == "" {
		params.SortOrder = SortDesc
	}

	cacheKey := makeReportCacheKey("professors", string(params.SortBy), string(params.SortOrder), strconv.Itoa(limit))
	var cached []dto.ProfessorAnalyticsEntry
	if s.tryCache(ctx, cacheKey, &cached) {
		return cached, true, nil
	}

	start := time.Now()
	professors, err := s.roster.ListProfessors(ctx, models.ProfessorFilter{})
	if err != nil {
		return nil, false, err
	}
	classrooms, err := s.roster.ListClassrooms(ctx, models.ClassroomFilter{})
	if err != nil {
		return nil, false, err
	}
	evals, err := s.evals.ListEvaluations(ctx, models.EvaluationFilter{})
	if err != nil {
		return nil, false, err
	}
	s.observeQuery("analytics_professors", start)

	rollups := RollupByProfessor(professors, classrooms, evals)
	SortProfessorRollups(rollups, params.SortBy, params.SortOrder)
	rollups = Truncate(rollups, limit)

	entries := make([]dto.ProfessorAnalyticsEntry, 0, len(rollups))
	for _, rollup := range rollups {
		entries = append(entries, dto.ProfessorAnalyticsEntry{
			ID:                     rollup.Professor.ID,
			Name:                   rollup.Professor.Name,
			Email:                  rollup.Professor.Email,
			TotalClassrooms:        rollup.TotalClassrooms,
			ActiveClassrooms:       rollup.ActiveClassrooms,
			TotalStudents:          rollup.DistinctStudents,
			TotalRatings:           rollup.Stats.RatedCount,
			AverageRating:          rollup.Stats.AverageRating,
			PositiveSentiments:     rollup.Stats.PositiveCount,
			NegativeSentiments:     rollup.Stats.NegativeCount,
			PositivePercentage:     rollup.Stats.PositivePercentage,
			FeedbackCompletionRate: rollup.Stats.CompletionRate,
		})
	}
	s.persistCache(ctx, cacheKey, entries)
	return entries, false, nil
}

// ClassroomAnalyticsParams filter the per-classroom rollup list.
type ClassroomAnalyticsParams struct {
	Status string
	Limit  int
}

// ClassroomAnalytics returns per-classroom rollups across the system.
func (s *AnalyticsService) ClassroomAnalytics(ctx context.Context, params ClassroomAnalyticsParams) ([]dto.ClassroomAnalyticsEntry, bool, error) {
	limit, err := s.normalizeLimit(params.Limit, defaultClassroomLimit)
	if err != nil {
		return nil, false, err
	}
	switch params.Status {
	case "", models.ClassroomStatusActive, models.ClassroomStatusArchived:
	default:
		return nil, false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", params.Status))
	}

	cacheKey := makeReportCacheKey("classrooms", params.Status, strconv.Itoa(limit))
	var cached []dto.ClassroomAnalyticsEntry
	if s.tryCache(ctx, cacheKey, &cached) {
		return cached, true, nil
	}

	start := time.Now()
	classrooms, err := s.roster.ListClassrooms(ctx, models.ClassroomFilter{Status: params.Status})
	if err != nil {
		return nil, false, err
	}
	evals, err := s.evals.ListEvaluations(ctx, models.EvaluationFilter{ClassroomStatus: params.Status})
	if err != nil {
		return nil, false, err
	}
	s.observeQuery("analytics_classrooms", start)

	rollups := Truncate(RollupByClassroom(classrooms, evals), limit)
	entries := make([]dto.ClassroomAnalyticsEntry, 0, len(rollups))
	for _, rollup := range rollups {
		entries = append(entries, dto.ClassroomAnalyticsEntry{
			ID:      rollup.Classroom.ID,
			Name:    rollup.Classroom.Name,
			Subject: rollup.Classroom.Subject,
			Status:  rollup.Classroom.Status,
			Code:    rollup.Classroom.Code,
			Professor: dto.ProfessorRef{
				ID:    rollup.Classroom.ProfessorID,
				Name:  rollup.Classroom.ProfessorName,
				Email: rollup.Classroom.ProfessorEmail,
			},
			TotalStudents:      rollup.Stats.PopulationSize,
			StudentsWithRating: rollup.Stats.RatedCount,
			AverageRating:      rollup.Stats.AverageRating,
			PositivePercentage: rollup.Stats.PositivePercentage,
			CompletionRate:     rollup.Stats.CompletionRate,
			AIAnalysis:         rollup.Classroom.AIAnalysis,
			AIRecommendation:   rollup.Classroom.AIRecommendation,
			CreatedAt:          rollup.Classroom.CreatedAt.Format(trendDateLayout),
		})
	}
	s.persistCache(ctx, cacheKey, entries)
	return entries, false, nil
}

// SubjectAnalytics returns per-subject rollups sorted by average rating
// descending, ties broken ascending by subject name.
func (s *AnalyticsService) SubjectAnalytics(ctx context.Context) ([]dto.SubjectAnalyticsEntry, bool, error) {
	cacheKey := makeReportCacheKey("subjects")
	var cached []dto.SubjectAnalyticsEntry
	if s.tryCache(ctx, cacheKey, &cached) {
		return cached, true, nil
	}

	start := time.Now()
	classrooms, err := s.roster.ListClassrooms(ctx, models.ClassroomFilter{})
	if err != nil {
		return nil, false, err
	}
	evals, err := s.evals.ListEvaluations(ctx, models.EvaluationFilter{})
	if err != nil {
		return nil, false, err
	}
	s.observeQuery("analytics_subjects", start)

	rollups := RollupBySubject(classrooms, evals)
	sort.SliceStable(rollups, func(i, j int) bool {
		a, b := rollups[i].Stats.AverageRating, rollups[j].Stats.AverageRating
		if a == b {
			return rollups[i].Subject < rollups[j].Subject
		}
		return a > b
	})

	entries := make([]dto.SubjectAnalyticsEntry, 0, len(rollups))
	for _, rollup := range rollups {
		entries = append(entries, dto.SubjectAnalyticsEntry{
			Subject:            rollup.Subject,
			TotalClassrooms:    rollup.TotalClassrooms,
			TotalEnrollments:   rollup.Stats.PopulationSize,
			TotalStudents:      rollup.DistinctStudents,
			TotalRatings:       rollup.Stats.RatedCount,
			AverageRating:      rollup.Stats.AverageRating,
			PositivePercentage: rollup.Stats.PositivePercentage,
			CompletionRate:     rollup.Stats.CompletionRate,
		})
	}
	s.persistCache(ctx, cacheKey, entries)
	return entries, false, nil
}

// StudentEngagement returns enrollment and activity metrics with a dense
// 1-5 rating histogram and the ten most active feedback givers.
func (s *AnalyticsService) StudentEngagement(ctx context.Context) (*dto.StudentEngagementReport, bool, error) {
	cacheKey := makeReportCacheKey("engagement")
	var cached dto.StudentEngagementReport
	if s.tryCache(ctx, cacheKey, &cached) {
		return &cached, true, nil
	}

	start := time.Now()
	evals, err := s.evals.ListEvaluations(ctx, models.EvaluationFilter{})
	if err != nil {
		return nil, false, err
	}
	totalStudents, err := s.roster.CountStudents(ctx)
	if err != nil {
		return nil, false, err
	}
	s.observeQuery("analytics_engagement", start)

	report := composeEngagement(evals, totalStudents)
	s.persistCache(ctx, cacheKey, report)
	return &report, false, nil
}

// Trends returns the four time series for the given lookback window.
func (s *AnalyticsService) Trends(ctx context.Context, days int) (*dto.SystemTrendsReport, bool, error) {
	if days == 0 {
		days = s.cfg.DefaultTrendDays
	}
	if days < 0 || days > s.cfg.MaxTrendDays {
		return nil, false, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("days must be between 1 and %d", s.cfg.MaxTrendDays))
	}

	cacheKey := makeReportCacheKey("trends", strconv.Itoa(days))
	var cached dto.SystemTrendsReport
	if s.tryCache(ctx, cacheKey, &cached) {
		return &cached, true, nil
	}

	since := s.now().AddDate(0, 0, -days)
	start := time.Now()
	professors, err := s.roster.ListProfessors(ctx, models.ProfessorFilter{CreatedSince: &since})
	if err != nil {
		return nil, false, err
	}
	classrooms, err := s.roster.ListClassrooms(ctx, models.ClassroomFilter{CreatedSince: &since})
	if err != nil {
		return nil, false, err
	}
	evals, err := s.evals.ListEvaluations(ctx, models.EvaluationFilter{UpdatedSince: &since})
	if err != nil {
		return nil, false, err
	}
	s.observeQuery("analytics_trends", start)

	professorStamps := make([]time.Time, 0, len(professors))
	for _, professor := range professors {
		professorStamps = append(professorStamps, professor.CreatedAt)
	}
	classroomStamps := make([]time.Time, 0, len(classrooms))
	for _, classroom := range classrooms {
		classroomStamps = append(classroomStamps, classroom.CreatedAt)
	}

	report := dto.SystemTrendsReport{
		Days:                   days,
		ProfessorRegistrations: BuildCreationTrend(professorStamps, since),
		ClassroomCreation:      BuildCreationTrend(classroomStamps, since),
		FeedbackTrends:         BuildFeedbackTrend(evals, since),
		SentimentTrends:        BuildSentimentTrend(evals, since),
	}
	s.persistCache(ctx, cacheKey, report)
	return &report, false, nil
}

// Moderation returns the low-rated classroom flags and the most recent
// negative feedback items for review.
func (s *AnalyticsService) Moderation(ctx context.Context, limit int) (*dto.ModerationReport, bool, error) {
	limit, err := s.normalizeLimit(limit, defaultModerationLimit)
	if err != nil {
		return nil, false, err
	}

	cacheKey := makeReportCacheKey("moderation", strconv.Itoa(limit))
	var cached dto.ModerationReport
	if s.tryCache(ctx, cacheKey, &cached) {
		return &cached, true, nil
	}

	start := time.Now()
	classrooms, err := s.roster.ListClassrooms(ctx, models.ClassroomFilter{})
	if err != nil {
		return nil, false, err
	}
	evals, err := s.evals.ListEvaluations(ctx, models.EvaluationFilter{})
	if err != nil {
		return nil, false, err
	}
	negatives, err := s.evals.ListEvaluations(ctx, models.EvaluationFilter{
		Sentiment:   models.SentimentNegative,
		WithComment: true,
		NewestFirst: true,
		Limit:       limit,
	})
	if err != nil {
		return nil, false, err
	}
	s.observeQuery("analytics_moderation", start)

	classroomByID := make(map[string]models.Classroom, len(classrooms))
	for _, classroom := range classrooms {
		classroomByID[classroom.ID] = classroom
	}

	items := make([]dto.NegativeFeedbackItem, 0, len(negatives))
	for _, ev := range negatives {
		classroom, ok := classroomByID[ev.ClassroomID]
		if !ok {
			// A feedback row pointing at a vanished classroom is a store
			// integrity fault, surfaced rather than silently skipped.
			return nil, false, appErrors.Clone(appErrors.ErrNotFound,
				fmt.Sprintf("classroom %s referenced by feedback %s not found", ev.ClassroomID, ev.ID))
		}
		comment := ""
		if ev.Comment != nil {
			comment = *ev.Comment
		}
		items = append(items, dto.NegativeFeedbackItem{
			ID:             ev.ID,
			ClassroomName:  classroom.Name,
			Subject:        classroom.Subject,
			ProfessorName:  classroom.ProfessorName,
			StudentName:    ev.StudentName,
			Rating:         ev.Rating,
			Comment:        comment,
			SentimentScore: ev.SentimentScore,
			Date:           ev.UpdatedAt.Format("Jan 2, 2006"),
		})
	}

	report := dto.ModerationReport{
		LowRatedClassrooms: FlagLowRated(RollupByClassroom(classrooms, evals), s.cfg.Moderation, limit),
		NegativeFeedback:   items,
	}
	s.persistCache(ctx, cacheKey, report)
	return &report, false, nil
}

// AIInsights reports summarizer coverage. The AI fields are opaque; only
// presence is counted.
func (s *AnalyticsService) AIInsights(ctx context.Context) (*dto.AIInsightsReport, bool, error) {
	cacheKey := makeReportCacheKey("ai-insights")
	var cached dto.AIInsightsReport
	if s.tryCache(ctx, cacheKey, &cached) {
		return &cached, true, nil
	}

	start := time.Now()
	classrooms, err := s.roster.ListClassrooms(ctx, models.ClassroomFilter{})
	if err != nil {
		return nil, false, err
	}
	s.observeQuery("analytics_ai_insights", start)

	var withAnalysis, withRecommendation int
	insights := make([]dto.AIInsightEntry, 0)
	for _, classroom := range classrooms {
		if classroom.AIAnalysis != nil {
			withAnalysis++
		}
		if classroom.AIRecommendation != nil {
			withRecommendation++
		}
		if classroom.AIAnalysis == nil && classroom.AIRecommendation == nil {
			continue
		}
		insights = append(insights, dto.AIInsightEntry{
			ClassroomID:      classroom.ID,
			ClassroomName:    classroom.Name,
			Subject:          classroom.Subject,
			ProfessorName:    classroom.ProfessorName,
			Status:           classroom.Status,
			AIAnalysis:       classroom.AIAnalysis,
			AIRecommendation: classroom.AIRecommendation,
		})
	}

	report := dto.AIInsightsReport{
		Summary: dto.AIInsightsSummary{
			TotalClassrooms:     len(classrooms),
			WithAnalysis:        withAnalysis,
			WithRecommendations: withRecommendation,
			CoveragePercentage:  percentOf(withAnalysis, len(classrooms)),
		},
		Insights: insights,
	}
	s.persistCache(ctx, cacheKey, report)
	return &report, false, nil
}

// Export composes the major sub-reports under one timestamp. It performs
// no new computation, and it fails as a whole when any sub-report fails:
// a partially filled export would be misleading to offline consumers.
func (s *AnalyticsService) Export(ctx context.Context) (*dto.ExportReport, error) {
	overview, _, err := s.Overview(ctx)
	if err != nil {
		return nil, fmt.Errorf("export overview: %w", err)
	}
	professorEntries, _, err := s.ProfessorAnalytics(ctx, ProfessorAnalyticsParams{})
	if err != nil {
		return nil, fmt.Errorf("export professor analytics: %w", err)
	}
	subjectEntries, _, err := s.SubjectAnalytics(ctx)
	if err != nil {
		return nil, fmt.Errorf("export subject analytics: %w", err)
	}
	engagement, _, err := s.StudentEngagement(ctx)
	if err != nil {
		return nil, fmt.Errorf("export student engagement: %w", err)
	}

	return &dto.ExportReport{
		ReportID:           uuid.NewString(),
		GeneratedAt:        s.now().UTC(),
		SystemOverview:     *overview,
		ProfessorAnalytics: professorEntries,
		SubjectAnalytics:   subjectEntries,
		StudentEngagement:  *engagement,
	}, nil
}

func composeOverview(professors []models.Professor, classrooms []models.Classroom, evals []models.Evaluation, totalStudents int) dto.SystemOverviewReport {
	stats := SummarizeEvaluations(evals)

	owners := make(map[string]struct{})
	var active int
	for _, classroom := range classrooms {
		owners[classroom.ProfessorID] = struct{}{}
		if classroom.Status == models.ClassroomStatusActive {
			active++
		}
	}

	enrolled := make(map[string]struct{})
	withFeedback := make(map[string]struct{})
	for _, ev := range evals {
		enrolled[ev.StudentID] = struct{}{}
		if ev.HasFeedback() {
			withFeedback[ev.StudentID] = struct{}{}
		}
	}

	var avgPerClassroom float64
	if len(classrooms) > 0 {
		avgPerClassroom = round2(float64(len(evals)) / float64(len(classrooms)))
	}

	return dto.SystemOverviewReport{
		Professors: dto.ProfessorCounts{
			Total:             len(professors),
			WithClassrooms:    len(owners),
			WithoutClassrooms: len(professors) - len(owners),
		},
		Students: dto.StudentCounts{
			Total:        totalStudents,
			Enrolled:     len(enrolled),
			WithFeedback: len(withFeedback),
		},
		Classrooms: dto.ClassroomCounts{
			Total:                   len(classrooms),
			Active:                  active,
			Inactive:                len(classrooms) - active,
			AvgStudentsPerClassroom: avgPerClassroom,
		},
		Feedback: dto.FeedbackTotals{
			TotalFeedback:  stats.FeedbackCount,
			AverageRating:  stats.AverageRating,
			CompletionRate: stats.CompletionRate,
		},
		Sentiment: dto.SentimentSummary{
			Positive:           stats.PositiveCount,
			Negative:           stats.NegativeCount,
			Neutral:            stats.NeutralCount,
			PositivePercentage: stats.PositivePercentage,
		},
	}
}

func composeEngagement(evals []models.Evaluation, totalStudents int) dto.StudentEngagementReport {
	enrolled := make(map[string]struct{})
	type studentAcc struct {
		name      string
		email     string
		count     int
		ratingSum int
	}
	activeStudents := make(map[string]*studentAcc)
	histogram := [5]int{}

	for _, ev := range evals {
		enrolled[ev.StudentID] = struct{}{}
		if ev.Rating != nil && *ev.Rating >= 1 && *ev.Rating <= 5 {
			histogram[*ev.Rating-1]++
		}
		if !ev.HasFeedback() {
			continue
		}
		acc := activeStudents[ev.StudentID]
		if acc == nil {
			acc = &studentAcc{name: ev.StudentName, email: ev.StudentEmail}
			activeStudents[ev.StudentID] = acc
		}
		acc.count++
		acc.ratingSum += *ev.Rating
	}

	var avgClassrooms float64
	if len(enrolled) > 0 {
		avgClassrooms = round2(float64(len(evals)) / float64(len(enrolled)))
	}

	buckets := make([]dto.RatingBucket, 5)
	for i := range buckets {
		buckets[i] = dto.RatingBucket{Rating: i + 1, Count: histogram[i]}
	}

	top := make([]dto.ActiveStudent, 0, len(activeStudents))
	for id, acc := range activeStudents {
		top = append(top, dto.ActiveStudent{
			StudentID:          id,
			StudentName:        acc.name,
			StudentEmail:       acc.email,
			FeedbackCount:      acc.count,
			AverageRatingGiven: round2(float64(acc.ratingSum) / float64(acc.count)),
		})
	}
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].FeedbackCount == top[j].FeedbackCount {
			return top[i].StudentID < top[j].StudentID
		}
		return top[i].FeedbackCount > top[j].FeedbackCount
	})
	top = Truncate(top, engagementTopN)

	return dto.StudentEngagementReport{
		Overview: dto.EngagementOverview{
			TotalStudents:           totalStudents,
			EnrolledStudents:        len(enrolled),
			ActiveStudents:          len(activeStudents),
			EngagementRate:          percentOf(len(activeStudents), totalStudents),
			AvgClassroomsPerStudent: avgClassrooms,
		},
		RatingHistogram:   buckets,
		TopActiveStudents: top,
	}
}

func (s *AnalyticsService) normalizeLimit(limit, fallback int) (int, error) {
	if limit == 0 {
		return fallback, nil
	}
	if limit < 0 || limit > s.cfg.MaxLimit {
		return 0, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("limit must be between 1 and %d", s.cfg.MaxLimit))
	}
	return limit, nil
}

// tryCache reports whether a cached report filled dest. Cache transport
// failures degrade to a recompute instead of failing the report.
func (s *AnalyticsService) tryCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	return err == nil && hit
}

func (s *AnalyticsService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *AnalyticsService) observeQuery(label string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveDBQuery(label, time.Since(start))
	}
}

func makeReportCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(parts) * 16)
	builder.WriteString("reports")
	for _, part := range parts {
		if part == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}
