package dto

import "time"

// SentimentBreakdown counts evaluations per sentiment label.
type SentimentBreakdown struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// SystemOverviewReport is the admin landing summary.
type SystemOverviewReport struct {
	Professors ProfessorCounts  `json:"professors"`
	Students   StudentCounts    `json:"students"`
	Classrooms ClassroomCounts  `json:"classrooms"`
	Feedback   FeedbackTotals   `json:"feedback"`
	Sentiment  SentimentSummary `json:"sentiment"`
}

type ProfessorCounts struct {
	Total             int `json:"total"`
	WithClassrooms    int `json:"active_with_classrooms"`
	WithoutClassrooms int `json:"without_classrooms"`
}

type StudentCounts struct {
	Total        int `json:"total"`
	Enrolled     int `json:"enrolled"`
	WithFeedback int `json:"with_feedback"`
}

type ClassroomCounts struct {
	Total                   int     `json:"total"`
	Active                  int     `json:"active"`
	Inactive                int     `json:"inactive"`
	AvgStudentsPerClassroom float64 `json:"avg_students_per_classroom"`
}

type FeedbackTotals struct {
	TotalFeedback  int     `json:"total_feedback"`
	AverageRating  float64 `json:"average_rating"`
	CompletionRate float64 `json:"completion_rate"`
}

type SentimentSummary struct {
	Positive           int     `json:"positive"`
	Negative           int     `json:"negative"`
	Neutral            int     `json:"neutral"`
	PositivePercentage float64 `json:"positive_percentage"`
}

// ProfessorOverviewReport is the professor-scoped dashboard summary,
// restricted to that professor's active classrooms.
type ProfessorOverviewReport struct {
	TotalClassrooms       int                `json:"total_classrooms"`
	TotalStudents         int                `json:"total_classroom_students"`
	StudentsWithFeedback  int                `json:"students_with_feedback"`
	AverageRating         float64            `json:"average_rating"`
	SentimentDistribution SentimentBreakdown `json:"sentiment_distribution"`
	PositivePercentage    float64            `json:"positive_percentage"`
}

// ProfessorAnalyticsEntry is one row of the ranked professor rollup.
type ProfessorAnalyticsEntry struct {
	ID                     string  `json:"id"`
	Name                   string  `json:"name"`
	Email                  string  `json:"email"`
	TotalClassrooms        int     `json:"total_classrooms"`
	ActiveClassrooms       int     `json:"active_classrooms"`
	TotalStudents          int     `json:"total_students"`
	TotalRatings           int     `json:"total_ratings"`
	AverageRating          float64 `json:"average_rating"`
	PositiveSentiments     int     `json:"positive_sentiments"`
	NegativeSentiments     int     `json:"negative_sentiments"`
	PositivePercentage     float64 `json:"positive_percentage"`
	FeedbackCompletionRate float64 `json:"feedback_completion_rate"`
}

// ProfessorRef is embedded classroom-owner identity.
type ProfessorRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ClassroomAnalyticsEntry is one row of the per-classroom rollup.
type ClassroomAnalyticsEntry struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Subject            string       `json:"subject"`
	Status             string       `json:"status"`
	Code               string       `json:"code"`
	Professor          ProfessorRef `json:"professor"`
	TotalStudents      int          `json:"total_students"`
	StudentsWithRating int          `json:"students_with_ratings"`
	AverageRating      float64      `json:"average_rating"`
	PositivePercentage float64      `json:"positive_sentiment_percentage"`
	CompletionRate     float64      `json:"feedback_completion_rate"`
	AIAnalysis         *string      `json:"ai_analysis"`
	AIRecommendation   *string      `json:"ai_recommendation"`
	CreatedAt          string       `json:"created_at"`
}

// SubjectAnalyticsEntry aggregates all classrooms sharing a subject.
type SubjectAnalyticsEntry struct {
	Subject            string  `json:"subject"`
	TotalClassrooms    int     `json:"total_classrooms"`
	TotalEnrollments   int     `json:"total_enrollments"`
	TotalStudents      int     `json:"total_students"`
	TotalRatings       int     `json:"total_ratings"`
	AverageRating      float64 `json:"average_rating"`
	PositivePercentage float64 `json:"positive_sentiment_percentage"`
	CompletionRate     float64 `json:"feedback_completion_rate"`
}

// StudentEngagementReport summarises platform-wide student activity.
type StudentEngagementReport struct {
	Overview          EngagementOverview `json:"overview"`
	RatingHistogram   []RatingBucket     `json:"rating_distribution"`
	TopActiveStudents []ActiveStudent    `json:"top_active_students"`
}

type EngagementOverview struct {
	TotalStudents           int     `json:"total_students"`
	EnrolledStudents        int     `json:"enrolled_students"`
	ActiveStudents          int     `json:"active_students"`
	EngagementRate          float64 `json:"engagement_rate"`
	AvgClassroomsPerStudent float64 `json:"avg_classrooms_per_student"`
}

// RatingBucket is one bar of the dense 1-5 histogram. Every rating value
// appears even when its count is zero.
type RatingBucket struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

type ActiveStudent struct {
	StudentID          string  `json:"student_id"`
	StudentName        string  `json:"student_name"`
	StudentEmail       string  `json:"student_email"`
	FeedbackCount      int     `json:"feedback_count"`
	AverageRatingGiven float64 `json:"average_rating_given"`
}

// TrendPoint is a single day of an event-count series. Days without
// activity are omitted.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// FeedbackTrendPoint is a single day of feedback volume with that day's
// average rating.
type FeedbackTrendPoint struct {
	Date          string  `json:"date"`
	Count         int     `json:"count"`
	AverageRating float64 `json:"avg_rating"`
}

// SentimentTrendPoint is a single day's sentiment mix. Percentages use one
// decimal place, unlike the two decimals used by the other reports.
type SentimentTrendPoint struct {
	Date               string  `json:"date"`
	Positive           int     `json:"positive_count"`
	Negative           int     `json:"negative_count"`
	Neutral            int     `json:"neutral_count"`
	Total              int     `json:"total_feedback"`
	PositivePercentage float64 `json:"positive_percentage"`
	NegativePercentage float64 `json:"negative_percentage"`
	NeutralPercentage  float64 `json:"neutral_percentage"`
}

// SystemTrendsReport bundles the four time series.
type SystemTrendsReport struct {
	Days                   int                   `json:"days"`
	ProfessorRegistrations []TrendPoint          `json:"professor_registrations"`
	ClassroomCreation      []TrendPoint          `json:"classroom_creation"`
	FeedbackTrends         []FeedbackTrendPoint  `json:"feedback_trends"`
	SentimentTrends        []SentimentTrendPoint `json:"sentiment_trends"`
}

// ModerationReport pairs flagged classrooms with recent negative feedback.
type ModerationReport struct {
	LowRatedClassrooms []LowRatedClassroom    `json:"low_rated_classrooms"`
	NegativeFeedback   []NegativeFeedbackItem `json:"negative_feedback"`
}

type LowRatedClassroom struct {
	ClassroomID    string  `json:"classroom_id"`
	ClassroomName  string  `json:"classroom_name"`
	Subject        string  `json:"subject"`
	ProfessorName  string  `json:"professor_name"`
	ProfessorEmail string  `json:"professor_email"`
	AverageRating  float64 `json:"average_rating"`
	TotalRatings   int     `json:"total_ratings"`
	Status         string  `json:"status"`
	Reason         string  `json:"threshold_reason"`
}

type NegativeFeedbackItem struct {
	ID             string   `json:"id"`
	ClassroomName  string   `json:"classroom_name"`
	Subject        string   `json:"subject"`
	ProfessorName  string   `json:"professor_name"`
	StudentName    string   `json:"student_name"`
	Rating         *int     `json:"rating"`
	Comment        string   `json:"comment"`
	SentimentScore *float64 `json:"sentiment_score"`
	Date           string   `json:"date"`
}

// AIInsightsReport summarises AI summarizer coverage across classrooms.
type AIInsightsReport struct {
	Summary  AIInsightsSummary `json:"summary"`
	Insights []AIInsightEntry  `json:"ai_insights"`
}

type AIInsightsSummary struct {
	TotalClassrooms     int     `json:"total_classrooms"`
	WithAnalysis        int     `json:"with_ai_analysis"`
	WithRecommendations int     `json:"with_ai_recommendations"`
	CoveragePercentage  float64 `json:"ai_coverage_percentage"`
}

type AIInsightEntry struct {
	ClassroomID      string  `json:"classroom_id"`
	ClassroomName    string  `json:"classroom_name"`
	Subject          string  `json:"subject"`
	ProfessorName    string  `json:"professor_name"`
	Status           string  `json:"status"`
	AIAnalysis       *string `json:"ai_analysis"`
	AIRecommendation *string `json:"ai_recommendation"`
}

// ExportReport composes the major sub-reports under one timestamp. It
// performs no computation of its own.
type ExportReport struct {
	ReportID           string                    `json:"report_id"`
	GeneratedAt        time.Time                 `json:"generated_at"`
	SystemOverview     SystemOverviewReport      `json:"system_overview"`
	ProfessorAnalytics []ProfessorAnalyticsEntry `json:"professor_analytics"`
	SubjectAnalytics   []SubjectAnalyticsEntry   `json:"subject_analytics"`
	StudentEngagement  StudentEngagementReport   `json:"student_engagement"`
}
