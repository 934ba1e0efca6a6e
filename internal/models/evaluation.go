package models

import (
	"strings"
	"time"
)

// Sentiment labels as stored on evaluation rows. Labels are normalised to
// lower case at scan time; legacy rows written by the classifier used mixed
// casing.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// NormalizeSentiment lowers the label and maps anything outside the known
// set to the empty string.
func NormalizeSentiment(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case SentimentPositive:
		return SentimentPositive
	case SentimentNegative:
		return SentimentNegative
	case SentimentNeutral:
		return SentimentNeutral
	default:
		return ""
	}
}

// Evaluation is one student's enrollment row in one classroom, including the
// feedback fields once the student has evaluated. Rating and comment are set
// together; sentiment fields are derived externally from the comment.
type Evaluation struct {
	ID             string     `db:"id" json:"id"`
	StudentID      string     `db:"student_id" json:"student_id"`
	StudentName    string     `db:"student_name" json:"student_name"`
	StudentEmail   string     `db:"student_email" json:"student_email"`
	ClassroomID    string     `db:"classroom_id" json:"classroom_id"`
	Rating         *int       `db:"rating" json:"rating,omitempty"`
	Comment        *string    `db:"comment" json:"comment,omitempty"`
	Sentiment      *string    `db:"sentiment" json:"sentiment,omitempty"`
	SentimentScore *float64   `db:"sentiment_score" json:"sentiment_score,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Rated reports whether the student has submitted a rating.
func (e Evaluation) Rated() bool {
	return e.Rating != nil
}

// HasFeedback reports whether the row carries a full evaluation (rating and
// comment).
func (e Evaluation) HasFeedback() bool {
	return e.Rating != nil && e.Comment != nil
}

// EvaluationFilter scopes evaluation queries. Zero values mean "no filter".
type EvaluationFilter struct {
	ProfessorID     string
	ClassroomID     string
	Subject         string
	ClassroomStatus string
	Sentiment       string
	RatedOnly       bool
	WithComment     bool
	UpdatedSince    *time.Time
	NewestFirst     bool
	Limit           int
}
