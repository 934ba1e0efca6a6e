package models

import "time"

// Classroom statuses.
const (
	ClassroomStatusActive   = "active"
	ClassroomStatusArchived = "archived"
)

// Classroom carries classroom identity plus its owning professor, as joined
// by the roster queries. AI fields hold opaque summarizer output; analytics
// only checks their presence.
type Classroom struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Subject          string    `db:"subject" json:"subject"`
	Status           string    `db:"status" json:"status"`
	Code             string    `db:"code" json:"code"`
	ProfessorID      string    `db:"professor_id" json:"professor_id"`
	ProfessorName    string    `db:"professor_name" json:"professor_name"`
	ProfessorEmail   string    `db:"professor_email" json:"professor_email"`
	AIAnalysis       *string   `db:"ai_analysis" json:"ai_analysis,omitempty"`
	AIRecommendation *string   `db:"ai_recommendation" json:"ai_recommendation,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// ClassroomFilter scopes classroom roster queries.
type ClassroomFilter struct {
	ProfessorID  string
	Status       string
	CreatedSince *time.Time
}

// Professor is the roster identity of a classroom owner.
type Professor struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ProfessorFilter scopes professor roster queries.
type ProfessorFilter struct {
	CreatedSince *time.Time
}
