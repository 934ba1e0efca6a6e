package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/edupulse/feedback-api/internal/models"
)

// EvaluationRepository reads enrollment rows joined with student and
// classroom identity. The analytics layer treats it as read-only.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs an EvaluationRepository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// ListEvaluations returns enrollment rows matching the filter. Rows come
// back in creation order with the row ID as tie-break so repeated calls
// over the same data produce identical slices.
func (r *EvaluationRepository) ListEvaluations(ctx context.Context, filter models.EvaluationFilter) ([]models.Evaluation, error) {
	base := `FROM classroom_students cs
        JOIN students s ON s.id = cs.student_id
        JOIN classrooms c ON c.id = cs.classroom_id`
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.ProfessorID != "" {
		conditions = append(conditions, fmt.Sprintf("c.professor_id = $%d", len(args)+1))
		args = append(args, filter.ProfessorID)
	}
	if filter.ClassroomID != "" {
		conditions = append(conditions, fmt.Sprintf("cs.classroom_id = $%d", len(args)+1))
		args = append(args, filter.ClassroomID)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("c.subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.ClassroomStatus != "" {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", len(args)+1))
		args = append(args, filter.ClassroomStatus)
	}
	if filter.Sentiment != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(cs.sentiment) = $%d", len(args)+1))
		args = append(args, strings.ToLower(filter.Sentiment))
	}
	if filter.RatedOnly {
		conditions = append(conditions, "cs.rating IS NOT NULL")
	}
	if filter.WithComment {
		conditions = append(conditions, "cs.comment IS NOT NULL")
	}
	if filter.UpdatedSince != nil {
		conditions = append(conditions, fmt.Sprintf("cs.updated_at >= $%d", len(args)+1))
		args = append(args, *filter.UpdatedSince)
	}

	orderBy := "cs.created_at ASC, cs.id ASC"
	if filter.NewestFirst {
		orderBy = "cs.updated_at DESC, cs.id ASC"
	}

	query := fmt.Sprintf(`SELECT cs.id, cs.student_id, s.name AS student_name, s.email AS student_email,
        cs.classroom_id, cs.rating, cs.comment, cs.sentiment, cs.sentiment_score, cs.created_at, cs.updated_at
        %s WHERE %s ORDER BY %s`, base, strings.Join(conditions, " AND "), orderBy)
	if filter.Limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, filter.Limit)
	}

	var evals []models.Evaluation
	if err := r.db.SelectContext(ctx, &evals, query, args...); err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}

	for i := range evals {
		if evals[i].Sentiment == nil {
			continue
		}
		if normalized := models.NormalizeSentiment(*evals[i].Sentiment); normalized == "" {
			evals[i].Sentiment = nil
		} else {
			evals[i].Sentiment = &normalized
		}
	}
	return evals, nil
}
