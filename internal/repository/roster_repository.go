package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/edupulse/feedback-api/internal/models"
)

// RosterRepository reads professor and classroom identity.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs a RosterRepository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// ListProfessors returns professors matching the filter, oldest first.
func (r *RosterRepository) ListProfessors(ctx context.Context, filter models.ProfessorFilter) ([]models.Professor, error) {
	query := "SELECT id, name, email, created_at FROM professors"
	args := []interface{}{}
	if filter.CreatedSince != nil {
		query += " WHERE created_at >= $1"
		args = append(args, *filter.CreatedSince)
	}
	query += " ORDER BY created_at ASC, id ASC"

	var professors []models.Professor
	if err := r.db.SelectContext(ctx, &professors, query, args...); err != nil {
		return nil, fmt.Errorf("list professors: %w", err)
	}
	return professors, nil
}

// FindProfessor fetches one professor by ID. A missing row surfaces as
// sql.ErrNoRows for the service layer to map.
func (r *RosterRepository) FindProfessor(ctx context.Context, id string) (*models.Professor, error) {
	const query = "SELECT id, name, email, created_at FROM professors WHERE id = $1"
	var professor models.Professor
	if err := r.db.GetContext(ctx, &professor, query, id); err != nil {
		return nil, err
	}
	return &professor, nil
}

// ListClassrooms returns classrooms with their owning professor joined in.
func (r *RosterRepository) ListClassrooms(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.ProfessorID != "" {
		conditions = append(conditions, fmt.Sprintf("c.professor_id = $%d", len(args)+1))
		args = append(args, filter.ProfessorID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.CreatedSince != nil {
		conditions = append(conditions, fmt.Sprintf("c.created_at >= $%d", len(args)+1))
		args = append(args, *filter.CreatedSince)
	}

	query := fmt.Sprintf(`SELECT c.id, c.name, c.subject, c.status, c.code, c.professor_id,
        p.name AS professor_name, p.email AS professor_email,
        c.ai_analysis, c.ai_recommendation, c.created_at
        FROM classrooms c
        JOIN professors p ON p.id = c.professor_id
        WHERE %s ORDER BY c.created_at ASC, c.id ASC`, strings.Join(conditions, " AND "))

	var classrooms []models.Classroom
	if err := r.db.SelectContext(ctx, &classrooms, query, args...); err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	return classrooms, nil
}

// CountStudents returns the total number of registered students, enrolled
// or not.
func (r *RosterRepository) CountStudents(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students"); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}
