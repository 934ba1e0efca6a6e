package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse/feedback-api/internal/models"
)

func TestRosterRepositoryListProfessors(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "created_at"}).
		AddRow("p1", "Prof One", "p1@example.edu", time.Now()).
		AddRow("p2", "Prof Two", "p2@example.edu", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, created_at FROM professors ORDER BY created_at ASC, id ASC")).
		WillReturnRows(rows)

	professors, err := repo.ListProfessors(context.Background(), models.ProfessorFilter{})
	require.NoError(t, err)
	assert.Len(t, professors, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryListProfessorsSince(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM professors WHERE created_at >= $1")).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at"}))

	professors, err := repo.ListProfessors(context.Background(), models.ProfessorFilter{CreatedSince: &since})
	require.NoError(t, err)
	assert.Empty(t, professors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryFindProfessorNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM professors WHERE id = $1")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindProfessor(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryListClassrooms(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "subject", "status", "code", "professor_id",
		"professor_name", "professor_email", "ai_analysis", "ai_recommendation", "created_at"}).
		AddRow("c1", "Algebra", "Math", "active", "ALG101", "p1", "Prof One", "p1@example.edu", nil, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("c.status = $1")).
		WithArgs(models.ClassroomStatusActive).
		WillReturnRows(rows)

	classrooms, err := repo.ListClassrooms(context.Background(), models.ClassroomFilter{Status: models.ClassroomStatusActive})
	require.NoError(t, err)
	require.Len(t, classrooms, 1)
	assert.Equal(t, "Prof One", classrooms[0].ProfessorName)
	assert.Nil(t, classrooms[0].AIAnalysis)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryCountStudents(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	total, err := repo.CountStudents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
