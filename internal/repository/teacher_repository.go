package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// TeacherRepository reads teachers and their subject qualifications.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, full_name, email, active, created_at, updated_at FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ListQualifiedTeachers returns active teachers qualified for the subject, ordered by name.
func (r *TeacherRepository) ListQualifiedTeachers(ctx context.Context, subjectID string) ([]models.Teacher, error) {
	const query = `SELECT t.id, t.full_name, t.email, t.active, t.created_at, t.updated_at
FROM teachers t JOIN teacher_subjects ts ON ts.teacher_id = t.id
WHERE ts.subject_id = $1 AND t.active = TRUE
ORDER BY t.full_name ASC, t.id ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, subjectID); err != nil {
		return nil, fmt.Errorf("list qualified teachers: %w", err)
	}
	return teachers, nil
}
