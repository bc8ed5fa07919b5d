package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// ClassRepository reads classes and their derived seat usage.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID fetches a class. It returns sql.ErrNoRows when missing.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, name, subject_id, capacity, created_at, updated_at FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindOccupancy fetches a class with its active enrollment count. It returns sql.ErrNoRows when missing.
func (r *ClassRepository) FindOccupancy(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ClassOccupancy, error) {
	if exec == nil {
		exec = r.db
	}
	const query = `SELECT c.id, c.name, c.subject_id, c.capacity, c.created_at, c.updated_at,
COUNT(e.id) FILTER (WHERE e.status = 'ACTIVE') AS enrolled
FROM classes c LEFT JOIN enrollments e ON e.class_id = c.id
WHERE c.id = $1
GROUP BY c.id`
	var occupancy models.ClassOccupancy
	if err := sqlx.GetContext(ctx, exec, &occupancy, query, id); err != nil {
		return nil, err
	}
	return &occupancy, nil
}
