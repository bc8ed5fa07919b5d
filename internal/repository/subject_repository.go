package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// SubjectRepository reads subjects and manages the prerequisite edge table.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

func (r *SubjectRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID fetches a subject without prerequisites. It returns sql.ErrNoRows when missing.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, code, name, is_mandatory, is_active, created_at, updated_at FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindSubjectWithPrerequisites fetches a subject with its direct prerequisites in declared order.
func (r *SubjectRepository) FindSubjectWithPrerequisites(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	const query = `SELECT s.id, s.code, s.name FROM subject_prerequisites sp
JOIN subjects s ON s.id = sp.prerequisite_id
WHERE sp.subject_id = $1 ORDER BY sp.position ASC`
	prereqs := []models.SubjectRef{}
	if err := r.db.SelectContext(ctx, &prereqs, query, id); err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}
	subject.Prerequisites = prereqs
	return subject, nil
}

// ListRefs resolves display data for a set of subject ids.
func (r *SubjectRepository) ListRefs(ctx context.Context, ids []string) ([]models.SubjectRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, code, name FROM subjects WHERE id = ANY($1)`
	var refs []models.SubjectRef
	if err := r.db.SelectContext(ctx, &refs, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list subject refs: %w", err)
	}
	return refs, nil
}

// ListEdges returns the whole prerequisite edge table.
func (r *SubjectRepository) ListEdges(ctx context.Context, exec sqlx.ExtContext) ([]models.PrerequisiteEdge, error) {
	const query = `SELECT subject_id, prerequisite_id, position FROM subject_prerequisites ORDER BY subject_id ASC, position ASC`
	var edges []models.PrerequisiteEdge
	if err := sqlx.SelectContext(ctx, r.exec(exec), &edges, query); err != nil {
		return nil, fmt.Errorf("list prerequisite edges: %w", err)
	}
	return edges, nil
}

// AddEdge appends prerequisiteID to the end of subjectID's prerequisite list.
func (r *SubjectRepository) AddEdge(ctx context.Context, exec sqlx.ExtContext, subjectID, prerequisiteID string) (*models.PrerequisiteEdge, error) {
	const query = `INSERT INTO subject_prerequisites (subject_id, prerequisite_id, position)
SELECT $1, $2, COALESCE(MAX(position), 0) + 1 FROM subject_prerequisites WHERE subject_id = $1
RETURNING subject_id, prerequisite_id, position`
	var edge models.PrerequisiteEdge
	if err := sqlx.GetContext(ctx, r.exec(exec), &edge, query, subjectID, prerequisiteID); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("add prerequisite edge: %w", err)
	}
	return &edge, nil
}

// RemoveEdge deletes a direct edge and reports whether a row was removed.
func (r *SubjectRepository) RemoveEdge(ctx context.Context, exec sqlx.ExtContext, subjectID, prerequisiteID string) (bool, error) {
	const query = `DELETE FROM subject_prerequisites WHERE subject_id = $1 AND prerequisite_id = $2`
	res, err := r.exec(exec).ExecContext(ctx, query, subjectID, prerequisiteID)
	if err != nil {
		return false, fmt.Errorf("remove prerequisite edge: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove prerequisite edge: %w", err)
	}
	return affected > 0, nil
}
