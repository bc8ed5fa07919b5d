package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// WaitlistRepository persists class waitlists.
type WaitlistRepository struct {
	db *sqlx.DB
}

// NewWaitlistRepository constructs a WaitlistRepository.
func NewWaitlistRepository(db *sqlx.DB) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

func (r *WaitlistRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindWaitlistByClass returns a class's entries ordered by position.
func (r *WaitlistRepository) FindWaitlistByClass(ctx context.Context, exec sqlx.ExtContext, classID string) ([]models.WaitlistEntry, error) {
	const query = `SELECT id, class_id, student_id, position, created_at FROM waitlist_entries WHERE class_id = $1 ORDER BY position ASC`
	entries := []models.WaitlistEntry{}
	if err := sqlx.SelectContext(ctx, r.exec(exec), &entries, query, classID); err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	return entries, nil
}

// Insert stores a new entry at its computed position.
func (r *WaitlistRepository) Insert(ctx context.Context, exec sqlx.ExtContext, entry *models.WaitlistEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO waitlist_entries (id, class_id, student_id, position, created_at)
VALUES (:id, :class_id, :student_id, :position, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, entry); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert waitlist entry: %w", err)
	}
	return nil
}

// ApplyChange deletes the removed entry and shifts every later position up by one. The number of
// shifted rows must match the change, otherwise the queue drifted from the snapshot.
func (r *WaitlistRepository) ApplyChange(ctx context.Context, exec sqlx.ExtContext, change models.WaitlistChange) error {
	if change.Removed == nil {
		return nil
	}
	target := r.exec(exec)
	removed := change.Removed

	if _, err := target.ExecContext(ctx, `DELETE FROM waitlist_entries WHERE class_id = $1 AND student_id = $2`, removed.ClassID, removed.StudentID); err != nil {
		return fmt.Errorf("delete waitlist entry: %w", err)
	}
	res, err := target.ExecContext(ctx, `UPDATE waitlist_entries SET position = position - 1 WHERE class_id = $1 AND position > $2`, removed.ClassID, removed.Position)
	if err != nil {
		return fmt.Errorf("compact waitlist: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("compact waitlist: %w", err)
	}
	if int(affected) != len(change.Shifted) {
		return fmt.Errorf("compact waitlist: shifted %d rows, expected %d", affected, len(change.Shifted))
	}
	return nil
}
