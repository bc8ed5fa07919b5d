package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

const timeSlotColumns = "id, day_of_week, start_time, end_time, class_id, subject_id, teacher_id, room_id, status, created_at, updated_at"

var resourceColumns = map[models.ResourceType]string{
	models.ResourceTeacher: "teacher_id",
	models.ResourceRoom:    "room_id",
	models.ResourceClass:   "class_id",
}

// TimeSlotRepository persists weekly time slots.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository constructs a TimeSlotRepository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

func (r *TimeSlotRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns slots matching the filter along with the total count.
func (r *TimeSlotRepository) List(ctx context.Context, filter models.TimeSlotFilter) ([]models.TimeSlot, int, error) {
	base := "FROM time_slots WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.DayOfWeek != nil {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, *filter.DayOfWeek)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY day_of_week ASC, start_time ASC, id ASC LIMIT %d OFFSET %d", timeSlotColumns, base, size, offset)
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list time slots: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count time slots: %w", err)
	}
	return slots, total, nil
}

// FindByID fetches a slot. It returns sql.ErrNoRows when missing.
func (r *TimeSlotRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.TimeSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM time_slots WHERE id = $1", timeSlotColumns)
	var slot models.TimeSlot
	if err := sqlx.GetContext(ctx, r.exec(exec), &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// FindSlotsByResource returns the non-cancelled slots a resource holds on a weekday.
func (r *TimeSlotRepository) FindSlotsByResource(ctx context.Context, resource models.ResourceType, resourceID string, day int) ([]models.TimeSlot, error) {
	column, ok := resourceColumns[resource]
	if !ok {
		return nil, fmt.Errorf("unknown resource type %q", resource)
	}
	query := fmt.Sprintf("SELECT %s FROM time_slots WHERE %s = $1 AND day_of_week = $2 AND status <> $3 ORDER BY start_time ASC", timeSlotColumns, column)
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, resourceID, day, models.TimeSlotStatusCancelled); err != nil {
		return nil, fmt.Errorf("find %s slots: %w", strings.ToLower(string(resource)), err)
	}
	return slots, nil
}

// FindActiveForCandidate loads every non-cancelled slot on day sharing the teacher, room or class.
func (r *TimeSlotRepository) FindActiveForCandidate(ctx context.Context, exec sqlx.ExtContext, candidate models.TimeSlot) ([]models.TimeSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM time_slots
WHERE day_of_week = $1 AND status <> $2 AND (teacher_id = $3 OR room_id = $4 OR class_id = $5)
ORDER BY start_time ASC, id ASC`, timeSlotColumns)
	var slots []models.TimeSlot
	if err := sqlx.SelectContext(ctx, r.exec(exec), &slots, query, candidate.DayOfWeek, models.TimeSlotStatusCancelled, candidate.TeacherID, candidate.RoomID, candidate.ClassID); err != nil {
		return nil, fmt.Errorf("find candidate conflicts: %w", err)
	}
	return slots, nil
}

// ListByResource returns a resource's non-cancelled slots across the week.
func (r *TimeSlotRepository) ListByResource(ctx context.Context, resource models.ResourceType, resourceID string) ([]models.TimeSlot, error) {
	column, ok := resourceColumns[resource]
	if !ok {
		return nil, fmt.Errorf("unknown resource type %q", resource)
	}
	query := fmt.Sprintf("SELECT %s FROM time_slots WHERE %s = $1 AND status <> $2 ORDER BY day_of_week ASC, start_time ASC", timeSlotColumns, column)
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, resourceID, models.TimeSlotStatusCancelled); err != nil {
		return nil, fmt.Errorf("list %s timetable: %w", strings.ToLower(string(resource)), err)
	}
	return slots, nil
}

// Create inserts a new slot.
func (r *TimeSlotRepository) Create(ctx context.Context, exec sqlx.ExtContext, slot *models.TimeSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if slot.Status == "" {
		slot.Status = models.TimeSlotStatusScheduled
	}
	now := time.Now().UTC()
	slot.CreatedAt = now
	slot.UpdatedAt = now

	const query = `INSERT INTO time_slots (id, day_of_week, start_time, end_time, class_id, subject_id, teacher_id, room_id, status, created_at, updated_at)
VALUES (:id, :day_of_week, :start_time, :end_time, :class_id, :subject_id, :teacher_id, :room_id, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, slot); err != nil {
		return fmt.Errorf("create time slot: %w", err)
	}
	return nil
}

// Update overwrites every mutable column of a slot.
func (r *TimeSlotRepository) Update(ctx context.Context, exec sqlx.ExtContext, slot *models.TimeSlot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE time_slots SET day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, class_id = :class_id,
subject_id = :subject_id, teacher_id = :teacher_id, room_id = :room_id, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, slot); err != nil {
		return fmt.Errorf("update time slot: %w", err)
	}
	return nil
}
