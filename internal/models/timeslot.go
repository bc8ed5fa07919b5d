package models

import "time"

// TimeSlotStatus tracks the lifecycle of a scheduled slot.
type TimeSlotStatus string

// Slot statuses. Cancelled slots are kept for audit and never participate in conflicts.
const (
	TimeSlotStatusScheduled TimeSlotStatus = "SCHEDULED"
	TimeSlotStatusCancelled TimeSlotStatus = "CANCELLED"
	TimeSlotStatusCompleted TimeSlotStatus = "COMPLETED"
)

// TimeSlotStatuses lists every accepted status value.
var TimeSlotStatuses = []string{
	string(TimeSlotStatusScheduled),
	string(TimeSlotStatusCancelled),
	string(TimeSlotStatusCompleted),
}

// TimeSlot is a weekly occurrence of a subject bound to one class, teacher and room.
type TimeSlot struct {
	ID        string         `db:"id" json:"id"`
	DayOfWeek int            `db:"day_of_week" json:"day_of_week"`
	StartTime string         `db:"start_time" json:"start_time"`
	EndTime   string         `db:"end_time" json:"end_time"`
	ClassID   string         `db:"class_id" json:"class_id"`
	SubjectID string         `db:"subject_id" json:"subject_id"`
	TeacherID string         `db:"teacher_id" json:"teacher_id"`
	RoomID    string         `db:"room_id" json:"room_id"`
	Status    TimeSlotStatus `db:"status" json:"status"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the slot still occupies its resources.
func (t TimeSlot) IsActive() bool {
	return t.Status != TimeSlotStatusCancelled
}

// TimeSlotFilter describes query params for listing slots.
type TimeSlotFilter struct {
	ClassID   string
	TeacherID string
	RoomID    string
	DayOfWeek *int
	Status    TimeSlotStatus
	Page      int
	PageSize  int
}

// ResourceType names a schedulable resource dimension.
type ResourceType string

// Resource dimensions checked for double booking.
const (
	ResourceTeacher ResourceType = "TEACHER"
	ResourceRoom    ResourceType = "ROOM"
	ResourceClass   ResourceType = "CLASS"
)

// ResourceTypes lists the dimensions in the order they are checked.
var ResourceTypes = []ResourceType{ResourceTeacher, ResourceRoom, ResourceClass}

// ResourceID returns the identifier the slot holds for the given dimension.
func (t TimeSlot) ResourceID(resource ResourceType) string {
	switch resource {
	case ResourceTeacher:
		return t.TeacherID
	case ResourceRoom:
		return t.RoomID
	case ResourceClass:
		return t.ClassID
	}
	return ""
}

// SlotConflict describes an existing slot colliding with a candidate on one or more dimensions.
type SlotConflict struct {
	Slot       TimeSlot       `json:"slot"`
	Dimensions []ResourceType `json:"dimensions"`
}

// TimeSlotConflictError is returned when a candidate slot double-books a resource.
type TimeSlotConflictError struct {
	Message   string         `json:"message"`
	Conflicts []SlotConflict `json:"conflicts"`
}

// Error implements the error interface for conflict errors.
func (e *TimeSlotConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
