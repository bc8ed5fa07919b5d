package engine

import (
	"context"
	"fmt"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// AvailabilityEngine answers "who/what is free during this window" queries.
type AvailabilityEngine struct {
	teachers TeacherCatalog
	rooms    RoomCatalog
	slots    SlotFinder
	detector *ConflictDetector
}

// NewAvailabilityEngine wires the catalog and slot ports.
func NewAvailabilityEngine(teachers TeacherCatalog, rooms RoomCatalog, slots SlotFinder, detector *ConflictDetector) *AvailabilityEngine {
	if detector == nil {
		detector = NewConflictDetector()
	}
	return &AvailabilityEngine{teachers: teachers, rooms: rooms, slots: slots, detector: detector}
}

// AvailableTeachers returns qualified teachers with no active slot overlapping the window.
func (e *AvailabilityEngine) AvailableTeachers(ctx context.Context, subjectID string, window Window) ([]models.Teacher, error) {
	if _, err := window.Validate(); err != nil {
		return nil, err
	}
	candidates, err := e.teachers.ListQualifiedTeachers(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list qualified teachers: %w", err)
	}
	available := make([]models.Teacher, 0, len(candidates))
	for _, teacher := range candidates {
		free, err := e.isFree(ctx, models.ResourceTeacher, teacher.ID, window)
		if err != nil {
			return nil, err
		}
		if free {
			available = append(available, teacher)
		}
	}
	return available, nil
}

// AvailableRooms returns rooms of sufficient capacity with no active slot overlapping the window.
func (e *AvailabilityEngine) AvailableRooms(ctx context.Context, window Window, minCapacity int) ([]models.Room, error) {
	if _, err := window.Validate(); err != nil {
		return nil, err
	}
	candidates, err := e.rooms.ListRooms(ctx, minCapacity)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	available := make([]models.Room, 0, len(candidates))
	for _, room := range candidates {
		free, err := e.isFree(ctx, models.ResourceRoom, room.ID, window)
		if err != nil {
			return nil, err
		}
		if free {
			available = append(available, room)
		}
	}
	return available, nil
}

func (e *AvailabilityEngine) isFree(ctx context.Context, resource models.ResourceType, resourceID string, window Window) (bool, error) {
	existing, err := e.slots.FindSlotsByResource(ctx, resource, resourceID, window.DayOfWeek)
	if err != nil {
		return false, fmt.Errorf("find %s slots for %s: %w", resource, resourceID, err)
	}
	want := models.TimeSlot{
		DayOfWeek: window.DayOfWeek,
		StartTime: window.StartTime,
		EndTime:   window.EndTime,
		Status:    models.TimeSlotStatusScheduled,
	}
	switch resource {
	case models.ResourceTeacher:
		want.TeacherID = resourceID
	case models.ResourceRoom:
		want.RoomID = resourceID
	case models.ResourceClass:
		want.ClassID = resourceID
	}
	report, err := e.detector.Check(want, existing, "")
	if err != nil {
		return false, err
	}
	return report.Valid, nil
}
