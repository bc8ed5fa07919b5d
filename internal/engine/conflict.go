package engine

import (
	"fmt"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

// ConflictReport is the outcome of checking a candidate slot against existing bookings.
type ConflictReport struct {
	Valid     bool                  `json:"valid"`
	Conflicts []models.SlotConflict `json:"conflicts"`
}

// Dimensions returns the distinct resource dimensions involved in the report.
func (r ConflictReport) Dimensions() []models.ResourceType {
	seen := make(map[models.ResourceType]bool)
	var dims []models.ResourceType
	for _, c := range r.Conflicts {
		for _, d := range c.Dimensions {
			if !seen[d] {
				seen[d] = true
				dims = append(dims, d)
			}
		}
	}
	return dims
}

// ConflictDetector finds double bookings of teachers, rooms and classes.
type ConflictDetector struct{}

// NewConflictDetector constructs a detector.
func NewConflictDetector() *ConflictDetector {
	return &ConflictDetector{}
}

// Check compares the candidate against existing slots on every resource dimension and returns all
// collisions. Slots sharing the excluded id (the candidate's own row on update) are ignored.
func (d *ConflictDetector) Check(candidate models.TimeSlot, existing []models.TimeSlot, excludeID string) (ConflictReport, error) {
	window := Window{DayOfWeek: candidate.DayOfWeek, StartTime: candidate.StartTime, EndTime: candidate.EndTime}
	interval, err := window.Validate()
	if err != nil {
		return ConflictReport{}, err
	}
	report := ConflictReport{Valid: true, Conflicts: []models.SlotConflict{}}
	if !candidate.IsActive() {
		return report, nil
	}

	index := make(map[string]int)
	for _, dimension := range models.ResourceTypes {
		resourceID := candidate.ResourceID(dimension)
		if resourceID == "" {
			continue
		}
		for _, slot := range existing {
			if slot.DayOfWeek != candidate.DayOfWeek || !slot.IsActive() {
				continue
			}
			if excludeID != "" && slot.ID == excludeID {
				continue
			}
			if slot.ResourceID(dimension) != resourceID {
				continue
			}
			other, err := NewInterval(slot.StartTime, slot.EndTime)
			if err != nil {
				return ConflictReport{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("stored slot %s has an invalid time range", slot.ID))
			}
			if !interval.Overlaps(other) {
				continue
			}
			key := slotKey(slot)
			if pos, ok := index[key]; ok {
				report.Conflicts[pos].Dimensions = append(report.Conflicts[pos].Dimensions, dimension)
				continue
			}
			index[key] = len(report.Conflicts)
			report.Conflicts = append(report.Conflicts, models.SlotConflict{Slot: slot, Dimensions: []models.ResourceType{dimension}})
		}
	}
	report.Valid = len(report.Conflicts) == 0
	return report, nil
}

// Err converts an invalid report into a conflict error carrying every collision.
func (r ConflictReport) Err() error {
	if r.Valid {
		return nil
	}
	domainErr := &models.TimeSlotConflictError{
		Message:   fmt.Sprintf("time slot conflicts with %d existing slot(s)", len(r.Conflicts)),
		Conflicts: r.Conflicts,
	}
	appErr := appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "schedule conflict: "+describeDimensions(r.Dimensions()))
	appErr.Details = r.Conflicts
	return appErr
}

func describeDimensions(dims []models.ResourceType) string {
	msg := ""
	for i, d := range dims {
		if i > 0 {
			msg += ", "
		}
		switch d {
		case models.ResourceTeacher:
			msg += "teacher already scheduled"
		case models.ResourceRoom:
			msg += "room already booked"
		case models.ResourceClass:
			msg += "class already scheduled"
		}
	}
	return msg
}

// slotKey identifies a slot for de-duplication; unsaved slots fall back to their content.
func slotKey(slot models.TimeSlot) string {
	if slot.ID != "" {
		return slot.ID
	}
	return fmt.Sprintf("%d|%s|%s|%s|%s|%s", slot.DayOfWeek, slot.StartTime, slot.EndTime, slot.TeacherID, slot.RoomID, slot.ClassID)
}
