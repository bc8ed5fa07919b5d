package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type stubSlotFinder struct {
	slots []models.TimeSlot
	calls int
}

func (s *stubSlotFinder) FindSlotsByResource(ctx context.Context, resource models.ResourceType, resourceID string, day int) ([]models.TimeSlot, error) {
	s.calls++
	var out []models.TimeSlot
	for _, slot := range s.slots {
		if slot.DayOfWeek == day && slot.ResourceID(resource) == resourceID {
			out = append(out, slot)
		}
	}
	return out, nil
}

type stubTeacherCatalog struct {
	bySubject map[string][]models.Teacher
	err       error
}

func (s *stubTeacherCatalog) ListQualifiedTeachers(ctx context.Context, subjectID string) ([]models.Teacher, error) {
	return s.bySubject[subjectID], s.err
}

type stubRoomCatalog struct {
	rooms []models.Room
}

func (s *stubRoomCatalog) ListRooms(ctx context.Context, minCapacity int) ([]models.Room, error) {
	var out []models.Room
	for _, room := range s.rooms {
		if room.Active && room.Capacity >= minCapacity {
			out = append(out, room)
		}
	}
	return out, nil
}

// Teacher T and room R are both booked Monday 08:00-09:00.
func mondayFixture() (*stubTeacherCatalog, *stubRoomCatalog, *stubSlotFinder) {
	teachers := &stubTeacherCatalog{bySubject: map[string][]models.Teacher{
		"math": {{ID: "T", FullName: "Teacher T", Active: true}, {ID: "U", FullName: "Teacher U", Active: true}},
	}}
	rooms := &stubRoomCatalog{rooms: []models.Room{
		{ID: "R", Name: "Room R", Capacity: 30, Active: true},
		{ID: "S", Name: "Room S", Capacity: 40, Active: true},
		{ID: "small", Name: "Small", Capacity: 10, Active: true},
	}}
	slots := &stubSlotFinder{slots: []models.TimeSlot{slot("s1", 1, "08:00", "09:00", "c1", "T", "R")}}
	return teachers, rooms, slots
}

func TestAvailabilityMondayScenario(t *testing.T) {
	teachers, rooms, slots := mondayFixture()
	engine := NewAvailabilityEngine(teachers, rooms, slots, nil)
	ctx := context.Background()

	overlapping := Window{DayOfWeek: 1, StartTime: "08:30", EndTime: "09:30"}
	available, err := engine.AvailableTeachers(ctx, "math", overlapping)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "U", available[0].ID)

	freeRooms, err := engine.AvailableRooms(ctx, overlapping, 20)
	require.NoError(t, err)
	require.Len(t, freeRooms, 1)
	assert.Equal(t, "S", freeRooms[0].ID)

	after := Window{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"}
	available, err = engine.AvailableTeachers(ctx, "math", after)
	require.NoError(t, err)
	assert.Len(t, available, 2)

	tuesday := Window{DayOfWeek: 2, StartTime: "08:00", EndTime: "09:00"}
	freeRooms, err = engine.AvailableRooms(ctx, tuesday, 0)
	require.NoError(t, err)
	assert.Len(t, freeRooms, 3)
}

func TestAvailabilityValidatesWindowFirst(t *testing.T) {
	teachers, rooms, slots := mondayFixture()
	engine := NewAvailabilityEngine(teachers, rooms, slots, nil)

	_, err := engine.AvailableTeachers(context.Background(), "math", Window{DayOfWeek: 1, StartTime: "10:00", EndTime: "09:00"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Zero(t, slots.calls)
}

func TestAvailabilityPropagatesCatalogErrors(t *testing.T) {
	teachers := &stubTeacherCatalog{err: errors.New("db down")}
	engine := NewAvailabilityEngine(teachers, &stubRoomCatalog{}, &stubSlotFinder{}, nil)
	_, err := engine.AvailableTeachers(context.Background(), "math", Window{DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}
