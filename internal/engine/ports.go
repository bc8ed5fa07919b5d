package engine

import (
	"context"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// SlotFinder returns the active slots a resource holds on a weekday.
type SlotFinder interface {
	FindSlotsByResource(ctx context.Context, resource models.ResourceType, resourceID string, day int) ([]models.TimeSlot, error)
}

// TeacherCatalog lists teachers qualified to teach a subject.
type TeacherCatalog interface {
	ListQualifiedTeachers(ctx context.Context, subjectID string) ([]models.Teacher, error)
}

// RoomCatalog lists active rooms with at least the given capacity.
type RoomCatalog interface {
	ListRooms(ctx context.Context, minCapacity int) ([]models.Room, error)
}

// SubjectFinder loads a subject with its direct prerequisites in declared order.
// Implementations return sql.ErrNoRows when the subject does not exist.
type SubjectFinder interface {
	FindSubjectWithPrerequisites(ctx context.Context, id string) (*models.Subject, error)
}

// EnrollmentFinder lists a student's enrollments.
type EnrollmentFinder interface {
	FindEnrollmentsByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
}
