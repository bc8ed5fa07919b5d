package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/engine"
	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type availabilityFinder interface {
	AvailableTeachers(ctx context.Context, subjectID string, window engine.Window) ([]models.Teacher, error)
	AvailableRooms(ctx context.Context, window engine.Window, minCapacity int) ([]models.Room, error)
}

type classFinder interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// AvailabilityService answers which teachers and rooms are free for a window.
type AvailabilityService struct {
	engine  availabilityFinder
	classes classFinder
	logger  *zap.Logger
}

// NewAvailabilityService constructs the service.
func NewAvailabilityService(finder availabilityFinder, classes classFinder, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{engine: finder, classes: classes, logger: logger}
}

// AvailableTeachers lists qualified teachers with no overlapping active slot.
func (s *AvailabilityService) AvailableTeachers(ctx context.Context, query dto.AvailableTeachersQuery) ([]models.Teacher, error) {
	window := engine.Window{DayOfWeek: query.DayOfWeek, StartTime: query.StartTime, EndTime: query.EndTime}
	teachers, err := s.engine.AvailableTeachers(ctx, query.SubjectID, window)
	if err != nil {
		return nil, s.mapError(err, "failed to compute teacher availability")
	}
	if teachers == nil {
		teachers = []models.Teacher{}
	}
	return teachers, nil
}

// AvailableRooms lists rooms free for the window. A class id without an explicit minimum uses the class capacity.
func (s *AvailabilityService) AvailableRooms(ctx context.Context, query dto.AvailableRoomsQuery) ([]models.Room, error) {
	minCapacity := 0
	if query.MinimumCapacity != nil {
		minCapacity = *query.MinimumCapacity
	} else if query.ClassID != "" {
		class, err := s.classes.FindByID(ctx, query.ClassID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
		}
		minCapacity = class.Capacity
	}

	window := engine.Window{DayOfWeek: query.DayOfWeek, StartTime: query.StartTime, EndTime: query.EndTime}
	rooms, err := s.engine.AvailableRooms(ctx, window, minCapacity)
	if err != nil {
		return nil, s.mapError(err, "failed to compute room availability")
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	return rooms, nil
}

func (s *AvailabilityService) mapError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	s.logger.Error(message, zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
