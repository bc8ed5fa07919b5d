package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/engine"
	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/logger"
)

type timeSlotRepository interface {
	List(ctx context.Context, filter models.TimeSlotFilter) ([]models.TimeSlot, int, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.TimeSlot, error)
	FindActiveForCandidate(ctx context.Context, exec sqlx.ExtContext, candidate models.TimeSlot) ([]models.TimeSlot, error)
	Create(ctx context.Context, exec sqlx.ExtContext, slot *models.TimeSlot) error
	Update(ctx context.Context, exec sqlx.ExtContext, slot *models.TimeSlot) error
}

// TimeSlotService schedules weekly slots without double booking any teacher, room or class.
type TimeSlotService struct {
	repo      timeSlotRepository
	detector  *engine.ConflictDetector
	db        txProvider
	locker    advisoryLocker
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewTimeSlotService instantiates TimeSlotService.
func NewTimeSlotService(repo timeSlotRepository, db txProvider, locker advisoryLocker, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *TimeSlotService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeSlotService{
		repo:      repo,
		detector:  engine.NewConflictDetector(),
		db:        db,
		locker:    locker,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
	}
}

// List returns slots with pagination metadata.
func (s *TimeSlotService) List(ctx context.Context, query dto.ListTimeSlotsQuery) ([]models.TimeSlot, *models.Pagination, error) {
	filter := query.Filter()
	slots, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time slots")
	}
	if slots == nil {
		slots = []models.TimeSlot{}
	}
	return slots, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get fetches one slot.
func (s *TimeSlotService) Get(ctx context.Context, id string) (*models.TimeSlot, error) {
	slot, err := s.repo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, s.lookupError(err)
	}
	return slot, nil
}

// Check reports every conflict the payload would cause without writing anything.
func (s *TimeSlotService) Check(ctx context.Context, req dto.CreateTimeSlotRequest, excludeID string) (*engine.ConflictReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time slot payload")
	}
	candidate := candidateFromRequest(req)
	if _, err := windowOf(candidate).Validate(); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindActiveForCandidate(ctx, nil, candidate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing slots")
	}
	report, err := s.detector.Check(candidate, existing, excludeID)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// Create inserts a slot after an exhaustive conflict check performed under resource locks.
func (s *TimeSlotService) Create(ctx context.Context, req dto.CreateTimeSlotRequest) (*models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time slot payload")
	}
	candidate := candidateFromRequest(req)
	if _, err := windowOf(candidate).Validate(); err != nil {
		return nil, err
	}

	err := withLockedTx(ctx, s.db, s.locker, slotLockKeys(resourcesOf(candidate)), func(tx *sqlx.Tx) error {
		if err := s.ensureNoConflict(ctx, tx, candidate, ""); err != nil {
			return err
		}
		return s.repo.Create(ctx, tx, &candidate)
	})
	if err != nil {
		return nil, s.writeError(err, "failed to create time slot")
	}
	logger.FromContext(ctx, s.logger).Info("time slot created", zap.String("slot_id", candidate.ID), zap.Int("day_of_week", candidate.DayOfWeek))
	return &candidate, nil
}

// Update applies a partial change. The slot's own row is excluded from the conflict check.
func (s *TimeSlotService) Update(ctx context.Context, id string, req dto.UpdateTimeSlotRequest) (*models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time slot payload")
	}
	current, err := s.repo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, s.lookupError(err)
	}
	merged := applyUpdate(*current, req)
	if _, err := windowOf(merged).Validate(); err != nil {
		return nil, err
	}

	keys := slotLockKeys(resourcesOf(*current), resourcesOf(merged))
	err = withLockedTx(ctx, s.db, s.locker, keys, func(tx *sqlx.Tx) error {
		fresh, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if resourcesOf(*fresh) != resourcesOf(*current) {
			return appErrors.Clone(appErrors.ErrConflict, "time slot was modified concurrently, retry the update")
		}
		merged = applyUpdate(*fresh, req)
		if err := s.ensureNoConflict(ctx, tx, merged, id); err != nil {
			return err
		}
		return s.repo.Update(ctx, tx, &merged)
	})
	if err != nil {
		return nil, s.writeError(err, "failed to update time slot")
	}
	return &merged, nil
}

// Cancel marks a slot as cancelled. Cancelling twice is a no-op.
func (s *TimeSlotService) Cancel(ctx context.Context, id string) (*models.TimeSlot, error) {
	current, err := s.repo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, s.lookupError(err)
	}
	if current.Status == models.TimeSlotStatusCancelled {
		return current, nil
	}
	err = withLockedTx(ctx, s.db, s.locker, slotLockKeys(resourcesOf(*current)), func(tx *sqlx.Tx) error {
		fresh, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		fresh.Status = models.TimeSlotStatusCancelled
		current = fresh
		return s.repo.Update(ctx, tx, fresh)
	})
	if err != nil {
		return nil, s.writeError(err, "failed to cancel time slot")
	}
	return current, nil
}

func (s *TimeSlotService) ensureNoConflict(ctx context.Context, tx *sqlx.Tx, candidate models.TimeSlot, excludeID string) error {
	existing, err := s.repo.FindActiveForCandidate(ctx, tx, candidate)
	if err != nil {
		return err
	}
	report, err := s.detector.Check(candidate, existing, excludeID)
	if err != nil {
		return err
	}
	if !report.Valid {
		s.metrics.RecordConflicts(report.Dimensions())
		logger.FromContext(ctx, s.logger).Info("time slot rejected",
			zap.Int("conflicts", len(report.Conflicts)),
			zap.Any("dimensions", report.Dimensions()),
		)
		return report.Err()
	}
	return nil
}

func (s *TimeSlotService) lookupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot")
}

func (s *TimeSlotService) writeError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
	}
	s.logger.Error(message, zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func candidateFromRequest(req dto.CreateTimeSlotRequest) models.TimeSlot {
	return models.TimeSlot{
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		ClassID:   req.ClassID,
		SubjectID: req.SubjectID,
		TeacherID: req.TeacherID,
		RoomID:    req.RoomID,
		Status:    models.TimeSlotStatusScheduled,
	}
}

func applyUpdate(slot models.TimeSlot, req dto.UpdateTimeSlotRequest) models.TimeSlot {
	if req.DayOfWeek != nil {
		slot.DayOfWeek = *req.DayOfWeek
	}
	if req.StartTime != nil {
		slot.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		slot.EndTime = *req.EndTime
	}
	if req.ClassID != nil {
		slot.ClassID = *req.ClassID
	}
	if req.SubjectID != nil {
		slot.SubjectID = *req.SubjectID
	}
	if req.TeacherID != nil {
		slot.TeacherID = *req.TeacherID
	}
	if req.RoomID != nil {
		slot.RoomID = *req.RoomID
	}
	if req.Status != nil {
		slot.Status = models.TimeSlotStatus(*req.Status)
	}
	return slot
}

func windowOf(slot models.TimeSlot) engine.Window {
	return engine.Window{DayOfWeek: slot.DayOfWeek, StartTime: slot.StartTime, EndTime: slot.EndTime}
}

func resourcesOf(slot models.TimeSlot) slotResources {
	return slotResources{day: slot.DayOfWeek, teacherID: slot.TeacherID, roomID: slot.RoomID, classID: slot.ClassID}
}
