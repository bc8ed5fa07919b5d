package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/engine"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/repository"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/jobs"
	"github.com/noah-isme/sma-timetable/pkg/logger"
)

// JobSeatReleased is enqueued whenever an active enrollment leaves a class.
const JobSeatReleased = "seat_released"

type waitlistRepository interface {
	FindWaitlistByClass(ctx context.Context, exec sqlx.ExtContext, classID string) ([]models.WaitlistEntry, error)
	Insert(ctx context.Context, exec sqlx.ExtContext, entry *models.WaitlistEntry) error
	ApplyChange(ctx context.Context, exec sqlx.ExtContext, change models.WaitlistChange) error
}

type occupancyFinder interface {
	FindOccupancy(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ClassOccupancy, error)
}

type seatWriter interface {
	ExistsActive(ctx context.Context, exec sqlx.ExtContext, studentID, classID string) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// WaitlistService manages per-class queues and promotes students when seats free up.
type WaitlistService struct {
	waitlists   waitlistRepository
	classes     occupancyFinder
	enrollments seatWriter
	db          txProvider
	locker      advisoryLocker
	queue       jobEnqueuer
	validator   *validator.Validate
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewWaitlistService constructs the service. A nil queue makes seat releases promote synchronously.
func NewWaitlistService(waitlists waitlistRepository, classes occupancyFinder, enrollments seatWriter, db txProvider, locker advisoryLocker, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *WaitlistService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WaitlistService{
		waitlists:   waitlists,
		classes:     classes,
		enrollments: enrollments,
		db:          db,
		locker:      locker,
		validator:   validate,
		metrics:     metrics,
		logger:      logger,
	}
}

// UseQueue routes seat releases through a background queue.
func (s *WaitlistService) UseQueue(queue jobEnqueuer) {
	s.queue = queue
}

// List returns the class queue in position order.
func (s *WaitlistService) List(ctx context.Context, classID string) ([]models.WaitlistEntry, error) {
	if _, err := s.classes.FindOccupancy(ctx, nil, classID); err != nil {
		return nil, classLookupError(err)
	}
	snapshot, err := s.waitlists.FindWaitlistByClass(ctx, nil, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load waitlist")
	}
	queue, err := engine.NewWaitlist(classID, snapshot)
	if err != nil {
		return nil, err
	}
	return queue.Entries(), nil
}

// Join appends a student to the class queue.
func (s *WaitlistService) Join(ctx context.Context, classID string, req dto.WaitlistJoinRequest) (*models.WaitlistEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid waitlist payload")
	}

	var entry *models.WaitlistEntry
	err := withLockedTx(ctx, s.db, s.locker, []string{classLockKey(classID)}, func(tx *sqlx.Tx) error {
		if _, err := s.classes.FindOccupancy(ctx, tx, classID); err != nil {
			return classLookupError(err)
		}
		enrolled, err := s.enrollments.ExistsActive(ctx, tx, req.StudentID, classID)
		if err != nil {
			return err
		}
		if enrolled {
			return appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this class")
		}
		entry, err = s.joinTx(ctx, tx, classID, req.StudentID)
		return err
	})
	if err != nil {
		return nil, s.mapError(err, "failed to join waitlist")
	}
	return entry, nil
}

// waitingTx reports the queue length. The caller must hold the class lock.
func (s *WaitlistService) waitingTx(ctx context.Context, tx *sqlx.Tx, classID string) (int, error) {
	queue, err := s.loadQueue(ctx, tx, classID)
	if err != nil {
		return 0, err
	}
	return queue.Len(), nil
}

// joinTx appends studentID to the queue. The caller must hold the class lock.
func (s *WaitlistService) joinTx(ctx context.Context, tx *sqlx.Tx, classID, studentID string) (*models.WaitlistEntry, error) {
	queue, err := s.loadQueue(ctx, tx, classID)
	if err != nil {
		return nil, err
	}
	entry, err := queue.Join(studentID)
	if err != nil {
		return nil, err
	}
	if err := s.waitlists.Insert(ctx, tx, &entry); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student is already on the waitlist")
		}
		return nil, err
	}
	s.metrics.RecordWaitlist("join")
	logger.FromContext(ctx, s.logger).Info("waitlist joined",
		zap.String("class_id", classID),
		zap.String("student_id", studentID),
		zap.Int("position", entry.Position),
	)
	return &entry, nil
}

// Leave removes a student from the queue and closes the gap behind them.
func (s *WaitlistService) Leave(ctx context.Context, classID, studentID string) error {
	err := withLockedTx(ctx, s.db, s.locker, []string{classLockKey(classID)}, func(tx *sqlx.Tx) error {
		queue, err := s.loadQueue(ctx, tx, classID)
		if err != nil {
			return err
		}
		change, err := queue.Leave(studentID)
		if err != nil {
			return err
		}
		return s.waitlists.ApplyChange(ctx, tx, change)
	})
	if err != nil {
		return s.mapError(err, "failed to leave waitlist")
	}
	s.metrics.RecordWaitlist("leave")
	return nil
}

// Promote moves the head of the queue into an active enrollment when a seat is free.
// Students who already hold a seat are dropped from the queue and the next one is tried.
func (s *WaitlistService) Promote(ctx context.Context, classID string) (*dto.PromotionResponse, error) {
	resp := &dto.PromotionResponse{}
	err := withLockedTx(ctx, s.db, s.locker, []string{classLockKey(classID)}, func(tx *sqlx.Tx) error {
		class, err := s.classes.FindOccupancy(ctx, tx, classID)
		if err != nil {
			return classLookupError(err)
		}
		if class.SubjectID == nil || *class.SubjectID == "" {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "class has no subject to enroll into")
		}
		if class.IsFull() {
			resp.Reason = "class is full"
			return nil
		}
		queue, err := s.loadQueue(ctx, tx, classID)
		if err != nil {
			return err
		}
		for {
			head, change := queue.PromoteNext()
			if head == nil {
				resp.Reason = "waitlist is empty"
				return nil
			}
			if err := s.waitlists.ApplyChange(ctx, tx, change); err != nil {
				return err
			}
			enrolled, err := s.enrollments.ExistsActive(ctx, tx, head.StudentID, classID)
			if err != nil {
				return err
			}
			if enrolled {
				continue
			}
			enrollment := &models.Enrollment{
				StudentID: head.StudentID,
				ClassID:   classID,
				SubjectID: *class.SubjectID,
				Status:    models.EnrollmentStatusActive,
			}
			if err := s.enrollments.Create(ctx, tx, enrollment); err != nil {
				return err
			}
			resp.Promoted = true
			resp.Enrollment = enrollment
			return nil
		}
	})
	if err != nil {
		return nil, s.mapError(err, "failed to promote from waitlist")
	}
	if resp.Promoted {
		s.metrics.RecordWaitlist("promote")
		logger.FromContext(ctx, s.logger).Info("waitlist promoted", zap.String("class_id", classID))
	}
	return resp, nil
}

// SeatReleased schedules a promotion for classID. Without a queue, or when enqueueing fails,
// the promotion runs inline.
func (s *WaitlistService) SeatReleased(ctx context.Context, classID string) {
	if s.queue != nil {
		job := jobs.Job{ID: uuid.NewString(), Type: JobSeatReleased, Payload: classID}
		err := s.queue.Enqueue(job)
		if err == nil {
			return
		}
		s.logger.Warn("failed to enqueue seat release, promoting inline", zap.String("class_id", classID), zap.Error(err))
	}
	if _, err := s.Promote(ctx, classID); err != nil {
		s.logger.Error("inline promotion failed", zap.String("class_id", classID), zap.Error(err))
	}
}

// HandleSeatReleased is the job handler for JobSeatReleased. Client-side errors are permanent.
func (s *WaitlistService) HandleSeatReleased(ctx context.Context, job jobs.Job) error {
	classID, ok := job.Payload.(string)
	if !ok || classID == "" {
		return jobs.Permanent(fmt.Errorf("seat release job %s has no class id", job.ID))
	}
	resp, err := s.Promote(ctx, classID)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Status < http.StatusInternalServerError {
			return jobs.Permanent(err)
		}
		return err
	}
	if !resp.Promoted {
		s.logger.Debug("seat release produced no promotion", zap.String("class_id", classID), zap.String("reason", resp.Reason))
	}
	return nil
}

func (s *WaitlistService) loadQueue(ctx context.Context, exec sqlx.ExtContext, classID string) (*engine.Waitlist, error) {
	snapshot, err := s.waitlists.FindWaitlistByClass(ctx, exec, classID)
	if err != nil {
		return nil, err
	}
	return engine.NewWaitlist(classID, snapshot)
}

func (s *WaitlistService) mapError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	s.logger.Error(message, zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func classLookupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
}
