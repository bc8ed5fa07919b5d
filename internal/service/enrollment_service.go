package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/repository"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/logger"
)

type enrollmentRepository interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error)
	ExistsActive(ctx context.Context, exec sqlx.ExtContext, studentID, classID string) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.EnrollmentStatus, leftAt *time.Time) error
}

type eligibilityChecker interface {
	Check(ctx context.Context, studentID string, query dto.EligibilityQuery) (*models.EligibilityResult, error)
}

type waitlistCoordinator interface {
	joinTx(ctx context.Context, tx *sqlx.Tx, classID, studentID string) (*models.WaitlistEntry, error)
	waitingTx(ctx context.Context, tx *sqlx.Tx, classID string) (int, error)
	SeatReleased(ctx context.Context, classID string)
}

// EnrollmentService orchestrates enrollment workflows: eligibility, capacity and waitlisting.
type EnrollmentService struct {
	repo        enrollmentRepository
	classes     occupancyFinder
	eligibility eligibilityChecker
	waitlist    waitlistCoordinator
	db          txProvider
	locker      advisoryLocker
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, classes occupancyFinder, eligibility eligibilityChecker, waitlist waitlistCoordinator, db txProvider, locker advisoryLocker, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:        repo,
		classes:     classes,
		eligibility: eligibility,
		waitlist:    waitlist,
		db:          db,
		locker:      locker,
		validator:   validate,
		logger:      logger,
	}
}

// Enroll seats a student in a class, or queues them when the class is full or others are already waiting.
// Ineligible students are rejected before any seat is considered.
func (s *EnrollmentService) Enroll(ctx context.Context, req dto.EnrollRequest) (*models.EnrollmentOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	class, err := s.classes.FindOccupancy(ctx, nil, req.ClassID)
	if err != nil {
		return nil, classLookupError(err)
	}
	subjectID, err := enrollmentSubject(req, class)
	if err != nil {
		return nil, err
	}

	eligibility, err := s.eligibility.Check(ctx, req.StudentID, dto.EligibilityQuery{SubjectID: subjectID, AdminOverride: req.AdminOverride})
	if err != nil {
		return nil, err
	}
	if !eligibility.Eligible {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrPreconditionFailed, eligibility.Message), eligibility)
	}

	outcome := &models.EnrollmentOutcome{Eligibility: eligibility}
	seatIdle := false
	err = withLockedTx(ctx, s.db, s.locker, []string{classLockKey(req.ClassID)}, func(tx *sqlx.Tx) error {
		current, err := s.classes.FindOccupancy(ctx, tx, req.ClassID)
		if err != nil {
			return classLookupError(err)
		}
		enrolled, err := s.repo.ExistsActive(ctx, tx, req.StudentID, req.ClassID)
		if err != nil {
			return err
		}
		if enrolled {
			return appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this class")
		}

		waiting, err := s.waitlist.waitingTx(ctx, tx, req.ClassID)
		if err != nil {
			return err
		}
		// Freed seats belong to the queue head until promotion runs.
		if current.IsFull() || waiting > 0 {
			entry, err := s.waitlist.joinTx(ctx, tx, req.ClassID, req.StudentID)
			if err != nil {
				return err
			}
			outcome.Status = models.EnrollmentOutcomeWaitlisted
			outcome.Waitlist = entry
			seatIdle = !current.IsFull()
			return nil
		}

		enrollment := &models.Enrollment{
			StudentID: req.StudentID,
			ClassID:   req.ClassID,
			SubjectID: subjectID,
			Status:    models.EnrollmentStatusActive,
		}
		if err := s.repo.Create(ctx, tx, enrollment); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this class")
			}
			return err
		}
		outcome.Status = models.EnrollmentOutcomeEnrolled
		outcome.Enrollment = enrollment
		return nil
	})
	if err != nil {
		return nil, s.mapError(err, "failed to enroll student")
	}
	if seatIdle {
		s.waitlist.SeatReleased(ctx, req.ClassID)
	}

	logger.FromContext(ctx, s.logger).Info("enrollment processed",
		zap.String("student_id", req.StudentID),
		zap.String("class_id", req.ClassID),
		zap.String("status", outcome.Status),
		zap.Bool("admin_override", req.AdminOverride),
	)
	return outcome, nil
}

// Withdraw ends an active enrollment and hands the freed seat to the waitlist.
func (s *EnrollmentService) Withdraw(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	err = withLockedTx(ctx, s.db, s.locker, []string{classLockKey(enrollment.ClassID)}, func(tx *sqlx.Tx) error {
		fresh, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if fresh.Status != models.EnrollmentStatusActive {
			return appErrors.Clone(appErrors.ErrConflict, "enrollment is not active")
		}
		leftAt := time.Now().UTC()
		if err := s.repo.UpdateStatus(ctx, tx, id, models.EnrollmentStatusWithdrawn, &leftAt); err != nil {
			return err
		}
		fresh.Status = models.EnrollmentStatusWithdrawn
		fresh.LeftAt = &leftAt
		enrollment = fresh
		return nil
	})
	if err != nil {
		return nil, s.mapError(err, "failed to withdraw enrollment")
	}

	s.waitlist.SeatReleased(ctx, enrollment.ClassID)
	return enrollment, nil
}

func (s *EnrollmentService) mapError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	s.logger.Error(message, zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func enrollmentSubject(req dto.EnrollRequest, class *models.ClassOccupancy) (string, error) {
	classSubject := ""
	if class.SubjectID != nil {
		classSubject = *class.SubjectID
	}
	switch {
	case req.SubjectID == "" && classSubject == "":
		return "", appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "subjectId is required for classes without a subject"),
			map[string]string{"subjectId": "is required"},
		)
	case req.SubjectID == "":
		return classSubject, nil
	case classSubject != "" && req.SubjectID != classSubject:
		return "", appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "subjectId does not match the class subject"),
			map[string]string{"subjectId": "must match the class subject"},
		)
	}
	return req.SubjectID, nil
}
