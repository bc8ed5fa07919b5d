package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/logger"
)

type prerequisiteValidator interface {
	ValidatePrerequisites(ctx context.Context, studentID, subjectID string, adminOverride bool) (*models.EligibilityResult, error)
}

// EligibilityService decides whether a student satisfies a subject's direct prerequisites.
type EligibilityService struct {
	checker prerequisiteValidator
	metrics *MetricsService
	logger  *zap.Logger
}

// NewEligibilityService constructs the service.
func NewEligibilityService(checker prerequisiteValidator, metrics *MetricsService, logger *zap.Logger) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{checker: checker, metrics: metrics, logger: logger}
}

// Check evaluates eligibility. An override marks the student eligible but still reports what is missing.
func (s *EligibilityService) Check(ctx context.Context, studentID string, query dto.EligibilityQuery) (*models.EligibilityResult, error) {
	result, err := s.checker.ValidatePrerequisites(ctx, studentID, query.SubjectID, query.AdminOverride)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		s.logger.Error("failed to validate prerequisites", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate prerequisites")
	}

	s.metrics.RecordEligibility(result)
	if result.AdminOverride && len(result.MissingPrerequisites) > 0 {
		logger.FromContext(ctx, s.logger).Warn("prerequisites overridden",
			zap.String("student_id", studentID),
			zap.String("subject_id", query.SubjectID),
			zap.Int("missing", len(result.MissingPrerequisites)),
		)
	}
	return result, nil
}
