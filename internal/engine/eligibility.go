package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

const (
	messageEligible      = "Student meets all prerequisites"
	messageMissingPrefix = "Prerequisites not met: "
)

// EligibilityChecker decides whether a student has satisfied a subject's direct prerequisites.
type EligibilityChecker struct {
	subjects    SubjectFinder
	enrollments EnrollmentFinder
}

// NewEligibilityChecker constructs the checker.
func NewEligibilityChecker(subjects SubjectFinder, enrollments EnrollmentFinder) *EligibilityChecker {
	return &EligibilityChecker{subjects: subjects, enrollments: enrollments}
}

// ValidatePrerequisites compares the subject's direct prerequisites with the student's active or
// completed enrollments. adminOverride flips eligibility but never hides what is missing.
func (c *EligibilityChecker) ValidatePrerequisites(ctx context.Context, studentID, subjectID string, adminOverride bool) (*models.EligibilityResult, error) {
	subject, err := c.subjects.FindSubjectWithPrerequisites(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if subject == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Subject not found")
	}
	if !subject.IsActive {
		return nil, appErrors.Clone(appErrors.ErrInactiveEntity, "Subject is not active")
	}

	enrollments, err := c.enrollments.FindEnrollmentsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	satisfied := make(map[string]bool, len(enrollments))
	for _, enrollment := range enrollments {
		if enrollment.SatisfiesPrerequisite() {
			satisfied[enrollment.SubjectID] = true
		}
	}

	missing := make([]models.SubjectRef, 0)
	for _, prereq := range subject.Prerequisites {
		if !satisfied[prereq.ID] {
			missing = append(missing, prereq)
		}
	}

	result := &models.EligibilityResult{
		Eligible:             len(missing) == 0 || adminOverride,
		MissingPrerequisites: missing,
		AdminOverride:        adminOverride,
		Message:              messageEligible,
	}
	if len(missing) > 0 {
		result.Message = missingMessage(missing)
	}
	return result, nil
}

func missingMessage(missing []models.SubjectRef) string {
	names := make([]string, 0, len(missing))
	for _, ref := range missing {
		name := ref.Name
		if name == "" {
			name = ref.Code
		}
		if name == "" {
			name = ref.ID
		}
		names = append(names, name)
	}
	return fmt.Sprintf("%s%s", messageMissingPrefix, strings.Join(names, ", "))
}
