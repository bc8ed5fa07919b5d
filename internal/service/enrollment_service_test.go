package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type eligibilityStub struct {
	missing map[string][]models.SubjectRef
	queries []dto.EligibilityQuery
}

func (e *eligibilityStub) Check(ctx context.Context, studentID string, query dto.EligibilityQuery) (*models.EligibilityResult, error) {
	e.queries = append(e.queries, query)
	missing := e.missing[studentID]
	result := &models.EligibilityResult{
		Eligible:             len(missing) == 0 || query.AdminOverride,
		MissingPrerequisites: missing,
		AdminOverride:        query.AdminOverride,
		Message:              "Student meets all prerequisites",
	}
	if len(missing) > 0 {
		result.Message = "Prerequisites not met: " + missing[0].Name
	}
	return result, nil
}

type enrollmentFixture struct {
	svc         *EnrollmentService
	waitlist    *waitlistFixture
	eligibility *eligibilityStub
	queue       *queueStub
}

func newEnrollmentFixture(db txProvider, capacity int) *enrollmentFixture {
	wl := newWaitlistFixture(db, capacity)
	queue := &queueStub{}
	wl.svc.UseQueue(queue)
	eligibility := &eligibilityStub{missing: map[string][]models.SubjectRef{}}
	svc := NewEnrollmentService(wl.seats, wl.classes, eligibility, wl.svc, db, wl.locker, nil, nil)
	return &enrollmentFixture{svc: svc, waitlist: wl, eligibility: eligibility, queue: queue}
}

func TestEnrollmentServiceEnrollSeatsStudent(t *testing.T) {
	db, mock := newTxProviderMock(t)
	fx := newEnrollmentFixture(db, 2)

	mock.ExpectBegin()
	mock.ExpectCommit()
	outcome, err := fx.svc.Enroll(context.Background(), dto.EnrollRequest{StudentID: "s1", ClassID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentOutcomeEnrolled, outcome.Status)
	require.NotNil(t, outcome.Enrollment)
	assert.Equal(t, "physics", outcome.Enrollment.SubjectID)
	assert.True(t, outcome.Eligibility.Eligible)
	assert.Equal(t, "physics", fx.eligibility.queries[0].SubjectID)
	assert.Equal(t, []string{"class:c1"}, fx.waitlist.locker.last())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentServiceFullClassWaitlists(t *testing.T) {
	db, mock := newTxProviderMock(t)
	fx := newEnrollmentFixture(db, 1)
	fx.waitlist.seats.seed("e1", "s0", "c1")

	for i, student := range []string{"s1", "s2"} {
		mock.ExpectBegin()
		mock.ExpectCommit()
		outcome, err := fx.svc.Enroll(context.Background(), dto.EnrollRequest{StudentID: student, ClassID: "c1"})
		require.NoError(t, err)
		assert.Equal(t, models.EnrollmentOutcomeWaitlisted, outcome.Status)
		require.NotNil(t, outcome.Waitlist)
		assert.Equal(t, i+1, outcome.Waitlist.Position)
		assert.Nil(t, outcome.Enrollment)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentServiceRejectsIneligibleStudent(t *testing.T) {
	db, mock := newTxProviderMock(t)
	fx := newEnrollmentFixture(db, 2)
	fx.eligibility.missing["s1"] = []models.SubjectRef{{ID: "math", Name: "Mathematics"}}

	_, err := fx.svc.Enroll(context.Background(), dto.EnrollRequest{StudentID: "s1", ClassID: "c1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Equal(t, "Prerequisites not met: Mathematics", appErr.Message)
	result, ok := appErr.Details.(*models.EligibilityResult)
	require.True(t, ok)
	assert.Len(t, result.MissingPrerequisites, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentServiceAdminOverride(t *testing.T) {
	db, mock := newTxProviderMock(t)
	fx := newEnrollmentFixture(db, 2)
	fx.eligibility.missing["s1"] = []models.SubjectRef{{ID: "math", Name: "Mathematics"}}

	mock.ExpectBegin()
	mock.ExpectCommit()
	outcome, err := fx.svc.Enroll(context.Background(), dto.EnrollRequest{StudentID: "s1", ClassID: "c1", AdminOverride: true})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentOutcomeEnrolled, outcome.Status)
	assert.True(t, outcome.Eligibility.AdminOverride)
	assert.Len(t, outcome.Eligibility.MissingPrerequisites, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentServiceRejectsDoubleEnrollment(t *testing.T) {
	db, mock := newTxProviderMock(t)
	fx := newEnrollmentFixture(db, 5)
	fx.waitlist.seats.seed("e1", "s1", "c1")

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := fx.svc.Enroll(context.Background(), dto.EnrollRequest{StudentID: "s1", ClassID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentServiceSubjectResolution(t *testing.T) {
	fx := newEnrollmentFixture(nil, 2)
	fx.waitlist.classes.classes["bare"] = models.ClassOccupancy{Class: models.Class{ID: "bare", Capacity: 3}}

	_, err := fx.svc.Enroll(context.Background(), dto.EnrollRequest{StudentID: "s1", ClassID: "bare"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = fx.svc.Enroll(context.Background(), dto.EnrollRequest{StudentID: "s1", ClassID: "c1", SubjectID: "chemistry"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = fx.svc.Enroll(context.Background(), dto.EnrollRequest{StudentID: "s1", ClassID: "ghost"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceWithdrawReleasesSeat(t *testing.T) {
	db, mock := newTxProviderMock(t)
	fx := newEnrollmentFixture(db, 1)
	fx.waitlist.seats.seed("e1", "s1", "c1")

	mock.ExpectBegin()
	mock.ExpectCommit()
	enrollment, err := fx.svc.Withdraw(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusWithdrawn, enrollment.Status)
	require.NotNil(t, enrollment.LeftAt)
	require.Len(t, fx.queue.jobs, 1)
	assert.Equal(t, "c1", fx.queue.jobs[0].Payload)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = fx.svc.Withdraw(context.Background(), "e1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, err = fx.svc.Withdraw(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentServiceFreedSeatGoesToWaitlistFirst(t *testing.T) {
	db, mock := newTxProviderMock(t)
	fx := newEnrollmentFixture(db, 1)
	fx.waitlist.seats.seed("e1", "s0", "c1")
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	outcome, err := fx.svc.Enroll(ctx, dto.EnrollRequest{StudentID: "s1", ClassID: "c1"})
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentOutcomeWaitlisted, outcome.Status)

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err = fx.svc.Withdraw(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, fx.queue.jobs, 1)

	mock.ExpectBegin()
	mock.ExpectCommit()
	outcome, err = fx.svc.Enroll(ctx, dto.EnrollRequest{StudentID: "s2", ClassID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentOutcomeWaitlisted, outcome.Status)
	assert.Nil(t, outcome.Enrollment)
	require.NotNil(t, outcome.Waitlist)
	assert.Equal(t, 2, outcome.Waitlist.Position)
	assert.Equal(t, map[string]int{"s1": 1, "s2": 2}, positions(fx.waitlist.queue.entries["c1"]))
	assert.Equal(t, 0, fx.waitlist.seats.activeCount("c1"))
	require.Len(t, fx.queue.jobs, 2)
	assert.Equal(t, JobSeatReleased, fx.queue.jobs[1].Type)

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, fx.waitlist.svc.HandleSeatReleased(ctx, fx.queue.jobs[0]))
	assert.Equal(t, 1, fx.waitlist.seats.activeCount("c1"))
	assert.Equal(t, map[string]int{"s2": 1}, positions(fx.waitlist.queue.entries["c1"]))
	assert.NoError(t, mock.ExpectationsWereMet())
}
