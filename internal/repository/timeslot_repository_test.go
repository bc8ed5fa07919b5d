package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
)

var timeSlotRowColumns = []string{"id", "day_of_week", "start_time", "end_time", "class_id", "subject_id", "teacher_id", "room_id", "status", "created_at", "updated_at"}

func TestTimeSlotRepositoryListBuildsFilters(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimeSlotRepository(db)
	day := 1
	now := time.Now()

	rows := sqlmock.NewRows(timeSlotRowColumns).
		AddRow("s1", 1, "08:00", "09:00", "c1", "math", "T", "R", "SCHEDULED", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM time_slots WHERE 1=1 AND teacher_id = $1 AND day_of_week = $2 ORDER BY day_of_week ASC, start_time ASC, id ASC LIMIT 50 OFFSET 50")).
		WithArgs("T", 1).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM time_slots WHERE 1=1 AND teacher_id = $1 AND day_of_week = $2")).
		WithArgs("T", 1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(51))

	slots, total, err := repo.List(context.Background(), models.TimeSlotFilter{TeacherID: "T", DayOfWeek: &day, Page: 2, PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, 51, total)
	require.Len(t, slots, 1)
	assert.Equal(t, models.TimeSlotStatusScheduled, slots[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSlotRepositoryFindSlotsByResource(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimeSlotRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM time_slots WHERE room_id = $1 AND day_of_week = $2 AND status <> $3")).
		WithArgs("R", 1, models.TimeSlotStatusCancelled).
		WillReturnRows(sqlmock.NewRows(timeSlotRowColumns).AddRow("s1", 1, "08:00", "09:00", "c1", "math", "T", "R", "SCHEDULED", now, now))

	slots, err := repo.FindSlotsByResource(context.Background(), models.ResourceRoom, "R", 1)
	require.NoError(t, err)
	assert.Len(t, slots, 1)

	_, err = repo.FindSlotsByResource(context.Background(), models.ResourceType("BUS"), "x", 1)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSlotRepositoryFindActiveForCandidate(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimeSlotRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("(teacher_id = $3 OR room_id = $4 OR class_id = $5)")).
		WithArgs(2, models.TimeSlotStatusCancelled, "T", "R", "c1").
		WillReturnRows(sqlmock.NewRows(timeSlotRowColumns))

	slots, err := repo.FindActiveForCandidate(context.Background(), nil, models.TimeSlot{DayOfWeek: 2, TeacherID: "T", RoomID: "R", ClassID: "c1"})
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSlotRepositoryCreateAssignsDefaults(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimeSlotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO time_slots")).
		WithArgs(sqlmock.AnyArg(), 1, "08:00", "09:00", "c1", "math", "T", "R", models.TimeSlotStatusScheduled, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	slot := &models.TimeSlot{DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00", ClassID: "c1", SubjectID: "math", TeacherID: "T", RoomID: "R"}
	require.NoError(t, repo.Create(context.Background(), nil, slot))
	assert.NotEmpty(t, slot.ID)
	assert.False(t, slot.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
