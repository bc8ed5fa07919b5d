package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeacherRepositoryListQualifiedTeachers(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTeacherRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE ts.subject_id = $1 AND t.active = TRUE")).
		WithArgs("math").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "active", "created_at", "updated_at"}).
			AddRow("T", "Teacher T", "t@school.test", true, now, now))

	teachers, err := repo.ListQualifiedTeachers(context.Background(), "math")
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, "Teacher T", teachers[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryListRooms(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewRoomRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE active = TRUE AND capacity >= $1")).
		WithArgs(30).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity", "active", "created_at", "updated_at"}).
			AddRow("R", "Room R", 32, true, now, now))

	rooms, err := repo.ListRooms(context.Background(), 30)
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryFindOccupancy(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewClassRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(e.id) FILTER (WHERE e.status = 'ACTIVE') AS enrolled")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "subject_id", "capacity", "created_at", "updated_at", "enrolled"}).
			AddRow("c1", "10A", "math", 2, now, now, 2))

	occupancy, err := repo.FindOccupancy(context.Background(), nil, "c1")
	require.NoError(t, err)
	assert.Equal(t, "10A", occupancy.Name)
	assert.True(t, occupancy.IsFull())
	assert.NoError(t, mock.ExpectationsWereMet())
}
