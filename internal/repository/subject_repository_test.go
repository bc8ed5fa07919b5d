package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectRepositoryFindSubjectWithPrerequisites(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewSubjectRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE id = $1")).
		WithArgs("physics").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "is_mandatory", "is_active", "created_at", "updated_at"}).
			AddRow("physics", "PHY", "Physics", true, true, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE sp.subject_id = $1 ORDER BY sp.position ASC")).
		WithArgs("physics").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name"}).
			AddRow("math", "MTH", "Mathematics").
			AddRow("sci", "SCI", "Science"))

	subject, err := repo.FindSubjectWithPrerequisites(context.Background(), "physics")
	require.NoError(t, err)
	require.Len(t, subject.Prerequisites, 2)
	assert.Equal(t, "math", subject.Prerequisites[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryFindMissingSubject(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE id = $1")).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindSubjectWithPrerequisites(context.Background(), "nope")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestSubjectRepositoryAddEdge(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO subject_prerequisites")).
		WithArgs("A", "B").
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "prerequisite_id", "position"}).AddRow("A", "B", 2))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO subject_prerequisites")).
		WithArgs("A", "B").
		WillReturnError(&pq.Error{Code: "23505"})

	edge, err := repo.AddEdge(context.Background(), nil, "A", "B")
	require.NoError(t, err)
	assert.Equal(t, 2, edge.Position)

	_, err = repo.AddEdge(context.Background(), nil, "A", "B")
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryRemoveEdgeAndListRefs(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subject_prerequisites WHERE subject_id = $1 AND prerequisite_id = $2")).
		WithArgs("A", "B").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, name FROM subjects WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name"}).AddRow("A", "A1", "Alpha"))

	removed, err := repo.RemoveEdge(context.Background(), nil, "A", "B")
	require.NoError(t, err)
	assert.False(t, removed)

	refs, err := repo.ListRefs(context.Background(), []string{"A"})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", refs[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
