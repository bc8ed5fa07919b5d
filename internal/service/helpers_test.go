package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

// lockRecorder captures advisory lock keys instead of issuing pg_advisory_xact_lock.
type lockRecorder struct {
	mu   sync.Mutex
	keys [][]string
	err  error
}

func (l *lockRecorder) Lock(ctx context.Context, tx *sqlx.Tx, keys ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, append([]string(nil), keys...))
	return l.err
}

func (l *lockRecorder) last() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.keys) == 0 {
		return nil
	}
	return l.keys[len(l.keys)-1]
}

// counterValue sums a counter family for the given label value.
func counterValue(t *testing.T, m *MetricsService, name, label, value string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	total := 0.0
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == label && pair.GetValue() == value {
					total += metric.GetCounter().GetValue()
				}
			}
		}
	}
	return total
}
