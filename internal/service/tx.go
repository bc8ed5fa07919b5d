package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/pkg/database"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type advisoryLocker interface {
	Lock(ctx context.Context, tx *sqlx.Tx, keys ...string) error
}

const prerequisiteGraphLock = "subject-graph"

func classLockKey(classID string) string {
	return "class:" + classID
}

// slotLockKeys returns the per-day keys guarding every resource a slot occupies.
func slotLockKeys(slot ...slotResources) []string {
	keys := make([]string, 0, len(slot)*3)
	for _, s := range slot {
		keys = append(keys,
			fmt.Sprintf("timeslot:teacher:%s:%d", s.teacherID, s.day),
			fmt.Sprintf("timeslot:room:%s:%d", s.roomID, s.day),
			fmt.Sprintf("timeslot:class:%s:%d", s.classID, s.day),
		)
	}
	return database.SortedKeys(keys)
}

type slotResources struct {
	day       int
	teacherID string
	roomID    string
	classID   string
}

// withLockedTx runs fn in a transaction after taking the advisory locks for keys.
func withLockedTx(ctx context.Context, db txProvider, locker advisoryLocker, keys []string, fn func(tx *sqlx.Tx) error) error {
	return database.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		if locker != nil && len(keys) > 0 {
			if err := locker.Lock(ctx, tx, keys...); err != nil {
				return err
			}
		}
		return fn(tx)
	})
}
