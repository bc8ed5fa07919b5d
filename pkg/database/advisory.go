package database

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
)

// AdvisoryLocker takes transaction-scoped Postgres advisory locks. Locks are released on commit or rollback.
type AdvisoryLocker struct{}

// NewAdvisoryLocker constructs the locker.
func NewAdvisoryLocker() *AdvisoryLocker {
	return &AdvisoryLocker{}
}

// Lock acquires every key inside tx. Keys are de-duplicated and sorted so concurrent writers
// always acquire them in the same order.
func (l *AdvisoryLocker) Lock(ctx context.Context, tx *sqlx.Tx, keys ...string) error {
	for _, key := range SortedKeys(keys) {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key); err != nil {
			return fmt.Errorf("advisory lock %s: %w", key, err)
		}
	}
	return nil
}

// SortedKeys returns the distinct non-empty keys in ascending order.
func SortedKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
