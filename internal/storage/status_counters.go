package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/memoflow/internal/common"
	"github.com/Veraticus/memoflow/internal/status"
)

// GetStatusCounters returns every stored counter. Counters never touched are absent.
func (s *SQLiteStorage) GetStatusCounters(ctx context.Context) (map[string]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM status_counters`)
	if err != nil {
		return nil, fmt.Errorf("failed to query status counters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counters := make(map[string]int)
	for rows.Next() {
		var (
			name  string
			value int
		)
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan status counter: %w", err)
		}
		counters[name] = value
	}
	return counters, rows.Err()
}

// AddStatusCounter adds delta to a counter and returns the new value. Counters
// do not go below zero.
func (s *SQLiteStorage) AddStatusCounter(ctx context.Context, name string, delta int) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if !status.IsCounter(name) {
		return 0, fmt.Errorf("%w: unknown status counter %q", common.ErrInvalidInput, name)
	}

	var value int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO status_counters (name, value) VALUES (?, 0) ON CONFLICT(name) DO NOTHING`, name); err != nil {
			return fmt.Errorf("failed to create status counter: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE status_counters
			SET value = MAX(0, value + ?), updated_at = CURRENT_TIMESTAMP
			WHERE name = ?`, delta, name); err != nil {
			return fmt.Errorf("failed to update status counter: %w", err)
		}
		return tx.QueryRowContext(ctx, `SELECT value FROM status_counters WHERE name = ?`, name).Scan(&value)
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}
