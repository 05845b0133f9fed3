package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Veraticus/memoflow/internal/common"
	"github.com/Veraticus/memoflow/internal/model"
)

// preferenceTable names a category preference list.
type preferenceTable string

const (
	customTable   preferenceTable = "custom_categories"
	favoriteTable preferenceTable = "favorite_categories"
)

func (s *SQLiteStorage) listPreference(ctx context.Context, table preferenceTable) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	// #nosec G201 -- table is one of the preferenceTable constants
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT name FROM %s ORDER BY created_at, rowid`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStorage) removePreference(ctx context.Context, table preferenceTable, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}

	// #nosec G201 -- table is one of the preferenceTable constants
	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE name = ?`, table), strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("failed to remove from %s: %w", table, err)
	}
	return expectAffected(result, string(table), name)
}

// GetCustomCategories returns the user's fixed categories in creation order.
func (s *SQLiteStorage) GetCustomCategories(ctx context.Context) ([]string, error) {
	return s.listPreference(ctx, customTable)
}

// AddCustomCategory declares a fixed category. Adding an existing name is a
// no-op; a new name beyond model.MaxCustomCategories fails with
// common.ErrCustomCategoryLimit.
func (s *SQLiteStorage) AddCustomCategory(ctx context.Context, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}
	name = strings.TrimSpace(name)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM custom_categories WHERE name = ?)`, name).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check custom category: %w", err)
		}
		if exists {
			return nil
		}

		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM custom_categories`).Scan(&count); err != nil {
			return fmt.Errorf("failed to count custom categories: %w", err)
		}
		if count >= model.MaxCustomCategories {
			return fmt.Errorf("%w: at most %d", common.ErrCustomCategoryLimit, model.MaxCustomCategories)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO custom_categories (name) VALUES (?)`, name); err != nil {
			return fmt.Errorf("failed to add custom category: %w", mapConstraintError(err))
		}
		return nil
	})
}

// RemoveCustomCategory drops a fixed category. Memos keep their label.
func (s *SQLiteStorage) RemoveCustomCategory(ctx context.Context, name string) error {
	return s.removePreference(ctx, customTable, name)
}

// GetFavoriteCategories returns the starred categories in the order they were starred.
func (s *SQLiteStorage) GetFavoriteCategories(ctx context.Context) ([]string, error) {
	return s.listPreference(ctx, favoriteTable)
}

// AddFavoriteCategory stars a category. Starring twice is a no-op.
func (s *SQLiteStorage) AddFavoriteCategory(ctx context.Context, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO favorite_categories (name) VALUES (?) ON CONFLICT(name) DO NOTHING`,
		strings.TrimSpace(name)); err != nil {
		return fmt.Errorf("failed to add favorite category: %w", err)
	}
	return nil
}

// RemoveFavoriteCategory un-stars a category.
func (s *SQLiteStorage) RemoveFavoriteCategory(ctx context.Context, name string) error {
	return s.removePreference(ctx, favoriteTable, name)
}
