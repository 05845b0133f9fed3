package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/memoflow/internal/common"
	"github.com/Veraticus/memoflow/internal/model"
)

const memoColumns = `id, content, image_uri, memo_type, category, sub_category, summary,
	source_app, original_category, is_category_locked, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemo(row rowScanner) (*model.Memo, error) {
	var (
		m        model.Memo
		memoType string
	)
	if err := row.Scan(
		&m.ID,
		&m.Content,
		&m.ImageURI,
		&memoType,
		&m.Category,
		&m.SubCategory,
		&m.Summary,
		&m.SourceApp,
		&m.OriginalCategory,
		&m.IsCategoryLocked,
		&m.CreatedAt,
	); err != nil {
		return nil, err
	}

	t, err := model.ParseMemoType(memoType)
	if err != nil {
		return nil, fmt.Errorf("%w: memo %s: %v", common.ErrDatabaseCorrupted, m.ID, err)
	}
	m.MemoType = t
	return &m, nil
}

func (s *SQLiteStorage) queryMemos(ctx context.Context, query string, args ...any) ([]model.Memo, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var memos []model.Memo
	for rows.Next() {
		m, err := scanMemo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memo: %w", err)
		}
		memos = append(memos, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memos: %w", err)
	}
	return memos, nil
}

func (s *SQLiteStorage) queryMemo(ctx context.Context, query string, args ...any) (*model.Memo, error) {
	m, err := scanMemo(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memo: %w", err)
	}
	return m, nil
}

// InsertMemo stores a new memo and returns its id. A missing id or creation
// time is filled in.
func (s *SQLiteStorage) InsertMemo(ctx context.Context, memo *model.Memo) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateMemo(memo); err != nil {
		return "", err
	}

	if memo.ID == "" {
		memo.ID = uuid.NewString()
	}
	if memo.CreatedAt.IsZero() {
		memo.CreatedAt = time.Now()
	}
	memo.CreatedAt = memo.CreatedAt.UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memos (`+memoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		memo.ID,
		memo.Content,
		memo.ImageURI,
		string(memo.MemoType),
		memo.Category,
		memo.SubCategory,
		memo.Summary,
		memo.SourceApp,
		memo.OriginalCategory,
		memo.IsCategoryLocked,
		memo.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert memo: %w", mapConstraintError(err))
	}

	return memo.ID, nil
}

// UpdateMemo rewrites a memo's mutable fields. The id, type and creation time
// are never changed.
func (s *SQLiteStorage) UpdateMemo(ctx context.Context, memo *model.Memo) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateMemo(memo); err != nil {
		return err
	}
	if err := validateString(memo.ID, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE memos SET
			content = ?,
			image_uri = ?,
			category = ?,
			sub_category = ?,
			summary = ?,
			source_app = ?,
			original_category = ?,
			is_category_locked = ?
		WHERE id = ?`,
		memo.Content,
		memo.ImageURI,
		memo.Category,
		memo.SubCategory,
		memo.Summary,
		memo.SourceApp,
		memo.OriginalCategory,
		memo.IsCategoryLocked,
		memo.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update memo: %w", err)
	}
	return expectAffected(result, "memo", memo.ID)
}

// GetMemoByID returns the memo or nil when it does not exist.
func (s *SQLiteStorage) GetMemoByID(ctx context.Context, id string) (*model.Memo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.queryMemo(ctx, `SELECT `+memoColumns+` FROM memos WHERE id = ?`, id)
}

// GetAllMemos returns every memo, newest first.
func (s *SQLiteStorage) GetAllMemos(ctx context.Context) ([]model.Memo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryMemos(ctx, `SELECT `+memoColumns+` FROM memos ORDER BY created_at DESC, rowid DESC`)
}

// GetMemosByCategory returns the memos filed under category, newest first.
// Matching ignores ASCII case.
func (s *SQLiteStorage) GetMemosByCategory(ctx context.Context, category string) ([]model.Memo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(category, "category"); err != nil {
		return nil, err
	}
	return s.queryMemos(ctx, `
		SELECT `+memoColumns+` FROM memos
		WHERE category = ? COLLATE NOCASE
		ORDER BY created_at DESC, rowid DESC`, category)
}

// GetDistinctCategoryLabels returns every category in use, most recently used first.
func (s *SQLiteStorage) GetDistinctCategoryLabels(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category FROM memos
		GROUP BY category
		ORDER BY MAX(created_at) DESC, category`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

// GetCategorySummaries returns the derived taxonomy: every label in use plus
// every custom category, with memo counts and preference flags.
func (s *SQLiteStorage) GetCategorySummaries(ctx context.Context) ([]model.CategorySummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		WITH labels AS (
			SELECT category AS name, COUNT(*) AS memo_count, MAX(created_at) AS last_used
			FROM memos GROUP BY category
			UNION ALL
			SELECT name, 0, NULL FROM custom_categories
			WHERE name NOT IN (SELECT category FROM memos)
		)
		SELECT l.name, SUM(l.memo_count),
			EXISTS (SELECT 1 FROM custom_categories c WHERE c.name = l.name),
			EXISTS (SELECT 1 FROM favorite_categories f WHERE f.name = l.name)
		FROM labels l
		GROUP BY l.name
		ORDER BY MAX(l.last_used) IS NULL, MAX(l.last_used) DESC, l.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query category summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []model.CategorySummary
	for rows.Next() {
		var cs model.CategorySummary
		if err := rows.Scan(&cs.Name, &cs.MemoCount, &cs.IsCustom, &cs.IsFavorite); err != nil {
			return nil, fmt.Errorf("failed to scan category summary: %w", err)
		}
		summaries = append(summaries, cs)
	}
	return summaries, rows.Err()
}

// FindMemoByContent returns the newest memo with exactly this content, or nil.
func (s *SQLiteStorage) FindMemoByContent(ctx context.Context, content string) (*model.Memo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(content, "content"); err != nil {
		return nil, err
	}
	return s.queryMemo(ctx, `
		SELECT `+memoColumns+` FROM memos
		WHERE content = ?
		ORDER BY created_at DESC LIMIT 1`, content)
}

// FindMemoByImageRef returns the newest memo for this image reference, or nil.
func (s *SQLiteStorage) FindMemoByImageRef(ctx context.Context, ref string) (*model.Memo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ref, "ref"); err != nil {
		return nil, err
	}
	return s.queryMemo(ctx, `
		SELECT `+memoColumns+` FROM memos
		WHERE image_uri = ?
		ORDER BY created_at DESC LIMIT 1`, ref)
}

// DeleteMemo removes a memo.
func (s *SQLiteStorage) DeleteMemo(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM memos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete memo: %w", err)
	}
	return expectAffected(result, "memo", id)
}

// LockMemoCategory pins a memo's category so re-analysis never merges it.
func (s *SQLiteStorage) LockMemoCategory(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `UPDATE memos SET is_category_locked = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to lock memo category: %w", err)
	}
	return expectAffected(result, "memo", id)
}

func expectAffected(result sql.Result, kind, key string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", kind, key, common.ErrNotFound)
	}
	return nil
}
