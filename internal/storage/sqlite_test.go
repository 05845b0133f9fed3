package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/memoflow/internal/common"
	"github.com/Veraticus/memoflow/internal/model"
)

// createTestStorage opens a migrated file-backed database in a temp dir.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func newMemo(content, category string, createdAt time.Time) *model.Memo {
	return &model.Memo{
		Content:          content,
		MemoType:         model.MemoTypeText,
		Category:         category,
		OriginalCategory: category,
		CreatedAt:        createdAt,
	}
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Migrate(ctx))
	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Idempotent.
	require.NoError(t, store.Migrate(ctx))

	_, err = store.db.ExecContext(ctx, "PRAGMA user_version = 99")
	require.NoError(t, err)
	assert.Error(t, store.Migrate(ctx))
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage(" ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestMemoLifecycle(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	memo := newMemo("buy oat milk", "Shopping", time.Time{})
	memo.SubCategory = "Groceries"
	memo.SourceApp = "Notes"

	id, err := store.InsertMemo(ctx, memo)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, memo.ID)
	assert.False(t, memo.CreatedAt.IsZero())

	got, err := store.GetMemoByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "buy oat milk", got.Content)
	assert.Equal(t, model.MemoTypeText, got.MemoType)
	assert.Equal(t, "Shopping", got.Category)
	assert.Equal(t, "Groceries", got.SubCategory)
	assert.Equal(t, "Notes", got.SourceApp)
	assert.WithinDuration(t, memo.CreatedAt, got.CreatedAt, time.Millisecond)

	got.Category = "Groceries"
	got.MemoType = model.MemoTypeImage
	got.CreatedAt = time.Now().Add(48 * time.Hour)
	require.NoError(t, store.UpdateMemo(ctx, got))

	updated, err := store.GetMemoByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", updated.Category)
	assert.Equal(t, model.MemoTypeText, updated.MemoType, "type is immutable")
	assert.WithinDuration(t, memo.CreatedAt, updated.CreatedAt, time.Millisecond, "creation time is immutable")

	require.NoError(t, store.LockMemoCategory(ctx, id))
	locked, err := store.GetMemoByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, locked.IsCategoryLocked)

	require.NoError(t, store.DeleteMemo(ctx, id))
	gone, err := store.GetMemoByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, gone)

	assert.ErrorIs(t, store.DeleteMemo(ctx, id), common.ErrNotFound)
	assert.ErrorIs(t, store.LockMemoCategory(ctx, id), common.ErrNotFound)
	assert.ErrorIs(t, store.UpdateMemo(ctx, got), common.ErrNotFound)
}

func TestInsertMemo_Errors(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	_, err := store.InsertMemo(ctx, &model.Memo{Content: "x", MemoType: model.MemoTypeText})
	assert.ErrorIs(t, err, ErrInvalidMemo)

	memo := newMemo("x", "Notes", time.Now())
	memo.ID = "fixed-id"
	_, err = store.InsertMemo(ctx, memo)
	require.NoError(t, err)

	dup := newMemo("y", "Notes", time.Now())
	dup.ID = "fixed-id"
	_, err = store.InsertMemo(ctx, dup)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestMemoQueries(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	seed := []*model.Memo{
		newMemo("flight to Osaka", "Travel", base),
		newMemo("ramen recipe", "Recipes", base.Add(time.Hour)),
		newMemo("hotel booking", "travel", base.Add(2*time.Hour)),
		newMemo("???", "Failure", base.Add(3*time.Hour)),
	}
	image := &model.Memo{
		ImageURI:  "file:///photos/receipt.png",
		Content:   "A receipt",
		MemoType:  model.MemoTypeImage,
		Category:  "Receipts",
		CreatedAt: base.Add(4 * time.Hour),
	}
	seed = append(seed, image)
	for _, m := range seed {
		_, err := store.InsertMemo(ctx, m)
		require.NoError(t, err)
	}

	t.Run("all newest first", func(t *testing.T) {
		all, err := store.GetAllMemos(ctx)
		require.NoError(t, err)
		require.Len(t, all, 5)
		assert.Equal(t, "A receipt", all[0].Content)
		assert.Equal(t, "flight to Osaka", all[4].Content)
	})

	t.Run("by category ignores case", func(t *testing.T) {
		travel, err := store.GetMemosByCategory(ctx, "TRAVEL")
		require.NoError(t, err)
		require.Len(t, travel, 2)
		assert.Equal(t, "hotel booking", travel[0].Content)
	})

	t.Run("distinct labels most recent first", func(t *testing.T) {
		labels, err := store.GetDistinctCategoryLabels(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Receipts", "Failure", "travel", "Recipes", "Travel"}, labels)
	})

	t.Run("find by content", func(t *testing.T) {
		found, err := store.FindMemoByContent(ctx, "ramen recipe")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Recipes", found.Category)

		missing, err := store.FindMemoByContent(ctx, "ramen")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("find by image ref", func(t *testing.T) {
		found, err := store.FindMemoByImageRef(ctx, "file:///photos/receipt.png")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, model.MemoTypeImage, found.MemoType)

		missing, err := store.FindMemoByImageRef(ctx, "file:///photos/other.png")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("empty arguments", func(t *testing.T) {
		_, err := store.GetMemosByCategory(ctx, "")
		assert.ErrorIs(t, err, ErrEmptyString)
		_, err = store.FindMemoByContent(ctx, " ")
		assert.ErrorIs(t, err, ErrEmptyString)
		_, err = store.GetMemoByID(ctx, "")
		assert.ErrorIs(t, err, ErrEmptyString)
	})
}

func TestCustomCategories(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	require.NoError(t, store.AddCustomCategory(ctx, " Side Project "))
	require.NoError(t, store.AddCustomCategory(ctx, "side project"), "re-adding is a no-op")
	require.NoError(t, store.AddCustomCategory(ctx, "Reading"))

	custom, err := store.GetCustomCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Side Project", "Reading"}, custom)

	require.NoError(t, store.RemoveCustomCategory(ctx, "READING"))
	assert.ErrorIs(t, store.RemoveCustomCategory(ctx, "Reading"), common.ErrNotFound)

	assert.ErrorIs(t, store.AddCustomCategory(ctx, ""), ErrEmptyString)
}

func TestCustomCategories_Limit(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	for i := 0; i < model.MaxCustomCategories; i++ {
		require.NoError(t, store.AddCustomCategory(ctx, string(rune('A'+i))))
	}
	assert.ErrorIs(t, store.AddCustomCategory(ctx, "One too many"), common.ErrCustomCategoryLimit)
	assert.NoError(t, store.AddCustomCategory(ctx, "a"), "existing names are still accepted at the limit")

	custom, err := store.GetCustomCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, custom, model.MaxCustomCategories)
}

func TestFavoriteCategories(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	require.NoError(t, store.AddFavoriteCategory(ctx, "Travel"))
	require.NoError(t, store.AddFavoriteCategory(ctx, "travel"))
	require.NoError(t, store.AddFavoriteCategory(ctx, "Recipes"))

	favs, err := store.GetFavoriteCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Travel", "Recipes"}, favs)

	require.NoError(t, store.RemoveFavoriteCategory(ctx, "Travel"))
	assert.ErrorIs(t, store.RemoveFavoriteCategory(ctx, "Travel"), common.ErrNotFound)
}

func TestGetCategorySummaries(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, m := range []*model.Memo{
		newMemo("a", "Travel", base),
		newMemo("b", "Travel", base.Add(time.Minute)),
		newMemo("c", "Recipes", base.Add(2*time.Minute)),
	} {
		_, err := store.InsertMemo(ctx, m)
		require.NoError(t, err, "memo %d", i)
	}
	require.NoError(t, store.AddCustomCategory(ctx, "Travel"))
	require.NoError(t, store.AddCustomCategory(ctx, "Side Project"))
	require.NoError(t, store.AddFavoriteCategory(ctx, "Recipes"))

	summaries, err := store.GetCategorySummaries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.CategorySummary{
		{Name: "Recipes", MemoCount: 1, IsFavorite: true},
		{Name: "Travel", MemoCount: 2, IsCustom: true},
		{Name: "Side Project", MemoCount: 0, IsCustom: true},
	}, summaries)
}

func TestStatusCounters(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	counters, err := store.GetStatusCounters(ctx)
	require.NoError(t, err)
	assert.Empty(t, counters)

	v, err := store.AddStatusCounter(ctx, "kindness", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = store.AddStatusCounter(ctx, "kindness", 2)
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	v, err = store.AddStatusCounter(ctx, "kindness", -10)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	_, err = store.AddStatusCounter(ctx, "exp", 7)
	require.NoError(t, err)

	counters, err = store.GetStatusCounters(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"kindness": 0, "exp": 7}, counters)

	_, err = store.AddStatusCounter(ctx, "charm", 1)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
