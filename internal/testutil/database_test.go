package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/memoflow/internal/model"
	"github.com/Veraticus/memoflow/internal/service"
)

func TestSetupTestDB(t *testing.T) {
	ctx := context.Background()
	ran := false

	db := SetupTestDB(t, TestDBOptions{
		Custom:    []string{"Side Project"},
		Favorites: []string{"Recipes"},
		Memos: NewMemoBuilder().
			Text("ramen recipe", "Recipes").
			WebSite("https://example.com/osaka", "Travel").Locked().
			Image("file:///tmp/cat.png", "A cat on a sofa", "Pets").
			Build(),
		CustomSetup: func(ctx context.Context, s service.Storage) error {
			ran = true
			return nil
		},
	})

	assert.True(t, ran)
	require.Len(t, db.Memos, 3)
	assert.Equal(t, 3, db.MemoCount())

	travel := db.MustGetMemo(db.Memos[1].ID)
	assert.Equal(t, model.MemoTypeWebSite, travel.MemoType)
	assert.True(t, travel.IsCategoryLocked)

	custom, err := db.Storage.GetCustomCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Side Project"}, custom)

	labels, err := db.Storage.GetDistinctCategoryLabels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pets", "Travel", "Recipes"}, labels)
}

func TestMemoBuilder(t *testing.T) {
	memos := NewMemoBuilder().Text("a", "A").Text("b", "B").Build()
	require.Len(t, memos, 2)
	assert.True(t, memos[1].CreatedAt.After(memos[0].CreatedAt))
	assert.Equal(t, "A", memos[0].OriginalCategory)
	assert.False(t, memos[0].IsCategoryLocked)
}
