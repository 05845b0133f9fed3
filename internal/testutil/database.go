// Package testutil provides shared test helpers: a migrated in-memory
// database and a fluent builder for memo fixtures.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/memoflow/internal/model"
	"github.com/Veraticus/memoflow/internal/service"
	"github.com/Veraticus/memoflow/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
	Memos   []model.Memo
}

// TestDBOptions configures SetupTestDB.
type TestDBOptions struct {
	CustomSetup func(context.Context, service.Storage) error
	Custom      []string
	Favorites   []string
	Memos       []model.Memo
}

// SetupTestDB creates a migrated in-memory database seeded according to opts.
// Cleanup is registered on t.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.TestDBOptions{
//		Custom: []string{"Side Project"},
//		Memos:  testutil.NewMemoBuilder().Text("ramen recipe", "Recipes").Build(),
//	})
func SetupTestDB(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	for _, name := range opts.Custom {
		if err := store.AddCustomCategory(ctx, name); err != nil {
			t.Fatalf("failed to seed custom category %q: %v", name, err)
		}
	}
	for _, name := range opts.Favorites {
		if err := store.AddFavoriteCategory(ctx, name); err != nil {
			t.Fatalf("failed to seed favorite category %q: %v", name, err)
		}
	}

	memos := make([]model.Memo, 0, len(opts.Memos))
	for i := range opts.Memos {
		m := opts.Memos[i]
		if _, err := store.InsertMemo(ctx, &m); err != nil {
			t.Fatalf("failed to seed memo %q: %v", m.Content, err)
		}
		memos = append(memos, m)
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{
		Storage: store,
		Memos:   memos,
		t:       t,
	}
}

// MustGetMemo reloads a memo by id or fails the test.
func (db *TestDB) MustGetMemo(id string) *model.Memo {
	db.t.Helper()
	m, err := db.Storage.GetMemoByID(context.Background(), id)
	if err != nil {
		db.t.Fatalf("failed to load memo %s: %v", id, err)
	}
	if m == nil {
		db.t.Fatalf("memo %s not found", id)
	}
	return m
}

// MemoCount returns how many memos are stored.
func (db *TestDB) MemoCount() int {
	db.t.Helper()
	all, err := db.Storage.GetAllMemos(context.Background())
	if err != nil {
		db.t.Fatalf("failed to list memos: %v", err)
	}
	return len(all)
}
