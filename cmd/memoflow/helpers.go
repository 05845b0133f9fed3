package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/memoflow/internal/labels"
	"github.com/Veraticus/memoflow/internal/storage"
)

// initStorage opens the configured database and migrates it.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(settings.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// loadCatalog returns the reserved-label catalog for the configured locale.
func loadCatalog() (*labels.Catalog, error) {
	catalog, err := labels.Load(settings.Locale)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	return catalog, nil
}
