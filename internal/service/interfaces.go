// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/memoflow/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Memo operations
	InsertMemo(ctx context.Context, memo *model.Memo) (string, error)
	UpdateMemo(ctx context.Context, memo *model.Memo) error
	GetMemoByID(ctx context.Context, id string) (*model.Memo, error)
	GetAllMemos(ctx context.Context) ([]model.Memo, error)
	GetMemosByCategory(ctx context.Context, category string) ([]model.Memo, error)
	GetDistinctCategoryLabels(ctx context.Context) ([]string, error)
	GetCategorySummaries(ctx context.Context) ([]model.CategorySummary, error)
	FindMemoByContent(ctx context.Context, content string) (*model.Memo, error)
	FindMemoByImageRef(ctx context.Context, ref string) (*model.Memo, error)
	DeleteMemo(ctx context.Context, id string) error
	LockMemoCategory(ctx context.Context, id string) error

	// Category preferences
	GetCustomCategories(ctx context.Context) ([]string, error)
	AddCustomCategory(ctx context.Context, name string) error
	RemoveCustomCategory(ctx context.Context, name string) error
	GetFavoriteCategories(ctx context.Context) ([]string, error)
	AddFavoriteCategory(ctx context.Context, name string) error
	RemoveFavoriteCategory(ctx context.Context, name string) error

	// Status counters
	GetStatusCounters(ctx context.Context) (map[string]int, error)
	AddStatusCounter(ctx context.Context, name string, delta int) (int, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// MemoReader is the read-only slice of Storage the categorization pipeline needs.
type MemoReader interface {
	GetDistinctCategoryLabels(ctx context.Context) ([]string, error)
	GetCustomCategories(ctx context.Context) ([]string, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// WithDefaults fills zero fields with sensible values.
func (o RetryOptions) WithDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = 100 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.Multiplier < 1 {
		o.Multiplier = 2
	}
	return o
}
