// Package storage provides the SQLite persistence layer for memos, category
// preferences and status counters.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/memoflow/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidMemo  = errors.New("invalid memo")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateMemo checks a memo before it is written.
func validateMemo(memo *model.Memo) error {
	if memo == nil {
		return fmt.Errorf("%w: memo", ErrNilParameter)
	}
	if err := memo.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMemo, err)
	}
	return nil
}
