package service

import (
	"context"
	"errors"

	"stockpos/internal/apperror"

	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// notFoundOr maps a storage miss to the domain NotFound; anything else is an
// internal failure whose cause is preserved for logging only.
func notFoundOr(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(format, args...)
	}
	return apperror.Internal(err)
}

// isDuplicateKey relies on GORM error translation (TranslateError) to detect
// unique-constraint races on order numbers, SKUs, and references.
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
