package services

import (
	"context"

	"gorm.io/gorm"
)

// runInTx makes every aggregate mutation all-or-nothing. A nil db (unit
// tests with fake repos) runs the callback without a transaction.
func runInTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}
