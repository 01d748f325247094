package services

import (
	"context"

	"gorm.io/gorm"
)

// withTx runs fn inside a database transaction. Repository methods receive
// the transaction handle so every write in fn commits or rolls back as one.
// A nil db runs fn directly, for repositories that manage their own state.
func withTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}
