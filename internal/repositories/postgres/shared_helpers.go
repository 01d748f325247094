package postgres

import (
	"fmt"

	"gorm.io/gorm"
)

// handleDBError is a package-level helper for wrapping database errors with
// the failing operation. gorm.ErrRecordNotFound is passed through unwrapped
// so callers can match it with repositories.IsNotFoundError.
func handleDBError(err error, operation string) error {
	if err == nil {
		return nil
	}
	if err == gorm.ErrRecordNotFound {
		return err
	}
	return fmt.Errorf("%s failed: %w", operation, err)
}

// applyPaginationAndSort applies pagination and sorting with a whitelist of
// sortable columns. The sort column is qualified with table so that joined
// relations sharing a column name cannot capture the ordering.
func applyPaginationAndSort(query *gorm.DB, table, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	allowedSortColumns := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"name":       true,
		"rating":     true,
		"price":      true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(table + "." + sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}
