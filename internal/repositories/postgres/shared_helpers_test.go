package postgres

import (
	"strings"
	"testing"

	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/studybud-app/room-service/internal/models"
)

// newDryRunDB opens a gorm session that renders SQL without touching a
// database. The pgx connection is lazy and the startup ping is disabled, so
// no server is needed.
func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(pgdriver.New(pgdriver.Config{
		DSN:                  "host=localhost user=test dbname=test",
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestSortColumnsAreTableQualified(t *testing.T) {
	db := newDryRunDB(t)

	// The searched list joins topics, which also has a name column; the
	// ordering must stay pinned to rooms.
	query := db.Model(&models.Room{}).
		Joins("LEFT JOIN topics ON topics.id = rooms.topic_id")
	query = applyPaginationAndSort(query, "rooms", "name", "desc", 10, 0)

	var rooms []*models.Room
	sql := query.Find(&rooms).Statement.SQL.String()

	if !strings.Contains(sql, `ORDER BY rooms.name DESC`) {
		t.Errorf("expected a table-qualified order clause, got %q", sql)
	}
}

func TestSortColumnWhitelistFallsBack(t *testing.T) {
	db := newDryRunDB(t)

	query := applyPaginationAndSort(db.Model(&models.Room{}), "rooms", "payload; DROP TABLE rooms", "desc", 10, 0)

	var rooms []*models.Room
	sql := query.Find(&rooms).Statement.SQL.String()

	if !strings.Contains(sql, `ORDER BY rooms.created_at DESC`) {
		t.Errorf("expected the fallback order clause, got %q", sql)
	}
}
