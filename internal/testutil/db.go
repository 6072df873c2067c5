// internal/testutil/db.go
package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/apparel-inventory/internal/database"
)

// Open returns a private in-memory SQLite database with the schema migrated
// and the product types seeded.
func Open() (*gorm.DB, error) {
	db, err := database.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), "silent")
	if err != nil {
		return nil, err
	}

	// Each connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.RunMigrations(db); err != nil {
		database.Close(db)
		return nil, err
	}
	if err := database.SeedProductTypes(db); err != nil {
		database.Close(db)
		return nil, err
	}
	return db, nil
}

// NewDB is Open for tests; the database is closed when the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := Open()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return db
}
