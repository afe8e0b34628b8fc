package testutil

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"issue-tracker/internal/database"
)

// OpenInMemoryDB opens a migrated in-memory SQLite database that is closed
// when the test finishes.
func OpenInMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()

	config := database.DefaultPoolConfig()
	config.DSN = ":memory:"
	config.LogLevel = logger.Silent

	pool, err := database.NewDatabasePool(config)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })

	if err := pool.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return pool.DB
}

// DiscardLogger returns a logger that swallows everything.
func DiscardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
