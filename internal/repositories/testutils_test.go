package repositories_test

import (
	"context"
	"github.com/myrjola/lettergen/internal/sqlite"
	"github.com/myrjola/lettergen/internal/testhelpers"
	"io"
	"testing"
)

// newTestDB creates a new in-memory database for testing purposes.
func newTestDB(t *testing.T) *sqlite.Database {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.NewDatabase(ctx, ":memory:", sqlite.Options{AdminPassword: "admin123"},
		testhelpers.NewLogger(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err = db.Close(ctx); err != nil {
			t.Fatal(err)
		}
	})
	return db
}
