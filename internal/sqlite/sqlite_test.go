package sqlite_test

import (
	"context"
	"github.com/myrjola/lettergen/internal/auth"
	"github.com/myrjola/lettergen/internal/sqlite"
	"github.com/myrjola/lettergen/internal/testhelpers"
	"github.com/stretchr/testify/require"
	"io"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDatabase_seedsAdmin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lettergen.sqlite3")
	logger := testhelpers.NewLogger(io.Discard)

	db, err := sqlite.NewDatabase(ctx, path, sqlite.Options{AdminPassword: "first-pass"}, logger)
	require.NoError(t, err)
	require.NoError(t, db.Close(ctx))

	// Reopening keeps the existing account and its password.
	db, err = sqlite.NewDatabase(ctx, path, sqlite.Options{AdminPassword: "second-pass"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close(ctx)) })

	var hashes [][]byte
	require.NoError(t, db.ReadOnly.SelectContext(ctx, &hashes,
		"SELECT password_hash FROM officers WHERE username = 'admin'"))
	require.Len(t, hashes, 1)
	require.NoError(t, auth.CheckPassword(hashes[0], "first-pass"))
}

func TestNewDatabase_casesAreAppendOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, err := sqlite.NewDatabase(ctx, ":memory:", sqlite.Options{}, testhelpers.NewLogger(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close(ctx)) })

	_, err = db.ReadWrite.ExecContext(ctx,
		"INSERT INTO cases (crime_number, report_ref) VALUES ('21/2025', '11223344556677')")
	require.NoError(t, err)
	_, err = db.ReadWrite.ExecContext(ctx, "UPDATE cases SET report_ref = 'changed'")
	require.ErrorContains(t, err, "append-only")

	_, err = db.ReadOnly.ExecContext(ctx,
		"INSERT INTO cases (crime_number, report_ref) VALUES ('22/2025', '11223344556678')")
	require.Error(t, err, "read-only pool must reject writes")
}

func TestClassify_busy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "busy.sqlite3")
	logger := testhelpers.NewLogger(io.Discard)
	opts := sqlite.Options{BusyTimeout: 20 * time.Millisecond}

	holder, err := sqlite.NewDatabase(ctx, path, opts, logger)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, holder.Close(ctx)) })
	contender, err := sqlite.NewDatabase(ctx, path, opts, logger)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, contender.Close(ctx)) })

	// An immediate transaction takes the write lock right away.
	tx, err := holder.ReadWrite.BeginTxx(ctx, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })

	_, err = contender.ReadWrite.ExecContext(ctx,
		"INSERT INTO cases (crime_number, report_ref) VALUES ('21/2025', '11223344556677')")
	require.Error(t, err)
	require.ErrorIs(t, sqlite.Classify(err), sqlite.ErrBusy)

	require.NoError(t, tx.Rollback())
	_, err = contender.ReadWrite.ExecContext(ctx,
		"INSERT INTO cases (crime_number, report_ref) VALUES ('21/2025', '11223344556677')")
	require.NoError(t, err, "the write succeeds once the lock is released")

	require.NoError(t, sqlite.Classify(nil))
}
