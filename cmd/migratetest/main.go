package main

import (
	"context"
	"github.com/myrjola/lettergen/internal/config"
	"github.com/myrjola/lettergen/internal/errors"
	"github.com/myrjola/lettergen/internal/sqlite"
	"github.com/myrjola/lettergen/internal/testhelpers"
	"log/slog"
	"os"
	"time"
)

// Opens a copy of a production database, which synchronizes its schema, and checks that the data survived.
func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	var (
		err    error
		start  = time.Now()
		ctx    context.Context
		cfg    config.Config
		cancel context.CancelFunc
	)
	ctx = context.Background()
	ctx, cancel = context.WithTimeout(ctx, 5*time.Second) //nolint:mnd // 5 seconds

	if _, ok := os.LookupEnv("LETTERGEN_SQLITE_URL"); !ok {
		logger.LogAttrs(ctx, slog.LevelError, "LETTERGEN_SQLITE_URL not set")
		os.Exit(1)
	}
	if cfg, err = config.Load(os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error loading config", errors.SlogError(err))
		os.Exit(1)
	}

	var db *sqlite.Database
	if db, err = sqlite.NewDatabase(ctx, cfg.SQLiteURL, sqlite.Options{
		BusyTimeout:   cfg.BusyTimeout(),
		AdminPassword: cfg.AdminPassword,
	}, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating database",
			slog.String("url", cfg.SQLiteURL), errors.SlogError(err))
		os.Exit(1)
	}

	// The admin account always exists, so an empty officers table means the migration lost data.
	var officers, cases int
	if err = db.ReadOnly.GetContext(ctx, &officers, `SELECT COUNT(*) FROM officers`); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error fetching officer count", errors.SlogError(err))
		os.Exit(1)
	}
	if officers == 0 {
		logger.LogAttrs(ctx, slog.LevelError, "no officers found, something is likely wrong")
		os.Exit(1)
	}
	if err = db.ReadOnly.GetContext(ctx, &cases, `SELECT COUNT(*) FROM cases`); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error fetching case count", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "row counts", slog.Int("officers", officers), slog.Int("cases", cases))

	if err = db.Close(ctx); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error closing database", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "Migration test successful 🙌", slog.Duration("duration", time.Since(start)))
	cancel()
	os.Exit(0)
}
