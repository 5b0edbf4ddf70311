package sqlite

import (
	"context"
	"github.com/myrjola/lettergen/internal/errors"
	"log/slog"
	"time"
)

// optimize runs PRAGMA optimize, which is recommended before closing short-lived connections.
// See https://www.sqlite.org/pragma.html#pragma_optimize.
func (db *Database) optimize(ctx context.Context) {
	start := time.Now()
	if _, err := db.ReadWrite.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
		err = errors.Wrap(Classify(err), "optimize database")
		db.logger.LogAttrs(ctx, slog.LevelWarn, "failed to optimize database", errors.SlogError(err))
		return
	}
	db.logger.LogAttrs(ctx, slog.LevelDebug, "optimized database", slog.Duration("duration", time.Since(start)))
}
