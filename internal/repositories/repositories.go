// Package repositories stores officers, cases and notices in the SQLite database.
package repositories

import (
	"database/sql"
	"github.com/myrjola/lettergen/internal/errors"
	"github.com/myrjola/lettergen/internal/sqlite"
	"log/slog"
)

var ErrNotFound = errors.NewSentinel("not found")

// wrap annotates err and marks lock contention with [sqlite.ErrBusy]. Missing rows become ErrNotFound.
func wrap(err error, msg string, attrs ...slog.Attr) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(ErrNotFound, msg, attrs...)
	}
	return errors.Wrap(sqlite.Classify(err), msg, attrs...)
}
