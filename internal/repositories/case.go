package repositories

import (
	"context"
	"github.com/myrjola/lettergen/internal/errors"
	"github.com/myrjola/lettergen/internal/models"
	"github.com/myrjola/lettergen/internal/sqlite"
	"log/slog"
)

type CaseRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewCaseRepository(db *sqlite.Database, logger *slog.Logger) *CaseRepository {
	return &CaseRepository{
		db:     db,
		logger: logger.With("source", "CaseRepository"),
	}
}

// FindOrCreate returns the id of the case with the exact crime number and report reference, storing it first if it
// does not exist yet. Calling it again with the same pair returns the same id.
func (r *CaseRepository) FindOrCreate(ctx context.Context, crimeNumber string, reportRef string) (int64, error) {
	attrs := []slog.Attr{slog.String("crime_number", crimeNumber), slog.String("report_ref", reportRef)}
	tx, err := r.db.ReadWrite.BeginTxx(ctx, nil)
	if err != nil {
		return 0, wrap(err, "begin transaction", attrs...)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `INSERT INTO cases (crime_number, report_ref) VALUES (?, ?)
ON CONFLICT (crime_number, report_ref) DO NOTHING`, crimeNumber, reportRef)
	if err != nil {
		return 0, wrap(err, "insert case", attrs...)
	}
	var id int64
	if err = tx.GetContext(ctx, &id,
		"SELECT id FROM cases WHERE crime_number = ? AND report_ref = ?", crimeNumber, reportRef); err != nil {
		return 0, wrap(err, "select case", attrs...)
	}
	if err = tx.Commit(); err != nil {
		return 0, wrap(err, "commit case", attrs...)
	}

	if created, _ := result.RowsAffected(); created > 0 {
		r.logger.LogAttrs(ctx, slog.LevelInfo, "created case", append(attrs, slog.Int64("case_id", id))...)
	}
	return id, nil
}

// Get reads the case with id.
func (r *CaseRepository) Get(ctx context.Context, id int64) (models.Case, error) {
	var c models.Case
	if err := r.db.ReadOnly.GetContext(ctx, &c,
		"SELECT id, crime_number, report_ref, created FROM cases WHERE id = ?", id); err != nil {
		return models.Case{}, wrap(err, "get case", slog.Int64("case_id", id))
	}
	return c, nil
}

// Recent lists at most limit cases, newest first.
func (r *CaseRepository) Recent(ctx context.Context, limit int) ([]models.Case, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive", slog.Int("limit", limit))
	}
	var cases []models.Case
	if err := r.db.ReadOnly.SelectContext(ctx, &cases, `SELECT id, crime_number, report_ref, created
FROM cases
ORDER BY created DESC, id DESC
LIMIT ?`, limit); err != nil {
		return nil, wrap(err, "select recent cases", slog.Int("limit", limit))
	}
	return cases, nil
}
