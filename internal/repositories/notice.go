package repositories

import (
	"context"
	"github.com/myrjola/lettergen/internal/models"
	"github.com/myrjola/lettergen/internal/sqlite"
	"log/slog"
)

type NoticeRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewNoticeRepository(db *sqlite.Database, logger *slog.Logger) *NoticeRepository {
	return &NoticeRepository{
		db:     db,
		logger: logger.With("source", "NoticeRepository"),
	}
}

// Record stores a generated notice and returns its id.
func (r *NoticeRepository) Record(ctx context.Context, notice models.Notice) (int64, error) {
	result, err := r.db.ReadWrite.NamedExecContext(ctx, `INSERT INTO notices
    (case_id, officer_id, batch_id, letter_type, recipient, output_path)
VALUES (:case_id, :officer_id, :batch_id, :letter_type, :recipient, :output_path)`, notice)
	if err != nil {
		return 0, wrap(err, "insert notice",
			slog.Int64("case_id", notice.CaseID), slog.String("recipient", notice.Recipient))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, wrap(err, "read notice id")
	}
	return id, nil
}

// ListForCase lists the notices of a case in the order they were generated.
func (r *NoticeRepository) ListForCase(ctx context.Context, caseID int64) ([]models.Notice, error) {
	var notices []models.Notice
	if err := r.db.ReadOnly.SelectContext(ctx, &notices, `SELECT
    id, case_id, officer_id, batch_id, letter_type, recipient, output_path, created
FROM notices
WHERE case_id = ?
ORDER BY id`, caseID); err != nil {
		return nil, wrap(err, "select notices", slog.Int64("case_id", caseID))
	}
	return notices, nil
}
