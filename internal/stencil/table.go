package stencil

import (
	"context"
	"github.com/myrjola/lettergen/internal/docx"
	"github.com/myrjola/lettergen/internal/errors"
	"log/slog"
	"strconv"
)

// RecordTableToken marks the paragraph after which the numbered record table goes.
const RecordTableToken = "{{Platform_Account_Table}}"

// recordsPerColumn is how many records fill the first S.No column pair before the table grows sideways.
const recordsPerColumn = 9

// BuildRecordTable lays out records as a numbered table with an "S.No | title" header. Up to nine records use two
// columns. Longer lists get a second column pair holding records 10 onwards next to the first nine.
func BuildRecordTable(records []string, title string) *docx.Table {
	left := min(len(records), recordsPerColumn)
	right := len(records) - left
	cols := 2
	if right > 0 {
		cols = 4
	}

	t := docx.NewTable(1+max(left, right), cols)
	for pair := 0; pair < cols; pair += 2 {
		t.Cell(0, pair).SetText("S.No", docx.Format{})
		t.Cell(0, pair+1).SetText(title, docx.Format{})
	}
	for i, record := range records {
		row, col := i+1, 0
		if i >= recordsPerColumn {
			row, col = i-recordsPerColumn+1, 2
		}
		t.Cell(row, col).SetText(strconv.Itoa(i+1), docx.Format{})
		t.Cell(row, col+1).SetText(record, docx.Format{})
	}
	return t
}

// InsertRecordTable removes [RecordTableToken] from anchor and splices a [BuildRecordTable] table right after it.
//
// The surrounding text of the anchor keeps its formatting. With no records the token is removed and no table is
// inserted. When anchor is nil or lacks the token while records exist, nothing is inserted and ErrMissingAnchor is
// returned so the caller can report it and carry on with the other substitutions.
func (e *Engine) InsertRecordTable(
	ctx context.Context,
	doc *docx.Document,
	anchor *docx.Paragraph,
	records []string,
	title string,
) (*docx.Table, error) {
	if anchor == nil || !e.Substitute(ctx, anchor, Replacements{RecordTableToken: ""}) {
		if len(records) == 0 {
			return nil, nil //nolint:nilnil // nothing to insert is not an error.
		}
		e.logger.LogAttrs(ctx, slog.LevelWarn, "record table placeholder not found",
			slog.String("token", RecordTableToken), slog.Int("records", len(records)))
		return nil, errors.Wrap(ErrMissingAnchor, "insert record table",
			slog.String("token", RecordTableToken), slog.Int("records", len(records)))
	}
	if len(records) == 0 {
		return nil, nil //nolint:nilnil // the placeholder was scrubbed and there is nothing to list.
	}

	t := BuildRecordTable(records, title)
	if err := doc.InsertTableAfter(anchor, t); err != nil {
		return nil, errors.Wrap(err, "insert record table")
	}
	return t, nil
}

// InsertGridTable clears anchor and splices a table with a bold header row and one row per entry of rows after it.
// Rows shorter than header leave the remaining cells empty.
func (e *Engine) InsertGridTable(
	ctx context.Context,
	doc *docx.Document,
	anchor *docx.Paragraph,
	header []string,
	rows [][]string,
) (*docx.Table, error) {
	if anchor == nil {
		return nil, errors.Wrap(ErrMissingAnchor, "insert grid table", slog.Int("rows", len(rows)))
	}
	anchor.Clear()

	t := docx.NewTable(len(rows)+1, len(header))
	for c, title := range header {
		t.Cell(0, c).SetText(title, docx.Format{Bold: docx.On})
	}
	for r, row := range rows {
		for c := range min(len(row), len(header)) {
			t.Cell(r+1, c).SetText(row[c], docx.Format{})
		}
	}
	if err := doc.InsertTableAfter(anchor, t); err != nil {
		return nil, errors.Wrap(err, "insert grid table")
	}
	e.logger.LogAttrs(ctx, slog.LevelDebug, "inserted grid table", slog.Int("rows", len(rows)))
	return t, nil
}
