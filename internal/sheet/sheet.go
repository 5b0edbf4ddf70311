// Package sheet imports the bank transaction spreadsheet exported from the reporting portal.
package sheet

import (
	"github.com/myrjola/lettergen/internal/errors"
	"github.com/xuri/excelize/v2"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingColumns = errors.NewSentinel("missing required columns")
	ErrEmptySheet     = errors.NewSentinel("sheet is empty")
)

// Normalized header names of the columns the import needs.
const (
	ColumnAccountNo     = "account_no"
	ColumnIFSC          = "ifsc_code"
	ColumnAmount        = "transaction_amount"
	ColumnDateFrom      = "date_from"
	ColumnDateTo        = "date_to"
	ColumnTransactionID = "transaction_id_/_utr_number2"
	ColumnBank          = "bank/fis"
)

// RequiredColumns lists the headers every bank sheet must have after [NormalizeHeader].
var RequiredColumns = []string{
	ColumnAccountNo, ColumnIFSC, ColumnAmount, ColumnDateFrom, ColumnDateTo, ColumnTransactionID, ColumnBank,
}

// BankTransaction is one data row of the sheet.
type BankTransaction struct {
	// Row is the 1-based spreadsheet row number.
	Row           int
	Bank          string
	AccountNo     string
	IFSC          string
	Amount        string
	TransactionID string
	// DateFrom and DateTo are zero when the cell is empty or unreadable.
	DateFrom time.Time
	DateTo   time.Time
}

// NormalizeHeader trims and lowercases a header and replaces spaces with underscores.
func NormalizeHeader(header string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(header)), " ", "_")
}

// ReadBankTransactions reads the first sheet of the workbook at path.
func ReadBankTransactions(path string) ([]BankTransaction, error) {
	f, err := os.Open(path) //nolint:gosec // the operator picks the sheet.
	if err != nil {
		return nil, errors.Wrap(err, "open workbook", slog.String("path", path))
	}
	defer f.Close()
	transactions, err := ParseBankTransactions(f)
	if err != nil {
		return nil, errors.Wrap(err, "parse workbook", slog.String("path", path))
	}
	return transactions, nil
}

// ParseBankTransactions reads the first sheet of an .xlsx workbook. Rows with no values are skipped.
func ParseBankTransactions(r io.Reader) ([]BankTransaction, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.Wrap(ErrEmptySheet, "no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrap(err, "read rows", slog.String("sheet", sheets[0]))
	}
	if len(rows) == 0 {
		return nil, errors.Wrap(ErrEmptySheet, "no header row", slog.String("sheet", sheets[0]))
	}

	index := map[string]int{}
	for i, header := range rows[0] {
		name := NormalizeHeader(header)
		if _, dup := index[name]; !dup && name != "" {
			index[name] = i
		}
	}
	var missing []string
	for _, column := range RequiredColumns {
		if _, ok := index[column]; !ok {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, errors.Wrap(ErrMissingColumns, "check headers", slog.String("missing", strings.Join(missing, ", ")))
	}

	var transactions []BankTransaction
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		cell := func(column string) string {
			if c := index[column]; c < len(row) {
				return strings.TrimSpace(row[c])
			}
			return ""
		}
		transactions = append(transactions, BankTransaction{
			Row:           i + 2,
			Bank:          cell(ColumnBank),
			AccountNo:     cell(ColumnAccountNo),
			IFSC:          cell(ColumnIFSC),
			Amount:        cell(ColumnAmount),
			TransactionID: cell(ColumnTransactionID),
			DateFrom:      ParseDate(cell(ColumnDateFrom)),
			DateTo:        ParseDate(cell(ColumnDateTo)),
		})
	}
	if len(transactions) == 0 {
		return nil, errors.Wrap(ErrEmptySheet, "no data rows", slog.String("sheet", sheets[0]))
	}
	return transactions, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02-01-2006",
	"02/01/2006",
	"02.01.2006",
	"02-01-2006 15:04:05",
	"02/01/2006 15:04:05",
	"02-Jan-2006",
	"2 Jan 2006",
	time.RFC3339,
}

// ParseDate reads an Excel date serial number or a date written as text. Day-first layouts are assumed for
// ambiguous text. Empty or unreadable input gives the zero time.
func ParseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}
		}
		return t
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
