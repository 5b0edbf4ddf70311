package letters

import (
	"context"
	"fmt"
	"github.com/myrjola/lettergen/internal/docx"
	"github.com/myrjola/lettergen/internal/errors"
	"github.com/myrjola/lettergen/internal/models"
	"github.com/myrjola/lettergen/internal/records"
	"github.com/myrjola/lettergen/internal/sheet"
	"github.com/myrjola/lettergen/internal/stencil"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

const (
	// MaxBankLetters caps the notices generated from one sheet.
	MaxBankLetters = 200
	// AccountsToken marks the paragraph replaced by the account table.
	AccountsToken = "{{Accounts}}"
	UnknownBank   = "Unknown Bank"
)

var ErrLetterLimit = errors.NewSentinel("letter limit reached")

var accountTableHeader = []string{"Account Number", "IFSC Code"}

// BankGroup is everything one bank notice lists.
type BankGroup struct {
	Bank     string
	Accounts []records.Account
	// DateFrom is the earliest start date and DateTo the latest end date of the group, formatted with DateLayout,
	// or NotAvailable.
	DateFrom string
	DateTo   string
}

// GroupBankTransactions groups transactions by bank in the order banks first appear. Account numbers are normalized
// and listed once per group.
func GroupBankTransactions(transactions []sheet.BankTransaction) []BankGroup {
	groups := records.GroupBy(transactions, func(t sheet.BankTransaction) string {
		return orDefault(strings.TrimSpace(t.Bank), UnknownBank)
	})
	out := make([]BankGroup, 0, len(groups))
	for _, group := range groups {
		accounts := make([]records.Account, len(group.Items))
		var from, to time.Time
		for i, t := range group.Items {
			accounts[i] = records.Account{Number: t.AccountNo, IFSC: t.IFSC}
			if !t.DateFrom.IsZero() && (from.IsZero() || t.DateFrom.Before(from)) {
				from = t.DateFrom
			}
			if !t.DateTo.IsZero() && (to.IsZero() || t.DateTo.After(to)) {
				to = t.DateTo
			}
		}
		out = append(out, BankGroup{
			Bank:     group.Key,
			Accounts: records.DedupeAccounts(accounts),
			DateFrom: formatDate(from),
			DateTo:   formatDate(to),
		})
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	return t.Format(DateLayout)
}

// TotalAmount sums the amounts of all transactions. Amounts that cannot be read count as zero.
func TotalAmount(transactions []sheet.BankTransaction) float64 {
	var total float64
	for _, t := range transactions {
		if amount, err := records.ParseAmount(t.Amount); err == nil {
			total += amount
		}
	}
	return total
}

// Bank generates one notice per bank of the sheet, up to MaxBankLetters. Every notice carries the total amount of the
// whole sheet and a table of the accounts held at that bank.
func (g *Generator) Bank(ctx context.Context, s Session, transactions []sheet.BankTransaction) (Report, error) {
	if len(transactions) == 0 {
		return Report{}, errors.Wrap(ErrInvalidRequest, "no bank transactions")
	}
	ctx, report, err := g.begin(ctx, s, models.LetterTypeBank)
	if err != nil {
		return Report{}, err
	}

	total := records.FormatRupees(TotalAmount(transactions))
	template := filepath.Join(s.TemplateDir, g.catalog.Bank.Template)
	for _, group := range GroupBankTransactions(transactions) {
		if len(report.Generated) >= MaxBankLetters {
			report.Issues = append(report.Issues, Issue{
				Recipient: group.Bank,
				Err:       errors.Wrap(ErrLetterLimit, "skip bank", slog.Int("limit", MaxBankLetters)),
			})
			continue
		}

		replacements := commonReplacements(s, "Nodal Officer")
		replacements["{{Bank}}"] = group.Bank
		replacements["{{Total_Amount}}"] = total
		replacements["{{Date_From}}"] = group.DateFrom
		replacements["{{Date_To}}"] = group.DateTo

		err = g.render(ctx, s, &report, letter{
			letterType: models.LetterTypeBank,
			recipient:  group.Bank,
			template:   template,
			output: filepath.Join(s.OutputDir, string(models.LetterTypeBank),
				fmt.Sprintf("Notice_%s_%d.docx", fileSafe(group.Bank), len(report.Generated)+1)),
			replacements: replacements,
			tables:       g.accountTable(group.Accounts),
		})
		if err != nil {
			g.logger.LogAttrs(ctx, slog.LevelError, "bank letter failed",
				slog.String("bank", group.Bank), errors.SlogError(err))
			report.Issues = append(report.Issues, Issue{Recipient: group.Bank, Err: err})
		}
	}
	g.finish(ctx, report)
	return report, nil
}

func (g *Generator) accountTable(accounts []records.Account) func(context.Context, *docx.Document) error {
	return func(ctx context.Context, doc *docx.Document) error {
		anchor := stencil.FindAnchor(doc, AccountsToken)
		if anchor == nil {
			return errors.Wrap(stencil.ErrMissingAnchor, "insert account table",
				slog.String("token", AccountsToken), slog.Int("accounts", len(accounts)))
		}
		rows := make([][]string, len(accounts))
		for i, a := range accounts {
			rows[i] = []string{orDefault(a.Number, NotAvailable), orDefault(a.IFSC, NotAvailable)}
		}
		_, err := g.engine.InsertGridTable(ctx, doc, anchor, accountTableHeader, rows)
		return err
	}
}
