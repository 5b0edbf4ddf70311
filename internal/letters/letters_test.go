package letters_test

import (
	"context"
	"fmt"
	"github.com/myrjola/lettergen/internal/docx"
	"github.com/myrjola/lettergen/internal/letters"
	"github.com/myrjola/lettergen/internal/models"
	"github.com/myrjola/lettergen/internal/repositories"
	"github.com/myrjola/lettergen/internal/sheet"
	"github.com/myrjola/lettergen/internal/sqlite"
	"github.com/myrjola/lettergen/internal/stencil"
	"github.com/myrjola/lettergen/internal/testhelpers"
	"github.com/stretchr/testify/require"
	"io"
	"path/filepath"
	"testing"
	"time"
)

type fixture struct {
	generator *letters.Generator
	notices   *repositories.NoticeRepository
	session   letters.Session
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	logger := testhelpers.NewLogger(io.Discard)

	templateDir := t.TempDir()
	writeTemplates(t, templateDir)
	catalog, err := letters.ValidateTemplateDir(templateDir)
	require.NoError(t, err)

	db, err := sqlite.NewDatabase(ctx, ":memory:", sqlite.Options{}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close(ctx)) })
	officer, err := repositories.NewOfficerRepository(db, logger).GetByUsername(ctx, repositories.ProtectedUsername)
	require.NoError(t, err)

	notices := repositories.NewNoticeRepository(db, logger)
	return fixture{
		generator: letters.NewGenerator(catalog, repositories.NewCaseRepository(db, logger), notices, logger),
		notices:   notices,
		session: letters.Session{
			Officer:     officer,
			Case:        models.Case{CrimeNumber: "21/2025 u/s 318 BNS", ReportRef: "11223344556677"},
			TemplateDir: templateDir,
			OutputDir:   t.TempDir(),
			Now:         time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC),
		},
	}
}

func writeTemplates(t *testing.T, dir string) {
	t.Helper()
	testhelpers.WriteTemplate(t, filepath.Join(dir, "banks", "bank.docx"),
		testhelpers.Plain("To ", "{{Nodal_Officer}}", ", {{Bank}}"),
		testhelpers.Plain("Total {{Total_Amount}} from {{Date_From}} to {{Date_To}}"),
		testhelpers.Plain(letters.AccountsToken),
		testhelpers.Plain("{{Officer_Name}}, {{Officer_Designation}} on {{Letter_Date}}"),
	)
	for _, name := range []string{"whatsapp_template.docx", "google_template.docx", "inter_template.docx"} {
		testhelpers.WriteTemplate(t, filepath.Join(dir, "inter", name),
			testhelpers.Plain("Dear {{Platform_Name}} ({{Platform_Email}})"),
			testhelpers.Plain("Case {{Crime_No_with_Section}} / {{NCRP_ID}}"),
			testhelpers.Plain("Details of:", stencil.RecordTableToken),
			testhelpers.Plain("Period {{Date_From}} - {{Date_To}}"),
		)
	}
	for _, name := range []string{"caf_template.docx", "cdr_template.docx", "pos_template.docx"} {
		testhelpers.WriteTemplate(t, filepath.Join(dir, "tsp", name),
			testhelpers.Plain("{{Platform_Name}}: {{Request_Type}} for {{Platform_Account_Table}}"),
			testhelpers.Plain("{{Date_From}} to {{Date_To}}"),
		)
	}
}

func readText(t *testing.T, path string) string {
	t.Helper()
	doc, err := docx.Open(path)
	require.NoError(t, err)
	return doc.PlainText()
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func bankTransactions() []sheet.BankTransaction {
	return []sheet.BankTransaction{
		{Row: 2, Bank: "HDFC Bank", AccountNo: "50100012345678.0", IFSC: "HDFC0000001", Amount: "1000",
			DateFrom: day(2025, time.January, 5), DateTo: day(2025, time.January, 10)},
		{Row: 3, Bank: "SBI", AccountNo: "30001112223", IFSC: "SBIN0000001", Amount: "2,500.50"},
		{Row: 4, Bank: " HDFC Bank ", AccountNo: "50100012345678", IFSC: "HDFC0000001", Amount: "500",
			DateFrom: day(2025, time.January, 2), DateTo: day(2025, time.January, 20)},
		{Row: 5, AccountNo: "999", Amount: "pending"},
	}
}

func TestGroupBankTransactions(t *testing.T) {
	t.Parallel()
	groups := letters.GroupBankTransactions(bankTransactions())

	require.Len(t, groups, 3)
	require.Equal(t, []string{"HDFC Bank", "SBI", letters.UnknownBank},
		[]string{groups[0].Bank, groups[1].Bank, groups[2].Bank})

	hdfc := groups[0]
	require.Len(t, hdfc.Accounts, 1)
	require.Equal(t, "50100012345678", hdfc.Accounts[0].Number)
	require.Equal(t, "02-01-2025", hdfc.DateFrom)
	require.Equal(t, "20-01-2025", hdfc.DateTo)

	require.Equal(t, letters.NotAvailable, groups[1].DateFrom)
	require.Equal(t, letters.NotAvailable, groups[1].DateTo)

	require.InDelta(t, 4000.5, letters.TotalAmount(bankTransactions()), 1e-9)
}

func TestGenerator_Bank(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	report, err := f.generator.Bank(ctx, f.session, bankTransactions())
	require.NoError(t, err)
	require.Empty(t, report.Issues)
	require.Len(t, report.Generated, 3)

	outDir := filepath.Join(f.session.OutputDir, "bank")
	require.Equal(t, []string{
		filepath.Join(outDir, "Notice_HDFC_Bank_1.docx"),
		filepath.Join(outDir, "Notice_SBI_2.docx"),
		filepath.Join(outDir, "Notice_Unknown_Bank_3.docx"),
	}, []string{report.Generated[0].Path, report.Generated[1].Path, report.Generated[2].Path})

	text := readText(t, report.Generated[0].Path)
	require.Contains(t, text, "To Nodal Officer, HDFC Bank\n")
	require.Contains(t, text, "Total ₹4,000/- from 02-01-2025 to 20-01-2025\n")
	require.Contains(t, text, "Administrator, Admin on 04-03-2025\n")
	require.NotContains(t, text, "{{")

	doc, err := docx.Open(report.Generated[0].Path)
	require.NoError(t, err)
	tables := doc.Tables()
	require.Len(t, tables, 1)
	require.Equal(t, 2, tables[0].Rows())
	require.Equal(t, "Account Number", tables[0].Cell(0, 0).Text())
	require.Equal(t, "IFSC Code", tables[0].Cell(0, 1).Text())
	require.Equal(t, "50100012345678", tables[0].Cell(1, 0).Text())
	require.Equal(t, "HDFC0000001", tables[0].Cell(1, 1).Text())

	unknown, err := docx.Open(report.Generated[2].Path)
	require.NoError(t, err)
	require.Equal(t, letters.NotAvailable, unknown.Tables()[0].Cell(1, 1).Text(), "missing IFSC")

	notices, err := f.notices.ListForCase(ctx, report.CaseID)
	require.NoError(t, err)
	require.Len(t, notices, 3)
	for i, n := range notices {
		require.Equal(t, report.Batch.String(), n.BatchID)
		require.Equal(t, models.LetterTypeBank, n.LetterType)
		require.Equal(t, report.Generated[i].NoticeID, n.ID)
		require.NotNil(t, n.OfficerID)
		require.Equal(t, f.session.Officer.ID, *n.OfficerID)
	}
}

func TestGenerator_Bank_reusesCase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.generator.Bank(ctx, f.session, bankTransactions()[:1])
	require.NoError(t, err)
	second, err := f.generator.Bank(ctx, f.session, bankTransactions()[:1])
	require.NoError(t, err)

	require.Equal(t, first.CaseID, second.CaseID)
	require.NotEqual(t, first.Batch, second.Batch)
}

func TestGenerator_Bank_letterLimit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	transactions := make([]sheet.BankTransaction, letters.MaxBankLetters+1)
	for i := range transactions {
		transactions[i] = sheet.BankTransaction{
			Row: i + 2, Bank: fmt.Sprintf("Bank %03d", i), AccountNo: "100", IFSC: "IFSC0000001", Amount: "1",
		}
	}

	report, err := f.generator.Bank(context.Background(), f.session, transactions)
	require.NoError(t, err)
	require.Len(t, report.Generated, letters.MaxBankLetters)
	require.Len(t, report.Issues, 1)
	require.Equal(t, "Bank 200", report.Issues[0].Recipient)
	require.ErrorIs(t, report.Issues[0].Err, letters.ErrLetterLimit)
}

func TestGenerator_Bank_missingAccountsPlaceholder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	testhelpers.WriteTemplate(t, filepath.Join(f.session.TemplateDir, "banks", "bank.docx"),
		testhelpers.Plain("To {{Bank}}"))

	report, err := f.generator.Bank(context.Background(), f.session, bankTransactions()[:2])
	require.NoError(t, err)
	require.Len(t, report.Generated, 2, "letters are still generated")
	require.Len(t, report.Issues, 2)
	for _, issue := range report.Issues {
		require.ErrorIs(t, issue.Err, stencil.ErrMissingAnchor)
	}
	require.Equal(t, "To HDFC Bank\n", readText(t, report.Generated[0].Path))
}

func TestGenerator_Bank_renderFailuresAreIssues(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.session.TemplateDir = t.TempDir()

	report, err := f.generator.Bank(context.Background(), f.session, bankTransactions())
	require.NoError(t, err)
	require.Empty(t, report.Generated)
	require.Len(t, report.Issues, 3)
	require.Equal(t, "HDFC Bank", report.Issues[0].Recipient)
}

type countingCases struct {
	calls int
}

func (c *countingCases) FindOrCreate(context.Context, string, string) (int64, error) {
	c.calls++
	return 1, nil
}

type discardNotices struct{}

func (discardNotices) Record(context.Context, models.Notice) (int64, error) {
	return 1, nil
}

func TestGenerator_validatesCase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	catalog, err := letters.DefaultCatalog()
	require.NoError(t, err)
	cases := &countingCases{}
	generator := letters.NewGenerator(catalog, cases, discardNotices{}, testhelpers.NewLogger(io.Discard))

	tests := []struct {
		name string
		c    models.Case
	}{
		{name: "missing crime number", c: models.Case{CrimeNumber: "  ", ReportRef: "11223344556677"}},
		{name: "missing NCRP ID", c: models.Case{CrimeNumber: "21/2025"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := generator.Bank(ctx, letters.Session{Case: tt.c}, bankTransactions())
			require.ErrorIs(t, err, letters.ErrInvalidRequest)
		})
	}

	_, err = generator.Bank(ctx, letters.Session{Case: models.Case{CrimeNumber: "21/2025", ReportRef: "1"}}, nil)
	require.ErrorIs(t, err, letters.ErrInvalidRequest)
	require.Zero(t, cases.calls, "invalid requests must not store a case")
}
