// Package letters turns case details and request data into notices addressed to banks, intermediaries and telecom
// providers. Every operation takes a [Session] describing who is generating which case, and records each generated
// document against the case.
package letters

import (
	"context"
	"github.com/google/uuid"
	"github.com/myrjola/lettergen/internal/docx"
	"github.com/myrjola/lettergen/internal/errors"
	"github.com/myrjola/lettergen/internal/logging"
	"github.com/myrjola/lettergen/internal/models"
	"github.com/myrjola/lettergen/internal/stencil"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DateLayout is the dd-mm-yyyy layout used in letters and accepted for date ranges.
const DateLayout = "02-01-2006"

// NotAvailable fills placeholders that have no value.
const NotAvailable = "N/A"

var ErrInvalidRequest = errors.NewSentinel("invalid request")

// Session is the explicit context of a generation run.
type Session struct {
	Officer models.Officer
	// Case needs CrimeNumber and ReportRef. The stored id is looked up or created on every run.
	Case        models.Case
	TemplateDir string
	OutputDir   string
	// Now dates the letters. Zero means the current time.
	Now time.Time
}

func (s Session) letterDate() string {
	if s.Now.IsZero() {
		return time.Now().Format(DateLayout)
	}
	return s.Now.Format(DateLayout)
}

func (s Session) validate() error {
	var problems []string
	if strings.TrimSpace(s.Case.CrimeNumber) == "" {
		problems = append(problems, "crime number is required")
	}
	if strings.TrimSpace(s.Case.ReportRef) == "" {
		problems = append(problems, "NCRP ID is required")
	}
	if len(problems) > 0 {
		return errors.Wrap(ErrInvalidRequest, "case details", slog.Any("problems", problems))
	}
	return nil
}

// Output is one generated document.
type Output struct {
	Recipient string
	Path      string
	NoticeID  int64
}

// Issue is a problem with one recipient that did not stop the rest of the batch. Issues for generated documents with
// missing parts have a matching [Output].
type Issue struct {
	Recipient string
	Err       error
}

// Report summarizes one generation run.
type Report struct {
	Batch     uuid.UUID
	CaseID    int64
	Generated []Output
	Issues    []Issue
}

// CaseStore persists cases.
type CaseStore interface {
	FindOrCreate(ctx context.Context, crimeNumber string, reportRef string) (int64, error)
}

// NoticeStore records generated documents.
type NoticeStore interface {
	Record(ctx context.Context, notice models.Notice) (int64, error)
}

type Generator struct {
	catalog Catalog
	cases   CaseStore
	notices NoticeStore
	engine  *stencil.Engine
	logger  *slog.Logger
}

// NewGenerator creates a Generator resolving templates with catalog, which usually comes from [ValidateTemplateDir].
func NewGenerator(catalog Catalog, cases CaseStore, notices NoticeStore, logger *slog.Logger) *Generator {
	return &Generator{
		catalog: catalog,
		cases:   cases,
		notices: notices,
		engine:  stencil.NewEngine(logger),
		logger:  logger.With("source", "letters"),
	}
}

// begin validates the session, stores the case and starts a report with a fresh batch id. The returned context
// carries the batch id and letter type for logging.
func (g *Generator) begin(
	ctx context.Context,
	s Session,
	letterType models.LetterType,
) (context.Context, Report, error) {
	if err := s.validate(); err != nil {
		return ctx, Report{}, err
	}
	batch := uuid.New()
	ctx = logging.WithAttrs(ctx, slog.String("batch_id", batch.String()), slog.String("letter_type", string(letterType)))

	caseID, err := g.cases.FindOrCreate(ctx, strings.TrimSpace(s.Case.CrimeNumber), strings.TrimSpace(s.Case.ReportRef))
	if err != nil {
		return ctx, Report{}, errors.Wrap(err, "store case")
	}
	g.logger.LogAttrs(ctx, slog.LevelDebug, "generation started", slog.Int64("case_id", caseID))
	return ctx, Report{Batch: batch, CaseID: caseID}, nil
}

func (g *Generator) finish(ctx context.Context, report Report) {
	level := slog.LevelInfo
	if len(report.Issues) > 0 {
		level = slog.LevelWarn
	}
	g.logger.LogAttrs(ctx, level, "generation finished",
		slog.Int("generated", len(report.Generated)), slog.Int("issues", len(report.Issues)))
}

// commonReplacements holds the placeholders shared by every letter.
func commonReplacements(s Session, nodalOfficer string) stencil.Replacements {
	return stencil.Replacements{
		"{{Officer_Name}}":          orDefault(s.Officer.Name, "Unknown Officer"),
		"{{Officer_Designation}}":   orDefault(s.Officer.Designation, "Unknown Designation"),
		"{{Officer_Phone}}":         orDefault(s.Officer.Phone, NotAvailable),
		"{{Officer_Email}}":         orDefault(s.Officer.Email, NotAvailable),
		"{{Letter_Date}}":           s.letterDate(),
		"{{Nodal_Officer}}":         nodalOfficer,
		"{{Crime_No_with_Section}}": strings.TrimSpace(s.Case.CrimeNumber),
		"{{NCRP_ID}}":               strings.TrimSpace(s.Case.ReportRef),
	}
}

func orDefault(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// letter is one document to render from a template.
type letter struct {
	letterType   models.LetterType
	recipient    string
	template     string
	output       string
	replacements stencil.Replacements
	// tables splices tables into the document before the placeholders are replaced.
	tables func(ctx context.Context, doc *docx.Document) error
}

// render fills the template of l, saves it and records the notice. A table placeholder missing from the template is
// reported as an issue while the document is still generated.
func (g *Generator) render(ctx context.Context, s Session, report *Report, l letter) error {
	attrs := []slog.Attr{slog.String("recipient", l.recipient), slog.String("template", l.template)}
	doc, err := docx.Open(l.template)
	if err != nil {
		return errors.Wrap(err, "open template", attrs...)
	}

	if l.tables != nil {
		if err = l.tables(ctx, doc); err != nil {
			if !errors.Is(err, stencil.ErrMissingAnchor) {
				return errors.Wrap(err, "insert table", attrs...)
			}
			report.Issues = append(report.Issues, Issue{Recipient: l.recipient, Err: err})
		}
	}
	modified := g.engine.SubstituteDocument(ctx, doc, l.replacements)

	if err = os.MkdirAll(filepath.Dir(l.output), 0o750); err != nil {
		return errors.Wrap(err, "create output folder", attrs...)
	}
	if err = doc.SaveAs(l.output); err != nil {
		return errors.Wrap(err, "save letter", append(attrs, slog.String("output", l.output))...)
	}

	notice := models.Notice{
		CaseID:     report.CaseID,
		BatchID:    report.Batch.String(),
		LetterType: l.letterType,
		Recipient:  l.recipient,
		OutputPath: l.output,
	}
	if s.Officer.ID != 0 {
		officerID := s.Officer.ID
		notice.OfficerID = &officerID
	}
	noticeID, err := g.notices.Record(ctx, notice)
	if err != nil {
		return errors.Wrap(err, "record notice", append(attrs, slog.String("output", l.output))...)
	}

	report.Generated = append(report.Generated, Output{Recipient: l.recipient, Path: l.output, NoticeID: noticeID})
	g.logger.LogAttrs(ctx, slog.LevelInfo, "generated letter",
		slog.String("recipient", l.recipient), slog.String("output", l.output), slog.Int("paragraphs", modified))
	return nil
}

// fileSafe replaces spaces so that names can be used in file names.
func fileSafe(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}
