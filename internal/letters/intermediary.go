package letters

import (
	"context"
	"github.com/myrjola/lettergen/internal/docx"
	"github.com/myrjola/lettergen/internal/errors"
	"github.com/myrjola/lettergen/internal/models"
	"github.com/myrjola/lettergen/internal/stencil"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// InterRequest asks an intermediary platform for the details of accounts, URLs or other identifiers.
type InterRequest struct {
	Platform string
	// IDType picks the identifier kind on platforms that accept several. Empty means the first kind.
	IDType      string
	Identifiers []string
	// DateFrom and DateTo are optional dd-mm-yyyy dates.
	DateFrom string
	DateTo   string
}

// Intermediary generates the notice for one platform, listing the identifiers in a numbered table.
func (g *Generator) Intermediary(ctx context.Context, s Session, req InterRequest) (Report, error) {
	platformName := strings.TrimSpace(req.Platform)
	if platformName == "" {
		return Report{}, errors.Wrap(ErrInvalidRequest, "platform is required")
	}
	platform := g.catalog.Platform(platformName)
	idType := strings.TrimSpace(req.IDType)
	if len(platform.IDTypes) > 0 {
		if idType == "" {
			idType = platform.IDTypes[0]
		}
		if !slices.Contains(platform.IDTypes, idType) {
			return Report{}, errors.Wrap(ErrInvalidRequest, "unknown identifier type",
				slog.String("platform", platformName), slog.String("id_type", idType),
				slog.Any("id_types", platform.IDTypes))
		}
	}
	identifiers := cleanIdentifiers(req.Identifiers)
	if len(identifiers) == 0 {
		return Report{}, errors.Wrap(ErrInvalidRequest, "at least one identifier is required",
			slog.String("platform", platformName))
	}
	from, to, err := parseOptionalRange(req.DateFrom, req.DateTo)
	if err != nil {
		return Report{}, err
	}

	ctx, report, err := g.begin(ctx, s, models.LetterTypeIntermediary)
	if err != nil {
		return Report{}, err
	}
	replacements := commonReplacements(s, NotAvailable)
	replacements["{{Platform_Name}}"] = platformName
	replacements["{{Platform_Email}}"] = NotAvailable
	replacements["{{Date_From}}"] = from
	replacements["{{Date_To}}"] = to

	heading := platform.HeadingFor(idType)
	err = g.render(ctx, s, &report, letter{
		letterType: models.LetterTypeIntermediary,
		recipient:  platformName,
		template:   filepath.Join(s.TemplateDir, g.catalog.Intermediary.Dir, platform.Template),
		output: filepath.Join(s.OutputDir, string(models.LetterTypeIntermediary),
			"Notice_"+fileSafe(platformName)+".docx"),
		replacements: replacements,
		tables: func(ctx context.Context, doc *docx.Document) error {
			anchor := stencil.FindAnchor(doc, stencil.RecordTableToken)
			_, tableErr := g.engine.InsertRecordTable(ctx, doc, anchor, identifiers, heading)
			return tableErr
		},
	})
	g.finish(ctx, report)
	if err != nil {
		return report, errors.Wrap(err, "intermediary letter", slog.String("platform", platformName))
	}
	return report, nil
}

// cleanIdentifiers trims identifiers and drops empty ones.
func cleanIdentifiers(identifiers []string) []string {
	out := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// parseOptionalRange checks dd-mm-yyyy dates. Empty dates become NotAvailable.
func parseOptionalRange(from string, to string) (string, string, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	var fromTime, toTime time.Time
	var err error
	if from != "" {
		if fromTime, err = time.Parse(DateLayout, from); err != nil {
			return "", "", errors.Wrap(ErrInvalidRequest, "from date must be dd-mm-yyyy", slog.String("date", from))
		}
	}
	if to != "" {
		if toTime, err = time.Parse(DateLayout, to); err != nil {
			return "", "", errors.Wrap(ErrInvalidRequest, "to date must be dd-mm-yyyy", slog.String("date", to))
		}
	}
	if !fromTime.IsZero() && !toTime.IsZero() && toTime.Before(fromTime) {
		return "", "", errors.Wrap(ErrInvalidRequest, "date range ends before it starts",
			slog.String("from", from), slog.String("to", to))
	}
	return orDefault(from, NotAvailable), orDefault(to, NotAvailable), nil
}
