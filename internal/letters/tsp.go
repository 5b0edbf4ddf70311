package letters

import (
	"context"
	"github.com/myrjola/lettergen/internal/errors"
	"github.com/myrjola/lettergen/internal/models"
	"github.com/myrjola/lettergen/internal/stencil"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
)

// TSPRequest asks a telecom service provider for subscriber records.
type TSPRequest struct {
	Provider    string
	RequestType string
	// Identifiers are phone, IMEI or Aadhaar numbers, or point of sale codes, depending on RequestType.
	Identifiers []string
	// DateFrom and DateTo are dd-mm-yyyy dates, required by request types with a date range and ignored otherwise.
	DateFrom string
	DateTo   string
}

// TSP generates the notice for one provider and request type. The identifiers are listed inline, separated by commas.
func (g *Generator) TSP(ctx context.Context, s Session, req TSPRequest) (Report, error) {
	provider := strings.TrimSpace(req.Provider)
	requestName := strings.TrimSpace(req.RequestType)
	requestType, identifiers, from, to, err := g.validateTSP(provider, requestName, req)
	if err != nil {
		return Report{}, err
	}

	ctx, report, err := g.begin(ctx, s, models.LetterTypeTSP)
	if err != nil {
		return Report{}, err
	}
	replacements := commonReplacements(s, NotAvailable)
	replacements["{{Platform_Name}}"] = provider
	replacements["{{Platform_Email}}"] = NotAvailable
	replacements[stencil.RecordTableToken] = strings.Join(identifiers, ", ")
	replacements["{{Date_From}}"] = from
	replacements["{{Date_To}}"] = to
	replacements["{{Request_Type}}"] = requestName

	err = g.render(ctx, s, &report, letter{
		letterType: models.LetterTypeTSP,
		recipient:  provider,
		template:   filepath.Join(s.TemplateDir, g.catalog.TSP.Dir, requestType.Template),
		output: filepath.Join(s.OutputDir, string(models.LetterTypeTSP),
			"Notice_"+fileSafe(provider)+"_"+fileSafe(requestName)+".docx"),
		replacements: replacements,
	})
	g.finish(ctx, report)
	if err != nil {
		return report, errors.Wrap(err, "telecom letter",
			slog.String("provider", provider), slog.String("request_type", requestName))
	}
	return report, nil
}

func (g *Generator) validateTSP(
	provider string,
	requestName string,
	req TSPRequest,
) (RequestType, []string, string, string, error) {
	attrs := []slog.Attr{slog.String("provider", provider), slog.String("request_type", requestName)}
	fail := func(msg string, extra ...slog.Attr) (RequestType, []string, string, string, error) {
		return RequestType{}, nil, "", "", errors.Wrap(ErrInvalidRequest, msg, append(attrs, extra...)...)
	}

	if provider == "" {
		return fail("provider is required")
	}
	if providers := g.catalog.TSP.Providers; len(providers) > 0 && !slices.Contains(providers, provider) {
		return fail("unknown provider", slog.Any("providers", providers))
	}
	requestType, ok := g.catalog.TSP.Requests[requestName]
	if !ok {
		return fail("unknown request type", slog.Any("request_types", g.catalog.RequestTypeNames()))
	}

	identifiers := cleanIdentifiers(req.Identifiers)
	if len(identifiers) == 0 {
		return fail("at least one " + strings.ToLower(requestName) + " is required")
	}
	if requestType.Digits > 0 {
		for _, id := range identifiers {
			if !isDigits(id, requestType.Digits) {
				return fail("identifier has the wrong format",
					slog.String("identifier", id), slog.Int("digits", requestType.Digits))
			}
		}
	}

	if !requestType.DateRange {
		return requestType, identifiers, NotAvailable, NotAvailable, nil
	}
	if strings.TrimSpace(req.DateFrom) == "" || strings.TrimSpace(req.DateTo) == "" {
		return fail("from and to dates are required")
	}
	from, to, err := parseOptionalRange(req.DateFrom, req.DateTo)
	if err != nil {
		return RequestType{}, nil, "", "", errors.Wrap(err, "check date range", attrs...)
	}
	return requestType, identifiers, from, to, nil
}

// isDigits reports whether s is exactly n ASCII digits.
func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
