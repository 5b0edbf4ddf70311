// Package stencil fills {{Token}} placeholders in docx templates.
//
// Placeholders may be split across several runs of a paragraph. Substitution works on the paragraph's full text and
// then redistributes the new text over the original run boundaries, so formatting is kept run by run rather than
// character by character.
package stencil

import (
	"context"
	"github.com/myrjola/lettergen/internal/docx"
	"github.com/myrjola/lettergen/internal/errors"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"
)

// Replacements maps a literal token such as "{{NCRP_ID}}" to its replacement value.
type Replacements map[string]string

type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger.With(slog.String("source", "stencil"))}
}

type span struct {
	start, end int
}

// occurrences returns the non-overlapping positions of token in text, scanning left to right.
func occurrences(text, token string) []span {
	var spans []span
	for offset := 0; ; {
		i := strings.Index(text[offset:], token)
		if i < 0 {
			return spans
		}
		start := offset + i
		spans = append(spans, span{start: start, end: start + len(token)})
		offset = start + len(token)
	}
}

// Conflicts returns the sorted tokens of r that occur in text at positions overlapping an occurrence of a different
// token. A token that is a substring of another present token always conflicts with it.
func Conflicts(text string, r Replacements) []string {
	found := map[string][]span{}
	for token := range r {
		if token == "" {
			continue
		}
		if spans := occurrences(text, token); len(spans) > 0 {
			found[token] = spans
		}
	}

	conflicting := map[string]bool{}
	for a, as := range found {
		for b, bs := range found {
			if a >= b {
				continue
			}
			if overlaps(as, bs) {
				conflicting[a] = true
				conflicting[b] = true
			}
		}
	}

	out := make([]string, 0, len(conflicting))
	for token := range conflicting {
		out = append(out, token)
	}
	slices.Sort(out)
	return out
}

func overlaps(as, bs []span) bool {
	for _, a := range as {
		for _, b := range bs {
			if a.start < b.end && b.start < a.end {
				return true
			}
		}
	}
	return false
}

// replacer builds a single pass replacer for the tokens of r present in text, leaving out conflicting tokens. It
// returns nil when nothing is left to replace.
func (e *Engine) replacer(ctx context.Context, text string, r Replacements) *strings.Replacer {
	conflicts := Conflicts(text, r)
	if len(conflicts) > 0 {
		e.logger.LogAttrs(ctx, slog.LevelWarn, "overlapping placeholders left unreplaced",
			slog.Any("tokens", conflicts), slog.String("text", text))
	}

	tokens := make([]string, 0, len(r))
	for token := range r {
		if token == "" || slices.Contains(conflicts, token) || !strings.Contains(text, token) {
			continue
		}
		tokens = append(tokens, token)
	}
	if len(tokens) == 0 {
		return nil
	}
	slices.Sort(tokens)

	pairs := make([]string, 0, 2*len(tokens))
	for _, token := range tokens {
		pairs = append(pairs, token, r[token])
	}
	return strings.NewReplacer(pairs...)
}

// Substitute replaces every placeholder of r found in the paragraph text and reports whether anything matched.
//
// When nothing matches the paragraph is left untouched. Otherwise its runs are rebuilt: the new text is cut into
// chunks of the original run lengths, each chunk taking the formatting of the run it replaces. Text beyond the
// original length goes into one extra run formatted like the last run. Runs left empty or holding only whitespace
// are dropped.
func (e *Engine) Substitute(ctx context.Context, p *docx.Paragraph, r Replacements) bool {
	runs := p.Runs()
	if len(runs) == 0 {
		return false
	}
	texts := make([]string, len(runs))
	formats := make([]docx.Format, len(runs))
	for i, run := range runs {
		texts[i] = run.Text()
		formats[i] = run.Format()
	}
	full := strings.Join(texts, "")

	rep := e.replacer(ctx, full, r)
	if rep == nil {
		return false
	}
	replaced := []rune(rep.Replace(full))

	p.Clear()
	emit := func(text string, f docx.Format) {
		if strings.TrimSpace(text) == "" {
			return
		}
		p.AddRun(text, f)
	}
	pos := 0
	for i, text := range texts {
		end := min(pos+utf8.RuneCountInString(text), len(replaced))
		emit(string(replaced[pos:end]), formats[i])
		pos = end
	}
	if pos < len(replaced) {
		emit(string(replaced[pos:]), formats[len(formats)-1])
	}
	return true
}

// SubstituteDocument runs [Engine.Substitute] on every body paragraph and on every paragraph of every table cell. It
// returns the number of paragraphs that changed.
func (e *Engine) SubstituteDocument(ctx context.Context, doc *docx.Document, r Replacements) int {
	paragraphs := doc.Paragraphs()
	for _, t := range doc.Tables() {
		paragraphs = append(paragraphs, t.Paragraphs()...)
	}
	modified := 0
	for _, p := range paragraphs {
		if e.Substitute(ctx, p, r) {
			modified++
		}
	}
	return modified
}

// FindAnchor returns the first body paragraph whose text contains token, or nil.
func FindAnchor(doc *docx.Document, token string) *docx.Paragraph {
	for _, p := range doc.Paragraphs() {
		if strings.Contains(p.Text(), token) {
			return p
		}
	}
	return nil
}

var ErrMissingAnchor = errors.NewSentinel("table placeholder not found")
