package stencil_test

import (
	"bytes"
	"context"
	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/lettergen/internal/docx"
	"github.com/myrjola/lettergen/internal/stencil"
	"github.com/myrjola/lettergen/internal/testhelpers"
	"github.com/stretchr/testify/require"
	"io"
	"strings"
	"testing"
)

var (
	bold   = docx.Format{Bold: docx.On, Font: "Arial", Size: 24}
	italic = docx.Format{Italic: docx.On, Color: "1F3864", Underline: "single"}
	plain  = docx.Format{}
)

func newEngine() *stencil.Engine {
	return stencil.NewEngine(testhelpers.NewLogger(io.Discard))
}

func runsOf(p *docx.Paragraph) []testhelpers.Run {
	runs := p.Runs()
	out := make([]testhelpers.Run, len(runs))
	for i, r := range runs {
		out[i] = testhelpers.Run{Text: r.Text(), Format: r.Format()}
	}
	return out
}

func encode(t *testing.T, doc *docx.Document) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, doc.Write(&buf))
	return buf.Bytes()
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name         string
		runs         []testhelpers.Run
		replacements stencil.Replacements
		modified     bool
		want         []testhelpers.Run
	}{
		{
			name: "same length value keeps every run",
			runs: []testhelpers.Run{
				{Text: "Dear ", Format: bold},
				{Text: "{{Bank}}", Format: italic},
				{Text: " Branch", Format: plain},
			},
			replacements: stencil.Replacements{"{{Bank}}": "ABCDEFGH"},
			modified:     true,
			want: []testhelpers.Run{
				{Text: "Dear ", Format: bold},
				{Text: "ABCDEFGH", Format: italic},
				{Text: " Branch", Format: plain},
			},
		},
		{
			name: "longer value drifts over later runs",
			runs: []testhelpers.Run{
				{Text: "Bank: ", Format: bold},
				{Text: "{{Bank}}", Format: italic},
				{Text: ".", Format: plain},
			},
			replacements: stencil.Replacements{"{{Bank}}": "State Bank of India"},
			modified:     true,
			want: []testhelpers.Run{
				{Text: "Bank: ", Format: bold},
				{Text: "State Ba", Format: italic},
				{Text: "n", Format: plain},
				{Text: "k of India.", Format: plain},
			},
		},
		{
			name: "longer value remainder takes the last run format",
			runs: []testhelpers.Run{
				{Text: "{{NCRP_ID}}", Format: plain},
				{Text: "!", Format: italic},
			},
			replacements: stencil.Replacements{"{{NCRP_ID}}": "11223344556677"},
			modified:     true,
			want: []testhelpers.Run{
				{Text: "11223344556", Format: plain},
				{Text: "6", Format: italic},
				{Text: "77!", Format: italic},
			},
		},
		{
			name: "token split across runs",
			runs: []testhelpers.Run{
				{Text: "To {{Ba", Format: bold},
				{Text: "nk}} and {{", Format: italic},
				{Text: "NCRP_ID}}", Format: plain},
			},
			replacements: stencil.Replacements{"{{Bank}}": "SBI", "{{NCRP_ID}}": "33"},
			modified:     true,
			want: []testhelpers.Run{
				{Text: "To SBI ", Format: bold},
				{Text: "and 33", Format: italic},
			},
		},
		{
			name: "whitespace only runs are dropped",
			runs: []testhelpers.Run{
				{Text: "{{X}}", Format: bold},
				{Text: "   ", Format: italic},
				{Text: "end", Format: plain},
			},
			replacements: stencil.Replacements{"{{X}}": "abcde"},
			modified:     true,
			want: []testhelpers.Run{
				{Text: "abcde", Format: bold},
				{Text: "end", Format: plain},
			},
		},
		{
			name: "empty value removes the token",
			runs: []testhelpers.Run{
				{Text: "Hi", Format: bold},
				{Text: "{{X}}", Format: italic},
				{Text: "there", Format: plain},
			},
			replacements: stencil.Replacements{"{{X}}": ""},
			modified:     true,
			want: []testhelpers.Run{
				{Text: "Hi", Format: bold},
				{Text: "there", Format: italic},
			},
		},
		{
			name: "multibyte text is measured in characters",
			runs: []testhelpers.Run{
				{Text: "Total: ", Format: plain},
				{Text: "{{Total_Amount}}", Format: bold},
			},
			replacements: stencil.Replacements{"{{Total_Amount}}": "₹1,23,456/-"},
			modified:     true,
			want: []testhelpers.Run{
				{Text: "Total: ", Format: plain},
				{Text: "₹1,23,456/-", Format: bold},
			},
		},
		{
			name:         "overlapping tokens stay literal",
			runs:         testhelpers.Plain("{{Date}} Date"),
			replacements: stencil.Replacements{"{{Date}}": "01-01-2025", "Date": "D"},
			modified:     false,
			want:         testhelpers.Plain("{{Date}} Date"),
		},
		{
			name:         "empty token is ignored",
			runs:         testhelpers.Plain("text"),
			replacements: stencil.Replacements{"": "x"},
			modified:     false,
			want:         testhelpers.Plain("text"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := testhelpers.NewDocument(tt.runs)
			p := doc.Paragraphs()[0]

			modified := newEngine().Substitute(context.Background(), p, tt.replacements)
			require.Equal(t, tt.modified, modified)
			if diff := cmp.Diff(tt.want, runsOf(p)); diff != "" {
				t.Errorf("runs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSubstitute_noMatchIsNoop(t *testing.T) {
	t.Parallel()
	doc := testhelpers.NewDocument([]testhelpers.Run{
		{Text: "Crime No. ", Format: bold},
		{Text: "{{Crime_No_", Format: italic},
		{Text: "with_Section}}", Format: plain},
		{Text: " ", Format: plain},
	})
	before := encode(t, doc)

	modified := newEngine().Substitute(context.Background(), doc.Paragraphs()[0],
		stencil.Replacements{"{{NCRP_ID}}": "1", "{{Bank}}": "SBI"})
	require.False(t, modified)
	require.Equal(t, before, encode(t, doc))

	empty := testhelpers.NewDocument(nil)
	require.False(t, newEngine().Substitute(context.Background(), empty.Paragraphs()[0],
		stencil.Replacements{"{{Bank}}": "SBI"}))
}

func TestSubstitute_textMatchesPlainReplace(t *testing.T) {
	t.Parallel()
	runs := []testhelpers.Run{
		{Text: "Sub: Request for {{Request_", Format: bold},
		{Text: "Type}} of {{Platform_Name}} in ", Format: plain},
		{Text: "crime {{Crime_No_with_Section}}, NCRP {{NCRP_ID}} from {{Date_From}}", Format: italic},
		{Text: " to {{Date_To}}.", Format: plain},
	}
	replacements := stencil.Replacements{
		"{{Request_Type}}":          "CDR",
		"{{Platform_Name}}":         "Airtel",
		"{{Crime_No_with_Section}}": "21/2025 u/s 318(4) BNS",
		"{{NCRP_ID}}":               "11223344556677",
		"{{Date_From}}":             "01-01-2025",
		"{{Date_To}}":               "31-01-2025",
	}
	doc := testhelpers.NewDocument(runs)
	p := doc.Paragraphs()[0]

	want := p.Text()
	for token, value := range replacements {
		want = strings.ReplaceAll(want, token, value)
	}
	require.True(t, newEngine().Substitute(context.Background(), p, replacements))
	require.Equal(t, want, p.Text())
}

func TestSubstitute_logsConflicts(t *testing.T) {
	t.Parallel()
	var logs bytes.Buffer
	engine := stencil.NewEngine(testhelpers.NewLogger(&logs))
	doc := testhelpers.NewDocument(testhelpers.Plain("{{A}}} and {{B}}"))
	p := doc.Paragraphs()[0]

	modified := engine.Substitute(context.Background(), p,
		stencil.Replacements{"{{A}}": "1", "{{A}}}": "2", "{{B}}": "3"})
	require.True(t, modified)
	require.Equal(t, "{{A}}} and 3", p.Text())
	require.Contains(t, logs.String(), "overlapping placeholders left unreplaced")
}

func TestConflicts(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		replacements stencil.Replacements
		want         []string
	}{
		{
			name:         "disjoint tokens",
			text:         "{{A}} {{B}} {{A}}",
			replacements: stencil.Replacements{"{{A}}": "", "{{B}}": "", "{{C}}": ""},
			want:         []string{},
		},
		{
			name:         "substring token",
			text:         "{{Date_From}}",
			replacements: stencil.Replacements{"{{Date_From}}": "", "Date": "", "{{B}}": ""},
			want:         []string{"Date", "{{Date_From}}"},
		},
		{
			name:         "positional overlap",
			text:         "ab",
			replacements: stencil.Replacements{"a": "", "ab": "", "b": ""},
			want:         []string{"a", "ab", "b"},
		},
		{
			name:         "substring occurring only elsewhere",
			text:         "Date: {{Letter_Date}}",
			replacements: stencil.Replacements{"{{Letter_Date}}": "", "Date:": ""},
			want:         []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, stencil.Conflicts(tt.text, tt.replacements))
		})
	}
}

func TestSubstituteDocument(t *testing.T) {
	t.Parallel()
	doc := testhelpers.NewDocument(
		testhelpers.Plain("NCRP: {{NCRP_ID}}"),
		testhelpers.Plain("untouched"),
	)
	table := docx.NewTable(1, 2)
	table.Cell(0, 0).SetText("{{NCRP_ID}}", bold)
	table.Cell(0, 1).SetText("{{Bank}}", plain)
	doc.AddTable(table)

	modified := newEngine().SubstituteDocument(context.Background(), doc,
		stencil.Replacements{"{{NCRP_ID}}": "11223344556677", "{{Bank}}": "HDFC Bank"})
	require.Equal(t, 3, modified)
	require.Equal(t, "NCRP: 11223344556677\nuntouched\n11223344556677\nHDFC Bank\n", doc.PlainText())
	require.Equal(t, bold, doc.Tables()[0].Cell(0, 0).Paragraphs()[0].Runs()[0].Format())
}
