package testhelpers

import (
	"github.com/myrjola/lettergen/internal/docx"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

// Run is one formatted text span of a test paragraph.
type Run struct {
	Text   string
	Format docx.Format
}

// Plain returns a paragraph made of unformatted runs.
func Plain(texts ...string) []Run {
	runs := make([]Run, len(texts))
	for i, text := range texts {
		runs[i] = Run{Text: text}
	}
	return runs
}

// NewDocument builds an in-memory document with one body paragraph per entry of paragraphs.
func NewDocument(paragraphs ...[]Run) *docx.Document {
	doc := docx.New()
	for _, runs := range paragraphs {
		p := doc.AddParagraph("", docx.Format{})
		for _, r := range runs {
			p.AddRun(r.Text, r.Format)
		}
	}
	return doc
}

// WriteTemplate saves a [NewDocument] document to path, creating parent directories.
func WriteTemplate(t *testing.T, path string, paragraphs ...[]Run) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, NewDocument(paragraphs...).SaveAs(path))
}
