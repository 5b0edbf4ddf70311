// Package docx reads, edits and writes WordprocessingML (.docx) packages.
//
// Only the main document part is parsed. It is held as a generic element tree so that markup this package does not
// model survives a load/save cycle untouched. Paragraph, Run, Table and Cell are thin views onto that tree.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"github.com/myrjola/lettergen/internal/errors"
	"io"
	"log/slog"
	"os"
	"time"
)

const documentPart = "word/document.xml"

var (
	ErrNotDocx  = errors.NewSentinel("not a docx package")
	ErrDetached = errors.NewSentinel("element does not belong to the document")
)

type part struct {
	name     string
	method   uint16
	modified time.Time
	data     []byte
}

// Document is an opened .docx package.
type Document struct {
	parts    []part
	root     *Node
	body     *Node
	prefixes map[string]string
}

// Open reads the .docx package at path.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // templates are chosen by the operator.
	if err != nil {
		return nil, errors.Wrap(err, "read docx file", slog.String("path", path))
	}
	doc, err := Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(err, "parse docx file", slog.String("path", path))
	}
	return doc, nil
}

// Read parses a .docx package of the given size from r.
func Read(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.Wrap(ErrNotDocx, "open zip archive", slog.String("cause", err.Error()))
	}

	doc := Document{parts: make([]part, 0, len(zr.File))}
	for _, f := range zr.File {
		var data []byte
		if data, err = readZipFile(f); err != nil {
			return nil, err
		}
		doc.parts = append(doc.parts, part{name: f.Name, method: f.Method, modified: f.Modified, data: data})
		if f.Name != documentPart {
			continue
		}
		if doc.root, doc.prefixes, err = parseXML(bytes.NewReader(data)); err != nil {
			return nil, errors.Wrap(err, "parse document part")
		}
	}
	if doc.root == nil {
		return nil, errors.Wrap(ErrNotDocx, "missing document part", slog.String("part", documentPart))
	}
	if err = requireElement(doc.root, "document"); err != nil {
		return nil, err
	}
	doc.body = doc.root.child("body")
	if err = requireElement(doc.body, "body"); err != nil {
		return nil, err
	}
	return &doc, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrap(err, "open zip entry", slog.String("name", f.Name))
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrap(err, "read zip entry", slog.String("name", f.Name))
	}
	return data, nil
}

// Write serializes the package to w. Parts are written in their original order.
func (d *Document) Write(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, p := range d.parts {
		data := p.data
		if p.name == documentPart {
			data = encodeXML(d.root, d.prefixes)
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: p.method, Modified: p.modified})
		if err != nil {
			return errors.Wrap(err, "create zip entry", slog.String("name", p.name))
		}
		if _, err = fw.Write(data); err != nil {
			return errors.Wrap(err, "write zip entry", slog.String("name", p.name))
		}
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "close zip writer")
	}
	return nil
}

// SaveAs writes the package to path, truncating an existing file.
func (d *Document) SaveAs(path string) error {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return errors.Wrap(err, "write docx file", slog.String("path", path))
	}
	return nil
}

// Paragraphs returns the top-level paragraphs of the body in document order. Paragraphs inside tables are reached
// through [Document.Tables].
func (d *Document) Paragraphs() []*Paragraph {
	nodes := d.body.children("p")
	out := make([]*Paragraph, len(nodes))
	for i, n := range nodes {
		out[i] = &Paragraph{node: n}
	}
	return out
}

// Tables returns the top-level tables of the body in document order.
func (d *Document) Tables() []*Table {
	nodes := d.body.children("tbl")
	out := make([]*Table, len(nodes))
	for i, n := range nodes {
		out[i] = &Table{node: n}
	}
	return out
}

// insertionPoint is the body index before the trailing section properties, where appended blocks go.
func (d *Document) insertionPoint() int {
	for i := len(d.body.Children) - 1; i >= 0; i-- {
		if d.body.Children[i].is("sectPr") {
			return i
		}
	}
	return len(d.body.Children)
}

// AddParagraph appends a paragraph with one run of text to the body.
func (d *Document) AddParagraph(text string, f Format) *Paragraph {
	p := NewParagraph()
	if text != "" {
		p.AddRun(text, f)
	}
	d.body.insertAt(d.insertionPoint(), p.node)
	return p
}

// AddTable appends t to the body.
func (d *Document) AddTable(t *Table) {
	d.body.insertAt(d.insertionPoint(), t.node)
}

// InsertTableAfter splices t into the document directly after anchor.
func (d *Document) InsertTableAfter(anchor *Paragraph, t *Table) error {
	if anchor == nil || !anchor.node.within(d.root) {
		return errors.Wrap(ErrDetached, "insert table")
	}
	t.node.detach()
	parent := anchor.node.parent
	parent.insertAt(parent.indexOf(anchor.node)+1, t.node)
	return nil
}

// PlainText returns the visible text of body paragraphs and tables, one paragraph per line.
func (d *Document) PlainText() string {
	var b bytes.Buffer
	for _, n := range d.body.Children {
		switch {
		case n.is("p"):
			b.WriteString((&Paragraph{node: n}).Text())
			b.WriteByte('\n')
		case n.is("tbl"):
			for _, p := range (&Table{node: n}).Paragraphs() {
				b.WriteString(p.Text())
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

const (
	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/word/document.xml" ` +
		`ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`</Types>`
	packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" ` +
		`Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" ` +
		`Target="word/document.xml"/>` +
		`</Relationships>`
	documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`
)

// New creates an empty A4 document.
func New() *Document {
	root := element("document",
		xml.Attr{Name: xml.Name{Space: "xmlns", Local: "w"}, Value: nsW},
		xml.Attr{Name: xml.Name{Space: "xmlns", Local: "r"}, Value: nsR},
	)
	body := element("body")
	sectPr := element("sectPr").append(
		element("pgSz", wAttr("w", "11906"), wAttr("h", "16838")),
		element("pgMar", wAttr("top", "1440"), wAttr("right", "1440"), wAttr("bottom", "1440"),
			wAttr("left", "1440"), wAttr("header", "708"), wAttr("footer", "708"), wAttr("gutter", "0")),
	)
	root.append(body.append(sectPr))

	now := time.Now()
	return &Document{
		parts: []part{
			{name: "[Content_Types].xml", method: zip.Deflate, modified: now, data: []byte(contentTypesXML)},
			{name: "_rels/.rels", method: zip.Deflate, modified: now, data: []byte(packageRelsXML)},
			{name: documentPart, method: zip.Deflate, modified: now},
			{name: "word/_rels/document.xml.rels", method: zip.Deflate, modified: now, data: []byte(documentRelsXML)},
		},
		root:     root,
		body:     body,
		prefixes: map[string]string{nsW: "w", nsR: "r"},
	}
}
