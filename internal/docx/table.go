package docx

import (
	"strconv"
	"strings"
)

// contentWidth is the text width of an A4 page with one inch margins, in twentieths of a point.
const contentWidth = 9026

// Table is a view of a w:tbl element.
type Table struct {
	node *Node
}

// NewTable creates a detached rows x cols grid using the built-in "TableGrid" style. Explicit single borders are set
// as well so that the grid renders even when the template does not define the style.
func NewTable(rows, cols int) *Table {
	colWidth := strconv.Itoa(contentWidth / max(cols, 1))

	borders := element("tblBorders")
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		borders.append(element(side,
			wAttr("val", "single"), wAttr("sz", "4"), wAttr("space", "0"), wAttr("color", "auto")))
	}
	tbl := element("tbl").append(
		element("tblPr").append(
			element("tblStyle", wAttr("val", "TableGrid")),
			element("tblW", wAttr("w", "0"), wAttr("type", "auto")),
			borders,
		),
	)

	grid := element("tblGrid")
	for range cols {
		grid.append(element("gridCol", wAttr("w", colWidth)))
	}
	tbl.append(grid)

	for range rows {
		tr := element("tr")
		for range cols {
			tr.append(element("tc").append(
				element("tcPr").append(element("tcW", wAttr("w", colWidth), wAttr("type", "dxa"))),
				element("p"),
			))
		}
		tbl.append(tr)
	}
	return &Table{node: tbl}
}

// Rows returns the number of table rows.
func (t *Table) Rows() int {
	return len(t.node.children("tr"))
}

// Cols returns the number of cells in the widest row.
func (t *Table) Cols() int {
	widest := 0
	for _, tr := range t.node.children("tr") {
		widest = max(widest, len(tr.children("tc")))
	}
	return widest
}

// Cell returns the cell at row r and column c, or nil when out of range.
func (t *Table) Cell(r, c int) *Cell {
	rows := t.node.children("tr")
	if r < 0 || r >= len(rows) {
		return nil
	}
	cells := rows[r].children("tc")
	if c < 0 || c >= len(cells) {
		return nil
	}
	return &Cell{node: cells[c]}
}

// Paragraphs returns the direct paragraphs of every cell, row by row.
func (t *Table) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, tr := range t.node.children("tr") {
		for _, tc := range tr.children("tc") {
			out = append(out, (&Cell{node: tc}).Paragraphs()...)
		}
	}
	return out
}

// Cell is a view of a w:tc element.
type Cell struct {
	node *Node
}

// Paragraphs returns the direct paragraphs of the cell.
func (c *Cell) Paragraphs() []*Paragraph {
	nodes := c.node.children("p")
	out := make([]*Paragraph, len(nodes))
	for i, n := range nodes {
		out[i] = &Paragraph{node: n}
	}
	return out
}

// Text joins the cell paragraphs with newlines.
func (c *Cell) Text() string {
	paragraphs := c.Paragraphs()
	texts := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		texts[i] = p.Text()
	}
	return strings.Join(texts, "\n")
}

// SetText replaces the cell content with a single paragraph holding text formatted with f.
func (c *Cell) SetText(text string, f Format) {
	kept := c.node.Children[:0]
	for _, child := range c.node.Children {
		if child.is("tcPr") {
			kept = append(kept, child)
			continue
		}
		child.parent = nil
	}
	c.node.Children = kept

	p := NewParagraph()
	if text != "" {
		p.AddRun(text, f)
	}
	c.node.append(p.node)
}
