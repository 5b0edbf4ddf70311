package docx

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// Toggle is a run property that is either set explicitly or inherited from the paragraph and character styles.
type Toggle int8

const (
	Inherit Toggle = iota
	On
	Off
)

// Format is the set of character formatting attributes carried over when runs are rebuilt.
//
// Zero values mean "inherit from style".
type Format struct {
	Bold   Toggle
	Italic Toggle
	// Underline is the w:u value such as "single" or "double".
	Underline string
	// Font is the font name applied to ASCII, high ANSI and East Asian text.
	Font string
	// Size is the font size in half-points.
	Size int
	// Color is an RGB hex value like "FF0000" or "auto".
	Color string
}

// Paragraph is a view of a w:p element.
type Paragraph struct {
	node *Node
}

// NewParagraph creates a detached empty paragraph.
func NewParagraph() *Paragraph {
	return &Paragraph{node: element("p")}
}

// Runs returns the direct w:r children of the paragraph.
func (p *Paragraph) Runs() []*Run {
	nodes := p.node.children("r")
	runs := make([]*Run, len(nodes))
	for i, n := range nodes {
		runs[i] = &Run{node: n}
	}
	return runs
}

// Text is the concatenated text of the paragraph's runs.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs() {
		b.WriteString(r.Text())
	}
	return b.String()
}

// Clear removes all content from the paragraph while keeping its paragraph properties.
func (p *Paragraph) Clear() {
	kept := p.node.Children[:0]
	for _, c := range p.node.Children {
		if c.is("pPr") {
			kept = append(kept, c)
			continue
		}
		c.parent = nil
	}
	p.node.Children = kept
}

// AddRun appends a run with text formatted with f.
func (p *Paragraph) AddRun(text string, f Format) *Run {
	r := &Run{node: element("r")}
	if rPr := f.properties(); rPr != nil {
		r.node.append(rPr)
	}
	r.SetText(text)
	p.node.append(r.node)
	return r
}

// Run is a view of a w:r element.
type Run struct {
	node *Node
}

// Text returns the run text. Tabs are reported as '\t' and line breaks as '\n'.
func (r *Run) Text() string {
	var b strings.Builder
	for _, c := range r.node.Children {
		switch {
		case c.is("t"):
			b.WriteString(c.textContent())
		case c.is("tab"):
			b.WriteByte('\t')
		case c.is("br"), c.is("cr"):
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// SetText replaces the run content with text. Formatting is kept.
func (r *Run) SetText(text string) {
	kept := r.node.Children[:0]
	for _, c := range r.node.Children {
		if c.is("rPr") {
			kept = append(kept, c)
			continue
		}
		c.parent = nil
	}
	r.node.Children = kept

	var chunk strings.Builder
	flush := func() {
		if chunk.Len() == 0 {
			return
		}
		t := element("t", xml.Attr{Name: xml.Name{Space: nsXML, Local: "space"}, Value: "preserve"})
		r.node.append(t.append(textNode(chunk.String())))
		chunk.Reset()
	}
	for _, c := range text {
		switch c {
		case '\t':
			flush()
			r.node.append(element("tab"))
		case '\n':
			flush()
			r.node.append(element("br"))
		default:
			chunk.WriteRune(c)
		}
	}
	flush()
}

// Format reads the character formatting of the run.
func (r *Run) Format() Format {
	rPr := r.node.child("rPr")
	if rPr == nil {
		return Format{}
	}
	var f Format
	if n := rPr.child("b"); n != nil {
		f.Bold = toggle(n)
	}
	if n := rPr.child("i"); n != nil {
		f.Italic = toggle(n)
	}
	if n := rPr.child("u"); n != nil {
		f.Underline = "single"
		if v, ok := n.attr("val"); ok {
			f.Underline = v
		}
	}
	if n := rPr.child("rFonts"); n != nil {
		if v, ok := n.attr("ascii"); ok {
			f.Font = v
		} else if v, ok = n.attr("hAnsi"); ok {
			f.Font = v
		}
	}
	if n := rPr.child("sz"); n != nil {
		if v, ok := n.attr("val"); ok {
			if size, err := strconv.Atoi(v); err == nil {
				f.Size = size
			}
		}
	}
	if n := rPr.child("color"); n != nil {
		f.Color, _ = n.attr("val")
	}
	return f
}

func toggle(n *Node) Toggle {
	v, ok := n.attr("val")
	if !ok {
		return On
	}
	switch strings.ToLower(v) {
	case "0", "false", "off", "none":
		return Off
	default:
		return On
	}
}

func toggleElement(local string, t Toggle) *Node {
	if t == Off {
		return element(local, wAttr("val", "0"))
	}
	return element(local)
}

// properties builds a w:rPr element in schema order, or nil when f is all inherited.
func (f Format) properties() *Node {
	if f == (Format{}) {
		return nil
	}
	rPr := element("rPr")
	if f.Font != "" {
		rPr.append(element("rFonts",
			wAttr("ascii", f.Font), wAttr("hAnsi", f.Font), wAttr("eastAsia", f.Font)))
	}
	if f.Bold != Inherit {
		rPr.append(toggleElement("b", f.Bold))
	}
	if f.Italic != Inherit {
		rPr.append(toggleElement("i", f.Italic))
	}
	if f.Color != "" {
		rPr.append(element("color", wAttr("val", f.Color)))
	}
	if f.Size > 0 {
		rPr.append(element("sz", wAttr("val", strconv.Itoa(f.Size))))
	}
	if f.Underline != "" {
		rPr.append(element("u", wAttr("val", f.Underline)))
	}
	return rPr
}
