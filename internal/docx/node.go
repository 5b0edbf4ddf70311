package docx

import (
	"bytes"
	"encoding/xml"
	"github.com/myrjola/lettergen/internal/errors"
	"io"
	"log/slog"
)

const (
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsXML = "http://www.w3.org/XML/1998/namespace"
)

// Node is one element or character data node of a parsed XML part.
//
// Character data nodes have an empty Name.Local and carry their content in Text. Name.Space holds the resolved
// namespace URI, not the prefix used in the source document.
type Node struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []*Node
	Text     string
	parent   *Node
}

func element(local string, attrs ...xml.Attr) *Node {
	return &Node{Name: xml.Name{Space: nsW, Local: local}, Attr: attrs}
}

func wAttr(local string, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Space: nsW, Local: local}, Value: value}
}

func textNode(s string) *Node {
	return &Node{Text: s}
}

func (n *Node) isText() bool {
	return n.Name.Local == ""
}

func (n *Node) is(local string) bool {
	return n.Name.Space == nsW && n.Name.Local == local
}

// child returns the first child element with the given local name in the main namespace.
func (n *Node) child(local string) *Node {
	for _, c := range n.Children {
		if c.is(local) {
			return c
		}
	}
	return nil
}

func (n *Node) children(local string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.is(local) {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) attr(local string) (string, bool) {
	for _, a := range n.Attr {
		if a.Name.Space == nsW && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func (n *Node) append(children ...*Node) *Node {
	for _, c := range children {
		c.detach()
		c.parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// insertAt places c at index i of n's children.
func (n *Node) insertAt(i int, c *Node) {
	c.detach()
	c.parent = n
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = c
}

func (n *Node) indexOf(c *Node) int {
	for i, candidate := range n.Children {
		if candidate == c {
			return i
		}
	}
	return -1
}

// detach removes n from its parent. It is a no-op for root nodes.
func (n *Node) detach() {
	if n.parent == nil {
		return
	}
	if i := n.parent.indexOf(n); i >= 0 {
		n.parent.Children = append(n.parent.Children[:i], n.parent.Children[i+1:]...)
	}
	n.parent = nil
}

func (n *Node) within(ancestor *Node) bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// textContent concatenates all character data below n.
func (n *Node) textContent() string {
	if n.isText() {
		return n.Text
	}
	var b bytes.Buffer
	for _, c := range n.Children {
		b.WriteString(c.textContent())
	}
	return b.String()
}

// parseXML reads a whole XML part into a tree and collects the namespace prefixes declared in it.
func parseXML(r io.Reader) (*Node, map[string]string, error) {
	var (
		root     *Node
		stack    []*Node
		prefixes = map[string]string{}
		decoder  = xml.NewDecoder(r)
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "decode xml token")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			t = t.Copy()
			n := &Node{Name: t.Name, Attr: t.Attr}
			for _, a := range t.Attr {
				switch {
				case a.Name.Space == "xmlns":
					if _, seen := prefixes[a.Value]; !seen {
						prefixes[a.Value] = a.Name.Local
					}
				case a.Name.Space == "" && a.Name.Local == "xmlns":
					if _, seen := prefixes[a.Value]; !seen {
						prefixes[a.Value] = ""
					}
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, nil, errors.New("multiple root elements")
				}
				root = n
			} else {
				stack[len(stack)-1].append(n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].append(textNode(string(t)))
			}
		}
	}
	if root == nil {
		return nil, nil, errors.New("empty xml part")
	}
	return root, prefixes, nil
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

type encoder struct {
	buf      bytes.Buffer
	prefixes map[string]string
}

// encodeXML serializes the tree rooted at root using the prefixes recorded while parsing.
func encodeXML(root *Node, prefixes map[string]string) []byte {
	e := encoder{prefixes: prefixes}
	e.buf.WriteString(xmlHeader)
	e.node(root)
	return e.buf.Bytes()
}

func (e *encoder) qualified(name xml.Name) string {
	switch {
	case name.Space == "":
		return name.Local
	case name.Space == "xmlns":
		return "xmlns:" + name.Local
	case name.Space == nsXML:
		return "xml:" + name.Local
	}
	prefix, ok := e.prefixes[name.Space]
	if !ok {
		// The decoder keeps undeclared prefixes verbatim in Space.
		return name.Space + ":" + name.Local
	}
	if prefix == "" {
		return name.Local
	}
	return prefix + ":" + name.Local
}

func (e *encoder) escape(s string) {
	// EscapeText only fails when the writer fails, bytes.Buffer never does.
	_ = xml.EscapeText(&e.buf, []byte(s))
}

func (e *encoder) node(n *Node) {
	if n.isText() {
		e.escape(n.Text)
		return
	}
	name := e.qualified(n.Name)
	e.buf.WriteByte('<')
	e.buf.WriteString(name)
	for _, a := range n.Attr {
		e.buf.WriteByte(' ')
		e.buf.WriteString(e.qualified(a.Name))
		e.buf.WriteString(`="`)
		e.escape(a.Value)
		e.buf.WriteByte('"')
	}
	if len(n.Children) == 0 {
		e.buf.WriteString("/>")
		return
	}
	e.buf.WriteByte('>')
	for _, c := range n.Children {
		e.node(c)
	}
	e.buf.WriteString("</")
	e.buf.WriteString(name)
	e.buf.WriteByte('>')
}

func requireElement(n *Node, local string) error {
	if n == nil || !n.is(local) {
		return errors.Wrap(ErrNotDocx, "unexpected document structure", slog.String("want", local))
	}
	return nil
}
