package part

import (
	"bytes"
	"encoding/xml"
	"io"
	"maps"
	"strconv"
	"unicode/utf8"

	"github.com/TsubasaBE/go-xlsx/codec"
	"github.com/TsubasaBE/go-xlsx/element"
	xlsxerrors "github.com/TsubasaBE/go-xlsx/errors"
	"github.com/TsubasaBE/go-xlsx/schema"
)

// Declaration is the XML declaration written at the top of every part.
const Declaration = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n"

// Write serializes root as a complete part: declaration, root namespace
// declarations (the preserved ones, plus the element namespace and r: when
// missing), attributes in schema order and children in document order.
func Write(root *element.Node) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := WriteTo(&buf, root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo is Write to an io.Writer.
func WriteTo(w io.Writer, root *element.Node) (int64, error) {
	wr := newWriter(true)
	wr.buf.WriteString(Declaration)
	wr.root = root
	if err := wr.node(root, "/"+root.Name().Local); err != nil {
		return 0, err
	}
	return wr.buf.WriteTo(w)
}

// WriteElement serializes n as a fragment: no declaration and no namespace
// declarations beyond those preserved on n itself.  Elements of the
// SpreadsheetML namespace are unprefixed.
func WriteElement(n *element.Node) ([]byte, error) {
	wr := newWriter(false)
	if err := wr.node(n, "/"+n.Name().Local); err != nil {
		return nil, err
	}
	return wr.buf.Bytes(), nil
}

type binding struct{ prefix, uri string }

type writer struct {
	buf      bytes.Buffer
	document bool
	root     *element.Node
	scope    []binding
}

func newWriter(document bool) *writer {
	w := &writer{document: document}
	if !document {
		w.scope = []binding{{"", schema.NSMain}}
	}
	return w
}

// prefix returns the prefix bound to uri in the current scope.
func (w *writer) prefix(uri string) (string, bool) {
	if uri == schema.NSXML {
		return "xml", true
	}
	for i := len(w.scope) - 1; i >= 0; i-- {
		if w.scope[i].uri == uri {
			return w.scope[i].prefix, true
		}
	}
	if p := schema.ConventionalPrefix(uri); p != "" && !w.document {
		return p, true
	}
	return "", false
}

func (w *writer) qname(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	p, ok := w.prefix(name.Space)
	if !ok {
		// Undeclared prefixes come through the decoder untranslated.
		p = name.Space
	}
	if p == "" {
		return name.Local
	}
	return p + ":" + name.Local
}

func (w *writer) node(n *element.Node, path string) error {
	if n.IsOpaque() {
		w.buf.Write(n.Raw())
		return nil
	}
	t := n.Type()

	mark := len(w.scope)
	decls := w.declarations(n)
	for _, d := range decls {
		w.scope = append(w.scope, d)
	}
	defer func() { w.scope = w.scope[:mark] }()

	for _, a := range t.Attrs {
		if a.Use == schema.UseRequired && !n.Specified(a.QName()) {
			e := xlsxerrors.New(xlsxerrors.SchemaViolation, "required attribute not set").At(path)
			e.Attr = a.QName()
			return e
		}
	}

	tag := w.qname(n.Name())
	w.buf.WriteByte('<')
	w.buf.WriteString(tag)
	for _, d := range decls {
		if d.prefix == "" {
			w.attr("xmlns", d.uri)
		} else {
			w.attr("xmlns:"+d.prefix, d.uri)
		}
	}
	for a, v := range n.Attrs() {
		s, err := codec.Encode(a.Type, v)
		if err != nil {
			e := xlsxerrors.Wrap(xlsxerrors.SchemaViolation, err, "attribute cannot be encoded").At(path)
			e.Attr = a.QName()
			return e
		}
		if err := w.checkChars(s, path); err != nil {
			return err
		}
		w.attr(w.qname(xml.Name{Space: a.Space, Local: a.Name}), s)
	}
	for _, a := range n.Extra() {
		if isNamespaceDecl(a.Name) {
			continue
		}
		if err := w.checkChars(a.Value, path); err != nil {
			if e, ok := xlsxerrors.As(err); ok {
				e.Attr = a.Name.Local
			}
			return err
		}
		w.attr(w.qname(a.Name), a.Value)
	}

	if n.Len() == 0 && n.Text() == "" {
		w.buf.WriteString("/>")
		return w.checkChildren(n, path)
	}
	w.buf.WriteByte('>')
	if t.Text != nil {
		if err := w.checkChars(n.Text(), path); err != nil {
			return err
		}
		escapeText(&w.buf, n.Text())
	}
	seen := make(map[string]int)
	for _, c := range n.All() {
		cpath := path + "/" + c.Name().Local
		if _, slot := t.Slot(c.Name().Space, c.Name().Local); slot != nil && slot.Max != 1 {
			seen[c.Name().Local]++
			cpath += "[" + strconv.Itoa(seen[c.Name().Local]) + "]"
		}
		if err := w.node(c, cpath); err != nil {
			return err
		}
	}
	w.buf.WriteString("</")
	w.buf.WriteString(tag)
	w.buf.WriteByte('>')
	return w.checkChildren(n, path)
}

func (w *writer) checkChildren(n *element.Node, path string) error {
	t := n.Type()
	for _, slot := range t.Children {
		if got := len(n.Children(slot.Name())); got < slot.Min {
			return xlsxerrors.New(xlsxerrors.SchemaViolation, "%s requires at least %d %s, found %d",
				t.Name, slot.Min, slot.Name(), got).At(path)
		}
	}
	return nil
}

// declarations returns the namespace bindings n introduces: the preserved
// ones in document order and, on the root of a document, the element
// namespace and every namespace used by the tree's attributes that is not
// otherwise declared.
func (w *writer) declarations(n *element.Node) []binding {
	var out []binding
	for _, a := range n.Extra() {
		switch {
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			out = append(out, binding{"", a.Value})
		case a.Name.Space == "xmlns":
			out = append(out, binding{a.Name.Local, a.Value})
		}
	}
	if !w.document || n != w.root {
		return out
	}

	declared := func(uri string) bool {
		for _, b := range out {
			if b.uri == uri {
				return true
			}
		}
		return false
	}
	if !declared(n.Name().Space) {
		out = append([]binding{{"", n.Name().Space}}, out...)
	}
	for _, uri := range usedNamespaces(n) {
		if declared(uri) {
			continue
		}
		p := schema.ConventionalPrefix(uri)
		if p == "" {
			p = "ns" + strconv.Itoa(len(out))
		}
		out = append(out, binding{p, uri})
	}
	return out
}

// usedNamespaces lists, in first-use order, the attribute namespaces of a
// tree that are not declared on the element using them.
func usedNamespaces(root *element.Node) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(uri string) {
		if uri == "" || uri == schema.NSXML || uri == "xmlns" || seen[uri] {
			return
		}
		seen[uri] = true
		out = append(out, uri)
	}
	var walk func(n *element.Node, inScope map[string]bool)
	walk = func(n *element.Node, inScope map[string]bool) {
		if n.IsOpaque() {
			return
		}
		local, cloned := inScope, false
		for _, a := range n.Extra() {
			if a.Name.Space == "xmlns" {
				if !cloned {
					local, cloned = maps.Clone(inScope), true
				}
				local[a.Value] = true
			}
		}
		for a := range n.Attrs() {
			if !local[a.Space] {
				add(a.Space)
			}
		}
		for _, a := range n.Extra() {
			if !isNamespaceDecl(a.Name) && !local[a.Name.Space] {
				add(a.Name.Space)
			}
		}
		for _, c := range n.All() {
			walk(c, local)
		}
	}
	walk(root, map[string]bool{})
	return out
}

func (w *writer) attr(name, value string) {
	w.buf.WriteByte(' ')
	w.buf.WriteString(name)
	w.buf.WriteString(`="`)
	escapeAttr(&w.buf, value)
	w.buf.WriteByte('"')
}

// checkChars rejects text that XML 1.0 cannot carry.
func (w *writer) checkChars(s, path string) error {
	bad := !utf8.ValidString(s)
	for _, r := range s {
		if (r < 0x20 && r != '\t' && r != '\n' && r != '\r') || r == 0xFFFE || r == 0xFFFF {
			bad = true
		}
	}
	if bad {
		e := xlsxerrors.New(xlsxerrors.SchemaViolation, "text contains characters XML cannot carry").At(path)
		e.Text = s
		return e
	}
	return nil
}

func escapeAttr(b *bytes.Buffer, s string) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\t':
			b.WriteString("&#x9;")
		case '\n':
			b.WriteString("&#xA;")
		case '\r':
			b.WriteString("&#xD;")
		default:
			b.WriteByte(c)
		}
	}
}

func escapeText(b *bytes.Buffer, s string) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '\r':
			b.WriteString("&#xD;")
		default:
			b.WriteByte(c)
		}
	}
}
