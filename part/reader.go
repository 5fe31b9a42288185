package part

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/TsubasaBE/go-xlsx/codec"
	"github.com/TsubasaBE/go-xlsx/element"
	xlsxerrors "github.com/TsubasaBE/go-xlsx/errors"
	"github.com/TsubasaBE/go-xlsx/schema"
)

// Parse builds the element tree of a part.  The root element selects the
// descriptor from the registry (see WithRegistry).  Every failure is an
// *xlsxerrors.Error carrying the part name, the element path and, for
// attribute errors, the attribute name and offending text; no partial tree
// is returned.
func Parse(data []byte, rels RelationshipTable, opts ...Option) (*element.Node, error) {
	return parse(data, nil, rels, opts)
}

// ParseElement parses data whose root must be an element of type t.  It
// accepts fragments without an XML declaration, such as WriteElement output.
func ParseElement(data []byte, t *schema.ElementType, rels RelationshipTable, opts ...Option) (*element.Node, error) {
	return parse(data, t, rels, opts)
}

func parse(data []byte, want *schema.ElementType, rels RelationshipTable, opts []Option) (*element.Node, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if rels == nil {
		rels = IDs(nil)
	}

	buf, transcoded, err := toUTF8(data)
	if err != nil {
		return nil, xlsxerrors.Wrap(xlsxerrors.MalformedXML, err, "unsupported character encoding").In(o.partName)
	}
	if transcoded {
		o.logger.Debug("part transcoded to UTF-8", zap.String("part", o.partName))
	}

	r := &reader{opts: o, rels: rels, buf: buf, fragment: want != nil}
	r.dec = xml.NewDecoder(bytes.NewReader(buf))
	r.dec.CharsetReader = identityCharset
	if want != nil {
		// Fragments carry no namespace declarations.
		r.dec.DefaultSpace = want.Space
	}

	root, err := r.document(want)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("part parsed",
		zap.String("part", o.partName),
		zap.String("root", root.Name().Local),
		zap.Int("bytes", len(data)),
	)
	return root, nil
}

type reader struct {
	opts options
	rels RelationshipTable
	buf  []byte
	dec  *xml.Decoder

	fragment bool
	dropped  int // comments and processing instructions inside the root
}

// frame is one open element during the walk.
type frame struct {
	node     *element.Node
	path     string
	lastSlot int            // schema slot of the most recent known child
	seen     map[string]int // occurrences per child name, for paths
	text     strings.Builder
}

func (r *reader) fail(code xlsxerrors.Code, path, format string, args ...any) *xlsxerrors.Error {
	e := xlsxerrors.New(code, format, args...).In(r.opts.partName).At(path)
	e.Line, e.Column = r.dec.InputPos()
	return e
}

// token returns the next token together with the offset where it starts.
func (r *reader) token(path string) (xml.Token, int64, error) {
	off := r.dec.InputOffset()
	tok, err := r.dec.Token()
	if err == nil {
		return tok, off, nil
	}
	if err == io.EOF {
		return nil, off, err
	}
	e := xlsxerrors.Wrap(xlsxerrors.MalformedXML, err, "not well-formed").In(r.opts.partName).At(path)
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		e.Line = se.Line
	}
	return nil, off, e
}

// skip consumes the rest of the element started at off and returns its
// markup.
func (r *reader) skip(path string, off int64) ([]byte, error) {
	if err := r.dec.Skip(); err != nil {
		return nil, xlsxerrors.Wrap(xlsxerrors.MalformedXML, err, "not well-formed").In(r.opts.partName).At(path)
	}
	return bytes.Clone(r.buf[off:r.dec.InputOffset()]), nil
}

func (r *reader) document(want *schema.ElementType) (*element.Node, error) {
	var root *element.Node
	for {
		tok, _, err := r.token("")
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			if root != nil {
				return nil, r.fail(xlsxerrors.MalformedXML, "/"+tok.Name.Local, "second root element")
			}
			t := want
			if t == nil {
				var ok bool
				if t, ok = r.opts.registry.Root(tok.Name.Space, tok.Name.Local); !ok {
					return nil, r.fail(xlsxerrors.SchemaViolation, "/"+tok.Name.Local,
						"no descriptor for root element {%s}%s", tok.Name.Space, tok.Name.Local)
				}
			} else if t.XMLName() != tok.Name {
				return nil, r.fail(xlsxerrors.SchemaViolation, "/"+tok.Name.Local,
					"root element is {%s}%s, want %s", tok.Name.Space, tok.Name.Local, t.Name)
			}
			if root, err = r.element(tok, t, "/"+t.Name); err != nil {
				return nil, err
			}
		case xml.CharData:
			if len(bytes.TrimSpace(tok)) > 0 {
				return nil, r.fail(xlsxerrors.MalformedXML, "", "text outside the root element")
			}
		case xml.Directive:
			return nil, r.fail(xlsxerrors.MalformedXML, "", "document type declarations are not allowed")
		}
	}
	if root == nil {
		return nil, r.fail(xlsxerrors.MalformedXML, "", "no root element")
	}
	if r.dropped > 0 {
		r.opts.logger.Warn("comments and processing instructions dropped",
			zap.String("part", r.opts.partName), zap.Int("count", r.dropped))
	}
	return root, nil
}

// element reads the element opened by start, whose descriptor is t, up to
// and including its end tag.
func (r *reader) element(start xml.StartElement, t *schema.ElementType, path string) (*element.Node, error) {
	n := element.New(t)
	if err := r.attrs(n, start, path); err != nil {
		return nil, err
	}

	f := &frame{node: n, path: path, lastSlot: -1, seen: make(map[string]int)}
	for {
		tok, off, err := r.token(path)
		if err == io.EOF {
			return nil, r.fail(xlsxerrors.MalformedXML, path, "unexpected end of part")
		}
		if err != nil {
			return nil, err
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			if err := r.child(f, tok, off); err != nil {
				return nil, err
			}
		case xml.EndElement:
			return n, r.finish(f)
		case xml.CharData:
			if t.Text != nil {
				f.text.Write(tok)
			} else if len(bytes.TrimSpace(tok)) > 0 {
				return nil, r.fail(xlsxerrors.SchemaViolation, path, "%s does not allow text content", t.Name)
			}
		case xml.Comment, xml.ProcInst:
			r.dropped++
		case xml.Directive:
			return nil, r.fail(xlsxerrors.MalformedXML, path, "unexpected directive")
		}
	}
}

func (r *reader) attrs(n *element.Node, start xml.StartElement, path string) error {
	t := n.Type()
	for _, a := range start.Attr {
		if r.fragment {
			a.Name.Space = conventionalSpace(a.Name.Space)
		}
		if isNamespaceDecl(a.Name) {
			n.AddExtra(a)
			continue
		}
		i, decl := t.Attr(a.Name.Space, a.Name.Local)
		if decl == nil {
			if a.Name.Space != "" || t.Lax() {
				n.AddExtra(a)
				continue
			}
			e := r.fail(xlsxerrors.SchemaViolation, path, "attribute not allowed on %s", t.Name)
			e.Attr = a.Name.Local
			return e
		}

		v, err := codec.Decode(decl.Type, a.Value)
		if err != nil {
			e, ok := xlsxerrors.As(err)
			if !ok {
				return err
			}
			e.Attr = decl.QName()
			e.In(r.opts.partName).At(path)
			e.Line, e.Column = r.dec.InputPos()
			return e
		}
		if decl.Type.Kind == codec.KindRelID && !r.rels.Contains(a.Value) {
			e := r.fail(xlsxerrors.DanglingRelationship, path, "relationship %q not found", a.Value)
			e.Attr = decl.QName()
			e.Text = a.Value
			return e
		}
		if err := n.SetAt(i, v); err != nil {
			return r.fail(xlsxerrors.Decode, path, "%v", err)
		}
	}
	for _, decl := range t.Attrs {
		if decl.Use == schema.UseRequired && !n.Specified(decl.QName()) {
			e := r.fail(xlsxerrors.SchemaViolation, path, "required attribute missing")
			e.Attr = decl.QName()
			return e
		}
	}
	return nil
}

// conventionalSpace maps an undeclared conventional prefix, which the
// decoder leaves in Name.Space, to its namespace.
func conventionalSpace(space string) string {
	switch space {
	case "r":
		return schema.NSRelationships
	case "mc":
		return schema.NSMarkupCompat
	}
	return space
}

func isNamespaceDecl(name xml.Name) bool {
	return name.Space == "xmlns" || (name.Space == "" && name.Local == "xmlns")
}

func (r *reader) child(f *frame, start xml.StartElement, off int64) error {
	parent := f.node.Type()
	if parent.Text != nil {
		return r.fail(xlsxerrors.SchemaViolation, f.path, "%s does not allow child elements", parent.Name)
	}

	slotIdx, slot := parent.Slot(start.Name.Space, start.Name.Local)
	if slot == nil {
		if !parent.Lax() {
			return r.fail(xlsxerrors.SchemaViolation, f.path+"/"+start.Name.Local,
				"element {%s}%s not allowed in %s", start.Name.Space, start.Name.Local, parent.Name)
		}
		raw, err := r.skip(f.path, off)
		if err != nil {
			return err
		}
		f.node.AppendUnknown(element.NewUnknown(start.Name, raw), f.lastSlot)
		return nil
	}

	f.seen[start.Name.Local]++
	path := f.path + "/" + start.Name.Local
	if slot.Max != 1 {
		path += "[" + strconv.Itoa(f.seen[start.Name.Local]) + "]"
	}
	if slotIdx < f.lastSlot {
		return r.fail(xlsxerrors.SchemaViolation, path, "%s out of schema order in %s", start.Name.Local, parent.Name)
	}
	f.lastSlot = slotIdx

	t := slot.Accepts(start.Name.Space, start.Name.Local)
	var c *element.Node
	if t.Opaque() {
		raw, err := r.skip(path, off)
		if err != nil {
			return err
		}
		c = element.NewOpaque(t, raw)
	} else {
		var err error
		if c, err = r.element(start, t, path); err != nil {
			return err
		}
	}
	if err := f.node.Append(c); err != nil {
		if e, ok := xlsxerrors.As(err); ok {
			e.In(r.opts.partName).At(path)
			return e
		}
		return r.fail(xlsxerrors.SchemaViolation, path, "%v", err)
	}
	return nil
}

// finish validates a complete element: simple content and minimum child
// counts.
func (r *reader) finish(f *frame) error {
	n, t := f.node, f.node.Type()
	if t.Text != nil {
		text := f.text.String()
		if _, err := codec.Decode(*t.Text, text); err != nil {
			if e, ok := xlsxerrors.As(err); ok {
				e.In(r.opts.partName).At(f.path)
				e.Line, e.Column = r.dec.InputPos()
				return e
			}
			return err
		}
		if err := n.SetText(text); err != nil {
			return fmt.Errorf("part: %s: %w", f.path, err)
		}
	}
	for _, slot := range t.Children {
		if got := len(n.Children(slot.Name())); got < slot.Min {
			return r.fail(xlsxerrors.SchemaViolation, f.path, "%s requires at least %d %s, found %d",
				t.Name, slot.Min, slot.Name(), got)
		}
	}
	return nil
}
