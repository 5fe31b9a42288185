// Package element is the in-memory model of one schema-defined XML element.
//
// A [Node] is built from an [schema.ElementType]: its attributes start at the
// schema defaults and are flagged as specified only once set, either by the
// part reader or by [Node.Set].  Children are kept in schema order, so the
// writer never has to sort them.  Elements the module does not model
// (extension lists, unknown children of lax types) are opaque nodes holding
// their original markup.
//
// Nodes are not safe for concurrent mutation.
package element

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/TsubasaBE/go-xlsx/codec"
	xlsxerrors "github.com/TsubasaBE/go-xlsx/errors"
	"github.com/TsubasaBE/go-xlsx/schema"
)

type attr struct {
	val       codec.Value
	specified bool
}

// Node is one element instance.
type Node struct {
	typ  *schema.ElementType // nil for unknown elements
	name xml.Name

	attrs []attr
	// extra holds foreign-namespace attributes (namespace declarations,
	// mc:Ignorable, xr:uid) and, on lax types, unknown attributes.  Name.Space
	// is the namespace URI, or "xmlns" for declarations.
	extra []xml.Attr

	text     string
	children []*Node

	raw []byte // opaque content, the complete element markup

	// anchor is the index of the parent's last schema slot that precedes an
	// unknown child.  -1 places it before every known child.
	anchor int
}

// New returns a node of type t with every attribute at its schema default
// and no children.  Opaque types get an empty element as content.
func New(t *schema.ElementType) *Node {
	n := &Node{typ: t, name: t.XMLName(), anchor: -1}
	if t.Opaque() {
		n.raw = []byte("<" + t.Name + "/>")
		return n
	}
	n.attrs = make([]attr, len(t.Attrs))
	for i, a := range t.Attrs {
		n.attrs[i].val = a.Default
	}
	return n
}

// Type returns the node's descriptor, or nil for an unknown element.
func (n *Node) Type() *schema.ElementType { return n.typ }

// Name returns the qualified element name.
func (n *Node) Name() xml.Name { return n.name }

// ── attributes ───────────────────────────────────────────────────────────────

func (n *Node) lookup(name string) (int, *schema.Attr) {
	if n.typ == nil {
		return -1, nil
	}
	return n.typ.AttrByName(name)
}

// Get returns the explicitly specified value of the attribute name.  It
// reports false for attributes left at their default.
func (n *Node) Get(name string) (codec.Value, bool) {
	i, _ := n.lookup(name)
	if i < 0 || !n.attrs[i].specified {
		return codec.Value{}, false
	}
	return n.attrs[i].val, true
}

// Effective returns the attribute value a consumer should act on: the
// specified value, or else the schema default.  It reports false when the
// attribute is neither specified nor defaulted.
func (n *Node) Effective(name string) (codec.Value, bool) {
	i, _ := n.lookup(name)
	if i < 0 || !n.attrs[i].val.IsValid() {
		return codec.Value{}, false
	}
	return n.attrs[i].val, true
}

// Specified reports whether the attribute was set explicitly.
func (n *Node) Specified(name string) bool {
	i, _ := n.lookup(name)
	return i >= 0 && n.attrs[i].specified
}

// Set assigns an attribute and marks it specified, so the writer emits it
// even when v equals the default.
func (n *Node) Set(name string, v codec.Value) error {
	i, a := n.lookup(name)
	if a == nil {
		return fmt.Errorf("element: %s has no attribute %q", n.name.Local, name)
	}
	return n.SetAt(i, v)
}

// SetAt assigns the i-th declared attribute.
func (n *Node) SetAt(i int, v codec.Value) error {
	a := n.typ.Attrs[i]
	if err := codec.Check(a.Type, v); err != nil {
		return fmt.Errorf("element: %s@%s: %w", n.name.Local, a.QName(), err)
	}
	switch {
	case a.Type.Kind == codec.KindEnum && v.Kind() == codec.KindString:
		v = codec.NewEnum(v.Str())
	case a.Type.Kind == codec.KindRelID && v.Kind() == codec.KindString:
		v = codec.NewRelID(v.Str())
	}
	n.attrs[i] = attr{val: v, specified: true}
	return nil
}

// Unset returns an attribute to its default and clears its specified flag.
func (n *Node) Unset(name string) {
	if i, a := n.lookup(name); a != nil {
		n.attrs[i] = attr{val: a.Default}
	}
}

// Attrs iterates over the specified attributes in schema order.
func (n *Node) Attrs() iter.Seq2[*schema.Attr, codec.Value] {
	return func(yield func(*schema.Attr, codec.Value) bool) {
		for i, a := range n.attrs {
			if a.specified && !yield(n.typ.Attrs[i], a.val) {
				return
			}
		}
	}
}

// Bool returns the effective boolean value of name, or false.
func (n *Node) Bool(name string) bool {
	v, _ := n.Effective(name)
	return v.Bool()
}

// Int returns the effective integer value of name, or 0.
func (n *Node) Int(name string) int64 {
	v, _ := n.Effective(name)
	return v.Int()
}

// Uint returns the effective unsigned value of name, or 0.
func (n *Node) Uint(name string) uint64 {
	v, _ := n.Effective(name)
	return v.Uint()
}

// Float returns the effective numeric value of name, or 0.
func (n *Node) Float(name string) float64 {
	v, _ := n.Effective(name)
	return v.Float()
}

// Str returns the effective value of name as text: the string itself for
// string-like kinds, the canonical encoding otherwise.
func (n *Node) Str(name string) string {
	i, a := n.lookup(name)
	if a == nil || !n.attrs[i].val.IsValid() {
		return ""
	}
	v := n.attrs[i].val
	switch v.Kind() {
	case codec.KindString, codec.KindEnum, codec.KindRelID:
		return v.Str()
	}
	s, _ := codec.Encode(a.Type, v)
	return s
}

// Time returns the effective date-time value of name, or the zero time.
func (n *Node) Time(name string) time.Time {
	v, _ := n.Effective(name)
	return v.Time()
}

// SetBool sets a boolean attribute.
func (n *Node) SetBool(name string, b bool) error { return n.Set(name, codec.NewBool(b)) }

// SetStr sets a string, enumeration or relationship-ID attribute.
func (n *Node) SetStr(name, s string) error { return n.Set(name, codec.NewString(s)) }

// SetFloat sets a double attribute.
func (n *Node) SetFloat(name string, f float64) error { return n.Set(name, codec.NewDouble(f)) }

// SetInt sets an integer attribute of any width and signedness.
func (n *Node) SetInt(name string, i int64) error {
	_, a := n.lookup(name)
	if a == nil {
		return fmt.Errorf("element: %s has no attribute %q", n.name.Local, name)
	}
	return n.Set(name, codec.NewInteger(a.Type.Kind, i))
}

// SetUint is SetInt for unsigned callers.
func (n *Node) SetUint(name string, u uint64) error { return n.SetInt(name, int64(u)) }

// Extra returns the preserved foreign and unknown attributes in document
// order.  The slice must not be modified.
func (n *Node) Extra() []xml.Attr { return n.extra }

// AddExtra appends a foreign attribute, replacing one with the same name.
func (n *Node) AddExtra(a xml.Attr) {
	for i := range n.extra {
		if n.extra[i].Name == a.Name {
			n.extra[i].Value = a.Value
			return
		}
	}
	n.extra = append(n.extra, a)
}

// ── text ─────────────────────────────────────────────────────────────────────

// Text returns the simple content of the node.
func (n *Node) Text() string { return n.text }

// SetText replaces the simple content.  The text is checked against the
// type's declared content type.
func (n *Node) SetText(s string) error {
	if n.typ == nil || n.typ.Text == nil {
		return fmt.Errorf("element: %s has no simple content", n.name.Local)
	}
	if _, err := codec.Decode(*n.typ.Text, s); err != nil {
		return fmt.Errorf("element: %s text: %w", n.name.Local, err)
	}
	n.text = s
	return nil
}

// ── children ─────────────────────────────────────────────────────────────────

// orderKey places a child among its siblings: known children sort by schema
// slot, unknown ones right after the slot they were anchored to.
func (n *Node) orderKey(c *Node) int {
	if c.typ != nil {
		if i, _ := n.typ.Slot(c.name.Space, c.name.Local); i >= 0 {
			return 2*i + 2
		}
	}
	return 2*c.anchor + 3
}

// insert places c after every sibling whose order key is not greater.
func (n *Node) insert(c *Node) {
	k := n.orderKey(c)
	at := len(n.children)
	for at > 0 && n.orderKey(n.children[at-1]) > k {
		at--
	}
	n.children = slices.Insert(n.children, at, c)
}

func (n *Node) count(slot int) int {
	var k int
	for _, c := range n.children {
		if c.typ != nil {
			if i, _ := n.typ.Slot(c.name.Space, c.name.Local); i == slot {
				k++
			}
		}
	}
	return k
}

// AddChild creates a child of the element type called name, inserts it at
// its schema position and returns it.
func (n *Node) AddChild(name string) (*Node, error) {
	if n.typ == nil {
		return nil, fmt.Errorf("element: %s is opaque", n.name.Local)
	}
	_, slot := n.typ.SlotByName(name)
	if slot == nil {
		return nil, fmt.Errorf("element: %s has no child %q", n.name.Local, name)
	}
	var t *schema.ElementType
	for _, alt := range slot.Types {
		if alt.Name == name {
			t = alt
		}
	}
	if t == nil {
		return nil, fmt.Errorf("element: %s: %q is a choice group, add one of its alternatives", n.name.Local, name)
	}
	c := New(t)
	if err := n.Append(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Append inserts an existing node at its schema position.  Unknown nodes are
// accepted by lax types only and go after every known child.
func (n *Node) Append(c *Node) error {
	if n.typ == nil || n.typ.Opaque() {
		return fmt.Errorf("element: %s is opaque", n.name.Local)
	}
	i, slot := n.typ.Slot(c.name.Space, c.name.Local)
	if slot == nil || c.typ == nil {
		if !n.typ.Lax() {
			return xlsxerrors.New(xlsxerrors.SchemaViolation, "%s does not allow child %s", n.name.Local, c.name.Local)
		}
		c.anchor = len(n.typ.Children) - 1
		n.insert(c)
		return nil
	}
	if c.typ != slot.Accepts(c.name.Space, c.name.Local) {
		return fmt.Errorf("element: %s: child %s has a foreign descriptor", n.name.Local, c.name.Local)
	}
	if !slot.Allows(n.count(i) + 1) {
		return xlsxerrors.New(xlsxerrors.SchemaViolation, "%s allows at most %d %s", n.name.Local, slot.Max, slot.Name())
	}
	n.insert(c)
	return nil
}

// AppendUnknown inserts an unknown child after the given schema slot.  The
// part reader uses it to keep unknown elements where they were found.
func (n *Node) AppendUnknown(c *Node, anchor int) {
	c.anchor = anchor
	n.insert(c)
}

// Children returns the children called name, or every child of the choice
// group called name, in document order.
func (n *Node) Children(name string) []*Node {
	if n.typ == nil {
		return nil
	}
	i, slot := n.typ.SlotByName(name)
	if slot == nil {
		return nil
	}
	group := slot.IsChoice() && slot.Group == name
	var out []*Node
	for _, c := range n.children {
		if c.typ == nil {
			continue
		}
		if j, _ := n.typ.Slot(c.name.Space, c.name.Local); j == i && (group || c.name.Local == name) {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the first child called name, or nil.
func (n *Node) Child(name string) *Node {
	if cs := n.Children(name); len(cs) > 0 {
		return cs[0]
	}
	return nil
}

// Choice returns the selected alternative of a singleton choice group, or nil
// when none is present.
func (n *Node) Choice(group string) *Node { return n.Child(group) }

// SetChoice replaces the content of a choice group with c, which must be one
// of the group's alternatives.  A nil c clears the group.
func (n *Node) SetChoice(group string, c *Node) error {
	if n.typ == nil {
		return fmt.Errorf("element: %s is opaque", n.name.Local)
	}
	_, slot := n.typ.SlotByName(group)
	if slot == nil || !slot.IsChoice() || slot.Group != group {
		return fmt.Errorf("element: %s has no choice group %q", n.name.Local, group)
	}
	if c != nil && slot.Accepts(c.name.Space, c.name.Local) == nil {
		return xlsxerrors.New(xlsxerrors.SchemaViolation, "%s is not an alternative of %s/%s", c.name.Local, n.name.Local, group)
	}
	for _, old := range n.Children(group) {
		n.Remove(old)
	}
	if c == nil {
		return nil
	}
	return n.Append(c)
}

// ChildAt returns the i-th child in document order.
func (n *Node) ChildAt(i int) *Node { return n.children[i] }

// Len returns the number of children.
func (n *Node) Len() int { return len(n.children) }

// All iterates over every child in document order, unknown ones included.
func (n *Node) All() iter.Seq2[int, *Node] {
	return func(yield func(int, *Node) bool) {
		for i, c := range n.children {
			if !yield(i, c) {
				return
			}
		}
	}
}

// Remove detaches c and reports whether it was a child of n.
func (n *Node) Remove(c *Node) bool {
	i := slices.Index(n.children, c)
	if i < 0 {
		return false
	}
	n.children = slices.Delete(n.children, i, i+1)
	return true
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	c := *n
	c.attrs = slices.Clone(n.attrs)
	c.extra = slices.Clone(n.extra)
	c.raw = bytes.Clone(n.raw)
	c.children = make([]*Node, len(n.children))
	for i, ch := range n.children {
		c.children[i] = ch.Clone()
	}
	return &c
}

// Equal reports whether a and b are semantically equal: same element,
// same specified attributes with equal values, same preserved attributes,
// text and children in order, and byte-equal opaque content.  Namespace
// declarations are syntax and are not compared.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.name != b.name || a.typ != b.typ || a.text != b.text {
		return false
	}
	if !bytes.Equal(a.raw, b.raw) || !slices.Equal(foreign(a.extra), foreign(b.extra)) {
		return false
	}
	if len(a.attrs) != len(b.attrs) || len(a.children) != len(b.children) {
		return false
	}
	for i := range a.attrs {
		x, y := a.attrs[i], b.attrs[i]
		if x.specified != y.specified || (x.specified && !x.val.Equal(y.val)) {
			return false
		}
	}
	for i := range a.children {
		if !Equal(a.children[i], b.children[i]) {
			return false
		}
	}
	return true
}

func foreign(attrs []xml.Attr) []xml.Attr {
	var out []xml.Attr
	for _, a := range attrs {
		if a.Name.Space != "xmlns" && !(a.Name.Space == "" && a.Name.Local == "xmlns") {
			out = append(out, a)
		}
	}
	return out
}
