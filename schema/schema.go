// Package schema holds the declarative element descriptors that drive the
// generic part reader and writer.
//
// An [ElementType] lists, in schema order, the attributes of one element
// (with kind, use and default) and its child slots (singleton, repeated list
// or choice group).  Descriptors are built once at package initialisation
// with [Define]; defaults are decoded at that point so every node built from
// a descriptor starts from the same, centrally auditable defaults table.
package schema

import (
	"encoding/xml"
	"fmt"
	"slices"

	"github.com/TsubasaBE/go-xlsx/codec"
)

// Namespace URIs used by SpreadsheetML parts.
const (
	NSMain          = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
	NSRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NSMarkupCompat  = "http://schemas.openxmlformats.org/markup-compatibility/2006"
	NSXML           = "http://www.w3.org/XML/1998/namespace"
)

// Unbounded is the Max of a child slot with maxOccurs="unbounded".
const Unbounded = -1

// Use says whether an attribute must be present.
type Use uint8

const (
	UseOptional Use = iota
	UseRequired
)

// Attr declares one attribute.
type Attr struct {
	// Name is the local name.
	Name string
	// Space is the namespace URI; empty for unqualified attributes.
	Space string
	Type  codec.Type
	Use   Use
	// Default is the schema default; invalid when the attribute has none.
	Default codec.Value
}

// HasDefault reports whether the attribute declares a default value.
func (a *Attr) HasDefault() bool { return a.Default.IsValid() }

// QName returns the attribute name with its conventional prefix, for
// diagnostics ("r:id", "xml:space", "saveData").
func (a *Attr) QName() string {
	if p := ConventionalPrefix(a.Space); p != "" {
		return p + ":" + a.Name
	}
	return a.Name
}

// Child declares one child slot: a single element type, or a choice group
// of alternative element types sharing the slot's cardinality.
type Child struct {
	// Group is the choice-group name; empty for a plain slot.
	Group string
	// Types holds the slot's element type, or the choice alternatives.
	Types []*ElementType
	Min   int
	// Max is the maximum number of elements in the slot, or Unbounded.
	Max int
}

// IsChoice reports whether the slot is a choice group.
func (c *Child) IsChoice() bool { return c.Group != "" }

// Name returns the group name of a choice slot or the element name of a
// plain slot.
func (c *Child) Name() string {
	if c.IsChoice() {
		return c.Group
	}
	return c.Types[0].Name
}

// Accepts returns the alternative named by (space, local), or nil.
func (c *Child) Accepts(space, local string) *ElementType {
	for _, t := range c.Types {
		if t.Name == local && t.Space == space {
			return t
		}
	}
	return nil
}

// Allows reports whether n elements fit in the slot.
func (c *Child) Allows(n int) bool { return c.Max == Unbounded || n <= c.Max }

// ElementType describes one schema element.
type ElementType struct {
	Space string
	Name  string
	// Attrs are in schema-declared order; the writer emits them in this order.
	Attrs []*Attr
	// Children are in schema-declared order.
	Children []*Child
	// Text is the simple-content type of elements such as <t> or <v>.
	Text *codec.Type

	lax    bool
	opaque bool

	attrIndex  map[xml.Name]int
	childIndex map[xml.Name]int
	groupIndex map[string]int
}

// Lax reports whether unknown children and attributes are preserved
// opaquely instead of being rejected.
func (t *ElementType) Lax() bool { return t.lax }

// Opaque reports whether the element's whole content is kept as raw bytes.
func (t *ElementType) Opaque() bool { return t.opaque }

// XMLName returns the namespace-qualified name.
func (t *ElementType) XMLName() xml.Name { return xml.Name{Space: t.Space, Local: t.Name} }

// Attr returns the index and declaration of the attribute (space, local).
func (t *ElementType) Attr(space, local string) (int, *Attr) {
	i, ok := t.attrIndex[xml.Name{Space: space, Local: local}]
	if !ok {
		return -1, nil
	}
	return i, t.Attrs[i]
}

// AttrByName looks up an attribute by the name used in the element API:
// the local name for unqualified attributes, the prefixed name ("r:id")
// otherwise.
func (t *ElementType) AttrByName(name string) (int, *Attr) {
	for i, a := range t.Attrs {
		if a.QName() == name {
			return i, a
		}
	}
	return -1, nil
}

// Slot returns the index and declaration of the child slot that accepts
// the element (space, local).
func (t *ElementType) Slot(space, local string) (int, *Child) {
	i, ok := t.childIndex[xml.Name{Space: space, Local: local}]
	if !ok {
		return -1, nil
	}
	return i, t.Children[i]
}

// SlotByName looks up a child slot by element name or choice-group name.
func (t *ElementType) SlotByName(name string) (int, *Child) {
	if i, ok := t.groupIndex[name]; ok {
		return i, t.Children[i]
	}
	for i, c := range t.Children {
		for _, alt := range c.Types {
			if alt.Name == name {
				return i, c
			}
		}
	}
	return -1, nil
}

// String returns the element name for diagnostics.
func (t *ElementType) String() string { return t.Name }

// Option configures an ElementType under construction.
type Option func(*ElementType)

// Define builds an element descriptor.  It panics when the options are
// inconsistent (duplicate names, undecodable defaults): descriptors are
// package-level tables and such mistakes must fail at init.
func Define(space, name string, opts ...Option) *ElementType {
	t := &ElementType{
		Space:      space,
		Name:       name,
		attrIndex:  make(map[xml.Name]int),
		childIndex: make(map[xml.Name]int),
		groupIndex: make(map[string]int),
	}
	for _, opt := range opts {
		opt(t)
	}
	for i, a := range t.Attrs {
		key := xml.Name{Space: a.Space, Local: a.Name}
		if _, dup := t.attrIndex[key]; dup {
			panic(fmt.Sprintf("schema: %s: duplicate attribute %s", name, a.QName()))
		}
		t.attrIndex[key] = i
	}
	for i, c := range t.Children {
		if c.IsChoice() {
			t.groupIndex[c.Group] = i
		}
		for _, alt := range c.Types {
			key := alt.XMLName()
			if _, dup := t.childIndex[key]; dup {
				panic(fmt.Sprintf("schema: %s: child %s declared twice", name, alt.Name))
			}
			t.childIndex[key] = i
		}
	}
	return t
}

// Opaque declares an element whose content is preserved byte-for-byte and
// never interpreted (extension lists, unmodelled formatting blocks).
func Opaque(space, name string) *ElementType {
	t := Define(space, name)
	t.opaque = true
	return t
}

func addAttr(space, name string, typ codec.Type, use Use, def string, hasDef bool) Option {
	return func(t *ElementType) {
		a := &Attr{Name: name, Space: space, Type: typ, Use: use}
		if hasDef {
			v, err := codec.Decode(typ, def)
			if err != nil {
				panic(fmt.Sprintf("schema: %s@%s: bad default %q: %v", t.Name, name, def, err))
			}
			a.Default = v
		}
		t.Attrs = append(t.Attrs, a)
	}
}

// Optional declares an optional unqualified attribute without a default.
func Optional(name string, typ codec.Type) Option {
	return addAttr("", name, typ, UseOptional, "", false)
}

// Default declares an optional unqualified attribute with a schema default.
func Default(name string, typ codec.Type, lexical string) Option {
	return addAttr("", name, typ, UseOptional, lexical, true)
}

// Required declares a required unqualified attribute.
func Required(name string, typ codec.Type) Option {
	return addAttr("", name, typ, UseRequired, "", false)
}

// Qualified declares a namespace-qualified attribute such as r:id or
// xml:space.
func Qualified(space, name string, typ codec.Type, use Use) Option {
	return addAttr(space, name, typ, use, "", false)
}

// RelID declares the r:id attribute.
func RelID(use Use) Option {
	return Qualified(NSRelationships, "id", codec.RelationshipID, use)
}

// One declares a required singleton child.
func One(c *ElementType) Option { return slot("", 1, 1, c) }

// Maybe declares an optional singleton child.
func Maybe(c *ElementType) Option { return slot("", 0, 1, c) }

// Many declares a repeated child with at least min occurrences.
func Many(c *ElementType, min int) Option { return slot("", min, Unbounded, c) }

// Choice declares a choice group: between min and max elements, each one of
// the alternatives.
func Choice(group string, min, max int, alts ...*ElementType) Option {
	if group == "" {
		panic("schema: choice group needs a name")
	}
	return slot(group, min, max, alts...)
}

func slot(group string, min, max int, types ...*ElementType) Option {
	return func(t *ElementType) {
		t.Children = append(t.Children, &Child{Group: group, Types: types, Min: min, Max: max})
	}
}

// Text declares simple text content of the given type.
func Text(typ codec.Type) Option {
	return func(t *ElementType) { t.Text = &typ }
}

// Lax marks the element as partially modelled: unknown children and
// attributes are preserved opaquely.
func Lax() Option {
	return func(t *ElementType) { t.lax = true }
}

// ConventionalPrefix returns the prefix SpreadsheetML producers use for a
// namespace, or "" for the main (default) namespace and unknown ones.
func ConventionalPrefix(space string) string {
	switch space {
	case NSRelationships:
		return "r"
	case NSXML:
		return "xml"
	case NSMarkupCompat:
		return "mc"
	}
	return ""
}

// Walk calls fn once for t and every element type reachable from it.
func Walk(t *ElementType, fn func(*ElementType)) {
	seen := make(map[*ElementType]bool)
	var visit func(*ElementType)
	visit = func(t *ElementType) {
		if seen[t] {
			return
		}
		seen[t] = true
		fn(t)
		for _, c := range t.Children {
			for _, alt := range c.Types {
				visit(alt)
			}
		}
	}
	visit(t)
}

// Registry maps root elements and content types to descriptors.
type Registry struct {
	byName        map[xml.Name]*ElementType
	byContentType map[string]*ElementType
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:        make(map[xml.Name]*ElementType),
		byContentType: make(map[string]*ElementType),
	}
}

// Register binds a content type to the descriptor of its root element.
func (r *Registry) Register(contentType string, root *ElementType) {
	r.byContentType[contentType] = root
	r.byName[root.XMLName()] = root
}

// ForContentType returns the root descriptor registered for contentType.
func (r *Registry) ForContentType(contentType string) (*ElementType, bool) {
	t, ok := r.byContentType[contentType]
	return t, ok
}

// Root returns the root descriptor with the given qualified name.
func (r *Registry) Root(space, local string) (*ElementType, bool) {
	t, ok := r.byName[xml.Name{Space: space, Local: local}]
	return t, ok
}

// ContentTypes returns the registered content types in sorted order.
func (r *Registry) ContentTypes() []string {
	out := make([]string, 0, len(r.byContentType))
	for ct := range r.byContentType {
		out = append(out, ct)
	}
	slices.Sort(out)
	return out
}
