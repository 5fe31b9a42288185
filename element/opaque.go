package element

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/beevik/etree"

	"github.com/TsubasaBE/go-xlsx/schema"
)

// NewOpaque returns a node of the opaque type t whose content is raw, the
// complete element markup as it appears in the part.
func NewOpaque(t *schema.ElementType, raw []byte) *Node {
	return &Node{typ: t, name: t.XMLName(), raw: bytes.Clone(raw), anchor: -1}
}

// NewUnknown returns a node for an element with no descriptor.  The writer
// emits raw verbatim.
func NewUnknown(name xml.Name, raw []byte) *Node {
	return &Node{name: name, raw: bytes.Clone(raw), anchor: -1}
}

// IsOpaque reports whether the node carries raw markup instead of a model.
func (n *Node) IsOpaque() bool { return n.typ == nil || n.typ.Opaque() }

// Raw returns the markup of an opaque node.  The slice must not be modified.
func (n *Node) Raw() []byte { return n.raw }

// Tree parses the markup of an opaque node into an etree element for
// inspection.  Changes to the returned element are not reflected in the node;
// use SetTree to store them.
func (n *Node) Tree() (*etree.Element, error) {
	if !n.IsOpaque() {
		return nil, fmt.Errorf("element: %s is not opaque", n.name.Local)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(n.raw); err != nil {
		return nil, fmt.Errorf("element: %s: %w", n.name.Local, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("element: %s: empty content", n.name.Local)
	}
	return root, nil
}

// SetTree replaces the content of an opaque node with the serialization of
// el, which must keep the node's local name.
func (n *Node) SetTree(el *etree.Element) error {
	if !n.IsOpaque() {
		return fmt.Errorf("element: %s is not opaque", n.name.Local)
	}
	if el.Tag != n.name.Local {
		return fmt.Errorf("element: cannot replace %s content with <%s>", n.name.Local, el.FullTag())
	}
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	b, err := doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("element: %s: %w", n.name.Local, err)
	}
	n.raw = b
	return nil
}
