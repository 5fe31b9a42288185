// Package stringtable gives indexed access to the shared strings of a
// workbook (the sst part).
package stringtable

import (
	"fmt"
	"strings"

	"github.com/TsubasaBE/go-xlsx/element"
	"github.com/TsubasaBE/go-xlsx/schema"
)

// StringTable is a view over the root of a shared-strings part.  Edits go
// straight to the tree.
type StringTable struct {
	root  *element.Node
	items []*element.Node
	index map[string]int // plain (single-run) strings only
}

// New returns the table rooted at root, which must be an sst element.
func New(root *element.Node) (*StringTable, error) {
	if root == nil || root.Type() != schema.SST {
		return nil, fmt.Errorf("stringtable: root is not an sst element")
	}
	st := &StringTable{root: root, index: make(map[string]int)}
	for _, si := range root.Children("si") {
		st.track(si)
	}
	return st, nil
}

func (st *StringTable) track(si *element.Node) {
	if len(si.Children("r")) == 0 {
		s := Text(si)
		if _, dup := st.index[s]; !dup {
			st.index[s] = len(st.items)
		}
	}
	st.items = append(st.items, si)
}

// Get returns the string at index idx.  It panics if idx is out of range,
// like a slice index.
func (st *StringTable) Get(idx int) string {
	return Text(st.items[idx])
}

// Len returns the number of shared strings.
func (st *StringTable) Len() int {
	return len(st.items)
}

// Item returns the si element at index idx, for callers that need the runs
// and their formatting.
func (st *StringTable) Item(idx int) *element.Node {
	return st.items[idx]
}

// Add returns the index of s, appending it to the table when no plain item
// with the same text exists.
func (st *StringTable) Add(s string) (int, error) {
	if i, ok := st.index[s]; ok {
		return i, nil
	}
	si := element.New(schema.StringItem)
	t, err := si.AddChild("t")
	if err != nil {
		return 0, err
	}
	if err := SetText(t, s); err != nil {
		return 0, err
	}
	if err := st.root.Append(si); err != nil {
		return 0, fmt.Errorf("stringtable: %w", err)
	}
	st.track(si)
	if st.root.Specified("uniqueCount") {
		if err := st.root.SetUint("uniqueCount", uint64(len(st.items))); err != nil {
			return 0, err
		}
	}
	return len(st.items) - 1, nil
}

// Ref records one more cell referencing the table.  It only updates the
// count attribute when the part carries one.
func (st *StringTable) Ref() error {
	if !st.root.Specified("count") {
		return nil
	}
	return st.root.SetUint("count", st.root.Uint("count")+1)
}

// Text returns the plain text of an si or is element: its t child, or the
// concatenated text of its rich-text runs.  Phonetic runs are not included.
func Text(n *element.Node) string {
	if t := n.Child("t"); t != nil {
		return t.Text()
	}
	var b strings.Builder
	for _, r := range n.Children("r") {
		if t := r.Child("t"); t != nil {
			b.WriteString(t.Text())
		}
	}
	return b.String()
}

// SetText sets the text of a t element, marking whitespace at either end as
// significant.
func SetText(t *element.Node, s string) error {
	if err := t.SetText(s); err != nil {
		return err
	}
	if s != strings.TrimSpace(s) {
		return t.SetStr("xml:space", "preserve")
	}
	t.Unset("xml:space")
	return nil
}
