package pivot

import (
	"fmt"
	"iter"

	"github.com/TsubasaBE/go-xlsx/element"
	"github.com/TsubasaBE/go-xlsx/schema"
)

// Records is a view over a pivotCacheRecords root.  Each record holds one
// value per cache field, in field order.
type Records struct {
	root *element.Node
}

// NewRecords returns the view rooted at root.
func NewRecords(root *element.Node) (*Records, error) {
	if root == nil || root.Type() != schema.PivotCacheRecords {
		return nil, fmt.Errorf("pivot: root is not a pivotCacheRecords element")
	}
	return &Records{root: root}, nil
}

// Node returns the underlying element.
func (r *Records) Node() *element.Node { return r.root }

// Len returns the number of records.
func (r *Records) Len() int { return len(r.root.Children("r")) }

// Record returns the values of the i-th record.  It panics if i is out of
// range.
func (r *Records) Record(i int) []Item {
	return values(r.root.Children("r")[i])
}

// All iterates over the records in order.
func (r *Records) All() iter.Seq2[int, []Item] {
	return func(yield func(int, []Item) bool) {
		for i, rec := range r.root.Children("r") {
			if !yield(i, values(rec)) {
				return
			}
		}
	}
}

// Append adds a record and keeps count in step.
func (r *Records) Append(vals []Item) error {
	rec := element.New(schema.Record)
	for _, v := range vals {
		n, err := itemNode(v)
		if err != nil {
			return err
		}
		if err := rec.Append(n); err != nil {
			return err
		}
	}
	if err := r.root.Append(rec); err != nil {
		return err
	}
	return r.root.SetUint("count", uint64(r.Len()))
}

func values(rec *element.Node) []Item {
	var out []Item
	for _, n := range rec.Children("values") {
		out = append(out, itemOf(n))
	}
	return out
}
