package pivot

import (
	"errors"
	"fmt"

	"github.com/TsubasaBE/go-xlsx/codec"
	"github.com/TsubasaBE/go-xlsx/element"
	xlsxerrors "github.com/TsubasaBE/go-xlsx/errors"
	"github.com/TsubasaBE/go-xlsx/schema"
)

// TableDefinition is a view over a pivotTableDefinition root.
type TableDefinition struct {
	root *element.Node
}

// NewTableDefinition returns the view rooted at root.
func NewTableDefinition(root *element.Node) (*TableDefinition, error) {
	if root == nil || root.Type() != schema.PivotTableDefinition {
		return nil, fmt.Errorf("pivot: root is not a pivotTableDefinition element")
	}
	return &TableDefinition{root: root}, nil
}

// Node returns the underlying element.
func (t *TableDefinition) Node() *element.Node { return t.root }

// Name returns the pivot table name.
func (t *TableDefinition) Name() string { return t.root.Str("name") }

// SetName renames the pivot table.
func (t *TableDefinition) SetName(name string) error { return t.root.SetStr("name", name) }

// CacheID returns the workbook-level ID of the pivot cache the table reads.
func (t *TableDefinition) CacheID() uint32 { return uint32(t.root.Uint("cacheId")) }

// DataCaption returns the caption of the values area.
func (t *TableDefinition) DataCaption() string { return t.root.Str("dataCaption") }

// Location returns where the table sits on its sheet.
func (t *TableDefinition) Location() Location {
	n := t.root.Child("location")
	if n == nil {
		return Location{}
	}
	return Location{
		Ref:            n.Str("ref"),
		FirstHeaderRow: uint32(n.Uint("firstHeaderRow")),
		FirstDataRow:   uint32(n.Uint("firstDataRow")),
		FirstDataCol:   uint32(n.Uint("firstDataCol")),
		RowPageCount:   uint32(n.Uint("rowPageCount")),
		ColPageCount:   uint32(n.Uint("colPageCount")),
	}
}

// SetLocation replaces the location element.
func (t *TableDefinition) SetLocation(l Location) error {
	n, err := l.Node()
	if err != nil {
		return err
	}
	if old := t.root.Child("location"); old != nil {
		t.root.Remove(old)
	}
	return t.root.Append(n)
}

// DataField is one entry of the values area.
type DataField struct {
	Name     string
	Field    uint32
	Subtotal string
}

// DataFields returns the fields summarized in the values area.
func (t *TableDefinition) DataFields() []DataField {
	df := t.root.Child("dataFields")
	if df == nil {
		return nil
	}
	var out []DataField
	for _, n := range df.Children("dataField") {
		out = append(out, DataField{
			Name:     n.Str("name"),
			Field:    uint32(n.Uint("fld")),
			Subtotal: n.Str("subtotal"),
		})
	}
	return out
}

// RowFields returns the cache field indices placed on rows.  The values
// pseudo-field is -2.
func (t *TableDefinition) RowFields() []int { return fieldIndices(t.root.Child("rowFields")) }

// ColFields returns the cache field indices placed on columns.
func (t *TableDefinition) ColFields() []int { return fieldIndices(t.root.Child("colFields")) }

func fieldIndices(n *element.Node) []int {
	if n == nil {
		return nil
	}
	var out []int
	for _, f := range n.Children("field") {
		out = append(out, int(f.Int("x")))
	}
	return out
}

// Filters returns the table's filters in order.
func (t *TableDefinition) Filters() []Filter {
	fs := t.root.Child("filters")
	if fs == nil {
		return nil
	}
	var out []Filter
	for _, n := range fs.Children("filter") {
		out = append(out, filterOf(n))
	}
	return out
}

// AddFilter appends a filter.  A zero f.ID is replaced by one more than the
// largest ID in use; the ID actually stored is returned.
func (t *TableDefinition) AddFilter(f Filter) (uint32, error) {
	fs := t.root.Child("filters")
	if fs == nil {
		var err error
		if fs, err = t.root.AddChild("filters"); err != nil {
			return 0, err
		}
	}
	if f.ID == 0 {
		for _, old := range fs.Children("filter") {
			f.ID = max(f.ID, uint32(old.Uint("id")))
		}
		f.ID++
	}
	n, err := f.Node()
	if err != nil {
		return 0, err
	}
	if err := fs.Append(n); err != nil {
		return 0, err
	}
	return f.ID, fs.SetUint("count", uint64(len(fs.Children("filter"))))
}

// ── location ──────────────────────────────────────────────────────────────────

// Location is the placement of a pivot table.  Rows and columns are offsets
// from the top-left cell of Ref.
type Location struct {
	Ref            string
	FirstHeaderRow uint32
	FirstDataRow   uint32
	FirstDataCol   uint32
	RowPageCount   uint32
	ColPageCount   uint32
}

// NewLocation returns a location element with the required attributes set.
// The page counts stay at their default and are not written.
func NewLocation(ref string, firstHeaderRow, firstDataRow, firstDataCol uint32) (*element.Node, error) {
	n := element.New(schema.Location)
	if err := n.SetStr("ref", ref); err != nil {
		return nil, err
	}
	for _, a := range [...]struct {
		name string
		v    uint32
	}{
		{"firstHeaderRow", firstHeaderRow},
		{"firstDataRow", firstDataRow},
		{"firstDataCol", firstDataCol},
	} {
		if err := n.SetUint(a.name, uint64(a.v)); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// Node builds the location element for l.  Zero page counts are left
// unspecified.
func (l Location) Node() (*element.Node, error) {
	n, err := NewLocation(l.Ref, l.FirstHeaderRow, l.FirstDataRow, l.FirstDataCol)
	if err != nil {
		return nil, err
	}
	if l.RowPageCount != 0 {
		if err := n.SetUint("rowPageCount", uint64(l.RowPageCount)); err != nil {
			return nil, err
		}
	}
	if l.ColPageCount != 0 {
		if err := n.SetUint("colPageCount", uint64(l.ColPageCount)); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// ── filters ───────────────────────────────────────────────────────────────────

// FilterType is the kind of a pivot filter, e.g. "captionContains".
type FilterType string

// Common filter types.  ParseFilterType accepts the full set.
const (
	FilterCount              FilterType = "count"
	FilterPercent            FilterType = "percent"
	FilterSum                FilterType = "sum"
	FilterCaptionEqual       FilterType = "captionEqual"
	FilterCaptionBeginsWith  FilterType = "captionBeginsWith"
	FilterCaptionContains    FilterType = "captionContains"
	FilterCaptionNotContains FilterType = "captionNotContains"
	FilterCaptionBetween     FilterType = "captionBetween"
	FilterValueGreaterThan   FilterType = "valueGreaterThan"
	FilterValueBetween       FilterType = "valueBetween"
	FilterDateBetween        FilterType = "dateBetween"
	FilterToday              FilterType = "today"
	FilterThisMonth          FilterType = "thisMonth"
	FilterYearToDate         FilterType = "yearToDate"
)

// ParseFilterType checks s against the filter types Excel knows.  The
// error is a Decode *xlsxerrors.Error naming the type attribute.
func ParseFilterType(s string) (FilterType, error) {
	v, err := codec.Decode(schema.StPivotFilterType, s)
	if err != nil {
		var e *xlsxerrors.Error
		if errors.As(err, &e) {
			e.Attr = "type"
			return "", e.At("/filter")
		}
		return "", err
	}
	return FilterType(v.Str()), nil
}

// defaultAutoFilter is the criteria written when a filter carries none.  The
// pivot filter itself holds the condition; Excel still requires the element.
const defaultAutoFilter = `<autoFilter ref="A1"><filterColumn colId="0"><customFilters><customFilter val="*"/></customFilters></filterColumn></autoFilter>`

// Filter is one pivot table filter.
type Filter struct {
	// Field is the index of the filtered cache field.
	Field     uint32
	Type      FilterType
	ID        uint32
	EvalOrder int32
	Name      string
	// Value1 and Value2 are the operands of caption and date filters.
	Value1 string
	Value2 string
	// AutoFilter is the raw autoFilter markup; empty selects a default.
	AutoFilter []byte
}

// NewFilter returns a filter element for field with the required attributes
// set and a default autoFilter child.
func NewFilter(field uint32, typ FilterType, id uint32) (*element.Node, error) {
	return Filter{Field: field, Type: typ, ID: id}.Node()
}

// Node builds the filter element for f.
func (f Filter) Node() (*element.Node, error) {
	typ, err := ParseFilterType(string(f.Type))
	if err != nil {
		return nil, err
	}
	n := element.New(schema.PivotFilter)
	if err := n.SetUint("fld", uint64(f.Field)); err != nil {
		return nil, err
	}
	if err := n.SetStr("type", string(typ)); err != nil {
		return nil, err
	}
	if f.EvalOrder != 0 {
		if err := n.SetInt("evalOrder", int64(f.EvalOrder)); err != nil {
			return nil, err
		}
	}
	if err := n.SetUint("id", uint64(f.ID)); err != nil {
		return nil, err
	}
	for _, a := range [...]struct{ name, v string }{
		{"name", f.Name}, {"stringValue1", f.Value1}, {"stringValue2", f.Value2},
	} {
		if a.v == "" {
			continue
		}
		if err := n.SetStr(a.name, a.v); err != nil {
			return nil, err
		}
	}
	raw := f.AutoFilter
	if len(raw) == 0 {
		raw = []byte(defaultAutoFilter)
	}
	if err := n.Append(element.NewOpaque(childType(schema.PivotFilter, "autoFilter"), raw)); err != nil {
		return nil, err
	}
	return n, nil
}

func filterOf(n *element.Node) Filter {
	f := Filter{
		Field:     uint32(n.Uint("fld")),
		Type:      FilterType(n.Str("type")),
		ID:        uint32(n.Uint("id")),
		EvalOrder: int32(n.Int("evalOrder")),
		Name:      n.Str("name"),
		Value1:    n.Str("stringValue1"),
		Value2:    n.Str("stringValue2"),
	}
	if af := n.Child("autoFilter"); af != nil {
		f.AutoFilter = af.Raw()
	}
	return f
}
