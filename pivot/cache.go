// Package pivot wraps the pivot cache definition, pivot cache records and
// pivot table parts with typed accessors.  Choice groups of the underlying
// elements surface as small sealed interfaces so callers switch on concrete
// types instead of inspecting element names.
//
// Every wrapper is a view: reads and edits go straight to the element tree
// held by the package, so a later Save writes whatever was changed here.
package pivot

import (
	"fmt"
	"time"

	"github.com/TsubasaBE/go-xlsx/codec"
	"github.com/TsubasaBE/go-xlsx/element"
	xlsxerrors "github.com/TsubasaBE/go-xlsx/errors"
	"github.com/TsubasaBE/go-xlsx/numfmt"
	"github.com/TsubasaBE/go-xlsx/schema"
)

// CacheDefinition is a view over a pivotCacheDefinition root.
type CacheDefinition struct {
	root *element.Node
}

// NewCacheDefinition returns the view rooted at root.
func NewCacheDefinition(root *element.Node) (*CacheDefinition, error) {
	if root == nil || root.Type() != schema.PivotCacheDefinition {
		return nil, fmt.Errorf("pivot: root is not a pivotCacheDefinition element")
	}
	return &CacheDefinition{root: root}, nil
}

// Node returns the underlying element.
func (c *CacheDefinition) Node() *element.Node { return c.root }

// RecordsID returns the relationship ID of the cache records part, or "".
func (c *CacheDefinition) RecordsID() string { return c.root.Str("r:id") }

// SaveData reports whether the records are saved with the cache.  Absent the
// attribute this is true.
func (c *CacheDefinition) SaveData() bool { return c.root.Bool("saveData") }

// SetSaveData sets saveData explicitly.
func (c *CacheDefinition) SetSaveData(b bool) error { return c.root.SetBool("saveData", b) }

// RefreshOnLoad reports whether the cache is refreshed when the file opens.
func (c *CacheDefinition) RefreshOnLoad() bool { return c.root.Bool("refreshOnLoad") }

// SetRefreshOnLoad sets refreshOnLoad explicitly.
func (c *CacheDefinition) SetRefreshOnLoad(b bool) error {
	return c.root.SetBool("refreshOnLoad", b)
}

// RecordCount returns the recordCount attribute and whether it is present.
func (c *CacheDefinition) RecordCount() (uint32, bool) {
	v, ok := c.root.Get("recordCount")
	return uint32(v.Uint()), ok
}

// RefreshedBy returns the name of the user who last refreshed the cache.
func (c *CacheDefinition) RefreshedBy() string { return c.root.Str("refreshedBy") }

// RefreshedAt returns the time of the last refresh.  refreshedDateIso wins
// over the serial refreshedDate; the second result is false when neither is
// present or the serial is out of range.
func (c *CacheDefinition) RefreshedAt(date1904 bool) (time.Time, bool) {
	if v, ok := c.root.Get("refreshedDateIso"); ok {
		return v.Time(), true
	}
	v, ok := c.root.Get("refreshedDate")
	if !ok {
		return time.Time{}, false
	}
	t, err := numfmt.ToTime(v.Float(), date1904)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SetRefreshedAt records a refresh by user at t, in both the serial and the
// ISO forms.
func (c *CacheDefinition) SetRefreshedAt(user string, t time.Time, date1904 bool) error {
	if user != "" {
		if err := c.root.SetStr("refreshedBy", user); err != nil {
			return err
		}
	}
	if err := c.root.SetFloat("refreshedDate", numfmt.FromTime(t, date1904)); err != nil {
		return err
	}
	return c.root.Set("refreshedDateIso", codec.NewDateTime(t))
}

// Fields returns the cache fields in order.
func (c *CacheDefinition) Fields() []*CacheField {
	cf := c.root.Child("cacheFields")
	if cf == nil {
		return nil
	}
	var out []*CacheField
	for _, n := range cf.Children("cacheField") {
		out = append(out, &CacheField{node: n})
	}
	return out
}

// Field returns the cache field called name, or nil.
func (c *CacheDefinition) Field(name string) *CacheField {
	for _, f := range c.Fields() {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

// ── cache source ──────────────────────────────────────────────────────────────

// CacheSourceKind is the data source of a pivot cache.  It is one of
// WorksheetSource, ConsolidationSource, ExternalSource, ScenarioSource or
// ExtensionSource.
type CacheSourceKind interface {
	sourceType() string
}

// WorksheetSource is a range, table or defined name in a worksheet.
type WorksheetSource struct {
	Ref   string
	Name  string
	Sheet string
	// RelID points at an external workbook holding the range.
	RelID string
}

// ConsolidationSource is a set of ranges consolidated into one cache.  Pages
// and RangeSets carry the raw markup of the corresponding elements.
type ConsolidationSource struct {
	AutoPage  bool
	Pages     []byte
	RangeSets []byte
}

// ExternalSource is a connection from the workbook's connections part.
type ExternalSource struct {
	ConnectionID uint32
}

// ScenarioSource is the scenario manager.
type ScenarioSource struct{}

// ExtensionSource is a source defined by an extension list, kept as raw
// markup.
type ExtensionSource struct {
	Type string
	Raw  []byte
}

func (WorksheetSource) sourceType() string     { return "worksheet" }
func (ConsolidationSource) sourceType() string { return "consolidation" }
func (ExternalSource) sourceType() string      { return "external" }
func (ScenarioSource) sourceType() string      { return "scenario" }
func (s ExtensionSource) sourceType() string {
	if s.Type == "" {
		return "external"
	}
	return s.Type
}

// Source returns the cache source.
func (c *CacheDefinition) Source() (CacheSourceKind, error) {
	cs := c.root.Child("cacheSource")
	if cs == nil {
		return nil, xlsxerrors.New(xlsxerrors.SchemaViolation, "pivotCacheDefinition has no cacheSource")
	}
	typ := cs.Str("type")
	alt := cs.Choice("source")
	if alt == nil {
		switch typ {
		case "external":
			return ExternalSource{ConnectionID: uint32(cs.Uint("connectionId"))}, nil
		case "scenario":
			return ScenarioSource{}, nil
		}
		return nil, xlsxerrors.New(xlsxerrors.SchemaViolation, "cacheSource of type %s has no source element", typ)
	}
	switch alt.Name().Local {
	case "worksheetSource":
		return WorksheetSource{
			Ref:   alt.Str("ref"),
			Name:  alt.Str("name"),
			Sheet: alt.Str("sheet"),
			RelID: alt.Str("r:id"),
		}, nil
	case "consolidation":
		s := ConsolidationSource{AutoPage: alt.Bool("autoPage")}
		if p := alt.Child("pages"); p != nil {
			s.Pages = p.Raw()
		}
		if r := alt.Child("rangeSets"); r != nil {
			s.RangeSets = r.Raw()
		}
		return s, nil
	}
	return ExtensionSource{Type: typ, Raw: alt.Raw()}, nil
}

// SetSource replaces the cache source and its type attribute.
func (c *CacheDefinition) SetSource(src CacheSourceKind) error {
	cs := c.root.Child("cacheSource")
	if cs == nil {
		var err error
		if cs, err = c.root.AddChild("cacheSource"); err != nil {
			return err
		}
	}
	alt, err := sourceNode(src)
	if err != nil {
		return err
	}
	if err := cs.SetStr("type", src.sourceType()); err != nil {
		return err
	}
	if s, ok := src.(ExternalSource); ok {
		if err := cs.SetUint("connectionId", uint64(s.ConnectionID)); err != nil {
			return err
		}
	} else {
		cs.Unset("connectionId")
	}
	return cs.SetChoice("source", alt)
}

func sourceNode(src CacheSourceKind) (*element.Node, error) {
	switch s := src.(type) {
	case WorksheetSource:
		n := element.New(schema.WorksheetSource)
		for _, a := range [...]struct{ name, v string }{
			{"ref", s.Ref}, {"name", s.Name}, {"sheet", s.Sheet}, {"r:id", s.RelID},
		} {
			if a.v == "" {
				continue
			}
			if err := n.SetStr(a.name, a.v); err != nil {
				return nil, err
			}
		}
		return n, nil
	case ConsolidationSource:
		if len(s.RangeSets) == 0 {
			return nil, fmt.Errorf("pivot: consolidation source needs rangeSets")
		}
		n := element.New(schema.Consolidation)
		if !s.AutoPage {
			if err := n.SetBool("autoPage", false); err != nil {
				return nil, err
			}
		}
		if len(s.Pages) > 0 {
			if err := n.Append(element.NewOpaque(childType(schema.Consolidation, "pages"), s.Pages)); err != nil {
				return nil, err
			}
		}
		if err := n.Append(element.NewOpaque(childType(schema.Consolidation, "rangeSets"), s.RangeSets)); err != nil {
			return nil, err
		}
		return n, nil
	case ExtensionSource:
		return element.NewOpaque(schema.ExtLst, s.Raw), nil
	case ExternalSource, ScenarioSource:
		return nil, nil
	}
	return nil, fmt.Errorf("pivot: unknown cache source %T", src)
}

// childType returns the descriptor of the child called name.
func childType(t *schema.ElementType, name string) *schema.ElementType {
	if _, slot := t.SlotByName(name); slot != nil {
		for _, alt := range slot.Types {
			if alt.Name == name {
				return alt
			}
		}
	}
	panic("pivot: " + t.Name + " has no child " + name)
}
