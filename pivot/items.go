package pivot

import (
	"fmt"
	"math"
	"time"

	"github.com/TsubasaBE/go-xlsx/codec"
	"github.com/TsubasaBE/go-xlsx/element"
	"github.com/TsubasaBE/go-xlsx/schema"
)

// Item is one cached value.  It is one of MissingItem, NumberItem, BoolItem,
// ErrorItem, StringItem, DateItem or, inside records only, IndexItem.
type Item interface {
	itemType() *schema.ElementType
}

type (
	// MissingItem is an empty value.
	MissingItem struct{}
	// NumberItem is a numeric value.
	NumberItem struct{ V float64 }
	// BoolItem is a boolean value.
	BoolItem struct{ V bool }
	// ErrorItem is an error value such as "#N/A".
	ErrorItem struct{ V string }
	// StringItem is a text value.
	StringItem struct{ V string }
	// DateItem is a date-time value.
	DateItem struct{ V time.Time }
	// IndexItem refers to a shared item of the field by position.
	IndexItem struct{ V uint32 }
)

func (MissingItem) itemType() *schema.ElementType { return schema.ItemMissing }
func (NumberItem) itemType() *schema.ElementType  { return schema.ItemNumber }
func (BoolItem) itemType() *schema.ElementType    { return schema.ItemBoolean }
func (ErrorItem) itemType() *schema.ElementType   { return schema.ItemError }
func (StringItem) itemType() *schema.ElementType  { return schema.ItemString }
func (DateItem) itemType() *schema.ElementType    { return schema.ItemDate }
func (IndexItem) itemType() *schema.ElementType   { return schema.ItemIndex }

// itemOf converts an item element to its value.
func itemOf(n *element.Node) Item {
	switch n.Type() {
	case schema.ItemNumber:
		return NumberItem{V: n.Float("v")}
	case schema.ItemBoolean:
		return BoolItem{V: n.Bool("v")}
	case schema.ItemError:
		return ErrorItem{V: n.Str("v")}
	case schema.ItemString:
		return StringItem{V: n.Str("v")}
	case schema.ItemDate:
		return DateItem{V: n.Time("v")}
	case schema.ItemIndex:
		return IndexItem{V: uint32(n.Uint("v"))}
	}
	return MissingItem{}
}

// itemNode builds the element for it.
func itemNode(it Item) (*element.Node, error) {
	if it == nil {
		return nil, fmt.Errorf("pivot: nil item")
	}
	n := element.New(it.itemType())
	var err error
	switch v := it.(type) {
	case NumberItem:
		err = n.SetFloat("v", v.V)
	case BoolItem:
		err = n.SetBool("v", v.V)
	case ErrorItem:
		err = n.SetStr("v", v.V)
	case StringItem:
		err = n.SetStr("v", v.V)
	case DateItem:
		err = n.Set("v", codec.NewDateTime(v.V))
	case IndexItem:
		err = n.SetUint("v", uint64(v.V))
	}
	return n, err
}

// ── cache fields ──────────────────────────────────────────────────────────────

// CacheField is a view over one cacheField element.
type CacheField struct {
	node *element.Node
}

// Node returns the underlying element.
func (f *CacheField) Node() *element.Node { return f.node }

// Name returns the field name.
func (f *CacheField) Name() string { return f.node.Str("name") }

// NumFmtID returns the number format of the field and whether one is set.
func (f *CacheField) NumFmtID() (uint32, bool) {
	v, ok := f.node.Get("numFmtId")
	return uint32(v.Uint()), ok
}

// Items returns the shared items of the field in order.  Fields whose values
// are only kept in the records have none.
func (f *CacheField) Items() []Item {
	si := f.node.Child("sharedItems")
	if si == nil {
		return nil
	}
	var out []Item
	for _, n := range si.Children("items") {
		out = append(out, itemOf(n))
	}
	return out
}

// SetItems replaces the shared items of the field and updates count and the
// contains*, min and max attributes to describe them.  With no items the
// values live in the records only and those attributes are left alone.
func (f *CacheField) SetItems(items []Item) error {
	si := f.node.Child("sharedItems")
	if si == nil {
		var err error
		if si, err = f.node.AddChild("sharedItems"); err != nil {
			return err
		}
	}
	nodes := make([]*element.Node, 0, len(items))
	for _, it := range items {
		if _, ok := it.(IndexItem); ok {
			return fmt.Errorf("pivot: field %s: index items are only valid in records", f.Name())
		}
		n, err := itemNode(it)
		if err != nil {
			return err
		}
		nodes = append(nodes, n)
	}
	if err := si.SetChoice("items", nil); err != nil {
		return err
	}
	for _, n := range nodes {
		if err := si.Append(n); err != nil {
			return err
		}
	}
	if len(items) == 0 {
		si.Unset("count")
		return nil
	}
	if err := summarize(si, items); err != nil {
		return err
	}
	return si.SetUint("count", uint64(len(items)))
}

// summarize sets the sharedItems flags and bounds for items.  Flags equal
// to their default are left unspecified.
func summarize(si *element.Node, items []Item) error {
	var (
		blank, str, date, nonDate bool
		number, integer           = false, true
		kinds                     = make(map[string]bool)
		minV, maxV                float64
		minD, maxD                time.Time
	)
	for _, it := range items {
		switch v := it.(type) {
		case MissingItem:
			blank = true
		case StringItem:
			str, nonDate = true, true
			kinds["s"] = true
		case NumberItem:
			if !number || v.V < minV {
				minV = v.V
			}
			if !number || v.V > maxV {
				maxV = v.V
			}
			number, nonDate = true, true
			integer = integer && v.V == math.Trunc(v.V)
			kinds["n"] = true
		case DateItem:
			if !date || v.V.Before(minD) {
				minD = v.V
			}
			if !date || v.V.After(maxD) {
				maxD = v.V
			}
			date = true
			kinds["d"] = true
		case BoolItem:
			nonDate = true
			kinds["b"] = true
		case ErrorItem:
			nonDate = true
			kinds["e"] = true
		}
	}

	for _, fl := range [...]struct {
		name string
		v    bool
	}{
		{"containsSemiMixedTypes", str || blank},
		{"containsNonDate", nonDate},
		{"containsDate", date},
		{"containsString", str},
		{"containsBlank", blank},
		{"containsMixedTypes", len(kinds) > 1},
		{"containsNumber", number},
		{"containsInteger", number && integer},
	} {
		if err := setFlag(si, fl.name, fl.v); err != nil {
			return err
		}
	}

	si.Unset("minValue")
	si.Unset("maxValue")
	si.Unset("minDate")
	si.Unset("maxDate")
	if number {
		if err := si.SetFloat("minValue", minV); err != nil {
			return err
		}
		if err := si.SetFloat("maxValue", maxV); err != nil {
			return err
		}
	}
	if date {
		if err := si.Set("minDate", codec.NewDateTime(minD)); err != nil {
			return err
		}
		if err := si.Set("maxDate", codec.NewDateTime(maxD)); err != nil {
			return err
		}
	}
	return nil
}

func setFlag(n *element.Node, name string, v bool) error {
	n.Unset(name)
	if d, ok := n.Effective(name); ok && d.Bool() == v {
		return nil
	}
	return n.SetBool(name, v)
}
