// Package styles resolves the cell formats of a styles part to their number
// formats.  It sits below workbook and worksheet so both can use it without
// an import cycle.
package styles

import (
	"fmt"

	"github.com/TsubasaBE/go-xlsx/element"
	"github.com/TsubasaBE/go-xlsx/numfmt"
	"github.com/TsubasaBE/go-xlsx/schema"
)

// XFStyle holds the number format of one cell format (xf) of cellXfs.
type XFStyle struct {
	// NumFmtID is the numFmtId of the xf.  Values below 164 are built-in
	// formats; others are defined by a numFmt element of the same part.
	NumFmtID int
	// FormatStr is the format code of a numFmt element for NumFmtID, or
	// empty when the id is built-in and not overridden.
	FormatStr string
}

// Code returns the format code in effect for the style.
func (s XFStyle) Code() string { return numfmt.Resolve(s.NumFmtID, s.FormatStr) }

// StyleTable maps a cell's s attribute to its XFStyle.
type StyleTable []XFStyle

// New builds the table from the root of a styles part.
func New(root *element.Node) (StyleTable, error) {
	if root == nil || root.Type() != schema.StyleSheet {
		return nil, fmt.Errorf("styles: root is not a styleSheet")
	}
	codes := make(map[int]string)
	if nf := root.Child("numFmts"); nf != nil {
		for _, n := range nf.Children("numFmt") {
			codes[int(n.Uint("numFmtId"))] = n.Str("formatCode")
		}
	}
	var table StyleTable
	if xfs := root.Child("cellXfs"); xfs != nil {
		for _, xf := range xfs.Children("xf") {
			id := int(xf.Uint("numFmtId"))
			table = append(table, XFStyle{NumFmtID: id, FormatStr: codes[id]})
		}
	}
	return table, nil
}

// IsDate reports whether style s shows a date or a time.  It is false when
// s is out of range.
func (st StyleTable) IsDate(s int) bool {
	if s < 0 || s >= len(st) {
		return false
	}
	return numfmt.IsDateTime(st[s].NumFmtID, st[s].FormatStr)
}

// FmtStr returns the format code in effect for style s, or "General" when s
// is out of range.
func (st StyleTable) FmtStr(s int) string {
	if s < 0 || s >= len(st) {
		return "General"
	}
	return st[s].Code()
}

// Class returns the number-format class of style s.
func (st StyleTable) Class(s int) numfmt.Class {
	if s < 0 || s >= len(st) {
		return numfmt.General
	}
	return numfmt.Classify(st[s].NumFmtID, st[s].FormatStr)
}
