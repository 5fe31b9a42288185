// Package xlsx reads, edits and writes Office Open XML spreadsheet packages
// (.xlsx) without losing anything it does not understand.  No cgo is
// required.
//
// # Quick start
//
//	wb, err := xlsx.Open("Book1.xlsx")
//	if err != nil { ... }
//	defer wb.Close()
//
//	fmt.Println(wb.Sheets()) // ["Sheet1", "Sheet2"]
//
//	sheet, err := wb.Sheet(1)
//	if err != nil { ... }
//
//	for row := range sheet.Rows(false) {
//	    for _, cell := range row {
//	        fmt.Printf("(%d,%d) = %v\n", cell.R, cell.C, cell.V)
//	    }
//	}
//
// # Editing
//
// Edits go straight to the parsed part trees.  Saving renders only the parts
// that changed; every other entry is copied byte-for-byte:
//
//	if err := sheet.SetCell("B7", 42.5); err != nil { ... }
//	if err := wb.SaveAs("Book1-edited.xlsx"); err != nil { ... }
//
// # Packages
//
// [LoadPackage] and [SavePackage] expose the package layer directly for
// callers that work with parts and relationships rather than sheets.  Every
// part whose content type has a registered schema is parsed into an
// [element.Node] tree whose attributes keep track of whether they were
// specified or left at their schema default, so a load/save cycle writes
// back exactly the attributes that were read.
//
// # Dates
//
// Excel stores dates as floating-point serial numbers.  For the underlying
// [time.Time] value use [ConvertDateEx], passing wb.Date1904 so the correct
// date system is used:
//
//	if f, ok := cell.V.(float64); ok && wb.IsDateCell(cell.Style) {
//	    t, err := xlsx.ConvertDateEx(f, wb.Date1904)
//	}
//
// [ConvertDate] is a convenience wrapper for the common 1900 date system
// (Date1904 == false).
package xlsx

import (
	"fmt"
	"io"
	"time"

	"github.com/TsubasaBE/go-xlsx/element"
	"github.com/TsubasaBE/go-xlsx/numfmt"
	"github.com/TsubasaBE/go-xlsx/opc"
	"github.com/TsubasaBE/go-xlsx/workbook"
)

// Version is the current version of the go-xlsx library.
const Version = "0.1.0"

// Open opens the named .xlsx file.  The caller must call Close on the
// returned Workbook when done.
func Open(name string, opts ...opc.Option) (*workbook.Workbook, error) {
	return workbook.Open(name, opts...)
}

// OpenReader reads an .xlsx workbook from an arbitrary [io.ReaderAt].
// size must equal the total byte length of the data.
func OpenReader(r io.ReaderAt, size int64, opts ...opc.Option) (*workbook.Workbook, error) {
	return workbook.OpenReader(r, size, opts...)
}

// LoadPackage parses a complete package held in memory.
func LoadPackage(data []byte, opts ...opc.Option) (*opc.Package, error) {
	return opc.OpenBytes(data, opts...)
}

// SavePackage renders p as a zip archive.  It fails without changing p when
// any part cannot be written.
func SavePackage(p *opc.Package) ([]byte, error) {
	return p.Bytes()
}

// Root returns the parsed tree of the named part, or nil when the part is
// missing or kept raw.
func Root(p *opc.Package, partName string) *element.Node {
	pt, ok := p.Part(partName)
	if !ok {
		return nil
	}
	return pt.Root
}

// ConvertDate converts an Excel date serial number in the 1900 date system
// to a [time.Time] value in UTC.
//
// Lotus 1-2-3 incorrectly treated 1900 as a leap year, so Excel perpetuates
// the bug: serial 60 is treated as 1900-02-29 (which never existed).
//
//   - serial == 0  → midnight on 1900-01-01
//   - serial >= 61 → subtract one day to compensate for the phantom leap day
//   - 1 ≤ serial ≤ 60 → no compensation (serial 60 yields 1900-03-01)
func ConvertDate(date float64) (time.Time, error) {
	t, err := numfmt.ToTime(date, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("xlsx: ConvertDate: %w", err)
	}
	return t, nil
}

// ConvertDateEx converts an Excel date serial number to a [time.Time] value,
// respecting the workbook's date system.
//
// Pass wb.Date1904 as the date1904 argument. When date1904 is false the
// function is identical to [ConvertDate]. When date1904 is true serial 0 is
// 1904-01-01 and no phantom leap-day correction applies.
func ConvertDateEx(date float64, date1904 bool) (time.Time, error) {
	t, err := numfmt.ToTime(date, date1904)
	if err != nil {
		return time.Time{}, fmt.Errorf("xlsx: ConvertDateEx: %w", err)
	}
	return t, nil
}

// IsDateFormat reports whether a number-format ID (and optional custom format
// string) represents a date or datetime format.
//
// id is the numFmtId of the cell format.  For built-in formats (id < 164)
// formatStr is ignored; for custom formats it must be the formatCode from
// the numFmts element of the styles part.
//
// The built-in time-only IDs 18–21 (h:mm AM/PM, h:mm:ss AM/PM, h:mm,
// h:mm:ss) are excluded; those formats carry no calendar date component.
func IsDateFormat(id int, formatStr string) bool {
	return numfmt.IsDateFormat(id, formatStr)
}
