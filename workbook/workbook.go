// Package workbook opens an .xlsx package and gives access to its logical
// parts: worksheets, shared strings, styles and pivot tables.
package workbook

import (
	"fmt"
	"io"
	"strings"

	"github.com/TsubasaBE/go-xlsx/element"
	"github.com/TsubasaBE/go-xlsx/opc"
	"github.com/TsubasaBE/go-xlsx/pivot"
	"github.com/TsubasaBE/go-xlsx/schema"
	"github.com/TsubasaBE/go-xlsx/stringtable"
	"github.com/TsubasaBE/go-xlsx/styles"
	"github.com/TsubasaBE/go-xlsx/worksheet"
)

// Sheet visibility levels, as stored in the state attribute of a sheet
// element.  Use these constants with SheetVisibility.
const (
	// SheetVisible indicates the sheet tab is visible (state absent or
	// "visible").
	SheetVisible = 0
	// SheetHidden indicates the sheet is hidden but can be unhidden by the
	// user via Excel's "Unhide" dialog.
	SheetHidden = 1
	// SheetVeryHidden indicates the sheet is hidden and cannot be unhidden
	// through the Excel UI, only via VBA or programmatic access.
	SheetVeryHidden = 2
)

// maxSheetName is the longest sheet name Excel accepts.
const maxSheetName = 31

// sheetEntry holds the display name and the worksheet part of one sheet.
type sheetEntry struct {
	name       string
	part       string // e.g. "/xl/worksheets/sheet1.xml"
	visibility int    // SheetVisible, SheetHidden, or SheetVeryHidden
}

// Workbook represents an open .xlsx workbook.
type Workbook struct {
	pkg    *opc.Package
	part   string // workbook part name
	root   *element.Node
	sheets []sheetEntry
	views  map[string]*worksheet.Worksheet // keyed by part name

	stringTable *stringtable.StringTable
	// Styles is the cell format table parsed from the styles part.  It is
	// exported so that callers who need low-level access to format metadata
	// can inspect it directly; normal callers should use FormatCode.
	Styles styles.StyleTable
	// Date1904 is true when the workbook uses the 1904 date system (base
	// date 1904-01-01, serial 0 = 1904-01-01). Most workbooks use the
	// default 1900 system (Date1904 == false).
	Date1904 bool
}

// Open opens the named .xlsx file and parses its workbook metadata.  The
// file is read completely; Close only releases the in-memory package.
func Open(name string, opts ...opc.Option) (*Workbook, error) {
	pkg, err := opc.Open(name, opts...)
	if err != nil {
		return nil, fmt.Errorf("workbook: %w", err)
	}
	return fromOpened(pkg)
}

// OpenReader parses an .xlsx workbook from an in-memory ReaderAt.
// size must be the total byte size of the ZIP data.
func OpenReader(r io.ReaderAt, size int64, opts ...opc.Option) (*Workbook, error) {
	pkg, err := opc.OpenReader(r, size, opts...)
	if err != nil {
		return nil, fmt.Errorf("workbook: %w", err)
	}
	return fromOpened(pkg)
}

func fromOpened(pkg *opc.Package) (*Workbook, error) {
	wb, err := FromPackage(pkg)
	if err != nil {
		_ = pkg.Close()
		return nil, err
	}
	return wb, nil
}

// FromPackage builds a Workbook over an already open package.  The package
// stays owned by the caller until Close is called on the Workbook.
func FromPackage(pkg *opc.Package) (*Workbook, error) {
	pt, ok := pkg.RelatedPart("/", opc.RelOfficeDocument)
	if !ok {
		return nil, fmt.Errorf("workbook: package has no office document")
	}
	if pt.Root == nil || pt.Root.Type() != schema.Workbook {
		return nil, fmt.Errorf("workbook: %s is not a workbook part", pt.Name)
	}
	wb := &Workbook{
		pkg:   pkg,
		part:  pt.Name,
		root:  pt.Root,
		views: make(map[string]*worksheet.Worksheet),
	}
	if err := wb.parse(); err != nil {
		return nil, err
	}
	return wb, nil
}

// Package returns the underlying package.
func (wb *Workbook) Package() *opc.Package { return wb.pkg }

// Sheets returns the display names of all worksheets in order.
func (wb *Workbook) Sheets() []string {
	names := make([]string, len(wb.sheets))
	for i, s := range wb.sheets {
		names[i] = s.name
	}
	return names
}

// Sheet returns the worksheet at the given 1-based index.
// Index 1 refers to the first sheet. An out-of-range index returns a non-nil
// error describing the valid range.
func (wb *Workbook) Sheet(idx int) (*worksheet.Worksheet, error) {
	if idx < 1 || idx > len(wb.sheets) {
		return nil, fmt.Errorf("workbook: sheet index %d out of range [1, %d]", idx, len(wb.sheets))
	}
	return wb.openSheet(wb.sheets[idx-1])
}

// SheetByName returns the worksheet with the given name (case-insensitive).
// It returns a non-nil error if no sheet with that name exists.
func (wb *Workbook) SheetByName(name string) (*worksheet.Worksheet, error) {
	if s, ok := wb.entry(name); ok {
		return wb.openSheet(s)
	}
	return nil, fmt.Errorf("workbook: sheet %q not found", name)
}

// SheetVisible reports whether the named sheet is visible (case-insensitive).
// It returns false for hidden sheets, very-hidden sheets, and unknown names.
// To distinguish hidden from very-hidden, use SheetVisibility.
func (wb *Workbook) SheetVisible(name string) bool {
	return wb.SheetVisibility(name) == SheetVisible
}

// SheetVisibility returns the visibility level of the named sheet
// (case-insensitive): SheetVisible (0), SheetHidden (1), or SheetVeryHidden (2).
// It returns -1 if no sheet with that name exists.
func (wb *Workbook) SheetVisibility(name string) int {
	if s, ok := wb.entry(name); ok {
		return s.visibility
	}
	return -1
}

func (wb *Workbook) entry(name string) (sheetEntry, bool) {
	for _, s := range wb.sheets {
		if strings.EqualFold(s.name, name) {
			return s, true
		}
	}
	return sheetEntry{}, false
}

// SharedStrings returns the shared string table, or nil when the workbook
// has none.
func (wb *Workbook) SharedStrings() *stringtable.StringTable { return wb.stringTable }

// FormatCode returns the number format code of the cell format at index
// style, "General" when style is out of range.
func (wb *Workbook) FormatCode(style int) string { return wb.Styles.FmtStr(style) }

// IsDateCell reports whether the cell format at index style displays its
// number as a date or time.
func (wb *Workbook) IsDateCell(style int) bool { return wb.Styles.IsDate(style) }

// DefinedName is one workbook-level or sheet-level name.
type DefinedName struct {
	Name    string
	Formula string
	// Sheet is the 0-based index of the sheet the name is local to, or -1.
	Sheet  int
	Hidden bool
}

// DefinedNames returns the defined names in document order.
func (wb *Workbook) DefinedNames() []DefinedName {
	dn := wb.root.Child("definedNames")
	if dn == nil {
		return nil
	}
	var out []DefinedName
	for _, n := range dn.Children("definedName") {
		d := DefinedName{Name: n.Str("name"), Formula: n.Text(), Sheet: -1, Hidden: n.Bool("hidden")}
		if v, ok := n.Get("localSheetId"); ok {
			d.Sheet = int(v.Uint())
		}
		out = append(out, d)
	}
	return out
}

// Save writes the package to w.
func (wb *Workbook) Save(w io.Writer) error { return wb.pkg.Save(w) }

// SaveAs writes the package to the named file, replacing it atomically.
func (wb *Workbook) SaveAs(name string) error { return wb.pkg.SaveAs(name) }

// Bytes returns the saved package.
func (wb *Workbook) Bytes() ([]byte, error) { return wb.pkg.Bytes() }

// Close releases the package.  Worksheets obtained from the workbook must
// not be used afterwards.
func (wb *Workbook) Close() error { return wb.pkg.Close() }

// ── sheets ───────────────────────────────────────────────────────────────────

// AddSheet appends an empty worksheet called name and returns it.
func (wb *Workbook) AddSheet(name string) (*worksheet.Worksheet, error) {
	if err := wb.checkSheetName(name); err != nil {
		return nil, err
	}
	sheets := wb.root.Child("sheets")
	if sheets == nil {
		return nil, fmt.Errorf("workbook: %s has no sheets element", wb.part)
	}

	partName := wb.nextSheetPart()
	root := element.New(schema.Worksheet)
	if _, err := root.AddChild("sheetData"); err != nil {
		return nil, err
	}
	if _, err := wb.pkg.AddPart(partName, schema.CTWorksheet, root); err != nil {
		return nil, fmt.Errorf("workbook: add sheet %q: %w", name, err)
	}
	id, err := wb.pkg.AddRelationship(wb.part, opc.RelWorksheet, partName, false)
	if err != nil {
		_ = wb.pkg.RemovePart(partName)
		return nil, fmt.Errorf("workbook: add sheet %q: %w", name, err)
	}

	var sheetID uint64
	for _, s := range sheets.Children("sheet") {
		sheetID = max(sheetID, s.Uint("sheetId"))
	}
	el := element.New(schema.Sheet)
	err = setAll(el, "name", name, "r:id", id)
	if err == nil {
		err = el.SetUint("sheetId", sheetID+1)
	}
	if err == nil {
		err = sheets.Append(el)
	}
	if err != nil {
		_ = wb.pkg.RemovePart(partName)
		return nil, fmt.Errorf("workbook: add sheet %q: %w", name, err)
	}

	entry := sheetEntry{name: name, part: partName}
	wb.sheets = append(wb.sheets, entry)
	return wb.openSheet(entry)
}

// checkSheetName applies Excel's sheet naming rules.
func (wb *Workbook) checkSheetName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("workbook: sheet name is empty")
	case len([]rune(name)) > maxSheetName:
		return fmt.Errorf("workbook: sheet name %q is longer than %d characters", name, maxSheetName)
	case strings.ContainsAny(name, `:\/?*[]`):
		return fmt.Errorf("workbook: sheet name %q contains one of : \\ / ? * [ ]", name)
	case strings.HasPrefix(name, "'") || strings.HasSuffix(name, "'"):
		return fmt.Errorf("workbook: sheet name %q starts or ends with an apostrophe", name)
	}
	if _, dup := wb.entry(name); dup {
		return fmt.Errorf("workbook: sheet %q already exists", name)
	}
	return nil
}

func (wb *Workbook) nextSheetPart() string {
	for n := len(wb.sheets) + 1; ; n++ {
		name := fmt.Sprintf("/xl/worksheets/sheet%d.xml", n)
		if _, taken := wb.pkg.Part(name); !taken {
			return name
		}
	}
}

func setAll(n *element.Node, kv ...string) error {
	for i := 0; i+1 < len(kv); i += 2 {
		if err := n.SetStr(kv[i], kv[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// ── pivot tables ─────────────────────────────────────────────────────────────

// PivotCache is one pivot cache registered in the workbook.
type PivotCache struct {
	// ID is the cacheId pivot tables refer to.
	ID   uint32
	Part string
	// Definition is the cache definition.
	Definition *pivot.CacheDefinition
	// Records is nil when the records are not saved with the workbook.
	Records *pivot.Records
}

// PivotCaches returns the pivot caches listed in the workbook.
func (wb *Workbook) PivotCaches() ([]PivotCache, error) {
	pcs := wb.root.Child("pivotCaches")
	if pcs == nil {
		return nil, nil
	}
	var out []PivotCache
	for _, n := range pcs.Children("pivotCache") {
		pt, err := wb.pkg.Resolve(wb.part, n.Str("r:id"))
		if err != nil {
			return nil, fmt.Errorf("workbook: pivot cache %d: %w", n.Uint("cacheId"), err)
		}
		def, err := pivot.NewCacheDefinition(pt.Root)
		if err != nil {
			return nil, fmt.Errorf("workbook: %s: %w", pt.Name, err)
		}
		pc := PivotCache{ID: uint32(n.Uint("cacheId")), Part: pt.Name, Definition: def}
		if id := def.RecordsID(); id != "" {
			rp, err := wb.pkg.Resolve(pt.Name, id)
			if err != nil {
				return nil, fmt.Errorf("workbook: %w", err)
			}
			if pc.Records, err = pivot.NewRecords(rp.Root); err != nil {
				return nil, fmt.Errorf("workbook: %s: %w", rp.Name, err)
			}
		}
		out = append(out, pc)
	}
	return out, nil
}

// PivotTables returns the pivot tables placed on the named sheet.
func (wb *Workbook) PivotTables(sheet string) ([]*pivot.TableDefinition, error) {
	s, ok := wb.entry(sheet)
	if !ok {
		return nil, fmt.Errorf("workbook: sheet %q not found", sheet)
	}
	var out []*pivot.TableDefinition
	for _, pt := range wb.pkg.RelatedParts(s.part, opc.RelPivotTable) {
		td, err := pivot.NewTableDefinition(pt.Root)
		if err != nil {
			return nil, fmt.Errorf("workbook: %s: %w", pt.Name, err)
		}
		out = append(out, td)
	}
	return out, nil
}

// ── internal ─────────────────────────────────────────────────────────────────

// parse reads the sheet list, the shared strings (if present), and the
// styles.
func (wb *Workbook) parse() error {
	if err := wb.parseWorkbook(); err != nil {
		return err
	}
	if err := wb.parseSharedStrings(); err != nil {
		return err
	}
	wb.parseStyles()
	return nil
}

// parseWorkbook builds the sheet list from the sheets element, resolving
// each r:id through the workbook relationships.
func (wb *Workbook) parseWorkbook() error {
	if pr := wb.root.Child("workbookPr"); pr != nil {
		wb.Date1904 = pr.Bool("date1904")
	}
	sheets := wb.root.Child("sheets")
	if sheets == nil {
		return nil
	}
	for _, n := range sheets.Children("sheet") {
		name := n.Str("name")
		pt, err := wb.pkg.Resolve(wb.part, n.Str("r:id"))
		if err != nil {
			return fmt.Errorf("workbook: sheet %q: %w", name, err)
		}
		wb.sheets = append(wb.sheets, sheetEntry{
			name:       name,
			part:       pt.Name,
			visibility: visibility(n.Str("state")),
		})
	}
	return nil
}

func visibility(state string) int {
	switch state {
	case "hidden":
		return SheetHidden
	case "veryHidden":
		return SheetVeryHidden
	}
	return SheetVisible
}

// parseSharedStrings loads the shared strings part if it exists.
func (wb *Workbook) parseSharedStrings() error {
	pt, ok := wb.pkg.RelatedPart(wb.part, opc.RelSharedStrings)
	if !ok {
		// Part is optional; cells then carry inline strings.
		return nil
	}
	st, err := stringtable.New(pt.Root)
	if err != nil {
		return fmt.Errorf("workbook: shared strings: %w", err)
	}
	wb.stringTable = st
	return nil
}

// parseStyles loads the cell format table.  A missing or unreadable styles
// part leaves Styles empty so that the workbook still opens; FormatCode
// then reports "General" for every cell.
func (wb *Workbook) parseStyles() {
	pt, ok := wb.pkg.RelatedPart(wb.part, opc.RelStyles)
	if !ok {
		return
	}
	st, err := styles.New(pt.Root)
	if err != nil {
		return
	}
	wb.Styles = st
}

// openSheet returns the view of the given sheet, building it on first use so
// that edits made through one view are seen by the next caller.
func (wb *Workbook) openSheet(entry sheetEntry) (*worksheet.Worksheet, error) {
	if ws, ok := wb.views[entry.part]; ok {
		return ws, nil
	}
	ws, err := worksheet.New(entry.name, wb.pkg, entry.part, wb.stringTable, wb.Styles, wb.Date1904)
	if err != nil {
		return nil, fmt.Errorf("workbook: open sheet %q: %w", entry.name, err)
	}
	wb.views[entry.part] = ws
	return ws, nil
}
