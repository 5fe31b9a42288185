package schema

import "github.com/TsubasaBE/go-xlsx/codec"

// Content types of the SpreadsheetML parts with a typed model.
const (
	CTWorkbook             = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"
	CTWorkbookMacro        = "application/vnd.ms-excel.sheet.macroEnabled.main+xml"
	CTWorkbookTemplate     = "application/vnd.openxmlformats-officedocument.spreadsheetml.template.main+xml"
	CTWorksheet            = "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"
	CTSharedStrings        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml"
	CTStyles               = "application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"
	CTPivotCacheDefinition = "application/vnd.openxmlformats-officedocument.spreadsheetml.pivotCacheDefinition+xml"
	CTPivotCacheRecords    = "application/vnd.openxmlformats-officedocument.spreadsheetml.pivotCacheRecords+xml"
	CTPivotTable           = "application/vnd.openxmlformats-officedocument.spreadsheetml.pivotTable+xml"
)

// Simple types shared across parts.
var (
	stSpace      = codec.Enum("ST_Space", "default", "preserve")
	stVisibility = codec.Enum("ST_Visibility", "visible", "hidden", "veryHidden")
	stCellType   = codec.Enum("ST_CellType", "b", "n", "e", "s", "str", "inlineStr")
)

// ExtLst is the forward-compatibility extension list.  It is opaque
// everywhere it appears and survives a load/save cycle byte-for-byte.
var ExtLst = Opaque(NSMain, "extLst")

func sml(name string, opts ...Option) *ElementType { return Define(NSMain, name, opts...) }

func smlOpaque(name string) *ElementType { return Opaque(NSMain, name) }

var defaultRegistry = func() *Registry {
	r := NewRegistry()
	r.Register(CTWorkbook, Workbook)
	r.Register(CTWorkbookMacro, Workbook)
	r.Register(CTWorkbookTemplate, Workbook)
	r.Register(CTWorksheet, Worksheet)
	r.Register(CTSharedStrings, SST)
	r.Register(CTStyles, StyleSheet)
	r.Register(CTPivotCacheDefinition, PivotCacheDefinition)
	r.Register(CTPivotCacheRecords, PivotCacheRecords)
	r.Register(CTPivotTable, PivotTableDefinition)
	return r
}()

// DefaultRegistry returns the registry of SpreadsheetML parts modelled by
// this package.  The returned registry is shared and must not be modified;
// build a new one with NewRegistry to extend it.
func DefaultRegistry() *Registry { return defaultRegistry }
