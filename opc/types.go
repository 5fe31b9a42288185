package opc

import "strings"

// Relationship types used by SpreadsheetML packages.
const (
	RelOfficeDocument       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	RelCoreProperties       = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	RelExtendedProperties   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	RelWorksheet            = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet"
	RelSharedStrings        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings"
	RelStyles               = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	RelTheme                = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	RelCalcChain            = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/calcChain"
	RelPivotCacheDefinition = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/pivotCacheDefinition"
	RelPivotCacheRecords    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/pivotCacheRecords"
	RelPivotTable           = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/pivotTable"
	RelHyperlink            = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	RelDrawing              = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/drawing"
	RelTable                = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/table"
)

// Content types of parts that are kept as bytes.
const (
	CTRelationships = "application/vnd.openxmlformats-package.relationships+xml"
	CTXML           = "application/xml"
	CTCoreProps     = "application/vnd.openxmlformats-package.core-properties+xml"
	CTExtendedProps = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
	CTTheme         = "application/vnd.openxmlformats-officedocument.theme+xml"
)

var rawContentTypes = map[string]bool{
	CTXML:           true,
	CTCoreProps:     true,
	CTExtendedProps: true,
	CTTheme:         true,
	"application/vnd.openxmlformats-officedocument.custom-properties+xml":                  true,
	"application/vnd.openxmlformats-officedocument.customXmlProperties+xml":                true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.printerSettings":          true,
	"application/vnd.ms-office.vbaProject":                                                 true,
	"application/vnd.ms-excel.vbaProjectSignature":                                         true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.calcChain+xml":            true,
	"application/vnd.openxmlformats-officedocument.drawing+xml":                            true,
	"application/vnd.openxmlformats-officedocument.drawingml.chart+xml":                    true,
	"application/vnd.ms-office.chartstyle+xml":                                             true,
	"application/vnd.ms-office.chartcolorstyle+xml":                                        true,
	"application/vnd.openxmlformats-officedocument.vmlDrawing":                             true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.table+xml":                true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.comments+xml":             true,
	"application/vnd.ms-excel.threadedcomments+xml":                                        true,
	"application/vnd.ms-excel.person+xml":                                                  true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheetMetadata+xml":        true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.externalLink+xml":         true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.connections+xml":          true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.queryTable+xml":           true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.chartsheet+xml":           true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.volatileDependencies+xml": true,
	"application/vnd.openxmlformats-officedocument.oleObject":                              true,
}

// isRaw reports whether parts of content type ct are kept as bytes.
func (o *options) isRaw(ct string) bool {
	if rawContentTypes[ct] || o.rawTypes[ct] {
		return true
	}
	return strings.HasPrefix(ct, "image/")
}
