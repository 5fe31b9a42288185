// Package xlsxtest builds in-memory packages for tests.
//
// Book returns the entries of a small but complete workbook: two sheets,
// shared strings, styles with a custom date format, a pivot cache with
// records, a pivot table, an external hyperlink, document properties and an
// image.  Tests edit the entry list and zip it with Zip.
package xlsxtest

import (
	"archive/zip"
	"bytes"
	"slices"
	"testing"
)

// File is one archive entry.
type File struct {
	Name string // zip entry name, without a leading slash
	Data string
}

// Files is an ordered entry list.
type Files []File

// With returns a copy of fs where the entry called name holds data.  A new
// entry is appended when name is absent.
func (fs Files) With(name, data string) Files {
	out := slices.Clone(fs)
	for i := range out {
		if out[i].Name == name {
			out[i].Data = data
			return out
		}
	}
	return append(out, File{Name: name, Data: data})
}

// Without returns a copy of fs minus the entry called name.
func (fs Files) Without(name string) Files {
	return slices.DeleteFunc(slices.Clone(fs), func(f File) bool { return f.Name == name })
}

// Get returns the data of the entry called name.
func (fs Files) Get(name string) string {
	for _, f := range fs {
		if f.Name == name {
			return f.Data
		}
	}
	return ""
}

// zipAddFile writes one named entry into the zip archive.
func zipAddFile(t testing.TB, zw *zip.Writer, name string, data []byte) {
	t.Helper()
	f, err := zw.Create(name)
	if err != nil {
		t.Fatalf("zip create %s: %v", name, err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatalf("zip write %s: %v", name, err)
	}
}

// Zip packs fs into an archive, in order.
func Zip(t testing.TB, fs Files) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range fs {
		zipAddFile(t, zw, f.Name, []byte(f.Data))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// Unzip returns the entries of an archive keyed by entry name.
func Unzip(t testing.TB, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("unzip: %v", err)
	}
	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("unzip %s: %v", f.Name, err)
		}
		var b bytes.Buffer
		if _, err := b.ReadFrom(rc); err != nil {
			t.Fatalf("unzip %s: %v", f.Name, err)
		}
		rc.Close()
		out[f.Name] = b.String()
	}
	return out
}

const decl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n"

const (
	nsMain = `xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"`
	nsRel  = `xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
	relsNS = `xmlns="http://schemas.openxmlformats.org/package/2006/relationships"`
	relT   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
)

// PNG is a 1x1 transparent image.
var PNG = string([]byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4, 0x89, 0x00, 0x00, 0x00,
	0x0D, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4E, 0x44, 0xAE, 0x42, 0x60, 0x82,
})

// Entry contents of Book, exported so tests can derive variants.
const (
	ContentTypes = decl + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Default Extension="png" ContentType="image/png"/>` +
		`<Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>` +
		`<Override PartName="/xl/worksheets/sheet1.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/>` +
		`<Override PartName="/xl/worksheets/sheet2.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/>` +
		`<Override PartName="/xl/sharedStrings.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml"/>` +
		`<Override PartName="/xl/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"/>` +
		`<Override PartName="/xl/pivotCache/pivotCacheDefinition1.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.pivotCacheDefinition+xml"/>` +
		`<Override PartName="/xl/pivotCache/pivotCacheRecords1.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.pivotCacheRecords+xml"/>` +
		`<Override PartName="/xl/pivotTables/pivotTable1.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.pivotTable+xml"/>` +
		`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
		`</Types>`

	RootRels = decl + `<Relationships ` + relsNS + `>` +
		`<Relationship Id="rId1" Type="` + relT + `officeDocument" Target="xl/workbook.xml"/>` +
		`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
		`</Relationships>`

	CoreProps = decl + `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:creator>tests</dc:creator></cp:coreProperties>`

	Workbook = decl + `<workbook ` + nsMain + ` ` + nsRel + `>` +
		`<workbookPr defaultThemeVersion="166925"/>` +
		`<bookViews><workbookView xWindow="0" yWindow="0" windowWidth="28800" windowHeight="12300"/></bookViews>` +
		`<sheets><sheet name="Data" sheetId="1" r:id="rId1"/><sheet name="Report" sheetId="2" state="hidden" r:id="rId2"/></sheets>` +
		`<definedNames><definedName name="Sales">Data!$B$2:$B$3</definedName></definedNames>` +
		`<calcPr calcId="191029"/>` +
		`<pivotCaches><pivotCache cacheId="5" r:id="rId5"/></pivotCaches>` +
		`</workbook>`

	WorkbookRels = decl + `<Relationships ` + relsNS + `>` +
		`<Relationship Id="rId1" Type="` + relT + `worksheet" Target="worksheets/sheet1.xml"/>` +
		`<Relationship Id="rId2" Type="` + relT + `worksheet" Target="worksheets/sheet2.xml"/>` +
		`<Relationship Id="rId3" Type="` + relT + `sharedStrings" Target="sharedStrings.xml"/>` +
		`<Relationship Id="rId4" Type="` + relT + `styles" Target="styles.xml"/>` +
		`<Relationship Id="rId5" Type="` + relT + `pivotCacheDefinition" Target="pivotCache/pivotCacheDefinition1.xml"/>` +
		`</Relationships>`

	Sheet1 = decl + `<worksheet ` + nsMain + ` ` + nsRel + `>` +
		`<dimension ref="A1:C4"/>` +
		`<sheetViews><sheetView tabSelected="1" workbookViewId="0"/></sheetViews>` +
		`<sheetFormatPr defaultRowHeight="15"/>` +
		`<cols><col min="1" max="1" width="12.5" customWidth="1"/></cols>` +
		`<sheetData>` +
		`<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>` +
		`<row r="2"><c r="A2" t="s"><v>2</v></c><c r="B2"><v>10</v></c></row>` +
		`<row r="3"><c r="A3" t="s"><v>3</v></c><c r="B3"><v>20</v></c><c r="C3" t="inlineStr"><is><t>note</t></is></c></row>` +
		`<row r="4"><c r="A4" s="1"><v>45123</v></c><c r="B4"><f>SUM(B2:B3)</f><v>30</v></c><c r="C4" t="b"><v>1</v></c></row>` +
		`</sheetData>` +
		`<mergeCells count="1"><mergeCell ref="C1:C2"/></mergeCells>` +
		`<hyperlinks><hyperlink ref="A1" r:id="rId1"/><hyperlink ref="B1" location="Report!A1" display="Report"/></hyperlinks>` +
		`<pageMargins left="0.7" right="0.7" top="0.75" bottom="0.75" header="0.3" footer="0.3"/>` +
		`</worksheet>`

	Sheet1Rels = decl + `<Relationships ` + relsNS + `>` +
		`<Relationship Id="rId1" Type="` + relT + `hyperlink" Target="https://example.com/" TargetMode="External"/>` +
		`</Relationships>`

	Sheet2 = decl + `<worksheet ` + nsMain + ` ` + nsRel + `><dimension ref="A3:B6"/><sheetData/></worksheet>`

	Sheet2Rels = decl + `<Relationships ` + relsNS + `>` +
		`<Relationship Id="rId1" Type="` + relT + `pivotTable" Target="../pivotTables/pivotTable1.xml"/>` +
		`</Relationships>`

	SharedStrings = decl + `<sst ` + nsMain + ` count="4" uniqueCount="4">` +
		`<si><t>Region</t></si>` +
		`<si><t>Sales</t></si>` +
		`<si><r><t>Ea</t></r><r><rPr><b/></rPr><t>st</t></r></si>` +
		`<si><t xml:space="preserve"> West</t></si>` +
		`</sst>`

	Styles = decl + `<styleSheet ` + nsMain + `>` +
		`<numFmts count="1"><numFmt numFmtId="164" formatCode="yyyy\-mm\-dd"/></numFmts>` +
		`<fonts count="1"><font><sz val="11"/><name val="Calibri"/></font></fonts>` +
		`<fills count="1"><fill><patternFill patternType="none"/></fill></fills>` +
		`<borders count="1"><border><left/><right/><top/><bottom/><diagonal/></border></borders>` +
		`<cellStyleXfs count="1"><xf numFmtId="0" fontId="0" fillId="0" borderId="0"/></cellStyleXfs>` +
		`<cellXfs count="3"><xf numFmtId="0" fontId="0" fillId="0" borderId="0" xfId="0"/>` +
		`<xf numFmtId="164" fontId="0" fillId="0" borderId="0" xfId="0" applyNumberFormat="1"/>` +
		`<xf numFmtId="4" fontId="0" fillId="0" borderId="0" xfId="0" applyNumberFormat="1"/></cellXfs>` +
		`<cellStyles count="1"><cellStyle name="Normal" xfId="0" builtinId="0"/></cellStyles>` +
		`</styleSheet>`

	PivotCacheDefinition = decl + `<pivotCacheDefinition ` + nsMain + ` ` + nsRel + ` r:id="rId1" refreshedBy="tests" ` +
		`refreshedDate="45123.5" createdVersion="6" refreshedVersion="6" minRefreshableVersion="3" recordCount="2">` +
		`<cacheSource type="worksheet"><worksheetSource ref="A1:B3" sheet="Data"/></cacheSource>` +
		`<cacheFields count="2">` +
		`<cacheField name="Region" numFmtId="0"><sharedItems count="2"><s v="East"/><s v="West"/></sharedItems></cacheField>` +
		`<cacheField name="Sales" numFmtId="0"><sharedItems containsSemiMixedTypes="0" containsString="0" containsNumber="1" containsInteger="1" minValue="10" maxValue="20"/></cacheField>` +
		`</cacheFields>` +
		`<extLst><ext uri="{725AE2AE-9491-48be-B2B4-4EB974FC3084}" xmlns:x14="http://schemas.microsoft.com/office/spreadsheetml/2009/9/main"><x14:pivotCacheDefinition/></ext></extLst>` +
		`</pivotCacheDefinition>`

	PivotCacheDefinitionRels = decl + `<Relationships ` + relsNS + `>` +
		`<Relationship Id="rId1" Type="` + relT + `pivotCacheRecords" Target="pivotCacheRecords1.xml"/>` +
		`</Relationships>`

	PivotCacheRecords = decl + `<pivotCacheRecords ` + nsMain + ` ` + nsRel + ` count="2">` +
		`<r><x v="0"/><n v="10"/></r>` +
		`<r><x v="1"/><n v="20"/></r>` +
		`</pivotCacheRecords>`

	PivotTable = decl + `<pivotTableDefinition ` + nsMain + ` name="PivotTable1" cacheId="5" applyNumberFormats="0" ` +
		`applyBorderFormats="0" applyFontFormats="0" applyPatternFormats="0" applyAlignmentFormats="0" ` +
		`applyWidthHeightFormats="1" dataCaption="Values" updatedVersion="6" minRefreshableVersion="3" ` +
		`useAutoFormatting="1" itemPrintTitles="1" createdVersion="6" indent="0" outline="1" outlineData="1" multipleFieldFilters="0">` +
		`<location ref="A3:B6" firstHeaderRow="1" firstDataRow="1" firstDataCol="1"/>` +
		`<pivotFields count="2">` +
		`<pivotField axis="axisRow" showAll="0"><items count="3"><item x="0"/><item x="1"/><item t="default"/></items></pivotField>` +
		`<pivotField dataField="1" showAll="0"/>` +
		`</pivotFields>` +
		`<rowFields count="1"><field x="0"/></rowFields>` +
		`<rowItems count="3"><i><x/></i><i><x v="1"/></i><i t="grand"><x/></i></rowItems>` +
		`<colItems count="1"><i/></colItems>` +
		`<dataFields count="1"><dataField name="Sum of Sales" fld="1" baseField="0" baseItem="0"/></dataFields>` +
		`<pivotTableStyleInfo name="PivotStyleLight16" showRowHeaders="1" showColHeaders="1" showRowStripes="0" showColStripes="0" showLastColumn="1"/>` +
		`<filters count="1"><filter fld="0" type="captionContains" evalOrder="-1" id="2" stringValue1="ea">` +
		`<autoFilter ref="A1"><filterColumn colId="0"><customFilters><customFilter val="*ea*"/></customFilters></filterColumn></autoFilter>` +
		`</filter></filters>` +
		`</pivotTableDefinition>`

	PivotTableRels = decl + `<Relationships ` + relsNS + `>` +
		`<Relationship Id="rId1" Type="` + relT + `pivotCacheDefinition" Target="../pivotCache/pivotCacheDefinition1.xml"/>` +
		`</Relationships>`
)

// Book returns the entries of the sample workbook.
func Book() Files {
	return Files{
		{"[Content_Types].xml", ContentTypes},
		{"_rels/.rels", RootRels},
		{"docProps/core.xml", CoreProps},
		{"xl/workbook.xml", Workbook},
		{"xl/_rels/workbook.xml.rels", WorkbookRels},
		{"xl/worksheets/sheet1.xml", Sheet1},
		{"xl/worksheets/_rels/sheet1.xml.rels", Sheet1Rels},
		{"xl/worksheets/sheet2.xml", Sheet2},
		{"xl/worksheets/_rels/sheet2.xml.rels", Sheet2Rels},
		{"xl/sharedStrings.xml", SharedStrings},
		{"xl/styles.xml", Styles},
		{"xl/pivotCache/pivotCacheDefinition1.xml", PivotCacheDefinition},
		{"xl/pivotCache/_rels/pivotCacheDefinition1.xml.rels", PivotCacheDefinitionRels},
		{"xl/pivotCache/pivotCacheRecords1.xml", PivotCacheRecords},
		{"xl/pivotTables/pivotTable1.xml", PivotTable},
		{"xl/pivotTables/_rels/pivotTable1.xml.rels", PivotTableRels},
		{"xl/media/image1.png", PNG},
	}
}
