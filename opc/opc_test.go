package opc_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/TsubasaBE/go-xlsx/element"
	xlsxerrors "github.com/TsubasaBE/go-xlsx/errors"
	"github.com/TsubasaBE/go-xlsx/internal/xlsxtest"
	"github.com/TsubasaBE/go-xlsx/opc"
	"github.com/TsubasaBE/go-xlsx/schema"
)

func openBook(t *testing.T, fs xlsxtest.Files, opts ...opc.Option) *opc.Package {
	t.Helper()
	pkg, err := opc.OpenBytes(xlsxtest.Zip(t, fs), opts...)
	require.NoError(t, err)
	return pkg
}

// ── open ─────────────────────────────────────────────────────────────────────

func TestOpenBuildsPartTable(t *testing.T) {
	pkg := openBook(t, xlsxtest.Book())
	assert.Equal(t, opc.StateOpen, pkg.State())

	var names []string
	for _, p := range pkg.Parts() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{
		"/docProps/core.xml",
		"/xl/media/image1.png",
		"/xl/pivotCache/pivotCacheDefinition1.xml",
		"/xl/pivotCache/pivotCacheRecords1.xml",
		"/xl/pivotTables/pivotTable1.xml",
		"/xl/sharedStrings.xml",
		"/xl/styles.xml",
		"/xl/workbook.xml",
		"/xl/worksheets/sheet1.xml",
		"/xl/worksheets/sheet2.xml",
	}, names, "parts are ordered by name; relationship parts and the manifest are not parts")

	core, ok := pkg.Part("/docProps/core.xml")
	require.True(t, ok)
	assert.True(t, core.IsRaw())
	assert.Equal(t, xlsxtest.CoreProps, string(core.Data))

	img, ok := pkg.Part("/XL/Media/Image1.PNG")
	require.True(t, ok, "part names compare case-insensitively")
	assert.Equal(t, "image/png", img.ContentType)

	wb, ok := pkg.Part("/xl/workbook.xml")
	require.True(t, ok)
	assert.False(t, wb.IsRaw())
	assert.Same(t, schema.Workbook, wb.Root.Type())
	assert.Equal(t, schema.CTWorkbook, wb.ContentType)
}

func TestRelationshipGraph(t *testing.T) {
	pkg := openBook(t, xlsxtest.Book())

	wb, ok := pkg.RelatedPart("/", opc.RelOfficeDocument)
	require.True(t, ok)
	assert.Equal(t, "/xl/workbook.xml", wb.Name)

	sheets := pkg.RelatedParts(wb.Name, opc.RelWorksheet)
	require.Len(t, sheets, 2)
	assert.Equal(t, "/xl/worksheets/sheet1.xml", sheets[0].Name)
	assert.Equal(t, "/xl/worksheets/sheet2.xml", sheets[1].Name)

	pt, ok := pkg.RelatedPart(sheets[1].Name, opc.RelPivotTable)
	require.True(t, ok)
	cache, ok := pkg.RelatedPart(pt.Name, opc.RelPivotCacheDefinition)
	require.True(t, ok, "../ targets resolve against the source folder")
	assert.Equal(t, "/xl/pivotCache/pivotCacheDefinition1.xml", cache.Name)

	records, err := pkg.Resolve(cache.Name, "rId1")
	require.NoError(t, err)
	assert.Equal(t, "/xl/pivotCache/pivotCacheRecords1.xml", records.Name)

	_, err = pkg.Resolve(sheets[0].Name, "rId1")
	assert.ErrorIs(t, err, xlsxerrors.DanglingRelationship, "external targets are not parts")
	link, ok := pkg.Relationship(sheets[0].Name, "rId1")
	require.True(t, ok)
	assert.True(t, link.IsExternal())
	assert.Equal(t, "https://example.com/", link.Target)

	_, err = pkg.Resolve(wb.Name, "rId99")
	assert.ErrorIs(t, err, xlsxerrors.DanglingRelationship)

	assert.Len(t, pkg.PartsIn("/xl/worksheets"), 2)
	assert.Len(t, pkg.PartsIn("/xl/pivotCache/"), 2)
	assert.Empty(t, pkg.PartsIn("/xl/charts"))
	assert.Len(t, pkg.PartsOfType(schema.CTWorksheet), 2)
}

func TestOpenErrors(t *testing.T) {
	book := xlsxtest.Book()
	tests := []struct {
		name string
		data []byte
		code xlsxerrors.Code
		part string
	}{
		{
			name: "not a zip",
			data: []byte("PK? definitely not"),
			code: xlsxerrors.MalformedArchive,
		},
		{
			name: "missing manifest",
			data: xlsxtest.Zip(t, book.Without("[Content_Types].xml")),
			code: xlsxerrors.MalformedArchive,
		},
		{
			name: "missing root relationships",
			data: xlsxtest.Zip(t, book.Without("_rels/.rels")),
			code: xlsxerrors.MalformedArchive,
		},
		{
			name: "broken manifest",
			data: xlsxtest.Zip(t, book.With("[Content_Types].xml", "<Types>")),
			code: xlsxerrors.MalformedArchive,
		},
		{
			name: "part without content type",
			data: xlsxtest.Zip(t, book.With("xl/vbaProject.bin", "\x00\x01")),
			code: xlsxerrors.UnsupportedContentType,
			part: "/xl/vbaProject.bin",
		},
		{
			name: "content type without reader",
			data: xlsxtest.Zip(t, book.With("[Content_Types].xml",
				strings.Replace(xlsxtest.ContentTypes, `<Default Extension="png" ContentType="image/png"/>`,
					`<Default Extension="png" ContentType="image/png"/><Default Extension="bin" ContentType="application/x-unknown"/>`, 1)).
				With("xl/blob.bin", "x")),
			code: xlsxerrors.UnsupportedContentType,
			part: "/xl/blob.bin",
		},
		{
			name: "malformed part",
			data: xlsxtest.Zip(t, book.With("xl/styles.xml", "<styleSheet")),
			code: xlsxerrors.MalformedXML,
			part: "/xl/styles.xml",
		},
		{
			name: "decode failure",
			data: xlsxtest.Zip(t, book.With("xl/pivotTables/pivotTable1.xml",
				strings.Replace(xlsxtest.PivotTable, `type="captionContains"`, `type="bogus"`, 1))),
			code: xlsxerrors.Decode,
			part: "/xl/pivotTables/pivotTable1.xml",
		},
		{
			name: "dangling r:id",
			data: xlsxtest.Zip(t, book.With("xl/workbook.xml",
				strings.Replace(xlsxtest.Workbook, `r:id="rId5"`, `r:id="rIdX"`, 1))),
			code: xlsxerrors.DanglingRelationship,
			part: "/xl/workbook.xml",
		},
		{
			name: "relationship to a missing part",
			data: xlsxtest.Zip(t, book.Without("xl/pivotCache/pivotCacheRecords1.xml")),
			code: xlsxerrors.DanglingRelationship,
			part: "/xl/pivotCache/_rels/pivotCacheDefinition1.xml.rels",
		},
		{
			name: "malformed relationships",
			data: xlsxtest.Zip(t, book.With("xl/_rels/workbook.xml.rels", "<Relationships><")),
			code: xlsxerrors.MalformedXML,
			part: "/xl/_rels/workbook.xml.rels",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pkg, err := opc.OpenBytes(tc.data)
			require.Error(t, err)
			assert.Nil(t, pkg)
			assert.ErrorIs(t, err, tc.code)
			if tc.part != "" {
				e, ok := xlsxerrors.As(err)
				require.True(t, ok)
				assert.Equal(t, tc.part, e.Part)
			}
		})
	}
}

func TestLenientTargets(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	fs := xlsxtest.Book().Without("xl/pivotCache/pivotCacheRecords1.xml")

	pkg := openBook(t, fs, opc.WithStrictTargets(false), opc.WithLogger(zap.New(core)))
	assert.Equal(t, 1, logs.FilterMessage("relationship targets a missing part").Len())

	cache, ok := pkg.Part("/xl/pivotCache/pivotCacheDefinition1.xml")
	require.True(t, ok)
	_, err := pkg.Resolve(cache.Name, "rId1")
	assert.ErrorIs(t, err, xlsxerrors.DanglingRelationship)
}

func TestCompoundFileIsRejected(t *testing.T) {
	data := make([]byte, 1024)
	copy(data, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	_, err := opc.OpenBytes(data)
	assert.ErrorIs(t, err, xlsxerrors.MalformedArchive)
}

func TestRawContentTypeOption(t *testing.T) {
	fs := xlsxtest.Book().
		With("[Content_Types].xml", strings.Replace(xlsxtest.ContentTypes, `</Types>`,
			`<Override PartName="/xl/custom.dat" ContentType="application/x-custom"/></Types>`, 1)).
		With("xl/custom.dat", "payload")

	_, err := opc.OpenBytes(xlsxtest.Zip(t, fs))
	assert.ErrorIs(t, err, xlsxerrors.UnsupportedContentType)

	pkg := openBook(t, fs, opc.WithRawContentTypes("application/x-custom"))
	p, ok := pkg.Part("/xl/custom.dat")
	require.True(t, ok)
	assert.Equal(t, "payload", string(p.Data))
}

// ── save ─────────────────────────────────────────────────────────────────────

func TestUntouchedPartsPassThrough(t *testing.T) {
	fs := xlsxtest.Book()
	pkg := openBook(t, fs)

	out, err := pkg.Bytes()
	require.NoError(t, err)
	assert.Equal(t, opc.StateSaved, pkg.State())

	got := xlsxtest.Unzip(t, out)
	require.Len(t, got, len(fs))
	for _, f := range fs {
		assert.Equal(t, f.Data, got[f.Name], f.Name)
	}
}

func TestRewriteIsSemanticallyEqual(t *testing.T) {
	pkg := openBook(t, xlsxtest.Book(), opc.WithPassthrough(false))
	out, err := pkg.Bytes()
	require.NoError(t, err)

	again, err := opc.OpenBytes(out)
	require.NoError(t, err)
	for _, p := range pkg.Parts() {
		q, ok := again.Part(p.Name)
		require.True(t, ok, p.Name)
		assert.Equal(t, p.ContentType, q.ContentType)
		if p.IsRaw() {
			assert.Equal(t, p.Data, q.Data, p.Name)
			continue
		}
		assert.True(t, element.Equal(p.Root, q.Root), p.Name)
	}

	files := xlsxtest.Unzip(t, out)
	assert.Contains(t, files["xl/pivotCache/pivotCacheDefinition1.xml"],
		`<extLst><ext uri="{725AE2AE-9491-48be-B2B4-4EB974FC3084}" xmlns:x14="http://schemas.microsoft.com/office/spreadsheetml/2009/9/main"><x14:pivotCacheDefinition/></ext></extLst>`)
	assert.NotContains(t, files["xl/pivotCache/pivotCacheDefinition1.xml"], "saveData")
}

func TestEditedPartIsReserialized(t *testing.T) {
	pkg := openBook(t, xlsxtest.Book())
	cache, _ := pkg.Part("/xl/pivotCache/pivotCacheDefinition1.xml")
	require.NoError(t, cache.Root.SetBool("refreshOnLoad", true))
	pkg.MarkModified()
	assert.Equal(t, opc.StateModified, pkg.State())

	out, err := pkg.Bytes()
	require.NoError(t, err)
	files := xlsxtest.Unzip(t, out)
	assert.Contains(t, files["xl/pivotCache/pivotCacheDefinition1.xml"], `refreshOnLoad="1"`)
	assert.Equal(t, xlsxtest.Workbook, files["xl/workbook.xml"])

	again, err := opc.OpenBytes(out)
	require.NoError(t, err)
	c2, _ := again.Part(cache.Name)
	assert.True(t, c2.Root.Bool("refreshOnLoad"))
	assert.True(t, c2.Root.Bool("saveData"))
	assert.False(t, c2.Root.Specified("saveData"))
}

func TestSaveChecksRelationshipIDs(t *testing.T) {
	pkg := openBook(t, xlsxtest.Book())
	wb, _ := pkg.Part("/xl/workbook.xml")
	sheet := wb.Root.Child("sheets").Children("sheet")[1]
	require.NoError(t, sheet.SetStr("r:id", "rId42"))

	_, err := pkg.Bytes()
	require.Error(t, err)
	assert.ErrorIs(t, err, xlsxerrors.DanglingRelationship)
	e, _ := xlsxerrors.As(err)
	assert.Equal(t, "/xl/workbook.xml", e.Part)
	assert.Equal(t, "/workbook/sheets/sheet[2]", e.Path)
	assert.Equal(t, "r:id", e.Attr)
	assert.Equal(t, opc.StateOpen, pkg.State(), "a failed save changes nothing")
}

func TestSaveAfterRemovingNamedRelationship(t *testing.T) {
	pkg := openBook(t, xlsxtest.Book())
	require.NoError(t, pkg.RemoveRelationship("/xl/workbook.xml", "rId2"))
	assert.Error(t, pkg.RemoveRelationship("/xl/workbook.xml", "rId2"))
	assert.Equal(t, opc.StateModified, pkg.State())

	_, err := pkg.Bytes()
	require.Error(t, err)
	assert.ErrorIs(t, err, xlsxerrors.DanglingRelationship)
	e, _ := xlsxerrors.As(err)
	assert.Equal(t, "/xl/workbook.xml", e.Part)
	assert.Equal(t, "/workbook/sheets/sheet[2]", e.Path)
	assert.Equal(t, "r:id", e.Attr)
	assert.Equal(t, "rId2", e.Text)

	name := filepath.Join(t.TempDir(), "book.xlsx")
	assert.ErrorIs(t, pkg.SaveAs(name), xlsxerrors.DanglingRelationship)
	_, err = os.Stat(name)
	assert.True(t, os.IsNotExist(err), "nothing written")
}

func TestSaveAfterRemovingUnnamedRelationship(t *testing.T) {
	pkg := openBook(t, xlsxtest.Book())
	// The workbook reaches its styles by relationship type, not by r:id.
	require.NoError(t, pkg.RemoveRelationship("/xl/workbook.xml", "rId4"))

	out, err := pkg.Bytes()
	require.NoError(t, err)
	files := xlsxtest.Unzip(t, out)
	assert.NotContains(t, files["xl/_rels/workbook.xml.rels"], `Id="rId4"`)
	assert.Equal(t, xlsxtest.Workbook, files["xl/workbook.xml"], "untouched tree keeps its bytes")
}

func TestSaveAfterRemovingNamedPart(t *testing.T) {
	pkg := openBook(t, xlsxtest.Book())
	require.NoError(t, pkg.RemovePart("/xl/worksheets/sheet2.xml"))
	_, ok := pkg.Relationship("/xl/workbook.xml", "rId2")
	assert.False(t, ok)

	_, err := pkg.Bytes()
	require.Error(t, err)
	assert.ErrorIs(t, err, xlsxerrors.DanglingRelationship)
	e, _ := xlsxerrors.As(err)
	assert.Equal(t, "/xl/workbook.xml", e.Part)
	assert.Equal(t, "/workbook/sheets/sheet[2]", e.Path)

	wb, _ := pkg.Part("/xl/workbook.xml")
	sheets := wb.Root.Child("sheets")
	require.True(t, sheets.Remove(sheets.Children("sheet")[1]))
	out, err := pkg.Bytes()
	require.NoError(t, err)
	_, err = opc.OpenBytes(out)
	require.NoError(t, err)
}

func TestSaveAsIsAtomic(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "book.xlsx")
	require.NoError(t, os.WriteFile(name, []byte("previous"), 0o644))

	pkg := openBook(t, xlsxtest.Book())
	wb, _ := pkg.Part("/xl/workbook.xml")
	sheet := wb.Root.Child("sheets").Child("sheet")
	require.NoError(t, sheet.SetStr("r:id", "rId42"))

	require.Error(t, pkg.SaveAs(name))
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data), "original file untouched")

	require.NoError(t, sheet.SetStr("r:id", "rId1"))
	require.NoError(t, pkg.SaveAs(name))
	assert.Equal(t, opc.StateSaved, pkg.State())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")

	reopened, err := opc.Open(name)
	require.NoError(t, err)
	assert.Len(t, reopened.Parts(), len(pkg.Parts()))
}

// ── editing ──────────────────────────────────────────────────────────────────

func TestAddPartAndRelationship(t *testing.T) {
	pkg := openBook(t, xlsxtest.Book())

	ws := element.New(schema.Worksheet)
	_, err := ws.AddChild("sheetData")
	require.NoError(t, err)
	p, err := pkg.AddPart("/xl/worksheets/sheet3.xml", schema.CTWorksheet, ws)
	require.NoError(t, err)
	assert.Equal(t, opc.StateModified, pkg.State())

	id, err := pkg.AddRelationship("/xl/workbook.xml", opc.RelWorksheet, p.Name, false)
	require.NoError(t, err)
	assert.Equal(t, "rId6", id)
	r, _ := pkg.Relationship("/xl/workbook.xml", id)
	assert.Equal(t, "worksheets/sheet3.xml", r.Target, "stored relative to the source")

	_, err = pkg.AddRelationship("/xl/workbook.xml", opc.RelWorksheet, "/xl/worksheets/nope.xml", false)
	assert.ErrorIs(t, err, xlsxerrors.DanglingRelationship)

	_, err = pkg.AddPart("/xl/worksheets/sheet3.xml", schema.CTWorksheet, element.New(schema.Worksheet))
	assert.Error(t, err, "duplicate part")
	_, err = pkg.AddPart("/xl/other.xml", schema.CTWorksheet, element.New(schema.SST))
	assert.ErrorIs(t, err, xlsxerrors.SchemaViolation)
	_, err = pkg.AddPart("/xl/other.xml", "application/x-nothing", ws)
	assert.ErrorIs(t, err, xlsxerrors.UnsupportedContentType)
	_, err = pkg.AddPart("xl/relative.xml", schema.CTWorksheet, element.New(schema.Worksheet))
	assert.Error(t, err)

	out, err := pkg.Bytes()
	require.NoError(t, err)
	files := xlsxtest.Unzip(t, out)
	assert.Contains(t, files["[Content_Types].xml"], `<Override PartName="/xl/worksheets/sheet3.xml" ContentType="`+schema.CTWorksheet+`">`)
	assert.Contains(t, files["xl/_rels/workbook.xml.rels"], `Target="worksheets/sheet3.xml"`)
	assert.Contains(t, files["xl/worksheets/sheet3.xml"], `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData/></worksheet>`)

	again, err := opc.OpenBytes(out)
	require.NoError(t, err)
	assert.Len(t, again.RelatedParts("/xl/workbook.xml", opc.RelWorksheet), 3)
}

func TestRemovePart(t *testing.T) {
	pkg := openBook(t, xlsxtest.Book())
	require.NoError(t, pkg.RemovePart("/xl/pivotTables/pivotTable1.xml"))
	assert.Error(t, pkg.RemovePart("/xl/pivotTables/pivotTable1.xml"))

	assert.Empty(t, pkg.Relationships("/xl/worksheets/sheet2.xml"), "relationships to the part are dropped")
	assert.Empty(t, pkg.Relationships("/xl/pivotTables/pivotTable1.xml"), "the part's own relationships are dropped")

	out, err := pkg.Bytes()
	require.NoError(t, err)
	files := xlsxtest.Unzip(t, out)
	assert.NotContains(t, files, "xl/pivotTables/pivotTable1.xml")
	assert.NotContains(t, files, "xl/pivotTables/_rels/pivotTable1.xml.rels")
	assert.NotContains(t, files["[Content_Types].xml"], "pivotTable1.xml")

	_, err = opc.OpenBytes(out)
	require.NoError(t, err)
}

func TestSetPartData(t *testing.T) {
	pkg := openBook(t, xlsxtest.Book())
	const name = "/xl/sharedStrings.xml"
	before, _ := pkg.Part(name)
	root := before.Root

	err := pkg.SetPartData(name, []byte(`<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="x"/>`))
	assert.ErrorIs(t, err, xlsxerrors.Decode)
	after, _ := pkg.Part(name)
	assert.Same(t, root, after.Root, "failed update leaves the part alone")

	require.NoError(t, pkg.SetPartData(name, []byte(`<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><si><t>only</t></si></sst>`)))
	after, _ = pkg.Part(name)
	assert.Len(t, after.Root.Children("si"), 1)

	require.NoError(t, pkg.SetPartData("/xl/media/image1.png", []byte("new image")))
	img, _ := pkg.Part("/xl/media/image1.png")
	assert.Equal(t, "new image", string(img.Data))
}

func TestNewPackage(t *testing.T) {
	pkg := opc.New()
	assert.Equal(t, opc.StateOpen, pkg.State())

	sst := element.New(schema.SST)
	_, err := pkg.AddPart("/xl/sharedStrings.xml", schema.CTSharedStrings, sst)
	require.NoError(t, err)
	_, err = pkg.AddRawPart("/docProps/core.xml", opc.CTCoreProps, []byte(xlsxtest.CoreProps))
	require.NoError(t, err)
	_, err = pkg.AddRawPart("/xl/thing.bin", "application/x-thing", nil)
	assert.ErrorIs(t, err, xlsxerrors.UnsupportedContentType)
	_, err = pkg.AddRelationship("/", opc.RelCoreProperties, "/docProps/core.xml", false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, pkg.Save(&buf))
	files := xlsxtest.Unzip(t, buf.Bytes())
	assert.Contains(t, files, "[Content_Types].xml")
	assert.Contains(t, files["_rels/.rels"], `Target="docProps/core.xml"`)

	again, err := opc.OpenBytes(buf.Bytes())
	require.NoError(t, err)
	assert.Len(t, again.Parts(), 2)
}

func TestClosedPackage(t *testing.T) {
	pkg := openBook(t, xlsxtest.Book())
	require.NoError(t, pkg.Close())
	assert.Equal(t, opc.StateClosed, pkg.State())

	assert.ErrorIs(t, pkg.Close(), opc.ErrClosed)
	_, err := pkg.Bytes()
	assert.ErrorIs(t, err, opc.ErrClosed)
	assert.ErrorIs(t, pkg.RemovePart("/xl/styles.xml"), opc.ErrClosed)
	assert.Nil(t, pkg.Parts())
	_, ok := pkg.Part("/xl/styles.xml")
	assert.False(t, ok)
}
