package worksheet

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TsubasaBE/go-xlsx/internal/xlsxtest"
	"github.com/TsubasaBE/go-xlsx/opc"
	"github.com/TsubasaBE/go-xlsx/part"
	"github.com/TsubasaBE/go-xlsx/stringtable"
	"github.com/TsubasaBE/go-xlsx/styles"
)

const sheet1 = "/xl/worksheets/sheet1.xml"

func openSheet(t *testing.T, fs xlsxtest.Files, withSST bool) (*opc.Package, *Worksheet) {
	t.Helper()
	pkg, err := opc.OpenBytes(xlsxtest.Zip(t, fs))
	require.NoError(t, err)

	var sst *stringtable.StringTable
	if withSST {
		pt, ok := pkg.Part("/xl/sharedStrings.xml")
		require.True(t, ok)
		sst, err = stringtable.New(pt.Root)
		require.NoError(t, err)
	}
	pt, ok := pkg.Part("/xl/styles.xml")
	require.True(t, ok)
	xfs, err := styles.New(pt.Root)
	require.NoError(t, err)

	ws, err := New("Data", pkg, sheet1, sst, xfs, false)
	require.NoError(t, err)
	return pkg, ws
}

func TestMetadata(t *testing.T) {
	_, ws := openSheet(t, xlsxtest.Book(), true)

	assert.Equal(t, &Dimension{R: 0, C: 0, H: 4, W: 3}, ws.Dimension)
	assert.Equal(t, "A1:C4", ws.Dimension.Ref())
	assert.Equal(t, []Col{{C1: 0, C2: 0, Width: 12.5}}, ws.Cols)
	assert.Equal(t, []MergeArea{{R: 0, C: 2, H: 2, W: 1}}, ws.MergeCells)
	assert.Equal(t, []Hyperlink{
		{R: 0, C: 0, H: 1, W: 1, Target: "https://example.com/"},
		{R: 0, C: 1, H: 1, W: 1, Target: "Report!A1"},
	}, ws.Hyperlinks)
	target, ok := ws.HyperlinkAt(0, 1)
	assert.True(t, ok)
	assert.Equal(t, "Report!A1", target)
	_, ok = ws.HyperlinkAt(1, 1)
	assert.False(t, ok)
	assert.True(t, ws.IsDateCell(1))
	assert.False(t, ws.IsDateCell(0))
}

func TestWholeSheetHyperlink(t *testing.T) {
	doc := strings.Replace(xlsxtest.Sheet1, `<hyperlink ref="B1" location="Report!A1" display="Report"/>`,
		`<hyperlink ref="A1:XFD1048576" location="Report!A1"/>`, 1)
	_, ws := openSheet(t, xlsxtest.Book().With("xl/worksheets/sheet1.xml", doc), true)

	require.Len(t, ws.Hyperlinks, 2)
	assert.Equal(t, Hyperlink{R: 0, C: 0, H: maxRow + 1, W: maxCol + 1, Target: "Report!A1"}, ws.Hyperlinks[1])

	target, ok := ws.HyperlinkAt(0, 0)
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/", target, "the first covering link wins")
	target, ok = ws.HyperlinkAt(maxRow, maxCol)
	assert.True(t, ok)
	assert.Equal(t, "Report!A1", target)
	_, ok = ws.HyperlinkAt(maxRow+1, 0)
	assert.False(t, ok)
}

func TestRowsDense(t *testing.T) {
	_, ws := openSheet(t, xlsxtest.Book(), true)

	var got [][]any
	for row := range ws.Rows(false) {
		var vals []any
		for _, c := range row {
			vals = append(vals, c.V)
		}
		got = append(got, vals)
	}
	assert.Equal(t, [][]any{
		{"Region", "Sales", nil},
		{"East", 10.0, nil},
		{" West", 20.0, "note"},
		{45123.0, 30.0, true},
	}, got)
}

func TestRowsSparseSkipsGaps(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">` +
		`<sheetData><row r="2"><c r="B2"><v>1</v></c></row><row r="5"><c r="A5" t="str"><v>x</v></c></row></sheetData>` +
		`</worksheet>`
	fs := xlsxtest.Book().With("xl/worksheets/sheet1.xml", doc).Without("xl/worksheets/_rels/sheet1.xml.rels")
	_, ws := openSheet(t, fs, true)

	var sparse [][]Cell
	for row := range ws.Rows(true) {
		sparse = append(sparse, row)
	}
	require.Len(t, sparse, 2)
	assert.Equal(t, []Cell{{R: 1, C: 1, V: 1.0}}, sparse[0])
	assert.Equal(t, []Cell{{R: 4, C: 0, V: "x"}}, sparse[1])

	n := 0
	for row := range ws.Rows(false) {
		assert.Equal(t, n, row[0].R)
		n++
	}
	assert.Equal(t, 5, n, "dense mode fills the missing rows")
}

func TestRowsStopsEarly(t *testing.T) {
	_, ws := openSheet(t, xlsxtest.Book(), true)
	n := 0
	for range ws.Rows(false) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestCell(t *testing.T) {
	_, ws := openSheet(t, xlsxtest.Book(), true)

	c, err := ws.Cell("B4")
	require.NoError(t, err)
	assert.Equal(t, Cell{R: 3, C: 1, V: 30.0, Formula: "SUM(B2:B3)"}, c)

	c, err = ws.Cell("A4")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Style)

	c, err = ws.Cell("Z99")
	require.NoError(t, err)
	assert.Nil(t, c.V)

	_, err = ws.Cell("not a ref")
	assert.Error(t, err)
}

func TestSetCell(t *testing.T) {
	pkg, ws := openSheet(t, xlsxtest.Book(), true)

	require.NoError(t, ws.SetCell("B4", 42))
	require.NoError(t, ws.SetCell("A2", "Sales"))
	require.NoError(t, ws.SetCell("B3", "Total"))
	require.NoError(t, ws.SetCell("D1", true))
	require.NoError(t, ws.SetCell("A6", time.Date(2023, 7, 16, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, ws.SetCell("B5", 1.5))
	require.NoError(t, ws.SetCell("C4", nil))
	assert.Equal(t, opc.StateModified, pkg.State())

	get := func(ref string) Cell {
		c, err := ws.Cell(ref)
		require.NoError(t, err)
		return c
	}
	assert.Equal(t, 42.0, get("B4").V)
	assert.Empty(t, get("B4").Formula)
	assert.Equal(t, "Sales", get("A2").V)
	assert.Equal(t, "Total", get("B3").V)
	assert.Equal(t, true, get("D1").V)
	assert.Equal(t, 45123.0, get("A6").V)
	assert.Equal(t, 1.5, get("B5").V)
	assert.Nil(t, get("C4").V)
	assert.Equal(t, "A1:D6", ws.Dimension.Ref())

	var rows []int
	for row := range ws.Rows(true) {
		rows = append(rows, row[0].R)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, rows, "new rows are kept in order")

	out, err := part.Write(ws.Root())
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, `<dimension ref="A1:D6"/>`)
	assert.Contains(t, s, `<c r="A2" t="s"><v>1</v></c>`)
	assert.Contains(t, s, `<c r="D1" t="b"><v>1</v></c>`)
	assert.Contains(t, s, `<row r="5"><c r="B5"><v>1.5</v></c></row><row r="6"><c r="A6"><v>45123</v></c></row>`)
}

func TestSetCellInlineWithoutSharedStrings(t *testing.T) {
	_, ws := openSheet(t, xlsxtest.Book(), false)

	require.NoError(t, ws.SetCell("C2", " spaced"))
	c, err := ws.Cell("C2")
	require.NoError(t, err)
	assert.Equal(t, " spaced", c.V)

	out, err := part.Write(ws.Root())
	require.NoError(t, err)
	assert.Contains(t, string(out), `<c r="C2" t="inlineStr"><is><t xml:space="preserve"> spaced</t></is></c>`)
}

func TestSetCellRejectsUnknownTypes(t *testing.T) {
	_, ws := openSheet(t, xlsxtest.Book(), true)
	assert.Error(t, ws.SetCell("A1", struct{}{}))
	assert.Error(t, ws.SetCell("1A", 1))
}

func TestNewRejectsOtherParts(t *testing.T) {
	pkg, err := opc.OpenBytes(xlsxtest.Zip(t, xlsxtest.Book()))
	require.NoError(t, err)
	_, err = New("x", pkg, "/xl/styles.xml", nil, nil, false)
	assert.Error(t, err)
	_, err = New("x", pkg, "/xl/worksheets/missing.xml", nil, nil, false)
	assert.Error(t, err)
}
