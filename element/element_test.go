package element_test

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TsubasaBE/go-xlsx/codec"
	"github.com/TsubasaBE/go-xlsx/element"
	xlsxerrors "github.com/TsubasaBE/go-xlsx/errors"
	"github.com/TsubasaBE/go-xlsx/schema"
)

func TestNewStartsAtDefaults(t *testing.T) {
	n := element.New(schema.PivotCacheDefinition)

	_, ok := n.Get("saveData")
	assert.False(t, ok, "defaults are not specified")
	assert.False(t, n.Specified("saveData"))

	v, ok := n.Effective("saveData")
	require.True(t, ok)
	assert.True(t, v.Bool())
	assert.True(t, n.Bool("saveData"))
	assert.True(t, n.Bool("enableRefresh"))
	assert.False(t, n.Bool("refreshOnLoad"))

	_, ok = n.Effective("recordCount")
	assert.False(t, ok, "no default, not specified")
}

func TestSetMarksSpecified(t *testing.T) {
	n := element.New(schema.Location)

	require.NoError(t, n.SetUint("rowPageCount", 0))
	assert.True(t, n.Specified("rowPageCount"), "setting the default value still counts as explicit")

	n.Unset("rowPageCount")
	assert.False(t, n.Specified("rowPageCount"))
	assert.Equal(t, uint64(0), n.Uint("rowPageCount"))

	require.NoError(t, n.SetStr("ref", "A1:C10"))
	assert.Equal(t, "A1:C10", n.Str("ref"))

	var names []string
	for a := range n.Attrs() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"ref"}, names)
}

func TestSetRejects(t *testing.T) {
	f := element.New(schema.PivotFilter)

	assert.Error(t, f.SetStr("type", "bogus"))
	assert.Error(t, f.SetStr("nope", "x"))
	assert.Error(t, f.SetBool("fld", true), "kind mismatch")
	assert.Error(t, f.SetUint("fld", 1<<40), "out of range for xsd:unsignedInt")
	assert.Error(t, f.SetInt("name", 1), "not an integer attribute")

	require.NoError(t, f.SetStr("type", "captionContains"))
	v, ok := f.Get("type")
	require.True(t, ok)
	assert.Equal(t, codec.KindEnum, v.Kind(), "strings assigned to enums are stored as enums")
}

func TestRelIDAttribute(t *testing.T) {
	s := element.New(schema.Sheet)
	require.NoError(t, s.SetStr("r:id", "rId3"))
	v, ok := s.Get("r:id")
	require.True(t, ok)
	assert.Equal(t, codec.KindRelID, v.Kind())
	assert.Equal(t, "rId3", s.Str("r:id"))
}

func TestChildrenKeepSchemaOrder(t *testing.T) {
	ws := element.New(schema.Worksheet)

	_, err := ws.AddChild("mergeCells")
	require.NoError(t, err)
	_, err = ws.AddChild("sheetData")
	require.NoError(t, err)
	_, err = ws.AddChild("dimension")
	require.NoError(t, err)

	var got []string
	for _, c := range ws.All() {
		got = append(got, c.Name().Local)
	}
	assert.Equal(t, []string{"dimension", "sheetData", "mergeCells"}, got)
	assert.Equal(t, 3, ws.Len())
	assert.Equal(t, "sheetData", ws.ChildAt(1).Name().Local)

	_, err = ws.AddChild("sheetData")
	assert.ErrorIs(t, err, xlsxerrors.SchemaViolation, "singleton slot is full")

	_, err = ws.AddChild("nosuch")
	assert.Error(t, err)
}

func TestRepeatedChildren(t *testing.T) {
	sd := element.New(schema.SheetData)
	for i := 1; i <= 3; i++ {
		r, err := sd.AddChild("row")
		require.NoError(t, err)
		require.NoError(t, r.SetUint("r", uint64(i)))
	}
	rows := sd.Children("row")
	require.Len(t, rows, 3)
	assert.Equal(t, uint64(2), rows[1].Uint("r"))

	assert.True(t, sd.Remove(rows[1]))
	assert.False(t, sd.Remove(rows[1]))
	assert.Len(t, sd.Children("row"), 2)
}

func TestChoiceGroup(t *testing.T) {
	cs := element.New(schema.CacheSource)
	assert.Nil(t, cs.Choice("source"))

	ws := element.New(schema.WorksheetSource)
	require.NoError(t, cs.SetChoice("source", ws))
	assert.Same(t, ws, cs.Choice("source"))

	cons := element.New(schema.Consolidation)
	require.NoError(t, cs.SetChoice("source", cons))
	assert.Same(t, cons, cs.Choice("source"), "SetChoice replaces the previous alternative")
	assert.Equal(t, 1, cs.Len())

	err := cs.SetChoice("source", element.New(schema.Location))
	assert.ErrorIs(t, err, xlsxerrors.SchemaViolation)

	require.NoError(t, cs.SetChoice("source", nil))
	assert.Equal(t, 0, cs.Len())
}

func TestRepeatedChoice(t *testing.T) {
	rec := element.New(schema.Record)
	for _, name := range []string{"x", "n", "s", "x"} {
		_, err := rec.AddChild(name)
		require.NoError(t, err)
	}
	vals := rec.Children("values")
	require.Len(t, vals, 4)
	assert.Equal(t, "n", vals[1].Name().Local, "a repeated choice keeps document order")
	assert.Len(t, rec.Children("x"), 2)

	_, err := rec.AddChild("values")
	assert.Error(t, err, "a group name is not an element")
}

func TestUnknownChildren(t *testing.T) {
	wb := element.New(schema.Workbook)
	_, err := wb.AddChild("sheets")
	require.NoError(t, err)

	alt := element.NewUnknown(xml.Name{Space: schema.NSMarkupCompat, Local: "AlternateContent"},
		[]byte(`<mc:AlternateContent/>`))
	wb.AppendUnknown(alt, 2) // after workbookPr
	_, err = wb.AddChild("workbookPr")
	require.NoError(t, err)
	_, err = wb.AddChild("fileVersion")
	require.NoError(t, err)

	var got []string
	for _, c := range wb.All() {
		got = append(got, c.Name().Local)
	}
	assert.Equal(t, []string{"fileVersion", "workbookPr", "AlternateContent", "sheets"}, got)

	strict := element.New(schema.Location)
	err = strict.Append(element.NewUnknown(xml.Name{Local: "foo"}, []byte("<foo/>")))
	assert.ErrorIs(t, err, xlsxerrors.SchemaViolation)
}

func TestOpaqueTree(t *testing.T) {
	ext := element.NewOpaque(schema.ExtLst, []byte(`<extLst><ext uri="{X}"><a>1</a></ext></extLst>`))
	assert.True(t, ext.IsOpaque())

	tree, err := ext.Tree()
	require.NoError(t, err)
	assert.Equal(t, "extLst", tree.Tag)
	inner := tree.FindElement("ext/a")
	require.NotNil(t, inner)
	assert.Equal(t, "1", inner.Text())

	inner.SetText("2")
	require.NoError(t, ext.SetTree(tree))
	assert.Contains(t, string(ext.Raw()), "<a>2</a>")

	_, err = element.New(schema.Location).Tree()
	assert.Error(t, err)
}

func TestCloneAndEqual(t *testing.T) {
	a := element.New(schema.CacheSource)
	require.NoError(t, a.SetStr("type", "worksheet"))
	ws, err := a.AddChild("worksheetSource")
	require.NoError(t, err)
	require.NoError(t, ws.SetStr("ref", "A1:B4"))
	require.NoError(t, ws.SetStr("sheet", "Data"))

	b := a.Clone()
	assert.True(t, element.Equal(a, b))

	require.NoError(t, b.Choice("source").SetStr("ref", "A1:B5"))
	assert.False(t, element.Equal(a, b), "clone is deep")
	assert.Equal(t, "A1:B4", ws.Str("ref"))

	c := a.Clone()
	require.NoError(t, c.SetUint("connectionId", 0))
	assert.False(t, element.Equal(a, c), "specified state is part of equality")
}

func TestText(t *testing.T) {
	v := element.New(schema.CellValue)
	require.NoError(t, v.SetText("3.14"))
	assert.Equal(t, "3.14", v.Text())

	assert.Error(t, element.New(schema.Location).SetText("x"))
}
