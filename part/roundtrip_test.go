package part_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TsubasaBE/go-xlsx/codec"
	"github.com/TsubasaBE/go-xlsx/element"
	"github.com/TsubasaBE/go-xlsx/part"
	"github.com/TsubasaBE/go-xlsx/schema"
)

func sampleValue(typ codec.Type) codec.Value {
	switch k := typ.Kind; k {
	case codec.KindBool:
		return codec.NewBool(true)
	case codec.KindInt8, codec.KindInt16, codec.KindInt32,
		codec.KindUint8, codec.KindUint16, codec.KindUint32:
		return codec.NewInteger(k, 7)
	case codec.KindDouble:
		return codec.NewDouble(1.25)
	case codec.KindDateTime:
		return codec.NewDateTime(time.Date(2024, 2, 29, 13, 30, 0, 0, time.UTC))
	case codec.KindHexBinary:
		return codec.NewHex([]byte{0xC0, 0xFF, 0xEE})
	case codec.KindEnum:
		return codec.NewEnum(typ.Values[len(typ.Values)-1])
	case codec.KindRelID:
		return codec.NewRelID("rId1")
	}
	return codec.NewString("A1:B2")
}

// sample builds a node of type t.  With full set every attribute is
// specified and every slot holds one element; otherwise only what the
// schema requires is present.
func sample(t *testing.T, typ *schema.ElementType, full bool) *element.Node {
	t.Helper()
	n := element.New(typ)
	if typ.Opaque() {
		return n
	}
	for _, a := range typ.Attrs {
		if full || a.Use == schema.UseRequired {
			require.NoError(t, n.Set(a.QName(), sampleValue(a.Type)))
		}
	}
	if typ.Text != nil {
		require.NoError(t, n.SetText("x y"))
	}
	for _, slot := range typ.Children {
		count := slot.Min
		if full && count == 0 {
			count = 1
		}
		for range count {
			require.NoError(t, n.Append(sample(t, slot.Types[0], full)))
		}
	}
	return n
}

func TestRoundTripEveryElementType(t *testing.T) {
	reg := schema.DefaultRegistry()
	seen := make(map[*schema.ElementType]bool)
	for _, ct := range reg.ContentTypes() {
		root, _ := reg.ForContentType(ct)
		schema.Walk(root, func(typ *schema.ElementType) {
			if seen[typ] || typ.Opaque() {
				return
			}
			seen[typ] = true
			for _, full := range []bool{false, true} {
				n := sample(t, typ, full)
				name := typ.Name
				if full {
					name += "/full"
				}
				t.Run(name, func(t *testing.T) {
					out, err := part.Write(n)
					require.NoError(t, err)

					back, err := part.ParseElement(out, typ, part.NewIDs("rId1"))
					require.NoError(t, err, "%s", out)
					assert.True(t, element.Equal(n, back), "%s", out)

					again, err := part.Write(back)
					require.NoError(t, err)
					assert.Equal(t, string(out), string(again), "writing is deterministic")
				})
			}
		})
	}
	assert.Greater(t, len(seen), 60)
}

// A default-constructed node writes no attributes at all.
func TestDefaultsAreOmitted(t *testing.T) {
	for _, typ := range []*schema.ElementType{schema.PivotCacheDefinition, schema.PivotTableDefinition, schema.WorkbookPr, schema.Item} {
		n := sample(t, typ, false)
		out, err := part.WriteElement(n)
		require.NoError(t, err)
		for _, a := range typ.Attrs {
			if a.Use != schema.UseRequired {
				assert.NotContains(t, string(out), " "+a.QName()+`="`, "%s@%s", typ.Name, a.QName())
			}
		}
	}
}

// Explicitly set attributes are written even when they hold the default.
func TestExplicitDefaultsAreWritten(t *testing.T) {
	n := sample(t, schema.PivotCacheDefinition, false)
	require.NoError(t, n.SetBool("saveData", true))
	require.NoError(t, n.SetBool("refreshOnLoad", true))

	out, err := part.WriteElement(n)
	require.NoError(t, err)
	assert.Contains(t, string(out), `<pivotCacheDefinition saveData="1" refreshOnLoad="1">`)
}
