package stringtable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TsubasaBE/go-xlsx/internal/xlsxtest"
	"github.com/TsubasaBE/go-xlsx/part"
)

func load(t *testing.T) *StringTable {
	t.Helper()
	root, err := part.Parse([]byte(xlsxtest.SharedStrings), part.NewIDs())
	require.NoError(t, err)
	st, err := New(root)
	require.NoError(t, err)
	return st
}

func TestGet(t *testing.T) {
	st := load(t)
	require.Equal(t, 4, st.Len())
	assert.Equal(t, "Region", st.Get(0))
	assert.Equal(t, "Sales", st.Get(1))
	assert.Equal(t, "East", st.Get(2), "rich text runs are concatenated")
	assert.Equal(t, " West", st.Get(3))
	assert.Len(t, st.Item(2).Children("r"), 2)
	assert.Panics(t, func() { st.Get(4) })
}

func TestAdd(t *testing.T) {
	st := load(t)

	i, err := st.Add("Sales")
	require.NoError(t, err)
	assert.Equal(t, 1, i, "existing plain strings are reused")

	i, err = st.Add("East")
	require.NoError(t, err)
	assert.Equal(t, 4, i, "rich items are never reused")

	i, err = st.Add("  padded ")
	require.NoError(t, err)
	assert.Equal(t, 5, i)
	assert.Equal(t, "  padded ", st.Get(5))
	assert.Equal(t, uint64(6), st.root.Uint("uniqueCount"))

	require.NoError(t, st.Ref())
	assert.Equal(t, uint64(5), st.root.Uint("count"))

	out, err := part.Write(st.root)
	require.NoError(t, err)
	assert.Contains(t, string(out), `<si><t xml:space="preserve">  padded </t></si>`)
	assert.Contains(t, string(out), `<si><t>East</t></si>`)
}

func TestNewRejectsOtherRoots(t *testing.T) {
	root, err := part.Parse([]byte(xlsxtest.Styles), part.NewIDs())
	require.NoError(t, err)
	_, err = New(root)
	assert.Error(t, err)
}
