package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TsubasaBE/go-xlsx/internal/xlsxtest"
	"github.com/TsubasaBE/go-xlsx/numfmt"
	"github.com/TsubasaBE/go-xlsx/part"
)

func TestNew(t *testing.T) {
	root, err := part.Parse([]byte(xlsxtest.Styles), part.NewIDs())
	require.NoError(t, err)

	st, err := New(root)
	require.NoError(t, err)
	require.Len(t, st, 3)

	assert.Equal(t, XFStyle{NumFmtID: 164, FormatStr: `yyyy\-mm\-dd`}, st[1])
	assert.Equal(t, "General", st.FmtStr(0))
	assert.Equal(t, `yyyy\-mm\-dd`, st.FmtStr(1))
	assert.Equal(t, "#,##0.00", st.FmtStr(2))
	assert.Equal(t, "General", st.FmtStr(7))

	assert.False(t, st.IsDate(0))
	assert.True(t, st.IsDate(1))
	assert.False(t, st.IsDate(2))
	assert.False(t, st.IsDate(-1))
	assert.Equal(t, numfmt.Number, st.Class(2))
}

func TestNewRejectsOtherRoots(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestIsDateBuiltInTime(t *testing.T) {
	st := StyleTable{{NumFmtID: 20}}
	assert.True(t, st.IsDate(0))
	assert.Equal(t, "hh:mm", st.FmtStr(0))
}
