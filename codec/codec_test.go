package codec_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TsubasaBE/go-xlsx/codec"
	xlsxerrors "github.com/TsubasaBE/go-xlsx/errors"
)

var filterType = codec.Enum("ST_PivotFilterType", "unknown", "count", "captionContains", "valueBetween")

func TestDecodeEncode(t *testing.T) {
	tests := []struct {
		name string
		typ  codec.Type
		in   string
		out  string // canonical encode of the decoded value
	}{
		{"bool 1", codec.Boolean, "1", "1"},
		{"bool true", codec.Boolean, "true", "1"},
		{"bool false", codec.Boolean, "false", "0"},
		{"bool padded", codec.Boolean, " 0 ", "0"},
		{"byte negative", codec.Byte, "-128", "-128"},
		{"ubyte max", codec.UnsignedByte, "255", "255"},
		{"short", codec.Short, "-32768", "-32768"},
		{"ushort", codec.UnsignedShort, "65535", "65535"},
		{"int", codec.Int, "-1", "-1"},
		{"uint plus sign", codec.UnsignedInt, "+42", "42"},
		{"uint max", codec.UnsignedInt, "4294967295", "4294967295"},
		{"double keeps text", codec.Double, "41235.455780000001", "41235.455780000001"},
		{"double exponent", codec.Double, "1.5E-3", "1.5E-3"},
		{"double trailing zeros", codec.Double, "2.50", "2.50"},
		{"double INF", codec.Double, "INF", "INF"},
		{"dateTime no zone", codec.DateTime, "2012-11-22T10:56:19", "2012-11-22T10:56:19"},
		{"dateTime zone", codec.DateTime, "2012-11-22T10:56:19.5+02:00", "2012-11-22T10:56:19.5+02:00"},
		{"date only", codec.DateTime, "2012-11-22", "2012-11-22"},
		{"hex lower", codec.HexBinary, "cc1a", "CC1A"},
		{"string untouched", codec.String, "  a b  ", "  a b  "},
		{"enum", filterType, "captionContains", "captionContains"},
		{"relationship id", codec.RelationshipID, "rId7", "rId7"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := codec.Decode(tc.typ, tc.in)
			require.NoError(t, err)
			got, err := codec.Encode(tc.typ, v)
			require.NoError(t, err)
			assert.Equal(t, tc.out, got)

			again, err := codec.Decode(tc.typ, got)
			require.NoError(t, err)
			assert.True(t, v.Equal(again), "decode(encode(v)) = %v, want %v", again, v)
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		typ  codec.Type
		in   string
	}{
		{"bool word", codec.Boolean, "yes"},
		{"bool empty", codec.Boolean, ""},
		{"byte overflow", codec.Byte, "128"},
		{"ubyte negative", codec.UnsignedByte, "-1"},
		{"short overflow", codec.Short, "40000"},
		{"int letters", codec.Int, "abc"},
		{"uint negative", codec.UnsignedInt, "-5"},
		{"uint float", codec.UnsignedInt, "1.0"},
		{"uint overflow", codec.UnsignedInt, "4294967296"},
		{"double word", codec.Double, "abc"},
		{"double go-only infinity", codec.Double, "inf"},
		{"double hex float", codec.Double, "0x1p-2"},
		{"double underscore", codec.Double, "1_000"},
		{"dateTime garbage", codec.DateTime, "yesterday"},
		{"dateTime bad month", codec.DateTime, "2012-13-01T00:00:00"},
		{"hex odd", codec.HexBinary, "ABC"},
		{"hex non-hex", codec.HexBinary, "ZZ"},
		{"enum bogus", filterType, "bogus"},
		{"enum case", filterType, "CaptionContains"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := codec.Decode(tc.typ, tc.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, xlsxerrors.Decode)

			e, ok := xlsxerrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tc.in, e.Text)
			assert.Contains(t, e.Expected, tc.typ.Name)
		})
	}
}

func TestEncodeRejects(t *testing.T) {
	_, err := codec.Encode(codec.UnsignedByte, codec.NewUint(codec.KindUint8, 256))
	assert.Error(t, err)

	_, err = codec.Encode(codec.Byte, codec.NewInt(codec.KindInt8, -129))
	assert.Error(t, err)

	_, err = codec.Encode(filterType, codec.NewEnum("bogus"))
	assert.Error(t, err)

	_, err = codec.Encode(codec.Boolean, codec.NewString("1"))
	assert.Error(t, err, "kind mismatch must not be coerced")

	s, err := codec.Encode(filterType, codec.NewString("count"))
	require.NoError(t, err, "plain strings are accepted for enumerations")
	assert.Equal(t, "count", s)
}

func TestEncodeConstructed(t *testing.T) {
	tests := []struct {
		typ  codec.Type
		v    codec.Value
		want string
	}{
		{codec.Boolean, codec.NewBool(true), "1"},
		{codec.Double, codec.NewDouble(0.1), "0.1"},
		{codec.Double, codec.NewDouble(41235), "41235"},
		{codec.Double, codec.NewDouble(1e-7), "1E-07"},
		{codec.Double, codec.NewDouble(math.Inf(-1)), "-INF"},
		{codec.DateTime, codec.NewDateTime(time.Date(2020, 2, 29, 13, 4, 5, 0, time.UTC)), "2020-02-29T13:04:05"},
		{codec.HexBinary, codec.NewHex([]byte{0xde, 0xad}), "DEAD"},
	}
	for _, tc := range tests {
		got, err := codec.Encode(tc.typ, tc.v)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestValueAccessors(t *testing.T) {
	v, err := codec.Decode(codec.UnsignedInt, "7")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), v.Uint())
	assert.Equal(t, int64(7), v.Int())
	assert.Equal(t, 7.0, v.Float())
	assert.Equal(t, codec.KindUint32, v.Kind())

	d, err := codec.Decode(codec.Double, "1.50")
	require.NoError(t, err)
	assert.Equal(t, "1.50", d.Lexical())
	assert.True(t, d.Equal(codec.NewDouble(1.5)), "doubles compare numerically")

	assert.False(t, codec.Value{}.IsValid())
	assert.True(t, codec.NewDouble(math.NaN()).Equal(codec.NewDouble(math.NaN())))
}
