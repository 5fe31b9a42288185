package xlsx_test

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/TsubasaBE/go-xlsx"
	"github.com/TsubasaBE/go-xlsx/internal/xlsxtest"
	"github.com/TsubasaBE/go-xlsx/opc"
	"github.com/TsubasaBE/go-xlsx/workbook"
)

// ── ConvertDate ───────────────────────────────────────────────────────────────

func TestConvertDate(t *testing.T) {
	tests := []struct {
		name    string
		input   float64
		want    time.Time
		wantErr bool
	}{
		{
			name:  "serial 0 gives 1900-01-01",
			input: 0,
			want:  time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "serial 0 with time component",
			input: 0.5,
			want:  time.Date(1900, 1, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name:  "serial 60 gives 1900-03-01 (phantom leap day)",
			input: 60,
			want:  time.Date(1900, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "serial 61 compensates for Lotus leap-year bug",
			input: 61,
			want:  time.Date(1900, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "afternoon with seconds: 41235.45578",
			input: 41235.45578,
			want:  time.Date(2012, 11, 22, 10, 56, 19, 0, time.UTC),
		},
		{name: "NaN returns error", input: math.NaN(), wantErr: true},
		{name: "negative serial returns error", input: -1, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := xlsx.ConvertDate(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("ConvertDate(%v) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestConvertDateEx(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		date1904 bool
		want     time.Time
		wantErr  bool
	}{
		{
			name:  "1900: serial 45123",
			input: 45123,
			want:  time.Date(2023, 7, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "1904: serial 1 gives 1904-01-02",
			input:    1,
			date1904: true,
			want:     time.Date(1904, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			// 39813 + 1462 = 41275, the 1900-system serial of the same day.
			name:     "1904: serial 39813 gives 2013-01-01",
			input:    39813,
			date1904: true,
			want:     time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "1904: +Inf returns error",
			input:    math.Inf(1),
			date1904: true,
			wantErr:  true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := xlsx.ConvertDateEx(tc.input, tc.date1904)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("ConvertDateEx(%v, %v) = %v, want %v", tc.input, tc.date1904, got, tc.want)
			}
		})
	}
}

// ── IsDateFormat ──────────────────────────────────────────────────────────────

func TestIsDateFormat(t *testing.T) {
	tests := []struct {
		name      string
		id        int
		formatStr string
		want      bool
	}{
		{name: "built-in 14 (m/d/yy)", id: 14, want: true},
		{name: "built-in 22 (m/d/yy h:mm)", id: 22, want: true},
		{name: "built-in 0 (General)", id: 0, want: false},
		{name: "built-in 4 (#,##0.00)", id: 4, want: false},
		{name: "boundary 18 (time only)", id: 18, want: false},
		{name: "custom dd/mm/yyyy", id: 164, formatStr: "dd/mm/yyyy", want: true},
		{name: "custom 0.00E+00", id: 165, formatStr: "0.00E+00", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := xlsx.IsDateFormat(tc.id, tc.formatStr); got != tc.want {
				t.Errorf("IsDateFormat(%d, %q) = %v, want %v", tc.id, tc.formatStr, got, tc.want)
			}
		})
	}
}

// ── packages ──────────────────────────────────────────────────────────────────

func TestLoadSavePackageIsLossless(t *testing.T) {
	in := xlsxtest.Zip(t, xlsxtest.Book())
	p, err := xlsx.LoadPackage(in)
	require.NoError(t, err)

	out, err := xlsx.SavePackage(p)
	require.NoError(t, err)
	assert.Equal(t, xlsxtest.Unzip(t, in), xlsxtest.Unzip(t, out))
	assert.Equal(t, opc.StateSaved, p.State())
}

func TestLoadSavePackageAfterEdit(t *testing.T) {
	p, err := xlsx.LoadPackage(xlsxtest.Zip(t, xlsxtest.Book()))
	require.NoError(t, err)

	def := xlsx.Root(p, "/xl/pivotCache/pivotCacheDefinition1.xml")
	require.NotNil(t, def)
	require.NoError(t, def.SetBool("refreshOnLoad", true))
	assert.Nil(t, xlsx.Root(p, "/xl/missing.xml"))

	out, err := xlsx.SavePackage(p)
	require.NoError(t, err)
	files := xlsxtest.Unzip(t, out)
	assert.Contains(t, files["xl/pivotCache/pivotCacheDefinition1.xml"], `refreshOnLoad="1"`)
	assert.NotContains(t, files["xl/pivotCache/pivotCacheDefinition1.xml"], "saveData")
	assert.Equal(t, xlsxtest.Sheet1, files["xl/worksheets/sheet1.xml"], "untouched parts are copied")
}

func TestOpenReader(t *testing.T) {
	data := xlsxtest.Zip(t, xlsxtest.Book())
	wb, err := xlsx.OpenReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{"Data", "Report"}, wb.Sheets())
}

// ── interoperability ──────────────────────────────────────────────────────────

// TestExcelizeRoundTrip edits a workbook written by excelize and checks that
// excelize reads back both the original and the new cells.
func TestExcelizeRoundTrip(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "hello"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", 42))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	p, err := xlsx.LoadPackage(buf.Bytes())
	require.NoError(t, err)
	wb, err := workbook.FromPackage(p)
	require.NoError(t, err)
	ws, err := wb.SheetByName("Sheet1")
	require.NoError(t, err)
	require.NoError(t, ws.SetCell("C1", "added"))
	require.NoError(t, ws.SetCell("A2", 7.25))

	out, err := xlsx.SavePackage(p)
	require.NoError(t, err)

	g, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer g.Close()
	for ref, want := range map[string]string{"A1": "hello", "B1": "42", "C1": "added", "A2": "7.25"} {
		got, err := g.GetCellValue("Sheet1", ref)
		require.NoError(t, err)
		assert.Equal(t, want, got, ref)
	}
}
