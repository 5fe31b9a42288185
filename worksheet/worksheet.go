// Package worksheet reads and edits the cell grid of a single worksheet part.
package worksheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/TsubasaBE/go-xlsx/element"
	"github.com/TsubasaBE/go-xlsx/numfmt"
	"github.com/TsubasaBE/go-xlsx/opc"
	"github.com/TsubasaBE/go-xlsx/schema"
	"github.com/TsubasaBE/go-xlsx/stringtable"
	"github.com/TsubasaBE/go-xlsx/styles"
)

// Excel's largest row and column indices (0-based).
const (
	maxRow = 0xFFFFF
	maxCol = 0x3FFF
)

// Dimension describes the used range of a worksheet.
type Dimension struct {
	// R is the first row index (0-based).
	R int
	// C is the first column index (0-based).
	C int
	// H is the height (number of rows).
	H int
	// W is the width (number of columns).
	W int
}

// Ref returns the range in A1 notation.
func (d Dimension) Ref() string {
	return rangeRef(d.R, d.C, d.R+d.H-1, d.C+d.W-1)
}

// Col describes one col element.  C1 and C2 are the 0-based first and last
// column of the range it applies to (inclusive).
type Col struct {
	C1 int
	C2 int
	// Width is the column width in character units, 0 when not set.
	Width float64
	// Style is the cell format applied to blank cells in the range.
	Style  int
	Hidden bool
}

// MergeArea describes a merged cell range.  R and C are the 0-based row and
// column of the top-left anchor cell; H and W are always >= 1.
type MergeArea struct {
	R int
	C int
	H int
	W int
}

// Hyperlink is a link anchored on a cell range.  R and C are the 0-based
// row and column of the top-left cell; H and W are always >= 1.  Target is
// the URL of an external link, or the location (such as "Sheet2!A1") of a
// link within the workbook.
type Hyperlink struct {
	R      int
	C      int
	H      int
	W      int
	Target string
}

// Contains reports whether the 0-based cell (row, col) lies in the range.
func (h Hyperlink) Contains(row, col int) bool {
	return row >= h.R && row < h.R+h.H && col >= h.C && col < h.C+h.W
}

// Cell is a single worksheet cell.
type Cell struct {
	// R is the 0-based row index of the cell.
	R int
	// C is the 0-based column index of the cell.
	C int
	// V holds the typed cell value. The dynamic type is one of:
	//   - nil      blank / empty cell
	//   - string   text, formula-string result, or Excel error string (e.g. "#DIV/0!")
	//   - float64  numeric value, date serial, or formula-float result
	//   - bool     boolean value
	V any
	// Style is the cell's index into the cellXfs table.
	Style int
	// Formula is the cell's formula text without the leading "=", if any.
	Formula string
}

// Worksheet is a view over the parsed tree of one worksheet part.  Reads
// walk the tree; SetCell edits it in place.
type Worksheet struct {
	// Name is the display name of the worksheet as it appears on the sheet tab.
	Name string
	// Part is the absolute name of the worksheet part.
	Part string
	// Dimension describes the used range of the worksheet. It is nil when
	// the part has no dimension element.
	Dimension *Dimension
	// Cols contains the column definitions of the sheet.
	Cols []Col
	// Hyperlinks lists the hyperlinks of the sheet in document order.  Use
	// HyperlinkAt to look up the target of one cell.
	Hyperlinks []Hyperlink
	// MergeCells contains all merged-cell ranges defined in the sheet.
	MergeCells []MergeArea

	pkg      *opc.Package
	root     *element.Node
	sst      *stringtable.StringTable // may be nil
	styles   styles.StyleTable
	date1904 bool
}

// New returns the view over the worksheet part partName of pkg.  st may be
// nil when the workbook has no shared strings.
func New(name string, pkg *opc.Package, partName string, st *stringtable.StringTable, xfs styles.StyleTable, date1904 bool) (*Worksheet, error) {
	pt, ok := pkg.Part(partName)
	if !ok {
		return nil, fmt.Errorf("worksheet: no part %s", partName)
	}
	if pt.Root == nil || pt.Root.Type() != schema.Worksheet {
		return nil, fmt.Errorf("worksheet: part %s is not a worksheet", partName)
	}
	ws := &Worksheet{
		Name:     name,
		Part:     pt.Name,
		pkg:      pkg,
		root:     pt.Root,
		sst:      st,
		styles:   xfs,
		date1904: date1904,
	}
	if err := ws.parse(); err != nil {
		return nil, err
	}
	return ws, nil
}

// HyperlinkAt returns the target of the first hyperlink covering the 0-based
// cell (row, col).
func (ws *Worksheet) HyperlinkAt(row, col int) (string, bool) {
	for _, h := range ws.Hyperlinks {
		if h.Contains(row, col) {
			return h.Target, true
		}
	}
	return "", false
}

// Root returns the worksheet element.
func (ws *Worksheet) Root() *element.Node { return ws.root }

// IsDateCell reports whether the given style index maps to a date or time
// number format.
func (ws *Worksheet) IsDateCell(style int) bool {
	return ws.styles.IsDate(style)
}

// Rows iterates over the worksheet rows in order, calling yield for each one.
//
// When sparse is false empty rows between used rows are emitted as slices of
// nil-valued Cells, and every row spans at least the used range.  When sparse
// is true only rows present in the part are yielded, and each holds only the
// cells present in the part.
//
// Merged-cell regions are reflected as stored: only the anchor cell carries
// a value.
func (ws *Worksheet) Rows(sparse bool) func(yield func([]Cell) bool) {
	return func(yield func([]Cell) bool) {
		data := ws.root.Child("sheetData")
		if data == nil {
			return
		}
		width := 1
		if d := ws.Dimension; d != nil {
			width = d.C + d.W
		}

		rowNum := -1
		for _, rn := range data.Children("row") {
			r := rowNum + 1
			if rn.Specified("r") {
				r = int(rn.Uint("r")) - 1
			}
			if r <= rowNum || r > maxRow {
				continue
			}
			if !sparse {
				for rowNum < r-1 {
					rowNum++
					if !yield(emptyRow(rowNum, width)) {
						return
					}
				}
			}
			rowNum = r

			var row []Cell
			if !sparse {
				row = emptyRow(r, width)
			}
			col := -1
			for _, cn := range rn.Children("c") {
				c := ws.cell(cn, r, col+1)
				if c.C > maxCol {
					continue
				}
				col = c.C
				if sparse {
					row = append(row, c)
					continue
				}
				for len(row) <= c.C {
					row = append(row, Cell{R: r, C: len(row)})
				}
				row[c.C] = c
			}
			if !yield(row) {
				return
			}
		}
	}
}

// Cell returns the cell at ref, e.g. "B4".  A cell absent from the part is
// returned with a nil value.
func (ws *Worksheet) Cell(ref string) (Cell, error) {
	col, row, err := excelize.CellNameToCoordinates(ref)
	if err != nil {
		return Cell{}, fmt.Errorf("worksheet: %w", err)
	}
	if cn := ws.find(row-1, col-1); cn != nil {
		return ws.cell(cn, row-1, col-1), nil
	}
	return Cell{R: row - 1, C: col - 1}, nil
}

// SetCell stores v in the cell at ref, creating the row and cell elements
// when needed.  v may be nil (clears the value), a string, a bool, any Go
// integer or float type, or a time.Time, which is stored as a date serial.
// Strings go to the shared-string table when the workbook has one.  Any
// formula of the cell is removed.
func (ws *Worksheet) SetCell(ref string, v any) error {
	col, row, err := excelize.CellNameToCoordinates(ref)
	if err != nil {
		return fmt.Errorf("worksheet: %w", err)
	}
	if !supported(v) {
		return fmt.Errorf("worksheet: %s: unsupported cell value type %T", ref, v)
	}
	cn, err := ws.ensure(row-1, col-1)
	if err != nil {
		return fmt.Errorf("worksheet: %s: %w", ref, err)
	}
	if err := ws.store(cn, v); err != nil {
		return fmt.Errorf("worksheet: %s: %w", ref, err)
	}
	if err := ws.grow(row-1, col-1); err != nil {
		return err
	}
	ws.pkg.MarkModified()
	return nil
}

// ── internal helpers ──────────────────────────────────────────────────────────

func emptyRow(rowNum, width int) []Cell {
	if width <= 0 {
		width = 1
	}
	cells := make([]Cell, width)
	for i := range cells {
		cells[i] = Cell{R: rowNum, C: i}
	}
	return cells
}

// cell decodes a c element.  col is the column implied by its position when
// it has no r attribute.
func (ws *Worksheet) cell(cn *element.Node, row, col int) Cell {
	if cn.Specified("r") {
		if c, _, err := excelize.CellNameToCoordinates(cn.Str("r")); err == nil {
			col = c - 1
		}
	}
	c := Cell{R: row, C: col, Style: int(cn.Uint("s")), V: ws.value(cn)}
	if f := cn.Child("f"); f != nil {
		c.Formula = f.Text()
	}
	return c
}

// value returns the typed value of a c element.
func (ws *Worksheet) value(cn *element.Node) any {
	t := cn.Str("t")
	if t == "inlineStr" {
		if is := cn.Child("is"); is != nil {
			return stringtable.Text(is)
		}
		return nil
	}
	vn := cn.Child("v")
	if vn == nil {
		return nil
	}
	text := vn.Text()
	switch t {
	case "s":
		idx, err := strconv.ParseUint(strings.TrimSpace(text), 10, 32)
		if err == nil && ws.sst != nil && idx < uint64(ws.sst.Len()) {
			return ws.sst.Get(int(idx))
		}
		return fmt.Sprintf("<%s>", text)
	case "b":
		return text == "1" || text == "true"
	case "str", "e":
		return text
	}
	if text == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return text
	}
	return f
}

// rowNodes returns the row elements with their 0-based row numbers.
func rowNodes(data *element.Node) ([]*element.Node, []int) {
	rows := data.Children("row")
	nums := make([]int, len(rows))
	prev := -1
	for i, rn := range rows {
		n := prev + 1
		if rn.Specified("r") {
			n = int(rn.Uint("r")) - 1
		}
		nums[i], prev = n, n
	}
	return rows, nums
}

// cellNodes returns the c elements of a row with their 0-based columns.
func cellNodes(rn *element.Node) ([]*element.Node, []int) {
	cells := rn.Children("c")
	cols := make([]int, len(cells))
	prev := -1
	for i, cn := range cells {
		n := prev + 1
		if cn.Specified("r") {
			if c, _, err := excelize.CellNameToCoordinates(cn.Str("r")); err == nil {
				n = c - 1
			}
		}
		cols[i], prev = n, n
	}
	return cells, cols
}

func (ws *Worksheet) find(row, col int) *element.Node {
	data := ws.root.Child("sheetData")
	if data == nil {
		return nil
	}
	rows, nums := rowNodes(data)
	for i, rn := range rows {
		if nums[i] != row {
			continue
		}
		cells, cols := cellNodes(rn)
		for j, cn := range cells {
			if cols[j] == col {
				return cn
			}
		}
	}
	return nil
}

// ensure returns the c element at (row, col), creating it and its row in
// document order.
func (ws *Worksheet) ensure(row, col int) (*element.Node, error) {
	data := ws.root.Child("sheetData")
	if data == nil {
		var err error
		if data, err = ws.root.AddChild("sheetData"); err != nil {
			return nil, err
		}
	}

	rows, nums := rowNodes(data)
	var rn *element.Node
	for i := range rows {
		if nums[i] == row {
			rn = rows[i]
			break
		}
	}
	if rn == nil {
		rn = element.New(schema.Row)
		if err := rn.SetUint("r", uint64(row+1)); err != nil {
			return nil, err
		}
		if err := insertOrdered(data, rows, nums, rn, row, setRowNum); err != nil {
			return nil, err
		}
	}

	cells, cols := cellNodes(rn)
	for i, cn := range cells {
		if cols[i] == col {
			return cn, nil
		}
	}
	cn := element.New(schema.Cell)
	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return nil, err
	}
	if err := cn.SetStr("r", name); err != nil {
		return nil, err
	}
	if err := insertOrdered(rn, cells, cols, cn, col, setCellRef(row)); err != nil {
		return nil, err
	}
	return cn, nil
}

func setRowNum(n *element.Node, pos int) error { return n.SetUint("r", uint64(pos+1)) }

func setCellRef(row int) func(*element.Node, int) error {
	return func(n *element.Node, pos int) error {
		name, err := excelize.CoordinatesToCellName(pos+1, row+1)
		if err != nil {
			return err
		}
		return n.SetStr("r", name)
	}
}

// insertOrdered places n at position pos among siblings (whose positions
// are given by at).  Siblings after it are detached and re-appended, with
// their position made explicit so it no longer depends on document order.
func insertOrdered(parent *element.Node, siblings []*element.Node, at []int, n *element.Node, pos int, fix func(*element.Node, int) error) error {
	var tail []*element.Node
	var tailPos []int
	for i, s := range siblings {
		if at[i] > pos {
			tail = append(tail, s)
			tailPos = append(tailPos, at[i])
			parent.Remove(s)
		}
	}
	if err := parent.Append(n); err != nil {
		return err
	}
	for i, s := range tail {
		if err := fix(s, tailPos[i]); err != nil {
			return err
		}
		if err := parent.Append(s); err != nil {
			return err
		}
	}
	return nil
}

func supported(v any) bool {
	switch v.(type) {
	case nil, string, bool, time.Time, float64, float32,
		int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// store replaces the value of a c element with v.
func (ws *Worksheet) store(cn *element.Node, v any) error {
	for _, name := range []string{"f", "v", "is"} {
		if c := cn.Child(name); c != nil {
			cn.Remove(c)
		}
	}
	cn.Unset("t")

	var num float64
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if ws.sst == nil {
			if err := cn.SetStr("t", "inlineStr"); err != nil {
				return err
			}
			is, err := cn.AddChild("is")
			if err != nil {
				return err
			}
			t, err := is.AddChild("t")
			if err != nil {
				return err
			}
			return stringtable.SetText(t, x)
		}
		idx, err := ws.sst.Add(x)
		if err != nil {
			return err
		}
		if err := ws.sst.Ref(); err != nil {
			return err
		}
		if err := cn.SetStr("t", "s"); err != nil {
			return err
		}
		return setV(cn, strconv.Itoa(idx))
	case bool:
		if err := cn.SetStr("t", "b"); err != nil {
			return err
		}
		if x {
			return setV(cn, "1")
		}
		return setV(cn, "0")
	case time.Time:
		num = numfmt.FromTime(x, ws.date1904)
	case float64:
		num = x
	case float32:
		num = float64(x)
	case int:
		num = float64(x)
	case int8:
		num = float64(x)
	case int16:
		num = float64(x)
	case int32:
		num = float64(x)
	case int64:
		num = float64(x)
	case uint:
		num = float64(x)
	case uint8:
		num = float64(x)
	case uint16:
		num = float64(x)
	case uint32:
		num = float64(x)
	case uint64:
		num = float64(x)
	default:
		return fmt.Errorf("unsupported cell value type %T", v)
	}
	return setV(cn, strconv.FormatFloat(num, 'f', -1, 64))
}

func setV(cn *element.Node, text string) error {
	vn, err := cn.AddChild("v")
	if err != nil {
		return err
	}
	return vn.SetText(text)
}

// grow extends the dimension element to cover (row, col).
func (ws *Worksheet) grow(row, col int) error {
	dn := ws.root.Child("dimension")
	if dn == nil || ws.Dimension == nil {
		return nil
	}
	d := *ws.Dimension
	r2, c2 := d.R+d.H-1, d.C+d.W-1
	d.R, d.C = min(d.R, row), min(d.C, col)
	r2, c2 = max(r2, row), max(c2, col)
	d.H, d.W = r2-d.R+1, c2-d.C+1
	if d == *ws.Dimension {
		return nil
	}
	if err := dn.SetStr("ref", d.Ref()); err != nil {
		return fmt.Errorf("worksheet: dimension: %w", err)
	}
	ws.Dimension = &d
	return nil
}

// parse reads the dimension, column definitions, merged ranges and
// hyperlinks.
func (ws *Worksheet) parse() error {
	if dn := ws.root.Child("dimension"); dn != nil {
		r1, c1, r2, c2, err := parseRange(dn.Str("ref"))
		if err == nil {
			ws.Dimension = &Dimension{R: r1, C: c1, H: r2 - r1 + 1, W: c2 - c1 + 1}
		}
	}

	for _, cols := range ws.root.Children("cols") {
		for _, cn := range cols.Children("col") {
			lo, hi := int(cn.Uint("min")), int(cn.Uint("max"))
			if lo < 1 || hi < lo || hi > maxCol+1 {
				return fmt.Errorf("worksheet: %s: col range %d:%d out of bounds", ws.Part, lo, hi)
			}
			ws.Cols = append(ws.Cols, Col{
				C1:     lo - 1,
				C2:     hi - 1,
				Width:  cn.Float("width"),
				Style:  int(cn.Uint("style")),
				Hidden: cn.Bool("hidden"),
			})
		}
	}

	if mc := ws.root.Child("mergeCells"); mc != nil {
		for _, m := range mc.Children("mergeCell") {
			r1, c1, r2, c2, err := parseRange(m.Str("ref"))
			if err != nil {
				return fmt.Errorf("worksheet: %s: mergeCell: %w", ws.Part, err)
			}
			ws.MergeCells = append(ws.MergeCells, MergeArea{R: r1, C: c1, H: r2 - r1 + 1, W: c2 - c1 + 1})
		}
	}

	if hl := ws.root.Child("hyperlinks"); hl != nil {
		for _, h := range hl.Children("hyperlink") {
			r1, c1, r2, c2, err := parseRange(h.Str("ref"))
			if err != nil {
				return fmt.Errorf("worksheet: %s: hyperlink: %w", ws.Part, err)
			}
			target := h.Str("location")
			if id := h.Str("r:id"); id != "" {
				if rel, ok := ws.pkg.Relationship(ws.Part, id); ok {
					target = rel.Target
				}
			}
			ws.Hyperlinks = append(ws.Hyperlinks, Hyperlink{R: r1, C: c1, H: r2 - r1 + 1, W: c2 - c1 + 1, Target: target})
		}
	}
	return nil
}

// parseRange decodes "A1" or "A1:C4" to 0-based inclusive bounds.
func parseRange(ref string) (r1, c1, r2, c2 int, err error) {
	first, last, found := strings.Cut(ref, ":")
	if !found {
		last = first
	}
	col1, row1, err := excelize.CellNameToCoordinates(first)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	col2, row2, err := excelize.CellNameToCoordinates(last)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if row2 < row1 {
		row1, row2 = row2, row1
	}
	if col2 < col1 {
		col1, col2 = col2, col1
	}
	return row1 - 1, col1 - 1, row2 - 1, col2 - 1, nil
}

func rangeRef(r1, c1, r2, c2 int) string {
	first, _ := excelize.CoordinatesToCellName(c1+1, r1+1)
	if r1 == r2 && c1 == c2 {
		return first
	}
	last, _ := excelize.CoordinatesToCellName(c2+1, r2+1)
	return first + ":" + last
}
