package schema

import "github.com/TsubasaBE/go-xlsx/codec"

// Worksheet part (CT_Worksheet).  Only the cell grid, columns, merges and
// relationship-bearing children are modelled; formatting blocks are opaque
// slots so their position in the sequence is still known.

var (
	Dimension = sml("dimension", Required("ref", codec.Ref))

	SheetFormatPr = sml("sheetFormatPr", Lax(),
		Default("baseColWidth", codec.UnsignedInt, "8"),
		Optional("defaultColWidth", codec.Double),
		Optional("defaultRowHeight", codec.Double),
		Default("customHeight", codec.Boolean, "0"),
		Default("zeroHeight", codec.Boolean, "0"),
		Default("thickTop", codec.Boolean, "0"),
		Default("thickBottom", codec.Boolean, "0"),
		Default("outlineLevelRow", codec.UnsignedByte, "0"),
		Default("outlineLevelCol", codec.UnsignedByte, "0"),
	)

	Col = sml("col",
		Required("min", codec.UnsignedInt),
		Required("max", codec.UnsignedInt),
		Optional("width", codec.Double),
		Default("style", codec.UnsignedInt, "0"),
		Default("hidden", codec.Boolean, "0"),
		Default("bestFit", codec.Boolean, "0"),
		Default("customWidth", codec.Boolean, "0"),
		Default("phonetic", codec.Boolean, "0"),
		Default("outlineLevel", codec.UnsignedByte, "0"),
		Default("collapsed", codec.Boolean, "0"),
	)

	Cols = sml("cols", Many(Col, 1))

	Formula = sml("f",
		Text(codec.String),
		Default("t", codec.Enum("ST_CellFormulaType", "normal", "array", "dataTable", "shared"), "normal"),
		Default("aca", codec.Boolean, "0"),
		Optional("ref", codec.Ref),
		Default("dt2D", codec.Boolean, "0"),
		Default("dtr", codec.Boolean, "0"),
		Default("del1", codec.Boolean, "0"),
		Default("del2", codec.Boolean, "0"),
		Optional("r1", codec.Ref),
		Optional("r2", codec.Ref),
		Default("ca", codec.Boolean, "0"),
		Optional("si", codec.UnsignedInt),
		Default("bx", codec.Boolean, "0"),
	)

	CellValue = sml("v", Text(codec.Xstring))

	InlineString = sml("is", rstContent()...)

	Cell = sml("c",
		Optional("r", codec.Ref),
		Default("s", codec.UnsignedInt, "0"),
		Default("t", stCellType, "n"),
		Default("cm", codec.UnsignedInt, "0"),
		Default("vm", codec.UnsignedInt, "0"),
		Default("ph", codec.Boolean, "0"),
		Maybe(Formula),
		Maybe(CellValue),
		Maybe(InlineString),
		Maybe(ExtLst),
	)

	Row = sml("row", Lax(),
		Optional("r", codec.UnsignedInt),
		Optional("spans", codec.String),
		Default("s", codec.UnsignedInt, "0"),
		Default("customFormat", codec.Boolean, "0"),
		Optional("ht", codec.Double),
		Default("hidden", codec.Boolean, "0"),
		Default("customHeight", codec.Boolean, "0"),
		Default("outlineLevel", codec.UnsignedByte, "0"),
		Default("collapsed", codec.Boolean, "0"),
		Default("thickTop", codec.Boolean, "0"),
		Default("thickBot", codec.Boolean, "0"),
		Default("ph", codec.Boolean, "0"),
		Many(Cell, 0),
		Maybe(ExtLst),
	)

	SheetData = sml("sheetData", Many(Row, 0))

	MergeCell = sml("mergeCell", Required("ref", codec.Ref))

	MergeCells = sml("mergeCells",
		Optional("count", codec.UnsignedInt),
		Many(MergeCell, 1),
	)

	Hyperlink = sml("hyperlink", Lax(),
		Required("ref", codec.Ref),
		RelID(UseOptional),
		Optional("location", codec.Xstring),
		Optional("tooltip", codec.Xstring),
		Optional("display", codec.Xstring),
	)

	Hyperlinks = sml("hyperlinks", Many(Hyperlink, 1))

	Drawing         = sml("drawing", RelID(UseRequired))
	LegacyDrawing   = sml("legacyDrawing", RelID(UseRequired))
	LegacyDrawingHF = sml("legacyDrawingHF", RelID(UseRequired))
	Picture         = sml("picture", RelID(UseRequired))

	TablePart = sml("tablePart", RelID(UseRequired))

	TableParts = sml("tableParts",
		Optional("count", codec.UnsignedInt),
		Many(TablePart, 0),
	)

	Worksheet = sml("worksheet", Lax(),
		Maybe(smlOpaque("sheetPr")),
		Maybe(Dimension),
		Maybe(smlOpaque("sheetViews")),
		Maybe(SheetFormatPr),
		Many(Cols, 0),
		One(SheetData),
		Maybe(smlOpaque("sheetCalcPr")),
		Maybe(smlOpaque("sheetProtection")),
		Maybe(smlOpaque("protectedRanges")),
		Maybe(smlOpaque("scenarios")),
		Maybe(smlOpaque("autoFilter")),
		Maybe(smlOpaque("sortState")),
		Maybe(smlOpaque("dataConsolidate")),
		Maybe(smlOpaque("customSheetViews")),
		Maybe(MergeCells),
		Maybe(smlOpaque("phoneticPr")),
		Many(smlOpaque("conditionalFormatting"), 0),
		Maybe(smlOpaque("dataValidations")),
		Maybe(Hyperlinks),
		Maybe(smlOpaque("printOptions")),
		Maybe(smlOpaque("pageMargins")),
		Maybe(smlOpaque("pageSetup")),
		Maybe(smlOpaque("headerFooter")),
		Maybe(smlOpaque("rowBreaks")),
		Maybe(smlOpaque("colBreaks")),
		Maybe(smlOpaque("customProperties")),
		Maybe(smlOpaque("cellWatches")),
		Maybe(smlOpaque("ignoredErrors")),
		Maybe(smlOpaque("smartTags")),
		Maybe(Drawing),
		Maybe(LegacyDrawing),
		Maybe(LegacyDrawingHF),
		Maybe(smlOpaque("drawingHF")),
		Maybe(Picture),
		Maybe(smlOpaque("oleObjects")),
		Maybe(smlOpaque("controls")),
		Maybe(smlOpaque("webPublishItems")),
		Maybe(TableParts),
		Maybe(ExtLst),
	)
)
