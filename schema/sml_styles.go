package schema

import "github.com/TsubasaBE/go-xlsx/codec"

// Style sheet (CT_Stylesheet).  Number formats and cell formats are modelled
// for date detection; fonts, fills and borders stay opaque.

var (
	NumFmt = sml("numFmt",
		Required("numFmtId", codec.UnsignedInt),
		Required("formatCode", codec.Xstring),
	)

	NumFmts = sml("numFmts",
		Optional("count", codec.UnsignedInt),
		Many(NumFmt, 0),
	)

	Xf = sml("xf", Lax(),
		Optional("numFmtId", codec.UnsignedInt),
		Optional("fontId", codec.UnsignedInt),
		Optional("fillId", codec.UnsignedInt),
		Optional("borderId", codec.UnsignedInt),
		Optional("xfId", codec.UnsignedInt),
		Default("quotePrefix", codec.Boolean, "0"),
		Default("pivotButton", codec.Boolean, "0"),
		Optional("applyNumberFormat", codec.Boolean),
		Optional("applyFont", codec.Boolean),
		Optional("applyFill", codec.Boolean),
		Optional("applyBorder", codec.Boolean),
		Optional("applyAlignment", codec.Boolean),
		Optional("applyProtection", codec.Boolean),
		Maybe(smlOpaque("alignment")),
		Maybe(smlOpaque("protection")),
		Maybe(ExtLst),
	)

	CellStyleXfs = sml("cellStyleXfs",
		Optional("count", codec.UnsignedInt),
		Many(Xf, 1),
	)

	CellXfs = sml("cellXfs",
		Optional("count", codec.UnsignedInt),
		Many(Xf, 1),
	)

	StyleSheet = sml("styleSheet", Lax(),
		Maybe(NumFmts),
		Maybe(smlOpaque("fonts")),
		Maybe(smlOpaque("fills")),
		Maybe(smlOpaque("borders")),
		Maybe(CellStyleXfs),
		Maybe(CellXfs),
		Maybe(smlOpaque("cellStyles")),
		Maybe(smlOpaque("dxfs")),
		Maybe(smlOpaque("tableStyles")),
		Maybe(smlOpaque("colors")),
		Maybe(ExtLst),
	)
)
