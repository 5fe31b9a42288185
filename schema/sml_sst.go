package schema

import "github.com/TsubasaBE/go-xlsx/codec"

// Shared string table (CT_Sst) and rich text (CT_Rst).

var (
	// T is the text run element.  xml:space="preserve" is kept as written.
	T = sml("t",
		Text(codec.Xstring),
		Qualified(NSXML, "space", stSpace, UseOptional),
	)

	RichRun = sml("r",
		Maybe(smlOpaque("rPr")),
		One(T),
	)

	PhoneticRun = sml("rPh",
		Required("sb", codec.UnsignedInt),
		Required("eb", codec.UnsignedInt),
		One(T),
	)

	PhoneticPr = smlOpaque("phoneticPr")

	StringItem = sml("si", rstContent()...)

	SST = sml("sst",
		Optional("count", codec.UnsignedInt),
		Optional("uniqueCount", codec.UnsignedInt),
		Many(StringItem, 0),
		Maybe(ExtLst),
	)
)

// rstContent is the content model shared by <si> and the inline <is>.
func rstContent() []Option {
	return []Option{
		Maybe(T),
		Many(RichRun, 0),
		Many(PhoneticRun, 0),
		Maybe(PhoneticPr),
	}
}
