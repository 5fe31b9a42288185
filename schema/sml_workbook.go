package schema

import "github.com/TsubasaBE/go-xlsx/codec"

// Workbook part (CT_Workbook).

var (
	FileVersion = sml("fileVersion", Lax(),
		Optional("appName", codec.String),
		Optional("lastEdited", codec.String),
		Optional("lowestEdited", codec.String),
		Optional("rupBuild", codec.String),
		Optional("codeName", codec.String),
	)

	WorkbookPr = sml("workbookPr", Lax(),
		Default("date1904", codec.Boolean, "0"),
		Default("showObjects", codec.Enum("ST_Objects", "all", "placeholders", "none"), "all"),
		Default("showBorderUnselectedTables", codec.Boolean, "1"),
		Default("filterPrivacy", codec.Boolean, "0"),
		Default("promptedSolutions", codec.Boolean, "0"),
		Default("showInkAnnotation", codec.Boolean, "1"),
		Default("backupFile", codec.Boolean, "0"),
		Default("saveExternalLinkValues", codec.Boolean, "1"),
		Default("updateLinks", codec.Enum("ST_UpdateLinks", "userSet", "never", "always"), "userSet"),
		Optional("codeName", codec.String),
		Default("hidePivotFieldList", codec.Boolean, "0"),
		Default("showPivotChartFilter", codec.Boolean, "0"),
		Default("allowRefreshQuery", codec.Boolean, "0"),
		Default("publishItems", codec.Boolean, "0"),
		Default("checkCompatibility", codec.Boolean, "0"),
		Default("autoCompressPictures", codec.Boolean, "1"),
		Default("refreshAllConnections", codec.Boolean, "0"),
		Optional("defaultThemeVersion", codec.UnsignedInt),
	)

	WorkbookView = sml("workbookView", Lax(),
		Default("visibility", stVisibility, "visible"),
		Default("minimized", codec.Boolean, "0"),
		Default("showHorizontalScroll", codec.Boolean, "1"),
		Default("showVerticalScroll", codec.Boolean, "1"),
		Default("showSheetTabs", codec.Boolean, "1"),
		Optional("xWindow", codec.Int),
		Optional("yWindow", codec.Int),
		Optional("windowWidth", codec.UnsignedInt),
		Optional("windowHeight", codec.UnsignedInt),
		Default("tabRatio", codec.UnsignedInt, "600"),
		Default("firstSheet", codec.UnsignedInt, "0"),
		Default("activeTab", codec.UnsignedInt, "0"),
		Default("autoFilterDateGrouping", codec.Boolean, "1"),
		Maybe(ExtLst),
	)

	BookViews = sml("bookViews", Many(WorkbookView, 1))

	Sheet = sml("sheet",
		Required("name", codec.Xstring),
		Required("sheetId", codec.UnsignedInt),
		Default("state", codec.Enum("ST_SheetState", "visible", "hidden", "veryHidden"), "visible"),
		RelID(UseRequired),
	)

	Sheets = sml("sheets", Many(Sheet, 1))

	DefinedName = sml("definedName",
		Text(codec.String),
		Required("name", codec.String),
		Optional("comment", codec.Xstring),
		Optional("customMenu", codec.Xstring),
		Optional("description", codec.Xstring),
		Optional("help", codec.Xstring),
		Optional("statusBar", codec.Xstring),
		Optional("localSheetId", codec.UnsignedInt),
		Default("hidden", codec.Boolean, "0"),
		Default("function", codec.Boolean, "0"),
		Default("vbProcedure", codec.Boolean, "0"),
		Default("xlm", codec.Boolean, "0"),
		Optional("functionGroupId", codec.UnsignedInt),
		Optional("shortcutKey", codec.Xstring),
		Default("publishToServer", codec.Boolean, "0"),
		Default("workbookParameter", codec.Boolean, "0"),
	)

	DefinedNames = sml("definedNames", Many(DefinedName, 0))

	CalcPr = sml("calcPr", Lax(),
		Optional("calcId", codec.UnsignedInt),
		Default("calcMode", codec.Enum("ST_CalcMode", "manual", "auto", "autoNoTable"), "auto"),
		Default("fullCalcOnLoad", codec.Boolean, "0"),
		Default("refMode", codec.Enum("ST_RefMode", "A1", "R1C1"), "A1"),
		Default("iterate", codec.Boolean, "0"),
		Default("iterateCount", codec.UnsignedInt, "100"),
		Default("iterateDelta", codec.Double, "0.001"),
		Default("fullPrecision", codec.Boolean, "1"),
		Default("calcCompleted", codec.Boolean, "1"),
		Default("calcOnSave", codec.Boolean, "1"),
		Default("concurrentCalc", codec.Boolean, "1"),
		Optional("concurrentManualCount", codec.UnsignedInt),
		Optional("forceFullCalc", codec.Boolean),
	)

	PivotCache = sml("pivotCache",
		Required("cacheId", codec.UnsignedInt),
		RelID(UseRequired),
	)

	PivotCaches = sml("pivotCaches", Many(PivotCache, 1))

	Workbook = sml("workbook", Lax(),
		Optional("conformance", codec.Enum("ST_ConformanceClass", "strict", "transitional")),
		Maybe(FileVersion),
		Maybe(smlOpaque("fileSharing")),
		Maybe(WorkbookPr),
		Maybe(smlOpaque("workbookProtection")),
		Maybe(BookViews),
		One(Sheets),
		Maybe(smlOpaque("functionGroups")),
		Maybe(smlOpaque("externalReferences")),
		Maybe(DefinedNames),
		Maybe(CalcPr),
		Maybe(smlOpaque("oleSize")),
		Maybe(smlOpaque("customWorkbookViews")),
		Maybe(PivotCaches),
		Maybe(smlOpaque("smartTagPr")),
		Maybe(smlOpaque("smartTagTypes")),
		Maybe(smlOpaque("webPublishing")),
		Many(smlOpaque("fileRecoveryPr"), 0),
		Maybe(smlOpaque("webPublishObjects")),
		Maybe(ExtLst),
	)
)
