package schema

import "github.com/TsubasaBE/go-xlsx/codec"

// Pivot cache definition, cache records and pivot table definition.

var (
	stSourceType = codec.Enum("ST_SourceType", "worksheet", "external", "consolidation", "scenario")

	stAxis = codec.Enum("ST_Axis", "axisRow", "axisCol", "axisPage", "axisValues")

	stItemType = codec.Enum("ST_ItemType",
		"data", "default", "sum", "countA", "avg", "max", "min", "product",
		"count", "stdDev", "stdDevP", "var", "varP", "grand", "blank")

	stDataConsolidateFunction = codec.Enum("ST_DataConsolidateFunction",
		"average", "count", "countNums", "max", "min", "product",
		"stdDev", "stdDevp", "sum", "var", "varp")

	stShowDataAs = codec.Enum("ST_ShowDataAs",
		"normal", "difference", "percent", "percentDiff", "runTotal",
		"percentOfRow", "percentOfCol", "percentOfTotal", "index")

	// StPivotFilterType is the closed set of pivot filter kinds.
	StPivotFilterType = codec.Enum("ST_PivotFilterType",
		"unknown", "count", "percent", "sum",
		"captionEqual", "captionNotEqual",
		"captionBeginsWith", "captionNotBeginsWith",
		"captionEndsWith", "captionNotEndsWith",
		"captionContains", "captionNotContains",
		"captionGreaterThan", "captionGreaterThanOrEqual",
		"captionLessThan", "captionLessThanOrEqual",
		"captionBetween", "captionNotBetween",
		"valueEqual", "valueNotEqual",
		"valueGreaterThan", "valueGreaterThanOrEqual",
		"valueLessThan", "valueLessThanOrEqual",
		"valueBetween", "valueNotBetween",
		"dateEqual", "dateNotEqual", "dateOlderThan", "dateOlderThanOrEqual",
		"dateNewerThan", "dateNewerThanOrEqual", "dateBetween", "dateNotBetween",
		"tomorrow", "today", "yesterday",
		"nextWeek", "thisWeek", "lastWeek",
		"nextMonth", "thisMonth", "lastMonth",
		"nextQuarter", "thisQuarter", "lastQuarter",
		"nextYear", "thisYear", "lastYear", "yearToDate",
		"Q1", "Q2", "Q3", "Q4",
		"M1", "M2", "M3", "M4", "M5", "M6", "M7", "M8", "M9", "M10", "M11", "M12")
)

// ── cache definition ──────────────────────────────────────────────────────────

var (
	WorksheetSource = sml("worksheetSource",
		Optional("ref", codec.Ref),
		Optional("name", codec.Xstring),
		Optional("sheet", codec.Xstring),
		RelID(UseOptional),
	)

	Consolidation = sml("consolidation",
		Default("autoPage", codec.Boolean, "1"),
		Maybe(smlOpaque("pages")),
		One(smlOpaque("rangeSets")),
	)

	CacheSource = sml("cacheSource",
		Required("type", stSourceType),
		Default("connectionId", codec.UnsignedInt, "0"),
		Choice("source", 0, 1, WorksheetSource, Consolidation, ExtLst),
	)

	SharedItems = sml("sharedItems",
		Default("containsSemiMixedTypes", codec.Boolean, "1"),
		Default("containsNonDate", codec.Boolean, "1"),
		Default("containsDate", codec.Boolean, "0"),
		Default("containsString", codec.Boolean, "1"),
		Default("containsBlank", codec.Boolean, "0"),
		Default("containsMixedTypes", codec.Boolean, "0"),
		Default("containsNumber", codec.Boolean, "0"),
		Default("containsInteger", codec.Boolean, "0"),
		Optional("minValue", codec.Double),
		Optional("maxValue", codec.Double),
		Optional("minDate", codec.DateTime),
		Optional("maxDate", codec.DateTime),
		Optional("count", codec.UnsignedInt),
		Default("longText", codec.Boolean, "0"),
		Choice("items", 0, Unbounded, ItemMissing, ItemNumber, ItemBoolean, ItemError, ItemString, ItemDate),
	)

	CacheField = sml("cacheField",
		Required("name", codec.Xstring),
		Optional("caption", codec.Xstring),
		Optional("propertyName", codec.Xstring),
		Default("serverField", codec.Boolean, "0"),
		Default("uniqueList", codec.Boolean, "1"),
		Optional("numFmtId", codec.UnsignedInt),
		Optional("formula", codec.Xstring),
		Default("sqlType", codec.Int, "0"),
		Default("hierarchy", codec.Int, "0"),
		Default("level", codec.UnsignedInt, "0"),
		Default("databaseField", codec.Boolean, "1"),
		Optional("mappingCount", codec.UnsignedInt),
		Default("memberPropertyField", codec.Boolean, "0"),
		Maybe(SharedItems),
		Maybe(smlOpaque("fieldGroup")),
		Many(smlOpaque("mpMap"), 0),
		Maybe(ExtLst),
	)

	CacheFields = sml("cacheFields",
		Optional("count", codec.UnsignedInt),
		Many(CacheField, 1),
	)

	PivotCacheDefinition = sml("pivotCacheDefinition",
		RelID(UseOptional),
		Default("invalid", codec.Boolean, "0"),
		Default("saveData", codec.Boolean, "1"),
		Default("refreshOnLoad", codec.Boolean, "0"),
		Default("optimizeMemory", codec.Boolean, "0"),
		Default("enableRefresh", codec.Boolean, "1"),
		Optional("refreshedBy", codec.Xstring),
		Optional("refreshedDate", codec.Double),
		Optional("refreshedDateIso", codec.DateTime),
		Default("backgroundQuery", codec.Boolean, "0"),
		Optional("missingItemsLimit", codec.UnsignedInt),
		Default("createdVersion", codec.UnsignedByte, "0"),
		Default("refreshedVersion", codec.UnsignedByte, "0"),
		Default("minRefreshableVersion", codec.UnsignedByte, "0"),
		Optional("recordCount", codec.UnsignedInt),
		Default("upgradeOnRefresh", codec.Boolean, "0"),
		Default("tupleCache", codec.Boolean, "0"),
		Default("supportSubquery", codec.Boolean, "0"),
		Default("supportAdvancedDrill", codec.Boolean, "0"),
		One(CacheSource),
		One(CacheFields),
		Maybe(smlOpaque("cacheHierarchies")),
		Maybe(smlOpaque("kpis")),
		// The tupleCache child shares its name with the attribute above.
		Maybe(smlOpaque("tupleCache")),
		Maybe(smlOpaque("calculatedItems")),
		Maybe(smlOpaque("calculatedMembers")),
		Maybe(smlOpaque("dimensions")),
		Maybe(smlOpaque("measureGroups")),
		Maybe(smlOpaque("maps")),
		Maybe(ExtLst),
	)
)

// ── cache items and records ───────────────────────────────────────────────────

// itemAttrs are the formatting attributes every cached item may carry.
func itemAttrs() []Option {
	return []Option{
		Optional("u", codec.Boolean),
		Optional("f", codec.Boolean),
		Optional("c", codec.Xstring),
		Optional("cp", codec.UnsignedInt),
	}
}

func item(name string, opts ...Option) *ElementType {
	opts = append([]Option{Lax()}, opts...)
	return sml(name, append(opts, itemAttrs()...)...)
}

var (
	ItemMissing = item("m")
	ItemNumber  = item("n", Required("v", codec.Double))
	ItemBoolean = item("b", Required("v", codec.Boolean))
	ItemError   = item("e", Required("v", codec.Xstring))
	ItemString  = item("s", Required("v", codec.Xstring))
	ItemDate    = item("d", Required("v", codec.DateTime))
	// ItemIndex refers to a shared item of the same field by position.
	ItemIndex = sml("x", Required("v", codec.UnsignedInt))

	Record = sml("r",
		Choice("values", 0, Unbounded, ItemMissing, ItemNumber, ItemBoolean, ItemError, ItemString, ItemDate, ItemIndex),
	)

	PivotCacheRecords = sml("pivotCacheRecords",
		Optional("count", codec.UnsignedInt),
		Many(Record, 0),
		Maybe(ExtLst),
	)
)

// ── pivot table definition ────────────────────────────────────────────────────

var (
	Location = sml("location",
		Required("ref", codec.Ref),
		Required("firstHeaderRow", codec.UnsignedInt),
		Required("firstDataRow", codec.UnsignedInt),
		Required("firstDataCol", codec.UnsignedInt),
		Default("rowPageCount", codec.UnsignedInt, "0"),
		Default("colPageCount", codec.UnsignedInt, "0"),
	)

	Item = sml("item",
		Optional("n", codec.Xstring),
		Default("t", stItemType, "data"),
		Default("h", codec.Boolean, "0"),
		Default("s", codec.Boolean, "0"),
		Default("sd", codec.Boolean, "1"),
		Default("f", codec.Boolean, "0"),
		Default("m", codec.Boolean, "0"),
		Default("c", codec.Boolean, "0"),
		Optional("x", codec.UnsignedInt),
		Default("d", codec.Boolean, "0"),
		Default("e", codec.Boolean, "1"),
	)

	Items = sml("items",
		Optional("count", codec.UnsignedInt),
		Many(Item, 1),
	)

	PivotField = sml("pivotField", Lax(),
		Optional("name", codec.Xstring),
		Optional("axis", stAxis),
		Default("dataField", codec.Boolean, "0"),
		Optional("subtotalCaption", codec.Xstring),
		Default("showDropDowns", codec.Boolean, "1"),
		Default("hiddenLevel", codec.Boolean, "0"),
		Optional("uniqueMemberProperty", codec.Xstring),
		Default("compact", codec.Boolean, "1"),
		Default("allDrilled", codec.Boolean, "0"),
		Optional("numFmtId", codec.UnsignedInt),
		Default("outline", codec.Boolean, "1"),
		Default("subtotalTop", codec.Boolean, "1"),
		Default("dragToRow", codec.Boolean, "1"),
		Default("dragToCol", codec.Boolean, "1"),
		Default("multipleItemSelectionAllowed", codec.Boolean, "0"),
		Default("dragToPage", codec.Boolean, "1"),
		Default("dragToData", codec.Boolean, "1"),
		Default("dragOff", codec.Boolean, "1"),
		Default("showAll", codec.Boolean, "1"),
		Default("insertBlankRow", codec.Boolean, "0"),
		Default("serverField", codec.Boolean, "0"),
		Default("insertPageBreak", codec.Boolean, "0"),
		Default("autoShow", codec.Boolean, "0"),
		Default("topAutoShow", codec.Boolean, "1"),
		Default("hideNewItems", codec.Boolean, "0"),
		Default("measureFilter", codec.Boolean, "0"),
		Default("includeNewItemsInFilter", codec.Boolean, "0"),
		Default("itemPageCount", codec.UnsignedInt, "10"),
		Default("sortType", codec.Enum("ST_FieldSortType", "manual", "ascending", "descending"), "manual"),
		Optional("dataSourceSort", codec.Boolean),
		Default("nonAutoSortDefault", codec.Boolean, "0"),
		Optional("rankBy", codec.UnsignedInt),
		Default("defaultSubtotal", codec.Boolean, "1"),
		Default("sumSubtotal", codec.Boolean, "0"),
		Default("countASubtotal", codec.Boolean, "0"),
		Default("avgSubtotal", codec.Boolean, "0"),
		Default("maxSubtotal", codec.Boolean, "0"),
		Default("minSubtotal", codec.Boolean, "0"),
		Default("productSubtotal", codec.Boolean, "0"),
		Default("countSubtotal", codec.Boolean, "0"),
		Default("stdDevSubtotal", codec.Boolean, "0"),
		Default("stdDevPSubtotal", codec.Boolean, "0"),
		Default("varSubtotal", codec.Boolean, "0"),
		Default("varPSubtotal", codec.Boolean, "0"),
		Default("showPropCell", codec.Boolean, "0"),
		Default("showPropTip", codec.Boolean, "0"),
		Default("showPropAsCaption", codec.Boolean, "0"),
		Default("defaultAttributeDrillState", codec.Boolean, "0"),
		Maybe(Items),
		Maybe(smlOpaque("autoSortScope")),
		Maybe(ExtLst),
	)

	PivotFields = sml("pivotFields",
		Optional("count", codec.UnsignedInt),
		Many(PivotField, 1),
	)

	Field = sml("field", Required("x", codec.Int))

	RowFields = sml("rowFields",
		Optional("count", codec.UnsignedInt),
		Many(Field, 1),
	)

	ColFields = sml("colFields",
		Optional("count", codec.UnsignedInt),
		Many(Field, 1),
	)

	DataField = sml("dataField",
		Optional("name", codec.Xstring),
		Required("fld", codec.UnsignedInt),
		Default("subtotal", stDataConsolidateFunction, "sum"),
		Default("showDataAs", stShowDataAs, "normal"),
		Default("baseField", codec.Int, "-1"),
		Default("baseItem", codec.UnsignedInt, "1048832"),
		Optional("numFmtId", codec.UnsignedInt),
		Maybe(ExtLst),
	)

	DataFields = sml("dataFields",
		Optional("count", codec.UnsignedInt),
		Many(DataField, 1),
	)

	PivotTableStyleInfo = sml("pivotTableStyleInfo",
		Optional("name", codec.String),
		Optional("showRowHeaders", codec.Boolean),
		Optional("showColHeaders", codec.Boolean),
		Optional("showRowStripes", codec.Boolean),
		Optional("showColStripes", codec.Boolean),
		Optional("showLastColumn", codec.Boolean),
	)

	PivotFilter = sml("filter",
		Required("fld", codec.UnsignedInt),
		Optional("mpFld", codec.UnsignedInt),
		Required("type", StPivotFilterType),
		Default("evalOrder", codec.Int, "0"),
		Required("id", codec.UnsignedInt),
		Optional("iMeasureHier", codec.UnsignedInt),
		Optional("iMeasureFld", codec.UnsignedInt),
		Optional("name", codec.Xstring),
		Optional("description", codec.Xstring),
		Optional("stringValue1", codec.Xstring),
		Optional("stringValue2", codec.Xstring),
		One(smlOpaque("autoFilter")),
		Maybe(ExtLst),
	)

	PivotFilters = sml("filters",
		Optional("count", codec.UnsignedInt),
		Many(PivotFilter, 0),
	)

	PivotTableDefinition = sml("pivotTableDefinition", Lax(),
		Required("name", codec.Xstring),
		Required("cacheId", codec.UnsignedInt),
		Default("dataOnRows", codec.Boolean, "0"),
		Optional("dataPosition", codec.UnsignedInt),
		Optional("autoFormatId", codec.UnsignedInt),
		Optional("applyNumberFormats", codec.Boolean),
		Optional("applyBorderFormats", codec.Boolean),
		Optional("applyFontFormats", codec.Boolean),
		Optional("applyPatternFormats", codec.Boolean),
		Optional("applyAlignmentFormats", codec.Boolean),
		Optional("applyWidthHeightFormats", codec.Boolean),
		Required("dataCaption", codec.Xstring),
		Optional("grandTotalCaption", codec.Xstring),
		Optional("errorCaption", codec.Xstring),
		Default("showError", codec.Boolean, "0"),
		Optional("missingCaption", codec.Xstring),
		Default("showMissing", codec.Boolean, "1"),
		Optional("pageStyle", codec.Xstring),
		Optional("pivotTableStyle", codec.Xstring),
		Optional("vacatedStyle", codec.Xstring),
		Optional("tag", codec.Xstring),
		Default("updatedVersion", codec.UnsignedByte, "0"),
		Default("minRefreshableVersion", codec.UnsignedByte, "0"),
		Default("asteriskTotals", codec.Boolean, "0"),
		Default("showItems", codec.Boolean, "1"),
		Default("editData", codec.Boolean, "0"),
		Default("disableFieldList", codec.Boolean, "0"),
		Default("showCalcMbrs", codec.Boolean, "1"),
		Default("visualTotals", codec.Boolean, "1"),
		Default("showMultipleLabel", codec.Boolean, "1"),
		Default("showDataDropDown", codec.Boolean, "1"),
		Default("showDrill", codec.Boolean, "1"),
		Default("printDrill", codec.Boolean, "0"),
		Default("showMemberPropertyTips", codec.Boolean, "1"),
		Default("showDataTips", codec.Boolean, "1"),
		Default("enableWizard", codec.Boolean, "1"),
		Default("enableDrill", codec.Boolean, "1"),
		Default("enableFieldProperties", codec.Boolean, "1"),
		Default("preserveFormatting", codec.Boolean, "1"),
		Default("useAutoFormatting", codec.Boolean, "0"),
		Default("pageWrap", codec.UnsignedInt, "0"),
		Default("pageOverThenDown", codec.Boolean, "0"),
		Default("subtotalHiddenItems", codec.Boolean, "0"),
		Default("rowGrandTotals", codec.Boolean, "1"),
		Default("colGrandTotals", codec.Boolean, "1"),
		Default("fieldPrintTitles", codec.Boolean, "0"),
		Default("itemPrintTitles", codec.Boolean, "0"),
		Default("mergeItem", codec.Boolean, "0"),
		Default("showDropZones", codec.Boolean, "1"),
		Default("createdVersion", codec.UnsignedByte, "0"),
		Default("indent", codec.UnsignedInt, "1"),
		Default("showEmptyRow", codec.Boolean, "0"),
		Default("showEmptyCol", codec.Boolean, "0"),
		Default("showHeaders", codec.Boolean, "1"),
		Default("compact", codec.Boolean, "1"),
		Default("outline", codec.Boolean, "0"),
		Default("outlineData", codec.Boolean, "0"),
		Default("compactData", codec.Boolean, "1"),
		Default("published", codec.Boolean, "0"),
		Default("gridDropZones", codec.Boolean, "0"),
		Default("immersive", codec.Boolean, "1"),
		Default("multipleFieldFilters", codec.Boolean, "1"),
		Default("chartFormat", codec.UnsignedInt, "0"),
		Optional("rowHeaderCaption", codec.Xstring),
		Optional("colHeaderCaption", codec.Xstring),
		Default("fieldListSortAscending", codec.Boolean, "0"),
		Default("mdxSubqueries", codec.Boolean, "0"),
		Default("customListSort", codec.Boolean, "1"),
		One(Location),
		Maybe(PivotFields),
		Maybe(RowFields),
		Maybe(smlOpaque("rowItems")),
		Maybe(ColFields),
		Maybe(smlOpaque("colItems")),
		Maybe(smlOpaque("pageFields")),
		Maybe(DataFields),
		Maybe(smlOpaque("formats")),
		Maybe(smlOpaque("conditionalFormats")),
		Maybe(smlOpaque("chartFormats")),
		Maybe(smlOpaque("pivotHierarchies")),
		Maybe(PivotTableStyleInfo),
		Maybe(PivotFilters),
		Maybe(smlOpaque("rowHierarchiesUsage")),
		Maybe(smlOpaque("colHierarchiesUsage")),
		Maybe(ExtLst),
	)
)
