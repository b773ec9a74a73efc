package purchase

import (
	"fmt"
)

// Resource is a logical report source exposed by the query service.
type Resource string

const (
	ResourceAllTurnover        Resource = "all-turnover"
	ResourceTop5Turnover       Resource = "top5-turnover"
	ResourceSingleTurnover     Resource = "single-turnover"
	ResourcePurchaseTurnover   Resource = "purchase-turnover"
	ResourceAllDue             Resource = "all-due"
	ResourceTop5Due            Resource = "top5-due"
	ResourceSingleDue          Resource = "single-due"
	ResourceTotalDue           Resource = "total-due"
	ResourceSingleDueQuarterFY Resource = "single-due-by-quarter"
	ResourceTotalDueQuarterFY  Resource = "total-due-by-quarter"
	ResourceSuppliers          Resource = "suppliers"
	ResourceCompanyCodes       Resource = "company-codes"
)

// Family groups resources sharing a field vocabulary.
type Family int

const (
	FamilyTurnover Family = iota
	FamilyDue
	FamilyDueQuarter
	FamilyMaster
)

// Family returns the vocabulary group of the resource.
func (r Resource) Family() Family {
	switch r {
	case ResourceAllDue, ResourceTop5Due, ResourceSingleDue, ResourceTotalDue:
		return FamilyDue
	case ResourceSingleDueQuarterFY, ResourceTotalDueQuarterFY:
		return FamilyDueQuarter
	case ResourceSuppliers, ResourceCompanyCodes:
		return FamilyMaster
	default:
		return FamilyTurnover
	}
}

// Slot names a dataset published to the presentation layer.
type Slot string

const (
	SlotAllTurnoverFiscalYear      Slot = "allTurnover.fiscalYearWise"
	SlotAllTurnoverQuarterly       Slot = "allTurnover.quarterlyWise"
	SlotTop5TurnoverFiscalYear     Slot = "top5Turnover.fiscalYearWise"
	SlotTop5TurnoverQuarterly      Slot = "top5Turnover.quarterlyWise"
	SlotSingleTurnoverFiscalYear   Slot = "singleTurnover.fiscalYearWise"
	SlotSingleTurnoverQuarterly    Slot = "singleTurnover.quarterlyWise"
	SlotPurchaseTurnoverFiscalYear Slot = "purchaseTurnover.fiscalYearWise"
	SlotPurchaseTurnoverQuarterly  Slot = "purchaseTurnover.quarterlyWise"
	SlotAllDue                     Slot = "allDue"
	SlotTop5Due                    Slot = "top5Due"
	SlotSingleDue                  Slot = "singleDue"
	SlotTotalDue                   Slot = "totalDue"
	SlotSingleDueQuarterFY         Slot = "singleDueQtrFY"
	SlotTotalDueQuarterFY          Slot = "totalDueQtrFY"
)

// AllSlots lists every dataset slot in display order.
func AllSlots() []Slot {
	return []Slot{
		SlotAllTurnoverFiscalYear, SlotAllTurnoverQuarterly,
		SlotTop5TurnoverFiscalYear, SlotTop5TurnoverQuarterly,
		SlotSingleTurnoverFiscalYear, SlotSingleTurnoverQuarterly,
		SlotPurchaseTurnoverFiscalYear, SlotPurchaseTurnoverQuarterly,
		SlotAllDue, SlotTop5Due, SlotSingleDue, SlotTotalDue,
		SlotSingleDueQuarterFY, SlotTotalDueQuarterFY,
	}
}

// ParseSlot validates a slot name.
func ParseSlot(s string) (Slot, error) {
	for _, slot := range AllSlots() {
		if string(slot) == s {
			return slot, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSlot, s)
}

// Flag names a boolean visibility switch read by the presentation layer.
type Flag string

const (
	FlagChart1          Flag = "isChartFragment1Visible"
	FlagChart2          Flag = "isChartFragment2Visible"
	FlagChart3          Flag = "isChartFragment3Visible"
	FlagChart4          Flag = "isChartFragment4Visible"
	FlagChart5          Flag = "isChartFragment5Visible"
	FlagChart6          Flag = "isChartFragment6Visible"
	FlagChart7          Flag = "isChartFragment7Visible"
	FlagChart8          Flag = "isChartFragment8Visible"
	FlagQuarterSelected Flag = "isQuarterSelected"
)

// DefaultFlags returns the visibility flags of a freshly loaded dashboard.
func DefaultFlags() map[Flag]bool {
	return map[Flag]bool{
		FlagChart1: true, FlagChart2: false,
		FlagChart3: true, FlagChart4: false,
		FlagChart5: true, FlagChart6: false,
		FlagChart7: true, FlagChart8: false,
		FlagQuarterSelected: false,
	}
}

// ChartSpec describes how a slot is drawn.
type ChartSpec struct {
	Title        string
	Palette      Palette
	Key          KeyFunc
	Context      ContextFunc
	Measure      func(Record) Decimal
	MeasureLabel string
}

// Route is the outcome of report selection for a view.
type Route struct {
	Resource Resource
	Slot     Slot
	// Show is set true and Hide false when the route is committed.
	Show Flag
	Hide Flag
	Sort Sorter
	// ShortNames enables short supplier names on the normalized rows.
	ShortNames bool
	// PageLimit caps the result size when positive.
	PageLimit int
	// DirectLookup reads a single entity by key instead of a filtered collection.
	DirectLookup bool
	Chart        ChartSpec
}

type turnoverEntry struct {
	resource      Resource
	fySlot, qSlot Slot
	fyFlag, qFlag Flag
}

var turnoverTable = map[SubScenario]turnoverEntry{
	AllSupplierTurnover:    {ResourceAllTurnover, SlotAllTurnoverFiscalYear, SlotAllTurnoverQuarterly, FlagChart1, FlagChart2},
	Top5SupplierTurnover:   {ResourceTop5Turnover, SlotTop5TurnoverFiscalYear, SlotTop5TurnoverQuarterly, FlagChart3, FlagChart4},
	SingleSupplierTurnover: {ResourceSingleTurnover, SlotSingleTurnoverFiscalYear, SlotSingleTurnoverQuarterly, FlagChart5, FlagChart6},
	PurchaseTurnover:       {ResourcePurchaseTurnover, SlotPurchaseTurnoverFiscalYear, SlotPurchaseTurnoverQuarterly, FlagChart7, FlagChart8},
}

func turnoverMeasure(r Record) Decimal { return r.TurnOver }

func amountMeasure(r Record) Decimal { return r.Amount }

// Select maps a view to the report it runs. Unknown turnover tabs fall back to
// purchase turnover, unknown due tabs to total outstanding and unknown
// due-by-quarter tabs to the single supplier report.
func Select(view View) (Route, error) {
	switch view.Mode {
	case ModeFiscalYearTurnover, ModeQuarterlyTurnover:
		sub := view.Turnover
		entry, ok := turnoverTable[sub]
		if !ok {
			sub = PurchaseTurnover
			entry = turnoverTable[PurchaseTurnover]
		}
		merged := sub == PurchaseTurnover
		route := Route{
			Resource:   entry.resource,
			Sort:       SortTurnover,
			ShortNames: !merged,
		}
		if view.Mode == ModeFiscalYearTurnover {
			route.Slot, route.Show, route.Hide = entry.fySlot, entry.fyFlag, entry.qFlag
			route.Chart = ChartSpec{
				Title:        "Fiscal Year Wise Turnover",
				Palette:      TurnoverPalette,
				Key:          FiscalYearKey(merged),
				Context:      fiscalYearContext(merged),
				Measure:      turnoverMeasure,
				MeasureLabel: "Turn Over (₹ Cr)",
			}
		} else {
			route.Slot, route.Show, route.Hide = entry.qSlot, entry.qFlag, entry.fyFlag
			route.Chart = ChartSpec{
				Title:        "Quarterly Wise Turnover",
				Palette:      QuarterlyPalette,
				Key:          QuarterlyKey(merged),
				Context:      quarterlyContext(merged),
				Measure:      turnoverMeasure,
				MeasureLabel: "Turn Over (₹ Cr)",
			}
		}
		return route, nil
	case ModeSupplierDueAsOfDate:
		route := Route{
			Sort: SortDue,
			Chart: ChartSpec{
				Title:        "Supplier Due As on Date",
				Palette:      TurnoverPalette,
				Key:          SupplierDueKey(),
				Context:      supplierDueContext,
				Measure:      amountMeasure,
				MeasureLabel: "Amount (₹ Cr)",
			},
		}
		switch view.SupplierDue {
		case AllSupplierOutstanding:
			route.Resource, route.Slot = ResourceAllDue, SlotAllDue
		case Top5SupplierOutstanding:
			route.Resource, route.Slot, route.PageLimit = ResourceTop5Due, SlotTop5Due, 5
		case SingleSupplierOutstanding:
			route.Resource, route.Slot, route.DirectLookup = ResourceSingleDue, SlotSingleDue, true
		default:
			route.Resource, route.Slot = ResourceTotalDue, SlotTotalDue
		}
		return route, nil
	case ModeSupplierDueQuarterFY:
		merged := view.SupplierDueQuarterFY == TotalOutstanding
		route := Route{
			Resource: ResourceSingleDueQuarterFY,
			Slot:     SlotSingleDueQuarterFY,
			Sort:     SortDueQuarterFY,
			Chart: ChartSpec{
				Title:        "Supplier Due As on Date Qtr/FY",
				Palette:      QuarterlyPalette,
				Key:          DueQuarterKey(merged),
				Context:      dueQuarterContext(merged),
				Measure:      amountMeasure,
				MeasureLabel: "Amount (₹ Cr)",
			},
		}
		if merged {
			route.Resource, route.Slot = ResourceTotalDueQuarterFY, SlotTotalDueQuarterFY
		}
		return route, nil
	default:
		return Route{}, fmt.Errorf("%w: mode %s", ErrNoRoute, view.Mode)
	}
}

// RouteForSlot returns the chart description of a slot, used when a stored
// dataset is rendered outside the fetch that produced it.
func RouteForSlot(slot Slot) (Route, error) {
	for _, view := range slotViews() {
		route, err := Select(view)
		if err != nil {
			return Route{}, err
		}
		if route.Slot == slot {
			return route, nil
		}
	}
	return Route{}, fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
}

func slotViews() []View {
	var views []View
	for _, mode := range []ReportMode{ModeFiscalYearTurnover, ModeQuarterlyTurnover} {
		for _, sub := range []SubScenario{AllSupplierTurnover, Top5SupplierTurnover, SingleSupplierTurnover, PurchaseTurnover} {
			v := DefaultView()
			v.Mode, v.Turnover = mode, sub
			views = append(views, v)
		}
	}
	for _, sub := range []SubScenario{AllSupplierOutstanding, Top5SupplierOutstanding, SingleSupplierOutstanding, TotalOutstanding} {
		v := DefaultView()
		v.Mode, v.SupplierDue = ModeSupplierDueAsOfDate, sub
		views = append(views, v)
	}
	for _, sub := range []SubScenario{SingleSupplierOutstanding, TotalOutstanding} {
		v := DefaultView()
		v.Mode, v.SupplierDueQuarterFY = ModeSupplierDueQuarterFY, sub
		views = append(views, v)
	}
	return views
}
