package purchase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectTurnoverRoutes(t *testing.T) {
	cases := []struct {
		mode       ReportMode
		sub        SubScenario
		resource   Resource
		slot       Slot
		show, hide Flag
	}{
		{ModeFiscalYearTurnover, AllSupplierTurnover, ResourceAllTurnover, SlotAllTurnoverFiscalYear, FlagChart1, FlagChart2},
		{ModeQuarterlyTurnover, AllSupplierTurnover, ResourceAllTurnover, SlotAllTurnoverQuarterly, FlagChart2, FlagChart1},
		{ModeFiscalYearTurnover, Top5SupplierTurnover, ResourceTop5Turnover, SlotTop5TurnoverFiscalYear, FlagChart3, FlagChart4},
		{ModeQuarterlyTurnover, SingleSupplierTurnover, ResourceSingleTurnover, SlotSingleTurnoverQuarterly, FlagChart6, FlagChart5},
		{ModeFiscalYearTurnover, PurchaseTurnover, ResourcePurchaseTurnover, SlotPurchaseTurnoverFiscalYear, FlagChart7, FlagChart8},
		{ModeQuarterlyTurnover, SubUnknown, ResourcePurchaseTurnover, SlotPurchaseTurnoverQuarterly, FlagChart8, FlagChart7},
	}
	for _, tc := range cases {
		view := DefaultView().WithMode(tc.mode)
		view.Turnover = tc.sub
		route, err := Select(view)
		require.NoError(t, err)
		require.Equal(t, tc.resource, route.Resource)
		require.Equal(t, tc.slot, route.Slot)
		require.Equal(t, tc.show, route.Show)
		require.Equal(t, tc.hide, route.Hide)
		require.NotNil(t, route.Sort)
	}
}

func TestSelectShortNamesExceptPurchase(t *testing.T) {
	view := DefaultView()
	route, err := Select(view)
	require.NoError(t, err)
	require.True(t, route.ShortNames)

	view.Turnover = PurchaseTurnover
	route, err = Select(view)
	require.NoError(t, err)
	require.False(t, route.ShortNames)
}

func TestSelectDueRoutes(t *testing.T) {
	view := DefaultView().WithMode(ModeSupplierDueAsOfDate)

	view.SupplierDue = Top5SupplierOutstanding
	route, err := Select(view)
	require.NoError(t, err)
	require.Equal(t, ResourceTop5Due, route.Resource)
	require.Equal(t, 5, route.PageLimit)

	view.SupplierDue = SingleSupplierOutstanding
	route, err = Select(view)
	require.NoError(t, err)
	require.True(t, route.DirectLookup)
	require.Equal(t, SlotSingleDue, route.Slot)

	view.SupplierDue = TotalOutstanding
	route, err = Select(view)
	require.NoError(t, err)
	require.Equal(t, ResourceTotalDue, route.Resource)
	require.Equal(t, "Supplier Due As on Date", route.Chart.Title)
}

func TestSelectDueQuarterFallsBackToSingle(t *testing.T) {
	view := DefaultView().WithMode(ModeSupplierDueQuarterFY)
	view.SupplierDueQuarterFY = SubUnknown
	route, err := Select(view)
	require.NoError(t, err)
	require.Equal(t, ResourceSingleDueQuarterFY, route.Resource)

	view.SupplierDueQuarterFY = TotalOutstanding
	route, err = Select(view)
	require.NoError(t, err)
	require.Equal(t, ResourceTotalDueQuarterFY, route.Resource)
	require.Equal(t, SlotTotalDueQuarterFY, route.Slot)
}

func TestSelectUnknownMode(t *testing.T) {
	_, err := Select(View{Mode: ReportMode(42)})
	require.True(t, errors.Is(err, ErrNoRoute))
}

func TestRouteForSlotCoversEverySlot(t *testing.T) {
	for _, slot := range AllSlots() {
		route, err := RouteForSlot(slot)
		require.NoError(t, err, slot)
		require.Equal(t, slot, route.Slot)
	}
	_, err := RouteForSlot("bogus")
	require.ErrorIs(t, err, ErrUnknownSlot)
}

func TestResourceFamilies(t *testing.T) {
	require.Equal(t, FamilyTurnover, ResourcePurchaseTurnover.Family())
	require.Equal(t, FamilyDue, ResourceSingleDue.Family())
	require.Equal(t, FamilyDueQuarter, ResourceTotalDueQuarterFY.Family())
	require.Equal(t, FamilyMaster, ResourceSuppliers.Family())
}
