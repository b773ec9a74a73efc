package purchase

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModeFromIndex(t *testing.T) {
	mode, err := ModeFromIndex(2)
	require.NoError(t, err)
	require.Equal(t, ModeSupplierDueAsOfDate, mode)

	_, err = ModeFromIndex(4)
	require.Error(t, err)
}

func TestParseReportMode(t *testing.T) {
	mode, err := ParseReportMode(" Quarterly_Turnover ")
	require.NoError(t, err)
	require.Equal(t, ModeQuarterlyTurnover, mode)

	_, err = ParseReportMode("monthly")
	require.Error(t, err)
	require.Equal(t, "mode(9)", ReportMode(9).String())
}

func TestSubScenarioLabels(t *testing.T) {
	require.Equal(t, Top5SupplierOutstanding, ParseSubScenario("top 5 supplier outstanding"))
	require.Equal(t, SubUnknown, ParseSubScenario("Everything"))
	require.True(t, SingleSupplierTurnover.IsSingleSupplier())
	require.True(t, TotalOutstanding.IsMerged())
	require.False(t, AllSupplierOutstanding.IsMerged())
}

func TestViewWithTab(t *testing.T) {
	view := DefaultView().WithTab(TabsSupplierDue, "scenario2")
	require.Equal(t, Top5SupplierOutstanding, view.SupplierDue)
	require.Equal(t, AllSupplierTurnover, view.Turnover)

	view = view.WithTab(TabsSupplierDueQuarterFY, "scenario2")
	require.Equal(t, TotalOutstanding, view.SupplierDueQuarterFY)

	view = view.WithTab(TabsTurnover, "scenario9")
	require.Equal(t, SubUnknown, view.Turnover)
}

func TestViewActiveFollowsMode(t *testing.T) {
	view := DefaultView()
	require.Equal(t, AllSupplierTurnover, view.Active())
	require.Equal(t, AllSupplierOutstanding, view.WithMode(ModeSupplierDueAsOfDate).Active())
	require.Equal(t, SingleSupplierOutstanding, view.WithMode(ModeSupplierDueQuarterFY).Active())
	require.Equal(t, TabsSupplierDueQuarterFY, GroupForMode(ModeSupplierDueQuarterFY))
}

func TestViewJSONRoundTripsNames(t *testing.T) {
	view := DefaultView().WithMode(ModeSupplierDueQuarterFY)
	raw, err := json.Marshal(view)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"mode":"supplier_due_quarter_fy"`)
	require.Contains(t, string(raw), `"turnover":"All Supplier Turnover"`)

	var decoded View
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, view, decoded)
}
