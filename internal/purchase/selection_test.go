package purchase

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectionUpdatesBumpVersion(t *testing.T) {
	sel := NewSelection(CompanyCodeSingle)
	next := sel.SelectSupplier("100", "ACME")
	require.Equal(t, uint64(1), next.Version)
	require.Empty(t, sel.SupplierIDs)
	require.Equal(t, []string{"100"}, next.SupplierIDs)

	again := next.SelectSupplier("100", "ACME")
	require.Equal(t, uint64(2), again.Version)
	require.Equal(t, []string{"100"}, again.SupplierIDs)
}

func TestSelectionSupplierNamesStayAligned(t *testing.T) {
	sel := NewSelection(CompanyCodeSingle).
		SelectSupplier("100", "ACME").
		SelectSupplier("200", "Globex").
		SelectSupplier("300", "Initech").
		DeselectSupplier("200")
	require.Equal(t, []string{"100", "300"}, sel.SupplierIDs)
	require.Equal(t, []string{"ACME", "Initech"}, sel.SupplierNames)
	require.Equal(t, "ACME, Initech", sel.SupplierNamesDisplay())
}

func TestSelectionDoesNotShareBackingArrays(t *testing.T) {
	base := NewSelection(CompanyCodeSingle).SelectSupplier("100", "ACME").SelectSupplier("200", "Globex")
	trimmed := base.DeselectSupplier("100")
	require.Equal(t, []string{"100", "200"}, base.SupplierIDs)
	require.Equal(t, []string{"200"}, trimmed.SupplierIDs)
}

func TestApplySupplierDialog(t *testing.T) {
	sel := NewSelection(CompanyCodeSingle).SelectSupplier("100", "ACME")
	sel = sel.ApplySupplierDialog([]DialogItem{
		{ID: "100", Name: "ACME", Selected: false},
		{ID: "200", Name: "Globex", Selected: true},
		{ID: "300", Name: "Initech", Selected: false},
	})
	require.Equal(t, []string{"200"}, sel.SupplierIDs)
	require.Equal(t, []string{"Globex"}, sel.SupplierNames)

	before := sel.Version
	sel = sel.ApplySupplierDialog(nil)
	require.Equal(t, before+1, sel.Version)
}

func TestCompanyCodeSingleModeReplaces(t *testing.T) {
	sel := NewSelection(CompanyCodeSingle).
		SelectCompanyCode("1000", "Odyssey India").
		SelectCompanyCode("2000", "Odyssey Export")
	require.Equal(t, []string{"2000"}, sel.CompanyCodeIDs)
	require.Equal(t, "2000", sel.CompanyCode())
}

func TestCompanyCodeMultiModeAccumulates(t *testing.T) {
	sel := NewSelection(CompanyCodeMulti).ApplyCompanyCodeDialog([]DialogItem{
		{ID: "1000", Name: "Odyssey India", Selected: true},
		{ID: "2000", Name: "Odyssey Export", Selected: true},
		{ID: "1000", Name: "Odyssey India", Selected: true},
	})
	require.Equal(t, []string{"1000", "2000"}, sel.CompanyCodeIDs)
	require.Equal(t, "Odyssey India, Odyssey Export", sel.CompanyCodeNamesDisplay())

	sel = sel.DeselectCompanyCode("1000")
	require.Equal(t, "2000", sel.CompanyCode())
	require.True(t, sel.ClearCompanyCodes().CompanyCode() == "")
}

func TestParseCompanyCodeMode(t *testing.T) {
	mode, err := ParseCompanyCodeMode("")
	require.NoError(t, err)
	require.Equal(t, CompanyCodeSingle, mode)

	mode, err = ParseCompanyCodeMode(" MULTI ")
	require.NoError(t, err)
	require.Equal(t, CompanyCodeMulti, mode)

	_, err = ParseCompanyCodeMode("many")
	require.Error(t, err)
}

func TestWithDueDate(t *testing.T) {
	sel, err := NewSelection(CompanyCodeSingle).WithDueDate("20240331")
	require.NoError(t, err)
	require.Equal(t, "20240331", sel.DueDate)
	parsed, ok := sel.DueDateValue()
	require.True(t, ok)
	require.Equal(t, 2024, parsed.Year())

	bad, err := sel.WithDueDate("2024-03-31")
	require.Error(t, err)
	require.Empty(t, bad.DueDate)

	cleared, err := sel.WithDueDate("  ")
	require.NoError(t, err)
	require.Empty(t, cleared.DueDate)
	require.Empty(t, sel.ClearDueDate().DueDate)
}

func TestPeriodSettersCompact(t *testing.T) {
	sel := NewSelection(CompanyCodeSingle).
		WithFiscalYears("2023", " 2024 ", "2023", "").
		WithQuarters("Q1", "Q1").
		WithQuarterYears()
	require.Equal(t, []string{"2023", "2024"}, sel.FiscalYears)
	require.Equal(t, []string{"Q1"}, sel.Quarters)
	require.Nil(t, sel.QuarterYears)
}

func TestClearKeepsPolicy(t *testing.T) {
	sel := NewSelection(CompanyCodeMulti).
		SelectCompanyCode("1000", "Odyssey India").
		SelectSupplier("100", "ACME").
		WithFiscalYears("2024")
	cleared := sel.Clear()
	require.Equal(t, CompanyCodeMulti, cleared.CompanyCodeMode)
	require.Equal(t, sel.Version+1, cleared.Version)
	require.Empty(t, cleared.SupplierIDs)
	require.Empty(t, cleared.CompanyCodeIDs)
	require.Empty(t, cleared.FiscalYears)
	require.Empty(t, sel.ClearSuppliers().SupplierNames)
}
