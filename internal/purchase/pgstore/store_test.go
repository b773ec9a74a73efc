package pgstore

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/purchase-insights/internal/purchase"
)

func TestWhereNumbersPlaceholders(t *testing.T) {
	filters := purchase.Filters{
		purchase.AllOf(
			purchase.AnyOf(purchase.FilterFiscalQuarter, "Q1", "Q2"),
			purchase.AnyOf(purchase.FilterQuarterYear, "2024"),
		),
		purchase.Eq(purchase.FilterCompanyCode, "1000"),
	}
	clause, args, err := Where(turnoverFields, filters, 1)
	require.NoError(t, err)
	require.Equal(t, " WHERE ((fiscal_quarter = $1 OR fiscal_quarter = $2) AND (quarter_year = $3)) AND company_code = $4", clause)
	require.Equal(t, []any{"Q1", "Q2", "2024", "1000"}, args)
}

func TestWhereEmpty(t *testing.T) {
	clause, args, err := Where(turnoverFields, nil, 1)
	require.NoError(t, err)
	require.Empty(t, clause)
	require.Nil(t, args)
}

func TestWhereRejectsUnknownField(t *testing.T) {
	_, _, err := Where(turnoverFields, purchase.Filters{purchase.Eq(purchase.FilterDueDate, "20240101")}, 1)
	require.Error(t, err)
}

func TestBuildQueryTop5DueOrdersAndLimits(t *testing.T) {
	sql, args, err := BuildQuery(purchase.Query{
		Resource: purchase.ResourceTop5Due,
		Filters: purchase.Filters{
			purchase.Eq(purchase.FilterCompanyCode, "1000"),
			purchase.Eq(purchase.FilterDueDate, "20240331"),
		},
		PageLimit: 5,
	})
	require.NoError(t, err)
	require.Contains(t, sql, "FROM rpt_supplier_outstanding WHERE company_code = $1 AND due_date = $2 ORDER BY amount DESC NULLS LAST LIMIT $3")
	require.Equal(t, []any{"1000", "20240331", 5}, args)
}

func TestBuildQueryDueQuarterUsesPeriodColumns(t *testing.T) {
	sel := purchase.NewSelection(purchase.CompanyCodeSingle).
		SelectCompanyCode("1000", "Main").
		SelectSupplier("100", "ACME").
		WithQuarters("Q4").
		WithQuarterYears("2023")
	view := purchase.DefaultView().WithMode(purchase.ModeSupplierDueQuarterFY)
	built := purchase.BuildDueQuarterFYFilters(sel, view)

	sql, args, err := BuildQuery(purchase.Query{Resource: purchase.ResourceSingleDueQuarterFY, Filters: built.Filters})
	require.NoError(t, err)
	require.Contains(t, sql, "FROM rpt_supplier_outstanding_period WHERE (supplier_id = $1) AND company_code = $2 AND (fiscal_year = $3) AND (period = $4)")
	require.Equal(t, []any{"100", "1000", "2023", "Q4"}, args)
}

func TestBuildQueryUnknownResource(t *testing.T) {
	_, _, err := BuildQuery(purchase.Query{Resource: purchase.ResourceSuppliers})
	require.Error(t, err)
}

func TestBuildMasterQuery(t *testing.T) {
	sql, args, err := BuildMasterQuery(purchase.ResourceSuppliers, purchase.Filters{purchase.Eq(purchase.FilterCompanyCode, "1000")})
	require.NoError(t, err)
	require.Equal(t, "SELECT DISTINCT supplier_id, COALESCE(supplier_name, '') FROM rpt_supplier WHERE company_code = $1", sql)
	require.Equal(t, []any{"1000"}, args)

	_, _, err = BuildMasterQuery(purchase.ResourceAllDue, nil)
	require.Error(t, err)
}

func TestMigrateURL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@localhost:5432/db?sslmode=disable", migrateURL("postgres://u:p@localhost:5432/db?sslmode=disable"))
	require.Equal(t, "pgx5://h/db", migrateURL("postgresql://h/db"))
}

func TestSeedRowsMapColumns(t *testing.T) {
	turnover, err := turnoverRows([]purchase.Record{{SupplierCode: "100", Supplier: "ACME", CompanyCode: "1000", FiscalYear: "2024", TurnOver: "1500.25"}})
	require.NoError(t, err)
	require.Len(t, turnover, 1)
	require.Equal(t, []any{"100", "ACME", "1000", "2024", "", ""}, turnover[0][:6])
	amount := turnover[0][6].(pgtype.Numeric)
	require.True(t, amount.Valid)

	outstanding, err := outstandingRows([]SeedOutstanding{{Record: purchase.Record{CompanyCode: "1000", DueDate: "20240331"}, Total: true}})
	require.NoError(t, err)
	require.Equal(t, "X", outstanding[0][4])
	require.False(t, outstanding[0][5].(pgtype.Numeric).Valid)

	_, err = periodRows([]purchase.Record{{Amount: "lots"}})
	require.Error(t, err)
}

func TestSeedCompanyCodesAreDistinct(t *testing.T) {
	codes := seedCompanyCodes(SeedData{
		CompanyCodes: []purchase.MasterItem{{Code: "1000"}},
		Turnover:     []purchase.Record{{CompanyCode: "1000"}, {CompanyCode: "2000"}},
		Outstanding:  []SeedOutstanding{{Record: purchase.Record{CompanyCode: "3000"}}},
	})
	require.Equal(t, []string{"1000", "2000", "3000"}, codes)
}
