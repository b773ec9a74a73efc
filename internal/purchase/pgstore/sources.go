package pgstore

import (
	"fmt"

	"github.com/odyssey-erp/purchase-insights/internal/purchase"
)

type column struct {
	expr string
	set  func(r *purchase.Record, v string)
}

type source struct {
	table   string
	columns []column
	fields  map[purchase.FilterField]string
	orderBy string
}

var (
	colSupplierName = column{"COALESCE(supplier_name, '')", func(r *purchase.Record, v string) { r.Supplier = v }}
	colSupplierID   = column{"COALESCE(supplier_id, '')", func(r *purchase.Record, v string) { r.SupplierCode = v }}
	colDueName      = column{"COALESCE(supplier_name, '')", func(r *purchase.Record, v string) { r.SupplierName = v }}
	colCompanyCode  = column{"COALESCE(company_code, '')", func(r *purchase.Record, v string) { r.CompanyCode = v }}
	colFiscalYear   = column{"COALESCE(fiscal_year, '')", func(r *purchase.Record, v string) { r.FiscalYear = v }}
	colQuarter      = column{"COALESCE(fiscal_quarter, '')", func(r *purchase.Record, v string) { r.Quarter = v }}
	colQuarterYear  = column{"COALESCE(quarter_year, '')", func(r *purchase.Record, v string) { r.QuarterYear = v }}
	colDueDate      = column{"COALESCE(due_date, '')", func(r *purchase.Record, v string) { r.DueDate = v }}
	colYear         = column{"COALESCE(fiscal_year, '')", func(r *purchase.Record, v string) { r.Year = v }}
	colPeriod       = column{"COALESCE(period, '')", func(r *purchase.Record, v string) { r.Period = v }}
	colTurnover     = column{"COALESCE(turnover::text, '')", func(r *purchase.Record, v string) { r.TurnOver = purchase.Decimal(v) }}
	colAmount       = column{"COALESCE(amount::text, '')", func(r *purchase.Record, v string) { r.Amount = purchase.Decimal(v) }}
)

var (
	turnoverFields = map[purchase.FilterField]string{
		purchase.FilterSupplier:      "supplier_id",
		purchase.FilterCompanyCode:   "company_code",
		purchase.FilterFiscalYear:    "fiscal_year",
		purchase.FilterFiscalQuarter: "fiscal_quarter",
		purchase.FilterQuarterYear:   "quarter_year",
	}
	dueFields = map[purchase.FilterField]string{
		purchase.FilterSupplier:         "supplier_id",
		purchase.FilterCompanyCode:      "company_code",
		purchase.FilterDueDate:          "due_date",
		purchase.FilterTotalOutstanding: "total_outstanding",
	}
	dueQuarterFields = map[purchase.FilterField]string{
		purchase.FilterSupplier:    "supplier_id",
		purchase.FilterCompanyCode: "company_code",
		purchase.FilterFiscalYear:  "fiscal_year",
		purchase.FilterPeriod:      "period",
	}
)

var supplierTurnoverColumns = []column{colSupplierName, colSupplierID, colCompanyCode, colFiscalYear, colQuarter, colQuarterYear, colTurnover}

var dueColumns = []column{colSupplierID, colDueName, colCompanyCode, colDueDate, colAmount}

var sources = map[purchase.Resource]source{
	purchase.ResourceAllTurnover:    {table: "rpt_supplier_turnover", columns: supplierTurnoverColumns, fields: turnoverFields},
	purchase.ResourceTop5Turnover:   {table: "rpt_supplier_turnover_top5", columns: supplierTurnoverColumns, fields: turnoverFields},
	purchase.ResourceSingleTurnover: {table: "rpt_supplier_turnover", columns: supplierTurnoverColumns, fields: turnoverFields},
	purchase.ResourcePurchaseTurnover: {
		table:   "rpt_purchase_turnover",
		columns: []column{colCompanyCode, colFiscalYear, colQuarter, colQuarterYear, colTurnover},
		fields:  turnoverFields,
	},
	purchase.ResourceAllDue:    {table: "rpt_supplier_outstanding", columns: dueColumns, fields: dueFields},
	purchase.ResourceTop5Due:   {table: "rpt_supplier_outstanding", columns: dueColumns, fields: dueFields, orderBy: "amount DESC NULLS LAST"},
	purchase.ResourceSingleDue: {table: "rpt_supplier_outstanding", columns: dueColumns, fields: dueFields},
	purchase.ResourceTotalDue:  {table: "rpt_supplier_outstanding", columns: dueColumns, fields: dueFields},
	purchase.ResourceSingleDueQuarterFY: {
		table:   "rpt_supplier_outstanding_period",
		columns: []column{colSupplierID, colDueName, colCompanyCode, colYear, colPeriod, colAmount},
		fields:  dueQuarterFields,
	},
	purchase.ResourceTotalDueQuarterFY: {
		table:   "rpt_outstanding_period_total",
		columns: []column{colCompanyCode, colYear, colPeriod, colAmount},
		fields:  dueQuarterFields,
	},
}

func sourceFor(resource purchase.Resource) (source, error) {
	src, ok := sources[resource]
	if !ok {
		return source{}, fmt.Errorf("pgstore: no source for resource %q", resource)
	}
	return src, nil
}
