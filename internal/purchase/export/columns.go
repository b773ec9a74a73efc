package export

import (
	"strings"

	"github.com/odyssey-erp/purchase-insights/internal/purchase"
)

// Column is one exported field of a dataset.
type Column struct {
	Header string
	Value  func(purchase.Record) string
	// Measure marks crore amounts, written as numbers.
	Measure bool
}

// Columns returns the export layout of a slot.
func Columns(slot purchase.Slot) ([]Column, error) {
	route, err := purchase.RouteForSlot(slot)
	if err != nil {
		return nil, err
	}
	switch route.Resource.Family() {
	case purchase.FamilyDue:
		return []Column{
			{Header: "Supplier Code", Value: func(r purchase.Record) string { return r.SupplierCode }},
			{Header: "Supplier Name", Value: func(r purchase.Record) string { return r.SupplierName }},
			{Header: "Company Code", Value: func(r purchase.Record) string { return r.CompanyCode }},
			{Header: "Due Date", Value: func(r purchase.Record) string { return r.DueDate }},
			{Header: route.Chart.MeasureLabel, Value: func(r purchase.Record) string { return string(r.Amount) }, Measure: true},
		}, nil
	case purchase.FamilyDueQuarter:
		return []Column{
			{Header: "Supplier Code", Value: func(r purchase.Record) string { return r.SupplierCode }},
			{Header: "Supplier Name", Value: func(r purchase.Record) string { return r.SupplierName }},
			{Header: "Year", Value: func(r purchase.Record) string { return r.Year }},
			{Header: "Quarter", Value: func(r purchase.Record) string { return r.Period }},
			{Header: route.Chart.MeasureLabel, Value: func(r purchase.Record) string { return string(r.Amount) }, Measure: true},
		}, nil
	}
	cols := []Column{
		{Header: "Supplier", Value: func(r purchase.Record) string { return r.Supplier }},
	}
	if strings.HasSuffix(string(slot), ".fiscalYearWise") {
		cols = append(cols, Column{Header: "Fiscal Year", Value: func(r purchase.Record) string { return r.FiscalYear }})
	} else {
		cols = append(cols,
			Column{Header: "Quarter", Value: func(r purchase.Record) string { return r.Quarter }},
			Column{Header: "Quarter Year", Value: func(r purchase.Record) string { return r.QuarterYear }},
		)
	}
	return append(cols, Column{Header: route.Chart.MeasureLabel, Value: func(r purchase.Record) string { return string(r.TurnOver) }, Measure: true}), nil
}
