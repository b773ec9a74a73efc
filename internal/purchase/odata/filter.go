package odata

import (
	"fmt"
	"strings"

	"github.com/odyssey-erp/purchase-insights/internal/purchase"
)

var wireFields = map[purchase.Family]map[purchase.FilterField]string{
	purchase.FamilyTurnover: {
		purchase.FilterSupplier:      "supplier",
		purchase.FilterCompanyCode:   "bukrs",
		purchase.FilterFiscalYear:    "fiscalYear",
		purchase.FilterFiscalQuarter: "fiscalQuater",
		purchase.FilterQuarterYear:   "quater_Year",
	},
	purchase.FamilyDue: {
		purchase.FilterSupplier:         "lifnr",
		purchase.FilterCompanyCode:      "bukrs",
		purchase.FilterDueDate:          "datum",
		purchase.FilterTotalOutstanding: "total_outstanding",
	},
	purchase.FamilyDueQuarter: {
		purchase.FilterSupplier:    "lifnr",
		purchase.FilterCompanyCode: "bukrs",
		purchase.FilterFiscalYear:  "gjahr",
		purchase.FilterPeriod:      "poper",
	},
	purchase.FamilyMaster: {
		purchase.FilterCompanyCode: "bukrs",
	},
}

// FilterExpr renders predicates as an OData $filter expression using the
// property names of the resource's entity set. Top-level predicates are
// joined with "and"; groups are parenthesised.
func FilterExpr(resource purchase.Resource, filters purchase.Filters) (string, error) {
	fields := wireFields[resource.Family()]
	parts := make([]string, 0, len(filters))
	for _, p := range filters {
		expr, err := predicateExpr(fields, p)
		if err != nil {
			return "", err
		}
		if expr != "" {
			parts = append(parts, expr)
		}
	}
	return strings.Join(parts, " and "), nil
}

func predicateExpr(fields map[purchase.FilterField]string, p purchase.Predicate) (string, error) {
	if !p.IsGroup() {
		name, ok := fields[p.Field]
		if !ok {
			return "", fmt.Errorf("odata: field %q not available on this entity set", p.Field)
		}
		return fmt.Sprintf("%s eq %s", name, literal(p.Value)), nil
	}
	parts := make([]string, 0, len(p.Children))
	for _, child := range p.Children {
		expr, err := predicateExpr(fields, child)
		if err != nil {
			return "", err
		}
		if expr != "" {
			parts = append(parts, expr)
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	conj := " and "
	if p.Conj == purchase.ConjOr {
		conj = " or "
	}
	return "(" + strings.Join(parts, conj) + ")", nil
}

func literal(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
