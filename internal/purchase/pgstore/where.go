package pgstore

import (
	"fmt"
	"strings"

	"github.com/odyssey-erp/purchase-insights/internal/purchase"
)

// Where renders predicates as a SQL WHERE clause with positional
// placeholders starting at $startIndex. Columns are looked up in fields.
// The clause is empty when there are no predicates.
func Where(fields map[purchase.FilterField]string, filters purchase.Filters, startIndex int) (string, []any, error) {
	var (
		clauses []string
		args    []any
	)
	idx := startIndex
	for _, p := range filters {
		clause, err := render(fields, p, &idx, &args)
		if err != nil {
			return "", nil, err
		}
		if clause != "" {
			clauses = append(clauses, clause)
		}
	}
	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func render(fields map[purchase.FilterField]string, p purchase.Predicate, idx *int, args *[]any) (string, error) {
	if !p.IsGroup() {
		column, ok := fields[p.Field]
		if !ok {
			return "", fmt.Errorf("pgstore: field %q not available on this source", p.Field)
		}
		clause := fmt.Sprintf("%s = $%d", column, *idx)
		*args = append(*args, p.Value)
		*idx++
		return clause, nil
	}
	parts := make([]string, 0, len(p.Children))
	for _, child := range p.Children {
		clause, err := render(fields, child, idx, args)
		if err != nil {
			return "", err
		}
		if clause != "" {
			parts = append(parts, clause)
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	conj := " AND "
	if p.Conj == purchase.ConjOr {
		conj = " OR "
	}
	return "(" + strings.Join(parts, conj) + ")", nil
}
