package purchase

import (
	"strings"
)

// FilterField is a logical field name understood by every query backend.
// Backends translate it to their own column or property names.
type FilterField string

const (
	FilterSupplier         FilterField = "supplier"
	FilterCompanyCode      FilterField = "companyCode"
	FilterFiscalYear       FilterField = "fiscalYear"
	FilterFiscalQuarter    FilterField = "fiscalQuarter"
	FilterQuarterYear      FilterField = "quarterYear"
	FilterDueDate          FilterField = "dueDate"
	FilterTotalOutstanding FilterField = "total_outstanding"
	FilterPeriod           FilterField = "period"
)

// Operator is a comparison operator. Only equality is used by the dashboard.
type Operator string

// OpEQ compares for equality.
const OpEQ Operator = "eq"

// Conjunction combines the children of a group.
type Conjunction string

const (
	ConjAnd Conjunction = "and"
	ConjOr  Conjunction = "or"
)

// Predicate is a node of the filter tree: either a leaf comparison or a group
// of children joined by a conjunction.
type Predicate struct {
	Field    FilterField `json:"field,omitempty"`
	Op       Operator    `json:"op,omitempty"`
	Value    string      `json:"value,omitempty"`
	Conj     Conjunction `json:"conj,omitempty"`
	Children []Predicate `json:"children,omitempty"`
}

// Eq builds an equality leaf.
func Eq(field FilterField, value string) Predicate {
	return Predicate{Field: field, Op: OpEQ, Value: value}
}

// AnyOf ORs one equality per value.
func AnyOf(field FilterField, values ...string) Predicate {
	children := make([]Predicate, 0, len(values))
	for _, v := range values {
		children = append(children, Eq(field, v))
	}
	return Predicate{Conj: ConjOr, Children: children}
}

// AllOf ANDs the children.
func AllOf(children ...Predicate) Predicate {
	return Predicate{Conj: ConjAnd, Children: children}
}

// IsGroup reports whether the node combines children.
func (p Predicate) IsGroup() bool {
	return p.Conj != ""
}

// Depth returns the number of group levels below and including p.
func (p Predicate) Depth() int {
	if !p.IsGroup() {
		return 0
	}
	deepest := 0
	for _, child := range p.Children {
		if d := child.Depth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

// String renders the node in a stable prefix notation used for cache keys and logs.
func (p Predicate) String() string {
	var b strings.Builder
	p.write(&b)
	return b.String()
}

func (p Predicate) write(b *strings.Builder) {
	if !p.IsGroup() {
		b.WriteString(string(p.Op))
		b.WriteByte('(')
		b.WriteString(string(p.Field))
		b.WriteByte(',')
		b.WriteString(p.Value)
		b.WriteByte(')')
		return
	}
	b.WriteString(string(p.Conj))
	b.WriteByte('(')
	for i, child := range p.Children {
		if i > 0 {
			b.WriteByte(',')
		}
		child.write(b)
	}
	b.WriteByte(')')
}

// Filters is the top-level list of predicates; entries are ANDed.
type Filters []Predicate

// String renders the list for cache keys.
func (f Filters) String() string {
	return AllOf(f...).String()
}

// Find returns the first top-level entry constraining field, looking inside
// groups whose leaves all use that field.
func (f Filters) Find(field FilterField) (Predicate, bool) {
	for _, p := range f {
		if p.constrainsOnly(field) {
			return p, true
		}
	}
	return Predicate{}, false
}

func (p Predicate) constrainsOnly(field FilterField) bool {
	if !p.IsGroup() {
		return p.Field == field
	}
	if len(p.Children) == 0 {
		return false
	}
	for _, child := range p.Children {
		if !child.constrainsOnly(field) {
			return false
		}
	}
	return true
}

func companyCodeFilter(sel Selection) (Predicate, bool) {
	if !sel.HasCompanyCode() {
		return Predicate{}, false
	}
	if sel.CompanyCodeMode == CompanyCodeMulti {
		return AnyOf(FilterCompanyCode, nonBlank(sel.CompanyCodeIDs)...), true
	}
	return Eq(FilterCompanyCode, sel.CompanyCode()), true
}

// BuildTurnoverFilters builds the predicates for the four turnover reports.
// Fiscal-year mode ORs the selected years. Quarterly mode ANDs an OR over
// quarters with an OR over quarter years, and only when both are selected.
func BuildTurnoverFilters(sel Selection, view View) Filters {
	var filters Filters
	if view.Mode == ModeFiscalYearTurnover {
		if years := nonBlank(sel.FiscalYears); len(years) > 0 {
			filters = append(filters, AnyOf(FilterFiscalYear, years...))
		}
	} else {
		quarters := nonBlank(sel.Quarters)
		years := nonBlank(sel.QuarterYears)
		if len(quarters) > 0 && len(years) > 0 {
			filters = append(filters, AllOf(
				AnyOf(FilterFiscalQuarter, quarters...),
				AnyOf(FilterQuarterYear, years...),
			))
		}
	}
	if view.Turnover == SingleSupplierTurnover {
		if ids := nonBlank(sel.SupplierIDs); len(ids) > 0 {
			filters = append(filters, AnyOf(FilterSupplier, ids...))
		}
	}
	if p, ok := companyCodeFilter(sel); ok {
		filters = append(filters, p)
	}
	return filters
}

// BuildDueFilters builds the predicates for the due-as-of-date reports.
// Suppliers are not filtered here; the single supplier report uses a key lookup.
func BuildDueFilters(sel Selection, view View) Filters {
	var filters Filters
	if p, ok := companyCodeFilter(sel); ok {
		filters = append(filters, p)
	}
	if sel.DueDate != "" {
		filters = append(filters, Eq(FilterDueDate, sel.DueDate))
	}
	if view.SupplierDue == TotalOutstanding {
		filters = append(filters, Eq(FilterTotalOutstanding, "X"))
	}
	return filters
}

// DueQuarterFilters carries the predicates of the due-by-quarter reports and
// whether any quarter took part in them.
type DueQuarterFilters struct {
	Filters         Filters
	QuarterSelected bool
}

// BuildDueQuarterFYFilters builds the predicates for the due-by-quarter reports.
func BuildDueQuarterFYFilters(sel Selection, view View) DueQuarterFilters {
	var out DueQuarterFilters
	if view.SupplierDueQuarterFY == SingleSupplierOutstanding {
		if ids := nonBlank(sel.SupplierIDs); len(ids) > 0 {
			out.Filters = append(out.Filters, AnyOf(FilterSupplier, ids...))
		}
	}
	if p, ok := companyCodeFilter(sel); ok {
		out.Filters = append(out.Filters, p)
	}
	if years := nonBlank(sel.QuarterYears); len(years) > 0 {
		out.Filters = append(out.Filters, AnyOf(FilterFiscalYear, years...))
	}
	if quarters := nonBlank(sel.Quarters); len(quarters) > 0 {
		out.Filters = append(out.Filters, AnyOf(FilterPeriod, quarters...))
		out.QuarterSelected = true
	}
	return out
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
