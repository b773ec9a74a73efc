package purchase

import (
	"fmt"
)

// Palette parametrises the HSL colors handed to the chart renderer.
type Palette struct {
	Step       int
	Saturation int
	Lightness  int
}

var (
	// TurnoverPalette colors the fiscal-year and supplier-due charts.
	TurnoverPalette = Palette{Step: 43, Saturation: 70, Lightness: 50}
	// QuarterlyPalette colors the quarterly and due-by-quarter charts.
	QuarterlyPalette = Palette{Step: 37, Saturation: 65, Lightness: 55}
)

// Color returns the color of the i-th distinct key.
func (p Palette) Color(i int) string {
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", (i*p.Step)%360, p.Saturation, p.Lightness)
}

// Capacity is the number of keys that receive distinct hues.
func (p Palette) Capacity() int {
	if p.Step <= 0 {
		return 1
	}
	return 360 / p.Step
}

// ColorMap maps a category key to its color.
type ColorMap map[string]string

// KeyFunc derives the category key of a record.
type KeyFunc func(Record) string

// DistinctKeys returns every key once, in first-occurrence order.
func DistinctKeys(records []Record, key KeyFunc) []string {
	seen := make(map[string]struct{}, len(records))
	keys := make([]string, 0, len(records))
	for _, r := range records {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// Assign colors an ordered list of distinct keys. The same list always yields
// the same map.
func Assign(keys []string, p Palette) ColorMap {
	colors := make(ColorMap, len(keys))
	for i, k := range keys {
		if _, ok := colors[k]; ok {
			continue
		}
		colors[k] = p.Color(i)
	}
	return colors
}

// ColorRule styles one data point of a chart.
type ColorRule struct {
	Key     string            `json:"key"`
	Context map[string]string `json:"dataContext"`
	Color   string            `json:"color"`
}

// ContextFunc derives the chart dimensions identifying a data point.
type ContextFunc func(Record) map[string]string

// Rules builds one rule per record, in record order.
func Rules(records []Record, key KeyFunc, context ContextFunc, colors ColorMap) []ColorRule {
	rules := make([]ColorRule, 0, len(records))
	for _, r := range records {
		k := key(r)
		rule := ColorRule{Key: k, Color: colors[k]}
		if context != nil {
			rule.Context = context(r)
		}
		rules = append(rules, rule)
	}
	return rules
}

// FiscalYearKey keys by supplier and fiscal year, or by fiscal year alone for
// the merged purchase turnover chart.
func FiscalYearKey(merged bool) KeyFunc {
	if merged {
		return func(r Record) string { return r.FiscalYear }
	}
	return func(r Record) string { return fmt.Sprintf("%s (%s)", r.Supplier, r.FiscalYear) }
}

// QuarterlyKey keys by supplier, quarter and quarter year.
func QuarterlyKey(merged bool) KeyFunc {
	if merged {
		return func(r Record) string { return fmt.Sprintf("(%s %s)", r.Quarter, r.QuarterYear) }
	}
	return func(r Record) string {
		return fmt.Sprintf("%s (%s %s)", r.Supplier, r.Quarter, r.QuarterYear)
	}
}

// SupplierDueKey keys by supplier name for every due-as-of-date chart.
func SupplierDueKey() KeyFunc {
	return func(r Record) string { return r.SupplierName }
}

// DueQuarterKey keys by supplier name, period and year.
func DueQuarterKey(merged bool) KeyFunc {
	if merged {
		return func(r Record) string { return fmt.Sprintf("(%s %s)", r.Period, r.Year) }
	}
	return func(r Record) string {
		return fmt.Sprintf("%s (%s %s)", r.SupplierName, r.Period, r.Year)
	}
}

func fiscalYearContext(merged bool) ContextFunc {
	return func(r Record) map[string]string {
		if merged {
			return map[string]string{"Fiscal Year": r.FiscalYear}
		}
		return map[string]string{"Supplier Name": r.Supplier, "Fiscal Year": r.FiscalYear}
	}
}

func quarterlyContext(merged bool) ContextFunc {
	return func(r Record) map[string]string {
		ctx := map[string]string{"Quarter": r.Quarter, "Quarter Year": r.QuarterYear}
		if !merged {
			ctx["Supplier Name"] = r.Supplier
		}
		return ctx
	}
}

func supplierDueContext(r Record) map[string]string {
	return map[string]string{"Supplier Name": r.SupplierName}
}

func dueQuarterContext(merged bool) ContextFunc {
	return func(r Record) map[string]string {
		ctx := map[string]string{"Quarter": r.Period, "Quarter Year": r.Year}
		if !merged {
			ctx["Supplier Name"] = r.SupplierName
		}
		return ctx
	}
}
