package svg

import (
	"html/template"

	"github.com/odyssey-erp/purchase-insights/internal/purchase"
)

// Chart renders a normalized dataset with the colors assigned to its keys.
func Chart(records []purchase.Record, spec purchase.ChartSpec, colors purchase.ColorMap, width, height int) (template.HTML, error) {
	bars := make([]Bar, 0, len(records))
	for _, r := range records {
		key := spec.Key(r)
		bars = append(bars, Bar{Label: key, Value: spec.Measure(r).Float(), Color: colors[key]})
	}
	return Bars(width, height, bars, BarOpts{
		Title:       spec.Title,
		Description: spec.MeasureLabel,
		ValueLabel:  spec.MeasureLabel,
	})
}
