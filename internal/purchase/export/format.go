package export

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/odyssey-erp/purchase-insights/internal/purchase"
)

var printer = message.NewPrinter(language.MustParse("en-IN"))

// FormatCrore renders a crore amount for people. Missing or malformed values
// render empty.
func FormatCrore(d purchase.Decimal) string {
	v := d.Float()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return printer.Sprint(number.Decimal(v, number.Scale(2)))
}
