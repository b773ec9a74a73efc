package export

import (
	"encoding/csv"
	"io"

	"github.com/odyssey-erp/purchase-insights/internal/platform/sanitize"
	"github.com/odyssey-erp/purchase-insights/internal/purchase"
)

// WriteCSV serialises a dataset slot. Amounts are written with Indian digit
// grouping and two decimals.
func WriteCSV(w io.Writer, slot purchase.Slot, records []purchase.Record) error {
	cols, err := Columns(slot)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = col.Header
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		row := make([]string, len(cols))
		for i, col := range cols {
			if col.Measure {
				row[i] = FormatCrore(purchase.Decimal(col.Value(r)))
				continue
			}
			row[i] = sanitize.Cell(col.Value(r))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
