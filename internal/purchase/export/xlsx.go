package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/purchase-insights/internal/platform/sanitize"
	"github.com/odyssey-erp/purchase-insights/internal/purchase"
)

const maxSheetName = 31

// WriteXLSX writes a dataset slot as a single sheet workbook. Amounts are
// numeric cells formatted with two decimals.
func WriteXLSX(w io.Writer, slot purchase.Slot, title string, records []purchase.Record) error {
	cols, err := Columns(slot)
	if err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(title)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}

	for i, col := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col.Header); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for rowIdx, r := range records {
		for colIdx, col := range cols {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			if !col.Measure {
				if err := f.SetCellStr(sheet, cell, sanitize.Cell(col.Value(r))); err != nil {
					return err
				}
				continue
			}
			v := purchase.Decimal(col.Value(r)).Float()
			if math.IsNaN(v) {
				continue
			}
			if err := f.SetCellFloat(sheet, cell, v, 2, 64); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, cell, cell, amountStyle); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func sheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '?', '*', '[', ']', ':':
			return '-'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = "Report"
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}
