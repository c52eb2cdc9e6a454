package receipt

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const itemsSheet = "Items"

var itemHeaders = []string{"#", "Item", "Quantity", "Unit Price", "Price"}

// ExportItemsXLSX renders the extracted items of a receipt as a spreadsheet
// for manual review. Rows follow printed order; a trailing block records the
// receipt date line and how many lines were dropped.
func (s *Service) ExportItemsXLSX(id string) ([]byte, error) {
	scan, err := s.GetScan(id)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), itemsSheet); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	write := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(itemsSheet, cell, v)
	}

	for i, h := range itemHeaders {
		if err := write(i+1, 1, h); err != nil {
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}

	row := 2
	for i, item := range scan.Result.Items {
		values := []any{i + 1, item.Name, "", "", item.Price}
		if item.Quantity != nil {
			values[2] = *item.Quantity
		}
		if item.UnitPrice != nil {
			values[3] = *item.UnitPrice
		}
		for col, v := range values {
			if err := write(col+1, row, v); err != nil {
				return nil, fmt.Errorf("writing item %d: %w", i+1, err)
			}
		}
		row++
	}

	row++
	footer := [][2]any{
		{"Receipt", scan.Receipt.Filename},
		{"Date line", scan.Result.Date},
		{"Lines read", scan.Result.Diagnostics.TotalLines},
		{"Lines rejected", scan.Result.Diagnostics.RejectedLines},
		{"Truncated", scan.Result.Diagnostics.Truncated},
	}
	for _, kv := range footer {
		if err := write(2, row, kv[0]); err != nil {
			return nil, fmt.Errorf("writing footer: %w", err)
		}
		if err := write(3, row, kv[1]); err != nil {
			return nil, fmt.Errorf("writing footer: %w", err)
		}
		row++
	}

	widths := []struct {
		from, to string
		width    float64
	}{
		{"A", "A", 5},
		{"B", "B", 36},
		{"C", "E", 12},
	}
	for _, w := range widths {
		if err := f.SetColWidth(itemsSheet, w.from, w.to, w.width); err != nil {
			return nil, fmt.Errorf("sizing columns %s-%s: %w", w.from, w.to, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}
