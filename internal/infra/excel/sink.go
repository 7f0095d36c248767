// Package excel renders report sheets into XLSX workbooks.
package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/sellerstats/wb-reports/internal/port"
)

// Sink renders sheets via excelize. Implements port.TabularExportSink.
type Sink struct {
	headerWidth float64
}

// NewSink creates the XLSX sink.
func NewSink() *Sink {
	return &Sink{headerWidth: 18}
}

// Render builds a workbook with one tab per sheet: a bold frozen header row
// followed by the data rows. A sheet with no rows still renders its header,
// so an empty period produces a valid, openable file.
func (s *Sink) Render(sheets []port.Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets to render")
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, sheet := range sheets {
		name := sheet.Name
		if i == 0 {
			// excelize pre-creates "Sheet1", rename instead of adding
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("rename sheet %q: %w", name, err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, fmt.Errorf("create sheet %q: %w", name, err)
			}
		}

		if err := f.SetSheetRow(name, "A1", &sheet.Headers); err != nil {
			return nil, fmt.Errorf("write headers of %q: %w", name, err)
		}
		endCol, err := excelize.ColumnNumberToName(len(sheet.Headers))
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(name, "A1", endCol+"1", headerStyle); err != nil {
			return nil, fmt.Errorf("style headers of %q: %w", name, err)
		}
		if err := f.SetColWidth(name, "A", endCol, s.headerWidth); err != nil {
			return nil, fmt.Errorf("set widths of %q: %w", name, err)
		}
		if err := f.SetPanes(name, &excelize.Panes{
			Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
		}); err != nil {
			return nil, fmt.Errorf("freeze header of %q: %w", name, err)
		}

		for r, row := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return nil, fmt.Errorf("write row %d of %q: %w", r+2, name, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
