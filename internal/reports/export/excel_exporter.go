package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExcelExporter exports tabular data to a single XLSX sheet
type ExcelExporter struct {
	file    *excelize.File
	options ExcelOptions
}

// ExcelOptions configures Excel export behavior
type ExcelOptions struct {
	SheetName       string `json:"sheet_name"`
	FreezeHeader    bool   `json:"freeze_header"`
	AutoFilter      bool   `json:"auto_filter"`
	TimestampFormat string `json:"timestamp_format"`
	HeaderFill      string `json:"header_fill"`
}

// DefaultExcelOptions returns default Excel export options
func DefaultExcelOptions() ExcelOptions {
	return ExcelOptions{
		SheetName:       "Report",
		FreezeHeader:    true,
		AutoFilter:      true,
		TimestampFormat: "yyyy-mm-dd hh:mm:ss",
		HeaderFill:      "4472C4",
	}
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter(options ExcelOptions) (*ExcelExporter, error) {
	file := excelize.NewFile()
	if err := file.SetSheetName("Sheet1", options.SheetName); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	return &ExcelExporter{file: file, options: options}, nil
}

// Export fills the sheet and writes the workbook to w
func (e *ExcelExporter) Export(w io.Writer, columns []string, rows [][]interface{}) error {
	defer e.file.Close()
	sheet := e.options.SheetName

	headerStyle, err := e.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{e.options.HeaderFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	tsFormat := e.options.TimestampFormat
	tsStyle, err := e.file.NewStyle(&excelize.Style{CustomNumFmt: &tsFormat})
	if err != nil {
		return fmt.Errorf("failed to create timestamp style: %w", err)
	}

	widths := make([]int, len(columns))
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := e.file.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		widths[i] = len(col)
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := e.file.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for r, row := range rows {
		for c, val := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if ts, ok := val.(time.Time); ok {
				if err := e.file.SetCellValue(sheet, cell, ts.UTC()); err != nil {
					return fmt.Errorf("failed to set cell value: %w", err)
				}
				if err := e.file.SetCellStyle(sheet, cell, cell, tsStyle); err != nil {
					return fmt.Errorf("failed to style cell: %w", err)
				}
				widths[c] = max(widths[c], 19)
				continue
			}
			if s, ok := val.(fmt.Stringer); ok {
				val = s.String()
			}
			if err := e.file.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("failed to set cell value: %w", err)
			}
			widths[c] = max(widths[c], len(fmt.Sprint(val)))
		}
	}

	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		// Min width 10, max width 50
		if err := e.file.SetColWidth(sheet, col, col, float64(min(max(width+2, 10), 50))); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if e.options.FreezeHeader {
		if err := e.file.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("failed to freeze header: %w", err)
		}
	}
	if e.options.AutoFilter && len(rows) > 0 {
		if err := e.file.AutoFilter(sheet, "A1:"+last, nil); err != nil {
			return fmt.Errorf("failed to set auto filter: %w", err)
		}
	}

	if err := e.file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
