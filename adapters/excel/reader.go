// Package excel reads TAK definition workbooks with excelize. Every cell
// comes out as a trimmed string; typed interpretation belongs to the
// validation rules, not the reader.
package excel

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"takforge/domain/core"
	"takforge/domain/tabular"

	"github.com/xuri/excelize/v2"
)

// WorkbookReader reads the recognized TAK sheets from an xlsx file.
type WorkbookReader struct{}

// NewWorkbookReader creates a workbook reader.
func NewWorkbookReader() *WorkbookReader {
	return &WorkbookReader{}
}

// Read loads every recognized sheet present in the file. Absent sheets are
// skipped here; the validator owns reporting them as missing.
func (r *WorkbookReader) Read(path string) (*tabular.Workbook, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: file not found: %s", core.ErrWorkbookUnreadable, path)
	}

	startTime := time.Now()
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrWorkbookUnreadable, err)
	}
	defer f.Close()

	present := make(map[string]struct{})
	for _, name := range f.GetSheetList() {
		present[name] = struct{}{}
	}

	wb := tabular.NewWorkbook()
	for _, name := range core.SheetOrder() {
		if _, ok := present[string(name)]; !ok {
			log.Printf("[WorkbookReader] sheet '%s' not present in %s", name, path)
			continue
		}
		rows, err := f.GetRows(string(name))
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet '%s': %w", name, err)
		}
		wb.Add(buildSheet(name, rows))
	}

	elapsed := time.Since(startTime)
	log.Printf("[WorkbookReader] read %s in %.2fms (%d sheets)",
		path, float64(elapsed.Nanoseconds())/1e6, len(wb.SheetNames()))
	return wb, nil
}

// buildSheet converts raw excelize rows into a domain sheet. Row 1 is the
// header; fully empty rows are dropped, everything else keeps its workbook
// row number for issue messages.
func buildSheet(name core.SheetName, rows [][]string) *tabular.Sheet {
	sheet := &tabular.Sheet{Name: name}
	if len(rows) == 0 {
		return sheet
	}

	for _, header := range rows[0] {
		header = strings.TrimSpace(header)
		if header != "" {
			sheet.Columns = append(sheet.Columns, header)
		}
	}

	for i, raw := range rows[1:] {
		cells := make(map[string]string, len(sheet.Columns))
		empty := true
		for col, header := range sheet.Columns {
			var value string
			if col < len(raw) {
				value = strings.TrimSpace(raw[col])
			}
			if value != "" {
				empty = false
			}
			cells[header] = value
		}
		if empty {
			continue
		}
		sheet.Rows = append(sheet.Rows, tabular.NewRow(i+2, cells))
	}
	return sheet
}
