// Package parser extracts bounded previews from spreadsheet workbooks.
package parser

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// MaxPreviewRows caps the number of data rows retained per sheet
const MaxPreviewRows = 100

// Sheet is the bounded parsed representation of one worksheet
type Sheet struct {
	Name    string
	Index   int
	Headers []string
	Rows    [][]string
}

// RowCount returns the number of retained data rows
func (s *Sheet) RowCount() int {
	return len(s.Rows)
}

// Parse extracts per-sheet headers and up to MaxPreviewRows non-empty data
// rows from a workbook. Sheets are processed in file order. The format is
// chosen from the declared filename extension: .xlsx (OOXML) or .xls
// (legacy BIFF).
func Parse(data []byte, filename string) ([]Sheet, error) {
	var (
		sheets []Sheet
		err    error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		sheets, err = parseXLSX(data)
	case ".xls":
		sheets, err = parseXLS(data)
	default:
		return nil, fmt.Errorf("unsupported spreadsheet format: %q", filepath.Ext(filename))
	}

	if err != nil {
		return nil, fmt.Errorf("error processing spreadsheet file: %w", err)
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook contains no sheets")
	}

	return sheets, nil
}

// SheetCount reports the number of sheets without extracting rows, so the
// count can be recorded before per-sheet extraction begins.
func SheetCount(data []byte, filename string) (int, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return 0, fmt.Errorf("error opening spreadsheet file: %w", err)
		}
		defer f.Close()
		return len(f.GetSheetList()), nil
	case ".xls":
		wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return 0, fmt.Errorf("error opening spreadsheet file: %w", err)
		}
		return wb.NumSheets(), nil
	default:
		return 0, fmt.Errorf("unsupported spreadsheet format: %q", filepath.Ext(filename))
	}
}

func parseXLSX(data []byte) ([]Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	names := f.GetSheetList()
	sheets := make([]Sheet, 0, len(names))

	for idx, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}

		sheet := Sheet{Name: name, Index: idx, Headers: []string{}, Rows: [][]string{}}

		if len(rows) > 0 {
			sheet.Headers = normalizeHeaders(rows[0])
			sheet.Rows = extractRows(rows[1:], len(sheet.Headers))
		}

		sheets = append(sheets, sheet)
	}

	return sheets, nil
}

func parseXLS(data []byte) ([]Sheet, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}

	sheets := make([]Sheet, 0, wb.NumSheets())

	for idx := 0; idx < wb.NumSheets(); idx++ {
		ws := wb.GetSheet(idx)
		if ws == nil {
			return nil, fmt.Errorf("failed to read sheet at index %d", idx)
		}

		var rows [][]string
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			rows = append(rows, cells)
		}

		sheet := Sheet{Name: ws.Name, Index: idx, Headers: []string{}, Rows: [][]string{}}
		if len(rows) > 0 {
			sheet.Headers = normalizeHeaders(rows[0])
			sheet.Rows = extractRows(rows[1:], len(sheet.Headers))
		}

		sheets = append(sheets, sheet)
	}

	return sheets, nil
}

// normalizeHeaders replaces blank header cells with a positional placeholder
func normalizeHeaders(first []string) []string {
	headers := make([]string, len(first))
	for i, cell := range first {
		if strings.TrimSpace(cell) == "" {
			headers[i] = fmt.Sprintf("Column %d", i+1)
		} else {
			headers[i] = cell
		}
	}
	return headers
}

// extractRows keeps up to MaxPreviewRows non-empty rows, each truncated to
// the header count. A row counts as non-empty if any cell is non-blank.
func extractRows(raw [][]string, headerCount int) [][]string {
	rows := make([][]string, 0, MaxPreviewRows)

	for _, r := range raw {
		if len(rows) >= MaxPreviewRows {
			break
		}

		if headerCount > 0 && len(r) > headerCount {
			r = r[:headerCount]
		}

		empty := true
		for _, cell := range r {
			if cell != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		row := make([]string, len(r))
		copy(row, r)
		rows = append(rows, row)
	}

	return rows
}
