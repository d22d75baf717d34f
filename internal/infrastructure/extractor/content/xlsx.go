package content

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const xlsxPlaceholder = "Không thể đọc nội dung file Excel này."

func extractXlsx(name string, data []byte) (string, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "TÀI LIỆU BẢNG TÍNH EXCEL: %s\n\n", name)
	for _, sheet := range book.GetSheetList() {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		sheetCSV, err := rowsToCSV(rows)
		if err != nil {
			return "", fmt.Errorf("flatten sheet %q: %w", sheet, err)
		}
		fmt.Fprintf(&b, "--- SHEET: %s ---\n%s\n\n", sheet, sheetCSV)
	}
	return b.String(), nil
}

// rowsToCSV pads ragged rows so every line has the sheet's full column count.
func rowsToCSV(rows [][]string) (string, error) {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		record := make([]string, width)
		copy(record, row)
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
