package xlsx

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
)

const (
	historySheet = "Lịch sử kiểm duyệt"
	dateLayout   = "2006-01-02 15:04"
)

var historyHeaders = []string{
	"Ngày",
	"Tên tài liệu",
	"Loại",
	"Môn/Lĩnh vực",
	"Điểm",
	"Xếp loại",
	"Tóm tắt",
	"Ưu điểm",
	"Hạn chế",
	"Người kiểm duyệt",
}

// Exporter writes the history list as a single-sheet workbook, one row per entry.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) ExportHistory(entries []domain.HistoryEntry, profile domain.ReviewerProfile) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	index, err := f.GetSheetIndex(historySheet)
	if err != nil {
		return nil, fmt.Errorf("resolve sheet: %w", err)
	}
	f.SetActiveSheet(index)

	for i, h := range historyHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(historySheet, cell, h)
	}

	for i, entry := range entries {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(historySheet, cell, v)
		}
		write(1, entry.Date.Format(dateLayout))
		write(2, entry.FileName)
		write(3, entry.FileType)
		write(4, entry.Result.Subject)
		write(5, entry.Result.Score)
		write(6, string(entry.Result.OverallVerdict))
		write(7, entry.Result.Summary)
		write(8, strings.Join(entry.Result.Pros, "\n"))
		write(9, strings.Join(entry.Result.Cons, "\n"))
		write(10, profile.Name)
	}

	_ = f.SetColWidth(historySheet, "A", "A", 18)
	_ = f.SetColWidth(historySheet, "B", "B", 32)
	_ = f.SetColWidth(historySheet, "C", "C", 8)
	_ = f.SetColWidth(historySheet, "D", "D", 24)
	_ = f.SetColWidth(historySheet, "E", "F", 12)
	_ = f.SetColWidth(historySheet, "G", "I", 48)
	_ = f.SetColWidth(historySheet, "J", "J", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
