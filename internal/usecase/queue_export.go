package usecase

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"proofhire-backend/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv"
)

var queueExportHeaders = []string{
	"CANDIDATE ID", "NAME", "EMAIL", "STATUS", "PROOF SCORE",
	"FLAGGED", "REFEREE VERIFIED", "HAS PORTFOLIO", "LATEST RESUME", "UPDATED AT",
}

func queueExportRow(item domain.QueueItem) []any {
	latest := ""
	if item.LatestResumeKey != nil {
		latest = *item.LatestResumeKey
	}
	return []any{
		item.CandidateID,
		item.Name,
		item.Email,
		string(item.Status),
		item.ProofScore,
		yesNo(item.Flagged),
		yesNo(item.RefereeVerified),
		yesNo(item.HasPortfolio),
		latest,
		item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func exportQueueExcel(items []domain.QueueItem, at time.Time) (*domain.ExportFile, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheetName := "Review Queue"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, h := range queueExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#1E3A5F"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	endCell, _ := excelize.CoordinatesToCellName(len(queueExportHeaders), 1)
	f.SetCellStyle(sheetName, "A1", endCell, headerStyle)

	// Highlight flagged rows for reviewers.
	flaggedStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FDECEA"}},
	})

	for rowIdx, item := range items {
		for colIdx, value := range queueExportRow(item) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
		if item.Flagged {
			start, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
			end, _ := excelize.CoordinatesToCellName(len(queueExportHeaders), rowIdx+2)
			f.SetCellStyle(sheetName, start, end, flaggedStyle)
		}
	}

	for i := range queueExportHeaders {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 22)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return &domain.ExportFile{
		Filename:    fmt.Sprintf("review_queue_%s.xlsx", at.Format("20060102_150405")),
		ContentType: contentTypeXLSX,
		Data:        buf.Bytes(),
	}, nil
}

func exportQueueCSV(items []domain.QueueItem, at time.Time) (*domain.ExportFile, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(queueExportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, item := range items {
		row := queueExportRow(item)
		record := make([]string, len(row))
		for i, v := range row {
			switch t := v.(type) {
			case string:
				record[i] = t
			case int:
				record[i] = strconv.Itoa(t)
			default:
				record[i] = fmt.Sprint(t)
			}
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return &domain.ExportFile{
		Filename:    fmt.Sprintf("review_queue_%s.csv", at.Format("20060102_150405")),
		ContentType: contentTypeCSV,
		Data:        buf.Bytes(),
	}, nil
}
