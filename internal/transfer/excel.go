package transfer

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/quizfolio/sync-service/internal/models"
)

// ExportXLSX renders an attempt history as an Excel workbook, one row per
// attempt. The JSON envelope is the canonical interchange format; the
// workbook is for people reviewing their results in a spreadsheet.
func ExportXLSX(attempts []models.QuizAttempt) ([]byte, error) {
	f := excelize.NewFile()
	sheetName := "Attempts"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Attempt ID", "Quiz ID", "Quiz Title", "Started At", "Completed At",
		"Score %", "Correct", "Total",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, attempt := range attempts {
		row := []interface{}{
			attempt.AttemptID,
			attempt.QuizID,
			attempt.QuizTitle,
			attempt.StartedAt,
			attempt.CompletedAt,
			attempt.ScorePercent,
			attempt.CorrectCount,
			attempt.TotalCount,
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
