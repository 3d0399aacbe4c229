package export

import (
	"fmt"
	"time"

	"github.com/sozercan/mail-ai-mole/apimodels"
	"github.com/xuri/excelize/v2"
)

// Spreadsheet renders the analysis as an xlsx workbook with Summary,
// Tasks, and Key Points sheets. The Tasks sheet holds one row per
// task, dated or not.
func Spreadsheet(a *apimodels.Analysis) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExport, err)
	}

	summaryRows := [][]interface{}{
		{"Item", "Value"},
		{"Summary", a.Summary},
		{"Urgency", orDash(a.Urgency)},
		{"Sentiment", orDash(a.Sentiment)},
		{"Analyzed At", time.Now().Format("2006-01-02 15:04:05")},
	}
	if err := writeRows(f, summarySheet, summaryRows); err != nil {
		return nil, err
	}

	const tasksSheet = "Tasks"
	if _, err := f.NewSheet(tasksSheet); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExport, err)
	}
	taskRows := [][]interface{}{{"#", "Task", "Priority", "Due Date", "Assignee", "Status"}}
	for i, task := range a.Tasks {
		taskRows = append(taskRows, []interface{}{
			i + 1, task.Description, task.Priority, formatDue(task.DueDate), orDash(task.Assignee), "open",
		})
	}
	if err := writeRows(f, tasksSheet, taskRows); err != nil {
		return nil, err
	}

	if len(a.KeyPoints) > 0 {
		const pointsSheet = "Key Points"
		if _, err := f.NewSheet(pointsSheet); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExport, err)
		}
		pointRows := [][]interface{}{{"#", "Key Point"}}
		for i, p := range a.KeyPoints {
			pointRows = append(pointRows, []interface{}{i + 1, p})
		}
		if err := writeRows(f, pointsSheet, pointRows); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExport, err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrExport, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%w: %v", ErrExport, err)
		}
	}
	return nil
}
