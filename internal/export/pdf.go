package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/sozercan/mail-ai-mole/apimodels"
)

// Report renders the analysis as a paginated PDF: summary, indicator
// table, task table, key points, action items, and follow-ups.
func Report(a *apimodels.Analysis) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Email Analysis Report", false)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Email Analysis Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Generated "+time.Now().Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	heading := func(text string) {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
	}

	heading("Summary")
	summary := a.Summary
	if summary == "" {
		summary = "No summary available."
	}
	pdf.MultiCell(0, 5, tr(summary), "", "L", false)
	pdf.Ln(3)

	if a.Urgency != "" || a.Sentiment != "" {
		heading("Indicators")
		indicatorRow(pdf, tr, "Urgency", orDash(a.Urgency))
		indicatorRow(pdf, tr, "Sentiment", orDash(a.Sentiment))
		pdf.Ln(3)
	}

	if len(a.Tasks) > 0 {
		heading("Tasks")
		taskTable(pdf, tr, a.Tasks)
		pdf.Ln(3)
	}

	bulletSection(pdf, tr, heading, "Key Points", a.KeyPoints)
	bulletSection(pdf, tr, heading, "Immediate Action Items", a.ActionItems)
	bulletSection(pdf, tr, heading, "Follow-Ups", a.FollowUps)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExport, err)
	}
	return buf.Bytes(), nil
}

func indicatorRow(pdf *fpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(40, 6, label, "1", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(60, 6, tr(value), "1", 1, "L", false, 0, "")
}

func taskTable(pdf *fpdf.Fpdf, tr func(string) string, tasks []apimodels.Task) {
	widths := []float64{10, 85, 22, 28, 35}
	headers := []string{"#", "Task", "Priority", "Due Date", "Assignee"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for i, task := range tasks {
		desc := task.Description
		if len(desc) > 60 {
			desc = desc[:60] + "..."
		}
		cells := []string{
			fmt.Sprintf("%d", i+1),
			desc,
			task.Priority,
			formatDue(task.DueDate),
			orDash(task.Assignee),
		}
		for j, c := range cells {
			pdf.CellFormat(widths[j], 6, tr(c), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func bulletSection(pdf *fpdf.Fpdf, tr func(string) string, heading func(string), title string, items []string) {
	if len(items) == 0 {
		return
	}
	heading(title)
	for i, item := range items {
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("%d. %s", i+1, item)), "", "L", false)
	}
	pdf.Ln(3)
}

func formatDue(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
