package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/sozercan/mail-ai-mole/apimodels"
)

// Calendar emits one VEVENT per task that has a due date. Tasks
// without a due date are left out of the calendar; they still appear
// in the PDF and spreadsheet exports.
func Calendar(a *apimodels.Analysis) ([]byte, error) {
	cal := newCalendar()
	for _, task := range a.Tasks {
		if task.DueDate == nil {
			continue
		}
		addTaskEvent(cal, task, a.Summary)
	}
	return []byte(cal.Serialize()), nil
}

// CalendarZip bundles one .ics file per dated task, matching the
// per-task download in the UI.
func CalendarZip(a *apimodels.Analysis) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	n := 0
	for _, task := range a.Tasks {
		if task.DueDate == nil {
			continue
		}
		n++
		cal := newCalendar()
		addTaskEvent(cal, task, a.Summary)

		w, err := zw.Create(fmt.Sprintf("task_%d_%s.ics", n, safeFilename(task.Description)))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExport, err)
		}
		if _, err := w.Write([]byte(cal.Serialize())); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExport, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExport, err)
	}
	return buf.Bytes(), nil
}

func newCalendar() *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//mail-ai-mole//Email Task Export//EN")
	cal.SetCalscale("GREGORIAN")
	return cal
}

func addTaskEvent(cal *ics.Calendar, task apimodels.Task, context string) {
	now := time.Now().UTC()
	event := cal.AddEvent(fmt.Sprintf("task-%s@mail-ai-mole", uuid.New().String()))
	event.SetDtStampTime(now)
	event.SetAllDayStartAt(*task.DueDate)
	event.SetAllDayEndAt(task.DueDate.AddDate(0, 0, 1))
	event.SetSummary(task.Description)
	event.SetStatus(ics.ObjectStatusNeedsAction)
	event.SetProperty(ics.ComponentProperty(ics.PropertyPriority), icsPriority(task.Priority))

	desc := fmt.Sprintf("Priority: %s", task.Priority)
	if task.Assignee != "" {
		desc += fmt.Sprintf("\nAssignee: %s", task.Assignee)
	}
	if context != "" {
		desc += fmt.Sprintf("\nSource email: %s", context)
	}
	event.SetDescription(desc)
}

// icsPriority maps the task priority onto the 1..9 RFC 5545 scale.
func icsPriority(p string) string {
	switch p {
	case apimodels.PriorityHigh:
		return "1"
	case apimodels.PriorityLow:
		return "9"
	default:
		return "5"
	}
}

var unsafeFilenameRe = regexp.MustCompile(`[<>:"/\\|?*\s]+`)

func safeFilename(s string) string {
	s = unsafeFilenameRe.ReplaceAllString(strings.TrimSpace(s), "_")
	if len(s) > 40 {
		s = s[:40]
	}
	return strings.Trim(s, "_")
}
