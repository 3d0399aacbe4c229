package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sozercan/mail-ai-mole/apimodels"
)

// ErrMalformedResponse indicates the model reply contained no parseable
// JSON object at all. Partial objects are accepted with empty defaults.
var ErrMalformedResponse = errors.New("model response could not be parsed")

var fenceRe = regexp.MustCompile("```[a-zA-Z]*\n?|```")

// parseResponse turns the raw completion text into an Analysis. Missing
// sections become empty defaults; only a reply with no JSON object in
// it fails.
func parseResponse(raw string, now time.Time) (*apimodels.Analysis, error) {
	cleaned := strings.TrimSpace(fenceRe.ReplaceAllString(raw, ""))

	obj := extractObject(cleaned)
	if obj == "" {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrMalformedResponse)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	analysis := &apimodels.Analysis{
		Summary:     decodeString(fields["summary"]),
		KeyPoints:   decodeStrings(fields["key_points"]),
		ActionItems: decodeStrings(fields["action_items"]),
		FollowUps:   decodeStrings(fields["follow_up"]),
		Sentiment:   decodeString(fields["sentiment"]),
		Urgency:     decodeString(fields["urgency_level"]),
		Tasks:       decodeTasks(fields["tasks"], now),
	}
	return analysis, nil
}

// extractObject trims any prose the model wrapped around the JSON body.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func decodeString(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	if isNullish(s) {
		return ""
	}
	return strings.TrimSpace(s)
}

// decodeStrings accepts either a JSON array of strings or a single
// string (the model sometimes collapses one-item lists).
func decodeStrings(raw json.RawMessage) []string {
	out := []string{}
	if raw == nil {
		return out
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" && !isNullish(s) {
				out = append(out, s)
			}
		}
		return out
	}
	if s := decodeString(raw); s != "" {
		out = append(out, s)
	}
	return out
}

type wireTask struct {
	Task     string `json:"task"`
	Priority string `json:"priority"`
	Deadline string `json:"deadline"`
	Assignee string `json:"assignee"`
}

func decodeTasks(raw json.RawMessage, now time.Time) []apimodels.Task {
	tasks := []apimodels.Task{}
	if raw == nil {
		return tasks
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return tasks
	}
	for _, item := range items {
		var wt wireTask
		if err := json.Unmarshal(item, &wt); err != nil {
			continue
		}
		desc := strings.TrimSpace(wt.Task)
		if desc == "" || isNullish(desc) {
			continue
		}
		task := apimodels.Task{
			Description: desc,
			Priority:    coercePriority(wt.Priority),
			DueDate:     parseDueDate(wt.Deadline, now),
		}
		if a := strings.TrimSpace(wt.Assignee); !isNullish(a) {
			task.Assignee = a
		}
		tasks = append(tasks, task)
	}
	return tasks
}

func coercePriority(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case apimodels.PriorityHigh, "urgent", "critical":
		return apimodels.PriorityHigh
	case apimodels.PriorityLow:
		return apimodels.PriorityLow
	default:
		return apimodels.PriorityMedium
	}
}

// isNullish recognizes the textual null sentinels models emit.
func isNullish(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "null", "none", "n/a", "unknown", "tbd":
		return true
	}
	return false
}

var (
	inDaysRe = regexp.MustCompile(`^(?:in\s+)?(\d+)\s+days?$`)
	monthDay = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})$`)
)

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday,
}

// parseDueDate resolves the deadline the model extracted into a date.
// Unparseable deadlines are dropped rather than failing the task.
func parseDueDate(s string, now time.Time) *time.Time {
	s = strings.ToLower(strings.TrimSpace(s))
	if isNullish(s) {
		return nil
	}
	for _, prefix := range []string{"by ", "due ", "on ", "before "} {
		s = strings.TrimPrefix(s, prefix)
	}

	for _, layout := range []string{"2006-01-02", "2006/01/02", "01/02/2006", "Jan 2, 2006", "2 Jan 2006", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOf(t, now.Location())
		}
	}

	if m := monthDay.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			t := time.Date(now.Year(), time.Month(month), day, 0, 0, 0, 0, now.Location())
			return &t
		}
	}

	switch s {
	case "today", "eod", "end of day":
		return dateOf(now, now.Location())
	case "tomorrow":
		return dateOf(now.AddDate(0, 0, 1), now.Location())
	case "next week":
		return dateOf(now.AddDate(0, 0, 7), now.Location())
	case "end of week":
		return resolveWeekday(time.Friday, now, false)
	case "end of month":
		t := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
		return &t
	}

	if m := inDaysRe.FindStringSubmatch(s); m != nil {
		days, _ := strconv.Atoi(m[1])
		return dateOf(now.AddDate(0, 0, days), now.Location())
	}

	next := strings.HasPrefix(s, "next ")
	name := strings.TrimPrefix(strings.TrimPrefix(s, "next "), "this ")
	if wd, ok := weekdays[name]; ok {
		return resolveWeekday(wd, now, next)
	}
	return nil
}

// resolveWeekday finds the upcoming occurrence of a weekday; "next"
// pushes it one week further.
func resolveWeekday(wd time.Weekday, now time.Time, next bool) *time.Time {
	offset := (int(wd) - int(now.Weekday()) + 7) % 7
	if next {
		offset += 7
	}
	return dateOf(now.AddDate(0, 0, offset), now.Location())
}

func dateOf(t time.Time, loc *time.Location) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return &d
}
