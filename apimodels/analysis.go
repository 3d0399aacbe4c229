package apimodels

import "time"

// Priority buckets inferred by the model for each extracted task.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Task is one actionable item extracted from an email. Tasks have no
// identity beyond their position in the Analysis task list.
type Task struct {
	// Description of the work item
	Description string `json:"description"`

	// Priority is one of high/medium/low
	Priority string `json:"priority"`

	// DueDate is absent when the email names no deadline
	DueDate *time.Time `json:"dueDate,omitempty"`

	// Assignee is absent when the email names no owner
	Assignee string `json:"assignee,omitempty"`
}

// Analysis is the structured result of one analysis pass. It is built
// once from the model reply and read-only afterwards.
type Analysis struct {
	Summary     string   `json:"summary"`
	KeyPoints   []string `json:"keyPoints"`
	ActionItems []string `json:"actionItems"`
	FollowUps   []string `json:"followUps"`
	Tasks       []Task   `json:"tasks"`
	Sentiment   string   `json:"sentiment,omitempty"`
	Urgency     string   `json:"urgency,omitempty"`
}

// HistoryEntry pairs one analysis request with its result.
type HistoryEntry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Request   AnalysisRequest `json:"request"`
	Analysis  Analysis        `json:"analysis"`
}
