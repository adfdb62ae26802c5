package models

import (
	"time"
)

// ItemError records a per-item failure inside a batch pass. One item's
// failure never aborts the rest of the pass.
type ItemError struct {
	SubjectID string `json:"subject_id"`
	Message   string `json:"message"`
}

// MaintenanceRunResult summarizes one task-generation pass.
type MaintenanceRunResult struct {
	RunAt             time.Time   `json:"run_at"`
	Processed         int         `json:"processed"`
	TasksCreated      int         `json:"tasks_created"`
	TaskIDs           []string    `json:"task_ids"`
	Completed         int         `json:"completed"`
	PendingAssignment int         `json:"pending_assignment"`
	Errors            []ItemError `json:"errors"`
}

// ComplianceRunResult summarizes one compliance scan pass.
type ComplianceRunResult struct {
	RunAt         time.Time   `json:"run_at"`
	Processed     int         `json:"processed"`
	Findings      int         `json:"findings"`
	RemindersSent int         `json:"reminders_sent"`
	Flagged       int         `json:"flagged"`
	Cleared       int         `json:"cleared"`
	Escalated     int         `json:"escalated"`
	Errors        []ItemError `json:"errors"`
}
