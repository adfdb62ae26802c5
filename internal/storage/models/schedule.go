package models

import (
	"time"
)

// MaintenanceSchedule represents a recurring maintenance obligation for a building
// or a specific asset within it.
type MaintenanceSchedule struct {
	ID                     string     `json:"id"`
	BuildingID             string     `json:"building_id"`
	AssetID                *string    `json:"asset_id,omitempty"`
	Subject                string     `json:"subject"`
	Description            string     `json:"description"`
	Recurrence             string     `json:"recurrence"`
	NextDueDate            time.Time  `json:"next_due_date"`
	RecurrenceEndDate      *time.Time `json:"recurrence_end_date,omitempty"`
	Status                 string     `json:"status"`
	AssignedContractorID   *string    `json:"assigned_contractor_id,omitempty"`
	AssignedContractorType *string    `json:"assigned_contractor_type,omitempty"`
	GeneratedTaskIDs       []string   `json:"generated_task_ids"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// Recurrence interval constants
const (
	RecurrenceNone       = "none"
	RecurrenceDaily      = "daily"
	RecurrenceWeekly     = "weekly"
	RecurrenceMonthly    = "monthly"
	RecurrenceQuarterly  = "quarterly"
	RecurrenceHalfYearly = "half_yearly"
	RecurrenceYearly     = "yearly"
)

// Schedule status constants
const (
	ScheduleStatusActive            = "active"             // Generating tasks as occurrences come due
	ScheduleStatusPendingAssignment = "pending_assignment" // Parked: no qualifying contractor found
	ScheduleStatusCompleted         = "completed"          // No further occurrences will fire
)

// ValidRecurrence reports whether r is a recognized recurrence interval.
func ValidRecurrence(r string) bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly,
		RecurrenceQuarterly, RecurrenceHalfYearly, RecurrenceYearly:
		return true
	}
	return false
}

// IsDue reports whether the schedule's next occurrence is on or before today.
func (s *MaintenanceSchedule) IsDue(today time.Time) bool {
	return !s.NextDueDate.After(today)
}

// RecurrenceEnded reports whether the next occurrence falls past the
// schedule's end date, meaning no further tasks should ever be generated.
func (s *MaintenanceSchedule) RecurrenceEnded() bool {
	return s.RecurrenceEndDate != nil && s.NextDueDate.After(*s.RecurrenceEndDate)
}
