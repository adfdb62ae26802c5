package models

import (
	"time"
)

// GeneratedTask is a single work item produced from a maintenance schedule
// occurrence. Once created it is owned by the work-order workflow; the engine
// only ever creates tasks and records whether the assignee was notified.
type GeneratedTask struct {
	ID                    string    `json:"id"`
	MaintenanceScheduleID string    `json:"maintenance_schedule_id"`
	BuildingID            string    `json:"building_id"`
	AssetID               *string   `json:"asset_id,omitempty"`
	Title                 string    `json:"title"`
	Description           string    `json:"description"`
	AssignedContractorID  string    `json:"assigned_contractor_id"`
	DueDate               time.Time `json:"due_date"`
	Status                string    `json:"status"`
	Tags                  []string  `json:"tags"`
	NotificationSent      bool      `json:"notification_sent"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Task status constants
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusCancelled  = "cancelled"
)

// TagScheduledMaintenance marks tasks produced by the recurring maintenance
// engine, alongside a tag for the recurrence interval that produced them.
const TagScheduledMaintenance = "scheduled_maintenance"
