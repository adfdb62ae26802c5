package websocket

import (
	"log"
	"time"
)

// EventBroadcaster handles broadcasting WebSocket events.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastTaskCreated sends a task.created event.
func (b *EventBroadcaster) BroadcastTaskCreated(taskID, scheduleID, buildingID, title, contractorID string, dueDate time.Time) {
	payload := TaskCreatedPayload{
		TaskID:       taskID,
		ScheduleID:   scheduleID,
		BuildingID:   buildingID,
		Title:        title,
		ContractorID: contractorID,
		DueDate:      dueDate,
	}

	msg := NewMessage(TypeTaskCreated, payload)
	b.broadcast(msg)
}

// BroadcastScheduleStatusChanged sends a schedule.status_changed event.
func (b *EventBroadcaster) BroadcastScheduleStatusChanged(scheduleID, subject, previousStatus, newStatus string) {
	payload := ScheduleStatusPayload{
		ScheduleID:     scheduleID,
		Subject:        subject,
		PreviousStatus: previousStatus,
		NewStatus:      newStatus,
	}

	msg := NewMessage(TypeScheduleStatusChanged, payload)
	b.broadcast(msg)
}

// BroadcastRunFinished sends a run-finished event for a batch pass.
func (b *EventBroadcaster) BroadcastRunFinished(kind string, processed, created, errors int) {
	payload := RunFinishedPayload{
		Kind:      kind,
		Processed: processed,
		Created:   created,
		Errors:    errors,
	}

	msgType := TypeMaintenanceRunFinished
	if kind == "compliance" {
		msgType = TypeComplianceRunFinished
	}

	msg := NewMessage(msgType, payload)
	b.broadcast(msg)
}

// BroadcastComplianceFinding sends a compliance.finding event.
func (b *EventBroadcaster) BroadcastComplianceFinding(subjectID, subjectName, policyType string, daysUntilExpiry int, severity string) {
	payload := ComplianceFindingPayload{
		SubjectID:       subjectID,
		SubjectName:     subjectName,
		PolicyType:      policyType,
		DaysUntilExpiry: daysUntilExpiry,
		Severity:        severity,
	}

	msg := NewMessage(TypeComplianceFinding, payload)
	b.broadcast(msg)
}

// BroadcastComplianceStatusChanged sends a compliance.status_changed event.
func (b *EventBroadcaster) BroadcastComplianceStatusChanged(contractorID, contractorName, previousStatus, newStatus string) {
	payload := ComplianceStatusPayload{
		ContractorID:   contractorID,
		ContractorName: contractorName,
		PreviousStatus: previousStatus,
		NewStatus:      newStatus,
	}

	msg := NewMessage(TypeComplianceStatusChange, payload)
	b.broadcast(msg)
}

// BroadcastNotification sends a notification to all connected clients.
func (b *EventBroadcaster) BroadcastNotification(level, title, message string) {
	payload := NotificationPayload{
		Level:       level,
		Title:       title,
		Message:     message,
		Dismissible: true,
	}

	msg := NewMessage(TypeNotification, payload)
	b.broadcast(msg)
}

// broadcast sends a message to all connected clients.
func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}

	b.hub.Broadcast(data)
}
