package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeTaskCreated            MessageType = "task.created"
	TypeScheduleStatusChanged  MessageType = "schedule.status_changed"
	TypeMaintenanceRunFinished MessageType = "maintenance.run_finished"
	TypeComplianceFinding      MessageType = "compliance.finding"
	TypeComplianceStatusChange MessageType = "compliance.status_changed"
	TypeComplianceRunFinished  MessageType = "compliance.run_finished"
	TypeNotification           MessageType = "notification"

	// Client -> Server command types
	TypeSubscribe   MessageType = "subscribe"
	TypeUnsubscribe MessageType = "unsubscribe"
	TypePing        MessageType = "ping"

	// Server -> Client response types
	TypeSubscribeAck MessageType = "subscribe.ack"
	TypePong         MessageType = "pong"
	TypeError        MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// TaskCreatedPayload is the payload for task.created events.
type TaskCreatedPayload struct {
	TaskID       string    `json:"task_id"`
	ScheduleID   string    `json:"schedule_id"`
	BuildingID   string    `json:"building_id"`
	Title        string    `json:"title"`
	ContractorID string    `json:"contractor_id"`
	DueDate      time.Time `json:"due_date"`
}

// ScheduleStatusPayload is the payload for schedule.status_changed events.
type ScheduleStatusPayload struct {
	ScheduleID     string `json:"schedule_id"`
	Subject        string `json:"subject"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
}

// RunFinishedPayload is the payload for maintenance.run_finished and
// compliance.run_finished events.
type RunFinishedPayload struct {
	Kind      string `json:"kind"` // "maintenance" or "compliance"
	Processed int    `json:"processed"`
	Created   int    `json:"created"`
	Errors    int    `json:"errors"`
}

// ComplianceFindingPayload is the payload for compliance.finding events.
type ComplianceFindingPayload struct {
	SubjectID       string `json:"subject_id"`
	SubjectName     string `json:"subject_name"`
	PolicyType      string `json:"policy_type"`
	DaysUntilExpiry int    `json:"days_until_expiry"`
	Severity        string `json:"severity"`
}

// ComplianceStatusPayload is the payload for compliance.status_changed events.
type ComplianceStatusPayload struct {
	ContractorID   string `json:"contractor_id"`
	ContractorName string `json:"contractor_name"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level       string `json:"level"` // info, warning, error, success
	Title       string `json:"title"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"original_type,omitempty"`
}
