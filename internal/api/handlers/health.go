// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/building-ops/backend/internal/compliance"
	"github.com/building-ops/backend/internal/schedule"
	"github.com/building-ops/backend/internal/storage"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.Ping() == nil

		status := "healthy"
		if !dbConnected {
			status = "degraded"
		}

		response := HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
		}

		w.Header().Set("Content-Type", "application/json")
		if status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(response)
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	ActiveSchedules      int    `json:"active_schedules"`
	PendingAssignment    int    `json:"pending_assignment"`
	PendingTasks         int    `json:"pending_tasks"`
	MonitoredContractors int    `json:"monitored_contractors"`
	PendingReviews       int    `json:"pending_reviews"`
	TrackedDocuments     int    `json:"tracked_documents"`
	NextMaintenanceRun   string `json:"next_maintenance_run,omitempty"`
	NextComplianceRun    string `json:"next_compliance_run,omitempty"`
}

// Status returns a handler that provides system status information.
func Status(db *storage.DB, maintenanceScheduler *schedule.Scheduler, complianceScheduler *compliance.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var response StatusResponse

		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM maintenance_schedules WHERE status = 'active'").Scan(&response.ActiveSchedules)
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM maintenance_schedules WHERE status = 'pending_assignment'").Scan(&response.PendingAssignment)
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM generated_tasks WHERE status = 'pending'").Scan(&response.PendingTasks)
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contractors WHERE status != 'inactive'").Scan(&response.MonitoredContractors)
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contractors WHERE status = 'pending_compliance_review'").Scan(&response.PendingReviews)
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM compliance_documents WHERE expiry_date IS NOT NULL").Scan(&response.TrackedDocuments)

		if maintenanceScheduler != nil {
			if next := maintenanceScheduler.NextRun(); next != nil {
				response.NextMaintenanceRun = next.Format("2006-01-02T15:04:05Z07:00")
			}
		}
		if complianceScheduler != nil {
			if next := complianceScheduler.NextRun(); next != nil {
				response.NextComplianceRun = next.Format("2006-01-02T15:04:05Z07:00")
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}
