// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/building-ops/backend/internal/api/handlers"
	"github.com/building-ops/backend/internal/api/middleware"
	"github.com/building-ops/backend/internal/compliance"
	"github.com/building-ops/backend/internal/schedule"
	"github.com/building-ops/backend/internal/storage"
	"github.com/building-ops/backend/internal/websocket"
	"github.com/gorilla/mux"
)

// Repositories bundles the data-access layer handed to the router.
type Repositories struct {
	Schedules   *storage.ScheduleRepository
	Tasks       *storage.TaskRepository
	Contractors *storage.ContractorRepository
	Documents   *storage.DocumentRepository
}

// NewRouter creates and configures the HTTP router with all API routes and
// injects the engine services for on-demand run triggers.
func NewRouter(
	db *storage.DB,
	repos Repositories,
	hub *websocket.Hub,
	staticDir string,
	generator *schedule.Generator,
	complianceService *compliance.Service,
	maintenanceScheduler *schedule.Scheduler,
	complianceScheduler *compliance.Scheduler,
) *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	// API subrouter
	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(db)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(db, maintenanceScheduler, complianceScheduler)).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(hub)).Methods("GET")

	// Maintenance schedule endpoints
	api.HandleFunc("/schedules", handlers.ListSchedules(repos.Schedules)).Methods("GET")
	api.HandleFunc("/schedules", handlers.CreateSchedule(repos.Schedules)).Methods("POST")
	api.HandleFunc("/schedules/{id}", handlers.GetSchedule(repos.Schedules)).Methods("GET")
	api.HandleFunc("/schedules/{id}", handlers.UpdateSchedule(repos.Schedules)).Methods("PATCH")
	api.HandleFunc("/schedules/{id}", handlers.DeleteSchedule(repos.Schedules)).Methods("DELETE")

	// Generated task endpoints
	api.HandleFunc("/tasks", handlers.ListTasks(repos.Tasks)).Methods("GET")
	api.HandleFunc("/tasks/{id}", handlers.GetTask(repos.Tasks)).Methods("GET")
	api.HandleFunc("/tasks/{id}", handlers.UpdateTaskStatus(repos.Tasks)).Methods("PATCH")

	// Contractor endpoints
	api.HandleFunc("/contractors", handlers.ListContractors(repos.Contractors)).Methods("GET")
	api.HandleFunc("/contractors", handlers.CreateContractor(repos.Contractors)).Methods("POST")
	api.HandleFunc("/contractors/{id}", handlers.GetContractor(repos.Contractors)).Methods("GET")
	api.HandleFunc("/contractors/{id}", handlers.UpdateContractor(repos.Contractors)).Methods("PATCH")
	api.HandleFunc("/contractors/{id}", handlers.DeleteContractor(repos.Contractors)).Methods("DELETE")
	api.HandleFunc("/contractors/{id}/compliance", handlers.GetContractorCompliance(repos.Contractors)).Methods("GET")

	// Compliance document endpoints
	api.HandleFunc("/documents", handlers.ListDocuments(repos.Documents)).Methods("GET")
	api.HandleFunc("/documents", handlers.CreateDocument(repos.Documents)).Methods("POST")
	api.HandleFunc("/documents/{id}", handlers.GetDocument(repos.Documents)).Methods("GET")
	api.HandleFunc("/documents/{id}", handlers.UpdateDocument(repos.Documents)).Methods("PATCH")
	api.HandleFunc("/documents/{id}", handlers.DeleteDocument(repos.Documents)).Methods("DELETE")

	// On-demand engine runs
	api.HandleFunc("/schedules/run", handlers.RunMaintenance(generator)).Methods("POST")
	api.HandleFunc("/compliance/run", handlers.RunComplianceReview(complianceService)).Methods("POST")
	api.HandleFunc("/compliance/documents/run", handlers.RunDocumentCheck(complianceService)).Methods("POST")

	// Serve static frontend files
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))

	return r
}
