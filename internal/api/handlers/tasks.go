package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/building-ops/backend/internal/api/middleware"
	"github.com/building-ops/backend/internal/storage"
	"github.com/building-ops/backend/internal/storage/models"
	"github.com/gorilla/mux"
)

// ListTasks returns generated tasks with optional filtering by schedule,
// building, or status.
func ListTasks(repo *storage.TaskRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		scheduleID := r.URL.Query().Get("schedule_id")
		buildingID := r.URL.Query().Get("building_id")
		status := r.URL.Query().Get("status")

		var (
			tasks []models.GeneratedTask
			err   error
		)
		switch {
		case scheduleID != "":
			tasks, err = repo.ListBySchedule(ctx, scheduleID)
		case buildingID != "":
			tasks, err = repo.ListByBuilding(ctx, buildingID)
		case status != "":
			tasks, err = repo.ListByStatus(ctx, status)
		default:
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "One of schedule_id, building_id, or status is required")
			return
		}

		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query tasks")
			return
		}

		if tasks == nil {
			tasks = []models.GeneratedTask{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tasks)
	}
}

// GetTask returns a single generated task by ID.
func GetTask(repo *storage.TaskRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		t, err := repo.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query task")
			return
		}
		if t == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Task not found")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(t)
	}
}

// UpdateTaskStatus updates the workflow status of a generated task.
func UpdateTaskStatus(repo *storage.TaskRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		switch req.Status {
		case models.TaskStatusPending, models.TaskStatusInProgress,
			models.TaskStatusCompleted, models.TaskStatusCancelled:
		default:
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid status. Must be: pending, in_progress, completed, or cancelled")
			return
		}

		t, err := repo.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query task")
			return
		}
		if t == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Task not found")
			return
		}

		if err := repo.UpdateStatus(ctx, id, req.Status); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update task status")
			return
		}

		t.Status = req.Status

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(t)
	}
}
