package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/building-ops/backend/internal/api/middleware"
	"github.com/building-ops/backend/internal/schedule"
	"github.com/building-ops/backend/internal/storage"
	"github.com/building-ops/backend/internal/storage/models"
	"github.com/gorilla/mux"
)

// scheduleRequest is the create/update payload for a maintenance schedule.
// Dates are accepted as YYYY-MM-DD.
type scheduleRequest struct {
	BuildingID             string  `json:"building_id"`
	AssetID                *string `json:"asset_id"`
	Subject                string  `json:"subject"`
	Description            string  `json:"description"`
	Recurrence             string  `json:"recurrence"`
	NextDueDate            string  `json:"next_due_date"`
	RecurrenceEndDate      *string `json:"recurrence_end_date"`
	Status                 *string `json:"status"`
	AssignedContractorID   *string `json:"assigned_contractor_id"`
	AssignedContractorType *string `json:"assigned_contractor_type"`
}

// parseDate parses a date in YYYY-MM-DD or RFC 3339 form.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// ListSchedules returns all maintenance schedules with optional filtering.
func ListSchedules(repo *storage.ScheduleRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		buildingID := r.URL.Query().Get("building_id")
		status := r.URL.Query().Get("status")

		var (
			schedules []models.MaintenanceSchedule
			err       error
		)
		switch {
		case buildingID != "":
			schedules, err = repo.ListByBuilding(ctx, buildingID)
		case status != "":
			schedules, err = repo.ListByStatus(ctx, status)
		default:
			schedules, err = repo.ListAll(ctx)
		}

		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query schedules")
			return
		}

		if schedules == nil {
			schedules = []models.MaintenanceSchedule{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(schedules)
	}
}

// CreateSchedule creates a new maintenance schedule.
func CreateSchedule(repo *storage.ScheduleRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req scheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if req.BuildingID == "" || req.Subject == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "building_id and subject are required")
			return
		}
		if !models.ValidRecurrence(req.Recurrence) {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid recurrence interval")
			return
		}

		nextDue, err := parseDate(req.NextDueDate)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid next_due_date")
			return
		}

		var endDate *time.Time
		if req.RecurrenceEndDate != nil {
			t, err := parseDate(*req.RecurrenceEndDate)
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid recurrence_end_date")
				return
			}
			endDate = &t
		}

		if req.AssignedContractorType != nil {
			canonical, ok := models.ParseSpecialty(*req.AssignedContractorType)
			if !ok {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Unrecognized contractor specialty")
				return
			}
			req.AssignedContractorType = &canonical
		}

		s := &models.MaintenanceSchedule{
			BuildingID:             req.BuildingID,
			AssetID:                req.AssetID,
			Subject:                req.Subject,
			Description:            req.Description,
			Recurrence:             req.Recurrence,
			NextDueDate:            nextDue,
			RecurrenceEndDate:      endDate,
			AssignedContractorID:   req.AssignedContractorID,
			AssignedContractorType: req.AssignedContractorType,
		}

		if err := repo.Create(ctx, s); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create schedule")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(s)
	}
}

// GetSchedule returns a single maintenance schedule by ID.
func GetSchedule(repo *storage.ScheduleRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		s, err := repo.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query schedule")
			return
		}
		if s == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Schedule not found")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s)
	}
}

// UpdateSchedule updates an existing maintenance schedule. Reactivating a
// parked schedule is done here by setting status back to active once a
// contractor has been pinned or a qualifying specialty exists.
func UpdateSchedule(repo *storage.ScheduleRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		s, err := repo.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query schedule")
			return
		}
		if s == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Schedule not found")
			return
		}

		var req scheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if req.Subject != "" {
			s.Subject = req.Subject
		}
		if req.Description != "" {
			s.Description = req.Description
		}
		if req.Recurrence != "" {
			if !models.ValidRecurrence(req.Recurrence) {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid recurrence interval")
				return
			}
			s.Recurrence = req.Recurrence
		}
		if req.NextDueDate != "" {
			nextDue, err := parseDate(req.NextDueDate)
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid next_due_date")
				return
			}
			s.NextDueDate = nextDue
		}
		if req.RecurrenceEndDate != nil {
			if *req.RecurrenceEndDate == "" {
				s.RecurrenceEndDate = nil
			} else {
				t, err := parseDate(*req.RecurrenceEndDate)
				if err != nil {
					middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid recurrence_end_date")
					return
				}
				s.RecurrenceEndDate = &t
			}
		}
		if req.AssignedContractorID != nil {
			if *req.AssignedContractorID == "" {
				s.AssignedContractorID = nil
			} else {
				s.AssignedContractorID = req.AssignedContractorID
			}
		}
		if req.AssignedContractorType != nil {
			canonical, ok := models.ParseSpecialty(*req.AssignedContractorType)
			if !ok {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Unrecognized contractor specialty")
				return
			}
			s.AssignedContractorType = &canonical
		}
		if req.Status != nil {
			switch *req.Status {
			case models.ScheduleStatusActive, models.ScheduleStatusPendingAssignment, models.ScheduleStatusCompleted:
				s.Status = *req.Status
			default:
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid status. Must be: active, pending_assignment, or completed")
				return
			}
		}

		if err := repo.Update(ctx, s); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update schedule")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s)
	}
}

// DeleteSchedule removes a maintenance schedule.
func DeleteSchedule(repo *storage.ScheduleRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		if err := repo.Delete(ctx, id); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Schedule not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// RunMaintenance triggers an on-demand task-generation pass, optionally
// scoped to one building via the building_id query parameter.
func RunMaintenance(generator *schedule.Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		buildingID := r.URL.Query().Get("building_id")
		today := time.Now().UTC()

		var (
			result *models.MaintenanceRunResult
			err    error
		)
		if buildingID != "" {
			result, err = generator.RunForBuilding(ctx, today, buildingID)
		} else {
			result, err = generator.Run(ctx, today)
		}

		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Maintenance pass failed")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}
