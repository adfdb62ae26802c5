package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/building-ops/backend/internal/api/middleware"
	"github.com/building-ops/backend/internal/compliance"
	"github.com/building-ops/backend/internal/storage"
	"github.com/building-ops/backend/internal/storage/models"
	"github.com/gorilla/mux"
)

// contractorRequest is the create/update payload for a contractor. Expiry
// dates are accepted as YYYY-MM-DD.
type contractorRequest struct {
	Name                  string   `json:"name"`
	Email                 string   `json:"email"`
	Phone                 *string  `json:"phone"`
	Status                *string  `json:"status"`
	Specialties           []string `json:"specialties"`
	ComplianceScore       *int     `json:"compliance_score"`
	LicenseExpiry         *string  `json:"license_expiry"`
	InsuranceExpiry       *string  `json:"insurance_expiry"`
	WorkCoverExpiry       *string  `json:"work_cover_expiry"`
	PublicLiabilityExpiry *string  `json:"public_liability_expiry"`
}

// parseOptionalDate parses a nullable date field. An explicit empty string
// clears the stored date.
func parseOptionalDate(s *string, current *time.Time) (*time.Time, error) {
	if s == nil {
		return current, nil
	}
	if *s == "" {
		return nil, nil
	}
	t, err := parseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// canonicalizeSpecialties maps raw specialty tags to their canonical forms.
func canonicalizeSpecialties(raw []string) ([]string, bool) {
	var specialties []string
	for _, s := range raw {
		canonical, ok := models.ParseSpecialty(s)
		if !ok {
			return nil, false
		}
		specialties = append(specialties, canonical)
	}
	return specialties, true
}

// ListContractors returns all contractors with optional status filtering.
func ListContractors(repo *storage.ContractorRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := r.URL.Query().Get("status")

		var (
			contractors []models.Contractor
			err         error
		)
		switch status {
		case "":
			contractors, err = repo.ListAll(ctx)
		case models.ContractorStatusActive:
			contractors, err = repo.ListActive(ctx)
		default:
			all, listErr := repo.ListAll(ctx)
			err = listErr
			for _, c := range all {
				if c.Status == status {
					contractors = append(contractors, c)
				}
			}
		}

		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query contractors")
			return
		}

		if contractors == nil {
			contractors = []models.Contractor{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(contractors)
	}
}

// CreateContractor creates a new contractor.
func CreateContractor(repo *storage.ContractorRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req contractorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if req.Name == "" || req.Email == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "name and email are required")
			return
		}

		specialties, ok := canonicalizeSpecialties(req.Specialties)
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Unrecognized contractor specialty")
			return
		}

		c := &models.Contractor{
			Name:        req.Name,
			Email:       req.Email,
			Phone:       req.Phone,
			Specialties: specialties,
		}
		if req.ComplianceScore != nil {
			c.ComplianceScore = *req.ComplianceScore
		}

		var err error
		if c.LicenseExpiry, err = parseOptionalDate(req.LicenseExpiry, nil); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid license_expiry")
			return
		}
		if c.InsuranceExpiry, err = parseOptionalDate(req.InsuranceExpiry, nil); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid insurance_expiry")
			return
		}
		if c.WorkCoverExpiry, err = parseOptionalDate(req.WorkCoverExpiry, nil); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid work_cover_expiry")
			return
		}
		if c.PublicLiabilityExpiry, err = parseOptionalDate(req.PublicLiabilityExpiry, nil); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid public_liability_expiry")
			return
		}

		if err := repo.Create(ctx, c); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create contractor")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(c)
	}
}

// GetContractor returns a single contractor by ID.
func GetContractor(repo *storage.ContractorRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		c, err := repo.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query contractor")
			return
		}
		if c == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Contractor not found")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(c)
	}
}

// UpdateContractor updates an existing contractor. Compliance status
// transitions stay with the review workflow; this endpoint only accepts
// active and inactive so operators cannot hand-clear a pending review.
func UpdateContractor(repo *storage.ContractorRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		c, err := repo.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query contractor")
			return
		}
		if c == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Contractor not found")
			return
		}

		var req contractorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if req.Name != "" {
			c.Name = req.Name
		}
		if req.Email != "" {
			c.Email = req.Email
		}
		if req.Phone != nil {
			c.Phone = req.Phone
		}
		if req.Specialties != nil {
			specialties, ok := canonicalizeSpecialties(req.Specialties)
			if !ok {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Unrecognized contractor specialty")
				return
			}
			c.Specialties = specialties
		}
		if req.ComplianceScore != nil {
			c.ComplianceScore = *req.ComplianceScore
		}
		if req.Status != nil {
			switch *req.Status {
			case models.ContractorStatusActive, models.ContractorStatusInactive:
				c.Status = *req.Status
			default:
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid status. Must be: active or inactive")
				return
			}
		}

		if c.LicenseExpiry, err = parseOptionalDate(req.LicenseExpiry, c.LicenseExpiry); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid license_expiry")
			return
		}
		if c.InsuranceExpiry, err = parseOptionalDate(req.InsuranceExpiry, c.InsuranceExpiry); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid insurance_expiry")
			return
		}
		if c.WorkCoverExpiry, err = parseOptionalDate(req.WorkCoverExpiry, c.WorkCoverExpiry); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid work_cover_expiry")
			return
		}
		if c.PublicLiabilityExpiry, err = parseOptionalDate(req.PublicLiabilityExpiry, c.PublicLiabilityExpiry); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid public_liability_expiry")
			return
		}

		if err := repo.Update(ctx, c); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update contractor")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(c)
	}
}

// DeleteContractor removes a contractor.
func DeleteContractor(repo *storage.ContractorRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		if err := repo.Delete(ctx, id); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Contractor not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// GetContractorCompliance returns the contractor's current expiry findings
// without sending reminders or changing any state.
func GetContractorCompliance(repo *storage.ContractorRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		c, err := repo.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query contractor")
			return
		}
		if c == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Contractor not found")
			return
		}

		findings := compliance.Scan(c.Policies(), time.Now().UTC(), compliance.ContractorHorizonDays)
		if findings == nil {
			findings = []compliance.ExpiryFinding{}
		}

		response := struct {
			ContractorID     string                     `json:"contractor_id"`
			Status           string                     `json:"status"`
			NotificationDate *time.Time                 `json:"notification_date,omitempty"`
			Findings         []compliance.ExpiryFinding `json:"findings"`
		}{
			ContractorID:     c.ID,
			Status:           c.Status,
			NotificationDate: c.NotificationDate,
			Findings:         findings,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}
