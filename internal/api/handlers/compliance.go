package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/building-ops/backend/internal/api/middleware"
	"github.com/building-ops/backend/internal/compliance"
	"github.com/building-ops/backend/internal/storage/models"
)

// RunComplianceReview triggers an on-demand contractor compliance pass,
// optionally scoped to one contractor via the contractor_id query parameter.
func RunComplianceReview(service *compliance.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		contractorID := r.URL.Query().Get("contractor_id")
		today := time.Now().UTC()

		var (
			result *models.ComplianceRunResult
			err    error
		)
		if contractorID != "" {
			result, err = service.RunContractorReviewFor(ctx, today, contractorID)
		} else {
			result, err = service.RunContractorReview(ctx, today)
		}

		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Compliance review pass failed")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

// RunDocumentCheck triggers an on-demand document expiry pass.
func RunDocumentCheck(service *compliance.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		result, err := service.RunDocumentCheck(ctx, time.Now().UTC())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Document check pass failed")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}
