package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/building-ops/backend/internal/api/middleware"
	"github.com/building-ops/backend/internal/storage"
	"github.com/building-ops/backend/internal/storage/models"
	"github.com/gorilla/mux"
)

// documentRequest is the create/update payload for a compliance document.
// The expiry date is accepted as YYYY-MM-DD.
type documentRequest struct {
	SubjectID   string  `json:"subject_id"`
	SubjectName string  `json:"subject_name"`
	OwnerEmail  string  `json:"owner_email"`
	Category    string  `json:"category"`
	Title       string  `json:"title"`
	Details     string  `json:"details"`
	ExpiryDate  *string `json:"expiry_date"`
}

func validDocumentCategory(category string) bool {
	switch category {
	case models.DocumentCategoryCertificate, models.DocumentCategoryPermit,
		models.DocumentCategoryInsurance, models.DocumentCategorySafety,
		models.DocumentCategoryOther:
		return true
	}
	return false
}

// ListDocuments returns compliance documents with optional subject filtering.
func ListDocuments(repo *storage.DocumentRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		subjectID := r.URL.Query().Get("subject_id")

		var (
			documents []models.ComplianceDocument
			err       error
		)
		if subjectID != "" {
			documents, err = repo.ListBySubject(ctx, subjectID)
		} else {
			documents, err = repo.ListAll(ctx)
		}

		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query documents")
			return
		}

		if documents == nil {
			documents = []models.ComplianceDocument{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(documents)
	}
}

// CreateDocument creates a new compliance document.
func CreateDocument(repo *storage.DocumentRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req documentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if req.SubjectID == "" || req.Title == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "subject_id and title are required")
			return
		}
		if req.Category != "" && !validDocumentCategory(req.Category) {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid category")
			return
		}

		expiry, err := parseOptionalDate(req.ExpiryDate, nil)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid expiry_date")
			return
		}

		d := &models.ComplianceDocument{
			SubjectID:   req.SubjectID,
			SubjectName: req.SubjectName,
			OwnerEmail:  req.OwnerEmail,
			Category:    req.Category,
			Title:       req.Title,
			Details:     req.Details,
			ExpiryDate:  expiry,
		}

		if err := repo.Create(ctx, d); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create document")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(d)
	}
}

// GetDocument returns a single compliance document by ID.
func GetDocument(repo *storage.DocumentRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		d, err := repo.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query document")
			return
		}
		if d == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Document not found")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(d)
	}
}

// UpdateDocument updates an existing compliance document. Renewing the
// expiry date here is what lets the next document check clear the review
// flag.
func UpdateDocument(repo *storage.DocumentRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		d, err := repo.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query document")
			return
		}
		if d == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Document not found")
			return
		}

		var req documentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if req.SubjectID != "" {
			d.SubjectID = req.SubjectID
		}
		if req.SubjectName != "" {
			d.SubjectName = req.SubjectName
		}
		if req.OwnerEmail != "" {
			d.OwnerEmail = req.OwnerEmail
		}
		if req.Category != "" {
			if !validDocumentCategory(req.Category) {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid category")
				return
			}
			d.Category = req.Category
		}
		if req.Title != "" {
			d.Title = req.Title
		}
		if req.Details != "" {
			d.Details = req.Details
		}
		if d.ExpiryDate, err = parseOptionalDate(req.ExpiryDate, d.ExpiryDate); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid expiry_date")
			return
		}

		if err := repo.Update(ctx, d); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update document")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(d)
	}
}

// DeleteDocument removes a compliance document.
func DeleteDocument(repo *storage.DocumentRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		if err := repo.Delete(ctx, id); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Document not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
