package models

import (
	"time"
)

// ComplianceDocument is a standalone expiring document (certificate, permit,
// safety report) tracked for a building or contractor.
type ComplianceDocument struct {
	ID             string               `json:"id"`
	SubjectID      string               `json:"subject_id"`
	SubjectName    string               `json:"subject_name"`
	OwnerEmail     string               `json:"owner_email"`
	Category       string               `json:"category"`
	Title          string               `json:"title"`
	Details        string               `json:"details,omitempty"`
	ExpiryDate     *time.Time           `json:"expiry_date,omitempty"`
	RequiresReview bool                 `json:"requires_review"`
	RemindersSent  map[string]time.Time `json:"reminders_sent"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// Document category constants
const (
	DocumentCategoryCertificate = "certificate"
	DocumentCategoryPermit      = "permit"
	DocumentCategoryInsurance   = "insurance"
	DocumentCategorySafety      = "safety_report"
	DocumentCategoryOther       = "other"
)

// Policy returns the document as a uniform compliance policy, keyed by its
// category so reminder bookkeeping stays distinct per document type.
func (d *ComplianceDocument) Policy() CompliancePolicy {
	return CompliancePolicy{
		SubjectID:   d.ID,
		SubjectName: d.SubjectName,
		PolicyType:  d.Category,
		ExpiryDate:  d.ExpiryDate,
		Details:     d.Details,
	}
}
