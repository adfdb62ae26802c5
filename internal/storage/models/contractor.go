package models

import (
	"time"
)

// Contractor represents a service provider that can be assigned maintenance
// tasks. Compliance-bearing policy expiry dates live directly on the record;
// reminders_sent tracks per-(policy, window) reminder timestamps.
type Contractor struct {
	ID                    string               `json:"id"`
	Name                  string               `json:"name"`
	Email                 string               `json:"email"`
	Phone                 *string              `json:"phone,omitempty"`
	Status                string               `json:"status"`
	Specialties           []string             `json:"specialties"`
	ComplianceScore       int                  `json:"compliance_score"`
	LicenseExpiry         *time.Time           `json:"license_expiry,omitempty"`
	InsuranceExpiry       *time.Time           `json:"insurance_expiry,omitempty"`
	WorkCoverExpiry       *time.Time           `json:"work_cover_expiry,omitempty"`
	PublicLiabilityExpiry *time.Time           `json:"public_liability_expiry,omitempty"`
	RemindersSent         map[string]time.Time `json:"reminders_sent"`
	NotificationDate      *time.Time           `json:"notification_date,omitempty"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

// Contractor status constants
const (
	ContractorStatusActive                  = "active"
	ContractorStatusPendingComplianceReview = "pending_compliance_review"
	ContractorStatusInactive                = "inactive"
)

// Policy type constants for contractor compliance fields.
const (
	PolicyTypeLicense         = "license"
	PolicyTypeInsurance       = "insurance"
	PolicyTypeWorkCover       = "work_cover"
	PolicyTypePublicLiability = "public_liability"
)

// Contractor specialty tags. The resolver matches against this closed set
// rather than free-text strings.
const (
	SpecialtyPlumbing    = "plumbing"
	SpecialtyElectrical  = "electrical"
	SpecialtyHVAC        = "hvac"
	SpecialtyFireSafety  = "fire_safety"
	SpecialtyElevators   = "elevators"
	SpecialtyCleaning    = "cleaning"
	SpecialtyLandscaping = "landscaping"
	SpecialtyPainting    = "painting"
	SpecialtyRoofing     = "roofing"
	SpecialtyGeneral     = "general"
)

var specialtyAliases = map[string]string{
	"plumbing":         SpecialtyPlumbing,
	"plumber":          SpecialtyPlumbing,
	"electrical":       SpecialtyElectrical,
	"electrician":      SpecialtyElectrical,
	"hvac":             SpecialtyHVAC,
	"air_conditioning": SpecialtyHVAC,
	"fire_safety":      SpecialtyFireSafety,
	"fire":             SpecialtyFireSafety,
	"elevators":        SpecialtyElevators,
	"lifts":            SpecialtyElevators,
	"cleaning":         SpecialtyCleaning,
	"landscaping":      SpecialtyLandscaping,
	"gardening":        SpecialtyLandscaping,
	"painting":         SpecialtyPainting,
	"roofing":          SpecialtyRoofing,
	"general":          SpecialtyGeneral,
	"handyman":         SpecialtyGeneral,
}

// ParseSpecialty maps a raw specialty tag to its canonical form.
// Returns the canonical tag and whether the input was recognized.
func ParseSpecialty(raw string) (string, bool) {
	s, ok := specialtyAliases[raw]
	return s, ok
}

// HasSpecialty reports whether the contractor carries the given canonical
// specialty tag.
func (c *Contractor) HasSpecialty(specialty string) bool {
	for _, s := range c.Specialties {
		if s == specialty {
			return true
		}
	}
	return false
}

// Policies returns the contractor's compliance policies as a uniform slice.
// Policies without an expiry date are included; the monitor skips them.
func (c *Contractor) Policies() []CompliancePolicy {
	return []CompliancePolicy{
		{SubjectID: c.ID, SubjectName: c.Name, PolicyType: PolicyTypeLicense, ExpiryDate: c.LicenseExpiry},
		{SubjectID: c.ID, SubjectName: c.Name, PolicyType: PolicyTypeInsurance, ExpiryDate: c.InsuranceExpiry},
		{SubjectID: c.ID, SubjectName: c.Name, PolicyType: PolicyTypeWorkCover, ExpiryDate: c.WorkCoverExpiry},
		{SubjectID: c.ID, SubjectName: c.Name, PolicyType: PolicyTypePublicLiability, ExpiryDate: c.PublicLiabilityExpiry},
	}
}

// CompliancePolicy is the uniform view of a compliance-bearing item: a named
// expiry field on a contractor, or a standalone compliance document.
type CompliancePolicy struct {
	SubjectID   string     `json:"subject_id"`
	SubjectName string     `json:"subject_name"`
	PolicyType  string     `json:"policy_type"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	Details     string     `json:"details,omitempty"`
}
