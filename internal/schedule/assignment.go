package schedule

import (
	"github.com/building-ops/backend/internal/storage/models"
)

// MinComplianceScore is the lowest compliance score an unpinned contractor
// may have and still be auto-assigned to generated tasks.
const MinComplianceScore = 70

// AssignmentResolver resolves the responsible contractor for a due schedule.
type AssignmentResolver struct {
	minScore int
}

// NewAssignmentResolver creates a resolver with the given score threshold.
// A threshold of zero or less falls back to MinComplianceScore.
func NewAssignmentResolver(minScore int) *AssignmentResolver {
	if minScore <= 0 {
		minScore = MinComplianceScore
	}
	return &AssignmentResolver{minScore: minScore}
}

// Resolve picks the contractor responsible for the schedule's next task.
//
// A pinned assigned_contractor_id is authoritative: it is returned even if
// that contractor's compliance score has degraded since pinning. Otherwise
// the first active contractor (in input order) carrying the required
// specialty with a score at or above the threshold wins; no ranking is
// applied. Returns nil when no candidate qualifies.
func (r *AssignmentResolver) Resolve(s *models.MaintenanceSchedule, contractors []models.Contractor) *models.Contractor {
	if s.AssignedContractorID != nil && *s.AssignedContractorID != "" {
		for i := range contractors {
			if contractors[i].ID == *s.AssignedContractorID {
				return &contractors[i]
			}
		}
		return nil
	}

	if s.AssignedContractorType == nil || *s.AssignedContractorType == "" {
		return nil
	}

	specialty, ok := models.ParseSpecialty(*s.AssignedContractorType)
	if !ok {
		return nil
	}

	for i := range contractors {
		c := &contractors[i]
		if c.Status != models.ContractorStatusActive {
			continue
		}
		if !c.HasSpecialty(specialty) {
			continue
		}
		if c.ComplianceScore < r.minScore {
			continue
		}
		return c
	}

	return nil
}
