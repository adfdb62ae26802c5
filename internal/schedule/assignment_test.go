package schedule

import (
	"testing"

	"github.com/building-ops/backend/internal/storage/models"
)

func strptr(s string) *string {
	return &s
}

func testContractors() []models.Contractor {
	return []models.Contractor{
		{
			ID:              "c-plumber-low",
			Name:            "Cheap Pipes",
			Status:          models.ContractorStatusActive,
			Specialties:     []string{models.SpecialtyPlumbing},
			ComplianceScore: 50,
		},
		{
			ID:              "c-plumber-ok",
			Name:            "Good Pipes",
			Status:          models.ContractorStatusActive,
			Specialties:     []string{models.SpecialtyPlumbing, models.SpecialtyGeneral},
			ComplianceScore: 85,
		},
		{
			ID:              "c-plumber-better",
			Name:            "Best Pipes",
			Status:          models.ContractorStatusActive,
			Specialties:     []string{models.SpecialtyPlumbing},
			ComplianceScore: 99,
		},
		{
			ID:              "c-sparky-inactive",
			Name:            "Retired Electrics",
			Status:          models.ContractorStatusInactive,
			Specialties:     []string{models.SpecialtyElectrical},
			ComplianceScore: 95,
		},
	}
}

func TestResolvePinnedContractorWins(t *testing.T) {
	resolver := NewAssignmentResolver(0)
	s := &models.MaintenanceSchedule{
		AssignedContractorID:   strptr("c-plumber-low"),
		AssignedContractorType: strptr("plumbing"),
	}

	// The pin is authoritative even though the contractor's score is below
	// the threshold and a better candidate exists.
	got := resolver.Resolve(s, testContractors())
	if got == nil || got.ID != "c-plumber-low" {
		t.Fatalf("Resolve = %+v, want pinned contractor c-plumber-low", got)
	}
}

func TestResolvePinnedContractorMissing(t *testing.T) {
	resolver := NewAssignmentResolver(0)
	s := &models.MaintenanceSchedule{
		AssignedContractorID: strptr("c-gone"),
	}

	if got := resolver.Resolve(s, testContractors()); got != nil {
		t.Fatalf("Resolve = %+v, want nil for unknown pinned id", got)
	}
}

func TestResolveFirstQualifyingBySpecialty(t *testing.T) {
	resolver := NewAssignmentResolver(0)
	s := &models.MaintenanceSchedule{
		AssignedContractorType: strptr("plumber"),
	}

	// c-plumber-low is skipped (score below threshold); c-plumber-ok is the
	// first qualifying match and wins over the higher-scored candidate after
	// it. No ranking is applied.
	got := resolver.Resolve(s, testContractors())
	if got == nil || got.ID != "c-plumber-ok" {
		t.Fatalf("Resolve = %+v, want c-plumber-ok", got)
	}
}

func TestResolveSkipsInactive(t *testing.T) {
	resolver := NewAssignmentResolver(0)
	s := &models.MaintenanceSchedule{
		AssignedContractorType: strptr("electrical"),
	}

	if got := resolver.Resolve(s, testContractors()); got != nil {
		t.Fatalf("Resolve = %+v, want nil when only match is inactive", got)
	}
}

func TestResolveNoAssignmentHints(t *testing.T) {
	resolver := NewAssignmentResolver(0)

	if got := resolver.Resolve(&models.MaintenanceSchedule{}, testContractors()); got != nil {
		t.Fatalf("Resolve = %+v, want nil without pin or specialty", got)
	}
}

func TestResolveUnknownSpecialty(t *testing.T) {
	resolver := NewAssignmentResolver(0)
	s := &models.MaintenanceSchedule{
		AssignedContractorType: strptr("basket_weaving"),
	}

	if got := resolver.Resolve(s, testContractors()); got != nil {
		t.Fatalf("Resolve = %+v, want nil for unrecognized specialty", got)
	}
}

func TestResolveCustomThreshold(t *testing.T) {
	resolver := NewAssignmentResolver(90)
	s := &models.MaintenanceSchedule{
		AssignedContractorType: strptr("plumbing"),
	}

	got := resolver.Resolve(s, testContractors())
	if got == nil || got.ID != "c-plumber-better" {
		t.Fatalf("Resolve = %+v, want c-plumber-better at threshold 90", got)
	}
}
