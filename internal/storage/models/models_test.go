package models

import (
	"testing"
	"time"
)

func TestParseSpecialtyAliases(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"plumber", SpecialtyPlumbing, true},
		{"plumbing", SpecialtyPlumbing, true},
		{"lifts", SpecialtyElevators, true},
		{"handyman", SpecialtyGeneral, true},
		{"air_conditioning", SpecialtyHVAC, true},
		{"basket_weaving", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseSpecialty(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseSpecialty(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRecurrenceEnded(t *testing.T) {
	due := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	before := due.AddDate(0, 0, -1)
	after := due.AddDate(0, 0, 1)

	s := &MaintenanceSchedule{NextDueDate: due}
	if s.RecurrenceEnded() {
		t.Error("ended without an end date")
	}

	s.RecurrenceEndDate = &after
	if s.RecurrenceEnded() {
		t.Error("ended with next due inside the end date")
	}

	s.RecurrenceEndDate = &due
	if s.RecurrenceEnded() {
		t.Error("ended with next due exactly on the end date")
	}

	s.RecurrenceEndDate = &before
	if !s.RecurrenceEnded() {
		t.Error("not ended with next due past the end date")
	}
}

func TestContractorPolicies(t *testing.T) {
	license := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	c := &Contractor{ID: "c-1", Name: "Good Pipes", LicenseExpiry: &license}

	policies := c.Policies()
	if len(policies) != 4 {
		t.Fatalf("got %d policies, want 4", len(policies))
	}
	if policies[0].PolicyType != PolicyTypeLicense || policies[0].ExpiryDate == nil {
		t.Errorf("first policy = %+v, want license with expiry", policies[0])
	}
	for _, p := range policies[1:] {
		if p.ExpiryDate != nil {
			t.Errorf("policy %s has expiry, want nil", p.PolicyType)
		}
	}
}
