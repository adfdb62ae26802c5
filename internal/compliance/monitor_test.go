package compliance

import (
	"testing"
	"time"

	"github.com/building-ops/backend/internal/storage/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDaysUntil(t *testing.T) {
	today := date(2024, time.June, 1)

	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{"same day", date(2024, time.June, 1), 0},
		{"tomorrow", date(2024, time.June, 2), 1},
		{"next month", date(2024, time.July, 1), 30},
		{"yesterday", date(2024, time.May, 31), -1},
		{"time of day ignored", time.Date(2024, time.June, 5, 23, 59, 0, 0, time.UTC), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysUntil(today, tt.date); got != tt.want {
				t.Errorf("DaysUntil = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		days int
		want Severity
	}{
		{-1, SeverityExpired},
		{-100, SeverityExpired},
		{0, SeverityCritical},
		{7, SeverityCritical},
		{8, SeverityWarning},
		{30, SeverityWarning},
		{45, SeverityNotice},
		{60, SeverityNotice},
		{90, SeverityNotice},
		{31, SeverityCompliant}, // not a milestone day
		{58, SeverityCompliant},
		{89, SeverityCompliant},
		{91, SeverityCompliant},
	}

	for _, tt := range tests {
		if got := ClassifySeverity(tt.days); got != tt.want {
			t.Errorf("ClassifySeverity(%d) = %s, want %s", tt.days, got, tt.want)
		}
	}
}

func TestScanHorizonAndExpiry(t *testing.T) {
	today := date(2024, time.June, 1)
	in30 := date(2024, time.July, 1)
	in75 := date(2024, time.August, 15)
	past := date(2024, time.May, 1)

	policies := []models.CompliancePolicy{
		{SubjectID: "c-1", PolicyType: models.PolicyTypeLicense, ExpiryDate: &in30},
		{SubjectID: "c-1", PolicyType: models.PolicyTypeInsurance, ExpiryDate: &in75},
		{SubjectID: "c-1", PolicyType: models.PolicyTypeWorkCover, ExpiryDate: &past},
		{SubjectID: "c-1", PolicyType: models.PolicyTypePublicLiability}, // no expiry date
	}

	findings := Scan(policies, today, 60)

	// in75 is beyond the horizon; the nil expiry is untrackable; the expired
	// policy is always included no matter how old.
	if len(findings) != 2 {
		t.Fatalf("got %d findings, want 2: %+v", len(findings), findings)
	}

	if findings[0].PolicyType != models.PolicyTypeLicense || findings[0].DaysUntilExpiry != 30 {
		t.Errorf("first finding = %+v, want license at 30 days", findings[0])
	}
	if findings[0].Severity != SeverityWarning {
		t.Errorf("license severity = %s, want warning", findings[0].Severity)
	}

	if findings[1].PolicyType != models.PolicyTypeWorkCover || findings[1].DaysUntilExpiry != -31 {
		t.Errorf("second finding = %+v, want expired work cover", findings[1])
	}
	if findings[1].Severity != SeverityExpired {
		t.Errorf("work cover severity = %s, want expired", findings[1].Severity)
	}
}

// A policy can sit inside the scan horizon while its severity label reads
// compliant: inclusion is horizon-based, the label is band-based.
func TestScanIncludesNonMilestoneDaysInsideHorizon(t *testing.T) {
	today := date(2024, time.June, 1)
	in58 := date(2024, time.July, 29)

	findings := Scan([]models.CompliancePolicy{
		{SubjectID: "c-1", PolicyType: models.PolicyTypeLicense, ExpiryDate: &in58},
	}, today, 60)

	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	if findings[0].Severity != SeverityCompliant {
		t.Errorf("severity = %s, want compliant at a non-milestone day", findings[0].Severity)
	}
}
