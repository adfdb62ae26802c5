// Package compliance implements expiry scanning for contractor policies and
// standalone documents, the reminder escalation protocol, and the contractor
// compliance-review state machine.
package compliance

import (
	"time"

	"github.com/building-ops/backend/internal/storage/models"
)

// Severity classifies how close a policy is to expiring.
type Severity string

const (
	SeverityExpired   Severity = "expired"  // Past its expiry date
	SeverityCritical  Severity = "critical" // 7 days or less remaining
	SeverityWarning   Severity = "warning"  // 30 days or less remaining
	SeverityNotice    Severity = "notice"   // At a recognized milestone inside 90 days
	SeverityCompliant Severity = "compliant"
)

// noticeMilestones are the lead-time days at which a notice-band policy is
// called out. Between milestones a far-out policy stays "compliant" even
// though it may still sit inside a scan horizon.
var noticeMilestones = map[int]bool{90: true, 60: true, 45: true}

// ExpiryFinding is one expiring or expired policy surfaced by a scan.
type ExpiryFinding struct {
	SubjectID       string    `json:"subject_id"`
	SubjectName     string    `json:"subject_name"`
	PolicyType      string    `json:"policy_type"`
	ExpiryDate      time.Time `json:"expiry_date"`
	DaysUntilExpiry int       `json:"days_until_expiry"`
	Severity        Severity  `json:"severity"`
}

// DaysUntil returns the whole days from today until the given date, negative
// when the date has passed. Both values are compared at day granularity so
// the time-of-day a pass runs at cannot change the result.
func DaysUntil(today, date time.Time) int {
	t := truncateToDay(today)
	d := truncateToDay(date)
	return int(d.Sub(t).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ClassifySeverity maps days-until-expiry onto a severity band.
func ClassifySeverity(days int) Severity {
	switch {
	case days < 0:
		return SeverityExpired
	case days <= 7:
		return SeverityCritical
	case days <= 30:
		return SeverityWarning
	case days <= 90 && noticeMilestones[days]:
		return SeverityNotice
	default:
		return SeverityCompliant
	}
}

// Scan inspects the given policies as of today and returns a finding for
// every policy that has expired or expires within horizonDays. Policies with
// no expiry date are not trackable and are skipped. Scan is read-only: status
// transitions driven by its output belong to the caller.
func Scan(policies []models.CompliancePolicy, today time.Time, horizonDays int) []ExpiryFinding {
	var findings []ExpiryFinding

	for _, p := range policies {
		if p.ExpiryDate == nil {
			continue
		}

		days := DaysUntil(today, *p.ExpiryDate)
		if days >= 0 && days > horizonDays {
			continue
		}

		findings = append(findings, ExpiryFinding{
			SubjectID:       p.SubjectID,
			SubjectName:     p.SubjectName,
			PolicyType:      p.PolicyType,
			ExpiryDate:      *p.ExpiryDate,
			DaysUntilExpiry: days,
			Severity:        ClassifySeverity(days),
		})
	}

	return findings
}
