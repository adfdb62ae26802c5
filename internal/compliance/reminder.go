package compliance

import (
	"strconv"
	"time"
)

// WindowExpired is the pseudo-window for items already past expiry. It has
// no upper bound: an expired item stays eligible on every pass, limited only
// by the cooldown.
const WindowExpired = "expired"

// windowTolerance absorbs irregular run cadence: a window fires when
// days-until-expiry lands within this many days of it.
const windowTolerance = 2

// DefaultCooldownDays is the minimum gap before the same reminder key may
// fire again.
const DefaultCooldownDays = 7

// ReminderPlanner decides whether a reminder is due for an expiring item
// given its configured lead-time windows and the anti-spam cooldown.
//
// Windows must be spaced at least 2*windowTolerance+1 days apart (7 with the
// default tolerance) so at most one window can match a given item per pass.
type ReminderPlanner struct {
	windows  []int
	cooldown time.Duration
}

// NewReminderPlanner creates a planner for the given ordered lead-time
// windows (days before expiry). A cooldown of zero or less falls back to
// DefaultCooldownDays.
func NewReminderPlanner(windows []int, cooldownDays int) *ReminderPlanner {
	if cooldownDays <= 0 {
		cooldownDays = DefaultCooldownDays
	}
	return &ReminderPlanner{
		windows:  windows,
		cooldown: time.Duration(cooldownDays) * 24 * time.Hour,
	}
}

// ReminderKey builds the bookkeeping key for a (policy, window) pair.
func ReminderKey(policyType, window string) string {
	return policyType + ":" + window
}

// DueWindow returns the window label a reminder is due for, or false when no
// reminder should be sent now. remindersSent is the subject's stored
// last-sent map keyed by ReminderKey.
func (p *ReminderPlanner) DueWindow(policyType string, daysUntilExpiry int, remindersSent map[string]time.Time, today time.Time) (string, bool) {
	// Expired items bypass the window logic entirely.
	if daysUntilExpiry < 0 {
		if p.cooledDown(ReminderKey(policyType, WindowExpired), remindersSent, today) {
			return WindowExpired, true
		}
		return "", false
	}

	for _, w := range p.windows {
		if abs(daysUntilExpiry-w) > windowTolerance {
			continue
		}
		label := strconv.Itoa(w)
		if p.cooledDown(ReminderKey(policyType, label), remindersSent, today) {
			return label, true
		}
	}

	return "", false
}

// cooledDown reports whether the key's last-sent timestamp is absent or old
// enough for the reminder to fire again.
func (p *ReminderPlanner) cooledDown(key string, remindersSent map[string]time.Time, today time.Time) bool {
	last, ok := remindersSent[key]
	if !ok {
		return true
	}
	return today.Sub(last) >= p.cooldown
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
