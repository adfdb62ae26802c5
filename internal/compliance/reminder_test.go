package compliance

import (
	"testing"
	"time"

	"github.com/building-ops/backend/internal/storage/models"
)

func TestDueWindowTolerance(t *testing.T) {
	planner := NewReminderPlanner(ContractorWindows, 0)
	today := date(2024, time.June, 1)

	tests := []struct {
		name       string
		days       int
		wantWindow string
		wantDue    bool
	}{
		{"exactly 60", 60, "60", true},
		{"58 within tolerance of 60", 58, "60", true},
		{"62 within tolerance of 60", 62, "60", true},
		{"55 outside every window", 55, "", false},
		{"exactly 30", 30, "30", true},
		{"17 outside every window", 17, "", false},
		{"14", 14, "14", true},
		{"7", 7, "7", true},
		{"5 within tolerance of 7", 5, "7", true},
		{"0 outside tolerance of 7", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window, due := planner.DueWindow(models.PolicyTypeLicense, tt.days, nil, today)
			if due != tt.wantDue || window != tt.wantWindow {
				t.Errorf("DueWindow(%d) = (%q, %v), want (%q, %v)", tt.days, window, due, tt.wantWindow, tt.wantDue)
			}
		})
	}
}

func TestDueWindowExpired(t *testing.T) {
	planner := NewReminderPlanner(ContractorWindows, 0)
	today := date(2024, time.June, 1)

	// Expired items stay eligible indefinitely, not just near a window.
	for _, days := range []int{-1, -40, -400} {
		window, due := planner.DueWindow(models.PolicyTypeLicense, days, nil, today)
		if !due || window != WindowExpired {
			t.Errorf("DueWindow(%d) = (%q, %v), want expired window", days, window, due)
		}
	}
}

func TestDueWindowCooldown(t *testing.T) {
	planner := NewReminderPlanner(ContractorWindows, 7)
	today := date(2024, time.June, 10)

	sent3DaysAgo := map[string]time.Time{
		ReminderKey(models.PolicyTypeLicense, "30"): date(2024, time.June, 7),
	}
	if _, due := planner.DueWindow(models.PolicyTypeLicense, 30, sent3DaysAgo, today); due {
		t.Error("reminder due 3 days after last send, want suppressed by cooldown")
	}

	sent8DaysAgo := map[string]time.Time{
		ReminderKey(models.PolicyTypeLicense, "30"): date(2024, time.June, 2),
	}
	if _, due := planner.DueWindow(models.PolicyTypeLicense, 30, sent8DaysAgo, today); !due {
		t.Error("reminder suppressed 8 days after last send, want due again")
	}
}

func TestDueWindowCooldownIsPerKey(t *testing.T) {
	planner := NewReminderPlanner(ContractorWindows, 7)
	today := date(2024, time.June, 10)

	// A recent send for a different policy or a different window does not
	// suppress this one.
	sent := map[string]time.Time{
		ReminderKey(models.PolicyTypeInsurance, "30"): today,
		ReminderKey(models.PolicyTypeLicense, "60"):   today,
	}

	if _, due := planner.DueWindow(models.PolicyTypeLicense, 30, sent, today); !due {
		t.Error("license 30-day reminder suppressed by unrelated keys")
	}
}

func TestDueWindowExpiredCooldown(t *testing.T) {
	planner := NewReminderPlanner(ContractorWindows, 7)
	today := date(2024, time.June, 10)

	sent := map[string]time.Time{
		ReminderKey(models.PolicyTypeLicense, WindowExpired): date(2024, time.June, 8),
	}
	if _, due := planner.DueWindow(models.PolicyTypeLicense, -5, sent, today); due {
		t.Error("expired reminder due during cooldown, want suppressed")
	}
}

func TestReminderKey(t *testing.T) {
	if got := ReminderKey(models.PolicyTypeWorkCover, "14"); got != "work_cover:14" {
		t.Errorf("ReminderKey = %q, want work_cover:14", got)
	}
}
