package compliance

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/building-ops/backend/internal/notify"
	"github.com/building-ops/backend/internal/storage/models"
	"github.com/building-ops/backend/internal/websocket"
)

// Weekly contractor review and daily document check defaults.
const (
	ContractorHorizonDays = 60
	DocumentHorizonDays   = 90
	DocumentReviewDays    = 30
	DefaultFollowUpDays   = 14
)

// Contractor reminder windows escalate as expiry approaches; document
// reminders run on a longer runway. Both sets keep windows at least 7 days
// apart so a single pass matches at most one window per policy.
var (
	ContractorWindows = []int{60, 30, 14, 7}
	DocumentWindows   = []int{90, 60, 30}
)

// ContractorComplianceStore is the persistence surface the workflow needs
// for contractors.
type ContractorComplianceStore interface {
	ListMonitored(ctx context.Context) ([]models.Contractor, error)
	GetByID(ctx context.Context, id string) (*models.Contractor, error)
	UpdateComplianceStatus(ctx context.Context, id, status string, notificationDate *time.Time) error
	MarkReminderSent(ctx context.Context, id, key string, sentAt time.Time) error
}

// DocumentStore is the persistence surface the workflow needs for documents.
type DocumentStore interface {
	ListTracked(ctx context.Context) ([]models.ComplianceDocument, error)
	SetRequiresReview(ctx context.Context, id string, requiresReview bool) error
	MarkReminderSent(ctx context.Context, id, key string, sentAt time.Time) error
}

// Service drives the compliance escalation protocol: scanning subjects for
// expiring policies, sending windowed reminders, and cycling contractors
// through the active <-> pending_compliance_review state machine.
type Service struct {
	contractors       ContractorComplianceStore
	documents         DocumentStore
	dispatcher        notify.Dispatcher
	broadcaster       *websocket.EventBroadcaster
	contractorPlanner *ReminderPlanner
	documentPlanner   *ReminderPlanner
	followUpDays      int
}

// NewService creates a compliance service. Zero followUpDays falls back to
// DefaultFollowUpDays; zero cooldownDays falls back to DefaultCooldownDays.
func NewService(
	contractors ContractorComplianceStore,
	documents DocumentStore,
	dispatcher notify.Dispatcher,
	hub *websocket.Hub,
	cooldownDays, followUpDays int,
) *Service {
	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}
	if followUpDays <= 0 {
		followUpDays = DefaultFollowUpDays
	}

	return &Service{
		contractors:       contractors,
		documents:         documents,
		dispatcher:        dispatcher,
		broadcaster:       broadcaster,
		contractorPlanner: NewReminderPlanner(ContractorWindows, cooldownDays),
		documentPlanner:   NewReminderPlanner(DocumentWindows, cooldownDays),
		followUpDays:      followUpDays,
	}
}

// RunContractorReview is the weekly deep check: it scans every monitored
// contractor's policies at the 60-day horizon, sends windowed reminders, and
// drives the compliance-review state machine. Per-contractor failures are
// collected and never abort the pass.
func (s *Service) RunContractorReview(ctx context.Context, today time.Time) (*models.ComplianceRunResult, error) {
	return s.runContractorReview(ctx, today, "")
}

// RunContractorReviewFor scopes the weekly check to one contractor.
func (s *Service) RunContractorReviewFor(ctx context.Context, today time.Time, contractorID string) (*models.ComplianceRunResult, error) {
	return s.runContractorReview(ctx, today, contractorID)
}

func (s *Service) runContractorReview(ctx context.Context, today time.Time, contractorID string) (*models.ComplianceRunResult, error) {
	result := &models.ComplianceRunResult{RunAt: time.Now().UTC()}

	var contractors []models.Contractor
	if contractorID != "" {
		c, err := s.contractors.GetByID(ctx, contractorID)
		if err != nil {
			return nil, fmt.Errorf("getting contractor: %w", err)
		}
		if c == nil {
			return nil, fmt.Errorf("contractor not found: %s", contractorID)
		}
		contractors = []models.Contractor{*c}
	} else {
		var err error
		contractors, err = s.contractors.ListMonitored(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing contractors: %w", err)
		}
	}

	for i := range contractors {
		c := &contractors[i]
		result.Processed++

		if err := s.reviewContractor(ctx, c, today, result); err != nil {
			log.Printf("Failed to review contractor %s: %v", c.ID, err)
			result.Errors = append(result.Errors, models.ItemError{
				SubjectID: c.ID,
				Message:   err.Error(),
			})
		}
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastRunFinished("compliance", result.Processed, result.RemindersSent, len(result.Errors))
	}

	return result, nil
}

// reviewContractor scans one contractor and applies the state machine:
//
//	active -> pending_compliance_review   first qualifying finding; stamps notification_date
//	pending -> active                     scan comes back clean; clears notification_date
//	pending -> pending                    still dirty; re-notifies once the follow-up
//	                                      threshold has elapsed ("overdue review")
func (s *Service) reviewContractor(ctx context.Context, c *models.Contractor, today time.Time, result *models.ComplianceRunResult) error {
	findings := Scan(c.Policies(), today, ContractorHorizonDays)
	result.Findings += len(findings)

	if len(findings) == 0 {
		if c.Status == models.ContractorStatusPendingComplianceReview {
			if err := s.contractors.UpdateComplianceStatus(ctx, c.ID, models.ContractorStatusActive, nil); err != nil {
				return fmt.Errorf("clearing compliance review: %w", err)
			}
			result.Cleared++
			s.broadcastStatus(c, models.ContractorStatusActive)
			log.Printf("Contractor %s compliance review cleared", c.ID)
		}
		return nil
	}

	for _, f := range findings {
		if s.broadcaster != nil {
			s.broadcaster.BroadcastComplianceFinding(f.SubjectID, f.SubjectName, f.PolicyType, f.DaysUntilExpiry, string(f.Severity))
		}
		s.remindContractor(ctx, c, f, today, result)
	}

	switch c.Status {
	case models.ContractorStatusActive:
		if err := s.contractors.UpdateComplianceStatus(ctx, c.ID, models.ContractorStatusPendingComplianceReview, &today); err != nil {
			return fmt.Errorf("flagging compliance review: %w", err)
		}
		result.Flagged++
		s.broadcastStatus(c, models.ContractorStatusPendingComplianceReview)

		if err := s.sendReviewNotice(ctx, c, findings, false); err != nil {
			log.Printf("Failed to send review notice to contractor %s: %v", c.ID, err)
			result.Errors = append(result.Errors, models.ItemError{
				SubjectID: c.ID,
				Message:   fmt.Sprintf("sending review notice: %v", err),
			})
		}

	case models.ContractorStatusPendingComplianceReview:
		if c.NotificationDate == nil {
			// Flagged before notification_date tracking existed; restamp.
			if err := s.contractors.UpdateComplianceStatus(ctx, c.ID, c.Status, &today); err != nil {
				return fmt.Errorf("stamping notification date: %w", err)
			}
			return nil
		}

		if DaysUntil(*c.NotificationDate, today) >= s.followUpDays {
			if err := s.sendReviewNotice(ctx, c, findings, true); err != nil {
				log.Printf("Failed to send overdue review notice to contractor %s: %v", c.ID, err)
				result.Errors = append(result.Errors, models.ItemError{
					SubjectID: c.ID,
					Message:   fmt.Sprintf("sending overdue review notice: %v", err),
				})
				return nil
			}
			result.Escalated++
			// Restart the follow-up clock so the escalation repeats every
			// followUpDays until the contractor is back in compliance.
			if err := s.contractors.UpdateComplianceStatus(ctx, c.ID, c.Status, &today); err != nil {
				return fmt.Errorf("restamping notification date: %w", err)
			}
		}
	}

	return nil
}

// remindContractor sends a windowed reminder for one finding if due. The
// sent timestamp is recorded only after successful dispatch so an undelivered
// reminder stays eligible for retry on the next pass.
func (s *Service) remindContractor(ctx context.Context, c *models.Contractor, f ExpiryFinding, today time.Time, result *models.ComplianceRunResult) {
	window, due := s.contractorPlanner.DueWindow(f.PolicyType, f.DaysUntilExpiry, c.RemindersSent, today)
	if !due {
		return
	}

	subject, body := reminderContent(c.Name, f)
	err := s.dispatcher.Notify(ctx, notify.Recipient{ID: c.ID, Name: c.Name, Email: c.Email}, subject, body)
	if err != nil {
		log.Printf("Failed to send %s reminder to contractor %s: %v", f.PolicyType, c.ID, err)
		result.Errors = append(result.Errors, models.ItemError{
			SubjectID: c.ID,
			Message:   fmt.Sprintf("sending %s reminder: %v", f.PolicyType, err),
		})
		return
	}

	key := ReminderKey(f.PolicyType, window)
	if err := s.contractors.MarkReminderSent(ctx, c.ID, key, time.Now().UTC()); err != nil {
		log.Printf("Failed to record reminder %s for contractor %s: %v", key, c.ID, err)
		result.Errors = append(result.Errors, models.ItemError{
			SubjectID: c.ID,
			Message:   fmt.Sprintf("recording reminder %s: %v", key, err),
		})
		return
	}
	result.RemindersSent++
}

// sendReviewNotice emails the compliance-review summary. overdue switches to
// the escalated "overdue review" wording used after the follow-up threshold.
func (s *Service) sendReviewNotice(ctx context.Context, c *models.Contractor, findings []ExpiryFinding, overdue bool) error {
	subject := "Compliance review required"
	if overdue {
		subject = "OVERDUE: compliance review outstanding"
	}

	body := fmt.Sprintf("Hello %s,\n\nThe following policies need attention:\n\n", c.Name)
	for _, f := range findings {
		if f.DaysUntilExpiry < 0 {
			body += fmt.Sprintf("- %s: expired %d days ago (%s)\n", f.PolicyType, -f.DaysUntilExpiry, f.ExpiryDate.Format("2006-01-02"))
		} else {
			body += fmt.Sprintf("- %s: expires in %d days (%s)\n", f.PolicyType, f.DaysUntilExpiry, f.ExpiryDate.Format("2006-01-02"))
		}
	}
	if overdue {
		body += "\nYour compliance review period has lapsed. Please submit renewed documentation immediately.\n"
	} else {
		body += "\nPlease submit renewed documentation to remain eligible for task assignment.\n"
	}

	return s.dispatcher.Notify(ctx, notify.Recipient{ID: c.ID, Name: c.Name, Email: c.Email}, subject, body)
}

// RunDocumentCheck is the daily document pass: it scans tracked documents at
// the 90-day horizon, flags documents inside the 30-day review band, clears
// the flag once a document is renewed, and sends windowed reminders to the
// document owner.
func (s *Service) RunDocumentCheck(ctx context.Context, today time.Time) (*models.ComplianceRunResult, error) {
	result := &models.ComplianceRunResult{RunAt: time.Now().UTC()}

	documents, err := s.documents.ListTracked(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tracked documents: %w", err)
	}

	for i := range documents {
		d := &documents[i]
		result.Processed++

		if err := s.checkDocument(ctx, d, today, result); err != nil {
			log.Printf("Failed to check document %s: %v", d.ID, err)
			result.Errors = append(result.Errors, models.ItemError{
				SubjectID: d.ID,
				Message:   err.Error(),
			})
		}
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastRunFinished("compliance", result.Processed, result.RemindersSent, len(result.Errors))
	}

	return result, nil
}

func (s *Service) checkDocument(ctx context.Context, d *models.ComplianceDocument, today time.Time, result *models.ComplianceRunResult) error {
	findings := Scan([]models.CompliancePolicy{d.Policy()}, today, DocumentHorizonDays)
	if len(findings) == 0 {
		// Renewed past the horizon; drop any stale review flag.
		if d.RequiresReview {
			if err := s.documents.SetRequiresReview(ctx, d.ID, false); err != nil {
				return fmt.Errorf("clearing review flag: %w", err)
			}
			result.Cleared++
		}
		return nil
	}

	f := findings[0]
	result.Findings++

	if s.broadcaster != nil {
		s.broadcaster.BroadcastComplianceFinding(d.ID, d.SubjectName, f.PolicyType, f.DaysUntilExpiry, string(f.Severity))
	}

	inReviewBand := f.DaysUntilExpiry <= DocumentReviewDays
	if inReviewBand && !d.RequiresReview {
		if err := s.documents.SetRequiresReview(ctx, d.ID, true); err != nil {
			return fmt.Errorf("flagging review: %w", err)
		}
		result.Flagged++
	} else if !inReviewBand && d.RequiresReview {
		if err := s.documents.SetRequiresReview(ctx, d.ID, false); err != nil {
			return fmt.Errorf("clearing review flag: %w", err)
		}
		result.Cleared++
	}

	window, due := s.documentPlanner.DueWindow(f.PolicyType, f.DaysUntilExpiry, d.RemindersSent, today)
	if !due || d.OwnerEmail == "" {
		return nil
	}

	subject, body := reminderContent(d.SubjectName, f)
	err := s.dispatcher.Notify(ctx, notify.Recipient{ID: d.ID, Name: d.SubjectName, Email: d.OwnerEmail}, subject, body)
	if err != nil {
		log.Printf("Failed to send %s reminder for document %s: %v", f.PolicyType, d.ID, err)
		result.Errors = append(result.Errors, models.ItemError{
			SubjectID: d.ID,
			Message:   fmt.Sprintf("sending %s reminder: %v", f.PolicyType, err),
		})
		return nil
	}

	key := ReminderKey(f.PolicyType, window)
	if err := s.documents.MarkReminderSent(ctx, d.ID, key, time.Now().UTC()); err != nil {
		return fmt.Errorf("recording reminder %s: %w", key, err)
	}
	result.RemindersSent++

	return nil
}

// reminderContent builds the subject and body for an expiry reminder.
func reminderContent(name string, f ExpiryFinding) (string, string) {
	var subject string
	if f.DaysUntilExpiry < 0 {
		subject = fmt.Sprintf("EXPIRED: %s (%s)", f.PolicyType, f.ExpiryDate.Format("2006-01-02"))
	} else {
		subject = fmt.Sprintf("Expiring in %d days: %s", f.DaysUntilExpiry, f.PolicyType)
	}

	body := fmt.Sprintf(
		"Hello %s,\n\nYour %s has an expiry date of %s.\n",
		name, f.PolicyType, f.ExpiryDate.Format("2006-01-02"),
	)
	if f.DaysUntilExpiry < 0 {
		body += "\nThis item is now expired. Please provide renewed documentation as soon as possible.\n"
	} else {
		body += "\nPlease arrange renewal before the expiry date.\n"
	}

	return subject, body
}

func (s *Service) broadcastStatus(c *models.Contractor, newStatus string) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastComplianceStatusChanged(c.ID, c.Name, c.Status, newStatus)
	}
}
