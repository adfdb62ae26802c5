package compliance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/building-ops/backend/internal/notify"
	"github.com/building-ops/backend/internal/storage/models"
)

type fakeContractorStore struct {
	contractors map[string]*models.Contractor
}

func newFakeContractorStore(contractors ...*models.Contractor) *fakeContractorStore {
	store := &fakeContractorStore{contractors: make(map[string]*models.Contractor)}
	for _, c := range contractors {
		store.contractors[c.ID] = c
	}
	return store
}

func (f *fakeContractorStore) ListMonitored(_ context.Context) ([]models.Contractor, error) {
	var out []models.Contractor
	for _, c := range f.contractors {
		if c.Status != models.ContractorStatusInactive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeContractorStore) GetByID(_ context.Context, id string) (*models.Contractor, error) {
	c, ok := f.contractors[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (f *fakeContractorStore) UpdateComplianceStatus(_ context.Context, id, status string, notificationDate *time.Time) error {
	c, ok := f.contractors[id]
	if !ok {
		return fmt.Errorf("contractor not found: %s", id)
	}
	c.Status = status
	c.NotificationDate = notificationDate
	return nil
}

func (f *fakeContractorStore) MarkReminderSent(_ context.Context, id, key string, sentAt time.Time) error {
	c, ok := f.contractors[id]
	if !ok {
		return fmt.Errorf("contractor not found: %s", id)
	}
	if c.RemindersSent == nil {
		c.RemindersSent = make(map[string]time.Time)
	}
	c.RemindersSent[key] = sentAt
	return nil
}

type fakeDocumentStore struct {
	documents map[string]*models.ComplianceDocument
}

func newFakeDocumentStore(documents ...*models.ComplianceDocument) *fakeDocumentStore {
	store := &fakeDocumentStore{documents: make(map[string]*models.ComplianceDocument)}
	for _, d := range documents {
		store.documents[d.ID] = d
	}
	return store
}

func (f *fakeDocumentStore) ListTracked(_ context.Context) ([]models.ComplianceDocument, error) {
	var out []models.ComplianceDocument
	for _, d := range f.documents {
		if d.ExpiryDate != nil {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDocumentStore) SetRequiresReview(_ context.Context, id string, requiresReview bool) error {
	d, ok := f.documents[id]
	if !ok {
		return fmt.Errorf("document not found: %s", id)
	}
	d.RequiresReview = requiresReview
	return nil
}

func (f *fakeDocumentStore) MarkReminderSent(_ context.Context, id, key string, sentAt time.Time) error {
	d, ok := f.documents[id]
	if !ok {
		return fmt.Errorf("document not found: %s", id)
	}
	if d.RemindersSent == nil {
		d.RemindersSent = make(map[string]time.Time)
	}
	d.RemindersSent[key] = sentAt
	return nil
}

// recordingDispatcher captures every delivery; fail makes all deliveries
// error out instead.
type recordingDispatcher struct {
	sent []string
	fail bool
}

func (d *recordingDispatcher) Notify(_ context.Context, to notify.Recipient, subject, _ string) error {
	if d.fail {
		return errors.New("smtp down")
	}
	d.sent = append(d.sent, fmt.Sprintf("%s: %s", to.ID, subject))
	return nil
}

func expiringContractor(daysOut int, today time.Time) *models.Contractor {
	expiry := today.AddDate(0, 0, daysOut)
	return &models.Contractor{
		ID:            "c-1",
		Name:          "Good Pipes",
		Email:         "pipes@example.com",
		Status:        models.ContractorStatusActive,
		LicenseExpiry: &expiry,
	}
}

func newTestService(contractors *fakeContractorStore, documents *fakeDocumentStore, dispatcher notify.Dispatcher) *Service {
	if documents == nil {
		documents = newFakeDocumentStore()
	}
	return NewService(contractors, documents, dispatcher, nil, 0, 0)
}

func TestReviewFlagsContractorAndStampsDate(t *testing.T) {
	today := date(2024, time.June, 1)
	c := expiringContractor(30, today)
	store := newFakeContractorStore(c)
	dispatcher := &recordingDispatcher{}

	result, err := newTestService(store, nil, dispatcher).RunContractorReview(context.Background(), today)
	if err != nil {
		t.Fatalf("RunContractorReview: %v", err)
	}

	if result.Findings != 1 || result.Flagged != 1 {
		t.Fatalf("result = %+v, want 1 finding, 1 flagged", result)
	}
	if c.Status != models.ContractorStatusPendingComplianceReview {
		t.Errorf("status = %s, want pending_compliance_review", c.Status)
	}
	if c.NotificationDate == nil || !c.NotificationDate.Equal(today) {
		t.Errorf("notification date = %v, want today", c.NotificationDate)
	}

	// One windowed reminder at the 30-day window plus the review notice.
	if result.RemindersSent != 1 {
		t.Errorf("reminders sent = %d, want 1", result.RemindersSent)
	}
	if len(dispatcher.sent) != 2 {
		t.Errorf("deliveries = %v, want reminder and review notice", dispatcher.sent)
	}
	if _, ok := c.RemindersSent[ReminderKey(models.PolicyTypeLicense, "30")]; !ok {
		t.Errorf("reminder bookkeeping = %v, want license:30 recorded", c.RemindersSent)
	}
}

func TestReviewClearsRecoveredContractor(t *testing.T) {
	today := date(2024, time.June, 1)
	c := expiringContractor(120, today)
	c.Status = models.ContractorStatusPendingComplianceReview
	stamped := date(2024, time.May, 1)
	c.NotificationDate = &stamped

	store := newFakeContractorStore(c)
	dispatcher := &recordingDispatcher{}

	result, err := newTestService(store, nil, dispatcher).RunContractorReview(context.Background(), today)
	if err != nil {
		t.Fatalf("RunContractorReview: %v", err)
	}

	if result.Cleared != 1 {
		t.Fatalf("cleared = %d, want 1", result.Cleared)
	}
	if c.Status != models.ContractorStatusActive {
		t.Errorf("status = %s, want active after renewal", c.Status)
	}
	if c.NotificationDate != nil {
		t.Errorf("notification date = %v, want cleared", c.NotificationDate)
	}
	if len(dispatcher.sent) != 0 {
		t.Errorf("deliveries = %v, want none for a clean contractor", dispatcher.sent)
	}
}

func TestReviewEscalatesAfterFollowUpPeriod(t *testing.T) {
	today := date(2024, time.June, 15)
	c := expiringContractor(20, today)
	c.Status = models.ContractorStatusPendingComplianceReview
	stamped := date(2024, time.June, 1) // 14 days ago
	c.NotificationDate = &stamped
	c.RemindersSent = map[string]time.Time{
		// Recent enough to suppress the windowed reminder; the overdue
		// notice must fire regardless.
		ReminderKey(models.PolicyTypeLicense, "30"): date(2024, time.June, 14),
	}

	store := newFakeContractorStore(c)
	dispatcher := &recordingDispatcher{}

	result, err := newTestService(store, nil, dispatcher).RunContractorReview(context.Background(), today)
	if err != nil {
		t.Fatalf("RunContractorReview: %v", err)
	}

	if result.Escalated != 1 {
		t.Fatalf("escalated = %d, want 1", result.Escalated)
	}
	if len(dispatcher.sent) != 1 {
		t.Fatalf("deliveries = %v, want only the overdue notice", dispatcher.sent)
	}
	// The follow-up clock restarts so the escalation repeats every period.
	if c.NotificationDate == nil || !c.NotificationDate.Equal(today) {
		t.Errorf("notification date = %v, want restamped to today", c.NotificationDate)
	}
}

func TestReviewDoesNotEscalateBeforeFollowUpPeriod(t *testing.T) {
	today := date(2024, time.June, 10)
	c := expiringContractor(20, today)
	c.Status = models.ContractorStatusPendingComplianceReview
	stamped := date(2024, time.June, 1) // 9 days ago
	c.NotificationDate = &stamped
	c.RemindersSent = map[string]time.Time{
		ReminderKey(models.PolicyTypeLicense, "30"): date(2024, time.June, 9),
	}

	store := newFakeContractorStore(c)
	dispatcher := &recordingDispatcher{}

	result, err := newTestService(store, nil, dispatcher).RunContractorReview(context.Background(), today)
	if err != nil {
		t.Fatalf("RunContractorReview: %v", err)
	}

	if result.Escalated != 0 {
		t.Errorf("escalated = %d, want 0 inside the follow-up period", result.Escalated)
	}
	if !c.NotificationDate.Equal(stamped) {
		t.Errorf("notification date = %v, want untouched", c.NotificationDate)
	}
}

func TestReviewReminderRecordedOnlyAfterDelivery(t *testing.T) {
	today := date(2024, time.June, 1)
	c := expiringContractor(30, today)
	store := newFakeContractorStore(c)
	dispatcher := &recordingDispatcher{fail: true}

	result, err := newTestService(store, nil, dispatcher).RunContractorReview(context.Background(), today)
	if err != nil {
		t.Fatalf("RunContractorReview: %v", err)
	}

	if result.RemindersSent != 0 {
		t.Errorf("reminders sent = %d, want 0 when delivery fails", result.RemindersSent)
	}
	if len(c.RemindersSent) != 0 {
		t.Errorf("reminder bookkeeping = %v, want empty so the retry stays eligible", c.RemindersSent)
	}
	if len(result.Errors) == 0 {
		t.Error("want delivery failures recorded in the result")
	}
	// The state transition still commits; only reminder bookkeeping waits
	// for a successful send.
	if c.Status != models.ContractorStatusPendingComplianceReview {
		t.Errorf("status = %s, want pending_compliance_review despite delivery failure", c.Status)
	}
}

func TestReviewScopedToOneContractor(t *testing.T) {
	today := date(2024, time.June, 1)
	c1 := expiringContractor(30, today)
	c2 := expiringContractor(30, today)
	c2.ID = "c-2"
	c2.Name = "Other Trades"

	store := newFakeContractorStore(c1, c2)
	dispatcher := &recordingDispatcher{}

	result, err := newTestService(store, nil, dispatcher).RunContractorReviewFor(context.Background(), today, "c-2")
	if err != nil {
		t.Fatalf("RunContractorReviewFor: %v", err)
	}

	if result.Processed != 1 {
		t.Fatalf("processed = %d, want 1", result.Processed)
	}
	if c2.Status != models.ContractorStatusPendingComplianceReview {
		t.Errorf("c-2 status = %s, want flagged", c2.Status)
	}
	if c1.Status != models.ContractorStatusActive {
		t.Errorf("c-1 status = %s, want untouched by scoped run", c1.Status)
	}
}

func TestDocumentCheckFlagsReviewBand(t *testing.T) {
	today := date(2024, time.June, 1)
	expiry := today.AddDate(0, 0, 20)
	d := &models.ComplianceDocument{
		ID:          "d-1",
		SubjectID:   "b-1",
		SubjectName: "Main Tower",
		OwnerEmail:  "ops@example.com",
		Category:    models.DocumentCategoryCertificate,
		Title:       "Fire safety certificate",
		ExpiryDate:  &expiry,
	}

	store := newFakeDocumentStore(d)
	dispatcher := &recordingDispatcher{}
	service := newTestService(newFakeContractorStore(), store, dispatcher)

	result, err := service.RunDocumentCheck(context.Background(), today)
	if err != nil {
		t.Fatalf("RunDocumentCheck: %v", err)
	}

	if result.Flagged != 1 {
		t.Errorf("flagged = %d, want 1 inside the review band", result.Flagged)
	}
	if !d.RequiresReview {
		t.Error("requires_review not set")
	}
	// 20 days is not near any document window (90/60/30), so no reminder.
	if result.RemindersSent != 0 {
		t.Errorf("reminders sent = %d, want 0", result.RemindersSent)
	}
}

func TestDocumentCheckClearsFlagAfterRenewal(t *testing.T) {
	today := date(2024, time.June, 1)
	expiry := today.AddDate(0, 0, 200)
	d := &models.ComplianceDocument{
		ID:             "d-1",
		SubjectName:    "Main Tower",
		Category:       models.DocumentCategoryCertificate,
		Title:          "Fire safety certificate",
		ExpiryDate:     &expiry,
		RequiresReview: true,
	}

	store := newFakeDocumentStore(d)
	service := newTestService(newFakeContractorStore(), store, &recordingDispatcher{})

	result, err := service.RunDocumentCheck(context.Background(), today)
	if err != nil {
		t.Fatalf("RunDocumentCheck: %v", err)
	}

	if result.Cleared != 1 {
		t.Errorf("cleared = %d, want 1", result.Cleared)
	}
	if d.RequiresReview {
		t.Error("requires_review still set after renewal")
	}
}

func TestDocumentCheckSendsWindowedReminder(t *testing.T) {
	today := date(2024, time.June, 1)
	expiry := today.AddDate(0, 0, 60)
	d := &models.ComplianceDocument{
		ID:          "d-1",
		SubjectName: "Main Tower",
		OwnerEmail:  "ops@example.com",
		Category:    models.DocumentCategoryPermit,
		Title:       "Occupancy permit",
		ExpiryDate:  &expiry,
	}

	store := newFakeDocumentStore(d)
	dispatcher := &recordingDispatcher{}
	service := newTestService(newFakeContractorStore(), store, dispatcher)

	result, err := service.RunDocumentCheck(context.Background(), today)
	if err != nil {
		t.Fatalf("RunDocumentCheck: %v", err)
	}

	if result.RemindersSent != 1 {
		t.Fatalf("reminders sent = %d, want 1 at the 60-day window", result.RemindersSent)
	}
	if _, ok := d.RemindersSent[ReminderKey(models.DocumentCategoryPermit, "60")]; !ok {
		t.Errorf("reminder bookkeeping = %v, want permit:60 recorded", d.RemindersSent)
	}

	// Re-running inside the cooldown sends nothing new.
	result, err = service.RunDocumentCheck(context.Background(), today.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("second RunDocumentCheck: %v", err)
	}
	if result.RemindersSent != 0 {
		t.Errorf("reminders sent on rerun = %d, want 0", result.RemindersSent)
	}
}
