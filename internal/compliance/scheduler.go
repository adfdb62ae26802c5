package compliance

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the periodic compliance passes: the weekly contractor
// deep check and the daily document check.
type Scheduler struct {
	cron       *cron.Cron
	service    *Service
	weeklySpec string
	dailySpec  string
}

// NewScheduler creates a cron driver for the compliance service. Empty specs
// default to Monday 06:00 for the contractor review and 06:30 daily for the
// document check.
func NewScheduler(service *Service, weeklySpec, dailySpec string) *Scheduler {
	if weeklySpec == "" {
		weeklySpec = "0 6 * * 1"
	}
	if dailySpec == "" {
		dailySpec = "30 6 * * *"
	}

	return &Scheduler{
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		service:    service,
		weeklySpec: weeklySpec,
		dailySpec:  dailySpec,
	}
}

// Start begins the compliance scheduler.
func (s *Scheduler) Start() error {
	log.Println("Starting compliance scheduler...")

	if _, err := s.cron.AddFunc(s.weeklySpec, s.runContractorReview); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.dailySpec, s.runDocumentCheck); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("Compliance scheduler started (weekly: %s, daily: %s)", s.weeklySpec, s.dailySpec)
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	log.Println("Stopping compliance scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Compliance scheduler stopped")
}

// NextRun returns the next scheduled pass time, or nil when not running.
func (s *Scheduler) NextRun() *time.Time {
	var next *time.Time
	for _, entry := range s.cron.Entries() {
		if entry.Next.IsZero() {
			continue
		}
		if next == nil || entry.Next.Before(*next) {
			t := entry.Next
			next = &t
		}
	}
	return next
}

func (s *Scheduler) runContractorReview() {
	ctx := context.Background()
	today := time.Now().UTC()

	result, err := s.service.RunContractorReview(ctx, today)
	if err != nil {
		log.Printf("Contractor review pass failed: %v", err)
		return
	}

	log.Printf("Contractor review completed: %d processed, %d findings, %d flagged, %d cleared, %d escalated, %d reminders, %d errors",
		result.Processed, result.Findings, result.Flagged, result.Cleared, result.Escalated, result.RemindersSent, len(result.Errors))
}

func (s *Scheduler) runDocumentCheck() {
	ctx := context.Background()
	today := time.Now().UTC()

	result, err := s.service.RunDocumentCheck(ctx, today)
	if err != nil {
		log.Printf("Document check pass failed: %v", err)
		return
	}

	log.Printf("Document check completed: %d processed, %d findings, %d flagged, %d cleared, %d reminders, %d errors",
		result.Processed, result.Findings, result.Flagged, result.Cleared, result.RemindersSent, len(result.Errors))
}
