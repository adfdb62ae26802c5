package schedule

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the periodic task-generation pass. Each firing is a
// stateless batch run; the cron wrapper guarantees runs do not overlap.
type Scheduler struct {
	cron      *cron.Cron
	generator *Generator
	spec      string
}

// NewScheduler creates a cron driver for the generator. An empty spec
// defaults to a daily pass shortly after midnight.
func NewScheduler(generator *Generator, spec string) *Scheduler {
	if spec == "" {
		spec = "10 0 * * *"
	}

	return &Scheduler{
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		generator: generator,
		spec:      spec,
	}
}

// Start begins the maintenance scheduler.
func (s *Scheduler) Start() error {
	log.Println("Starting maintenance scheduler...")

	if _, err := s.cron.AddFunc(s.spec, s.runPass); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("Maintenance scheduler started (spec: %s)", s.spec)
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	log.Println("Stopping maintenance scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Maintenance scheduler stopped")
}

// NextRun returns the next scheduled pass time, or nil when not running.
func (s *Scheduler) NextRun() *time.Time {
	for _, entry := range s.cron.Entries() {
		if !entry.Next.IsZero() {
			next := entry.Next
			return &next
		}
	}
	return nil
}

// runPass executes one generation pass anchored on today's date.
func (s *Scheduler) runPass() {
	ctx := context.Background()
	today := time.Now().UTC()

	result, err := s.generator.Run(ctx, today)
	if err != nil {
		log.Printf("Maintenance pass failed: %v", err)
		return
	}

	log.Printf("Maintenance pass completed: %d processed, %d tasks created, %d completed, %d pending assignment, %d errors",
		result.Processed, result.TasksCreated, result.Completed, result.PendingAssignment, len(result.Errors))
}
