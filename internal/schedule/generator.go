package schedule

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/building-ops/backend/internal/notify"
	"github.com/building-ops/backend/internal/storage/models"
	"github.com/building-ops/backend/internal/websocket"
)

// ScheduleStore is the persistence surface the generator needs for schedules.
type ScheduleStore interface {
	ListDue(ctx context.Context, today time.Time) ([]models.MaintenanceSchedule, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Advance(ctx context.Context, id, taskID string, nextDue time.Time, status string) error
}

// TaskStore is the persistence surface the generator needs for tasks.
type TaskStore interface {
	Create(ctx context.Context, t *models.GeneratedTask) error
	GetByOccurrence(ctx context.Context, scheduleID string, dueDate time.Time) (*models.GeneratedTask, error)
	MarkNotificationSent(ctx context.Context, id string) error
}

// ContractorStore is the persistence surface the generator needs for
// assignment resolution.
type ContractorStore interface {
	ListAll(ctx context.Context) ([]models.Contractor, error)
}

// Generator turns due maintenance schedules into generated tasks, advancing
// each schedule's next due date and terminating schedules whose recurrence
// has ended. A run is an idempotent batch pass: re-running it on the same
// day with no external changes creates no additional tasks.
type Generator struct {
	schedules   ScheduleStore
	tasks       TaskStore
	contractors ContractorStore
	resolver    *AssignmentResolver
	dispatcher  notify.Dispatcher
	broadcaster *websocket.EventBroadcaster
}

// NewGenerator creates a task generator.
func NewGenerator(
	schedules ScheduleStore,
	tasks TaskStore,
	contractors ContractorStore,
	resolver *AssignmentResolver,
	dispatcher notify.Dispatcher,
	hub *websocket.Hub,
) *Generator {
	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &Generator{
		schedules:   schedules,
		tasks:       tasks,
		contractors: contractors,
		resolver:    resolver,
		dispatcher:  dispatcher,
		broadcaster: broadcaster,
	}
}

// Run processes every due schedule as of today.
func (g *Generator) Run(ctx context.Context, today time.Time) (*models.MaintenanceRunResult, error) {
	return g.run(ctx, today, "")
}

// RunForBuilding processes due schedules scoped to a single building.
func (g *Generator) RunForBuilding(ctx context.Context, today time.Time, buildingID string) (*models.MaintenanceRunResult, error) {
	return g.run(ctx, today, buildingID)
}

func (g *Generator) run(ctx context.Context, today time.Time, buildingID string) (*models.MaintenanceRunResult, error) {
	result := &models.MaintenanceRunResult{RunAt: time.Now().UTC()}

	due, err := g.schedules.ListDue(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("listing due schedules: %w", err)
	}

	contractors, err := g.contractors.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing contractors: %w", err)
	}

	for i := range due {
		s := &due[i]
		if buildingID != "" && s.BuildingID != buildingID {
			continue
		}

		result.Processed++
		if err := g.processSchedule(ctx, s, contractors, today, result); err != nil {
			log.Printf("Failed to process schedule %s: %v", s.ID, err)
			result.Errors = append(result.Errors, models.ItemError{
				SubjectID: s.ID,
				Message:   err.Error(),
			})
		}
	}

	if g.broadcaster != nil {
		g.broadcaster.BroadcastRunFinished("maintenance", result.Processed, result.TasksCreated, len(result.Errors))
	}

	return result, nil
}

// processSchedule handles a single due schedule. State changes are committed
// before any notification is attempted; a notification failure is recorded
// but never rolls back the task or the schedule advance.
func (g *Generator) processSchedule(
	ctx context.Context,
	s *models.MaintenanceSchedule,
	contractors []models.Contractor,
	today time.Time,
	result *models.MaintenanceRunResult,
) error {
	// A schedule whose next occurrence falls past its end date will never
	// produce another task.
	if s.RecurrenceEnded() {
		if err := g.schedules.UpdateStatus(ctx, s.ID, models.ScheduleStatusCompleted); err != nil {
			return fmt.Errorf("completing ended schedule: %w", err)
		}
		result.Completed++
		g.broadcastStatus(s, models.ScheduleStatusCompleted)
		log.Printf("Schedule %s completed: recurrence ended %s", s.ID, s.RecurrenceEndDate.Format("2006-01-02"))
		return nil
	}

	// De-dup: an occurrence already covered by a task means a previous run
	// created it but did not get to advance the schedule. Advance without
	// creating a second task.
	existing, err := g.tasks.GetByOccurrence(ctx, s.ID, s.NextDueDate)
	if err != nil {
		return fmt.Errorf("checking existing occurrence: %w", err)
	}
	if existing != nil {
		log.Printf("Schedule %s: occurrence %s already covered by task %s",
			s.ID, s.NextDueDate.Format("2006-01-02"), existing.ID)
		return g.advance(ctx, s, existing.ID)
	}

	contractor := g.resolver.Resolve(s, contractors)
	if contractor == nil {
		if err := g.schedules.UpdateStatus(ctx, s.ID, models.ScheduleStatusPendingAssignment); err != nil {
			return fmt.Errorf("parking unassignable schedule: %w", err)
		}
		result.PendingAssignment++
		g.broadcastStatus(s, models.ScheduleStatusPendingAssignment)
		log.Printf("Schedule %s parked: no qualifying contractor", s.ID)
		return nil
	}

	task := &models.GeneratedTask{
		MaintenanceScheduleID: s.ID,
		BuildingID:            s.BuildingID,
		AssetID:               s.AssetID,
		Title:                 s.Subject,
		Description:           s.Description,
		AssignedContractorID:  contractor.ID,
		DueDate:               s.NextDueDate,
		Status:                models.TaskStatusPending,
		Tags:                  []string{models.TagScheduledMaintenance, s.Recurrence},
	}

	if err := g.tasks.Create(ctx, task); err != nil {
		return fmt.Errorf("creating task: %w", err)
	}

	if err := g.advance(ctx, s, task.ID); err != nil {
		return err
	}

	result.TasksCreated++
	result.TaskIDs = append(result.TaskIDs, task.ID)

	if g.broadcaster != nil {
		g.broadcaster.BroadcastTaskCreated(task.ID, s.ID, s.BuildingID, task.Title, contractor.ID, task.DueDate)
	}

	// Task and schedule state are committed; notification is best-effort.
	if err := g.notifyContractor(ctx, contractor, task); err != nil {
		log.Printf("Failed to notify contractor %s for task %s: %v", contractor.ID, task.ID, err)
		result.Errors = append(result.Errors, models.ItemError{
			SubjectID: s.ID,
			Message:   fmt.Sprintf("notifying contractor: %v", err),
		})
	}

	return nil
}

// advance moves the schedule past the occurrence covered by taskID. A
// one-off schedule completes; a recurring one gets its next due date from
// the previous due date, never from today, so month arithmetic cannot drift.
func (g *Generator) advance(ctx context.Context, s *models.MaintenanceSchedule, taskID string) error {
	if s.Recurrence == models.RecurrenceNone {
		if err := g.schedules.Advance(ctx, s.ID, taskID, s.NextDueDate, models.ScheduleStatusCompleted); err != nil {
			return fmt.Errorf("completing one-off schedule: %w", err)
		}
		g.broadcastStatus(s, models.ScheduleStatusCompleted)
		return nil
	}

	nextDue, err := NextOccurrence(s.NextDueDate, s.Recurrence)
	if err != nil {
		return fmt.Errorf("computing next occurrence: %w", err)
	}

	if err := g.schedules.Advance(ctx, s.ID, taskID, nextDue, models.ScheduleStatusActive); err != nil {
		return fmt.Errorf("advancing schedule: %w", err)
	}

	return nil
}

// notifyContractor dispatches the new-task notification and records the sent
// flag on success.
func (g *Generator) notifyContractor(ctx context.Context, c *models.Contractor, task *models.GeneratedTask) error {
	subject := fmt.Sprintf("New maintenance task: %s", task.Title)
	body := fmt.Sprintf(
		"Hello %s,\n\nA maintenance task has been assigned to you.\n\nTask: %s\nDue date: %s\n\n%s\n",
		c.Name, task.Title, task.DueDate.Format("2006-01-02"), task.Description,
	)

	err := g.dispatcher.Notify(ctx, notify.Recipient{ID: c.ID, Name: c.Name, Email: c.Email}, subject, body)
	if err != nil {
		return err
	}

	if err := g.tasks.MarkNotificationSent(ctx, task.ID); err != nil {
		log.Printf("Failed to mark notification sent for task %s: %v", task.ID, err)
	}

	return nil
}

func (g *Generator) broadcastStatus(s *models.MaintenanceSchedule, newStatus string) {
	if g.broadcaster != nil {
		g.broadcaster.BroadcastScheduleStatusChanged(s.ID, s.Subject, s.Status, newStatus)
	}
}
