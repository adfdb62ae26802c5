package schedule

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/building-ops/backend/internal/notify"
	"github.com/building-ops/backend/internal/storage/models"
)

// fakeScheduleStore keeps schedules in memory and mirrors the repository's
// due-date filtering so idempotence can be exercised across runs.
type fakeScheduleStore struct {
	schedules map[string]*models.MaintenanceSchedule
}

func newFakeScheduleStore(schedules ...*models.MaintenanceSchedule) *fakeScheduleStore {
	store := &fakeScheduleStore{schedules: make(map[string]*models.MaintenanceSchedule)}
	for _, s := range schedules {
		store.schedules[s.ID] = s
	}
	return store
}

func (f *fakeScheduleStore) ListDue(_ context.Context, today time.Time) ([]models.MaintenanceSchedule, error) {
	var due []models.MaintenanceSchedule
	for _, s := range f.schedules {
		if s.Status == models.ScheduleStatusActive && !s.NextDueDate.After(today) {
			due = append(due, *s)
		}
	}
	return due, nil
}

func (f *fakeScheduleStore) UpdateStatus(_ context.Context, id, status string) error {
	s, ok := f.schedules[id]
	if !ok {
		return fmt.Errorf("schedule not found: %s", id)
	}
	s.Status = status
	return nil
}

func (f *fakeScheduleStore) Advance(_ context.Context, id, taskID string, nextDue time.Time, status string) error {
	s, ok := f.schedules[id]
	if !ok {
		return fmt.Errorf("schedule not found: %s", id)
	}
	s.GeneratedTaskIDs = append(s.GeneratedTaskIDs, taskID)
	s.NextDueDate = nextDue
	s.Status = status
	return nil
}

type fakeTaskStore struct {
	tasks    []*models.GeneratedTask
	notified map[string]bool
	nextID   int
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{notified: make(map[string]bool)}
}

func (f *fakeTaskStore) Create(_ context.Context, t *models.GeneratedTask) error {
	f.nextID++
	t.ID = fmt.Sprintf("task-%d", f.nextID)
	f.tasks = append(f.tasks, t)
	return nil
}

func (f *fakeTaskStore) GetByOccurrence(_ context.Context, scheduleID string, dueDate time.Time) (*models.GeneratedTask, error) {
	for _, t := range f.tasks {
		if t.MaintenanceScheduleID == scheduleID && t.DueDate.Equal(dueDate) {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeTaskStore) MarkNotificationSent(_ context.Context, id string) error {
	f.notified[id] = true
	return nil
}

type fakeContractorStore struct {
	contractors []models.Contractor
}

func (f *fakeContractorStore) ListAll(_ context.Context) ([]models.Contractor, error) {
	return f.contractors, nil
}

// failDispatcher fails every delivery.
type failDispatcher struct{}

func (failDispatcher) Notify(context.Context, notify.Recipient, string, string) error {
	return errors.New("smtp down")
}

func plumber() models.Contractor {
	return models.Contractor{
		ID:              "c-1",
		Name:            "Good Pipes",
		Email:           "pipes@example.com",
		Status:          models.ContractorStatusActive,
		Specialties:     []string{models.SpecialtyPlumbing},
		ComplianceScore: 90,
	}
}

func quarterlySchedule() *models.MaintenanceSchedule {
	return &models.MaintenanceSchedule{
		ID:                     "s-1",
		BuildingID:             "b-1",
		Subject:                "Backflow valve inspection",
		Description:            "Quarterly backflow prevention check",
		Recurrence:             models.RecurrenceQuarterly,
		NextDueDate:            date(2024, time.January, 1),
		Status:                 models.ScheduleStatusActive,
		AssignedContractorType: strptr("plumbing"),
	}
}

func newTestGenerator(schedules *fakeScheduleStore, tasks *fakeTaskStore, contractors []models.Contractor, dispatcher notify.Dispatcher) *Generator {
	if dispatcher == nil {
		dispatcher = notify.NewLogDispatcher()
	}
	return NewGenerator(
		schedules, tasks,
		&fakeContractorStore{contractors: contractors},
		NewAssignmentResolver(0),
		dispatcher,
		nil,
	)
}

func TestGeneratorCreatesTaskAndAdvances(t *testing.T) {
	schedules := newFakeScheduleStore(quarterlySchedule())
	tasks := newFakeTaskStore()
	g := newTestGenerator(schedules, tasks, []models.Contractor{plumber()}, nil)

	result, err := g.Run(context.Background(), date(2024, time.January, 1))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Processed != 1 || result.TasksCreated != 1 {
		t.Fatalf("result = %+v, want 1 processed, 1 created", result)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	if len(tasks.tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks.tasks))
	}
	task := tasks.tasks[0]
	if task.Title != "Backflow valve inspection" || task.AssignedContractorID != "c-1" {
		t.Errorf("task = %+v, want title and contractor from schedule", task)
	}
	if !task.DueDate.Equal(date(2024, time.January, 1)) {
		t.Errorf("task due date = %s, want 2024-01-01", task.DueDate)
	}
	if len(task.Tags) != 2 || task.Tags[0] != models.TagScheduledMaintenance || task.Tags[1] != models.RecurrenceQuarterly {
		t.Errorf("task tags = %v", task.Tags)
	}
	if !tasks.notified[task.ID] {
		t.Error("notification not recorded on task")
	}

	s := schedules.schedules["s-1"]
	if !s.NextDueDate.Equal(date(2024, time.April, 1)) {
		t.Errorf("next due = %s, want 2024-04-01", s.NextDueDate)
	}
	if s.Status != models.ScheduleStatusActive {
		t.Errorf("status = %s, want active", s.Status)
	}
	if len(s.GeneratedTaskIDs) != 1 || s.GeneratedTaskIDs[0] != task.ID {
		t.Errorf("generated task ids = %v", s.GeneratedTaskIDs)
	}
}

func TestGeneratorIdempotentSameDay(t *testing.T) {
	schedules := newFakeScheduleStore(quarterlySchedule())
	tasks := newFakeTaskStore()
	g := newTestGenerator(schedules, tasks, []models.Contractor{plumber()}, nil)

	today := date(2024, time.January, 1)
	if _, err := g.Run(context.Background(), today); err != nil {
		t.Fatalf("first run: %v", err)
	}
	result, err := g.Run(context.Background(), today)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if result.Processed != 0 || result.TasksCreated != 0 {
		t.Errorf("second run result = %+v, want nothing processed", result)
	}
	if len(tasks.tasks) != 1 {
		t.Errorf("got %d tasks after rerun, want 1", len(tasks.tasks))
	}
}

// A task that exists for the current occurrence means a previous run crashed
// between task creation and the schedule advance. The rerun must advance the
// schedule without creating a duplicate.
func TestGeneratorRecoversPartialRun(t *testing.T) {
	s := quarterlySchedule()
	schedules := newFakeScheduleStore(s)
	tasks := newFakeTaskStore()
	tasks.Create(context.Background(), &models.GeneratedTask{
		MaintenanceScheduleID: s.ID,
		DueDate:               s.NextDueDate,
	})

	g := newTestGenerator(schedules, tasks, []models.Contractor{plumber()}, nil)
	result, err := g.Run(context.Background(), date(2024, time.January, 1))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.TasksCreated != 0 {
		t.Errorf("tasks created = %d, want 0", result.TasksCreated)
	}
	if len(tasks.tasks) != 1 {
		t.Errorf("got %d tasks, want 1", len(tasks.tasks))
	}
	if !s.NextDueDate.Equal(date(2024, time.April, 1)) {
		t.Errorf("next due = %s, want 2024-04-01 after recovery", s.NextDueDate)
	}
}

func TestGeneratorCompletesEndedRecurrence(t *testing.T) {
	s := quarterlySchedule()
	end := date(2023, time.December, 15)
	s.RecurrenceEndDate = &end

	schedules := newFakeScheduleStore(s)
	tasks := newFakeTaskStore()
	g := newTestGenerator(schedules, tasks, []models.Contractor{plumber()}, nil)

	result, err := g.Run(context.Background(), date(2024, time.January, 1))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Completed != 1 || result.TasksCreated != 0 {
		t.Errorf("result = %+v, want 1 completed, 0 created", result)
	}
	if s.Status != models.ScheduleStatusCompleted {
		t.Errorf("status = %s, want completed", s.Status)
	}
	if len(tasks.tasks) != 0 {
		t.Errorf("got %d tasks, want none past end date", len(tasks.tasks))
	}
}

func TestGeneratorParksUnassignable(t *testing.T) {
	s := quarterlySchedule()
	schedules := newFakeScheduleStore(s)
	tasks := newFakeTaskStore()
	g := newTestGenerator(schedules, tasks, nil, nil)

	result, err := g.Run(context.Background(), date(2024, time.January, 1))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.PendingAssignment != 1 {
		t.Errorf("pending assignment = %d, want 1", result.PendingAssignment)
	}
	if s.Status != models.ScheduleStatusPendingAssignment {
		t.Errorf("status = %s, want pending_assignment", s.Status)
	}
	if len(tasks.tasks) != 0 {
		t.Errorf("got %d tasks, want none without a contractor", len(tasks.tasks))
	}
	if !s.NextDueDate.Equal(date(2024, time.January, 1)) {
		t.Errorf("next due = %s, want unchanged while parked", s.NextDueDate)
	}
}

func TestGeneratorOneOffCompletesAfterTask(t *testing.T) {
	s := quarterlySchedule()
	s.Recurrence = models.RecurrenceNone

	schedules := newFakeScheduleStore(s)
	tasks := newFakeTaskStore()
	g := newTestGenerator(schedules, tasks, []models.Contractor{plumber()}, nil)

	result, err := g.Run(context.Background(), date(2024, time.January, 1))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.TasksCreated != 1 {
		t.Fatalf("tasks created = %d, want 1", result.TasksCreated)
	}
	if s.Status != models.ScheduleStatusCompleted {
		t.Errorf("status = %s, want completed after one-off task", s.Status)
	}
}

func TestGeneratorNotificationFailureDoesNotRollBack(t *testing.T) {
	s := quarterlySchedule()
	schedules := newFakeScheduleStore(s)
	tasks := newFakeTaskStore()
	g := newTestGenerator(schedules, tasks, []models.Contractor{plumber()}, failDispatcher{})

	result, err := g.Run(context.Background(), date(2024, time.January, 1))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.TasksCreated != 1 {
		t.Fatalf("tasks created = %d, want 1 despite delivery failure", result.TasksCreated)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want the delivery failure recorded", result.Errors)
	}
	if !s.NextDueDate.Equal(date(2024, time.April, 1)) {
		t.Errorf("next due = %s, want schedule advanced anyway", s.NextDueDate)
	}
	if tasks.notified[tasks.tasks[0].ID] {
		t.Error("notification flag set despite delivery failure")
	}
}

func TestGeneratorScopedToBuilding(t *testing.T) {
	s1 := quarterlySchedule()
	s2 := quarterlySchedule()
	s2.ID = "s-2"
	s2.BuildingID = "b-2"

	schedules := newFakeScheduleStore(s1, s2)
	tasks := newFakeTaskStore()
	g := newTestGenerator(schedules, tasks, []models.Contractor{plumber()}, nil)

	result, err := g.RunForBuilding(context.Background(), date(2024, time.January, 1), "b-2")
	if err != nil {
		t.Fatalf("RunForBuilding: %v", err)
	}

	if result.Processed != 1 || result.TasksCreated != 1 {
		t.Fatalf("result = %+v, want only b-2 processed", result)
	}
	if tasks.tasks[0].BuildingID != "b-2" {
		t.Errorf("task building = %s, want b-2", tasks.tasks[0].BuildingID)
	}
	if s1.Status != models.ScheduleStatusActive || len(s1.GeneratedTaskIDs) != 0 {
		t.Errorf("schedule s-1 touched by scoped run: %+v", s1)
	}
}
