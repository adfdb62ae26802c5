package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/building-ops/backend/internal/storage/models"
)

// TaskRepository provides data access for generated tasks.
type TaskRepository struct {
	BaseRepository
}

// NewTaskRepository creates a new generated task repository.
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const taskColumns = `
	id, maintenance_schedule_id, building_id, asset_id, title, description,
	assigned_contractor_id, due_date, status, tags, notification_sent,
	created_at, updated_at`

// Create inserts a new generated task.
func (r *TaskRepository) Create(ctx context.Context, t *models.GeneratedTask) error {
	t.ID = GenerateID()
	t.CreatedAt = r.Now()
	t.UpdatedAt = r.Now()
	if t.Status == "" {
		t.Status = models.TaskStatusPending
	}

	tags, err := marshalStringList(t.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	_, err = r.DB().ExecContext(ctx, `
		INSERT INTO generated_tasks (
			id, maintenance_schedule_id, building_id, asset_id, title, description,
			assigned_contractor_id, due_date, status, tags, notification_sent,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.MaintenanceScheduleID, t.BuildingID, t.AssetID, t.Title, t.Description,
		t.AssignedContractorID, t.DueDate, t.Status, tags, t.NotificationSent,
		t.CreatedAt, t.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting generated task: %w", err)
	}

	return nil
}

// CreateBatch inserts several generated tasks in a single transaction.
func (r *TaskRepository) CreateBatch(ctx context.Context, tasks []*models.GeneratedTask) error {
	return r.Transaction(func(tx *sql.Tx) error {
		for _, t := range tasks {
			t.ID = GenerateID()
			t.CreatedAt = r.Now()
			t.UpdatedAt = r.Now()
			if t.Status == "" {
				t.Status = models.TaskStatusPending
			}

			tags, err := marshalStringList(t.Tags)
			if err != nil {
				return fmt.Errorf("encoding tags: %w", err)
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO generated_tasks (
					id, maintenance_schedule_id, building_id, asset_id, title, description,
					assigned_contractor_id, due_date, status, tags, notification_sent,
					created_at, updated_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				t.ID, t.MaintenanceScheduleID, t.BuildingID, t.AssetID, t.Title, t.Description,
				t.AssignedContractorID, t.DueDate, t.Status, tags, t.NotificationSent,
				t.CreatedAt, t.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("inserting generated task: %w", err)
			}
		}
		return nil
	})
}

// GetByID retrieves a generated task by its ID.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.GeneratedTask, error) {
	row := r.DB().QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM generated_tasks WHERE id = ?
	`, id)

	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying generated task: %w", err)
	}

	return t, nil
}

// GetByOccurrence retrieves the task covering the given (schedule, due date)
// occurrence, or nil if none exists. Used by the generator's de-dup check.
func (r *TaskRepository) GetByOccurrence(ctx context.Context, scheduleID string, dueDate time.Time) (*models.GeneratedTask, error) {
	row := r.DB().QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM generated_tasks
		WHERE maintenance_schedule_id = ? AND due_date = ?
	`, scheduleID, dueDate)

	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying task occurrence: %w", err)
	}

	return t, nil
}

// ListBySchedule retrieves all tasks generated from a schedule.
func (r *TaskRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.GeneratedTask, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM generated_tasks
		WHERE maintenance_schedule_id = ?
		ORDER BY due_date
	`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("querying tasks by schedule: %w", err)
	}
	defer rows.Close()

	return r.scanTasks(rows)
}

// ListByBuilding retrieves all tasks for a building.
func (r *TaskRepository) ListByBuilding(ctx context.Context, buildingID string) ([]models.GeneratedTask, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM generated_tasks
		WHERE building_id = ?
		ORDER BY due_date
	`, buildingID)
	if err != nil {
		return nil, fmt.Errorf("querying tasks by building: %w", err)
	}
	defer rows.Close()

	return r.scanTasks(rows)
}

// ListByStatus retrieves all tasks with a specific status.
func (r *TaskRepository) ListByStatus(ctx context.Context, status string) ([]models.GeneratedTask, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM generated_tasks
		WHERE status = ?
		ORDER BY due_date
	`, status)
	if err != nil {
		return nil, fmt.Errorf("querying tasks by status: %w", err)
	}
	defer rows.Close()

	return r.scanTasks(rows)
}

// MarkNotificationSent records that the assignee was notified about the task.
func (r *TaskRepository) MarkNotificationSent(ctx context.Context, id string) error {
	_, err := r.DB().ExecContext(ctx, `
		UPDATE generated_tasks SET notification_sent = 1, updated_at = ? WHERE id = ?
	`, r.Now(), id)

	if err != nil {
		return fmt.Errorf("marking task notification sent: %w", err)
	}

	return nil
}

// UpdateStatus updates just the status of a task.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.DB().ExecContext(ctx, `
		UPDATE generated_tasks SET status = ?, updated_at = ? WHERE id = ?
	`, status, r.Now(), id)

	if err != nil {
		return fmt.Errorf("updating task status: %w", err)
	}

	return nil
}

func scanTask(row rowScanner) (*models.GeneratedTask, error) {
	t := &models.GeneratedTask{}
	var tags string

	err := row.Scan(
		&t.ID, &t.MaintenanceScheduleID, &t.BuildingID, &t.AssetID, &t.Title, &t.Description,
		&t.AssignedContractorID, &t.DueDate, &t.Status, &tags, &t.NotificationSent,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Tags, err = unmarshalStringList(tags)
	if err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}

	return t, nil
}

func (r *TaskRepository) scanTasks(rows *sql.Rows) ([]models.GeneratedTask, error) {
	var tasks []models.GeneratedTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning generated task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}
