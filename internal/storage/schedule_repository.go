package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/building-ops/backend/internal/storage/models"
)

// ScheduleRepository provides data access for maintenance schedules.
type ScheduleRepository struct {
	BaseRepository
}

// NewScheduleRepository creates a new maintenance schedule repository.
func NewScheduleRepository(db *DB) *ScheduleRepository {
	return &ScheduleRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const scheduleColumns = `
	id, building_id, asset_id, subject, description, recurrence,
	next_due_date, recurrence_end_date, status, assigned_contractor_id,
	assigned_contractor_type, generated_task_ids, created_at, updated_at`

// Create inserts a new maintenance schedule.
func (r *ScheduleRepository) Create(ctx context.Context, s *models.MaintenanceSchedule) error {
	s.ID = GenerateID()
	s.CreatedAt = r.Now()
	s.UpdatedAt = r.Now()
	if s.Status == "" {
		s.Status = models.ScheduleStatusActive
	}

	taskIDs, err := marshalStringList(s.GeneratedTaskIDs)
	if err != nil {
		return fmt.Errorf("encoding task ids: %w", err)
	}

	_, err = r.DB().ExecContext(ctx, `
		INSERT INTO maintenance_schedules (
			id, building_id, asset_id, subject, description, recurrence,
			next_due_date, recurrence_end_date, status, assigned_contractor_id,
			assigned_contractor_type, generated_task_ids, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.ID, s.BuildingID, s.AssetID, s.Subject, s.Description, s.Recurrence,
		s.NextDueDate, s.RecurrenceEndDate, s.Status, s.AssignedContractorID,
		s.AssignedContractorType, taskIDs, s.CreatedAt, s.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting maintenance schedule: %w", err)
	}

	return nil
}

// GetByID retrieves a maintenance schedule by its ID.
func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*models.MaintenanceSchedule, error) {
	row := r.DB().QueryRowContext(ctx, `
		SELECT `+scheduleColumns+`
		FROM maintenance_schedules WHERE id = ?
	`, id)

	s, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying maintenance schedule: %w", err)
	}

	return s, nil
}

// ListDue retrieves active schedules whose next occurrence is on or before
// the given date, ordered by schedule id for deterministic batch processing.
func (r *ScheduleRepository) ListDue(ctx context.Context, today time.Time) ([]models.MaintenanceSchedule, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+scheduleColumns+`
		FROM maintenance_schedules
		WHERE status = 'active' AND next_due_date <= ?
		ORDER BY id
	`, today)
	if err != nil {
		return nil, fmt.Errorf("querying due schedules: %w", err)
	}
	defer rows.Close()

	return r.scanSchedules(rows)
}

// ListByStatus retrieves all schedules with a specific status.
func (r *ScheduleRepository) ListByStatus(ctx context.Context, status string) ([]models.MaintenanceSchedule, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+scheduleColumns+`
		FROM maintenance_schedules
		WHERE status = ?
		ORDER BY id
	`, status)
	if err != nil {
		return nil, fmt.Errorf("querying schedules by status: %w", err)
	}
	defer rows.Close()

	return r.scanSchedules(rows)
}

// ListByBuilding retrieves all schedules for a building.
func (r *ScheduleRepository) ListByBuilding(ctx context.Context, buildingID string) ([]models.MaintenanceSchedule, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+scheduleColumns+`
		FROM maintenance_schedules
		WHERE building_id = ?
		ORDER BY id
	`, buildingID)
	if err != nil {
		return nil, fmt.Errorf("querying schedules by building: %w", err)
	}
	defer rows.Close()

	return r.scanSchedules(rows)
}

// ListAll retrieves every maintenance schedule.
func (r *ScheduleRepository) ListAll(ctx context.Context) ([]models.MaintenanceSchedule, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+scheduleColumns+`
		FROM maintenance_schedules
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying schedules: %w", err)
	}
	defer rows.Close()

	return r.scanSchedules(rows)
}

// Update updates an existing maintenance schedule.
func (r *ScheduleRepository) Update(ctx context.Context, s *models.MaintenanceSchedule) error {
	s.UpdatedAt = r.Now()

	taskIDs, err := marshalStringList(s.GeneratedTaskIDs)
	if err != nil {
		return fmt.Errorf("encoding task ids: %w", err)
	}

	result, err := r.DB().ExecContext(ctx, `
		UPDATE maintenance_schedules SET
			subject = ?, description = ?, recurrence = ?, next_due_date = ?,
			recurrence_end_date = ?, status = ?, assigned_contractor_id = ?,
			assigned_contractor_type = ?, generated_task_ids = ?, updated_at = ?
		WHERE id = ?
	`,
		s.Subject, s.Description, s.Recurrence, s.NextDueDate,
		s.RecurrenceEndDate, s.Status, s.AssignedContractorID,
		s.AssignedContractorType, taskIDs, s.UpdatedAt, s.ID,
	)

	if err != nil {
		return fmt.Errorf("updating maintenance schedule: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("maintenance schedule not found: %s", s.ID)
	}

	return nil
}

// UpdateStatus updates just the status of a schedule.
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.DB().ExecContext(ctx, `
		UPDATE maintenance_schedules SET status = ?, updated_at = ? WHERE id = ?
	`, status, r.Now(), id)

	if err != nil {
		return fmt.Errorf("updating schedule status: %w", err)
	}

	return nil
}

// Advance records a generated occurrence: it appends the task id to the
// schedule's list and moves next_due_date forward, in a single transaction so
// the task-id list is read-merge-written rather than replaced wholesale.
func (r *ScheduleRepository) Advance(ctx context.Context, id, taskID string, nextDue time.Time, status string) error {
	return r.Transaction(func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx, `
			SELECT generated_task_ids FROM maintenance_schedules WHERE id = ?
		`, id).Scan(&raw)
		if err == sql.ErrNoRows {
			return fmt.Errorf("maintenance schedule not found: %s", id)
		}
		if err != nil {
			return fmt.Errorf("reading task ids: %w", err)
		}

		taskIDs, err := unmarshalStringList(raw)
		if err != nil {
			return fmt.Errorf("decoding task ids: %w", err)
		}
		taskIDs = append(taskIDs, taskID)

		encoded, err := marshalStringList(taskIDs)
		if err != nil {
			return fmt.Errorf("encoding task ids: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE maintenance_schedules SET
				generated_task_ids = ?, next_due_date = ?, status = ?, updated_at = ?
			WHERE id = ?
		`, encoded, nextDue, status, r.Now(), id)
		if err != nil {
			return fmt.Errorf("advancing schedule: %w", err)
		}

		return nil
	})
}

// Delete removes a maintenance schedule by ID.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM maintenance_schedules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting maintenance schedule: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("maintenance schedule not found: %s", id)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*models.MaintenanceSchedule, error) {
	s := &models.MaintenanceSchedule{}
	var taskIDs string

	err := row.Scan(
		&s.ID, &s.BuildingID, &s.AssetID, &s.Subject, &s.Description, &s.Recurrence,
		&s.NextDueDate, &s.RecurrenceEndDate, &s.Status, &s.AssignedContractorID,
		&s.AssignedContractorType, &taskIDs, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.GeneratedTaskIDs, err = unmarshalStringList(taskIDs)
	if err != nil {
		return nil, fmt.Errorf("decoding task ids: %w", err)
	}

	return s, nil
}

func (r *ScheduleRepository) scanSchedules(rows *sql.Rows) ([]models.MaintenanceSchedule, error) {
	var schedules []models.MaintenanceSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning maintenance schedule: %w", err)
		}
		schedules = append(schedules, *s)
	}
	return schedules, rows.Err()
}
