package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/building-ops/backend/internal/storage/models"
)

// ContractorRepository provides data access for contractors.
type ContractorRepository struct {
	BaseRepository
}

// NewContractorRepository creates a new contractor repository.
func NewContractorRepository(db *DB) *ContractorRepository {
	return &ContractorRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const contractorColumns = `
	id, name, email, phone, status, specialties, compliance_score,
	license_expiry, insurance_expiry, work_cover_expiry, public_liability_expiry,
	reminders_sent, notification_date, created_at, updated_at`

// Create inserts a new contractor.
func (r *ContractorRepository) Create(ctx context.Context, c *models.Contractor) error {
	c.ID = GenerateID()
	c.CreatedAt = r.Now()
	c.UpdatedAt = r.Now()
	if c.Status == "" {
		c.Status = models.ContractorStatusActive
	}

	specialties, err := marshalStringList(c.Specialties)
	if err != nil {
		return fmt.Errorf("encoding specialties: %w", err)
	}
	reminders, err := marshalTimeMap(c.RemindersSent)
	if err != nil {
		return fmt.Errorf("encoding reminders: %w", err)
	}

	_, err = r.DB().ExecContext(ctx, `
		INSERT INTO contractors (
			id, name, email, phone, status, specialties, compliance_score,
			license_expiry, insurance_expiry, work_cover_expiry, public_liability_expiry,
			reminders_sent, notification_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.Name, c.Email, c.Phone, c.Status, specialties, c.ComplianceScore,
		c.LicenseExpiry, c.InsuranceExpiry, c.WorkCoverExpiry, c.PublicLiabilityExpiry,
		reminders, c.NotificationDate, c.CreatedAt, c.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting contractor: %w", err)
	}

	return nil
}

// GetByID retrieves a contractor by its ID.
func (r *ContractorRepository) GetByID(ctx context.Context, id string) (*models.Contractor, error) {
	row := r.DB().QueryRowContext(ctx, `
		SELECT `+contractorColumns+`
		FROM contractors WHERE id = ?
	`, id)

	c, err := scanContractor(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying contractor: %w", err)
	}

	return c, nil
}

// ListActive retrieves all active contractors, ordered by creation time so
// assignment resolution sees a stable input order.
func (r *ContractorRepository) ListActive(ctx context.Context) ([]models.Contractor, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+contractorColumns+`
		FROM contractors
		WHERE status = 'active'
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying active contractors: %w", err)
	}
	defer rows.Close()

	return r.scanContractors(rows)
}

// ListMonitored retrieves contractors subject to compliance scanning:
// everything except inactive records.
func (r *ContractorRepository) ListMonitored(ctx context.Context) ([]models.Contractor, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+contractorColumns+`
		FROM contractors
		WHERE status != 'inactive'
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying monitored contractors: %w", err)
	}
	defer rows.Close()

	return r.scanContractors(rows)
}

// ListAll retrieves every contractor.
func (r *ContractorRepository) ListAll(ctx context.Context) ([]models.Contractor, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+contractorColumns+`
		FROM contractors
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying contractors: %w", err)
	}
	defer rows.Close()

	return r.scanContractors(rows)
}

// Update updates an existing contractor.
func (r *ContractorRepository) Update(ctx context.Context, c *models.Contractor) error {
	c.UpdatedAt = r.Now()

	specialties, err := marshalStringList(c.Specialties)
	if err != nil {
		return fmt.Errorf("encoding specialties: %w", err)
	}

	result, err := r.DB().ExecContext(ctx, `
		UPDATE contractors SET
			name = ?, email = ?, phone = ?, status = ?, specialties = ?,
			compliance_score = ?, license_expiry = ?, insurance_expiry = ?,
			work_cover_expiry = ?, public_liability_expiry = ?, notification_date = ?,
			updated_at = ?
		WHERE id = ?
	`,
		c.Name, c.Email, c.Phone, c.Status, specialties,
		c.ComplianceScore, c.LicenseExpiry, c.InsuranceExpiry,
		c.WorkCoverExpiry, c.PublicLiabilityExpiry, c.NotificationDate,
		c.UpdatedAt, c.ID,
	)

	if err != nil {
		return fmt.Errorf("updating contractor: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("contractor not found: %s", c.ID)
	}

	return nil
}

// UpdateComplianceStatus transitions the contractor's compliance state and
// its notification date in one statement. The reminder map is untouched.
func (r *ContractorRepository) UpdateComplianceStatus(ctx context.Context, id, status string, notificationDate *time.Time) error {
	_, err := r.DB().ExecContext(ctx, `
		UPDATE contractors SET status = ?, notification_date = ?, updated_at = ? WHERE id = ?
	`, status, notificationDate, r.Now(), id)

	if err != nil {
		return fmt.Errorf("updating contractor compliance status: %w", err)
	}

	return nil
}

// MarkReminderSent records a sent reminder under the given key. The stored
// map is read, merged, and written back inside a transaction so unrelated
// keys are preserved.
func (r *ContractorRepository) MarkReminderSent(ctx context.Context, id, key string, sentAt time.Time) error {
	return r.Transaction(func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx, `
			SELECT reminders_sent FROM contractors WHERE id = ?
		`, id).Scan(&raw)
		if err == sql.ErrNoRows {
			return fmt.Errorf("contractor not found: %s", id)
		}
		if err != nil {
			return fmt.Errorf("reading reminders: %w", err)
		}

		reminders, err := unmarshalTimeMap(raw)
		if err != nil {
			return fmt.Errorf("decoding reminders: %w", err)
		}
		reminders[key] = sentAt

		encoded, err := marshalTimeMap(reminders)
		if err != nil {
			return fmt.Errorf("encoding reminders: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE contractors SET reminders_sent = ?, updated_at = ? WHERE id = ?
		`, encoded, r.Now(), id)
		if err != nil {
			return fmt.Errorf("writing reminders: %w", err)
		}

		return nil
	})
}

// Delete removes a contractor by ID.
func (r *ContractorRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM contractors WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting contractor: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("contractor not found: %s", id)
	}

	return nil
}

func scanContractor(row rowScanner) (*models.Contractor, error) {
	c := &models.Contractor{}
	var specialties, reminders string

	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Status, &specialties, &c.ComplianceScore,
		&c.LicenseExpiry, &c.InsuranceExpiry, &c.WorkCoverExpiry, &c.PublicLiabilityExpiry,
		&reminders, &c.NotificationDate, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Specialties, err = unmarshalStringList(specialties)
	if err != nil {
		return nil, fmt.Errorf("decoding specialties: %w", err)
	}
	c.RemindersSent, err = unmarshalTimeMap(reminders)
	if err != nil {
		return nil, fmt.Errorf("decoding reminders: %w", err)
	}

	return c, nil
}

func (r *ContractorRepository) scanContractors(rows *sql.Rows) ([]models.Contractor, error) {
	var contractors []models.Contractor
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning contractor: %w", err)
		}
		contractors = append(contractors, *c)
	}
	return contractors, rows.Err()
}
