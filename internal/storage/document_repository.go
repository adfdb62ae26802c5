package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/building-ops/backend/internal/storage/models"
)

// DocumentRepository provides data access for compliance documents.
type DocumentRepository struct {
	BaseRepository
}

// NewDocumentRepository creates a new compliance document repository.
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const documentColumns = `
	id, subject_id, subject_name, owner_email, category, title, details,
	expiry_date, requires_review, reminders_sent, created_at, updated_at`

// Create inserts a new compliance document.
func (r *DocumentRepository) Create(ctx context.Context, d *models.ComplianceDocument) error {
	d.ID = GenerateID()
	d.CreatedAt = r.Now()
	d.UpdatedAt = r.Now()
	if d.Category == "" {
		d.Category = models.DocumentCategoryOther
	}

	reminders, err := marshalTimeMap(d.RemindersSent)
	if err != nil {
		return fmt.Errorf("encoding reminders: %w", err)
	}

	_, err = r.DB().ExecContext(ctx, `
		INSERT INTO compliance_documents (
			id, subject_id, subject_name, owner_email, category, title, details,
			expiry_date, requires_review, reminders_sent, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		d.ID, d.SubjectID, d.SubjectName, d.OwnerEmail, d.Category, d.Title, d.Details,
		d.ExpiryDate, d.RequiresReview, reminders, d.CreatedAt, d.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting compliance document: %w", err)
	}

	return nil
}

// GetByID retrieves a compliance document by its ID.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.ComplianceDocument, error) {
	row := r.DB().QueryRowContext(ctx, `
		SELECT `+documentColumns+`
		FROM compliance_documents WHERE id = ?
	`, id)

	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying compliance document: %w", err)
	}

	return d, nil
}

// ListTracked retrieves all documents that carry an expiry date, ordered by
// expiry so the nearest deadlines are processed first.
func (r *DocumentRepository) ListTracked(ctx context.Context) ([]models.ComplianceDocument, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM compliance_documents
		WHERE expiry_date IS NOT NULL
		ORDER BY expiry_date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying tracked documents: %w", err)
	}
	defer rows.Close()

	return r.scanDocuments(rows)
}

// ListBySubject retrieves all documents for a subject (building or contractor).
func (r *DocumentRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.ComplianceDocument, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM compliance_documents
		WHERE subject_id = ?
		ORDER BY expiry_date, id
	`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("querying documents by subject: %w", err)
	}
	defer rows.Close()

	return r.scanDocuments(rows)
}

// ListAll retrieves every compliance document.
func (r *DocumentRepository) ListAll(ctx context.Context) ([]models.ComplianceDocument, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM compliance_documents
		ORDER BY expiry_date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	return r.scanDocuments(rows)
}

// Update updates an existing compliance document.
func (r *DocumentRepository) Update(ctx context.Context, d *models.ComplianceDocument) error {
	d.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE compliance_documents SET
			subject_id = ?, subject_name = ?, owner_email = ?, category = ?,
			title = ?, details = ?, expiry_date = ?, requires_review = ?, updated_at = ?
		WHERE id = ?
	`,
		d.SubjectID, d.SubjectName, d.OwnerEmail, d.Category,
		d.Title, d.Details, d.ExpiryDate, d.RequiresReview, d.UpdatedAt, d.ID,
	)

	if err != nil {
		return fmt.Errorf("updating compliance document: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("compliance document not found: %s", d.ID)
	}

	return nil
}

// SetRequiresReview flags or clears the document's review marker.
func (r *DocumentRepository) SetRequiresReview(ctx context.Context, id string, requiresReview bool) error {
	_, err := r.DB().ExecContext(ctx, `
		UPDATE compliance_documents SET requires_review = ?, updated_at = ? WHERE id = ?
	`, requiresReview, r.Now(), id)

	if err != nil {
		return fmt.Errorf("updating document review flag: %w", err)
	}

	return nil
}

// MarkReminderSent records a sent reminder under the given key, merging into
// the stored map so unrelated keys are preserved.
func (r *DocumentRepository) MarkReminderSent(ctx context.Context, id, key string, sentAt time.Time) error {
	return r.Transaction(func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx, `
			SELECT reminders_sent FROM compliance_documents WHERE id = ?
		`, id).Scan(&raw)
		if err == sql.ErrNoRows {
			return fmt.Errorf("compliance document not found: %s", id)
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
			UPDATE compliance_documents SET reminders_sent = ?, updated_at = ? WHERE id = ?
		`, encoded, r.Now(), id)
		if err != nil {
			return fmt.Errorf("writing reminders: %w", err)
		}

		return nil
	})
}

// Delete removes a compliance document by ID.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM compliance_documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting compliance document: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("compliance document not found: %s", id)
	}

	return nil
}

func scanDocument(row rowScanner) (*models.ComplianceDocument, error) {
	d := &models.ComplianceDocument{}
	var reminders string

	err := row.Scan(
		&d.ID, &d.SubjectID, &d.SubjectName, &d.OwnerEmail, &d.Category, &d.Title, &d.Details,
		&d.ExpiryDate, &d.RequiresReview, &reminders, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.RemindersSent, err = unmarshalTimeMap(reminders)
	if err != nil {
		return nil, fmt.Errorf("decoding reminders: %w", err)
	}

	return d, nil
}

func (r *DocumentRepository) scanDocuments(rows *sql.Rows) ([]models.ComplianceDocument, error) {
	var documents []models.ComplianceDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning compliance document: %w", err)
		}
		documents = append(documents, *d)
	}
	return documents, rows.Err()
}
