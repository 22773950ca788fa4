package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/campus-alloc-api/internal/models"
)

// FacultyPreferenceRepository persists declared faculty preferences.
type FacultyPreferenceRepository struct {
	db *sqlx.DB
}

// NewFacultyPreferenceRepository constructs the repository.
func NewFacultyPreferenceRepository(db *sqlx.DB) *FacultyPreferenceRepository {
	return &FacultyPreferenceRepository{db: db}
}

// GetByFaculty returns the stored preference record for a faculty member.
func (r *FacultyPreferenceRepository) GetByFaculty(ctx context.Context, facultyID string) (*models.FacultyPreferenceRecord, error) {
	const query = `SELECT id, faculty_id, payload, created_at, updated_at FROM faculty_preferences WHERE faculty_id = $1`
	var record models.FacultyPreferenceRecord
	if err := r.db.GetContext(ctx, &record, query, facultyID); err != nil {
		return nil, err
	}
	return &record, nil
}

// Upsert creates or replaces a faculty member's preference payload.
func (r *FacultyPreferenceRepository) Upsert(ctx context.Context, record *models.FacultyPreferenceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	if len(record.Payload) == 0 {
		record.Payload = types.JSONText(`{}`)
	}

	const query = `INSERT INTO faculty_preferences (id, faculty_id, payload, created_at, updated_at)
		VALUES (:id, :faculty_id, :payload, :created_at, :updated_at)
		ON CONFLICT (faculty_id) DO UPDATE
		SET payload = EXCLUDED.payload,
		    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert faculty preference: %w", err)
	}
	return nil
}
