package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-alloc-api/internal/models"
)

// TimetableSlotRepository manages the placements within a timetable version.
type TimetableSlotRepository struct {
	db *sqlx.DB
}

// NewTimetableSlotRepository builds the repository.
func NewTimetableSlotRepository(db *sqlx.DB) *TimetableSlotRepository {
	return &TimetableSlotRepository{db: db}
}

func (r *TimetableSlotRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// UpsertBatch inserts or updates placements for a timetable.
func (r *TimetableSlotRepository) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.TimetableSlot) error {
	if len(slots) == 0 {
		return nil
	}
	target := r.exec(exec)

	const query = `
INSERT INTO timetable_slots (id, timetable_id, course_id, faculty_id, room_id, day, start_time, end_time, purpose, confidence)
VALUES (:id, :timetable_id, :course_id, :faculty_id, :room_id, :day, :start_time, :end_time, :purpose, :confidence)
ON CONFLICT (timetable_id, room_id, day, start_time) DO UPDATE
SET course_id = EXCLUDED.course_id,
    faculty_id = EXCLUDED.faculty_id,
    end_time = EXCLUDED.end_time,
    purpose = EXCLUDED.purpose,
    confidence = EXCLUDED.confidence`

	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, slot); err != nil {
			return fmt.Errorf("upsert timetable slot: %w", err)
		}
	}
	return nil
}

// ListByTimetable returns placements ordered by day/time for a timetable.
func (r *TimetableSlotRepository) ListByTimetable(ctx context.Context, timetableID string) ([]models.TimetableSlot, error) {
	const query = `SELECT id, timetable_id, course_id, faculty_id, room_id, day, start_time, end_time, purpose, confidence
FROM timetable_slots WHERE timetable_id = $1 ORDER BY day ASC, start_time ASC`
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable slots: %w", err)
	}
	return slots, nil
}

// DeleteByTimetable removes all placements of a timetable version.
func (r *TimetableSlotRepository) DeleteByTimetable(ctx context.Context, exec sqlx.ExtContext, timetableID string) error {
	target := r.exec(exec)
	const query = `DELETE FROM timetable_slots WHERE timetable_id = $1`
	if _, err := target.ExecContext(ctx, query, timetableID); err != nil {
		return fmt.Errorf("delete timetable slots: %w", err)
	}
	return nil
}
