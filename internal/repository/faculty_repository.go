package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-alloc-api/internal/models"
)

// FacultyRepository manages persistence for faculty.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository constructs a FacultyRepository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

// List returns faculty matching filters along with total count.
func (r *FacultyRepository) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error) {
	base := "FROM faculty WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "full_name"
	}
	allowedSorts := map[string]string{
		"full_name":  "full_name",
		"email":      "email",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "full_name"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, code, full_name, email, department, expertise, max_hours_per_week, active, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, column, order, size, offset)
	var members []models.Faculty
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list faculty: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count faculty: %w", err)
	}

	return members, total, nil
}

// ListActiveByDepartment returns active faculty for a department.
func (r *FacultyRepository) ListActiveByDepartment(ctx context.Context, department string) ([]models.Faculty, error) {
	const query = `SELECT id, code, full_name, email, department, expertise, max_hours_per_week, active, created_at, updated_at
FROM faculty WHERE department = $1 AND active = TRUE ORDER BY full_name ASC`
	var members []models.Faculty
	if err := r.db.SelectContext(ctx, &members, query, department); err != nil {
		return nil, fmt.Errorf("list active faculty: %w", err)
	}
	return members, nil
}

// FindByID fetches a faculty member by ID.
func (r *FacultyRepository) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	const query = `SELECT id, code, full_name, email, department, expertise, max_hours_per_week, active, created_at, updated_at FROM faculty WHERE id = $1`
	var member models.Faculty
	if err := r.db.GetContext(ctx, &member, query, id); err != nil {
		return nil, err
	}
	return &member, nil
}

// ExistsByEmail checks if another faculty member uses the same email.
func (r *FacultyRepository) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM faculty WHERE LOWER(email) = LOWER($1)"
	args := []interface{}{email}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check faculty email: %w", err)
	}
	return true, nil
}

// Create inserts a new faculty record.
func (r *FacultyRepository) Create(ctx context.Context, member *models.Faculty) error {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}
	member.UpdatedAt = now

	const query = `INSERT INTO faculty (id, code, full_name, email, department, expertise, max_hours_per_week, active, created_at, updated_at)
		VALUES (:id, :code, :full_name, :email, :department, :expertise, :max_hours_per_week, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("create faculty: %w", err)
	}
	return nil
}

// Update modifies an existing faculty record.
func (r *FacultyRepository) Update(ctx context.Context, member *models.Faculty) error {
	member.UpdatedAt = time.Now().UTC()
	const query = `UPDATE faculty SET code = :code, full_name = :full_name, email = :email, department = :department, expertise = :expertise, max_hours_per_week = :max_hours_per_week, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("update faculty: %w", err)
	}
	return nil
}

// Deactivate sets a faculty member's active flag to false.
func (r *FacultyRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE faculty SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate faculty: %w", err)
	}
	return nil
}
