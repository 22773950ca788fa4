package models

import (
	"time"

	"github.com/lib/pq"
)

// Faculty represents an instructor record.
type Faculty struct {
	ID              string         `db:"id" json:"id"`
	Code            string         `db:"code" json:"code"`
	FullName        string         `db:"full_name" json:"full_name"`
	Email           string         `db:"email" json:"email"`
	Department      string         `db:"department" json:"department"`
	Expertise       pq.StringArray `db:"expertise" json:"expertise"`
	MaxHoursPerWeek int            `db:"max_hours_per_week" json:"max_hours_per_week"`
	Active          bool           `db:"active" json:"active"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// FacultyFilter captures filtering options for listing faculty.
type FacultyFilter struct {
	Department string
	Active     *bool
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
