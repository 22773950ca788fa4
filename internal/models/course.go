package models

import "time"

// Course represents a teachable course record. Immutable input to the engine.
type Course struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	Department   string    `db:"department" json:"department"`
	Semester     int       `db:"semester" json:"semester"`
	Credits      int       `db:"credits" json:"credits"`
	LectureHours int       `db:"lecture_hours" json:"lecture_hours"`
	LabHours     int       `db:"lab_hours" json:"lab_hours"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures filtering options for listing courses.
type CourseFilter struct {
	Department string
	Semester   int
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
