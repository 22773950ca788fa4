package models

// TimeSlot is one cell of the externally supplied teaching grid.
// Day is one of MONDAY..SATURDAY; times are HH:MM 24-hour strings.
type TimeSlot struct {
	ID        string `db:"id" json:"id"`
	Day       string `db:"day" json:"day"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}
