package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableStatus represents lifecycle phases for generated timetables.
type TimetableStatus string

const (
	TimetableStatusDraft     TimetableStatus = "DRAFT"
	TimetableStatusPublished TimetableStatus = "PUBLISHED"
	TimetableStatusArchived  TimetableStatus = "ARCHIVED"
)

// Timetable is a versioned header for one generated weekly grid.
type Timetable struct {
	ID        string          `db:"id" json:"id"`
	Version   int             `db:"version" json:"version"`
	Status    TimetableStatus `db:"status" json:"status"`
	Score     int             `db:"score" json:"score"`
	Meta      types.JSONText  `db:"meta" json:"meta"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// TimetableSlot is the persisted form of a grid cell: one class's assignment
// (or lack thereof) for one day and period. Day is 1-based, Monday first.
type TimetableSlot struct {
	ID          string    `db:"id" json:"id"`
	TimetableID string    `db:"timetable_id" json:"timetable_id"`
	Day         int       `db:"day" json:"day"`
	PeriodID    string    `db:"period_id" json:"period_id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	SubjectID   *string   `db:"subject_id" json:"subject_id,omitempty"`
	TeacherID   *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	RoomID      *string   `db:"room_id" json:"room_id,omitempty"`
	IsBreak     bool      `db:"is_break" json:"is_break"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

var dayIndexMap = map[int]string{
	1: "MONDAY",
	2: "TUESDAY",
	3: "WEDNESDAY",
	4: "THURSDAY",
	5: "FRIDAY",
	6: "SATURDAY",
	7: "SUNDAY",
}

var dayNameIndex = func() map[string]int {
	m := make(map[string]int, len(dayIndexMap))
	for idx, name := range dayIndexMap {
		m[name] = idx
	}
	return m
}()

// DayName maps a 1-based day index to its weekday name.
func DayName(day int) string {
	if name, ok := dayIndexMap[day]; ok {
		return name
	}
	return "MONDAY"
}

// DayIndex maps a weekday name to its 1-based index, zero when unknown.
func DayIndex(name string) int {
	return dayNameIndex[name]
}
