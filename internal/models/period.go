package models

import (
	"strconv"
	"strings"
	"time"
)

// PeriodKind distinguishes teaching periods from fixed pauses.
type PeriodKind string

const (
	PeriodKindLesson PeriodKind = "LESSON"
	PeriodKindBreak  PeriodKind = "BREAK"
	PeriodKindLunch  PeriodKind = "LUNCH"
)

const morningCutoffMinutes = 12 * 60

// Period represents one column of the daily timetable, e.g. "07:30-08:15".
// Times are stored as HH:MM wall-clock strings.
type Period struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	StartTime string     `db:"start_time" json:"start_time"`
	EndTime   string     `db:"end_time" json:"end_time"`
	Kind      PeriodKind `db:"kind" json:"kind"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// IsLesson reports whether the period can hold a lesson.
func (p Period) IsLesson() bool {
	return p.Kind == PeriodKindLesson
}

// StartMinutes returns the start time as minutes since midnight, -1 when unparseable.
func (p Period) StartMinutes() int {
	return ClockToMinutes(p.StartTime)
}

// EndMinutes returns the end time as minutes since midnight, -1 when unparseable.
func (p Period) EndMinutes() int {
	return ClockToMinutes(p.EndTime)
}

// IsMorning reports whether the period starts before noon.
func (p Period) IsMorning() bool {
	start := p.StartMinutes()
	return start >= 0 && start < morningCutoffMinutes
}

// Overlaps reports whether two periods share wall-clock time.
func (p Period) Overlaps(other Period) bool {
	s1, e1 := p.StartMinutes(), p.EndMinutes()
	s2, e2 := other.StartMinutes(), other.EndMinutes()
	if s1 < 0 || e1 < 0 || s2 < 0 || e2 < 0 {
		return false
	}
	return s1 < e2 && s2 < e1
}

// ClockToMinutes converts an HH:MM string to minutes since midnight.
// Returns -1 for malformed input.
func ClockToMinutes(raw string) int {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return -1
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return -1
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return -1
	}
	return hours*60 + minutes
}
