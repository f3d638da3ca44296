package dto

import (
	"time"

	"github.com/smaplan/timetable-api/internal/models"
	"github.com/smaplan/timetable-api/internal/scheduler"
)

// GenerateTimetableRequest starts a background generation run. Constraint
// fields override the configured defaults when set.
type GenerateTimetableRequest struct {
	Days                 []int `json:"days" validate:"omitempty,min=1,max=7,dive,min=1,max=7"`
	MaxDailyLessons      *int  `json:"maxDailyLessons" validate:"omitempty,min=1,max=16"`
	MaxWeeklyLessons     *int  `json:"maxWeeklyLessons" validate:"omitempty,min=1,max=80"`
	PreferMorning        *bool `json:"preferMorning"`
	BalanceWorkload      *bool `json:"balanceWorkload"`
	MinLessonsPerSubject *int  `json:"minLessonsPerSubject" validate:"omitempty,min=0,max=40"`
	MaxLessonsPerSubject *int  `json:"maxLessonsPerSubject" validate:"omitempty,min=0,max=40"`
}

// Constraints merges the request overrides onto the given defaults.
func (r GenerateTimetableRequest) Constraints(base models.Constraints) models.Constraints {
	if r.MaxDailyLessons != nil {
		base.MaxDailyLessons = *r.MaxDailyLessons
	}
	if r.MaxWeeklyLessons != nil {
		base.MaxWeeklyLessons = *r.MaxWeeklyLessons
	}
	if r.PreferMorning != nil {
		base.PreferMorning = *r.PreferMorning
	}
	if r.BalanceWorkload != nil {
		base.BalanceWorkload = *r.BalanceWorkload
	}
	if r.MinLessonsPerSubject != nil {
		base.MinLessonsPerSubject = *r.MinLessonsPerSubject
	}
	if r.MaxLessonsPerSubject != nil {
		base.MaxLessonsPerSubject = *r.MaxLessonsPerSubject
	}
	return base
}

// Generation run states.
const (
	RunStatePending    = "PENDING"
	RunStateRunning    = "RUNNING"
	RunStateCompleted  = "COMPLETED"
	RunStateFailed     = "FAILED"
	RunStateCancelling = "CANCELLING"
	RunStateCancelled  = "CANCELLED"
)

// GenerationRun identifies an accepted background run.
type GenerationRun struct {
	RunID string `json:"runId"`
	State string `json:"state"`
}

// GenerationSnapshot is the latest observable progress of a run.
type GenerationSnapshot struct {
	RunID       string              `json:"runId"`
	State       string              `json:"state"`
	Phase       string              `json:"phase,omitempty"`
	Percent     int                 `json:"percent"`
	TimetableID string              `json:"timetableId,omitempty"`
	Score       int                 `json:"score,omitempty"`
	Warnings    *scheduler.Warnings `json:"warnings,omitempty"`
	Error       string              `json:"error,omitempty"`
	StartedAt   time.Time           `json:"startedAt"`
	FinishedAt  *time.Time          `json:"finishedAt,omitempty"`
}

// SlotPosition addresses one grid cell in requests.
type SlotPosition struct {
	Day      int    `json:"day" validate:"required,min=1,max=7"`
	PeriodID string `json:"periodId" validate:"required"`
	ClassID  string `json:"classId" validate:"required"`
}

// MoveSlotRequest relocates a lesson between two cells of a stored timetable.
type MoveSlotRequest struct {
	From SlotPosition `json:"from" validate:"required"`
	To   SlotPosition `json:"to" validate:"required"`
}

// CheckSlotRequest evaluates a prospective edit without applying it.
type CheckSlotRequest struct {
	Position  SlotPosition `json:"position" validate:"required"`
	SubjectID string       `json:"subjectId" validate:"required"`
	TeacherID string       `json:"teacherId" validate:"required"`
	RoomID    string       `json:"roomId"`
}

// CheckSlotResponse lists the hard-constraint violations of a proposed edit.
type CheckSlotResponse struct {
	Allowed    bool                  `json:"allowed"`
	Violations []scheduler.Violation `json:"violations"`
}

// ValidationResponse wraps the feasibility validator's findings.
type ValidationResponse struct {
	Feasible bool              `json:"feasible"`
	Issues   []scheduler.Issue `json:"issues"`
}

// TimetableResponse is a stored timetable with its flat slot list.
type TimetableResponse struct {
	Timetable models.Timetable       `json:"timetable"`
	Slots     []models.TimetableSlot `json:"slots"`
}
