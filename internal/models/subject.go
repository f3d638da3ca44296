package models

import "time"

// SubjectPriority weights how strongly a subject competes for slots.
type SubjectPriority string

const (
	SubjectPriorityHigh   SubjectPriority = "HIGH"
	SubjectPriorityMedium SubjectPriority = "MEDIUM"
	SubjectPriorityLow    SubjectPriority = "LOW"
)

// Subject represents an academic subject with its weekly lesson target.
type Subject struct {
	ID            string          `db:"id" json:"id"`
	Code          string          `db:"code" json:"code"`
	Name          string          `db:"name" json:"name"`
	TargetPerWeek int             `db:"target_per_week" json:"target_per_week"`
	Priority      SubjectPriority `db:"priority" json:"priority"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}
