package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// Teacher represents an instructor with subject and class-level eligibility.
// Availability is a JSON map of weekday name to allowed period ids; an empty
// or missing map means the teacher is available for every lesson period.
type Teacher struct {
	ID                string         `db:"id" json:"id"`
	FullName          string         `db:"full_name" json:"full_name"`
	Email             string         `db:"email" json:"email"`
	SubjectIDs        pq.StringArray `db:"subject_ids" json:"subject_ids"`
	ClassLevels       pq.StringArray `db:"class_levels" json:"class_levels"`
	Availability      types.JSONText `db:"availability" json:"availability,omitempty"`
	MorningPreference bool           `db:"morning_preference" json:"morning_preference"`
	Active            bool           `db:"active" json:"active"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// TeachesSubject reports whether the teacher is eligible for the subject.
func (t Teacher) TeachesSubject(subjectID string) bool {
	for _, id := range t.SubjectIDs {
		if id == subjectID {
			return true
		}
	}
	return false
}

// TeachesLevel reports whether the teacher is eligible for the class level.
func (t Teacher) TeachesLevel(level string) bool {
	for _, l := range t.ClassLevels {
		if l == level {
			return true
		}
	}
	return false
}

// AvailabilityMap decodes the availability JSON. A nil map means unrestricted.
func (t Teacher) AvailabilityMap() map[string][]string {
	if len(t.Availability) == 0 {
		return nil
	}
	var m map[string][]string
	if err := json.Unmarshal(t.Availability, &m); err != nil {
		return nil
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
