package models

import (
	"strconv"
	"time"
)

// Class represents an academic class or section, e.g. grade 11 science stream.
type Class struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Level        string    `db:"level" json:"level"`
	Stream       string    `db:"stream" json:"stream"`
	StudentCount *int      `db:"student_count" json:"student_count,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// LevelRank orders class levels numerically where possible so that higher
// grades sort ahead of lower ones. Non-numeric levels rank zero.
func (c Class) LevelRank() int {
	rank, err := strconv.Atoi(c.Level)
	if err != nil {
		return 0
	}
	return rank
}
